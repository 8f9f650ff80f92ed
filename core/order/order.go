package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/govod-storefront/core/cart"
	"github.com/irsalhamdi/govod-storefront/random"
	"github.com/irsalhamdi/govod-storefront/validate"
)

var (
	ErrEmptyCart = errors.New("no items to checkout")
	ErrStep      = errors.New("action not allowed at this checkout step")
)

const msgPaymentFailed = "Payment could not be processed. Please try again."

type Step int

const (
	StepShipping Step = iota
	StepPayment
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPayment:
		return "payment"
	case StepSubmitted:
		return "submitted"
	}
	return "shipping"
}

type Shipping struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

// Payment holds card data. It is handed to the gateway and never stored.
type Payment struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	Expiry         string `json:"expiry" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardholderName string `json:"cardholderName" validate:"required"`
}

type Confirmation struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Items     []cart.Item     `json:"items"`
	Totals    cart.TotalsView `json:"totals"`
	Email     string          `json:"email"`
	Provider  string          `json:"provider"`
	PaymentID string          `json:"paymentId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// State is one of ShippingInfo, PaymentInfo or Submitted.
type State interface {
	Step() Step
}

type ShippingInfo struct {
	Draft Shipping
}

// PaymentInfo carries the order reference chosen when shipping was accepted.
// Attempt counts the submissions the gateway has turned down; together they
// key the charge, so a repeated submission of one attempt is a single payment.
type PaymentInfo struct {
	Shipping  Shipping
	Reference string
	Attempt   int
	Err       string
}

type Submitted struct {
	Confirmation Confirmation
}

func (ShippingInfo) Step() Step { return StepShipping }
func (PaymentInfo) Step() Step  { return StepPayment }
func (Submitted) Step() Step    { return StepSubmitted }

func Start() ShippingInfo { return ShippingInfo{} }

func (s ShippingInfo) Continue(sh Shipping) (PaymentInfo, error) {
	if err := validate.Check(sh); err != nil {
		return PaymentInfo{}, err
	}

	ref, err := random.Reference()
	if err != nil {
		return PaymentInfo{}, fmt.Errorf("generating order reference: %w", err)
	}
	return PaymentInfo{Shipping: sh, Reference: ref}, nil
}

// Back returns to the shipping step with everything entered so far. The
// reference is dropped; continuing again starts a new one.
func (p PaymentInfo) Back() ShippingInfo {
	return ShippingInfo{Draft: p.Shipping}
}

// Submit charges the cart total through the gateway. On any failure the
// checkout stays on the payment step with Err set. On success the cart is
// emptied.
func (p PaymentInfo) Submit(ctx context.Context, gw Gateway, c *cart.Cart, pay Payment) (State, error) {
	p.Err = ""

	if err := validate.Check(pay); err != nil {
		p.Err = err.Error()
		return p, err
	}

	if c.Empty() {
		p.Err = "Your cart is empty."
		return p, ErrEmptyCart
	}

	if p.Reference == "" {
		ref, err := random.Reference()
		if err != nil {
			p.Err = msgPaymentFailed
			return p, fmt.Errorf("generating order reference: %w", err)
		}
		p.Reference = ref
	}
	ref := p.Reference

	items := append([]cart.Item(nil), c.Items...)
	totals := c.Totals()

	rcpt, err := gw.Charge(ctx, Charge{
		Reference:      ref,
		IdempotencyKey: fmt.Sprintf("%s-%d", ref, p.Attempt+1),
		Items:          items,
		Totals:         totals,
		Card:           pay,
		Name:           p.Shipping.Name,
		Email:          p.Shipping.Email,
	})
	if err != nil {
		p.Attempt++
		p.Err = failureMessage(err)
		return p, fmt.Errorf("charging order[%s]: %w", ref, err)
	}

	c.Clear()

	return Submitted{Confirmation: Confirmation{
		ID:        validate.GenerateID(),
		Reference: ref,
		Items:     items,
		Totals:    totals.View(),
		Email:     p.Shipping.Email,
		Provider:  rcpt.Provider,
		PaymentID: rcpt.PaymentID,
		CreatedAt: time.Now().UTC(),
	}}, nil
}

func failureMessage(err error) string {
	var de *DeclineError
	if errors.As(err, &de) {
		if de.Reason != "" {
			return de.Reason
		}
		return "Your payment was declined."
	}
	return msgPaymentFailed
}
