package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type Stripe struct {
	api      *stripecl.API
	currency string
}

func NewStripe(api *stripecl.API, currency string) *Stripe {
	return &Stripe{api: api, currency: currency}
}

// Charge creates a card payment method and confirms a payment intent for the
// order total in one go.
func (s *Stripe) Charge(ctx context.Context, ch Charge) (Receipt, error) {
	month, year, err := parseExpiry(ch.Card.Expiry)
	if err != nil {
		return Receipt{}, &DeclineError{Reason: "The card expiry date is invalid."}
	}

	pmp := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(ch.Card.CardNumber),
			ExpMonth: stripe.Int64(int64(month)),
			ExpYear:  stripe.Int64(int64(year)),
			CVC:      stripe.String(ch.Card.CVV),
		},
	}
	pmp.Context = ctx

	pm, err := s.api.PaymentMethods.New(pmp)
	if err != nil {
		return Receipt{}, stripeError("creating payment method", err)
	}

	pip := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(ch.Totals.Total.Shift(2).Round(0).IntPart()),
		Currency:           stripe.String(s.currency),
		PaymentMethod:      stripe.String(pm.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String("Order " + ch.Reference),
		ReceiptEmail:       stripe.String(ch.Email),
	}
	pip.Context = ctx
	pip.AddMetadata("reference", ch.Reference)
	pip.AddMetadata("cardholder", ch.Card.CardholderName)
	pip.SetIdempotencyKey(ch.IdempotencyKey)

	pi, err := s.api.PaymentIntents.New(pip)
	if err != nil {
		return Receipt{}, stripeError("confirming payment intent", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Receipt{}, &DeclineError{Reason: fmt.Sprintf("The payment could not be completed (%s).", pi.Status)}
	}

	return Receipt{Provider: "stripe", PaymentID: pi.ID}, nil
}

func stripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return &DeclineError{Reason: se.Msg}
	}
	return fmt.Errorf("stripe: %s: %w", op, err)
}
