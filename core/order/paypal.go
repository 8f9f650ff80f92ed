package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/plutov/paypal/v4"
)

type Paypal struct {
	client   *paypal.Client
	currency string
}

func NewPaypal(client *paypal.Client, currency string) *Paypal {
	return &Paypal{client: client, currency: strings.ToUpper(currency)}
}

// Charge creates a capture order carrying the cart lines and captures it
// with the card as payment source. Both calls carry the idempotency key as
// PayPal-Request-Id, so a repeated attempt is answered with the first result.
func (p *Paypal) Charge(ctx context.Context, ch Charge) (Receipt, error) {
	month, year, err := parseExpiry(ch.Card.Expiry)
	if err != nil {
		return Receipt{}, &DeclineError{Reason: "The card expiry date is invalid."}
	}

	items := make([]paypal.Item, 0, len(ch.Items))
	for _, it := range ch.Items {
		items = append(items, paypal.Item{
			Quantity: strconv.Itoa(it.Quantity),
			Name:     it.Title,
			SKU:      it.ID,

			UnitAmount: p.money(it.UnitPrice.StringFixed(2)),
		})
	}

	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: ch.Reference,
		Items:       items,

		Amount: &paypal.PurchaseUnitAmount{
			Currency: p.currency,
			Value:    ch.Totals.Total.StringFixed(2),

			Breakdown: &paypal.PurchaseUnitAmountBreakdown{
				ItemTotal: p.money(ch.Totals.Subtotal.StringFixed(2)),
				TaxTotal:  p.money(ch.Totals.Tax.StringFixed(2)),
			},
		},
	}}

	ord, err := p.client.CreateOrderWithPaypalRequestID(ctx, "CAPTURE", units, nil, nil, ch.IdempotencyKey)
	if err != nil {
		return Receipt{}, paypalError("creating order", err)
	}

	req := paypal.CaptureOrderRequest{
		PaymentSource: &paypal.PaymentSource{
			Card: &paypal.PaymentSourceCard{
				Name:         ch.Card.CardholderName,
				Number:       ch.Card.CardNumber,
				Expiry:       fmt.Sprintf("%04d-%02d", year, month),
				SecurityCode: ch.Card.CVV,
			},
		},
	}

	resp, err := p.client.CaptureOrderWithPaypalRequestId(ctx, ord.ID, req, ch.IdempotencyKey, nil)
	if err != nil {
		return Receipt{}, paypalError(fmt.Sprintf("capturing order[%s]", ord.ID), err)
	}

	if resp.Status != "COMPLETED" {
		return Receipt{}, &DeclineError{Reason: fmt.Sprintf("The payment could not be completed (%s).", strings.ToLower(resp.Status))}
	}

	return Receipt{Provider: "paypal", PaymentID: ord.ID}, nil
}

func (p *Paypal) money(v string) *paypal.Money {
	return &paypal.Money{Currency: p.currency, Value: v}
}

func paypalError(op string, err error) error {
	var er *paypal.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusUnprocessableEntity {
		return &DeclineError{Reason: er.Message}
	}
	return fmt.Errorf("paypal: %s: %w", op, err)
}
