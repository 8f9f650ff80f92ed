package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/irsalhamdi/govod-storefront/core/cart"
)

var ErrDeclined = errors.New("payment declined")

// Gateway is the external payment processor.
type Gateway interface {
	Charge(ctx context.Context, ch Charge) (Receipt, error)
}

type Charge struct {
	Reference string
	// IdempotencyKey is the same for every repetition of one payment attempt.
	IdempotencyKey string
	Items          []cart.Item
	Totals         cart.Totals
	Card           Payment
	Name           string
	Email          string
}

type Receipt struct {
	Provider  string
	PaymentID string
}

type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	if e.Reason == "" {
		return ErrDeclined.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDeclined, e.Reason)
}

func (e *DeclineError) Unwrap() error { return ErrDeclined }

// parseExpiry reads MM/YY or MM/YYYY.
func parseExpiry(s string) (month, year int, err error) {
	mm, yy, ok := strings.Cut(strings.ReplaceAll(s, " ", ""), "/")
	if !ok {
		return 0, 0, fmt.Errorf("expiry %q is not MM/YY", s)
	}

	month, err = strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("expiry %q has an invalid month", s)
	}

	year, err = strconv.Atoi(yy)
	if err != nil {
		return 0, 0, fmt.Errorf("expiry %q has an invalid year", s)
	}
	switch len(yy) {
	case 2:
		year += 2000
	case 4:
	default:
		return 0, 0, fmt.Errorf("expiry %q has an invalid year", s)
	}

	return month, year, nil
}
