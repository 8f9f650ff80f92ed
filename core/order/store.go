package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

const sessionKey = "checkout"

type record struct {
	Step         Step          `json:"step"`
	Shipping     Shipping      `json:"shipping"`
	Reference    string        `json:"reference,omitempty"`
	Attempt      int           `json:"attempt,omitempty"`
	Err          string        `json:"error,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

// Store keeps the in-progress checkout of the browser session. Card data is
// not part of any state and so never reaches it.
type Store struct {
	sm *scs.SessionManager
}

func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

func (s *Store) Load(ctx context.Context) (State, error) {
	b := s.sm.GetBytes(ctx, sessionKey)
	if len(b) == 0 {
		return Start(), nil
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decoding stored checkout: %w", err)
	}

	switch rec.Step {
	case StepPayment:
		return PaymentInfo{Shipping: rec.Shipping, Reference: rec.Reference, Attempt: rec.Attempt, Err: rec.Err}, nil
	case StepSubmitted:
		if rec.Confirmation == nil {
			return Start(), nil
		}
		return Submitted{Confirmation: *rec.Confirmation}, nil
	}
	return ShippingInfo{Draft: rec.Shipping}, nil
}

func (s *Store) Save(ctx context.Context, st State) error {
	rec := record{Step: st.Step()}
	switch v := st.(type) {
	case ShippingInfo:
		rec.Shipping = v.Draft
	case PaymentInfo:
		rec.Shipping = v.Shipping
		rec.Reference = v.Reference
		rec.Attempt = v.Attempt
		rec.Err = v.Err
	case Submitted:
		c := v.Confirmation
		rec.Confirmation = &c
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding checkout: %w", err)
	}
	s.sm.Put(ctx, sessionKey, b)
	return nil
}

// Reset abandons the checkout. The cart is left as it is.
func (s *Store) Reset(ctx context.Context) {
	s.sm.Remove(ctx, sessionKey)
}
