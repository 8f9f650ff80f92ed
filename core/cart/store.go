package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

const sessionKey = "cart"

// Store keeps the cart of the current browser session.
type Store struct {
	sm *scs.SessionManager
}

func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

func (s *Store) Load(ctx context.Context) (*Cart, error) {
	b := s.sm.GetBytes(ctx, sessionKey)
	if len(b) == 0 {
		return &Cart{}, nil
	}

	var c Cart
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decoding stored cart: %w", err)
	}
	return &c, nil
}

func (s *Store) Save(ctx context.Context, c *Cart) error {
	if c.Empty() {
		s.sm.Remove(ctx, sessionKey)
		return nil
	}

	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	s.sm.Put(ctx, sessionKey, b)
	return nil
}
