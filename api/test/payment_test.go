package test

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/govod-storefront/api/web"
	mock "github.com/stripe/stripe-mock/param"
)

const declinedCard = "4000000000000002"

// mockStripe accepts every card except declinedCard and records the amounts
// of confirmed intents. Like Stripe it answers a repeated Idempotency-Key
// with the intent created first.
type mockStripe struct {
	mu      sync.Mutex
	amounts []string
	seen    map[string]string

	// When hold is set, intents report on entered and wait for hold.
	hold    chan struct{}
	entered chan struct{}
}

func (m *mockStripe) charged() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.amounts...)
}

// block makes the next intents wait until hold is closed.
func (m *mockStripe) block() (hold chan struct{}, entered chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold, m.entered = make(chan struct{}), make(chan struct{}, 1)
	return m.hold, m.entered
}

func (m *mockStripe) handle() http.Handler {
	methods := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		card, _ := params["card"].(map[string]any)
		if card["number"] == declinedCard {
			body := map[string]any{"error": map[string]any{
				"type":    "card_error",
				"code":    "card_declined",
				"message": "Your card was declined.",
			}}
			web.Respond(context.Background(), w, body, http.StatusPaymentRequired)
			return
		}

		web.Respond(context.Background(), w, map[string]any{"id": "pm_card", "object": "payment_method"}, 200)
	})

	intents := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil || params["confirm"] != "true" || params["payment_method"] != "pm_card" {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		hold, entered := m.hold, m.entered
		m.mu.Unlock()
		if hold != nil {
			entered <- struct{}{}
			<-hold
		}

		key := r.Header.Get("Idempotency-Key")
		m.mu.Lock()
		id, ok := m.seen[key]
		if !ok {
			m.amounts = append(m.amounts, fmt.Sprint(params["amount"]))
			id = fmt.Sprintf("pi_%d", len(m.amounts))
			if m.seen == nil {
				m.seen = make(map[string]string)
			}
			m.seen[key] = id
		}
		m.mu.Unlock()

		web.Respond(context.Background(), w, map[string]any{
			"id":     id,
			"object": "payment_intent",
			"status": "succeeded",
		}, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/payment_methods", methods).Methods("POST")
	r.Handle("/v1/payment_intents", intents).Methods("POST")
	return r
}
