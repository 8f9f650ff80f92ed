package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	mock "github.com/stripe/stripe-mock/param"
)

const (
	declinedCard   = "4000000000000002"
	idempotencyKey = "GV-TEST000001-1"
)

func charge(t *testing.T, number string) Charge {
	t.Helper()
	c := sampleCart()
	p := card
	p.CardNumber = number
	return Charge{
		Reference:      "GV-TEST000001",
		IdempotencyKey: idempotencyKey,
		Items:          c.Items,
		Totals:         c.Totals(),
		Card:           p,
		Name:           shipping.Name,
		Email:          shipping.Email,
	}
}

type mockStripe struct {
	intents int
}

func (m *mockStripe) handle(t *testing.T) http.Handler {
	methods := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		c, _ := params["card"].(map[string]any)
		if c["exp_month"] != "12" || c["exp_year"] != "2030" || c["cvc"] != "123" {
			t.Errorf("unexpected card params: %v", c)
		}

		if c["number"] == declinedCard {
			body := map[string]any{"error": map[string]any{
				"type":    "card_error",
				"code":    "card_declined",
				"message": "Your card was declined.",
			}}
			web.Respond(context.Background(), w, body, http.StatusPaymentRequired)
			return
		}

		web.Respond(context.Background(), w, map[string]any{"id": "pm_123", "object": "payment_method", "type": "card"}, 200)
	})

	intents := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.intents++
		params, _ := mock.ParseParams(r)

		if params["amount"] != "41760" || params["currency"] != "usd" || params["payment_method"] != "pm_123" || params["confirm"] != "true" {
			t.Errorf("unexpected intent params: %v", params)
			web.Respond(context.Background(), w, nil, 400)
			return
		}
		if r.Header.Get("Idempotency-Key") != idempotencyKey {
			t.Errorf("missing idempotency key, got %q", r.Header.Get("Idempotency-Key"))
		}

		web.Respond(context.Background(), w, map[string]any{
			"id":       "pi_123",
			"object":   "payment_intent",
			"status":   "succeeded",
			"amount":   41760,
			"currency": "usd",
		}, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/payment_methods", methods).Methods("POST")
	r.Handle("/v1/payment_intents", intents).Methods("POST")
	return r
}

func newStripe(t *testing.T, m *mockStripe) *Stripe {
	srv := httptest.NewServer(m.handle(t))
	t.Cleanup(srv.Close)

	b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	api := &stripecl.API{}
	api.Init("sk_test_123", &stripe.Backends{API: b, Connect: b, Uploads: b})
	return NewStripe(api, "usd")
}

func TestStripeCharge(t *testing.T) {
	m := &mockStripe{}
	gw := newStripe(t, m)

	rcpt, err := gw.Charge(context.Background(), charge(t, "4242424242424242"))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if rcpt.Provider != "stripe" || rcpt.PaymentID != "pi_123" {
		t.Fatalf("unexpected receipt: %+v", rcpt)
	}
}

func TestStripeDecline(t *testing.T) {
	m := &mockStripe{}
	gw := newStripe(t, m)

	_, err := gw.Charge(context.Background(), charge(t, declinedCard))
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
	var de *DeclineError
	if !errors.As(err, &de) || de.Reason != "Your card was declined." {
		t.Fatalf("unexpected decline reason: %v", err)
	}
	if m.intents != 0 {
		t.Fatal("no payment intent may be created for a rejected card")
	}
}

type mockPaypal struct {
	t *testing.T
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		web.Respond(context.Background(), w, map[string]any{
			"access_token": "A21AA",
			"token_type":   "Bearer",
			"expires_in":   32400,
		}, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("PayPal-Request-Id"); got != idempotencyKey {
			m.t.Errorf("order request id: want %q, got %q", idempotencyKey, got)
		}

		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil || len(pu.Units) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		u := pu.Units[0]
		if len(u.Items) != 2 || u.Amount.Value != "417.60" || u.Amount.Breakdown.TaxTotal.Value != "69.60" ||
			u.Amount.Breakdown.ItemTotal.Value != "348.00" || u.ReferenceID != "GV-TEST000001" {
			m.t.Errorf("unexpected purchase unit: %+v", u)
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		web.Respond(context.Background(), w, paypal.Order{ID: "ORDER-1", Status: "CREATED"}, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("PayPal-Request-Id"); got != idempotencyKey {
			m.t.Errorf("capture request id: want %q, got %q", idempotencyKey, got)
		}

		var req paypal.CaptureOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentSource == nil || req.PaymentSource.Card == nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if req.PaymentSource.Card.Expiry != "2030-12" {
			m.t.Errorf("unexpected expiry %q", req.PaymentSource.Card.Expiry)
		}

		if req.PaymentSource.Card.Number == declinedCard {
			web.Respond(context.Background(), w, map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"message": "The instrument presented was declined.",
				"details": []map[string]any{{"issue": "INSTRUMENT_DECLINED"}},
			}, http.StatusUnprocessableEntity)
			return
		}

		web.Respond(context.Background(), w, map[string]any{"id": web.Param(r, "id"), "status": "COMPLETED"}, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

func newPaypal(t *testing.T) *Paypal {
	srv := httptest.NewServer((&mockPaypal{t: t}).handle())
	t.Cleanup(srv.Close)

	pp, err := paypal.NewClient("client", "secret", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	return NewPaypal(pp, "usd")
}

func TestPaypalCharge(t *testing.T) {
	gw := newPaypal(t)

	rcpt, err := gw.Charge(context.Background(), charge(t, "4242424242424242"))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if rcpt.Provider != "paypal" || rcpt.PaymentID != "ORDER-1" {
		t.Fatalf("unexpected receipt: %+v", rcpt)
	}
}

func TestPaypalDecline(t *testing.T) {
	gw := newPaypal(t)

	_, err := gw.Charge(context.Background(), charge(t, declinedCard))
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
}

func TestInvalidExpiryIsDeclined(t *testing.T) {
	ch := charge(t, "4242424242424242")
	ch.Card.Expiry = "99/99"

	for _, gw := range []Gateway{NewStripe(&stripecl.API{}, "usd"), NewPaypal(&paypal.Client{}, "usd")} {
		if _, err := gw.Charge(context.Background(), ch); !errors.Is(err, ErrDeclined) {
			t.Fatalf("%T: expected decline for invalid expiry, got %v", gw, err)
		}
	}
}
