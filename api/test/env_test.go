package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/govod-storefront/api"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/core/auth"
	"github.com/irsalhamdi/govod-storefront/core/cart"
	"github.com/irsalhamdi/govod-storefront/core/order"
	"github.com/irsalhamdi/govod-storefront/rate"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

const (
	rememberCookie = "govod_remember"
	sessionCookie  = "govod_session"
)

type account struct {
	password string
	id       int
	name     string
	role     string
}

// fakeBackend plays the external REST backend.
type fakeBackend struct {
	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
	courses  map[string]string
	next     int

	// When hold is set, /login reports on entered and waits for hold.
	hold    chan struct{}
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts: map[string]account{
			"student@govod.test":    {password: "secret123", id: 1, name: "Stu Dent", role: "student"},
			"instructor@govod.test": {password: "secret123", id: 2, name: "Ines Tructor", role: "instructor"},
		},
		tokens: map[string]string{},
		courses: map[string]string{
			"10": `{"id":10,"title":"Go in Practice","price":"199.00","instructor":{"name":"Ines Tructor"},"image_url":"/img/go.png"}`,
			"11": `{"id":11,"title":"SQL Deep Dive","price":"149.00","original_price":"199.00","instructor":"Edgar","image_url":"/img/sql.png"}`,
		},
	}
}

// block makes the next logins wait until hold is closed.
func (f *fakeBackend) block() (hold chan struct{}, entered chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold, f.entered = make(chan struct{}), make(chan struct{}, 1)
	return f.hold, f.entered
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (f *fakeBackend) bearer(r *http.Request) (account, string, bool) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[tok]
	if !ok {
		return account{}, "", false
	}
	return f.accounts[email], tok, true
}

func (f *fakeBackend) handler() http.Handler {
	r := mux.NewRouter().PathPrefix("/api").Subrouter()

	r.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&in)

		f.mu.Lock()
		hold, entered := f.hold, f.entered
		f.mu.Unlock()
		if hold != nil {
			entered <- struct{}{}
			<-hold
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		acc, ok := f.accounts[in.Email]
		if !ok || acc.password != in.Password {
			reply(w, http.StatusUnauthorized, `{"message":"These credentials do not match our records."}`)
			return
		}
		f.next++
		tok := fmt.Sprintf("tok-%d", f.next)
		f.tokens[tok] = in.Email
		reply(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer"}`, tok))
	}).Methods("POST")

	r.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		acc, _, ok := f.bearer(r)
		if !ok {
			reply(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
			return
		}
		reply(w, http.StatusOK, fmt.Sprintf(`{"id":%d,"name":%q,"role":%q}`, acc.id, acc.name, acc.role))
	}).Methods("GET")

	r.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		_, tok, ok := f.bearer(r)
		if !ok {
			reply(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
			return
		}
		f.mu.Lock()
		delete(f.tokens, tok)
		f.mu.Unlock()
		reply(w, http.StatusOK, `{"message":"Logged out"}`)
	}).Methods("POST")

	r.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&in)

		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.accounts[in.Email]; ok {
			reply(w, http.StatusUnprocessableEntity, `{"message":"The email has already been taken.","errors":{"email":["The email has already been taken."]}}`)
			return
		}
		f.accounts[in.Email] = account{password: in.Password, id: len(f.accounts) + 1, name: in.Name, role: "student"}
		reply(w, http.StatusCreated, `{"message":"Registered"}`)
	}).Methods("POST")

	r.HandleFunc("/courses/{id}/lessons", func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := f.bearer(r); !ok {
			reply(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
			return
		}
		reply(w, http.StatusOK, `{"data":[
			{"id":1,"course_id":10,"section":{"title":"Basics"},"order":1,"title":"Hello","progress":100},
			{"id":2,"course_id":10,"section":{"title":"Basics"},"order":2,"title":"Types","progress":0}
		]}`)
	}).Methods("GET")

	r.HandleFunc("/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.courses[mux.Vars(r)["id"]]
		if !ok {
			reply(w, http.StatusNotFound, `{"message":"Course not found."}`)
			return
		}
		reply(w, http.StatusOK, `{"data":`+body+`}`)
	}).Methods("GET")

	r.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"data":[`+f.courses["10"]+`,`+f.courses["11"]+`]}`)
	}).Methods("GET")

	r.HandleFunc("/instructor/courses", func(w http.ResponseWriter, r *http.Request) {
		acc, _, ok := f.bearer(r)
		if !ok || acc.role != "instructor" {
			reply(w, http.StatusForbidden, `{"message":"Forbidden."}`)
			return
		}
		reply(w, http.StatusOK, `[`+f.courses["10"]+`]`)
	}).Methods("GET")

	return r
}

type TestEnv struct {
	*httptest.Server
	Backend *fakeBackend
	Stripe  *mockStripe
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	fb := newFakeBackend()
	bsrv := httptest.NewServer(fb.handler())
	t.Cleanup(bsrv.Close)

	ms := &mockStripe{}
	ssrv := httptest.NewServer(ms.handle())
	t.Cleanup(ssrv.Close)

	sb := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(ssrv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{API: sb, Connect: sb, Uploads: sb})

	durable := scs.New()
	durable.Cookie.Name = rememberCookie
	durable.Cookie.Persist = true
	durable.Lifetime = 30 * 24 * time.Hour

	ephemeral := scs.New()
	ephemeral.Cookie.Name = sessionCookie
	ephemeral.Cookie.Persist = false

	client := backend.New(bsrv.URL+"/api", 5*time.Second, log)

	h := api.APIMux(api.APIConfig{
		Log:       log,
		Manager:   auth.NewManager(client, durable, ephemeral, "/login", log),
		Client:    client,
		Limiter:   rate.NewLimiter(5, time.Minute, time.Minute),
		Carts:     cart.NewStore(ephemeral),
		Checkouts: order.NewStore(ephemeral),
		Gateway:   order.NewStripe(strp, "usd"),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	env := &TestEnv{Server: srv, Backend: fb, Stripe: ms}
	env.Restart(t)
	return env
}

// Restart simulates closing and reopening the browser: only persistent
// cookies survive.
func (env *TestEnv) Restart(t *testing.T) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	c := env.Client()
	if c.Jar != nil {
		u, _ := url.Parse(env.URL)
		for _, ck := range c.Jar.Cookies(u) {
			if ck.Name == rememberCookie {
				jar.SetCookies(u, []*http.Cookie{{Name: ck.Name, Value: ck.Value, Path: "/"}})
			}
		}
	}

	c.Jar = jar
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
}

func (env *TestEnv) Cookie(name string) string {
	u, _ := url.Parse(env.URL)
	for _, ck := range env.Client().Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Do sends in as JSON and decodes the response into out when it is not nil.
func (env *TestEnv) Do(t *testing.T, method, path string, in, out any) *http.Response {
	t.Helper()

	w, err := env.send(method, path, in)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return w
}

// Send is Do for other goroutines: it reports the status instead of failing
// the test.
func (env *TestEnv) Send(method, path string, in any) (int, error) {
	w, err := env.send(method, path, in)
	if err != nil {
		return 0, err
	}
	defer w.Body.Close()
	io.Copy(io.Discard, w.Body)
	return w.StatusCode, nil
}

func (env *TestEnv) send(method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.URL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return env.Client().Do(r)
}

func (env *TestEnv) Login(t *testing.T, email string, remember bool) auth.View {
	t.Helper()

	var v auth.View
	in := map[string]any{"email": email, "password": "secret123", "rememberMe": remember}
	if w := env.Do(t, http.MethodPost, "/auth/login", in, &v); w.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %s (%s)", email, w.Status, v.Error)
	}
	return v
}

func (env *TestEnv) Session(t *testing.T) auth.View {
	t.Helper()

	var v auth.View
	if w := env.Do(t, http.MethodGet, "/auth/session", nil, &v); w.StatusCode != http.StatusOK {
		t.Fatalf("session: status %s", w.Status)
	}
	return v
}
