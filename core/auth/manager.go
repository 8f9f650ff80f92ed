package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/govod-storefront/api/middleware"
	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/core/claims"
	"github.com/sirupsen/logrus"
)

// Manager is built once at startup and hands every request its own Session
// over the two cookie-bound token scopes.
type Manager struct {
	durable   *scs.SessionManager
	ephemeral *scs.SessionManager
	client    *backend.Client
	log       logrus.FieldLogger
	loginPath string
	locks     *browserLocks
}

func NewManager(client *backend.Client, durable, ephemeral *scs.SessionManager, loginPath string, log logrus.FieldLogger) *Manager {
	return &Manager{
		durable:   durable,
		ephemeral: ephemeral,
		client:    client,
		log:       log,
		loginPath: loginPath,
		locks:     newBrowserLocks(),
	}
}

func (m *Manager) LoginPath() string { return m.loginPath }

func (m *Manager) NewSession() *Session {
	cred := &backend.Credential{}
	stores := Stores{
		Durable:     NewSessionStore(m.durable),
		SessionOnly: NewSessionStore(m.ephemeral),
	}
	return NewSession(m.client.Authorized(cred), cred, stores, m.log)
}

// Client is the backend client acting with the bearer credential of the
// request's session.
func (m *Manager) Client(ctx context.Context) (*backend.Client, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, errors.New("session missing from request context")
	}
	return m.client.Authorized(s.cred), nil
}

// Scopes loads and saves both cookie-bound scopes around the request. They
// must run before Resolve.
func (m *Manager) Scopes() []web.Middleware {
	return []web.Middleware{
		LoadAndSave(m.durable),
		LoadAndSave(m.ephemeral),
	}
}

func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var herr error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				herr = handler(r.Context(), w, r)
			})
			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return herr
		}
		return h
	}
	return m
}

func Resolve(mgr *Manager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			s := mgr.NewSession()
			if err := s.Restore(ctx); err != nil {
				mgr.log.WithError(err).WithField("req_id", middleware.ContextRequestID(ctx)).Info("stored credential not restored, continuing anonymous")
			}

			ctx = NewContext(ctx, s)
			if u, ok := s.State().User(); ok {
				ctx = claims.Set(ctx, claims.Claims{UserID: u.ID, Role: u.Role})
			}
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

type ctxKey int

const sessionKey ctxKey = 1

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

func stateOf(ctx context.Context) State {
	if s, ok := FromContext(ctx); ok {
		return s.State()
	}
	return Anonymous()
}

// RequireAuth sends anonymous visitors to the login view, remembering where
// they were going.
func RequireAuth(loginPath string) web.Middleware {
	return guard(loginPath, State.IsAuthenticated)
}

// RequireInstructor sends both anonymous visitors and authenticated
// non-instructors to the login view.
func RequireInstructor(loginPath string) web.Middleware {
	return guard(loginPath, State.IsInstructor)
}

func guard(loginPath string, allow func(State) bool) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !allow(stateOf(ctx)) {
				return web.Redirect(w, r, LoginURL(loginPath, r.URL.RequestURI()), http.StatusSeeOther)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func LoginURL(loginPath, next string) string {
	if next == "" || next == loginPath {
		return loginPath
	}
	return loginPath + "?redirect=" + url.QueryEscape(next)
}

// SafeRedirect keeps only local paths so login cannot bounce elsewhere.
func SafeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
