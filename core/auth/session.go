package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/core/claims"
	"github.com/irsalhamdi/govod-storefront/validate"
	"github.com/sirupsen/logrus"
)

var ErrInFlight = errors.New("another request from this browser is still in progress")

const (
	msgUnreachable    = "Unable to reach the server. Please try again."
	msgLoginFailed    = "Login failed. Please check your credentials and try again."
	msgRegisterFailed = "Registration failed. Please try again."
)

// Backend is the part of the REST backend the session talks to. Calls that
// need a bearer token read it from the credential handed to NewSession.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.Token, error)
	CurrentUser(ctx context.Context) (backend.Profile, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg backend.Registration) error
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"omitempty,oneof=student instructor"`
}

// Session owns the current identity. Restore, Login and Logout are the only
// writers of the credential and run one at a time.
type Session struct {
	mu      sync.Mutex
	backend Backend
	cred    *backend.Credential
	stores  Stores
	log     logrus.FieldLogger

	smu   sync.RWMutex
	state State
	err   string
}

func NewSession(b Backend, cred *backend.Credential, stores Stores, log logrus.FieldLogger) *Session {
	return &Session{
		backend: b,
		cred:    cred,
		stores:  stores,
		log:     log,
		state:   Unknown(),
	}
}

func (s *Session) State() State {
	s.smu.RLock()
	defer s.smu.RUnlock()
	return s.state
}

// Err is the user-facing message of the last failed attempt.
func (s *Session) Err() string {
	s.smu.RLock()
	defer s.smu.RUnlock()
	return s.err
}

func (s *Session) set(st State, msg string) {
	s.smu.Lock()
	defer s.smu.Unlock()
	s.state = st
	s.err = msg
}

func (s *Session) setErr(msg string) {
	s.smu.Lock()
	defer s.smu.Unlock()
	s.err = msg
}

// Restore resolves the Unknown state from a stored token. The durable scope
// wins over the session-only one. A token the backend rejects is purged; when
// the backend cannot answer the token is kept and the session is anonymous
// for now.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, scope, err := s.storedToken(ctx)
	if err != nil {
		s.purge(ctx)
		s.cred.Clear()
		s.set(Anonymous(), "")
		return fmt.Errorf("reading stored token: %w", err)
	}

	if tok == "" {
		s.cred.Clear()
		s.set(Anonymous(), "")
		return nil
	}

	s.cred.Set(tok)
	u, err := s.fetchUser(ctx)
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.purge(ctx)
		}
		s.cred.Clear()
		s.set(Anonymous(), "")
		return fmt.Errorf("restoring session: %w", err)
	}

	if scope == Durable {
		if err := s.stores.SessionOnly.Clear(ctx); err != nil {
			s.log.WithError(err).Error("dropping shadowed session-only token")
		}
	}

	s.set(Authenticated(u), "")
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string, rememberMe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setErr("")

	if err := validate.Check(Credentials{Email: email, Password: password}); err != nil {
		s.failLogin(err)
		return err
	}

	tok, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.failLogin(err)
		return fmt.Errorf("logging in: %w", err)
	}

	scope := SessionOnly
	if rememberMe {
		scope = Durable
	}
	if err := s.persist(ctx, scope, tok.AccessToken); err != nil {
		s.purge(ctx)
		s.cred.Clear()
		s.set(Anonymous(), message(err, msgLoginFailed))
		return fmt.Errorf("storing token in %s scope: %w", scope, err)
	}

	s.cred.Set(tok.AccessToken)
	u, err := s.fetchUser(ctx)
	if err != nil {
		s.purge(ctx)
		s.cred.Clear()
		s.set(Anonymous(), message(err, msgLoginFailed))
		return fmt.Errorf("fetching profile after login: %w", err)
	}

	s.set(Authenticated(u), "")
	return nil
}

func (s *Session) failLogin(err error) {
	st := s.State()
	if !st.IsAuthenticated() {
		st = Anonymous()
	}
	s.set(st, message(err, msgLoginFailed))
}

// Logout always ends up Anonymous; the backend is only told on a best-effort
// basis.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred.Value() != "" {
		if err := s.backend.Logout(ctx); err != nil {
			s.log.WithError(err).Warn("notifying backend of logout")
		}
	}

	s.purge(ctx)
	s.cred.Clear()
	s.set(Anonymous(), "")
}

// Register leaves the session state untouched; a login has to follow.
func (s *Session) Register(ctx context.Context, reg Registration) error {
	s.setErr("")

	if err := validate.Check(reg); err != nil {
		s.setErr(message(err, msgRegisterFailed))
		return err
	}

	err := s.backend.Register(ctx, backend.Registration{
		Name:                 reg.Name,
		Email:                reg.Email,
		Password:             reg.Password,
		PasswordConfirmation: reg.PasswordConfirmation,
		Role:                 reg.Role,
	})
	if err == nil {
		return nil
	}

	var be *backend.Error
	if errors.As(err, &be) && len(be.Fields) > 0 {
		fe := make(validate.FieldErrors, len(be.Fields))
		for k, v := range be.FieldMessages() {
			fe[camel(k)] = v
		}
		s.setErr(message(err, msgRegisterFailed))
		return fe
	}

	s.setErr(message(err, msgRegisterFailed))
	return fmt.Errorf("registering: %w", err)
}

func (s *Session) storedToken(ctx context.Context) (string, Scope, error) {
	for _, sc := range []Scope{Durable, SessionOnly} {
		tok, err := s.stores.scope(sc).Token(ctx)
		if err != nil {
			return "", sc, fmt.Errorf("%s scope: %w", sc, err)
		}
		if tok != "" {
			return tok, sc, nil
		}
	}
	return "", SessionOnly, nil
}

func (s *Session) persist(ctx context.Context, scope Scope, tok string) error {
	other := Durable
	if scope == Durable {
		other = SessionOnly
	}
	if err := s.stores.scope(other).Clear(ctx); err != nil {
		return err
	}
	return s.stores.scope(scope).SetToken(ctx, tok)
}

func (s *Session) purge(ctx context.Context) {
	for _, sc := range []Scope{Durable, SessionOnly} {
		if err := s.stores.scope(sc).Clear(ctx); err != nil {
			s.log.WithError(err).WithField("scope", sc.String()).Error("purging stored token")
		}
	}
}

func (s *Session) fetchUser(ctx context.Context) (User, error) {
	p, err := s.backend.CurrentUser(ctx)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:    p.ID.String(),
		Name:  p.Name,
		Email: p.Email,
		Role:  claims.Role(strings.ToLower(p.Role)),
	}
	if !u.Role.Known() {
		s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": p.Role}).Warn("unrecognized role, treating user as student")
	}
	return u, nil
}

func message(err error, fallback string) string {
	if fe, ok := validate.AsFieldErrors(err); ok {
		return fe.Error()
	}
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if errors.Is(err, backend.ErrUnreachable) {
		return msgUnreachable
	}
	return fallback
}

// camel turns backend snake_case field names into the json names used here.
func camel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
