package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/rate"
	"github.com/irsalhamdi/govod-storefront/validate"
)

type View struct {
	Status          string `json:"status"`
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsInstructor    bool   `json:"isInstructor"`
	IsAdmin         bool   `json:"isAdmin"`
	IsStudent       bool   `json:"isStudent"`
	Error           string `json:"error,omitempty"`
	Redirect        string `json:"redirect,omitempty"`
}

func (s *Session) View() View {
	st := s.State()
	v := View{
		Status:          st.Status().String(),
		IsAuthenticated: st.IsAuthenticated(),
		IsInstructor:    st.IsInstructor(),
		IsAdmin:         st.IsAdmin(),
		IsStudent:       st.IsStudent(),
		Error:           s.Err(),
	}
	if u, ok := st.User(); ok {
		v.User = &u
	}
	return v
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
	Redirect   string `json:"redirect"`
}

func session(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, weberr.InternalError(errors.New("session missing from request context"))
	}
	return s, nil
}

func HandleLogin(limiter *rate.Limiter) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in LoginRequest
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if !limiter.Check(strings.ToLower(strings.TrimSpace(in.Email))) {
			return weberr.TooManyRequests(fmt.Errorf("login attempts exhausted for %s", in.Email))
		}

		s, err := session(ctx)
		if err != nil {
			return err
		}

		if err := s.Login(ctx, in.Email, in.Password, in.RememberMe); err != nil {
			return failure(s, err, http.StatusUnauthorized)
		}

		v := s.View()
		v.Redirect = SafeRedirect(in.Redirect)
		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

func HandleLogout() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := session(ctx)
		if err != nil {
			return err
		}

		s.Logout(ctx)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleRegister() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Registration
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		s, err := session(ctx)
		if err != nil {
			return err
		}

		if err := s.Register(ctx, in); err != nil {
			return failure(s, err, http.StatusUnprocessableEntity)
		}

		resp := struct {
			Message string `json:"message"`
		}{"Registration successful. Please log in."}
		return web.Respond(ctx, w, resp, http.StatusCreated)
	}
}

func HandleShowSession() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := session(ctx)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, s.View(), http.StatusOK)
	}
}

// failure turns a failed attempt into the response carrying the session's
// user-facing message.
func failure(s *Session, err error, rejected int) error {
	if fe, ok := validate.AsFieldErrors(err); ok {
		return weberr.Invalid(err, s.Err(), fe)
	}

	if errors.Is(err, backend.ErrUnreachable) {
		return weberr.Unavailable(err, s.Err())
	}

	var be *backend.Error
	if errors.As(err, &be) {
		if be.Status >= http.StatusInternalServerError {
			return weberr.Unavailable(err, s.Err())
		}
		return weberr.NewError(err, s.Err(), rejected)
	}

	return weberr.InternalError(err)
}
