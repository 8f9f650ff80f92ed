package auth

import "github.com/irsalhamdi/govod-storefront/core/claims"

type Status int

const (
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

type User struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  claims.Role `json:"role"`
}

// State is either Unknown, Anonymous or Authenticated. Only the latter
// carries a user, so authentication is never tracked apart from it.
type State struct {
	status Status
	user   User
}

func Unknown() State { return State{status: StatusUnknown} }

func Anonymous() State { return State{status: StatusAnonymous} }

func Authenticated(u User) State { return State{status: StatusAuthenticated, user: u} }

func (s State) Status() Status { return s.status }

func (s State) User() (User, bool) {
	if s.status != StatusAuthenticated {
		return User{}, false
	}
	return s.user, true
}

func (s State) IsAuthenticated() bool { return s.status == StatusAuthenticated }

func (s State) IsInstructor() bool {
	return s.IsAuthenticated() && s.user.Role == claims.RoleInstructor
}

func (s State) IsAdmin() bool {
	return s.IsAuthenticated() && s.user.Role == claims.RoleAdmin
}

// IsStudent also holds for authenticated users whose role is not recognized:
// anything that is neither admin nor instructor is gated as a student.
func (s State) IsStudent() bool {
	if !s.IsAuthenticated() {
		return false
	}
	return s.user.Role == claims.RoleStudent || (!s.IsAdmin() && !s.IsInstructor())
}
