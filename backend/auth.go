package backend

import (
	"context"
	"net/http"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Profile struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var tok Token
	if err := c.do(ctx, false, http.MethodPost, "/login", in, &tok); err != nil {
		return Token{}, err
	}
	if tok.AccessToken == "" {
		return Token{}, &Error{Status: http.StatusBadGateway, Message: "login response carried no access token"}
	}
	return tok, nil
}

func (c *Client) CurrentUser(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, true, http.MethodGet, "/user", nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, true, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, false, http.MethodPost, "/register", reg, nil)
}
