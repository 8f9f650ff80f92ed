package backend

import (
	"sync"

	"golang.org/x/oauth2"
)

// Credential is the bearer token attached to authenticated backend calls. It
// is written only on login, logout and restore.
type Credential struct {
	mu    sync.RWMutex
	token string
}

func (c *Credential) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Credential) Clear() {
	c.Set("")
}

func (c *Credential) Value() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Token implements oauth2.TokenSource.
func (c *Credential) Token() (*oauth2.Token, error) {
	tok := c.Value()
	if tok == "" {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
