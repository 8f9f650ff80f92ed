// Package backend is the client of the external REST backend that owns
// identity, the catalog, enrollment and lessons. Nothing is cached here: each
// call is a direct pass-through and the last response wins.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const maxBody = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	authed  *http.Client
	log     logrus.FieldLogger
}

func New(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Authorized returns a copy of the client whose bearer-authenticated calls
// take their token from src at request time.
func (c *Client) Authorized(src oauth2.TokenSource) *Client {
	cp := *c
	cp.authed = &http.Client{
		Timeout:   c.http.Timeout,
		Transport: &oauth2.Transport{Source: src, Base: c.http.Transport},
	}
	return &cp
}

func (c *Client) get(ctx context.Context, bearer bool, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, bearer, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, bearer bool, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.http
	if bearer {
		if c.authed == nil {
			return ErrNoCredential
		}
		hc = c.authed
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return ErrNoCredential
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: reading %s %s: %v", ErrUnreachable, method, path, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"statuscode": resp.StatusCode,
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, b)
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	if err := unwrapData(b, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// unwrapData accepts both bare payloads and payloads wrapped in a "data"
// envelope.
func unwrapData(b []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		if err := json.Unmarshal(b, &env); err == nil && len(env.Data) > 0 {
			b = env.Data
		}
	}
	return json.Unmarshal(b, out)
}
