// Package web is the small handler toolkit the API is built on: handlers
// return errors, middleware wraps handlers.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware applies mw so that mw[0] runs first.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

// Respond writes data as JSON. Responses carry per-browser session state and
// are never cached.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	w.Header().Set("Cache-Control", "no-store")

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal response data: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("cannot write response data to response writer: %w", err)
	}
	return nil
}

func Redirect(w http.ResponseWriter, r *http.Request, location string, statusCode int) error {
	http.Redirect(w, r, location, statusCode)
	return nil
}

// Decode reads one JSON value of at most 1MB into val. Unknown fields and
// trailing data are rejected.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(val); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return fmt.Errorf("body contains an incorrect JSON type for field %q", typeErr.Field)
			}
			return fmt.Errorf("body contains an incorrect JSON type (at character %d)", typeErr.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxErr.Limit)
		}
		return err
	}

	if dec.More() {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
