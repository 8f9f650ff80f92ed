package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnreachable  = errors.New("backend unreachable")
	ErrNoCredential = errors.New("no bearer credential attached")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

func (e *Error) StatusCode() int { return e.Status }

// FieldMessages flattens the per-field messages, keeping the first message of
// every field.
func (e *Error) FieldMessages() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}
	return m
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	e := &Error{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}

	e.Message = payload.Message
	if e.Message == "" {
		e.Message = payload.Error
	}

	if len(payload.Errors) > 0 {
		fields := map[string][]string{}
		if err := json.Unmarshal(payload.Errors, &fields); err != nil {
			single := map[string]string{}
			if err := json.Unmarshal(payload.Errors, &single); err == nil {
				for k, v := range single {
					fields[k] = []string{v}
				}
			}
		}
		if len(fields) > 0 {
			e.Fields = fields
		}
	}

	if e.Message == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if msgs := e.Fields[keys[0]]; len(msgs) > 0 {
			e.Message = strings.TrimSpace(msgs[0])
		}
	}
	return e
}

func IsUnauthorized(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden
	}
	return errors.Is(err, ErrNoCredential)
}

func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusNotFound
}
