package weberr

import (
	"errors"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RequestError marks an error as caused by the request rather than the server.
type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (r *RequestError) Unwrap() error { return r.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	return respond(err, &ErrorResponse{Error: msg}, status, opts)
}

// Invalid reports per-field problems with the submitted payload.
func Invalid(err error, msg string, fields map[string]string, opts ...Opt) error {
	return respond(err, &ErrorResponse{Error: msg, Fields: fields}, http.StatusUnprocessableEntity, opts)
}

func respond(err error, body *ErrorResponse, status int, opts []Opt) error {
	opts = append(opts, WithResponse(body, status))
	return Wrap(&RequestError{Err: err}, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the requested resource does not exist", http.StatusNotFound, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "you must be signed in to do that", http.StatusUnauthorized, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(err, "something went wrong on our side, please try again", http.StatusInternalServerError, opts...)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(err, "malformed request", http.StatusBadRequest, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, "too many attempts, please wait before trying again", http.StatusTooManyRequests, opts...)
}

// Unavailable is a 502: the backend or a payment provider failed us.
func Unavailable(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadGateway, opts...)
}

type statusCoder interface{ StatusCode() int }

// Upstream maps an error returned by an upstream service. Client errors keep
// their status; anything else, an unreachable upstream included, is a 502.
func Upstream(err error, msg string, opts ...Opt) error {
	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.StatusCode(); {
		case code == http.StatusNotFound:
			return NotFound(err, opts...)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return NotAuthorized(err, opts...)
		case code >= 400 && code < 500:
			return NewError(err, msg, code, opts...)
		}
	}
	return Unavailable(err, msg, opts...)
}
