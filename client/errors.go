package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/unkn0wn-root/pylon/auth"
)

// ResponseError is a non-2xx reply. 401 and 403 unwrap to
// auth.ErrUnauthorized and auth.ErrForbidden.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("client: invalid response from pylon api: status %d", e.StatusCode)
}

func (e *ResponseError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return auth.ErrUnauthorized
	case http.StatusForbidden:
		return auth.ErrForbidden
	}
	return nil
}

// RequestError is a transport failure; no response was received.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("client: error while making a request to pylon api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError reports an invalid request payload. It is returned before
// anything is sent.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "client: validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: []FieldError{{Field: "request", Reason: err.Error()}}}
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind().String() == "map" {
			return "no weights provided"
		}
		return "must be a non-empty string"
	case "min":
		return "no weights provided"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	}
	return "failed " + fe.Tag()
}
