package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidVerb is returned when text does not name a supported HTTP method
var ErrInvalidVerb = errors.New("invalid verb")

// Method is an HTTP request method
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
	MethodOptions
	MethodHead
	MethodTrace
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodPatch:   "PATCH",
	MethodDelete:  "DELETE",
	MethodOptions: "OPTIONS",
	MethodHead:    "HEAD",
	MethodTrace:   "TRACE",
}

// Methods returns every supported method in declaration order
func Methods() []Method {
	methods := make([]Method, len(methodNames))
	for i := range methodNames {
		methods[i] = Method(i)
	}
	return methods
}

// ParseMethod parses a method name case-insensitively
func ParseMethod(text string) (Method, error) {
	trimmed := strings.TrimSpace(text)
	for i, name := range methodNames {
		if strings.EqualFold(trimmed, name) {
			return Method(i), nil
		}
	}
	return MethodGet, fmt.Errorf("%w: %q", ErrInvalidVerb, text)
}

// String returns the canonical uppercase name
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVerb, int(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
