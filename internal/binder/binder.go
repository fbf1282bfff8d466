// Package binder turns a parametrized endpoint into a concrete request.
package binder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vedsharma/reqkit/internal/model"
	"github.com/vedsharma/reqkit/internal/template"
)

// ErrTemplate wraps every substitution failure returned by Bind
var ErrTemplate = errors.New("template error")

// bindError keeps both the ErrTemplate kind and the underlying
// *template.MissingVariableError reachable through errors.Is/As.
type bindError struct {
	field string
	err   error
}

func (e *bindError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTemplate, e.field, e.err)
}

func (e *bindError) Unwrap() []error {
	return []error{ErrTemplate, e.err}
}

// Field names the part of the endpoint that failed to render
func (e *bindError) Field() string {
	return e.field
}

// Bind resolves all placeholders in e. Any undefined variable fails the whole bind.
func Bind(e model.Endpoint) (model.Request, error) {
	engine := template.New(e.TemplateVariables())

	url, err := engine.Render(e.URL)
	if err != nil {
		return model.Request{}, &bindError{field: "url", err: err}
	}

	// Entries render in insertion order so a later header wins even when
	// two names only collide after rendering or differ in case.
	headers := make(map[string]string, e.Headers.Len())
	for _, kv := range e.Headers.Entries() {
		if !kv.Active {
			continue
		}
		name, err := engine.Render(kv.Name)
		if err != nil {
			return model.Request{}, &bindError{field: "header name " + kv.Name, err: err}
		}
		value, err := engine.Render(kv.Value)
		if err != nil {
			return model.Request{}, &bindError{field: "header " + kv.Name, err: err}
		}
		deleteHeader(headers, name)
		headers[name] = value
	}

	body, contentType, err := e.Body.Encode(engine.Render)
	if err != nil {
		return model.Request{}, &bindError{field: "body", err: err}
	}
	if len(body) > 0 && contentType != "" && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = contentType
	}

	return model.Request{
		URL:     url,
		Method:  e.Method,
		Headers: headers,
		Body:    body,
	}, nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func deleteHeader(headers map[string]string, name string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
}
