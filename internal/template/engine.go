// Package template substitutes {{NAME}} placeholders with variable values.
//
// Substitution is a single pass: replacement text is never scanned again, and
// there is no escaping or nesting. A placeholder naming an unknown variable is
// an error rather than being left in the output.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// MissingVariableError reports a placeholder with no matching variable
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}

// Engine renders text against a fixed set of variables. It is safe for concurrent use.
type Engine struct {
	vars map[string]string
}

// New creates an engine. Names are matched exactly.
func New(vars map[string]string) *Engine {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &Engine{vars: copied}
}

// Lookup returns the value bound to name
func (e *Engine) Lookup(name string) (string, bool) {
	value, ok := e.vars[name]
	return value, ok
}

// Render replaces every placeholder in text. The first undefined name stops
// rendering and is returned as a *MissingVariableError.
func (e *Engine) Render(text string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		value, ok := e.vars[name]
		if !ok {
			return "", &MissingVariableError{Name: name}
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(value)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Variables returns the unique placeholder names in text, in order of appearance
func Variables(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
