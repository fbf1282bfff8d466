package model

import (
	"sort"
	"strings"
	"time"
)

// Request is a fully bound request, ready for transport
type Request struct {
	URL     string
	Method  Method
	Headers map[string]string
	Body    []byte
}

// HeaderValues returns the values of headers matching name case-insensitively, sorted
func (r Request) HeaderValues(name string) []string {
	var values []string
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

func (r Request) IsJSON() bool {
	isJSON, _ := classifyContentType(r.HeaderValues("Content-Type"))
	return isJSON
}

func (r Request) IsXML() bool {
	_, isXML := classifyContentType(r.HeaderValues("Content-Type"))
	return isXML
}

// BodyString decodes the body as lossy UTF-8
func (r Request) BodyString() string {
	return DecodeLossy(r.Body)
}

// HistoryEntry is a sent request with its response, as kept in history
type HistoryEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Response  *ResponseSummary  `json:"response,omitempty"`
}

// ResponseSummary is the stored part of a response
type ResponseSummary struct {
	StatusCode uint32            `json:"status_code"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	DurationMs int64             `json:"duration_ms"`
	Size       int64             `json:"size"`
}

// SavedEndpoint is a named endpoint inside a collection
type SavedEndpoint struct {
	Name     string   `json:"name"`
	Endpoint Endpoint `json:"-"`
}

// Collection represents a group of saved endpoints
type Collection struct {
	Name      string          `json:"name"`
	Endpoints []SavedEndpoint `json:"endpoints"`
}

// History represents the request history storage
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// Collections represents all collections storage
type Collections struct {
	Collections map[string]Collection `json:"collections"`
}
