package model

import (
	"strconv"
	"time"
)

// StatusClass groups status codes by their first digit
type StatusClass int

const (
	StatusUnknown StatusClass = iota
	StatusInformational
	StatusSuccess
	StatusRedirection
	StatusClientError
	StatusServerError
)

func (c StatusClass) String() string {
	switch c {
	case StatusInformational:
		return "informational"
	case StatusSuccess:
		return "success"
	case StatusRedirection:
		return "redirection"
	case StatusClientError:
		return "client error"
	case StatusServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// ResponseData is a completed response as returned by the transport
type ResponseData struct {
	StatusCode uint32
	Status     string
	Duration   time.Duration
	Size       int64
	Headers    KeyValueTable
	Body       []byte
}

// NewResponseData builds a response value. Size is the number of body bytes received.
func NewResponseData(statusCode uint32, status string, duration time.Duration, size int64, headers KeyValueTable, body []byte) *ResponseData {
	return &ResponseData{
		StatusCode: statusCode,
		Status:     status,
		Duration:   duration,
		Size:       size,
		Headers:    headers,
		Body:       body,
	}
}

func (r *ResponseData) DurationMillis() int64 {
	return r.Duration.Milliseconds()
}

// DurationSeconds formats the duration in seconds for display
func (r *ResponseData) DurationSeconds() string {
	return strconv.FormatFloat(float64(r.DurationMillis())/1000.0, 'f', -1, 64)
}

func (r *ResponseData) Class() StatusClass {
	switch {
	case r.StatusCode >= 100 && r.StatusCode < 200:
		return StatusInformational
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return StatusSuccess
	case r.StatusCode >= 300 && r.StatusCode < 400:
		return StatusRedirection
	case r.StatusCode >= 400 && r.StatusCode < 500:
		return StatusClientError
	case r.StatusCode >= 500 && r.StatusCode < 600:
		return StatusServerError
	default:
		return StatusUnknown
	}
}

func (r *ResponseData) contentTypes() []string {
	values, _ := r.Headers.Header("Content-Type")
	return values
}

func (r *ResponseData) IsJSON() bool {
	isJSON, _ := classifyContentType(r.contentTypes())
	return isJSON
}

func (r *ResponseData) IsXML() bool {
	_, isXML := classifyContentType(r.contentTypes())
	return isXML
}

// BodyString decodes the body as lossy UTF-8
func (r *ResponseData) BodyString() string {
	return DecodeLossy(r.Body)
}

// BodyAsString is an alias of BodyString
func (r *ResponseData) BodyAsString() string {
	return r.BodyString()
}

// Summary returns the stored form of the response
func (r *ResponseData) Summary() *ResponseSummary {
	return &ResponseSummary{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Headers:    r.Headers.Map(),
		Body:       r.BodyString(),
		DurationMs: r.DurationMillis(),
		Size:       r.Size,
	}
}
