package model

// Endpoint is a parametrized request definition. URL, header names/values and the
// body may contain {{NAME}} placeholders resolved from Variables at bind time.
type Endpoint struct {
	URL       string
	Method    Method
	Headers   KeyValueTable
	Variables KeyValueTable
	Body      Payload
}

// NewEndpoint creates an endpoint with empty tables and no body
func NewEndpoint(method Method, url string) Endpoint {
	return Endpoint{URL: url, Method: method, Body: NoBody()}
}

// TemplateVariables maps every variable name to its value. Inactive variables are
// included; duplicates resolve to the last entry.
func (e Endpoint) TemplateVariables() map[string]string {
	return e.Variables.Map()
}

// ProcessHeaders returns the active headers, last write wins on duplicate names
func (e Endpoint) ProcessHeaders() map[string]string {
	return e.Headers.ActiveMap()
}

func (e Endpoint) Equal(other Endpoint) bool {
	return e.URL == other.URL &&
		e.Method == other.Method &&
		e.Headers.Equal(other.Headers) &&
		e.Variables.Equal(other.Variables) &&
		e.Body.Equal(other.Body)
}
