package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/reqkit/internal/model"
)

const secretMask = "********"

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	infoColor      = color.New(color.FgWhite, color.Bold)
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

// PrintResponse prints a formatted HTTP response
func PrintResponse(resp *model.ResponseData, showHeaders bool) {
	getStatusColor(resp.Class()).Printf("%s\n", sanitizeOutput(resp.Status))
	dimColor.Printf("  Time: %ss  Size: %s\n\n", resp.DurationSeconds(), formatSize(resp.Size))

	if showHeaders {
		printHeaderTable(resp.Headers)
	}

	printBody(resp.BodyString(), resp.IsJSON())
}

func getStatusColor(class model.StatusClass) *color.Color {
	switch class {
	case model.StatusInformational:
		return infoColor
	case model.StatusSuccess:
		return successColor
	case model.StatusRedirection:
		return redirectColor
	case model.StatusClientError:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func statusClassOf(code uint32) model.StatusClass {
	return (&model.ResponseData{StatusCode: code}).Class()
}

func formatSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// multi-valued headers print once per value
func printHeaderTable(headers model.KeyValueTable) {
	if headers.Len() == 0 {
		return
	}

	fmt.Println("Headers:")
	headers.Sorted().All(func(_ int, kv model.KeyValue) bool {
		headerKeyColor.Printf("  %s: ", sanitizeOutput(kv.Name))
		fmt.Println(sanitizeOutput(kv.Value))
		return true
	})
	fmt.Println()
}

func printHeaders(headers map[string]string) {
	printHeaderTable(model.TableFromMap(headers))
}

func printBody(body string, isJSON bool) {
	if body == "" {
		dimColor.Println("(empty body)")
		return
	}
	fmt.Println(sanitizeOutput(formatBody(body, isJSON)))
}

// formatBody pretty-prints JSON bodies. Bodies without a JSON content type
// are still indented when they parse as JSON.
func formatBody(body string, isJSON bool) string {
	pretty := prettyJSON(body)
	if !isJSON && pretty == body {
		return body
	}
	return pretty
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

func displayValue(kv model.KeyValue, showSecrets bool) string {
	if kv.Secret && !showSecrets {
		return secretMask
	}
	return kv.Value
}

func printKeyValues(title string, table model.KeyValueTable, showSecrets bool) {
	if table.Len() == 0 {
		return
	}

	fmt.Printf("%s:\n", title)
	table.All(func(_ int, kv model.KeyValue) bool {
		headerKeyColor.Printf("  %s", sanitizeOutput(kv.Name))
		fmt.Printf(" = %s", sanitizeOutput(displayValue(kv, showSecrets)))
		if !kv.Active {
			dimColor.Print(" (inactive)")
		}
		fmt.Println()
		return true
	})
	fmt.Println()
}

// PrintEndpoint prints an unbound endpoint. Secret values are masked unless showSecrets is set.
func PrintEndpoint(e model.Endpoint, showSecrets bool) {
	methodColor.Printf("%s ", e.Method)
	urlColor.Println(sanitizeOutput(e.URL))
	fmt.Println()

	printKeyValues("Headers", e.Headers, showSecrets)
	printKeyValues("Variables", e.Variables, showSecrets)

	switch e.Body.Kind {
	case model.KindNone:
		dimColor.Println("(no body)")
	case model.KindURLEncoded, model.KindMultipart:
		printKeyValues(fmt.Sprintf("Body (%s)", e.Body.Kind), e.Body.Params, showSecrets)
	case model.KindRaw:
		fmt.Printf("Body (%s):\n", e.Body.Encoding)
		if e.Body.Encoding == model.EncodingOctetStream {
			dimColor.Printf("  <%s binary>\n", formatSize(int64(len(e.Body.Content))))
		} else {
			fmt.Println(sanitizeOutput(model.DecodeLossy(e.Body.Content)))
		}
	}
}

// PrintBoundRequest prints a request after template binding
func PrintBoundRequest(req model.Request) {
	methodColor.Printf("%s ", req.Method)
	urlColor.Println(sanitizeOutput(req.URL))
	fmt.Println()

	printHeaders(req.Headers)

	if len(req.Body) > 0 {
		fmt.Println("Body:")
		fmt.Println(sanitizeOutput(formatBody(req.BodyString(), req.IsJSON())))
	}
}

// PrintHistoryDetail prints full request/response details
func PrintHistoryDetail(entry *model.HistoryEntry) {
	fmt.Println("Request:")
	fmt.Println(strings.Repeat("-", 40))
	methodColor.Printf("%s ", entry.Method)
	urlColor.Println(sanitizeOutput(entry.URL))
	dimColor.Printf("ID: %s\n", entry.ID)
	dimColor.Printf("Time: %s\n\n", entry.Timestamp.Format("2006-01-02 15:04:05"))

	printHeaders(entry.Headers)

	if entry.Body != "" {
		fmt.Println("Body:")
		fmt.Println(sanitizeOutput(prettyJSON(entry.Body)))
		fmt.Println()
	}

	if resp := entry.Response; resp != nil {
		fmt.Println("\nResponse:")
		fmt.Println(strings.Repeat("-", 40))
		getStatusColor(statusClassOf(resp.StatusCode)).Printf("%s\n", sanitizeOutput(resp.Status))
		dimColor.Printf("  Time: %dms  Size: %s\n\n", resp.DurationMs, formatSize(resp.Size))
		printHeaders(resp.Headers)
		printBody(resp.Body, false)
	}
}

// PrintHistoryList prints history entries in a compact format
func PrintHistoryList(entries []model.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Println("No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		entry := entries[i]
		dimColor.Printf("[%d] %s ", i+1, entry.ID)
		methodColor.Printf("%-7s ", entry.Method)
		urlColor.Printf("%-60s ", sanitizeOutput(truncate(entry.URL, 60)))

		if entry.Response != nil {
			getStatusColor(statusClassOf(entry.Response.StatusCode)).Printf("%d ", entry.Response.StatusCode)
			dimColor.Printf("(%dms)", entry.Response.DurationMs)
		}
		fmt.Println()
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Printf("\n... and %d more requests\n", len(entries)-limit)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// PrintCollectionList prints a list of collections
func PrintCollectionList(collections *model.Collections) {
	if len(collections.Collections) == 0 {
		dimColor.Println("No collections found")
		return
	}

	names := make([]string, 0, len(collections.Collections))
	for name := range collections.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Collections:")
	for _, name := range names {
		headerKeyColor.Printf("  %s ", sanitizeOutput(name))
		dimColor.Printf("(%d endpoints)\n", len(collections.Collections[name].Endpoints))
	}
}

// PrintCollectionEndpoints prints the endpoints in a collection
func PrintCollectionEndpoints(col *model.Collection) {
	if len(col.Endpoints) == 0 {
		dimColor.Printf("Collection '%s' is empty\n", sanitizeOutput(col.Name))
		return
	}

	headerKeyColor.Printf("Collection: %s\n", sanitizeOutput(col.Name))
	fmt.Println(strings.Repeat("-", 40))

	for i, saved := range col.Endpoints {
		dimColor.Printf("[%d] ", i+1)
		fmt.Printf("%s: ", sanitizeOutput(saved.Name))
		methodColor.Printf("%s ", saved.Endpoint.Method)
		urlColor.Println(sanitizeOutput(saved.Endpoint.URL))
	}
}

// PrintVariableList prints global variables
func PrintVariableList(vars model.KeyValueTable, showSecrets bool) {
	if vars.Len() == 0 {
		dimColor.Println("No variables found")
		return
	}
	printKeyValues("Variables", vars, showSecrets)
}

// PrintVariable prints a single variable
func PrintVariable(kv model.KeyValue, showSecrets bool) {
	headerKeyColor.Printf("%s ", sanitizeOutput(kv.Name))
	dimColor.Print("= ")
	fmt.Println(sanitizeOutput(displayValue(kv, showSecrets)))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Printf("✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Printf("✗ %s\n", msg)
}
