package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/binder"
	"github.com/vedsharma/reqkit/internal/format"
	httpclient "github.com/vedsharma/reqkit/internal/http"
	"github.com/vedsharma/reqkit/internal/model"
	"github.com/vedsharma/reqkit/internal/storage"
)

// sensitiveHeaders is a list of headers that should be redacted before storing in history
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// AWS credentials
	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	// GCP credentials
	"x-goog-authenticated-user-email": true,
	"x-goog-authenticated-user-id":    true,
	"x-goog-iap-jwt-assertion":        true,

	// Azure credentials
	"x-ms-client-principal":    true,
	"x-ms-client-principal-id": true,
	"x-ms-token-aad-id-token":  true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

const redacted = "[REDACTED]"

var (
	headers          []string
	data             string
	bodyType         string
	formFields       []string
	varFlags         []string
	noHistory        bool
	saveToCollection string
	saveAs           string
)

func init() {
	verbs := []model.Method{
		model.MethodGet,
		model.MethodPost,
		model.MethodPut,
		model.MethodPatch,
		model.MethodDelete,
		model.MethodOptions,
		model.MethodHead,
	}

	for _, method := range verbs {
		verbCmd := &cobra.Command{
			Use:   strings.ToLower(method.String()) + " <url>",
			Short: fmt.Sprintf("Send a %s request", method),
			Args:  cobra.ExactArgs(1),
			Run:   runRequest(method),
		}
		addBodyFlags(verbCmd)
		addSendFlags(verbCmd)
		verbCmd.Flags().StringVar(&saveAs, "name", "", "Endpoint name when saving to a collection")
		rootCmd.AddCommand(verbCmd)
	}
}

// addBodyFlags registers the flags that describe an endpoint's headers and body
func addBodyFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header as 'Name: value' (can be used multiple times)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (string or @filename)")
	cmd.Flags().StringVar(&bodyType, "body-type", "", "Body type: json, xml, octet-stream, urlencoded, multipart")
	cmd.Flags().StringArrayVar(&formFields, "form", []string{}, "Add form field as name=value (can be used multiple times)")
}

// addSendFlags registers the flags shared by every command that sends
func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&varFlags, "var", []string{}, "Override a template variable as name=value")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")
	cmd.Flags().StringVarP(&saveToCollection, "collection", "c", "", "Save the endpoint to a collection")
}

func runRequest(method model.Method) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		e := model.NewEndpoint(method, args[0])

		var err error
		if e.Headers, err = parseHeaders(headers); err != nil {
			fail("Invalid header", err)
		}
		if e.Body, err = buildPayload(data, bodyType, formFields); err != nil {
			fail("Invalid body", err)
		}

		name := saveAs
		if name == "" {
			name = fmt.Sprintf("%s %s", method, args[0])
		}
		sendEndpoint(cmd, e, name)
	}
}

// sendEndpoint binds e with global and command-line variables, sends it and records the result
func sendEndpoint(cmd *cobra.Command, e model.Endpoint, name string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	store, err := openStorage()
	if err != nil {
		fail("Failed to open storage", err)
	}
	defer store.Close()

	overrides, err := parseVars(varFlags, false)
	if err != nil {
		fail("Invalid variable", err)
	}

	bindable, err := withLayeredVariables(store, e, overrides)
	if err != nil {
		fail("Failed to load variables", err)
	}

	req, resp, err := bindAndSend(cmd, bindable)
	if err != nil {
		fail("Request failed", describeBindError(err))
	}

	format.PrintResponse(resp, verbose)

	if !noHistory {
		warnIfSensitiveBody(req.BodyString())
		saveToHistory(store, req, resp, secretValues(bindable.Variables))
	}

	if saveToCollection != "" {
		saved := model.SavedEndpoint{Name: name, Endpoint: e}
		if err := store.AddToCollection(saveToCollection, saved); err != nil {
			format.PrintError(fmt.Sprintf("Failed to save to collection: %v", err))
			return
		}
		format.PrintSuccess(fmt.Sprintf("Saved '%s' to collection '%s'", name, saveToCollection))
	}
}

func bindAndSend(cmd *cobra.Command, e model.Endpoint) (model.Request, *model.ResponseData, error) {
	req, err := binder.Bind(e)
	if err != nil {
		return model.Request{}, nil, err
	}

	client := httpclient.NewClient(cfg.Timeout, cfg.MaxResponseBytes)
	resp, err := client.Do(cmd.Context(), req)
	if err != nil {
		return req, nil, err
	}
	return req, resp, nil
}

// withLayeredVariables returns a copy of e whose variables are the global
// variables, then e's own, then overrides. Later entries win on lookup.
func withLayeredVariables(store *storage.SQLiteStorage, e model.Endpoint, overrides model.KeyValueTable) (model.Endpoint, error) {
	globals, err := store.LoadVariables()
	if err != nil {
		return e, err
	}

	layered := layerVariables(globals, e.Variables, overrides)
	e.Variables = layered
	return e, nil
}

func layerVariables(tables ...model.KeyValueTable) model.KeyValueTable {
	var layered model.KeyValueTable
	for _, table := range tables {
		table.All(func(_ int, kv model.KeyValue) bool {
			layered.Append(kv)
			return true
		})
	}
	return layered
}

func parseHeaders(headerStrings []string) (model.KeyValueTable, error) {
	var result model.KeyValueTable
	for _, h := range headerStrings {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return model.KeyValueTable{}, fmt.Errorf("expected 'Name: value', got %q", h)
		}
		result.Append(model.NewKeyValue(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])))
	}
	return result, nil
}

// parseVars parses name=value pairs into table entries
func parseVars(pairs []string, secret bool) (model.KeyValueTable, error) {
	var result model.KeyValueTable
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return model.KeyValueTable{}, fmt.Errorf("expected name=value, got %q", pair)
		}
		result.Append(model.KeyValue{Name: name, Value: value, Active: true, Secret: secret})
	}
	return result, nil
}

// buildPayload turns body flags into a payload. Form fields select a form body,
// otherwise data is a raw body whose encoding defaults to JSON.
func buildPayload(data, bodyType string, form []string) (model.Payload, error) {
	kind := strings.ToLower(strings.TrimSpace(bodyType))

	if len(form) > 0 {
		if data != "" {
			return model.Payload{}, fmt.Errorf("--data and --form cannot be combined")
		}
		params, err := parseVars(form, false)
		if err != nil {
			return model.Payload{}, err
		}
		switch kind {
		case "", "urlencoded":
			return model.URLEncodedBody(params), nil
		case "multipart":
			return model.MultipartBody(params), nil
		default:
			return model.Payload{}, fmt.Errorf("body type %q does not take form fields", bodyType)
		}
	}

	var encoding model.RawEncoding
	switch kind {
	case "", "json":
		encoding = model.EncodingJSON
	case "xml":
		encoding = model.EncodingXML
	case "octet-stream", "binary":
		encoding = model.EncodingOctetStream
	case "urlencoded", "multipart":
		return model.Payload{}, fmt.Errorf("body type %q needs --form fields", bodyType)
	default:
		return model.Payload{}, fmt.Errorf("unknown body type %q", bodyType)
	}

	if data == "" {
		return model.NoBody(), nil
	}

	content := []byte(data)
	if strings.HasPrefix(data, "@") {
		var err error
		if content, err = readBodyFromFile(strings.TrimPrefix(data, "@")); err != nil {
			return model.Payload{}, fmt.Errorf("failed to read file: %w", err)
		}
	}
	return model.RawBody(encoding, content), nil
}

func saveToHistory(store *storage.SQLiteStorage, req model.Request, resp *model.ResponseData, secrets []string) {
	entry := model.HistoryEntry{
		ID:        uuid.New().String()[:8],
		Timestamp: time.Now(),
		Method:    req.Method.String(),
		URL:       redactSecrets(req.URL, secrets),
		Headers:   redactHeaderSecrets(filterSensitiveHeaders(req.Headers), secrets),
		Body:      redactSecrets(req.BodyString(), secrets),
	}

	if resp != nil {
		summary := resp.Summary()
		summary.Headers = filterSensitiveHeaders(summary.Headers)
		entry.Response = summary
	}

	// History failures shouldn't interrupt the user
	if err := store.AddToHistory(entry); err != nil {
		slog.Warn("failed to save history", "error", err)
	}
}

// secretValues collects the non-empty values of secret variables
func secretValues(vars model.KeyValueTable) []string {
	var secrets []string
	vars.All(func(_ int, kv model.KeyValue) bool {
		if kv.Secret && kv.Value != "" {
			secrets = append(secrets, kv.Value)
		}
		return true
	})
	return secrets
}

// redactSecrets replaces every occurrence of a secret value in s
func redactSecrets(s string, secrets []string) string {
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}

func redactHeaderSecrets(headers map[string]string, secrets []string) map[string]string {
	for k, v := range headers {
		headers[k] = redactSecrets(v, secrets)
	}
	return headers
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) ([]byte, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !within(wd, cleanPath) {
		return nil, fmt.Errorf("access denied: file must be within current directory")
	}

	// Resolve symlinks and verify the target is also within the working directory
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !within(wd, realPath) {
		realWd, wdErr := filepath.EvalSymlinks(wd)
		if wdErr != nil || !within(realWd, realPath) {
			return nil, fmt.Errorf("access denied: symlink target must be within current directory")
		}
	}

	return os.ReadFile(realPath)
}

func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// filterSensitiveHeaders returns a copy of headers with sensitive values redacted
func filterSensitiveHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			filtered[k] = redacted
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// sensitiveBodyPatterns contains patterns that suggest sensitive data in request bodies
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"ssn", "social_security",
	"access_token", "refresh_token",
	"client_secret", "auth",
}

// containsSensitiveData reports whether body looks like it holds credentials
func containsSensitiveData(body string) bool {
	lowerBody := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lowerBody, pattern) {
			return true
		}
	}
	return false
}

func warnIfSensitiveBody(body string) {
	if body != "" && containsSensitiveData(body) {
		fmt.Fprintln(os.Stderr, "WARNING: Request body may contain sensitive data (e.g., passwords, tokens). This will be stored in history.")
		fmt.Fprintln(os.Stderr, "         Use --no-history flag to skip storing this request.")
	}
}
