package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vedsharma/reqkit/internal/model"
)

const (
	// DefaultMaxResponseSize limits response body to 50MB to prevent memory exhaustion
	DefaultMaxResponseSize = 50 * 1024 * 1024

	// Default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second
)

var (
	ErrInvalidURL      = errors.New("invalid URL")
	ErrBlockedEndpoint = errors.New("blocked endpoint")
)

// Client sends bound requests over net/http
type Client struct {
	client          *http.Client
	maxResponseSize int64
}

// NewClient creates a new HTTP client. Zero values fall back to the defaults.
func NewClient(timeout time.Duration, maxResponseSize int64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxResponseSize <= 0 {
		maxResponseSize = DefaultMaxResponseSize
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		maxResponseSize: maxResponseSize,
	}
}

// Do executes a bound request and returns the response
func (c *Client) Do(ctx context.Context, r model.Request) (*model.ResponseData, error) {
	// Validate URL and check for SSRF risks
	if err := validateURL(r.URL); err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.ToLower(r.URL), "http://") {
		slog.Warn("using insecure HTTP connection, data will be transmitted unencrypted", "url", r.URL)
	}

	var bodyReader io.Reader
	if len(r.Body) > 0 {
		bodyReader = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method.String(), r.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	keys := make([]string, 0, len(r.Headers))
	for key := range r.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		req.Header.Set(key, r.Headers[key])
	}

	slog.Debug("sending request", "method", r.Method, "url", r.URL, "body_bytes", len(r.Body))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	limitedReader := io.LimitReader(resp.Body, c.maxResponseSize+1)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	if int64(len(respBody)) > c.maxResponseSize {
		respBody = respBody[:c.maxResponseSize]
		slog.Warn("response body truncated", "limit_bytes", c.maxResponseSize)
	}

	slog.Debug("received response", "status", resp.StatusCode, "duration", duration, "bytes", len(respBody))

	return model.NewResponseData(
		uint32(resp.StatusCode),
		resp.Status,
		duration,
		int64(len(respBody)),
		convertHeaders(resp.Header),
		respBody,
	), nil
}

// every value of a multi-valued header becomes its own entry
func convertHeaders(h http.Header) model.KeyValueTable {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var table model.KeyValueTable
	for _, name := range names {
		for _, value := range h[name] {
			table.Append(model.NewKeyValue(name, value))
		}
	}
	return table
}

// validateURL checks the URL for potential SSRF vulnerabilities
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", ErrInvalidURL, parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: URL must have a hostname", ErrInvalidURL)
	}

	lowerHost := strings.ToLower(hostname)
	if lowerHost == "localhost" || lowerHost == "127.0.0.1" || lowerHost == "::1" {
		slog.Warn("making request to localhost/loopback address", "host", hostname)
	}

	if isPrivateOrReservedHost(hostname) {
		slog.Warn("making request to private/internal IP address", "host", hostname)
	}

	// Cloud metadata services are common SSRF targets
	if isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("%w: cloud metadata endpoint %s", ErrBlockedEndpoint, hostname)
	}

	return nil
}

// isPrivateOrReservedHost checks if the hostname is a private or reserved IP
func isPrivateOrReservedHost(hostname string) bool {
	privatePatterns := []string{
		"10.",      // 10.0.0.0/8
		"192.168.", // 192.168.0.0/16
		"0.",       // 0.0.0.0/8
		"169.254.", // Link-local
	}

	for _, pattern := range privatePatterns {
		if strings.HasPrefix(hostname, pattern) {
			return true
		}
	}

	// 172.16.0.0/12
	for second := 16; second <= 31; second++ {
		if strings.HasPrefix(hostname, fmt.Sprintf("172.%d.", second)) {
			return true
		}
	}

	return false
}

func isCloudMetadataEndpoint(hostname string) bool {
	metadataHosts := map[string]bool{
		"169.254.169.254":          true, // AWS, GCP, Azure metadata
		"metadata.google.internal": true, // GCP metadata
		"metadata.goog":            true,
		"100.100.100.200":          true, // Alibaba Cloud metadata
		"169.254.170.2":            true, // AWS ECS task metadata
	}

	return metadataHosts[strings.ToLower(hostname)]
}
