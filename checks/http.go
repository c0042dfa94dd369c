package checks

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/healthrun/health"
)

// maxBodyBytes caps how much of a response body is read for matching.
const maxBodyBytes = 1 << 20

// HTTPClient abstracts HTTP requests for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig configures an HTTP probe.
type HTTPConfig struct {
	Name            string            // check name (default: "http:" + URL)
	URL             string            // target URL (required)
	Method          string            // HTTP method (default: GET)
	Headers         map[string]string // request headers
	ExpectedStatus  int               // expected HTTP status (default: 200)
	Contains        string            // response body must contain this string
	JSONPath        string            // gjson path, "path" or "path=expectedValue"
	Timeout         time.Duration     // request timeout (default: 5s)
	SlowThreshold   time.Duration     // slower successful responses are Degraded
	Insecure        bool              // skip TLS verification
	FollowRedirects bool              // follow 3xx responses
	Client          HTTPClient        // injected for testing
}

// HTTP verifies an HTTP endpoint.
type HTTP struct {
	config       HTTPConfig
	jsonPath     string
	jsonExpected string
	jsonCompare  bool
}

// NewHTTP creates an HTTP probe.
func NewHTTP(config HTTPConfig) (*HTTP, error) {
	if config.URL == "" {
		return nil, errors.New("http: URL is required")
	}
	u, err := url.Parse(config.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("http: invalid URL: %s", config.URL)
	}
	if config.Name == "" {
		config.Name = "http:" + config.URL
	}
	if config.Method == "" {
		config.Method = http.MethodGet
	}
	if config.ExpectedStatus == 0 {
		config.ExpectedStatus = http.StatusOK
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Client == nil {
		config.Client = newHTTPClient(config.Insecure, config.FollowRedirects)
	}

	h := &HTTP{config: config}
	if config.JSONPath != "" {
		h.jsonPath, h.jsonExpected, h.jsonCompare = parseJSONPath(config.JSONPath)
	}
	return h, nil
}

func newHTTPClient(insecure, followRedirects bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per check
	}
	client := &http.Client{Transport: transport}
	if !followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// Name returns the check name.
func (h *HTTP) Name() string { return h.config.Name }

// Kind returns "http".
func (h *HTTP) Kind() string { return "http" }

// Check issues one request and validates the response.
func (h *HTTP) Check(ctx context.Context) (health.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, h.config.Method, h.config.URL, http.NoBody)
	if err != nil {
		return health.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.config.Client.Do(req)
	if err != nil {
		return health.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body string
	if h.config.Contains != "" || h.jsonPath != "" {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return health.Result{}, fmt.Errorf("failed to read response body: %w", err)
		}
		body = string(b)
	}
	took := time.Since(start)

	data := health.NewData().
		Set("url", h.config.URL).
		Set("status_code", resp.StatusCode)

	if resp.StatusCode != h.config.ExpectedStatus {
		return health.Unhealthy(fmt.Sprintf("status %d, expected %d", resp.StatusCode, h.config.ExpectedStatus)).WithData(data), nil
	}
	if h.config.Contains != "" && !strings.Contains(body, h.config.Contains) {
		return health.Unhealthy(fmt.Sprintf("response body does not contain %q", h.config.Contains)).WithData(data), nil
	}
	if h.jsonPath != "" {
		value := gjson.Get(body, h.jsonPath)
		if !value.Exists() {
			return health.Unhealthy(fmt.Sprintf("JSON path %q not found", h.jsonPath)).WithData(data), nil
		}
		data.Set("json_value", value.String())
		if h.jsonCompare && value.String() != h.jsonExpected {
			return health.Unhealthy(fmt.Sprintf("JSON path %q: got %q, expected %q", h.jsonPath, value.String(), h.jsonExpected)).WithData(data), nil
		}
	}

	return latencyResult(fmt.Sprintf("status %d", resp.StatusCode), took, h.config.SlowThreshold, data), nil
}

// parseJSONPath splits "path=value" or "path".
func parseJSONPath(jsonPath string) (path, expected string, compare bool) {
	if idx := strings.Index(jsonPath, "="); idx != -1 {
		return jsonPath[:idx], jsonPath[idx+1:], true
	}
	return jsonPath, "", false
}
