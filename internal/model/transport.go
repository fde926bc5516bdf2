package model

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"agd-render/pkg/logger"
)

// maxLoggedBody caps the request body written to the debug log.
const maxLoggedBody = 4096

var (
	sensitiveHeaders = []string{"authorization", "x-api-key", "x-auth-token", "cookie"}
	sensitiveFields  = regexp.MustCompile(`"(api_key|apiKey|password|secret|token)"\s*:\s*"[^"]*"`)
	dataURIPayload   = regexp.MustCompile(`(data:[a-z/+.-]+;base64,)[A-Za-z0-9+/=]+`)
)

// DebugTransport logs outgoing provider requests with credentials redacted.
type DebugTransport struct {
	base    http.RoundTripper
	enabled bool
}

func NewDebugTransport(base http.RoundTripper, enabled bool) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, enabled: enabled}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.enabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if !t.enabled {
		return resp, err
	}
	if err != nil {
		logger.WithFields(logger.Fields{"url": req.URL.String()}).Errorf("model request failed: %v", err)
		return resp, err
	}
	logger.WithFields(logger.Fields{
		"url":    req.URL.String(),
		"status": resp.StatusCode,
	}).Debug("model response")
	return resp, nil
}

func (t *DebugTransport) logRequest(req *http.Request) {
	headers := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers[name] = "[REDACTED]"
			continue
		}
		headers[name] = strings.Join(values, ", ")
	}

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			logger.Errorf("read request body for debug log: %v", err)
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(b))
		body = b
	}

	logger.WithFields(logger.Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headers,
		"size":    len(body),
	}).Debugf("model request body: %s", sanitizeBody(body))
}

func sanitizeBody(body []byte) string {
	if len(body) == 0 {
		return "(empty)"
	}
	s := dataURIPayload.ReplaceAllString(string(body), "${1}[IMAGE]")
	s = sensitiveFields.ReplaceAllString(s, `"$1":"[REDACTED]"`)
	if len(s) > maxLoggedBody {
		s = s[:maxLoggedBody] + "...(truncated)"
	}
	return s
}

func isSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
