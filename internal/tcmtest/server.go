// Package tcmtest provides a fake Case Conductor platform for tests: an
// httptest server with stubbed responses plus builders for the platform's
// namespaced JSON envelopes.
package tcmtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Fields is resource field data keyed by unprefixed wire name. Builders
// apply the ns1. prefix; "@"-prefixed attribute keys pass through.
type Fields map[string]any

// Identity builds a resourceIdentity block.
func Identity(id, version, urlStr string) Fields {
	return Fields{
		"@id":      id,
		"@version": version,
		"@url":     urlStr,
	}
}

func prefixed(fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		key := k
		if !strings.HasPrefix(k, "@") && !strings.Contains(k, ".") {
			key = "ns1." + k
		}
		if nested, ok := v.(Fields); ok {
			out[key] = []any{prefixed(nested)}
		} else {
			out[key] = v
		}
	}
	return out
}

// Body renders a single-resource response body.
func Body(typeName string, fields Fields) []byte {
	wrapper := map[string]any{
		"ns1." + typeName: []any{prefixed(fields)},
	}
	b, _ := json.Marshal(wrapper)
	return b
}

// Array renders the bare-array list body form.
func Array(entries ...Fields) []byte {
	out := make([]any, 0, len(entries))
	for _, entry := range entries {
		out = append(out, prefixed(entry))
	}
	b, _ := json.Marshal(out)
	return b
}

// SearchResult renders the searchresult envelope list body form.
func SearchResult(arrayName, entryName string, entries ...Fields) []byte {
	list := make([]any, 0, len(entries))
	for _, entry := range entries {
		list = append(list, prefixed(entry))
	}
	wrapper := map[string]any{
		"ns1.searchresult": []any{map[string]any{
			"@xsi.type":        "ns1:searchResult",
			"ns1.totalResults": len(entries),
			"ns1." + arrayName: map[string]any{
				"ns1." + entryName: list,
			},
		}},
	}
	b, _ := json.Marshal(wrapper)
	return b
}

// BooleanBody renders the boolean envelope.
func BooleanBody(v bool) []byte {
	value := "false"
	if v {
		value = "true"
	}
	wrapper := map[string]any{
		"ns1.boolean": []any{map[string]any{
			"@xsi.type": "xsd:boolean",
			"$":         value,
		}},
	}
	b, _ := json.Marshal(wrapper)
	return b
}

// ErrorBody renders the platform's error envelope, e.g. for 409 responses.
func ErrorBody(code string) []byte {
	wrapper := map[string]any{
		"errors": []any{map[string]any{"error": code}},
	}
	b, _ := json.Marshal(wrapper)
	return b
}

// CapturedRequest records one request the fake platform received.
type CapturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
	Form   url.Values
}

type stubResponse struct {
	status      int
	contentType string
	body        []byte
	header      http.Header
}

// Server is a fake platform. Responses are stubbed per method and path;
// every request is captured for assertions.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []CapturedRequest
	responses map[string]stubResponse
}

// NewServer starts a fake platform server. Callers own Close.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]stubResponse),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// BaseURL is the platform base URL to hand to clients.
func (s *Server) BaseURL() string {
	return s.URL + "/rest/"
}

// Stub registers a JSON response for method and path (path without query).
func (s *Server) Stub(method, path string, status int, body []byte) {
	s.StubWithContentType(method, path, status, "application/json", body)
}

// StubWithContentType registers a response with an explicit content type.
func (s *Server) StubWithContentType(method, path string, status int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method+" "+path] = stubResponse{
		status:      status,
		contentType: contentType,
		body:        body,
	}
}

// StubWithHeader registers a response carrying extra headers.
func (s *Server) StubWithHeader(method, path string, status int, header http.Header, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method+" "+path] = stubResponse{
		status:      status,
		contentType: "application/json",
		body:        body,
		header:      header,
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	captured := CapturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	}
	if strings.Contains(r.Header.Get("Content-Type"), "x-www-form-urlencoded") {
		if form, err := url.ParseQuery(string(body)); err == nil {
			captured.Form = form
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, captured)
	stub, ok := s.responses[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"error":"not.found"}]}`))
		return
	}

	for k, vs := range stub.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if stub.contentType != "" {
		w.Header().Set("Content-Type", stub.contentType)
	}
	w.WriteHeader(stub.status)
	_, _ = w.Write(stub.body)
}

// Requests returns a copy of the captured requests in arrival order.
func (s *Server) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent captured request, or nil.
func (s *Server) LastRequest() *CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	req := s.requests[len(s.requests)-1]
	return &req
}

// RequestCount reports how many requests reached the server.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// ResetRequests clears the captured request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}
