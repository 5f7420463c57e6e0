package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/supportmesh/codeassist"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFunc func(ctx context.Context, query string) (string, error)

func (f chatFunc) Chat(ctx context.Context, query string) (string, error) { return f(ctx, query) }

type fakeCode struct {
	err error
}

func (f fakeCode) Explain(_ context.Context, code string) (string, error) {
	return "explains " + code, f.err
}

func (f fakeCode) Optimize(_ context.Context, code string) (string, error) {
	return "optimizes " + code, f.err
}

func (f fakeCode) Review(_ context.Context, code string) (*codeassist.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &codeassist.Report{Explanation: "e", Lint: codeassist.NoIssuesFound, Optimization: "o"}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func echoChat() ChatService {
	return chatFunc(func(_ context.Context, q string) (string, error) { return "answer to " + q, nil })
}

func TestChat(t *testing.T) {
	s := New(echoChat())

	for _, path := range []string{"/chat", "/chat/"} {
		rec := do(t, s, http.MethodPost, path, `{"query":"Where is ORD-1?"}`)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]string{"response": "answer to Where is ORD-1?"}, decode(t, rec))
	}
}

func TestChat_EmptyQueryIsForwarded(t *testing.T) {
	var got *string
	s := New(chatFunc(func(_ context.Context, q string) (string, error) {
		got = &q
		return "", nil
	}))

	rec := do(t, s, http.MethodPost, "/chat", `{"query":""}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)
}

func TestChat_BadRequests(t *testing.T) {
	s := New(echoChat())

	tests := []struct {
		name string
		body string
	}{
		{"not json", `query=hello`},
		{"missing query", `{"question":"hello"}`},
		{"wrong type", `{"query":42}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestChat_BackendError(t *testing.T) {
	s := New(chatFunc(func(context.Context, string) (string, error) {
		return "", errors.New("assistant PlanningAgent: upstream unavailable")
	}))

	rec := do(t, s, http.MethodPost, "/chat", `{"query":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "assistant PlanningAgent: upstream unavailable", decode(t, rec)["error"])
}

func TestChat_MethodNotAllowed(t *testing.T) {
	rec := do(t, New(echoChat()), http.MethodGet, "/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCodeRoutes(t *testing.T) {
	s := New(echoChat(), func(o *Options) { o.CodeAssistant = fakeCode{} })

	rec := do(t, s, http.MethodPost, "/explain", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "explains x = 1", decode(t, rec)["response"])

	rec = do(t, s, http.MethodPost, "/optimize", `{"code":"x = 1"}`)
	assert.Equal(t, "optimizes x = 1", decode(t, rec)["response"])

	rec = do(t, s, http.MethodPost, "/review", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"explanation": "e", "lint": "No issues found.", "optimization": "o"}, decode(t, rec))

	rec = do(t, s, http.MethodPost, "/review", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCodeRoutes_Errors(t *testing.T) {
	s := New(echoChat(), func(o *Options) { o.CodeAssistant = fakeCode{err: codeassist.ErrEmptyCode} })
	rec := do(t, s, http.MethodPost, "/explain", `{"code":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	s = New(echoChat(), func(o *Options) { o.CodeAssistant = fakeCode{err: errors.New("boom")} })
	rec = do(t, s, http.MethodPost, "/review", `{"code":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCodeRoutes_DisabledWithoutAssistant(t *testing.T) {
	rec := do(t, New(echoChat()), http.MethodPost, "/explain", `{"code":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	c := metrics.NewCollector("test")
	s := New(echoChat(), func(o *Options) { o.Metrics = c })

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	do(t, s, http.MethodPost, "/chat/", `{"query":"hi"}`)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="POST",route="/chat/",status="2xx"} 1`)
}

func TestMetrics_CountsUnmatchedRequests(t *testing.T) {
	c := metrics.NewCollector("test")
	s := New(echoChat(), func(o *Options) { o.Metrics = c })

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/other", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/chat", "").Code)

	body := do(t, s, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `test_http_requests_total{method="GET",route="unmatched",status="4xx"} 3`)
	assert.NotContains(t, body, `route="/nope"`)
}

func TestCORS(t *testing.T) {
	s := New(echoChat(), func(o *Options) { o.CORSOrigins = []string{"http://ui.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "http://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: New(echoChat())}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
