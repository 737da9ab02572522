package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/documents/add", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	r.Post("/chat", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/static/images/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		method string
		target string
		path   string
		status string
	}{
		{"POST", "/documents/add", "/documents/add", "200"},
		{"POST", "/chat", "/chat", "500"},
		{"GET", "/static/images/a.png", "/static/images/*", "404"},
		{"GET", "/static/images/b/c.png", "/static/images/*", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))

			req := httptest.NewRequest(tc.method, tc.target, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if after-before != 1 {
				t.Errorf("expected one request labelled %s %s %s, got delta %f", tc.method, tc.path, tc.status, after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest("POST", "/documents/add", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("expected 0 in-flight requests after completion, got %f", v)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q, want unknown", got)
	}
	if got := normalizePath("/health"); got != "/health" {
		t.Errorf("normalizePath(/health) = %q", got)
	}
}

func TestObserveChat(t *testing.T) {
	RegisterChatMetrics()
	RegisterChatMetrics()

	ObserveChat("openai", "m", 0.2, nil)
	ObserveChat("openai", "m", 0.2, errors.New("boom"))
	AddChatTokens("openai", "m", 12, 0)

	if v := testutil.ToFloat64(ChatRequestsTotal.WithLabelValues("openai", "m", "success")); v < 1 {
		t.Errorf("expected success count >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(ChatRequestsTotal.WithLabelValues("openai", "m", "error")); v < 1 {
		t.Errorf("expected error count >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(ChatTokensTotal.WithLabelValues("openai", "m", "prompt")); v < 12 {
		t.Errorf("expected prompt tokens >= 12, got %f", v)
	}
}

func TestObserveEmbedding(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	errsBefore := testutil.ToFloat64(EmbeddingErrorsTotal.WithLabelValues("vllm", "e", "api_error"))

	ObserveEmbedding("vllm", "e", 0.05, "")
	ObserveEmbedding("vllm", "e", 0.05, "api_error")
	AddEmbeddingTokens("vllm", "e", 4, 4)
	AddEmbeddingTokens("vllm", "e", 9, 0)

	if v := testutil.ToFloat64(EmbeddingRequestsTotal.WithLabelValues("vllm", "e", "success")); v < 1 {
		t.Errorf("expected success count >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(EmbeddingErrorsTotal.WithLabelValues("vllm", "e", "api_error")); v != errsBefore+1 {
		t.Errorf("expected one new api_error, got %f (before %f)", v, errsBefore)
	}
	if v := testutil.ToFloat64(EmbeddingTokensTotal.WithLabelValues("vllm", "e", "prompt")); v != 4 {
		t.Errorf("expected 4 prompt tokens (zero-total usage skipped), got %f", v)
	}
}
