package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/docrank/internal/logger"
)

func TestJSONRecoverer_AbortHandlerRepanics(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rvr := recover(); rvr != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rvr)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))
	t.Error("expected panic")
}

func TestWideEventMiddleware_LogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewRouter(NewServer(&mockRetrieval{}, &mockHealth{}), nil, zap.New(core))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/search?q=turing", http.NoBody))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 wide event, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/v1/search" || fields["query"] != "turing" {
		t.Errorf("unexpected fields %v", fields)
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", fields["status"])
	}
	if fields["request_id"] == "" || fields["request_id"] != rr.Header().Get("X-Request-ID") {
		t.Errorf("request_id %v does not match header %q", fields["request_id"], rr.Header().Get("X-Request-ID"))
	}
}

func TestWideEventMiddleware_InjectsContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logpkg.FromContext(r.Context()).Debug("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})
	h = chiMiddleware.RequestID(WideEventMiddleware(zap.New(core))(h))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", http.NoBody))

	inner := logs.FilterMessage("inside handler").All()
	if len(inner) != 1 {
		t.Fatalf("expected handler log through context logger, got %d", len(inner))
	}
	if _, ok := inner[0].ContextMap()["request_id"]; !ok {
		t.Error("expected request_id on context logger")
	}
}
