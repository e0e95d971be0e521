package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gradebook/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// TestTimingMiddleware_EmitsEntry verifies that a request entry is recorded
// with method, path and status.
func TestTimingMiddleware_EmitsEntry(t *testing.T) {
	collector := perf.NewCollector(1)
	handler := Timing(collector)(okHandler(http.StatusCreated))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/students", nil))

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "POST /students" {
		t.Fatalf("SlowestPaths = %+v, want POST /students", snap.SlowestPaths)
	}
	if snap.SlowestPaths[0].AvgMs < 0 {
		t.Errorf("AvgMs = %v, want >= 0", snap.SlowestPaths[0].AvgMs)
	}
}

// TestTimingMiddleware_RouteAggregates verifies per-student URLs share one entry.
func TestTimingMiddleware_RouteAggregates(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(okHandler(http.StatusOK))

	for _, path := range []string{"/students/1/report", "/students/27/report"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Count != 2 {
		t.Fatalf("SlowestPaths = %+v, want one route counted twice", snap.SlowestPaths)
	}
	if got := snap.SlowestPaths[0].Path; got != "GET /students/{index}/report" {
		t.Errorf("Path = %q", got)
	}
}

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/":                         "/",
		"/students":                 "/students",
		"/students/3/present":       "/students/{index}/present",
		"/api/students/12/behavior": "/api/students/{index}/behavior",
		"/documents/9f2c-4a1b":      "/documents/{id}",
		"/export.xlsx":              "/export.xlsx",
	}
	for path, want := range tests {
		if got := Route(path); got != want {
			t.Errorf("Route(%q) = %q, want %q", path, got, want)
		}
	}
}

// TestTimingMiddleware_SkipsStatic verifies static assets are excluded from timing.
func TestTimingMiddleware_SkipsStatic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/static/controller.js", nil))

	if collector.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0 (static excluded)", collector.TotalRecorded())
	}
}

// TestTimingMiddleware_RequestID verifies ids are generated or propagated.
func TestTimingMiddleware_RequestID(t *testing.T) {
	handler := Timing(nil)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

// TestTimingMiddleware_HandlerPanic verifies the deferred recording runs
// before a panic propagates.
func TestTimingMiddleware_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate, got nil")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/students", nil))
}

// TestTimingMiddleware_PoolNoStateLeak verifies pooled writers do not leak
// status codes between requests.
func TestTimingMiddleware_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(100)

	rr1 := httptest.NewRecorder()
	Timing(collector)(okHandler(http.StatusInternalServerError)).ServeHTTP(rr1, httptest.NewRequest("GET", "/api/refresh", nil))
	if rr1.Code != 500 {
		t.Errorf("request 1 status = %d, want 500", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})).ServeHTTP(rr2, httptest.NewRequest("GET", "/api/students", nil))
	if rr2.Code != 200 {
		t.Errorf("request 2 status = %d, want 200", rr2.Code)
	}
}

// BenchmarkTimingMiddleware measures per-request overhead.
func BenchmarkTimingMiddleware(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/api/students", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
