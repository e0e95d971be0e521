package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gradebook/internal/adapters/http/perf"
)

// SlowRequest is the duration above which a request is logged at warn level.
// NewMux overrides it from GRADEBOOK_SLOW_REQUEST_MS.
var SlowRequest = 200 * time.Millisecond

// RequestIDHeader carries the id logged with each request.
const RequestIDHeader = "X-Request-ID"

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

var statusWriterPool = sync.Pool{
	New: func() any { return &statusWriter{} },
}

// Timing logs every non-static request with a request id, reused from the
// incoming header when present, and records it to collector under its route
// (see Route) so per-student URLs aggregate together.
func Timing(collector *perf.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				ms := float64(elapsed.Microseconds()) / 1000.0
				attrs := []any{
					"request_id", reqID,
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", ms,
				}
				if elapsed >= SlowRequest {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + Route(r.URL.Path),
						StatusCode: sw.status,
						DurationMs: ms,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// Route collapses the variable segments of path: student indexes become
// {index} and temporary document ids become {id}.
func Route(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segs[i] = "{index}"
		} else if i == 2 && segs[1] == "documents" {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}
