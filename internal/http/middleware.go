package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// RequestLogger tags each request with a monotonic request id, stores a
// request-scoped logger in the context, and logs start/finish with the
// observed status and duration.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			requestID := fmt.Sprintf("req-%d", counter.Add(1))
			requestLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			start := time.Now()
			requestLogger.InfoContext(r.Context(), "request started")

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := ContextWithLogger(r.Context(), requestLogger)
			next.ServeHTTP(recorder, r.WithContext(ctx))

			requestLogger.InfoContext(r.Context(), "request finished",
				slog.Int("status", recorder.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(p)
}
