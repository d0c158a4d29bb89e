package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging logs one line per request at info (debug for 2xx health probes) with method, route,
// status and duration. The request ID is added by the log handler from the context.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newStatusRecorder(w)

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo

		switch {
		case rw.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rw.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		case r.URL.Path == "/health":
			level = slog.LevelDebug
		}

		slog.Log(r.Context(), level, "http: request complete",
			"method", r.Method,
			"route", routeLabel(r),
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
