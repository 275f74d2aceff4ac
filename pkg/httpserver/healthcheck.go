package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authsvc/pkg/logger"
)

// HealthCheckHandler returns a handler usable for both liveness and
// readiness probes.
//
//   - Liveness: with no dependency functions it returns 200 OK, body "ALIVE".
//   - Readiness: each dependency function is executed; all passing returns
//     200 OK "READY", any failure returns 500 "NOT_READY".
func HealthCheckHandler(log *slog.Logger, funcs ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(funcs) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, f := range funcs {
			if err := f(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
