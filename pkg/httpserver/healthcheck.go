package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Check is a named dependency probe, for example pg.Healthcheck(pool).
type Check struct {
	Name  string
	Probe func(context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness when no checks are given and readiness
// otherwise. Every check runs with the given timeout; any failure turns the
// response into 503 with the failing check marked "fail".
func HealthHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		report := healthReport{Status: "ok"}
		status := http.StatusOK

		if len(checks) > 0 {
			report.Checks = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			for _, c := range checks {
				if err := c.Probe(ctx); err != nil {
					log.ErrorContext(r.Context(), "readiness check failed",
						slog.String("check", c.Name), slog.Any("error", err))
					report.Checks[c.Name] = "fail"
					report.Status = "unavailable"
					status = http.StatusServiceUnavailable
					continue
				}
				report.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
