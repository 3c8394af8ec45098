package http

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency of the API.
type HealthCheck func(ctx context.Context) error

type namedHealthCheck struct {
	name  string
	check HealthCheck
}

// WithHealthCheck adds a dependency to the root health route.
func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	s.healthChecks = append(s.healthChecks, namedHealthCheck{name: name, check: check})
	return s
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	failing := make([]string, 0)
	for _, hc := range s.healthChecks {
		if err := hc.check(ctx); err != nil {
			s.logger.Warn("Health check failed", "dependency", hc.name, "error", err)
			failing = append(failing, hc.name)
		}
	}

	if len(failing) > 0 {
		writeJSON(w, s.logger, http.StatusServiceUnavailable, map[string]any{"msg": "Panic", "failing": failing})
		return
	}

	writeJSON(w, s.logger, http.StatusOK, map[string]string{"msg": "Don't panic"})
}
