// Package healthz aggregates the liveness of the agent's moving parts into
// a single readiness signal for the /healthz endpoint.
package healthz

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/caas-team/kestrel/internal/logger"
)

// Probe is one component reporting whether it is healthy.
type Probe interface {
	// Name identifies the probe in the healthz response.
	Name() string
	// Healthy reports whether the probed component is making progress.
	Healthy(ctx context.Context) bool
}

// Checker is used to check the health of the agent's components
type Checker struct {
	probes []Probe
}

// New creates a new healthz checker over the given probes
func New(probes ...Probe) *Checker {
	return &Checker{probes: probes}
}

// Healthy reports whether every registered probe is healthy
func (c *Checker) Healthy(ctx context.Context) bool {
	log := logger.FromContext(ctx)
	ok := true
	for _, p := range c.probes {
		if !p.Healthy(ctx) {
			log.Warn("Component is unhealthy", "component", p.Name())
			ok = false
		}
	}
	return ok
}

type response struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes"`
}

// Handler serves the aggregated health as JSON, 200 when every probe is
// healthy and 503 otherwise
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		res := response{Status: "ok", Probes: map[string]string{}}
		status := http.StatusOK
		for _, p := range c.probes {
			if p.Healthy(ctx) {
				res.Probes[p.Name()] = "ok"
				continue
			}
			res.Probes[p.Name()] = "unhealthy"
			res.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(res); err != nil {
			logger.FromContext(ctx).Error("Failed to encode healthz response", "error", err)
		}
	}
}
