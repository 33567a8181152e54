// Package health provides liveness and readiness probes for the pipeline.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the JSON body returned by health endpoints.
type Response struct {
	Service    string                    `json:"service"`
	Status     Status                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
	Timestamp  string                    `json:"timestamp"`
}

// CheckFunc returns nil if the component is healthy, or an error describing
// the issue.
type CheckFunc func() error

// Checker aggregates component readiness checks for a service. Pipeline
// components (processors, exporters) register themselves and report status.
type Checker struct {
	service string

	mu              sync.RWMutex
	readinessChecks map[string]CheckFunc
	shuttingDown    atomic.Bool
}

// New creates a health Checker for the named service.
func New(service string) *Checker {
	return &Checker{
		service:         service,
		readinessChecks: make(map[string]CheckFunc),
	}
}

// RegisterReadiness registers a named readiness check, called on each
// /ready request.
func (c *Checker) RegisterReadiness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readinessChecks[name] = check
}

// SetShuttingDown marks the instance as shutting down. After this, both
// /live and /ready return 503 so load balancers drain the instance.
func (c *Checker) SetShuttingDown() {
	c.shuttingDown.Store(true)
}

// Handler returns a mux serving /live and /ready.
func (c *Checker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", c.LiveHandler())
	mux.HandleFunc("/ready", c.ReadyHandler())
	return mux
}

// LiveHandler serves the liveness probe: the process is running and not in
// shutdown.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.shuttingDown.Load() {
			c.writeJSON(w, http.StatusServiceUnavailable, StatusDown, map[string]ComponentCheck{
				"process": {Status: StatusDown, Message: "shutting down"},
			})
			return
		}
		c.writeJSON(w, http.StatusOK, StatusUp, nil)
	}
}

// ReadyHandler serves the readiness probe: all registered checks must pass.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.shuttingDown.Load() {
			c.writeJSON(w, http.StatusServiceUnavailable, StatusDown, map[string]ComponentCheck{
				"process": {Status: StatusDown, Message: "shutting down"},
			})
			return
		}

		c.mu.RLock()
		checks := make(map[string]CheckFunc, len(c.readinessChecks))
		for k, v := range c.readinessChecks {
			checks[k] = v
		}
		c.mu.RUnlock()

		overall := StatusUp
		components := make(map[string]ComponentCheck, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
				overall = StatusDown
				components[name] = ComponentCheck{Status: StatusDown, Message: err.Error()}
			} else {
				components[name] = ComponentCheck{Status: StatusUp}
			}
		}

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		c.writeJSON(w, code, overall, components)
	}
}

func (c *Checker) writeJSON(w http.ResponseWriter, code int, status Status, components map[string]ComponentCheck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Service:    c.service,
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
