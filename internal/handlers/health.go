// Package handlers holds the ops HTTP surface. The bot itself speaks
// Telegram; this server only answers liveness probes.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"taskline/internal/database"
	"taskline/internal/queue"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	db    *database.DB
	redis *redis.Client
	queue queue.JobQueue
}

// NewHealthChecker creates a new health checker. Any dependency may be
// nil; nil dependencies are skipped in extended mode.
func NewHealthChecker(db *database.DB, redisClient *redis.Client, jobQueue queue.JobQueue) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, queue: jobQueue}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		run := func(name string, check func(context.Context) error) {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				response.Status = "unhealthy"
				checks[name] = "unhealthy: " + err.Error()
				return
			}
			checks[name] = "healthy"
		}

		if h.db != nil {
			run("database", h.db.PingContext)
		}
		if h.redis != nil {
			run("redis", func(ctx context.Context) error {
				return h.redis.Ping(ctx).Err()
			})
		}
		if h.queue != nil {
			run("queue", h.queue.HealthCheck)
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response) //nolint:errcheck
}
