package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 5 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// check pings both stores in parallel.
func (h *HealthHandler) check(ctx context.Context) (dbErr, redisErr error) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		dbErr = h.db.Health(ctx)
		return nil
	})
	g.Go(func() error {
		redisErr = h.redis.Health(ctx)
		return nil
	})
	_ = g.Wait()
	return dbErr, redisErr
}

func checkStatus(err error) string {
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbErr, redisErr := h.check(r.Context())

	response := HealthResponse{
		Status: "healthy",
		Checks: map[string]string{
			"postgres": checkStatus(dbErr),
			"redis":    checkStatus(redisErr),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if dbErr != nil || redisErr != nil {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	dbErr, redisErr := h.check(r.Context())
	if dbErr != nil || redisErr != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
