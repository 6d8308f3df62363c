package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker interface.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new PostgreSQL health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler handles health check operations.
type Handler struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHandler creates a health handler over named dependencies.
func NewHandler(checkers map[string]Checker) *Handler {
	return &Handler{
		checkers: checkers,
		timeout:  2 * time.Second,
	}
}

// Response is the response for health check endpoint.
type Response struct {
	Status int
	Body   struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
}

// Check pings every dependency. Any failure answers 503 with the per-dependency results.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checkers))

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	for _, name := range h.names() {
		if err := h.checkers[name].Ping(ctx); err != nil {
			resp.Body.Checks[name] = "unhealthy"
			resp.Body.Status = "degraded"
			resp.Status = http.StatusServiceUnavailable

			continue
		}

		resp.Body.Checks[name] = "healthy"
	}

	return resp, nil
}

func (h *Handler) names() []string {
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, h.Check)
}
