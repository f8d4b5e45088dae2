package crisis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Resource is a crisis contact surfaced when a query indicates acute
// distress. Lower priority sorts first.
type Resource struct {
	ID          int64
	Name        string
	Phone       string
	URL         string // empty when the resource has no website
	Description string
	Priority    int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResourceLister provides the active crisis resource set in display order.
type ResourceLister interface {
	ActiveResources(ctx context.Context) ([]Resource, error)
}

// ResourceStore reads crisis resources from PostgreSQL.
//
// ResourceStore is safe for concurrent use.
type ResourceStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewResourceStore creates a ResourceStore.
func NewResourceStore(pool *pgxpool.Pool, logger *slog.Logger) (*ResourceStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceStore{pool: pool, logger: logger}, nil
}

// ActiveResources returns every active resource ordered by ascending
// priority, ties broken by ascending id (insertion order). Inactive rows are
// never exposed.
func (s *ResourceStore) ActiveResources(ctx context.Context) ([]Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, phone, url, description, priority, active, created_at, updated_at
		 FROM crisis_resources
		 WHERE active
		 ORDER BY priority, id`)
	if err != nil {
		return nil, fmt.Errorf("listing crisis resources: %w", err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var (
			r   Resource
			url pgtype.Text
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Phone, &url, &r.Description,
			&r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning crisis resource: %w", err)
		}
		if url.Valid {
			r.URL = url.String
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing crisis resources: %w", err)
	}

	return resources, nil
}
