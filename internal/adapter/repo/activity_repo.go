package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"virezo-server/internal/domain"
)

// ActivityRepositoryPG persists the user activity audit trail.
type ActivityRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepositoryPG.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepositoryPG {
	return &ActivityRepositoryPG{pool: pool}
}

// Record inserts a single activity row. A missing ID is assigned here so
// callers can pass a bare entry.
func (r *ActivityRepositoryPG) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
INSERT INTO activities (id, user_id, action, operation_id, country)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.OperationID,
		entry.Country,
	)
	return err
}

var _ domain.ActivityRepository = (*ActivityRepositoryPG)(nil)
