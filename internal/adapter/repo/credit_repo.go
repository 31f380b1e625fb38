package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"virezo-server/internal/domain"
	"virezo-server/internal/infra"
)

// CreditRepositoryPG implements domain.CreditRepository backed by PostgreSQL.
type CreditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepositoryPG.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepositoryPG {
	return &CreditRepositoryPG{pool: pool}
}

// Deduct atomically charges amount against the user's balance. The guard in
// the WHERE clause makes a partial charge impossible: either the row matches
// and the full amount comes off, or no row matches and the balance is
// untouched.
func (r *CreditRepositoryPG) Deduct(ctx context.Context, userID string, amount int) (int, error) {
	query := `
UPDATE users
SET credits = credits - $2,
    updated_at = NOW()
WHERE id = $1
  AND credits >= $2
RETURNING credits;
`
	var balance int
	if err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, r.classifyDeductMiss(ctx, userID)
		}
		return 0, err
	}
	return balance, nil
}

// Balance returns the user's current credit balance.
func (r *CreditRepositoryPG) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// classifyDeductMiss distinguishes an unknown user from one who simply cannot
// afford the charge.
func (r *CreditRepositoryPG) classifyDeductMiss(ctx context.Context, userID string) error {
	if _, err := r.Balance(ctx, userID); err != nil {
		return err
	}
	return domain.ErrInsufficientCredits
}

var _ domain.CreditRepository = (*CreditRepositoryPG)(nil)
