package domain

import "context"

// CreditRepository manages billing balances. Deduct is atomic at the store:
// it either charges the full amount and returns the new balance or reports
// ErrInsufficientCredits without a partial charge.
type CreditRepository interface {
	Deduct(ctx context.Context, userID string, amount int) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
}

// ActivityRepository persists the audit trail of user actions.
type ActivityRepository interface {
	Record(ctx context.Context, entry *ActivityEntry) error
}
