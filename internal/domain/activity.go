package domain

import "time"

// ActivityEntry records a user-visible action for the audit trail.
type ActivityEntry struct {
	ID          string
	UserID      string
	Action      string
	OperationID string
	Country     string
	CreatedAt   time.Time
}
