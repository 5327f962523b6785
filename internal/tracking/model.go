// Package tracking provides the vendor-to-market tracking domain model
// and data access: tracking records, todos, and expenses.
package tracking

import "time"

// Status is a vendor's relationship to a tracked market.
type Status string

const (
	StatusInterested Status = "interested"
	StatusApplied    Status = "applied"
	StatusApproved   Status = "approved"
	StatusAttending  Status = "attending"
	StatusDeclined   Status = "declined"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// ValidStatuses is the set of allowed tracking statuses. Transitions
// between them happen only on explicit user action; untracking removes
// the record instead of reaching a terminal status.
var ValidStatuses = []Status{
	StatusInterested, StatusApplied, StatusApproved, StatusAttending,
	StatusDeclined, StatusCancelled, StatusCompleted, StatusArchived,
}

// IsValid checks if a tracking status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Tracking associates a user with a market they follow. TodoCount,
// TodoDone, Progress, and TotalExpenses are aggregates derived from the
// separately stored todo and expense rows.
type Tracking struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	MarketID      int64     `json:"marketId"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes"`
	TodoCount     int64     `json:"todoCount"`
	TodoDone      int64     `json:"todoDone"`
	Progress      float64   `json:"progress"`
	TotalExpenses int64     `json:"totalExpenses"` // cents
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Todo is one preparation task for a tracked market.
type Todo struct {
	ID         int64     `json:"id"`
	TrackingID int64     `json:"trackingId"`
	Title      string    `json:"title"`
	Done       bool      `json:"done"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Expense is one cost recorded against a tracked market.
type Expense struct {
	ID          int64     `json:"id"`
	TrackingID  int64     `json:"trackingId"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}
