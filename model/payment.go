package model

import "time"

// Payment statuses. Pending is the only non-terminal state: a verified
// webhook event moves a record to paid or failed, and nothing moves it back.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

type Payment struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  string  `gorm:"uniqueIndex;size:100;not null" json:"order_id"`
	UserID   string  `gorm:"size:100" json:"user_id"`
	Amount   float64 `gorm:"type:decimal(10,2)" json:"amount"`
	Currency string  `gorm:"size:10" json:"currency"`
	Email    string  `gorm:"size:200" json:"email"`
	Phone    string  `gorm:"size:30" json:"phone"`
	Status   string  `gorm:"size:20;default:'pending'" json:"status"`

	// Gateway-side identifiers. A pending record that carries a client
	// secret is tentative: it may be superseded by a fresh charge attempt
	// if its intent turns out to be stale.
	IntentID     string `gorm:"index;size:200" json:"intent_id"`
	ClientSecret string `gorm:"size:200" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether status is paid or failed.
func IsTerminal(status string) bool {
	return status == StatusPaid || status == StatusFailed
}

// CanTransition reports whether a record may move from one status to
// another. Re-applying the same terminal status is a no-op upstream, never
// a transition.
func CanTransition(from, to string) bool {
	return from == StatusPending && IsTerminal(to)
}
