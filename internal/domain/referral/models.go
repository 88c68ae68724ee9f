package referral

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionRegistration   = "registration"
	ActionJobApplication = "job_application"
)

// Credit marks that a referred worker's one-time referral reward was handled.
type Credit struct {
	WorkerID   string          `json:"workerId"`
	ReferrerID *string         `json:"referrerId,omitempty"`
	Action     string          `json:"action"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Outcome reports what a qualifying action did.
type Outcome struct {
	Credited   bool   `json:"credited"`
	ReferrerID string `json:"referrerId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func ValidAction(action string) bool {
	return action == ActionRegistration || action == ActionJobApplication
}
