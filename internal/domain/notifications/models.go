package notifications

import "time"

const (
	KindAdvanceRequested = "advance.requested"
	KindAdvanceDecided   = "advance.decided"
	KindLiabilityCreated = "liability.created"
	KindLiabilityStatus  = "liability.status"
	KindSalaryPaid       = "salary.paid"
	KindReferralCredited = "referral.credited"
)

// Message is a push notification addressed to one device token.
type Message struct {
	Token     string            `json:"token"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
