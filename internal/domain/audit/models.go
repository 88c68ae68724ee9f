package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionAdvanceCreate   = "advance.create"
	ActionAdvanceApprove  = "advance.approve"
	ActionAdvanceReject   = "advance.reject"
	ActionAdvanceRemove   = "advance.remove"
	ActionPaymentRecord   = "payment.record"
	ActionPaymentCorrect  = "payment.correct"
	ActionLiabilityCreate = "liability.create"
	ActionLiabilityStatus = "liability.status"
	ActionLeaveDecide     = "leave.decide"
	ActionContractDecide  = "contract.decide"
	ActionReferralCredit  = "referral.credit"
	ActionProfileUpdate   = "profile.update"
	ActionContractOffer   = "contract.offer"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	ActorRole  string          `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	CompanyID  string          `json:"companyId,omitempty"`
	RequestID  string          `json:"requestId"`
	After      json.RawMessage `json:"after,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
	CompanyID  string
}

func (f Filter) Match(e Event) bool {
	return (f.Action == "" || f.Action == e.Action) &&
		(f.EntityType == "" || f.EntityType == e.EntityType) &&
		(f.ActorID == "" || f.ActorID == e.ActorID) &&
		(f.CompanyID == "" || f.CompanyID == e.CompanyID)
}
