package liability

import (
	"time"

	"github.com/shopspring/decimal"
)

// Liability is a charge recorded against a worker: a lost or damaged item, or
// a leave whose cost is derived from the referenced leave request.
type Liability struct {
	ID             string           `json:"id"`
	WorkerID       string           `json:"workerId"`
	CompanyID      string           `json:"companyId"`
	Type           string           `json:"type"`
	ItemName       string           `json:"itemName,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Photo          string           `json:"photo,omitempty"`
	LeaveRequestID string           `json:"leaveRequestId,omitempty"`
	Status         string           `json:"status"`
	CreatedBy      string           `json:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type LeaveInput struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason" validate:"max=500"`
}

type CreateInput struct {
	WorkerID  string           `json:"workerId" validate:"required"`
	CompanyID string           `json:"companyId" validate:"required"`
	Type      string           `json:"type" validate:"required,oneof=item leave"`
	ItemName  string           `json:"itemName" validate:"max=200"`
	Amount    *decimal.Decimal `json:"amount"`
	Photo     string           `json:"photo" validate:"max=512"`
	Leave     *LeaveInput      `json:"leave"`
}
