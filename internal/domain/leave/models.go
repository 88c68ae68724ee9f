package leave

import "time"

type Request struct {
	ID        string     `json:"id"`
	WorkerID  string     `json:"workerId"`
	CompanyID string     `json:"companyId"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	TotalDays int        `json:"totalDays"`
	LeaveType string     `json:"leaveType,omitempty"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Unpaid reports whether an approved leave should be deducted from pay.
func (r Request) Unpaid() bool {
	return r.LeaveType == TypeUnpaid
}

type CreateInput struct {
	WorkerID  string
	CompanyID string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}
