package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Deductions struct {
	TotalLiabilities      decimal.Decimal `json:"totalLiabilities"`
	UnpaidLeaveDeductions decimal.Decimal `json:"unpaidLeaveDeductions"`
	Final                 decimal.Decimal `json:"final"`
}

// Run is the snapshot written when a worker is paid.
type Run struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employeeId"`
	CompanyID       string          `json:"companyId"`
	GrossSalary     decimal.Decimal `json:"grossSalary"`
	AdvancePayment  decimal.Decimal `json:"advancePayment"`
	Deductions      Deductions      `json:"deductions"`
	Balance         decimal.Decimal `json:"balance"`
	DeductionCredit decimal.Decimal `json:"deductionCredit"`
	Incentives      decimal.Decimal `json:"incentives"`
	ModeOfPayment   string          `json:"modeOfPayment"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CorrectedAt     *time.Time      `json:"correctedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type RecordInput struct {
	EmployeeID      string          `json:"employeeId" validate:"required"`
	CompanyID       string          `json:"companyId" validate:"required"`
	GrossSalary     decimal.Decimal `json:"grossSalary"`
	AdvancePayment  decimal.Decimal `json:"advancePayment"`
	Deductions      Deductions      `json:"deductions"`
	Balance         decimal.Decimal `json:"balance"`
	DeductionCredit decimal.Decimal `json:"deductionCredit"`
	Incentives      decimal.Decimal `json:"incentives"`
	ModeOfPayment   string          `json:"modeOfPayment" validate:"required,oneof=cash bank_transfer upi cheque"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

// Correction is an administrative partial edit of a run. Nil fields are kept.
type Correction struct {
	GrossSalary           *decimal.Decimal `json:"grossSalary"`
	AdvancePayment        *decimal.Decimal `json:"advancePayment"`
	TotalLiabilities      *decimal.Decimal `json:"totalLiabilities"`
	UnpaidLeaveDeductions *decimal.Decimal `json:"unpaidLeaveDeductions"`
	FinalDeductions       *decimal.Decimal `json:"finalDeductions"`
	Balance               *decimal.Decimal `json:"balance"`
	DeductionCredit       *decimal.Decimal `json:"deductionCredit"`
	Incentives            *decimal.Decimal `json:"incentives"`
	ModeOfPayment         *string          `json:"modeOfPayment" validate:"omitempty,oneof=cash bank_transfer upi cheque"`
	TotalAmount           *decimal.Decimal `json:"totalAmount"`
}

func (c Correction) Empty() bool {
	return c.GrossSalary == nil && c.AdvancePayment == nil && c.TotalLiabilities == nil && c.UnpaidLeaveDeductions == nil &&
		c.FinalDeductions == nil && c.Balance == nil && c.DeductionCredit == nil && c.Incentives == nil &&
		c.ModeOfPayment == nil && c.TotalAmount == nil
}

// Apply returns r with every supplied field overwritten.
func (c Correction) Apply(r Run) Run {
	setDec := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	setDec(&r.GrossSalary, c.GrossSalary)
	setDec(&r.AdvancePayment, c.AdvancePayment)
	setDec(&r.Deductions.TotalLiabilities, c.TotalLiabilities)
	setDec(&r.Deductions.UnpaidLeaveDeductions, c.UnpaidLeaveDeductions)
	setDec(&r.Deductions.Final, c.FinalDeductions)
	setDec(&r.Balance, c.Balance)
	setDec(&r.DeductionCredit, c.DeductionCredit)
	setDec(&r.Incentives, c.Incentives)
	setDec(&r.TotalAmount, c.TotalAmount)
	if c.ModeOfPayment != nil {
		r.ModeOfPayment = *c.ModeOfPayment
	}
	return r
}
