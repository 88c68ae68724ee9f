package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/directory"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
)

const (
	TxnAdvance   = "Advance Payment"
	TxnSalary    = "Salary Payment"
	TxnLiability = "Liability"

	UnknownEmployee = "Unknown Employee"

	DegradedLeaveNotFound = "leave_not_found"
	DegradedMissingAmount = "missing_amount"
	DegradedSourceTimeout = "source_timeout"
)

type WorkerInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Designation  string `json:"designation"`
	FacePhotoURL string `json:"facePhotoUrl,omitempty"`
}

type CompanyInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	LogoURL string `json:"logoUrl"`
}

// Payout carries the figures of the latest payroll run in the window, or the
// computed balance when the worker has not been paid yet.
type Payout struct {
	PaymentID       string          `json:"paymentId,omitempty"`
	DeductionCredit decimal.Decimal `json:"deductionCredit"`
	Incentives      decimal.Decimal `json:"incentives"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ModeOfPayment   string          `json:"modeOfPayment,omitempty"`
}

type LiabilityDetail struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	ItemName       string           `json:"itemName,omitempty"`
	Amount         *decimal.Decimal `json:"amount"`
	Status         string           `json:"status"`
	LeaveRequestID string           `json:"leaveRequestId,omitempty"`
	LeaveType      string           `json:"leaveType,omitempty"`
	LeaveDays      int              `json:"leaveDays,omitempty"`
	PhotoURL       string           `json:"photoUrl,omitempty"`
	Degraded       string           `json:"degraded,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Transaction is one entry of the merged, date-ordered ledger view.
type Transaction struct {
	ID          string           `json:"id"`
	DisplayID   string           `json:"displayId"`
	Type        string           `json:"type"`
	Date        time.Time        `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	PaymentMode string           `json:"paymentMode,omitempty"`
}

type Result struct {
	Worker              WorkerInfo            `json:"worker"`
	Company             CompanyInfo           `json:"company"`
	Bank                directory.BankDetails `json:"bank"`
	Window              period.Window         `json:"window"`
	ContractID          string                `json:"contractId"`
	SalaryType          string                `json:"salaryType"`
	GrossSalary         decimal.Decimal       `json:"grossSalary"`
	BasicSalary         decimal.Decimal       `json:"basicSalary"`
	DailyWage           decimal.Decimal       `json:"dailyWage"`
	Allowances          []directory.Allowance `json:"allowances"`
	Deductions          payroll.Deductions    `json:"deductions"`
	TotalAdvancePayment decimal.Decimal       `json:"totalAdvancePayment"`
	Balance             decimal.Decimal       `json:"balance"`
	Payout              Payout                `json:"payout"`
	LiabilityDetails    []LiabilityDetail     `json:"liabilityDetails"`
	Transactions        []Transaction         `json:"transactions"`
}

type EmployeeSummary struct {
	WorkerID            string          `json:"workerId"`
	Name                string          `json:"name"`
	Designation         string          `json:"designation"`
	HasContract         bool            `json:"hasContract"`
	GrossSalary         decimal.Decimal `json:"grossSalary"`
	FinalDeductions     decimal.Decimal `json:"finalDeductions"`
	TotalAdvancePayment decimal.Decimal `json:"totalAdvancePayment"`
	Balance             decimal.Decimal `json:"balance"`
	Paid                bool            `json:"paid"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	Degraded            string          `json:"degraded,omitempty"`
}

type CompanySummary struct {
	CompanyID                string            `json:"companyId"`
	Window                   period.Window     `json:"window"`
	EmployeesUnpaid          int               `json:"employeesUnpaid"`
	TotalSalaryPaid          decimal.Decimal   `json:"totalSalaryPaid"`
	TotalUniqueEmployeesPaid int               `json:"totalUniqueEmployeesPaid"`
	TotalEmployeesForCompany int               `json:"totalEmployeesForCompany"`
	Employees                []EmployeeSummary `json:"employees"`
}
