package directory

const (
	ContractPending  = "pending"
	ContractAccepted = "accepted"
	ContractRejected = "rejected"

	EmploymentActive = "active"
	EmploymentEnded  = "ended"

	SalaryTypeMonthly = "monthly"
	SalaryTypeDaily   = "daily"
)
