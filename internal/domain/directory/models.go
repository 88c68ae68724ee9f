package directory

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankDetails struct {
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	IFSC          string `json:"ifsc"`
	UPI           string `json:"upi"`
}

type Worker struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	PushToken     string          `json:"-"`
	ReferrerID    *string         `json:"referrerId,omitempty"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	Designation   string          `json:"designation"`
	FacePhoto     string          `json:"facePhoto,omitempty"`
	Bank          BankDetails     `json:"bank"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	LogoURL   string `json:"logoUrl"`
	PushToken string `json:"-"`
}

// Employment maps a worker to a company.
type Employment struct {
	WorkerID  string    `json:"workerId"`
	CompanyID string    `json:"companyId"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"startDate"`
}

type Allowance struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Contract is the compensation agreement between a company and a worker.
type Contract struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"companyId"`
	WorkerID     string          `json:"workerId"`
	GrossSalary  decimal.Decimal `json:"grossSalary"`
	BasicSalary  decimal.Decimal `json:"basicSalary"`
	DailyWage    decimal.Decimal `json:"dailyWage"`
	SalaryType   string          `json:"salaryType"`
	Allowances   []Allowance     `json:"allowances"`
	StartDate    time.Time       `json:"startDate"`
	Status       string          `json:"status"`
	SupersededAt *time.Time      `json:"supersededAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Current reports whether the contract is the one in force.
func (c Contract) Current() bool {
	return c.Status == ContractAccepted && c.SupersededAt == nil
}
