// Package reports aggregates recorded payroll runs into per-company registers.
package reports

import (
	"context"
	"encoding/csv"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
)

type RunLister interface {
	ListCompanyRuns(ctx context.Context, companyID string, window period.Window) ([]payroll.Run, error)
}

type Service struct {
	Runs RunLister
}

func NewService(runs RunLister) *Service {
	return &Service{Runs: runs}
}

type ModeTotal struct {
	Mode  string          `json:"modeOfPayment"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// PayrollRegister lists what a company paid out in a window.
type PayrollRegister struct {
	CompanyID       string          `json:"companyId"`
	Window          period.Window   `json:"window"`
	RunCount        int             `json:"runCount"`
	EmployeesPaid   int             `json:"employeesPaid"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	TotalAdvances   decimal.Decimal `json:"totalAdvances"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalIncentives decimal.Decimal `json:"totalIncentives"`
	ByMode          []ModeTotal     `json:"byMode"`
	Runs            []payroll.Run   `json:"runs"`
}

func (s *Service) PayrollRegister(ctx context.Context, companyID string, window period.Window) (PayrollRegister, error) {
	runs, err := s.Runs.ListCompanyRuns(ctx, companyID, window)
	if err != nil {
		return PayrollRegister{}, err
	}
	return BuildRegister(companyID, window, runs), nil
}

func BuildRegister(companyID string, window period.Window, runs []payroll.Run) PayrollRegister {
	reg := PayrollRegister{
		CompanyID:       companyID,
		Window:          window,
		RunCount:        len(runs),
		TotalPaid:       decimal.Zero,
		TotalAdvances:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalIncentives: decimal.Zero,
		ByMode:          []ModeTotal{},
		Runs:            runs,
	}
	if reg.Runs == nil {
		reg.Runs = []payroll.Run{}
	}

	employees := map[string]struct{}{}
	modes := map[string]*ModeTotal{}
	for _, run := range runs {
		employees[run.EmployeeID] = struct{}{}
		reg.TotalPaid = reg.TotalPaid.Add(run.TotalAmount)
		reg.TotalAdvances = reg.TotalAdvances.Add(run.AdvancePayment)
		reg.TotalDeductions = reg.TotalDeductions.Add(run.Deductions.Final)
		reg.TotalIncentives = reg.TotalIncentives.Add(run.Incentives)

		mt, ok := modes[run.ModeOfPayment]
		if !ok {
			mt = &ModeTotal{Mode: run.ModeOfPayment, Total: decimal.Zero}
			modes[run.ModeOfPayment] = mt
		}
		mt.Count++
		mt.Total = mt.Total.Add(run.TotalAmount)
	}
	reg.EmployeesPaid = len(employees)
	for _, mt := range modes {
		reg.ByMode = append(reg.ByMode, *mt)
	}
	sort.Slice(reg.ByMode, func(i, j int) bool { return reg.ByMode[i].Mode < reg.ByMode[j].Mode })
	return reg
}

var csvHeader = []string{"payment_id", "employee_id", "paid_at", "gross_salary", "advance_payment",
	"final_deductions", "incentives", "deduction_credit", "mode_of_payment", "total_amount"}

// WriteCSV writes one row per run in the register.
func WriteCSV(w io.Writer, reg PayrollRegister) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, run := range reg.Runs {
		if err := cw.Write([]string{
			run.ID,
			run.EmployeeID,
			run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			run.GrossSalary.StringFixed(2),
			run.AdvancePayment.StringFixed(2),
			run.Deductions.Final.StringFixed(2),
			run.Incentives.StringFixed(2),
			run.DeductionCredit.StringFixed(2),
			run.ModeOfPayment,
			run.TotalAmount.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
