package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"payledger/internal/domain/period"
)

// CompanySummary reconciles every active employee of companyID for the month
// containing now and aggregates the payout totals. An employee whose sources
// time out is listed as degraded and left out of the totals.
func (e *Engine) CompanySummary(ctx context.Context, companyID string, now time.Time) (CompanySummary, error) {
	if _, err := e.Directory.GetCompany(ctx, companyID); err != nil {
		return CompanySummary{}, err
	}
	employees, err := e.Directory.ListActiveEmployees(ctx, companyID)
	if err != nil {
		return CompanySummary{}, err
	}

	window := period.CurrentMonth(now)
	rows := make([]EmployeeSummary, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Options.SummaryConcurrency)
	for i, w := range employees {
		g.Go(func() error {
			row := EmployeeSummary{
				WorkerID:            w.ID,
				Name:                displayName(w.Name),
				Designation:         w.Designation,
				GrossSalary:         decimal.Zero,
				FinalDeductions:     decimal.Zero,
				TotalAdvancePayment: decimal.Zero,
				Balance:             decimal.Zero,
				TotalPaid:           decimal.Zero,
			}
			result, err := e.Reconcile(gctx, w.ID, companyID, window)
			switch {
			case errors.Is(err, ErrContractNotFound):
				rows[i] = row
				return nil
			case errors.Is(err, ErrSourceTimeout) && gctx.Err() == nil:
				row.Degraded = DegradedSourceTimeout
				rows[i] = row
				return nil
			case err != nil:
				return err
			}
			row.HasContract = true
			row.GrossSalary = result.GrossSalary
			row.FinalDeductions = result.Deductions.Final
			row.TotalAdvancePayment = result.TotalAdvancePayment
			row.Balance = result.Balance
			for _, t := range result.Transactions {
				if t.Type == TxnSalary && t.Amount != nil {
					row.Paid = true
					row.TotalPaid = row.TotalPaid.Add(*t.Amount)
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CompanySummary{}, err
	}

	summary := CompanySummary{
		CompanyID:                companyID,
		Window:                   window,
		TotalSalaryPaid:          decimal.Zero,
		TotalEmployeesForCompany: len(employees),
		Employees:                rows,
	}
	for _, row := range rows {
		if row.Degraded != "" {
			continue
		}
		if row.Paid {
			summary.TotalUniqueEmployeesPaid++
			summary.TotalSalaryPaid = summary.TotalSalaryPaid.Add(row.TotalPaid)
		} else if row.HasContract {
			summary.EmployeesUnpaid++
		}
	}
	return summary, nil
}
