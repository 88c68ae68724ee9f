package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
)

type runList []payroll.Run

func (r runList) ListCompanyRuns(_ context.Context, companyID string, window period.Window) ([]payroll.Run, error) {
	var out []payroll.Run
	for _, run := range r {
		if run.CompanyID == companyID && window.Contains(run.CreatedAt) {
			out = append(out, run)
		}
	}
	return out, nil
}

func run(id, employee, mode string, total int64, at time.Time) payroll.Run {
	return payroll.Run{
		ID: id, EmployeeID: employee, CompanyID: "c1", ModeOfPayment: mode,
		TotalAmount: decimal.NewFromInt(total), AdvancePayment: decimal.NewFromInt(100),
		Incentives: decimal.NewFromInt(10), CreatedAt: at,
	}
}

func TestPayrollRegister(t *testing.T) {
	march := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	svc := NewService(runList{
		run("r1", "w1", payroll.ModeCash, 1000, march),
		run("r2", "w2", payroll.ModeUPI, 500, march.AddDate(0, 0, 1)),
		run("r3", "w1", payroll.ModeCash, 250, march.AddDate(0, 0, 2)),
		run("r4", "w3", payroll.ModeCash, 9999, march.AddDate(0, 1, 0)),
	})

	reg, err := svc.PayrollRegister(context.Background(), "c1", period.Month(2025, time.March, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.RunCount)
	assert.Equal(t, 2, reg.EmployeesPaid)
	assert.True(t, reg.TotalPaid.Equal(decimal.NewFromInt(1750)))
	assert.True(t, reg.TotalAdvances.Equal(decimal.NewFromInt(300)))
	require.Len(t, reg.ByMode, 2)
	assert.Equal(t, payroll.ModeCash, reg.ByMode[0].Mode)
	assert.Equal(t, 2, reg.ByMode[0].Count)
	assert.True(t, reg.ByMode[0].Total.Equal(decimal.NewFromInt(1250)))
}

func TestEmptyRegister(t *testing.T) {
	reg := BuildRegister("c1", period.AllTime(), nil)
	assert.NotNil(t, reg.Runs)
	assert.NotNil(t, reg.ByMode)
	assert.True(t, reg.TotalPaid.IsZero())
}

func TestWriteCSV(t *testing.T) {
	at := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	reg := BuildRegister("c1", period.AllTime(), []payroll.Run{run("r1", "w1", payroll.ModeCash, 1000, at)})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reg))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "payment_id,employee_id"))
	assert.Equal(t, "r1,w1,2025-03-05T10:00:00Z,0.00,100.00,0.00,10.00,0.00,cash,1000.00", lines[1])
}
