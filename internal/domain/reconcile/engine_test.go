package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
	"payledger/internal/platform/apperr"
	"payledger/internal/platform/metrics"
)

type fakeLedger struct {
	workers     map[string]directory.Worker
	companies   map[string]directory.Company
	employments map[string]bool
	contracts   map[string]directory.Contract
	liabilities []liability.Liability
	leaves      map[string]leave.Request
	advances    []advance.Request
	runs        []payroll.Run

	blockAdvances bool
	slowWorkers   map[string]bool
}

func key(workerID, companyID string) string { return workerID + "/" + companyID }

func (f *fakeLedger) GetWorker(_ context.Context, id string) (directory.Worker, error) {
	w, ok := f.workers[id]
	if !ok {
		return directory.Worker{}, directory.ErrWorkerNotFound
	}
	return w, nil
}

func (f *fakeLedger) GetCompany(_ context.Context, id string) (directory.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return directory.Company{}, directory.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeLedger) GetEmployment(_ context.Context, workerID, companyID string) (directory.Employment, error) {
	if !f.employments[key(workerID, companyID)] {
		return directory.Employment{}, directory.ErrMappingNotFound
	}
	return directory.Employment{WorkerID: workerID, CompanyID: companyID, Status: directory.EmploymentActive}, nil
}

func (f *fakeLedger) GetAcceptedContract(_ context.Context, workerID, companyID string) (directory.Contract, error) {
	c, ok := f.contracts[key(workerID, companyID)]
	if !ok {
		return directory.Contract{}, directory.ErrContractNotFound
	}
	return c, nil
}

func (f *fakeLedger) ListActiveEmployees(_ context.Context, companyID string) ([]directory.Worker, error) {
	var out []directory.Worker
	for _, w := range f.workers {
		if f.employments[key(w.ID, companyID)] {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLedger) ListAccepted(_ context.Context, workerID, companyID string, window period.Window) ([]liability.Liability, error) {
	var out []liability.Liability
	for _, l := range f.liabilities {
		if l.WorkerID == workerID && l.CompanyID == companyID && l.Status == liability.StatusAccepted && window.Contains(l.CreatedAt) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetLeaves(_ context.Context, ids []string) (map[string]leave.Request, error) {
	out := make(map[string]leave.Request)
	for _, id := range ids {
		if lr, ok := f.leaves[id]; ok {
			out[id] = lr
		}
	}
	return out, nil
}

func (f *fakeLedger) ListApproved(ctx context.Context, workerID, companyID string, window period.Window) ([]advance.Request, error) {
	if f.blockAdvances || f.slowWorkers[workerID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	var out []advance.Request
	for _, a := range f.advances {
		if a.WorkerID == workerID && a.CompanyID == companyID && a.Status == advance.StatusApproved && window.Contains(a.CreatedAt) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListRuns(_ context.Context, workerID, companyID string, window period.Window) ([]payroll.Run, error) {
	var out []payroll.Run
	for _, r := range f.runs {
		if r.EmployeeID == workerID && r.CompanyID == companyID && window.Contains(r.CreatedAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

var base = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newLedger() *fakeLedger {
	return &fakeLedger{
		workers: map[string]directory.Worker{
			"w1": {ID: "w1", Name: "Asha", Designation: "Cook", Bank: directory.BankDetails{BankName: "SBI"}},
		},
		companies:   map[string]directory.Company{"c1": {ID: "c1", Name: "Acme"}},
		employments: map[string]bool{key("w1", "c1"): true},
		contracts: map[string]directory.Contract{
			key("w1", "c1"): {
				ID: "k1", CompanyID: "c1", WorkerID: "w1",
				GrossSalary: dec("30000"), BasicSalary: dec("25000"), DailyWage: dec("1000"),
				SalaryType: directory.SalaryTypeMonthly, Status: directory.ContractAccepted,
				Allowances: []directory.Allowance{{Name: "Travel", Amount: dec("5000")}},
			},
		},
		leaves: map[string]leave.Request{},
	}
}

func newTestEngine(f *fakeLedger, opts Options) *Engine {
	return NewEngine(f, f, f, f, f, nil, metrics.New(), opts)
}

func seedScenario(f *fakeLedger) {
	f.leaves["lv1"] = leave.Request{
		ID: "lv1", WorkerID: "w1", CompanyID: "c1",
		StartDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		LeaveType: leave.TypeUnpaid, Status: leave.StatusApproved,
	}
	f.liabilities = []liability.Liability{
		{ID: "li-item", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeItem, ItemName: "Helmet", Amount: decPtr("500"),
			Status: liability.StatusAccepted, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "li-leave", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeLeave, LeaveRequestID: "lv1",
			Status: liability.StatusAccepted, CreatedAt: base.Add(72 * time.Hour)},
	}
	f.advances = []advance.Request{
		{ID: "a1", WorkerID: "w1", CompanyID: "c1", Amount: dec("2000"), Status: advance.StatusApproved, CreatedAt: base.Add(24 * time.Hour)},
	}
}

func TestReconcileComputesBalance(t *testing.T) {
	f := newLedger()
	seedScenario(f)
	e := newTestEngine(f, Options{})

	result, err := e.Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)

	assert.True(t, dec("3500").Equal(result.Deductions.TotalLiabilities), result.Deductions.TotalLiabilities.String())
	assert.True(t, dec("3000").Equal(result.Deductions.UnpaidLeaveDeductions))
	assert.True(t, dec("6500").Equal(result.Deductions.Final))
	assert.True(t, dec("2000").Equal(result.TotalAdvancePayment))
	assert.True(t, dec("21500").Equal(result.Balance), result.Balance.String())

	assert.Equal(t, "Asha", result.Worker.Name)
	assert.Equal(t, "Acme", result.Company.Name)
	assert.Equal(t, "SBI", result.Bank.BankName)
	require.Len(t, result.LiabilityDetails, 2)
	require.NotNil(t, result.LiabilityDetails[1].Amount)
	assert.True(t, dec("3000").Equal(*result.LiabilityDetails[1].Amount))
	assert.Equal(t, 3, result.LiabilityDetails[1].LeaveDays)

	assert.True(t, result.Payout.TotalAmount.Equal(result.Balance))
	assert.Empty(t, result.Payout.PaymentID)
}

func TestReconcileSingleCountLeaveDeductions(t *testing.T) {
	f := newLedger()
	seedScenario(f)
	e := newTestEngine(f, Options{SingleCountLeaveDeductions: true})

	result, err := e.Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	assert.True(t, dec("3500").Equal(result.Deductions.Final))
	assert.True(t, dec("24500").Equal(result.Balance))
}

func TestReconcileEmptyLedgerReturnsGross(t *testing.T) {
	f := newLedger()
	c := f.contracts[key("w1", "c1")]
	c.GrossSalary = dec("15000")
	f.contracts[key("w1", "c1")] = c

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.CurrentMonth(base))
	require.NoError(t, err)
	assert.True(t, dec("15000").Equal(result.Balance))
	assert.True(t, result.Deductions.Final.IsZero())
	assert.Empty(t, result.Transactions)
	assert.NotNil(t, result.Transactions)
}

func TestReconcileBalanceIsNotClamped(t *testing.T) {
	f := newLedger()
	f.advances = []advance.Request{
		{ID: "a1", WorkerID: "w1", CompanyID: "c1", Amount: dec("30000"), Status: advance.StatusApproved, CreatedAt: base},
	}
	f.liabilities = []liability.Liability{
		{ID: "l1", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeItem, Amount: decPtr("1200"), Status: liability.StatusAccepted, CreatedAt: base},
	}
	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	assert.True(t, dec("-1200").Equal(result.Balance), result.Balance.String())
}

func TestReconcileMissingContract(t *testing.T) {
	f := newLedger()
	delete(f.contracts, key("w1", "c1"))

	_, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractNotFound))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReconcileMissingMapping(t *testing.T) {
	f := newLedger()

	_, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "other", period.AllTime())
	assert.True(t, errors.Is(err, ErrMappingNotFound))

	_, err = newTestEngine(f, Options{}).Reconcile(context.Background(), "ghost", "c1", period.AllTime())
	assert.True(t, errors.Is(err, ErrMappingNotFound))
}

func TestReconcileTransactionsSortedByDate(t *testing.T) {
	f := newLedger()
	seedScenario(f)
	f.runs = []payroll.Run{
		{ID: "r1", EmployeeID: "w1", CompanyID: "c1", TotalAmount: dec("21500"), DeductionCredit: dec("0"), Incentives: dec("250"),
			ModeOfPayment: payroll.ModeUPI, CreatedAt: base.Add(12 * time.Hour)},
	}

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	require.Len(t, result.Transactions, 4)
	for i := 1; i < len(result.Transactions); i++ {
		assert.False(t, result.Transactions[i].Date.Before(result.Transactions[i-1].Date))
	}
	assert.Equal(t, TxnSalary, result.Transactions[0].Type)
	assert.Equal(t, payroll.ModeUPI, result.Transactions[0].PaymentMode)
	assert.Equal(t, "r1", result.Payout.PaymentID)
	assert.True(t, dec("250").Equal(result.Payout.Incentives))
}

func TestReconcileEqualDatesKeepSourceOrder(t *testing.T) {
	f := newLedger()
	f.liabilities = []liability.Liability{
		{ID: "l1", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeItem, Amount: decPtr("10"), Status: liability.StatusAccepted, CreatedAt: base},
	}
	f.advances = []advance.Request{
		{ID: "a1", WorkerID: "w1", CompanyID: "c1", Amount: dec("10"), Status: advance.StatusApproved, CreatedAt: base},
	}
	f.runs = []payroll.Run{{ID: "r1", EmployeeID: "w1", CompanyID: "c1", TotalAmount: dec("10"), CreatedAt: base}}

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)
	assert.Equal(t, []string{TxnAdvance, TxnSalary, TxnLiability},
		[]string{result.Transactions[0].Type, result.Transactions[1].Type, result.Transactions[2].Type})
}

func TestReconcilePaidOrPendingLeaveHasNoAmount(t *testing.T) {
	f := newLedger()
	f.leaves["lv-paid"] = leave.Request{ID: "lv-paid", StartDate: base, EndDate: base.AddDate(0, 0, 1), LeaveType: leave.TypePaid}
	f.leaves["lv-pending"] = leave.Request{ID: "lv-pending", StartDate: base, EndDate: base, Status: leave.StatusPending}
	f.liabilities = []liability.Liability{
		{ID: "l1", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeLeave, LeaveRequestID: "lv-paid", Status: liability.StatusAccepted, CreatedAt: base},
		{ID: "l2", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeLeave, LeaveRequestID: "lv-pending", Status: liability.StatusAccepted, CreatedAt: base},
		{ID: "l3", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeLeave, LeaveRequestID: "lv-gone", Status: liability.StatusAccepted, CreatedAt: base},
	}

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	require.Len(t, result.LiabilityDetails, 3)
	for _, d := range result.LiabilityDetails {
		assert.Nil(t, d.Amount, d.ID)
	}
	assert.Equal(t, DegradedLeaveNotFound, result.LiabilityDetails[2].Degraded)
	assert.Len(t, result.Transactions, 3)
	assert.True(t, dec("30000").Equal(result.Balance))
}

func TestReconcileWindowExcludesOtherMonths(t *testing.T) {
	f := newLedger()
	f.advances = []advance.Request{
		{ID: "feb", WorkerID: "w1", CompanyID: "c1", Amount: dec("100"), Status: advance.StatusApproved, CreatedAt: base.AddDate(0, -1, 0)},
		{ID: "mar", WorkerID: "w1", CompanyID: "c1", Amount: dec("200"), Status: advance.StatusApproved, CreatedAt: base},
		{ID: "apr", WorkerID: "w1", CompanyID: "c1", Amount: dec("400"), Status: advance.StatusApproved, CreatedAt: period.CurrentMonth(base).To},
	}

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.CurrentMonth(base))
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(result.TotalAdvancePayment))
}

func TestReconcileSourceTimeout(t *testing.T) {
	f := newLedger()
	f.blockAdvances = true
	collector := metrics.New()
	e := NewEngine(f, f, f, f, f, nil, collector, Options{SourceTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := e.Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceTimeout))
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestReconcileUnknownEmployeeName(t *testing.T) {
	f := newLedger()
	w := f.workers["w1"]
	w.Name = "  "
	f.workers["w1"] = w

	result, err := newTestEngine(f, Options{}).Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	assert.Equal(t, UnknownEmployee, result.Worker.Name)
}

type failingSigner struct{}

func (failingSigner) SignedReadURL(context.Context, string, string) (string, error) {
	return "", errors.New("storage offline")
}

func TestReconcilePhotoSigningDegrades(t *testing.T) {
	f := newLedger()
	f.liabilities = []liability.Liability{
		{ID: "l1", WorkerID: "w1", CompanyID: "c1", Type: liability.TypeItem, Amount: decPtr("50"), Photo: "dent.jpg",
			Status: liability.StatusAccepted, CreatedAt: base},
	}
	e := NewEngine(f, f, f, f, f, failingSigner{}, metrics.New(), Options{})

	result, err := e.Reconcile(context.Background(), "w1", "c1", period.AllTime())
	require.NoError(t, err)
	require.Len(t, result.LiabilityDetails, 1)
	assert.Empty(t, result.LiabilityDetails[0].PhotoURL)
	assert.True(t, dec("29950").Equal(result.Balance))
}

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "ADV-1A2B3C4D", DisplayID(TxnAdvance, "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809"))
	assert.Equal(t, "SAL-AB", DisplayID(TxnSalary, "ab"))
	assert.Equal(t, "LIA-0F0F0F0F", DisplayID(TxnLiability, "0f0f-0f0f-aaaa"))
}
