// Package reconcile merges a worker's contract, advances, liabilities and
// payroll runs into one balance and one date-ordered transaction list.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
	"payledger/internal/platform/apperr"
	"payledger/internal/platform/blob"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/metrics"
)

type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
	GetCompany(ctx context.Context, companyID string) (directory.Company, error)
	GetEmployment(ctx context.Context, workerID, companyID string) (directory.Employment, error)
	GetAcceptedContract(ctx context.Context, workerID, companyID string) (directory.Contract, error)
	ListActiveEmployees(ctx context.Context, companyID string) ([]directory.Worker, error)
}

type LiabilitySource interface {
	ListAccepted(ctx context.Context, workerID, companyID string, window period.Window) ([]liability.Liability, error)
}

type LeaveSource interface {
	GetLeaves(ctx context.Context, ids []string) (map[string]leave.Request, error)
}

type AdvanceSource interface {
	ListApproved(ctx context.Context, workerID, companyID string, window period.Window) ([]advance.Request, error)
}

type RunSource interface {
	ListRuns(ctx context.Context, workerID, companyID string, window period.Window) ([]payroll.Run, error)
}

type Options struct {
	// SourceTimeout bounds each individual source fetch.
	SourceTimeout time.Duration
	// SingleCountLeaveDeductions makes deductions.final equal totalLiabilities
	// instead of adding leave-derived amounts a second time.
	SingleCountLeaveDeductions bool
	// SummaryConcurrency bounds per-employee work in CompanySummary.
	SummaryConcurrency int
}

type Engine struct {
	Directory   Directory
	Liabilities LiabilitySource
	Leaves      LeaveSource
	Advances    AdvanceSource
	Runs        RunSource
	Signer      blob.Signer
	Metrics     *metrics.Collector
	Options     Options
}

func NewEngine(dir Directory, liabilities LiabilitySource, leaves LeaveSource, advances AdvanceSource, runs RunSource,
	signer blob.Signer, collector *metrics.Collector, opts Options) *Engine {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 3 * time.Second
	}
	if opts.SummaryConcurrency <= 0 {
		opts.SummaryConcurrency = 8
	}
	return &Engine{
		Directory:   dir,
		Liabilities: liabilities,
		Leaves:      leaves,
		Advances:    advances,
		Runs:        runs,
		Signer:      signer,
		Metrics:     collector,
		Options:     opts,
	}
}

type sources struct {
	contract    directory.Contract
	liabilities []liability.Liability
	advances    []advance.Request
	runs        []payroll.Run
	leaves      map[string]leave.Request
}

// Reconcile computes the worker's position with employerID over window.
// The result is derived on every call; nothing is cached.
func (e *Engine) Reconcile(ctx context.Context, workerID, employerID string, window period.Window) (Result, error) {
	result, err := e.reconcile(ctx, workerID, employerID, window)
	if err != nil {
		e.Metrics.Reconciliation(apperr.CodeOf(err))
		return Result{}, err
	}
	e.Metrics.Reconciliation("ok")
	return result, nil
}

func (e *Engine) reconcile(ctx context.Context, workerID, employerID string, window period.Window) (Result, error) {
	worker, err := e.Directory.GetWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, directory.ErrWorkerNotFound) {
			return Result{}, apperr.Wrap(ErrMappingNotFound, err)
		}
		return Result{}, err
	}
	if _, err := e.Directory.GetEmployment(ctx, workerID, employerID); err != nil {
		return Result{}, err
	}

	src, err := e.fetch(ctx, workerID, employerID, window)
	if err != nil {
		return Result{}, err
	}

	company, err := e.Directory.GetCompany(ctx, employerID)
	if err != nil {
		logger.FromContext(ctx).Warn("company lookup degraded", zap.String("companyId", employerID), zap.Error(err))
		e.Metrics.EnrichmentDegraded("company")
		company = directory.Company{ID: employerID}
	}

	result := compute(src, e.Options.SingleCountLeaveDeductions)
	result.Window = window
	result.Worker = WorkerInfo{
		ID:          worker.ID,
		Name:        displayName(worker.Name),
		Phone:       worker.Phone,
		Designation: worker.Designation,
	}
	result.Company = CompanyInfo{ID: company.ID, Name: company.Name, Address: company.Address, LogoURL: company.LogoURL}
	result.Bank = worker.Bank

	if worker.FacePhoto != "" {
		result.Worker.FacePhotoURL = e.signedURL(ctx, worker.ID, worker.FacePhoto, "face_photo")
	}
	for i := range result.LiabilityDetails {
		if photo := photoOf(src.liabilities, result.LiabilityDetails[i].ID); photo != "" {
			result.LiabilityDetails[i].PhotoURL = e.signedURL(ctx, worker.ID, photo, "liability_photo")
		}
	}
	return result, nil
}

// fetch loads the four sources concurrently. Each fetch has its own deadline;
// the leave lookup runs after liabilities because it needs their ids.
func (e *Engine) fetch(ctx context.Context, workerID, employerID string, window period.Window) (sources, error) {
	var src sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := bounded(gctx, e, "contract", func(ctx context.Context) (directory.Contract, error) {
			return e.Directory.GetAcceptedContract(ctx, workerID, employerID)
		})
		src.contract = c
		return err
	})
	g.Go(func() error {
		ls, err := bounded(gctx, e, "liabilities", func(ctx context.Context) ([]liability.Liability, error) {
			return e.Liabilities.ListAccepted(ctx, workerID, employerID, window)
		})
		if err != nil {
			return err
		}
		src.liabilities = ls

		ids := leaveIDs(ls)
		if len(ids) == 0 {
			src.leaves = map[string]leave.Request{}
			return nil
		}
		leaves, err := bounded(gctx, e, "leaves", func(ctx context.Context) (map[string]leave.Request, error) {
			return e.Leaves.GetLeaves(ctx, ids)
		})
		src.leaves = leaves
		return err
	})
	g.Go(func() error {
		as, err := bounded(gctx, e, "advances", func(ctx context.Context) ([]advance.Request, error) {
			return e.Advances.ListApproved(ctx, workerID, employerID, window)
		})
		src.advances = as
		return err
	})
	g.Go(func() error {
		rs, err := bounded(gctx, e, "payroll_runs", func(ctx context.Context) ([]payroll.Run, error) {
			return e.Runs.ListRuns(ctx, workerID, employerID, window)
		})
		src.runs = rs
		return err
	})

	if err := g.Wait(); err != nil {
		return sources{}, err
	}
	return src, nil
}

type fetchResult[T any] struct {
	value T
	err   error
}

// bounded runs fn under the per-source deadline and stops waiting when the
// deadline passes even if fn ignores its context.
func bounded[T any](ctx context.Context, e *Engine, source string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	sctx, cancel := context.WithTimeout(ctx, e.Options.SourceTimeout)
	defer cancel()

	done := make(chan fetchResult[T], 1)
	go func() {
		v, err := fn(sctx)
		done <- fetchResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && errors.Is(sctx.Err(), context.DeadlineExceeded) {
			e.Metrics.SourceTimeout(source)
			return zero, apperr.Wrap(apperr.WithMessage(ErrSourceTimeout, "%s source did not respond in time", source), r.err)
		}
		return r.value, r.err
	case <-sctx.Done():
		if errors.Is(sctx.Err(), context.DeadlineExceeded) {
			e.Metrics.SourceTimeout(source)
			return zero, apperr.Wrap(apperr.WithMessage(ErrSourceTimeout, "%s source did not respond in time", source), sctx.Err())
		}
		return zero, sctx.Err()
	}
}

// compute is the pure arithmetic over already-fetched sources.
func compute(src sources, singleCount bool) Result {
	contract := src.contract
	result := Result{
		ContractID:       contract.ID,
		SalaryType:       contract.SalaryType,
		GrossSalary:      contract.GrossSalary,
		BasicSalary:      contract.BasicSalary,
		DailyWage:        contract.DailyWage,
		Allowances:       append([]directory.Allowance{}, contract.Allowances...),
		LiabilityDetails: make([]LiabilityDetail, 0, len(src.liabilities)),
		Transactions:     make([]Transaction, 0, len(src.advances)+len(src.runs)+len(src.liabilities)),
	}

	totalLiabilities := decimal.Zero
	unpaidLeave := decimal.Zero
	for _, l := range src.liabilities {
		detail := LiabilityDetail{
			ID:             l.ID,
			Type:           l.Type,
			ItemName:       l.ItemName,
			Status:         l.Status,
			LeaveRequestID: l.LeaveRequestID,
			CreatedAt:      l.CreatedAt,
		}
		switch l.Type {
		case liability.TypeLeave:
			lr, ok := src.leaves[l.LeaveRequestID]
			if !ok {
				detail.Degraded = DegradedLeaveNotFound
				break
			}
			detail.LeaveType = lr.LeaveType
			days, err := leave.WholeDaysInclusive(lr.StartDate, lr.EndDate)
			if err != nil {
				detail.Degraded = DegradedMissingAmount
				break
			}
			detail.LeaveDays = days
			if lr.Unpaid() {
				amount := contract.DailyWage.Mul(decimal.NewFromInt(int64(days)))
				detail.Amount = &amount
				unpaidLeave = unpaidLeave.Add(amount)
			}
		default:
			if l.Amount == nil {
				detail.Degraded = DegradedMissingAmount
				break
			}
			amount := *l.Amount
			detail.Amount = &amount
		}
		if detail.Amount != nil {
			totalLiabilities = totalLiabilities.Add(*detail.Amount)
		}
		result.LiabilityDetails = append(result.LiabilityDetails, detail)
	}

	final := totalLiabilities.Add(unpaidLeave)
	if singleCount {
		final = totalLiabilities
	}
	result.Deductions = payroll.Deductions{
		TotalLiabilities:      totalLiabilities,
		UnpaidLeaveDeductions: unpaidLeave,
		Final:                 final,
	}

	totalAdvance := decimal.Zero
	for _, a := range src.advances {
		totalAdvance = totalAdvance.Add(a.Amount)
	}
	result.TotalAdvancePayment = totalAdvance
	result.Balance = contract.GrossSalary.Sub(final).Sub(totalAdvance)

	result.Payout = Payout{DeductionCredit: decimal.Zero, Incentives: decimal.Zero, TotalAmount: result.Balance}
	if n := len(src.runs); n > 0 {
		latest := src.runs[0]
		for _, r := range src.runs[1:] {
			if !r.CreatedAt.Before(latest.CreatedAt) {
				latest = r
			}
		}
		result.Payout = Payout{
			PaymentID:       latest.ID,
			DeductionCredit: latest.DeductionCredit,
			Incentives:      latest.Incentives,
			TotalAmount:     latest.TotalAmount,
			ModeOfPayment:   latest.ModeOfPayment,
		}
	}

	result.Transactions = mergeTransactions(src.advances, src.runs, result.LiabilityDetails)
	return result
}

// mergeTransactions appends advances, runs and liabilities in that order and
// stable-sorts by date, so equal dates keep source order.
func mergeTransactions(advances []advance.Request, runs []payroll.Run, details []LiabilityDetail) []Transaction {
	txns := make([]Transaction, 0, len(advances)+len(runs)+len(details))
	for _, a := range advances {
		amount := a.Amount
		txns = append(txns, Transaction{ID: a.ID, DisplayID: DisplayID(TxnAdvance, a.ID), Type: TxnAdvance, Date: a.CreatedAt, Amount: &amount})
	}
	for _, r := range runs {
		amount := r.TotalAmount
		txns = append(txns, Transaction{ID: r.ID, DisplayID: DisplayID(TxnSalary, r.ID), Type: TxnSalary, Date: r.CreatedAt, Amount: &amount, PaymentMode: r.ModeOfPayment})
	}
	for _, d := range details {
		txns = append(txns, Transaction{ID: d.ID, DisplayID: DisplayID(TxnLiability, d.ID), Type: TxnLiability, Date: d.CreatedAt, Amount: d.Amount})
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns
}

// DisplayID derives a short human reference such as ADV-1A2B3C4D.
func DisplayID(txnType, id string) string {
	prefix := "TXN"
	switch txnType {
	case TxnAdvance:
		prefix = "ADV"
	case TxnSalary:
		prefix = "SAL"
	case TxnLiability:
		prefix = "LIA"
	}
	compact := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return prefix + "-" + compact
}

func (e *Engine) signedURL(ctx context.Context, ownerID, filename, field string) string {
	if e.Signer == nil {
		return ""
	}
	url, err := e.Signer.SignedReadURL(ctx, ownerID, filename)
	if err != nil {
		if !errors.Is(err, blob.ErrNotConfigured) {
			logger.FromContext(ctx).Warn("signed url degraded", zap.String("field", field), zap.Error(err))
		}
		e.Metrics.EnrichmentDegraded(field)
		return ""
	}
	return url
}

func leaveIDs(ls []liability.Liability) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, l := range ls {
		if l.Type != liability.TypeLeave || l.LeaveRequestID == "" {
			continue
		}
		if _, ok := seen[l.LeaveRequestID]; ok {
			continue
		}
		seen[l.LeaveRequestID] = struct{}{}
		ids = append(ids, l.LeaveRequestID)
	}
	return ids
}

func photoOf(ls []liability.Liability, id string) string {
	for _, l := range ls {
		if l.ID == id {
			return l.Photo
		}
	}
	return ""
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnknownEmployee
	}
	return name
}
