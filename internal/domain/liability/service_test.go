package liability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/platform/memstore"
)

func setup(t *testing.T) (*liability.Service, *memstore.Store, memstore.Employed) {
	t.Helper()
	store := memstore.New()
	emp, err := store.SeedEmployed(context.Background(), directory.Worker{Name: "Asha"}, directory.Company{Name: "Acme"},
		directory.Contract{GrossSalary: decimal.NewFromInt(30000), DailyWage: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	return liability.NewService(store, leave.NewService(store), store, nil), store, emp
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateItemLiability(t *testing.T) {
	svc, _, emp := setup(t)
	employer := auth.Actor{ID: "boss", Role: auth.RoleEmployer, CompanyID: emp.Company.ID}

	l, err := svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeItem, ItemName: "Helmet", Amount: amount(500),
	}, employer)
	require.NoError(t, err)
	assert.Equal(t, liability.StatusPending, l.Status)
	assert.Equal(t, "boss", l.CreatedBy)

	_, err = svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeItem, ItemName: "Helmet",
	}, employer)
	assert.True(t, errors.Is(err, liability.ErrItemFields))

	_, err = svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeItem, ItemName: "Helmet", Amount: amount(5),
	}, auth.Actor{Role: auth.RoleEmployer, CompanyID: "other"})
	assert.True(t, errors.Is(err, liability.ErrForbidden))
}

func TestCreateLeaveLiabilityFilesLeaveRequest(t *testing.T) {
	svc, store, emp := setup(t)
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	l, err := svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeLeave,
		Leave: &liability.LeaveInput{StartDate: start, EndDate: start.AddDate(0, 0, 2), Reason: "family"},
	}, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, l.LeaveRequestID)
	assert.Nil(t, l.Amount)

	lr, err := store.GetLeave(context.Background(), l.LeaveRequestID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, lr.Status)
	assert.Equal(t, 3, lr.TotalDays)

	_, err = svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeLeave,
	}, auth.Actor{Role: auth.RoleAdmin})
	assert.True(t, errors.Is(err, liability.ErrLeaveFields))
}

func TestSetStatusFollowsTransitionTable(t *testing.T) {
	svc, _, emp := setup(t)
	ctx := context.Background()
	admin := auth.Actor{ID: "root", Role: auth.RoleAdmin}
	worker := auth.Actor{ID: "w", Role: auth.RoleWorker, WorkerID: emp.Worker.ID}
	employer := auth.Actor{ID: "boss", Role: auth.RoleEmployer, CompanyID: emp.Company.ID}

	newItem := func() liability.Liability {
		l, err := svc.Create(ctx, liability.CreateInput{
			WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeItem, ItemName: "Tray", Amount: amount(50),
		}, admin)
		require.NoError(t, err)
		return l
	}

	disputed := newItem()
	_, err := svc.SetStatus(ctx, disputed.ID, liability.StatusDispute, worker)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, disputed.ID, liability.StatusAccepted, worker)
	assert.True(t, errors.Is(err, liability.ErrInvalidTransition))
	resolved, err := svc.SetStatus(ctx, disputed.ID, liability.StatusAccepted, admin)
	require.NoError(t, err)
	assert.Equal(t, liability.StatusAccepted, resolved.Status)

	_, err = svc.SetStatus(ctx, resolved.ID, liability.StatusRejected, admin)
	assert.True(t, errors.Is(err, liability.ErrInvalidTransition))

	pending := newItem()
	_, err = svc.SetStatus(ctx, pending.ID, liability.StatusAccepted, employer)
	assert.True(t, errors.Is(err, liability.ErrInvalidTransition))
	rejected, err := svc.SetStatus(ctx, pending.ID, liability.StatusRejected, employer)
	require.NoError(t, err)
	assert.Equal(t, liability.StatusRejected, rejected.Status)

	other := newItem()
	_, err = svc.SetStatus(ctx, other.ID, liability.StatusAccepted, auth.Actor{Role: auth.RoleWorker, WorkerID: "not-me"})
	assert.True(t, errors.Is(err, liability.ErrForbidden))
}

type unwritableLiabilities struct {
	liability.StoreAPI
}

func (unwritableLiabilities) CreateLiability(context.Context, liability.Liability) (liability.Liability, error) {
	return liability.Liability{}, errors.New("disk full")
}

func TestCreateLeaveLiabilityWithdrawsLeaveWhenStoreFails(t *testing.T) {
	store := memstore.New()
	emp, err := store.SeedEmployed(context.Background(), directory.Worker{Name: "Asha"}, directory.Company{Name: "Acme"},
		directory.Contract{GrossSalary: decimal.NewFromInt(30000), DailyWage: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	svc := liability.NewService(unwritableLiabilities{store}, leave.NewService(store), store, nil)
	start := time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC)

	_, err = svc.Create(context.Background(), liability.CreateInput{
		WorkerID: emp.Worker.ID, CompanyID: emp.Company.ID, Type: liability.TypeLeave,
		Leave: &liability.LeaveInput{StartDate: start, EndDate: start.AddDate(0, 0, 1)},
	}, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.Error(t, err)

	leaves, err := store.ListLeaves(context.Background(), emp.Worker.ID, emp.Company.ID)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, leave.StatusRejected, leaves[0].Status)
}
