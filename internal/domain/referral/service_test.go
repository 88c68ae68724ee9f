package referral_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/referral"
	"payledger/internal/platform/memstore"
	"payledger/internal/platform/metrics"
)

var admin = auth.Actor{ID: "root", Role: auth.RoleAdmin}

func seedPair(t *testing.T, store *memstore.Store) (referrer, referred directory.Worker) {
	t.Helper()
	ctx := context.Background()
	referrer, err := store.CreateWorker(ctx, directory.Worker{Name: "Ravi"})
	require.NoError(t, err)
	referred, err = store.CreateWorker(ctx, directory.Worker{Name: "Asha", ReferrerID: &referrer.ID})
	require.NoError(t, err)
	return referrer, referred
}

func TestCreditOnce(t *testing.T) {
	store := memstore.New()
	referrer, referred := seedPair(t, store)
	svc := referral.NewService(store, store, nil, metrics.New(), decimal.NewFromInt(100))
	ctx := context.Background()

	out, err := svc.CreditOnFirstQualifyingAction(ctx, referred.ID, referral.ActionRegistration, admin)
	require.NoError(t, err)
	assert.True(t, out.Credited)
	assert.Equal(t, referrer.ID, out.ReferrerID)

	out, err = svc.CreditOnFirstQualifyingAction(ctx, referred.ID, referral.ActionJobApplication, admin)
	require.NoError(t, err)
	assert.False(t, out.Credited)

	w, err := store.GetWorker(ctx, referrer.ID)
	require.NoError(t, err)
	assert.True(t, w.WalletBalance.Equal(decimal.NewFromInt(100)))

	credit, ok, err := store.GetCredit(ctx, referred.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, referral.ActionRegistration, credit.Action)
}

func TestConcurrentQualifyingActionsCreditOnce(t *testing.T) {
	store := memstore.New()
	referrer, referred := seedPair(t, store)
	svc := referral.NewService(store, store, nil, metrics.New(), decimal.NewFromInt(100))

	const callers = 16
	results := make([]referral.Outcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			action := referral.ActionRegistration
			if i%2 == 1 {
				action = referral.ActionJobApplication
			}
			out, err := svc.CreditOnFirstQualifyingAction(context.Background(), referred.ID, action, admin)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	wg.Wait()

	credited := 0
	for _, r := range results {
		if r.Credited {
			credited++
		}
	}
	assert.Equal(t, 1, credited)

	w, err := store.GetWorker(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.True(t, w.WalletBalance.Equal(decimal.NewFromInt(100)), w.WalletBalance.String())
}

func TestNoReferrerIsNotCredited(t *testing.T) {
	store := memstore.New()
	loner, err := store.CreateWorker(context.Background(), directory.Worker{Name: "Solo"})
	require.NoError(t, err)
	svc := referral.NewService(store, store, nil, metrics.New(), decimal.NewFromInt(100))

	out, err := svc.CreditOnFirstQualifyingAction(context.Background(), loner.ID, referral.ActionRegistration, admin)
	require.NoError(t, err)
	assert.False(t, out.Credited)
}

func TestCreditValidation(t *testing.T) {
	store := memstore.New()
	_, referred := seedPair(t, store)
	svc := referral.NewService(store, store, nil, metrics.New(), decimal.NewFromInt(100))
	ctx := context.Background()

	_, err := svc.CreditOnFirstQualifyingAction(ctx, referred.ID, "login", admin)
	assert.True(t, errors.Is(err, referral.ErrInvalidAction))

	_, err = svc.CreditOnFirstQualifyingAction(ctx, referred.ID, referral.ActionRegistration, auth.Actor{Role: auth.RoleWorker, WorkerID: "someone-else"})
	assert.True(t, errors.Is(err, referral.ErrForbidden))

	_, err = svc.CreditOnFirstQualifyingAction(ctx, "ghost", referral.ActionRegistration, admin)
	assert.True(t, errors.Is(err, directory.ErrWorkerNotFound))
}
