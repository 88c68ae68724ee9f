package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
)

type fixedEmployer map[string]string

func (f fixedEmployer) ActiveEmployerFor(_ context.Context, workerID string) (string, error) {
	if id, ok := f[workerID]; ok {
		return id, nil
	}
	return "", directory.ErrNoActiveEmployer
}

func TestResolveEmployer(t *testing.T) {
	ctx := context.Background()
	dir := fixedEmployer{"w1": "c1"}
	worker := auth.Actor{ID: "u", Role: auth.RoleWorker, WorkerID: "w1"}
	employer := auth.Actor{ID: "b", Role: auth.RoleEmployer, CompanyID: "c2"}
	admin := auth.Actor{ID: "a", Role: auth.RoleAdmin}

	got, err := ResolveEmployer(ctx, dir, worker, "w1", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", got)

	_, err = ResolveEmployer(ctx, dir, worker, "w2", "")
	assert.True(t, errors.Is(err, ErrForbidden))

	got, err = ResolveEmployer(ctx, dir, employer, "w1", "")
	require.NoError(t, err)
	assert.Equal(t, "c2", got)

	_, err = ResolveEmployer(ctx, dir, employer, "w1", "c1")
	assert.True(t, errors.Is(err, ErrForbidden))

	got, err = ResolveEmployer(ctx, dir, admin, "w1", " c9 ")
	require.NoError(t, err)
	assert.Equal(t, "c9", got)

	_, err = ResolveEmployer(ctx, dir, admin, "ghost", "")
	assert.True(t, errors.Is(err, directory.ErrNoActiveEmployer))
}
