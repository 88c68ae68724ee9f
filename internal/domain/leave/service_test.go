package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/domain/leave"
	"payledger/internal/platform/memstore"
)

func TestLeaveLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := leave.NewService(memstore.New())
	start := time.Date(2025, time.April, 28, 15, 0, 0, 0, time.UTC)

	req, err := svc.Create(ctx, leave.CreateInput{WorkerID: "w1", CompanyID: "c1", StartDate: start, EndDate: start.AddDate(0, 0, 4)})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, 5, req.TotalDays)
	assert.Empty(t, req.LeaveType)

	_, err = svc.Approve(ctx, req.ID, "sick")
	assert.True(t, errors.Is(err, leave.ErrInvalidLeaveType))

	approved, err := svc.Approve(ctx, req.ID, "Unpaid")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.True(t, approved.Unpaid())

	_, err = svc.Reject(ctx, req.ID)
	assert.True(t, errors.Is(err, leave.ErrInvalidState))

	list, err := svc.List(ctx, "w1", "c1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	start := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	_, err := leave.NewService(memstore.New()).Create(context.Background(), leave.CreateInput{
		WorkerID: "w1", CompanyID: "c1", StartDate: start, EndDate: start.AddDate(0, 0, -1),
	})
	assert.True(t, errors.Is(err, leave.ErrInvalidRange))
}

func TestDecideMissingLeave(t *testing.T) {
	_, err := leave.NewService(memstore.New()).Reject(context.Background(), "nope")
	assert.True(t, errors.Is(err, leave.ErrRequestNotFound))
}
