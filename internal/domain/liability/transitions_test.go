package liability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"payledger/internal/domain/auth"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		role, from, to string
		want           bool
	}{
		{auth.RoleWorker, StatusPending, StatusAccepted, true},
		{auth.RoleWorker, StatusPending, StatusDispute, true},
		{auth.RoleWorker, StatusDispute, StatusAccepted, false},
		{auth.RoleEmployer, StatusPending, StatusRejected, true},
		{auth.RoleEmployer, StatusPending, StatusAccepted, false},
		{auth.RoleAdmin, StatusDispute, StatusAccepted, true},
		{auth.RoleAdmin, StatusDispute, StatusPending, false},
		{auth.RoleAdmin, StatusAccepted, StatusRejected, false},
		{"guest", StatusPending, StatusAccepted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.role, tc.from, tc.to), "%s %s->%s", tc.role, tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for role := range transitions {
		for _, status := range []string{StatusAccepted, StatusRejected} {
			assert.Empty(t, transitions[role][status], "%s from %s", role, status)
			assert.True(t, Terminal(status))
		}
	}
	assert.False(t, Terminal(StatusDispute))
}
