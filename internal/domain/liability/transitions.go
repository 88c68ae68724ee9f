package liability

import "payledger/internal/domain/auth"

// transitions lists, per role, the statuses reachable from each status.
// Accepted and rejected are terminal; dispute only leaves through an admin.
var transitions = map[string]map[string][]string{
	auth.RoleWorker: {
		StatusPending: {StatusAccepted, StatusRejected, StatusDispute},
	},
	auth.RoleEmployer: {
		StatusPending: {StatusRejected},
	},
	auth.RoleAdmin: {
		StatusPending: {StatusAccepted, StatusRejected, StatusDispute},
		StatusDispute: {StatusAccepted, StatusRejected},
	},
}

func CanTransition(role, from, to string) bool {
	for _, candidate := range transitions[role][from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func Terminal(status string) bool {
	return status == StatusAccepted || status == StatusRejected
}
