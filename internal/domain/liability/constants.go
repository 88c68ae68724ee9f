package liability

const (
	TypeItem  = "item"
	TypeLeave = "leave"

	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusDispute  = "dispute"
)
