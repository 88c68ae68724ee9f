package leave

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	TypePaid   = "paid"
	TypeUnpaid = "unpaid"
)
