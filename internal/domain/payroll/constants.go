package payroll

const (
	ModeCash         = "cash"
	ModeBankTransfer = "bank_transfer"
	ModeUPI          = "upi"
	ModeCheque       = "cheque"
)
