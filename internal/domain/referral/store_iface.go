package referral

import (
	"context"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	// ClaimAndCredit inserts the worker's credit marker and, if this call
	// created it and the worker has a referrer, credits the referrer's wallet.
	// Both happen in one transaction; at most one caller per worker ever
	// observes claimed == true.
	ClaimAndCredit(ctx context.Context, workerID, action string, amount decimal.Decimal) (claimed bool, referrerID string, err error)
	GetCredit(ctx context.Context, workerID string) (Credit, bool, error)
}
