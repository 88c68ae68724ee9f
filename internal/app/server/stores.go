package server

import (
	"context"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/audit"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/referral"
	"payledger/internal/platform/db"
	"payledger/internal/platform/memstore"
	"payledger/internal/transport/http/middleware"
)

// Stores is the persistence layer behind every service. Both drivers fill
// every field.
type Stores struct {
	Directory   directory.StoreAPI
	Advances    advance.StoreAPI
	Leaves      leave.StoreAPI
	Liabilities liability.StoreAPI
	Payroll     payroll.StoreAPI
	Referrals   referral.StoreAPI
	Audit       audit.StoreAPI
	Idempotency middleware.IdempotencyStore

	// Ping reports readiness; nil means always ready.
	Ping func(ctx context.Context) error
}

func PostgresStores(pool *db.Pool) Stores {
	return Stores{
		Directory:   directory.NewStore(pool),
		Advances:    advance.NewStore(pool),
		Leaves:      leave.NewStore(pool),
		Liabilities: liability.NewStore(pool),
		Payroll:     payroll.NewStore(pool),
		Referrals:   referral.NewStore(pool),
		Audit:       audit.NewStore(pool),
		Idempotency: middleware.NewPGIdempotencyStore(pool),
		Ping:        pool.Ping,
	}
}

func MemoryStores(store *memstore.Store) Stores {
	return Stores{
		Directory:   store,
		Advances:    store,
		Leaves:      store,
		Liabilities: store,
		Payroll:     store,
		Referrals:   store,
		Audit:       store,
		Idempotency: middleware.NewMemoryIdempotencyStore(),
	}
}
