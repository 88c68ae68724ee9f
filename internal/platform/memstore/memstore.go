// Package memstore is an in-process implementation of every domain store,
// selected with STORE_DRIVER=memory and used by service and handler tests.
// A single mutex serialises all operations, which gives the same
// all-or-nothing behaviour the postgres stores get from transactions.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/audit"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/referral"
)

type Store struct {
	mu sync.Mutex

	// Now stamps created and updated times.
	Now func() time.Time

	workers     map[string]directory.Worker
	companies   map[string]directory.Company
	employments map[string]directory.Employment
	contracts   map[string]directory.Contract

	accounts        map[string]advance.Account
	advances        map[string]advance.Request
	advanceArchive  map[string]advance.Request
	leaves          map[string]leave.Request
	liabilities     map[string]liability.Liability
	runs            map[string]payroll.Run
	referralCredits map[string]referral.Credit
	auditEvents     []audit.Event

	seq map[string]int64
	n   int64
}

func New() *Store {
	return &Store{
		Now:             func() time.Time { return time.Now().UTC() },
		workers:         map[string]directory.Worker{},
		companies:       map[string]directory.Company{},
		employments:     map[string]directory.Employment{},
		contracts:       map[string]directory.Contract{},
		accounts:        map[string]advance.Account{},
		advances:        map[string]advance.Request{},
		advanceArchive:  map[string]advance.Request{},
		leaves:          map[string]leave.Request{},
		liabilities:     map[string]liability.Liability{},
		runs:            map[string]payroll.Run{},
		referralCredits: map[string]referral.Credit{},
		seq:             map[string]int64{},
	}
}

func pairKey(workerID, companyID string) string {
	return workerID + "|" + companyID
}

// newID returns a fresh id and remembers its insertion order so equal
// timestamps sort the way rows inserted in sequence would.
func (s *Store) newID() string {
	id := uuid.NewString()
	s.n++
	s.seq[id] = s.n
	return id
}

func (s *Store) before(aID string, a time.Time, bID string, b time.Time) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return s.seq[aID] < s.seq[bID]
}

func (s *Store) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	return nil
}

// ArchivedAdvance reports whether id was moved to the advance archive.
func (s *Store) ArchivedAdvance(id string) (advance.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.advanceArchive[id]
	return r, ok
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func sortedWindow[T any](s *Store, items []T, id func(T) string, at func(T) time.Time, desc bool) []T {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return s.before(id(items[j]), at(items[j]), id(items[i]), at(items[i]))
		}
		return s.before(id(items[i]), at(items[i]), id(items[j]), at(items[j]))
	})
	return items
}
