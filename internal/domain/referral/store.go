package referral

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"payledger/internal/domain/directory"
	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ClaimAndCredit(ctx context.Context, workerID, action string, amount decimal.Decimal) (bool, string, error) {
	var claimed bool
	var referrer string
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var referrerID *string
		err := tx.QueryRow(ctx, `SELECT referrer_id FROM workers WHERE id = $1`, workerID).Scan(&referrerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.ErrWorkerNotFound
		}
		if err != nil {
			return err
		}

		credited := decimal.Zero
		if referrerID != nil {
			credited = amount
		}
		tag, err := tx.Exec(ctx, `
      INSERT INTO referral_credits (worker_id, referrer_id, action, amount)
      VALUES ($1,$2,$3,$4)
      ON CONFLICT (worker_id) DO NOTHING
    `, workerID, referrerID, action, credited)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 || referrerID == nil {
			return nil
		}

		if _, err := tx.Exec(ctx, `
      UPDATE workers SET wallet_balance = wallet_balance + $2 WHERE id = $1
    `, *referrerID, amount); err != nil {
			return err
		}
		claimed = true
		referrer = *referrerID
		return nil
	})
	if err != nil {
		return false, "", err
	}
	return claimed, referrer, nil
}

func (s *Store) GetCredit(ctx context.Context, workerID string) (Credit, bool, error) {
	var c Credit
	err := s.DB.QueryRow(ctx, `
    SELECT worker_id, referrer_id, action, amount, created_at
    FROM referral_credits
    WHERE worker_id = $1
  `, workerID).Scan(&c.WorkerID, &c.ReferrerID, &c.Action, &c.Amount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credit{}, false, nil
	}
	if err != nil {
		return Credit{}, false, err
	}
	return c, true, nil
}
