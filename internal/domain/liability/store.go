package liability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"payledger/internal/domain/period"
	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const liabilityColumns = `id, worker_id, company_id, type, item_name, amount, photo, COALESCE(leave_request_id::text, ''),
  status, created_by, created_at, updated_at`

func scanLiability(row pgx.Row) (Liability, error) {
	var l Liability
	err := row.Scan(&l.ID, &l.WorkerID, &l.CompanyID, &l.Type, &l.ItemName, &l.Amount, &l.Photo, &l.LeaveRequestID,
		&l.Status, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (s *Store) CreateLiability(ctx context.Context, l Liability) (Liability, error) {
	return scanLiability(s.DB.QueryRow(ctx, `
    INSERT INTO liabilities (worker_id, company_id, type, item_name, amount, photo, leave_request_id, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+liabilityColumns,
		l.WorkerID, l.CompanyID, l.Type, l.ItemName, l.Amount, l.Photo, nullable(l.LeaveRequestID), StatusPending, l.CreatedBy))
}

func (s *Store) GetLiability(ctx context.Context, id string) (Liability, error) {
	l, err := scanLiability(s.DB.QueryRow(ctx, `SELECT `+liabilityColumns+` FROM liabilities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Liability{}, ErrNotFound
	}
	return l, err
}

func (s *Store) ListLiabilities(ctx context.Context, workerID, companyID string) ([]Liability, error) {
	return s.list(ctx, `
    SELECT `+liabilityColumns+`
    FROM liabilities
    WHERE worker_id = $1 AND company_id = $2
    ORDER BY created_at DESC, seq DESC
  `, workerID, companyID)
}

func (s *Store) ListAccepted(ctx context.Context, workerID, companyID string, window period.Window) ([]Liability, error) {
	from, to := window.Bounds()
	return s.list(ctx, `
    SELECT `+liabilityColumns+`
    FROM liabilities
    WHERE worker_id = $1 AND company_id = $2 AND status = $3
      AND ($4::timestamptz IS NULL OR created_at >= $4)
      AND ($5::timestamptz IS NULL OR created_at < $5)
    ORDER BY created_at, seq
  `, workerID, companyID, StatusAccepted, from, to)
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]Liability, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Liability
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (Liability, error) {
	l, err := scanLiability(s.DB.QueryRow(ctx, `
    UPDATE liabilities
    SET status = $3, updated_at = $4
    WHERE id = $1 AND status = $2
    RETURNING `+liabilityColumns, id, from, to, at))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetLiability(ctx, id); getErr != nil {
			return Liability{}, getErr
		}
		return Liability{}, ErrInvalidTransition
	}
	return l, err
}
