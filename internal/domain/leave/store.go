package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const leaveColumns = `id, worker_id, company_id, start_date, end_date, total_days, leave_type, status, reason, decided_at, created_at`

func scanLeave(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.WorkerID, &r.CompanyID, &r.StartDate, &r.EndDate, &r.TotalDays, &r.LeaveType, &r.Status, &r.Reason, &r.DecidedAt, &r.CreatedAt)
	return r, err
}

func (s *Store) CreateLeave(ctx context.Context, req Request) (Request, error) {
	return scanLeave(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (worker_id, company_id, start_date, end_date, total_days, status, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+leaveColumns,
		req.WorkerID, req.CompanyID, req.StartDate, req.EndDate, req.TotalDays, StatusPending, req.Reason))
}

func (s *Store) GetLeave(ctx context.Context, id string) (Request, error) {
	r, err := scanLeave(s.DB.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

// GetLeaves returns the subset of ids that exist, keyed by id.
func (s *Store) GetLeaves(ctx context.Context, ids []string) (map[string]Request, error) {
	out := make(map[string]Request, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

func (s *Store) ListLeaves(ctx context.Context, workerID, companyID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+leaveColumns+`
    FROM leave_requests
    WHERE worker_id = $1 AND company_id = $2
    ORDER BY created_at DESC, seq DESC
  `, workerID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DecideLeave moves a pending request to status; a non-pending request is left untouched.
func (s *Store) DecideLeave(ctx context.Context, id, status, leaveType string, at time.Time) (Request, error) {
	r, err := scanLeave(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, leave_type = $3, decided_at = $4
    WHERE id = $1 AND status = $5
    RETURNING `+leaveColumns, id, status, leaveType, at, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetLeave(ctx, id); getErr != nil {
			return Request{}, getErr
		}
		return Request{}, ErrInvalidState
	}
	return r, err
}
