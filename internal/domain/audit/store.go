package audit

import (
	"context"
	"fmt"

	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InsertEvent(ctx context.Context, e Event) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, actor_role, action, entity_type, entity_id, company_id, request_id, after_json)
    VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8)
  `, e.ActorID, e.ActorRole, e.Action, e.EntityType, e.EntityID, e.CompanyID, e.RequestID, []byte(e.After))
	return err
}

func (s *Store) ListEvents(ctx context.Context, f Filter, limit, offset int) ([]Event, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, actor_id, actor_role, action, entity_type, entity_id, COALESCE(company_id, ''), request_id, after_json, created_at
    FROM audit_events` + where + fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var after []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID, &e.CompanyID, &e.RequestID, &after, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.After = after
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func buildFilter(f Filter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	add("action", f.Action)
	add("entity_type", f.EntityType)
	add("actor_id", f.ActorID)
	add("company_id", f.CompanyID)
	return where, args
}
