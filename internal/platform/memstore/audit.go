package memstore

import (
	"context"
	"slices"

	"payledger/internal/domain/audit"
)

var _ audit.StoreAPI = (*Store)(nil)

func (s *Store) InsertEvent(ctx context.Context, e audit.Event) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	e.ID = s.newID()
	e.CreatedAt = s.Now()
	e.After = slices.Clone(e.After)
	s.auditEvents = append(s.auditEvents, e)
	return nil
}

// List returns matching events newest first.
func (s *Store) ListEvents(ctx context.Context, f audit.Filter, limit, offset int) ([]audit.Event, int, error) {
	if err := s.lock(ctx); err != nil {
		return nil, 0, err
	}
	defer s.mu.Unlock()
	var matched []audit.Event
	for i := len(s.auditEvents) - 1; i >= 0; i-- {
		if f.Match(s.auditEvents[i]) {
			matched = append(matched, s.auditEvents[i])
		}
	}
	total := len(matched)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return slices.Clone(matched[start:end]), total, nil
}
