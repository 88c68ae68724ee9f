// Package audit keeps an append-only trail of who changed money-relevant records.
package audit

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/platform/logger"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Record appends an event. Failures are logged and never reach the caller.
func (s *Service) Record(ctx context.Context, actor auth.Actor, action, entityType, entityID, companyID string, after any) {
	if s == nil || s.Store == nil {
		return
	}
	e := Event{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CompanyID:  companyID,
		RequestID:  logger.RequestID(ctx),
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			logger.FromContext(ctx).Warn("audit payload encode failed", zap.String("action", action), zap.Error(err))
		} else {
			e.After = payload
		}
	}
	if err := s.Store.InsertEvent(ctx, e); err != nil {
		logger.FromContext(ctx).Warn("audit record failed", zap.String("action", action), zap.String("entityId", entityID), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]Event, int, error) {
	return s.Store.ListEvents(ctx, f, limit, offset)
}
