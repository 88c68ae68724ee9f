package referral

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/notifications"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/metrics"
)

type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Notify    Notifier
	Metrics   *metrics.Collector
	Amount    decimal.Decimal
}

func NewService(store StoreAPI, dir Directory, notify Notifier, collector *metrics.Collector, amount decimal.Decimal) *Service {
	return &Service{Store: store, Directory: dir, Notify: notify, Metrics: collector, Amount: amount}
}

// CreditOnFirstQualifyingAction credits the worker's referrer exactly once,
// on whichever qualifying action is observed first.
func (s *Service) CreditOnFirstQualifyingAction(ctx context.Context, workerID, action string, actor auth.Actor) (Outcome, error) {
	if !ValidAction(action) {
		return Outcome{}, ErrInvalidAction
	}
	if !actor.CanActForWorker(workerID) {
		return Outcome{}, ErrForbidden
	}

	claimed, referrerID, err := s.Store.ClaimAndCredit(ctx, workerID, action, s.Amount)
	if err != nil {
		s.Metrics.ReferralCredit("error")
		return Outcome{}, err
	}
	if !claimed {
		s.Metrics.ReferralCredit("skipped")
		return Outcome{Credited: false, Reason: "already_processed_or_no_referrer"}, nil
	}

	s.Metrics.ReferralCredit("credited")
	logger.FromContext(ctx).Info("referral credited",
		zap.String("workerId", workerID), zap.String("referrerId", referrerID), zap.String("action", action))

	if s.Notify != nil {
		if referrer, err := s.Directory.GetWorker(ctx, referrerID); err == nil {
			s.Notify.Notify(ctx, notifications.Message{
				Token: referrer.PushToken,
				Kind:  notifications.KindReferralCredited,
				Title: "Referral reward",
				Body:  fmt.Sprintf("%s was added to your wallet", s.Amount.StringFixed(2)),
				Data:  map[string]string{"workerId": workerID},
			})
		}
	}
	return Outcome{Credited: true, ReferrerID: referrerID}, nil
}
