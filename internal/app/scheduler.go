package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"go.uber.org/zap"
)

// autoNoShowInterval как часто проверяем просроченные записи
const autoNoShowInterval = 5 * time.Minute

type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

type AlertRefresher interface {
	RefreshAlerts(ctx context.Context, ownerID string, window model.Window) ([]model.NoShowAlert, error)
}

type NoShowMarker interface {
	MarkOverdue(ctx context.Context, ownerID string) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	owners          OwnerLister
	alerts          AlertRefresher
	marker          NoShowMarker
	refreshInterval time.Duration
	windowDays      int
	logger          *zap.Logger
	stopChan        chan struct{}
	now             func() time.Time
}

// NewScheduler создаёт новый планировщик
func NewScheduler(owners OwnerLister, alerts AlertRefresher, marker NoShowMarker, refreshInterval time.Duration, windowDays int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		owners:          owners,
		alerts:          alerts,
		marker:          marker,
		refreshInterval: refreshInterval,
		windowDays:      windowDays,
		logger:          logger,
		stopChan:        make(chan struct{}),
		now:             time.Now,
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("alert_refresh_interval", s.refreshInterval),
		zap.Int("alert_window_days", s.windowDays),
	)

	go s.runPeriodic(ctx, "alert refresh", s.refreshInterval, s.refreshAlerts)
	go s.runPeriodic(ctx, "auto no-show", autoNoShowInterval, s.markOverdue)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runPeriodic(ctx context.Context, name string, every time.Duration, task func(context.Context)) {
	// Первый запуск сразу при старте
	task(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

// refreshAlerts пересчитывает алерты всех владельцев; ошибка одного не останавливает остальных
func (s *Scheduler) refreshAlerts(ctx context.Context) {
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		s.logger.Error("Failed to list owners for alert refresh", zap.Error(err))
		return
	}

	window := model.TrailingWindow(s.now(), s.windowDays)
	var failed int
	for _, ownerID := range owners {
		if _, err := s.alerts.RefreshAlerts(ctx, ownerID, window); err != nil {
			failed++
			s.logger.Error("Failed to refresh alerts",
				zap.String("owner_id", ownerID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Alert refresh completed",
		zap.Int("owners", len(owners)),
		zap.Int("failed", failed),
	)
}

func (s *Scheduler) markOverdue(ctx context.Context) {
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		s.logger.Error("Failed to list owners for auto no-show", zap.Error(err))
		return
	}

	var total int64
	for _, ownerID := range owners {
		marked, err := s.marker.MarkOverdue(ctx, ownerID)
		if err != nil {
			s.logger.Error("Failed to mark overdue appointments",
				zap.String("owner_id", ownerID),
				zap.Error(err),
			)
			continue
		}
		total += marked
	}

	if total > 0 {
		s.logger.Info("Auto no-show pass completed", zap.Int64("marked", total))
	}
}
