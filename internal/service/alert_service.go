package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/lock"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/noshow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const alertLockScope = "alerts"

var changeEventTypes = map[noshow.ChangeKind]string{
	noshow.AlertActivated: events.TypeAlertActivated,
	noshow.AlertUpdated:   events.TypeAlertUpdated,
	noshow.AlertResolved:  events.TypeAlertResolved,
}

type AlertService struct {
	policies     PolicyProvider
	appointments AppointmentStore
	store        AlertStore
	locker       lock.Locker
	publisher    events.Publisher
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

func NewAlertService(policies PolicyProvider, appointments AppointmentStore, store AlertStore, locker lock.Locker, publisher events.Publisher, logger *zap.Logger) *AlertService {
	return &AlertService{
		policies:     policies,
		appointments: appointments,
		store:        store,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// RefreshAlerts пересчитывает алерты владельца по статистике за окно и возвращает активные.
// Повторный вызов без новых данных ничего не меняет.
func (s *AlertService) RefreshAlerts(ctx context.Context, ownerID string, window model.Window) (active []model.NoShowAlert, err error) {
	ctx, span := startSpan(ctx, "AlertService.RefreshAlerts", ownerID)
	defer func() { finishSpan(span, err) }()

	unlock, err := s.locker.Lock(ctx, lock.OwnerKey(alertLockScope, ownerID))
	if err != nil {
		return nil, fmt.Errorf("lock alerts: %w", err)
	}
	defer unlock()

	cfg, err := s.policies.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}

	appts, err := s.appointments.GetAppointments(ctx, ownerID, window, model.AppointmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}

	thresholds := noshow.Thresholds{Alert: cfg.AlertThreshold, Penalty: cfg.PenaltyThreshold}
	stats := noshow.Aggregate(appts, window, cfg.AlertThreshold)
	now := s.now()

	var changes []noshow.AlertChange
	err = s.store.Sync(ctx, ownerID, func(existing []model.NoShowAlert) ([]model.NoShowAlert, error) {
		book := noshow.NewAlertBook(ownerID, existing)
		changes, active = book.Reconcile(stats, thresholds, now, s.newID)

		changed := make([]model.NoShowAlert, 0, len(changes))
		for _, c := range changes {
			changed = append(changed, c.Alert)
		}
		return changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync alerts: %w", err)
	}

	span.SetAttributes(
		attribute.Int("alerts.active", len(active)),
		attribute.Int("alerts.changed", len(changes)),
	)

	if len(changes) > 0 {
		s.logger.Info("No-show alerts refreshed",
			zap.String("owner_id", ownerID),
			zap.Int("active", len(active)),
			zap.Int("changed", len(changes)),
		)
	}

	evs := make([]events.Event, 0, len(changes))
	for _, c := range changes {
		evs = append(evs, events.New(changeEventTypes[c.Kind], ownerID, c.Alert.Client.ID, now, c.Alert))
	}
	unlock()
	publish(ctx, s.publisher, s.logger, evs...)

	return active, nil
}

// ResolveAlert принудительно деактивирует алерт. Следующий пересчёт может активировать его снова.
func (s *AlertService) ResolveAlert(ctx context.Context, ownerID, alertID string) (alert *model.NoShowAlert, err error) {
	ctx, span := startSpan(ctx, "AlertService.ResolveAlert", ownerID, attribute.String("alert.id", alertID))
	defer func() { finishSpan(span, err) }()

	unlock, err := s.locker.Lock(ctx, lock.OwnerKey(alertLockScope, ownerID))
	if err != nil {
		return nil, fmt.Errorf("lock alerts: %w", err)
	}
	defer unlock()

	now := s.now()
	var resolved bool
	err = s.store.Sync(ctx, ownerID, func(existing []model.NoShowAlert) ([]model.NoShowAlert, error) {
		book := noshow.NewAlertBook(ownerID, existing)
		found, ok := book.FindByID(alertID)
		if !ok {
			return nil, apperr.NotFound("alert not found").Arg("alert_id", alertID)
		}
		alert = &found
		if !found.Active {
			return nil, nil
		}

		updated, _ := book.Resolve(found.Client.ID, now)
		alert = &updated
		resolved = true
		return []model.NoShowAlert{updated}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	if !resolved {
		return alert, nil
	}

	s.logger.Info("No-show alert resolved",
		zap.String("owner_id", ownerID),
		zap.String("alert_id", alertID),
		zap.String("client_id", alert.Client.ID),
	)

	unlock()
	publish(ctx, s.publisher, s.logger, events.New(events.TypeAlertResolved, ownerID, alert.Client.ID, now, alert))

	return alert, nil
}

// ListActive активные алерты владельца без пересчёта
func (s *AlertService) ListActive(ctx context.Context, ownerID string) (active []model.NoShowAlert, err error) {
	ctx, span := startSpan(ctx, "AlertService.ListActive", ownerID)
	defer func() { finishSpan(span, err) }()

	all, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	return noshow.NewAlertBook(ownerID, all).Active(), nil
}
