package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/state"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"go.uber.org/zap"
)

type PolicyService interface {
	GetOrCreateDefaultPolicy(ctx context.Context, ownerID string) (*model.PolicyConfig, error)
	UpdatePolicy(ctx context.Context, ownerID string, patch model.PolicyPatch) (*model.PolicyConfig, error)
}

type CancellationService interface {
	EvaluateCancellation(ctx context.Context, appt model.Appointment, cancelledAt time.Time, ownerID string) (model.CancellationVerdict, error)
	RecordCancellation(ctx context.Context, ownerID string, appt model.Appointment, reason model.CancellationReason, note string) (*model.CancellationRecord, error)
	ComplianceStatistics(ctx context.Context, ownerID string, window model.Window) (*model.ComplianceStatistics, error)
}

type StatisticsService interface {
	ComputeAllClientStatistics(ctx context.Context, ownerID string, window model.Window) ([]model.ClientStatistics, error)
	ClientReport(ctx context.Context, ownerID, clientID string, window model.Window) (*model.ClientReport, error)
}

type AlertService interface {
	RefreshAlerts(ctx context.Context, ownerID string, window model.Window) ([]model.NoShowAlert, error)
	ResolveAlert(ctx context.Context, ownerID, alertID string) (*model.NoShowAlert, error)
	ListActive(ctx context.Context, ownerID string) ([]model.NoShowAlert, error)
}

type AppointmentLookup interface {
	GetByID(ctx context.Context, ownerID, id string) (*model.Appointment, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	policies      PolicyService
	cancellations CancellationService
	statistics    StatisticsService
	alerts        AlertService
	appointments  AppointmentLookup
	stateManager  *state.Manager
	windowDays    int
	now           func() time.Time
	logger        *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	policies PolicyService,
	cancellations CancellationService,
	statistics StatisticsService,
	alerts AlertService,
	appointments AppointmentLookup,
	stateManager *state.Manager,
	windowDays int,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		policies:      policies,
		cancellations: cancellations,
		statistics:    statistics,
		alerts:        alerts,
		appointments:  appointments,
		stateManager:  stateManager,
		windowDays:    windowDays,
		now:           time.Now,
		logger:        logger,
	}
}

func (h *Handlers) window() model.Window {
	return model.TrailingWindow(h.now(), h.windowDays)
}
