package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// AppointmentStore источник истории записей. Реализуется слоем бронирования,
// в этом сервисе это repository.AppointmentRepository.
type AppointmentStore interface {
	GetAppointments(ctx context.Context, ownerID string, window model.Window, filter model.AppointmentFilter) ([]model.Appointment, error)
}

// AppointmentMarker хранилище записей с автопометкой no-show
type AppointmentMarker interface {
	AppointmentStore
	MarkNoShow(ctx context.Context, ownerID string, ids []string, now time.Time) (int64, error)
}

type PolicyStore interface {
	GetByOwner(ctx context.Context, ownerID string) (*model.PolicyConfig, error)
	CreateIfAbsent(ctx context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error)
	Update(ctx context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error)
	ListOwners(ctx context.Context) ([]string, error)
}

type CancellationStore interface {
	Append(ctx context.Context, rec model.CancellationRecord) error
	List(ctx context.Context, ownerID string, window model.Window) ([]model.CancellationRecord, error)
}

type AlertStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.NoShowAlert, error)
	Sync(ctx context.Context, ownerID string, fn func(existing []model.NoShowAlert) ([]model.NoShowAlert, error)) error
}

// PolicyProvider политика владельца, созданная по умолчанию при первом обращении
type PolicyProvider interface {
	GetOrCreateDefaultPolicy(ctx context.Context, ownerID string) (*model.PolicyConfig, error)
}
