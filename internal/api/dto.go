package api

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/google/uuid"
)

// EvaluateRequest проверка отмены без записи в журнал
type EvaluateRequest struct {
	AppointmentID string     `json:"appointment_id" validate:"required"`
	CancelledAt   *time.Time `json:"cancelled_at"` // nil = сейчас
}

// CancellationRequest регистрация отмены
type CancellationRequest struct {
	AppointmentID string                   `json:"appointment_id" validate:"required"`
	Reason        model.CancellationReason `json:"reason" validate:"required,oneof=client trainer other"`
	Note          string                   `json:"note" validate:"max=1000"`
}

// ExceptionRequest новое исключение из политики
type ExceptionRequest struct {
	Kind               model.ExceptionKind `json:"kind" validate:"required,oneof=client session-type situation"`
	ClientID           string              `json:"client_id"`
	ClientName         string              `json:"client_name"`
	SessionType        string              `json:"session_type"`
	Active             *bool               `json:"active"` // по умолчанию активно
	MinimumNoticeHours *float64            `json:"minimum_notice_hours" validate:"omitempty,gte=0"`
	WaivePenalty       bool                `json:"waive_penalty"`
	Description        string              `json:"description" validate:"max=500"`
}

func (r ExceptionRequest) toModel() model.PolicyException {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return model.PolicyException{
		Kind:               r.Kind,
		ClientID:           r.ClientID,
		ClientName:         r.ClientName,
		SessionType:        r.SessionType,
		Active:             active,
		MinimumNoticeHours: r.MinimumNoticeHours,
		WaivePenalty:       r.WaivePenalty,
		Description:        r.Description,
	}
}

// RecurrenceRequest предпросмотр серии
type RecurrenceRequest struct {
	Rule            model.RecurrenceRule `json:"rule"`
	DurationMinutes int                  `json:"duration_minutes" validate:"required,gt=0,lte=1440"`
}

type RecurrenceResponse struct {
	SeriesID  uuid.UUID        `json:"series_id"`
	Count     int              `json:"count"`
	Instances []model.Instance `json:"instances"`
}
