package model

import "time"

type PenaltyKind string

const (
	PenaltyNone    PenaltyKind = "none"
	PenaltyWarning PenaltyKind = "warning"
	PenaltyCharge  PenaltyKind = "charge"
	PenaltyBlock   PenaltyKind = "block"
)

type ExceptionKind string

const (
	ExceptionClient      ExceptionKind = "client"       // Конкретный клиент
	ExceptionSessionType ExceptionKind = "session-type" // Тип сессии
	ExceptionSituation   ExceptionKind = "situation"    // Общая ситуация, совпадает всегда
)

// PolicyException исключение из политики отмены.
// Приоритета нет: применяется первое подходящее исключение в списке.
type PolicyException struct {
	ID                 string        `json:"id"`
	Kind               ExceptionKind `json:"kind"`
	ClientID           string        `json:"client_id,omitempty"`
	ClientName         string        `json:"client_name,omitempty"`
	SessionType        string        `json:"session_type,omitempty"`
	Active             bool          `json:"active"`
	MinimumNoticeHours *float64      `json:"minimum_notice_hours,omitempty"` // nil = берём из политики
	WaivePenalty       bool          `json:"waive_penalty"`
	Description        string        `json:"description,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// PolicyConfig политика отмены и no-show, одна на владельца (тренера или зал)
type PolicyConfig struct {
	ID                           string            `json:"id"`
	OwnerID                      string            `json:"owner_id"`
	Active                       bool              `json:"active"`
	MinimumNoticeHours           float64           `json:"minimum_notice_hours"`
	NoShowPenalty                bool              `json:"no_show_penalty"`
	NoShowPenaltyKind            PenaltyKind       `json:"no_show_penalty_kind"`
	AlertThreshold               int               `json:"alert_threshold"`   // no-show до алерта
	PenaltyThreshold             int               `json:"penalty_threshold"` // no-show до штрафа
	AutoMarkNoShow               bool              `json:"auto_mark_no_show"`
	GraceMinutes                 int               `json:"grace_minutes"`
	NotifyOnCreate               bool              `json:"notify_on_create"`
	PolicyMessage                string            `json:"policy_message"`
	ApplyLateCancellationPenalty bool              `json:"apply_late_cancellation_penalty"`
	LateCancellationPenaltyKind  PenaltyKind       `json:"late_cancellation_penalty_kind"`
	Exceptions                   []PolicyException `json:"exceptions"`
	Version                      int64             `json:"version"`
	CreatedAt                    time.Time         `json:"created_at"`
	UpdatedAt                    time.Time         `json:"updated_at"`
}

// PolicyPatch частичное обновление политики. nil означает "не менять".
type PolicyPatch struct {
	Active                       *bool              `json:"active"`
	MinimumNoticeHours           *float64           `json:"minimum_notice_hours" validate:"omitempty,gte=0,lte=720"`
	NoShowPenalty                *bool              `json:"no_show_penalty"`
	NoShowPenaltyKind            *PenaltyKind       `json:"no_show_penalty_kind" validate:"omitempty,oneof=warning charge block"`
	AlertThreshold               *int               `json:"alert_threshold" validate:"omitempty,gte=1"`
	PenaltyThreshold             *int               `json:"penalty_threshold" validate:"omitempty,gte=1"`
	AutoMarkNoShow               *bool              `json:"auto_mark_no_show"`
	GraceMinutes                 *int               `json:"grace_minutes" validate:"omitempty,gte=0,lte=1440"`
	NotifyOnCreate               *bool              `json:"notify_on_create"`
	PolicyMessage                *string            `json:"policy_message" validate:"omitempty,max=1000"`
	ApplyLateCancellationPenalty *bool              `json:"apply_late_cancellation_penalty"`
	LateCancellationPenaltyKind  *PenaltyKind       `json:"late_cancellation_penalty_kind" validate:"omitempty,oneof=warning charge block"`
	Exceptions                   *[]PolicyException `json:"exceptions"`
}

// CancellationVerdict результат проверки отмены
type CancellationVerdict struct {
	IsLate              bool        `json:"is_late"`
	NoticeHours         float64     `json:"notice_hours"` // не меньше нуля
	RequiredNoticeHours float64     `json:"required_notice_hours"`
	Penalty             PenaltyKind `json:"penalty"`
	MatchedExceptionID  *string     `json:"matched_exception_id"`
}
