// Package policy evaluates cancellations against an owner's cancellation policy.
//
// Everything here is pure: configuration and appointments come in as plain
// values, verdicts and statistics go out. Persistence and locking live in the
// service layer.
package policy

import "github.com/Freeeeeet/trainer_scheduler/internal/model"

const (
	DefaultMinimumNoticeHours = 24
	DefaultAlertThreshold     = 2
	DefaultPenaltyThreshold   = 3
	DefaultGraceMinutes       = 15
	DefaultPolicyMessage      = "Reminder: please cancel at least 24 hours in advance to avoid penalties."
)

// Defaults значения, из которых создаётся политика нового владельца
type Defaults struct {
	MinimumNoticeHours float64           `yaml:"minimum_notice_hours" validate:"gte=0,lte=720"`
	AlertThreshold     int               `yaml:"alert_threshold" validate:"gte=1"`
	PenaltyThreshold   int               `yaml:"penalty_threshold" validate:"gte=1"`
	GraceMinutes       int               `yaml:"grace_minutes" validate:"gte=0,lte=1440"`
	NoShowPenaltyKind  model.PenaltyKind `yaml:"no_show_penalty_kind" validate:"oneof=warning charge block"`
	LatePenaltyKind    model.PenaltyKind `yaml:"late_cancellation_penalty_kind" validate:"oneof=warning charge block"`
	PolicyMessage      string            `yaml:"policy_message" validate:"max=1000"`
}

// BuiltinDefaults значения по умолчанию без файла настроек
func BuiltinDefaults() Defaults {
	return Defaults{
		MinimumNoticeHours: DefaultMinimumNoticeHours,
		AlertThreshold:     DefaultAlertThreshold,
		PenaltyThreshold:   DefaultPenaltyThreshold,
		GraceMinutes:       DefaultGraceMinutes,
		NoShowPenaltyKind:  model.PenaltyWarning,
		LatePenaltyKind:    model.PenaltyWarning,
		PolicyMessage:      DefaultPolicyMessage,
	}
}

// NewConfig материализует политику по умолчанию для владельца
func (d Defaults) NewConfig(ownerID string) model.PolicyConfig {
	return model.PolicyConfig{
		OwnerID:                      ownerID,
		Active:                       true,
		MinimumNoticeHours:           d.MinimumNoticeHours,
		NoShowPenalty:                true,
		NoShowPenaltyKind:            d.NoShowPenaltyKind,
		AlertThreshold:               d.AlertThreshold,
		PenaltyThreshold:             d.PenaltyThreshold,
		AutoMarkNoShow:               false,
		GraceMinutes:                 d.GraceMinutes,
		NotifyOnCreate:               true,
		PolicyMessage:                d.PolicyMessage,
		ApplyLateCancellationPenalty: true,
		LateCancellationPenaltyKind:  d.LatePenaltyKind,
		Exceptions:                   []model.PolicyException{},
	}
}

// AlertThreshold порог алерта с подстановкой значения по умолчанию
func AlertThreshold(cfg model.PolicyConfig) int {
	if cfg.AlertThreshold <= 0 {
		return DefaultAlertThreshold
	}
	return cfg.AlertThreshold
}

// PenaltyThreshold порог критического алерта с подстановкой значения по умолчанию
func PenaltyThreshold(cfg model.PolicyConfig) int {
	if cfg.PenaltyThreshold <= 0 {
		return DefaultPenaltyThreshold
	}
	return cfg.PenaltyThreshold
}
