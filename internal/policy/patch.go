package policy

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidatePatch проверяет патч до применения
func ValidatePatch(patch model.PolicyPatch) error {
	if err := validate.Struct(patch); err != nil {
		return apperr.Validation("invalid policy patch").Wrap(err)
	}
	if patch.Exceptions != nil {
		for i, exc := range *patch.Exceptions {
			if err := ValidateException(exc); err != nil {
				return apperr.Validation("invalid policy exception").Arg("index", i).Wrap(err)
			}
		}
	}
	return nil
}

// ValidateException проверяет согласованность вида исключения и ключа
func ValidateException(exc model.PolicyException) error {
	switch exc.Kind {
	case model.ExceptionClient:
		if exc.ClientID == "" {
			return apperr.Validation("client exception requires client_id")
		}
	case model.ExceptionSessionType:
		if exc.SessionType == "" {
			return apperr.Validation("session-type exception requires session_type")
		}
	case model.ExceptionSituation:
	default:
		return apperr.Validation("unknown exception kind").Arg("kind", exc.Kind)
	}

	if exc.MinimumNoticeHours != nil && *exc.MinimumNoticeHours < 0 {
		return apperr.Validation("override notice hours must not be negative")
	}
	return nil
}

// ApplyPatch возвращает копию cfg с применёнными полями патча.
// Идентификатор, владелец и версия не меняются.
func ApplyPatch(cfg model.PolicyConfig, patch model.PolicyPatch, now time.Time) model.PolicyConfig {
	out := cfg
	out.Exceptions = append([]model.PolicyException(nil), cfg.Exceptions...)

	if patch.Active != nil {
		out.Active = *patch.Active
	}
	if patch.MinimumNoticeHours != nil {
		out.MinimumNoticeHours = *patch.MinimumNoticeHours
	}
	if patch.NoShowPenalty != nil {
		out.NoShowPenalty = *patch.NoShowPenalty
	}
	if patch.NoShowPenaltyKind != nil {
		out.NoShowPenaltyKind = *patch.NoShowPenaltyKind
	}
	if patch.AlertThreshold != nil {
		out.AlertThreshold = *patch.AlertThreshold
	}
	if patch.PenaltyThreshold != nil {
		out.PenaltyThreshold = *patch.PenaltyThreshold
	}
	if patch.AutoMarkNoShow != nil {
		out.AutoMarkNoShow = *patch.AutoMarkNoShow
	}
	if patch.GraceMinutes != nil {
		out.GraceMinutes = *patch.GraceMinutes
	}
	if patch.NotifyOnCreate != nil {
		out.NotifyOnCreate = *patch.NotifyOnCreate
	}
	if patch.PolicyMessage != nil {
		out.PolicyMessage = *patch.PolicyMessage
	}
	if patch.ApplyLateCancellationPenalty != nil {
		out.ApplyLateCancellationPenalty = *patch.ApplyLateCancellationPenalty
	}
	if patch.LateCancellationPenaltyKind != nil {
		out.LateCancellationPenaltyKind = *patch.LateCancellationPenaltyKind
	}
	if patch.Exceptions != nil {
		out.Exceptions = append([]model.PolicyException{}, (*patch.Exceptions)...)
	}

	out.UpdatedAt = now
	return out
}
