package policy

import (
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)

func hours(h float64) *float64 { return &h }

func defaultConfig() model.PolicyConfig {
	return BuiltinDefaults().NewConfig("owner-1")
}

func appointment(clientID, sessionType string) model.Appointment {
	return model.Appointment{
		ID:          "appt-1",
		OwnerID:     "owner-1",
		Client:      model.ClientRef{ID: clientID, Name: "Client " + clientID},
		StartTime:   sessionStart,
		EndTime:     sessionStart.Add(time.Hour),
		Status:      model.AppointmentStatusScheduled,
		SessionType: sessionType,
	}
}

func TestEvaluateTwentyHoursNoticeIsLate(t *testing.T) {
	cfg := defaultConfig()
	cfg.LateCancellationPenaltyKind = model.PenaltyCharge

	v := Evaluate(cfg, cfg.Exceptions, appointment("c-1", "personal"), sessionStart.Add(-20*time.Hour))

	assert.True(t, v.IsLate)
	assert.InDelta(t, 20, v.NoticeHours, 1e-9)
	assert.Equal(t, float64(24), v.RequiredNoticeHours)
	assert.Equal(t, model.PenaltyCharge, v.Penalty)
	assert.Nil(t, v.MatchedExceptionID)
}

func TestEvaluateBoundary(t *testing.T) {
	cfg := defaultConfig()
	appt := appointment("c-1", "personal")

	exact := Evaluate(cfg, nil, appt, sessionStart.Add(-24*time.Hour))
	assert.False(t, exact.IsLate, "exactly the minimum notice is on time")
	assert.Equal(t, model.PenaltyNone, exact.Penalty)

	inside := Evaluate(cfg, nil, appt, sessionStart.Add(-24*time.Hour+time.Second))
	assert.True(t, inside.IsLate, "one second inside the window is late")
	assert.Equal(t, model.PenaltyWarning, inside.Penalty)
}

func TestEvaluateInactivePolicyIsNeverLate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Active = false

	for _, cancelledAt := range []time.Time{
		sessionStart.Add(-48 * time.Hour),
		sessionStart.Add(-time.Minute),
		sessionStart.Add(2 * time.Hour),
	} {
		v := Evaluate(cfg, nil, appointment("c-1", "personal"), cancelledAt)
		assert.False(t, v.IsLate)
		assert.Equal(t, model.PenaltyNone, v.Penalty)
		assert.Nil(t, v.MatchedExceptionID)
	}
}

func TestEvaluateAfterStartClampsNotice(t *testing.T) {
	v := Evaluate(defaultConfig(), nil, appointment("c-1", "personal"), sessionStart.Add(30*time.Minute))

	assert.True(t, v.IsLate)
	assert.Equal(t, float64(0), v.NoticeHours)
}

func TestEvaluateExceptionOverride(t *testing.T) {
	cfg := defaultConfig()
	exceptions := []model.PolicyException{
		{ID: "exc-vip", Kind: model.ExceptionClient, ClientID: "c-1", Active: true, MinimumNoticeHours: hours(2)},
	}

	v := Evaluate(cfg, exceptions, appointment("c-1", "personal"), sessionStart.Add(-3*time.Hour))
	assert.False(t, v.IsLate)
	assert.Equal(t, float64(2), v.RequiredNoticeHours)
	require.NotNil(t, v.MatchedExceptionID)
	assert.Equal(t, "exc-vip", *v.MatchedExceptionID)

	other := Evaluate(cfg, exceptions, appointment("c-2", "personal"), sessionStart.Add(-3*time.Hour))
	assert.True(t, other.IsLate)
	assert.Nil(t, other.MatchedExceptionID)
}

func TestEvaluateZeroOverrideIsUsed(t *testing.T) {
	exceptions := []model.PolicyException{
		{ID: "exc-zero", Kind: model.ExceptionSessionType, SessionType: "online", Active: true, MinimumNoticeHours: hours(0)},
	}

	v := Evaluate(defaultConfig(), exceptions, appointment("c-1", "online"), sessionStart.Add(-time.Minute))
	assert.False(t, v.IsLate)
	assert.Equal(t, float64(0), v.RequiredNoticeHours)
}

func TestEvaluateWaiverKeepsLateFlag(t *testing.T) {
	exceptions := []model.PolicyException{
		{ID: "exc-waive", Kind: model.ExceptionSituation, Active: true, WaivePenalty: true},
	}

	v := Evaluate(defaultConfig(), exceptions, appointment("c-1", "personal"), sessionStart.Add(-time.Hour))
	assert.True(t, v.IsLate)
	assert.Equal(t, model.PenaltyNone, v.Penalty)
	require.NotNil(t, v.MatchedExceptionID)
	assert.Equal(t, "exc-waive", *v.MatchedExceptionID)
}

func TestEvaluateLatePenaltyDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.ApplyLateCancellationPenalty = false

	v := Evaluate(cfg, nil, appointment("c-1", "personal"), sessionStart.Add(-time.Hour))
	assert.True(t, v.IsLate)
	assert.Equal(t, model.PenaltyNone, v.Penalty)
}

func TestEvaluateUnsetPenaltyKindFallsBackToWarning(t *testing.T) {
	cfg := defaultConfig()
	cfg.LateCancellationPenaltyKind = ""

	v := Evaluate(cfg, nil, appointment("c-1", "personal"), sessionStart.Add(-time.Hour))
	assert.Equal(t, model.PenaltyWarning, v.Penalty)
}

func TestMatchExceptionFirstMatchWins(t *testing.T) {
	client := model.PolicyException{ID: "client", Kind: model.ExceptionClient, ClientID: "c-1", Active: true, MinimumNoticeHours: hours(1)}
	session := model.PolicyException{ID: "session", Kind: model.ExceptionSessionType, SessionType: "group", Active: true, MinimumNoticeHours: hours(12)}
	appt := appointment("c-1", "group")

	got := MatchException([]model.PolicyException{client, session}, appt)
	require.NotNil(t, got)
	assert.Equal(t, "client", got.ID)

	got = MatchException([]model.PolicyException{session, client}, appt)
	require.NotNil(t, got)
	assert.Equal(t, "session", got.ID)

	cancelledAt := sessionStart.Add(-6 * time.Hour)
	assert.False(t, Evaluate(defaultConfig(), []model.PolicyException{client, session}, appt, cancelledAt).IsLate)
	assert.True(t, Evaluate(defaultConfig(), []model.PolicyException{session, client}, appt, cancelledAt).IsLate)
}

func TestMatchExceptionSkipsInactive(t *testing.T) {
	exceptions := []model.PolicyException{
		{ID: "off", Kind: model.ExceptionSituation, Active: false},
		{ID: "on", Kind: model.ExceptionClient, ClientID: "c-1", Active: true},
	}

	got := MatchException(exceptions, appointment("c-1", "personal"))
	require.NotNil(t, got)
	assert.Equal(t, "on", got.ID)

	assert.Nil(t, MatchException(exceptions, appointment("c-9", "personal")))
}
