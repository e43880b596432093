package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCancellation(t *testing.T) {
	f := newFixture(t)
	appt := appointmentAt("a-1", "c-1", testNow.Add(48*time.Hour), model.AppointmentStatusScheduled)

	v, err := f.cancellationSvc.EvaluateCancellation(context.Background(), appt, appt.StartTime.Add(-20*time.Hour), "owner-1")
	require.NoError(t, err)
	assert.True(t, v.IsLate)
	assert.InDelta(t, 20, v.NoticeHours, 1e-9)
	assert.Equal(t, model.PenaltyWarning, v.Penalty)

	assert.Empty(t, f.cancellations.records, "evaluation does not record")
}

func TestRecordCancellation(t *testing.T) {
	f := newFixture(t)
	appt := appointmentAt("a-1", "c-1", testNow.Add(5*time.Hour), model.AppointmentStatusConfirmed)

	rec, err := f.cancellationSvc.RecordCancellation(context.Background(), "owner-1", appt, model.CancellationReasonClient, "sick")
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "a-1", rec.AppointmentID)
	assert.Equal(t, testNow, rec.CancelledAt)
	assert.InDelta(t, 5, rec.NoticeHours, 1e-9)
	assert.Equal(t, float64(24), rec.RequiredNoticeHours)
	assert.True(t, rec.IsLate)
	assert.Equal(t, model.PenaltyWarning, rec.Penalty)
	assert.Equal(t, "sick", rec.Note)

	require.Len(t, f.cancellations.records, 1)
	assert.Contains(t, f.publisher.types(), events.TypeCancellationRecorded)
}

func TestRecordCancellationWithInactivePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := false
	_, err := f.policySvc.UpdatePolicy(ctx, "owner-1", model.PolicyPatch{Active: &inactive})
	require.NoError(t, err)

	appt := appointmentAt("a-1", "c-1", testNow.Add(time.Hour), model.AppointmentStatusScheduled)
	_, err = f.cancellationSvc.RecordCancellation(ctx, "owner-1", appt, model.CancellationReasonClient, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrPolicyInactive))
	assert.Empty(t, f.cancellations.records)

	v, err := f.cancellationSvc.EvaluateCancellation(ctx, appt, testNow, "owner-1")
	require.NoError(t, err)
	assert.False(t, v.IsLate)
}

func TestRecordCancellationRejectsUnknownReason(t *testing.T) {
	f := newFixture(t)
	appt := appointmentAt("a-1", "c-1", testNow.Add(time.Hour), model.AppointmentStatusScheduled)

	_, err := f.cancellationSvc.RecordCancellation(context.Background(), "owner-1", appt, "weather", "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestListCancellationsAndCompliance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.policySvc.AddException(ctx, "owner-1", model.PolicyException{
		Kind: model.ExceptionClient, ClientID: "vip", Active: true, WaivePenalty: true,
	})
	require.NoError(t, err)

	clock := testNow
	f.cancellationSvc.now = func() time.Time { return clock }

	record := func(clientID string, notice time.Duration) {
		appt := appointmentAt("a-"+clientID, clientID, clock.Add(notice), model.AppointmentStatusScheduled)
		_, err := f.cancellationSvc.RecordCancellation(ctx, "owner-1", appt, model.CancellationReasonClient, "")
		require.NoError(t, err)
		clock = clock.Add(time.Minute)
	}
	record("c-1", 48*time.Hour)
	record("c-1", 2*time.Hour)
	record("vip", time.Hour)

	window := model.Window{From: testNow.Add(-time.Hour), To: testNow.Add(time.Hour)}
	records, err := f.cancellationSvc.ListCancellations(ctx, "owner-1", window)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "vip", records[0].Client.ID, "newest first")

	stats, err := f.cancellationSvc.ComplianceStatistics(ctx, "owner-1", window)
	require.NoError(t, err)
	assert.Equal(t, "March 2026", stats.Period)
	assert.Equal(t, 3, stats.TotalCancellations)
	assert.Equal(t, 2, stats.LateCancellations)
	assert.Equal(t, 33, stats.ComplianceRate)
	assert.Equal(t, 1, stats.PenaltiesApplied)
	assert.Equal(t, 1, stats.ExceptionsApplied)
	assert.Equal(t, 17.0, stats.AverageNoticeHours)
}

func TestCurrentMonth(t *testing.T) {
	w := CurrentMonth(testNow)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, testNow, w.To)
}
