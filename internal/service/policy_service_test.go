package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/lock"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDefaultPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "pol-1", cfg.ID)
	assert.True(t, cfg.Active)
	assert.Equal(t, float64(24), cfg.MinimumNoticeHours)
	assert.Equal(t, 2, cfg.AlertThreshold)
	assert.Equal(t, 3, cfg.PenaltyThreshold)
	assert.Equal(t, testNow, cfg.CreatedAt)
	assert.Equal(t, int64(1), cfg.Version)

	again, err := f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, again.ID, "second call returns the stored policy")
}

func TestUpdatePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notice := 12.0
	active := false
	cfg, err := f.policySvc.UpdatePolicy(ctx, "owner-1", model.PolicyPatch{
		MinimumNoticeHours: &notice,
		Active:             &active,
	})
	require.NoError(t, err)

	assert.Equal(t, 12.0, cfg.MinimumNoticeHours)
	assert.False(t, cfg.Active)
	assert.Equal(t, int64(2), cfg.Version)
	assert.Equal(t, []string{events.TypePolicyUpdated}, f.publisher.types())
}

func TestUpdatePolicyRejectsInvalidPatch(t *testing.T) {
	f := newFixture(t)

	negative := -5.0
	_, err := f.policySvc.UpdatePolicy(context.Background(), "owner-1", model.PolicyPatch{MinimumNoticeHours: &negative})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, f.policies.updates)
}

func TestUpdatePolicyAssignsExceptionIDs(t *testing.T) {
	f := newFixture(t)

	exceptions := []model.PolicyException{
		{Kind: model.ExceptionClient, ClientID: "c-1", Active: true},
		{ID: "keep", Kind: model.ExceptionSituation, Active: true},
	}
	cfg, err := f.policySvc.UpdatePolicy(context.Background(), "owner-1", model.PolicyPatch{Exceptions: &exceptions})
	require.NoError(t, err)

	require.Len(t, cfg.Exceptions, 2)
	assert.NotEmpty(t, cfg.Exceptions[0].ID)
	assert.Equal(t, "keep", cfg.Exceptions[1].ID)
	assert.Equal(t, testNow, cfg.Exceptions[0].CreatedAt)
	assert.Empty(t, exceptions[0].ID, "caller's slice is not modified")
}

func TestAddAndRemoveException(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.policySvc.AddException(ctx, "owner-1", model.PolicyException{Kind: model.ExceptionClient, ClientID: "c-1", Active: true})
	require.NoError(t, err)
	second, err := f.policySvc.AddException(ctx, "owner-1", model.PolicyException{Kind: model.ExceptionSessionType, SessionType: "group", Active: true})
	require.NoError(t, err)

	cfg, err := f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, cfg.Exceptions, 2)
	assert.Equal(t, first.ID, cfg.Exceptions[0].ID, "new exceptions go to the end")
	assert.Equal(t, second.ID, cfg.Exceptions[1].ID)

	require.NoError(t, f.policySvc.RemoveException(ctx, "owner-1", first.ID))

	cfg, err = f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, cfg.Exceptions, 1)
	assert.Equal(t, second.ID, cfg.Exceptions[0].ID)

	err = f.policySvc.RemoveException(ctx, "owner-1", "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAddExceptionValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.policySvc.AddException(context.Background(), "owner-1", model.PolicyException{Kind: model.ExceptionClient})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.policySvc.AddException(ctx, "owner-1", model.PolicyException{Kind: model.ExceptionSituation, Active: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	cfg, err := f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, cfg.Exceptions, writers, "no update is lost")
	assert.Equal(t, int64(writers+1), cfg.Version)
}

func TestStaleVersionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.policySvc.GetOrCreateDefaultPolicy(ctx, "owner-1")
	require.NoError(t, err)

	_, err = f.policies.Update(ctx, *cfg)
	require.NoError(t, err)

	_, err = f.policies.Update(ctx, *cfg)
	assert.True(t, errors.Is(err, apperr.ErrConcurrentModification))
}

func TestPublishFailureDoesNotFailUpdate(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	grace := 30
	cfg, err := f.policySvc.UpdatePolicy(context.Background(), "owner-1", model.PolicyPatch{GraceMinutes: &grace})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.GraceMinutes)
}

// lockFreeOnPublish проверяет, что во время публикации ключ владельца свободен
func lockFreeOnPublish(f *fixture, key string) *error {
	var lockErr error
	f.publisher.onPublish = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		unlock, err := f.locker.Lock(ctx, key)
		if err == nil {
			unlock()
		}
		lockErr = err
	}
	return &lockErr
}

func TestUpdatePolicyPublishesAfterUnlock(t *testing.T) {
	f := newFixture(t)
	lockErr := lockFreeOnPublish(f, lock.OwnerKey(policyLockScope, "owner-1"))

	active := false
	_, err := f.policySvc.UpdatePolicy(context.Background(), "owner-1", model.PolicyPatch{Active: &active})
	require.NoError(t, err)
	require.NoError(t, *lockErr)
	assert.Equal(t, []string{events.TypePolicyUpdated}, f.publisher.types())
}
