package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticOwners []string

func (o staticOwners) ListOwners(context.Context) ([]string, error) { return o, nil }

type recordingJobs struct {
	mu        sync.Mutex
	refreshed []string
	windows   []model.Window
	marked    []string
	failFor   string
}

func (r *recordingJobs) RefreshAlerts(_ context.Context, ownerID string, window model.Window) ([]model.NoShowAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshed = append(r.refreshed, ownerID)
	r.windows = append(r.windows, window)
	if ownerID == r.failFor {
		return nil, errors.New("boom")
	}
	return nil, nil
}

func (r *recordingJobs) MarkOverdue(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marked = append(r.marked, ownerID)
	if ownerID == r.failFor {
		return 0, errors.New("boom")
	}
	return 1, nil
}

func TestSchedulerRefreshesEveryOwner(t *testing.T) {
	jobs := &recordingJobs{failFor: "o-2"}
	s := NewScheduler(staticOwners{"o-1", "o-2", "o-3"}, jobs, jobs, time.Hour, 30, zap.NewNop())
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.refreshAlerts(context.Background())
	s.markOverdue(context.Background())

	assert.Equal(t, []string{"o-1", "o-2", "o-3"}, jobs.refreshed, "a failing owner does not stop the pass")
	assert.Equal(t, []string{"o-1", "o-2", "o-3"}, jobs.marked)
	require.Len(t, jobs.windows, 3)
	assert.Equal(t, now.AddDate(0, 0, -30), jobs.windows[0].From)
	assert.Equal(t, now, jobs.windows[0].To)
}

func TestSchedulerStops(t *testing.T) {
	jobs := &recordingJobs{}
	s := NewScheduler(staticOwners{"o-1"}, jobs, jobs, time.Hour, 30, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.runPeriodic(context.Background(), "test", time.Hour, s.refreshAlerts)
		close(done)
	}()

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	assert.Equal(t, []string{"o-1"}, jobs.refreshed, "first run happens immediately")
}
