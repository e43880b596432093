package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/lock"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time { return func() time.Time { return testNow } }

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type memPolicyStore struct {
	mu       sync.Mutex
	policies map[string]model.PolicyConfig
	updates  int
}

func newMemPolicyStore() *memPolicyStore {
	return &memPolicyStore{policies: make(map[string]model.PolicyConfig)}
}

func (m *memPolicyStore) GetByOwner(_ context.Context, ownerID string) (*model.PolicyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.policies[ownerID]
	if !ok {
		return nil, nil
	}
	return clonePolicy(cfg), nil
}

func (m *memPolicyStore) CreateIfAbsent(_ context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.policies[cfg.OwnerID]; ok {
		return clonePolicy(existing), nil
	}
	cfg.Version = 1
	m.policies[cfg.OwnerID] = cfg
	return clonePolicy(cfg), nil
}

func (m *memPolicyStore) Update(_ context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.policies[cfg.OwnerID]
	if !ok || existing.Version != cfg.Version {
		return nil, apperr.ConcurrentModification("policy was changed concurrently")
	}
	cfg.Version++
	m.policies[cfg.OwnerID] = cfg
	m.updates++
	return clonePolicy(cfg), nil
}

func (m *memPolicyStore) ListOwners(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make([]string, 0, len(m.policies))
	for owner := range m.policies {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

func clonePolicy(cfg model.PolicyConfig) *model.PolicyConfig {
	cfg.Exceptions = append([]model.PolicyException{}, cfg.Exceptions...)
	return &cfg
}

type memAppointments struct {
	mu    sync.Mutex
	appts []model.Appointment
}

func (m *memAppointments) GetAppointments(_ context.Context, ownerID string, window model.Window, filter model.AppointmentFilter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if a.OwnerID != ownerID || !window.Contains(a.StartTime) {
			continue
		}
		if filter.ClientID != "" && a.Client.ID != filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAppointments) MarkNoShow(_ context.Context, ownerID string, ids []string, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.appts {
		a := &m.appts[i]
		if a.OwnerID != ownerID || !a.Status.IsOpen() {
			continue
		}
		for _, id := range ids {
			if a.ID == id {
				a.Status = model.AppointmentStatusNoShow
				n++
			}
		}
	}
	return n, nil
}

func (m *memAppointments) add(appts ...model.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appts = append(m.appts, appts...)
}

func hasStatus(statuses []model.AppointmentStatus, s model.AppointmentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type memCancellations struct {
	mu      sync.Mutex
	records []model.CancellationRecord
}

func (m *memCancellations) Append(_ context.Context, rec model.CancellationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memCancellations) List(_ context.Context, ownerID string, window model.Window) ([]model.CancellationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CancellationRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID && window.Contains(r.CancelledAt) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CancelledAt.After(out[j].CancelledAt) })
	return out, nil
}

type memAlerts struct {
	mu     sync.Mutex
	alerts map[string]model.NoShowAlert // owner|client -> alert
	order  []string
}

func newMemAlerts() *memAlerts {
	return &memAlerts{alerts: make(map[string]model.NoShowAlert)}
}

func (m *memAlerts) ListByOwner(_ context.Context, ownerID string) ([]model.NoShowAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(ownerID), nil
}

func (m *memAlerts) list(ownerID string) []model.NoShowAlert {
	var out []model.NoShowAlert
	for _, key := range m.order {
		if a := m.alerts[key]; a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out
}

func (m *memAlerts) Sync(_ context.Context, ownerID string, fn func([]model.NoShowAlert) ([]model.NoShowAlert, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed, err := fn(m.list(ownerID))
	if err != nil {
		return err
	}
	for _, a := range changed {
		key := a.OwnerID + "|" + a.Client.ID
		if existing, ok := m.alerts[key]; ok {
			a.ID = existing.ID
			a.CreatedAt = existing.CreatedAt
		} else {
			m.order = append(m.order, key)
		}
		m.alerts[key] = a
	}
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	events    []events.Event
	err       error
	onPublish func()
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	if p.onPublish != nil {
		p.onPublish()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	policies      *memPolicyStore
	appointments  *memAppointments
	cancellations *memCancellations
	alerts        *memAlerts
	publisher     *recordingPublisher
	locker        *lock.LocalLocker

	policySvc       *PolicyService
	cancellationSvc *CancellationService
	statisticsSvc   *StatisticsService
	alertSvc        *AlertService
	autoNoShowSvc   *AutoNoShowService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zap.NewNop()
	locker := lock.NewLocalLocker()
	f := &fixture{
		policies:      newMemPolicyStore(),
		appointments:  &memAppointments{},
		cancellations: &memCancellations{},
		alerts:        newMemAlerts(),
		publisher:     &recordingPublisher{},
		locker:        locker,
	}

	f.policySvc = NewPolicyService(f.policies, locker, f.publisher, policy.BuiltinDefaults(), logger)
	f.policySvc.now = fixedClock()
	f.policySvc.newID = sequence("pol")

	f.cancellationSvc = NewCancellationService(f.policySvc, f.cancellations, f.publisher, logger)
	f.cancellationSvc.now = fixedClock()
	f.cancellationSvc.newID = sequence("rec")

	f.statisticsSvc = NewStatisticsService(f.policySvc, f.appointments, logger)
	f.statisticsSvc.now = fixedClock()

	f.alertSvc = NewAlertService(f.policySvc, f.appointments, f.alerts, locker, f.publisher, logger)
	f.alertSvc.now = fixedClock()
	f.alertSvc.newID = sequence("alert")

	f.autoNoShowSvc = NewAutoNoShowService(f.policySvc, f.appointments, logger)
	f.autoNoShowSvc.now = fixedClock()

	return f
}

func appointmentAt(id, clientID string, start time.Time, status model.AppointmentStatus) model.Appointment {
	return model.Appointment{
		ID:          id,
		OwnerID:     "owner-1",
		Client:      model.ClientRef{ID: clientID, Name: "Client " + clientID},
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      status,
		SessionType: "personal",
	}
}

// seedHistory добавляет клиенту completed и noShows записей, по одной в день, заканчивая вчерашним днём
func (f *fixture) seedHistory(clientID string, completed, noShows int) {
	total := completed + noShows
	for i := 0; i < total; i++ {
		status := model.AppointmentStatusCompleted
		if i >= completed {
			status = model.AppointmentStatusNoShow
		}
		start := testNow.AddDate(0, 0, -(total - i))
		f.appointments.add(appointmentAt(fmt.Sprintf("%s-%d", clientID, i), clientID, start, status))
	}
}
