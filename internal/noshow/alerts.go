package noshow

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

const defaultPenaltyThreshold = 3

// ChangeKind вид перехода алерта
type ChangeKind string

const (
	AlertActivated ChangeKind = "activated" // none -> active или resolved -> active
	AlertUpdated   ChangeKind = "updated"   // active -> active с новыми данными
	AlertResolved  ChangeKind = "resolved"  // active -> resolved
)

// AlertChange переход, который нужно сохранить и опубликовать
type AlertChange struct {
	Kind  ChangeKind
	Alert model.NoShowAlert
}

// Thresholds пороги алерта и штрафа из политики владельца
type Thresholds struct {
	Alert   int
	Penalty int
}

func (t Thresholds) normalized() Thresholds {
	if t.Alert <= 0 {
		t.Alert = defaultAlertThreshold
	}
	if t.Penalty <= 0 {
		t.Penalty = defaultPenaltyThreshold
	}
	return t
}

// AlertBook алерты одного владельца по клиентам. На клиента хранится не больше одного алерта:
// после resolve запись остаётся и при повторной активации сохраняет свой ID.
// Не потокобезопасен, доступ сериализует вызывающая сторона.
type AlertBook struct {
	ownerID  string
	byClient map[string]*model.NoShowAlert
	order    []string
}

// NewAlertBook собирает книгу из сохранённых алертов
func NewAlertBook(ownerID string, existing []model.NoShowAlert) *AlertBook {
	b := &AlertBook{
		ownerID:  ownerID,
		byClient: make(map[string]*model.NoShowAlert, len(existing)),
	}
	for i := range existing {
		alert := existing[i]
		if _, dup := b.byClient[alert.Client.ID]; dup {
			continue
		}
		b.byClient[alert.Client.ID] = &alert
		b.order = append(b.order, alert.Client.ID)
	}
	return b
}

// FindByID ищет алерт по идентификатору
func (b *AlertBook) FindByID(alertID string) (model.NoShowAlert, bool) {
	for _, clientID := range b.order {
		if alert := b.byClient[clientID]; alert.ID == alertID {
			return *alert, true
		}
	}
	return model.NoShowAlert{}, false
}

// Activate создаёт алерт или повторно активирует решённый. ID существующего алерта сохраняется.
func (b *AlertBook) Activate(stats model.ClientStatistics, severity model.AlertSeverity, now time.Time, newID func() string) model.NoShowAlert {
	alert, ok := b.byClient[stats.Client.ID]
	if !ok {
		alert = &model.NoShowAlert{
			ID:        newID(),
			OwnerID:   b.ownerID,
			CreatedAt: now,
		}
		b.byClient[stats.Client.ID] = alert
		b.order = append(b.order, stats.Client.ID)
	}
	fill(alert, stats, severity, now)
	alert.Active = true
	alert.UpdatedAt = now
	return *alert
}

// Update обновляет активный алерт на месте. Возвращает false, если менять нечего.
func (b *AlertBook) Update(stats model.ClientStatistics, severity model.AlertSeverity, now time.Time) (model.NoShowAlert, bool) {
	alert, ok := b.byClient[stats.Client.ID]
	if !ok || !alert.Active {
		return model.NoShowAlert{}, false
	}

	before := *alert
	fill(alert, stats, severity, now)
	if sameContent(before, *alert) {
		*alert = before
		return before, false
	}
	alert.UpdatedAt = now
	return *alert, true
}

// Resolve деактивирует алерт клиента. Возвращает false, если активного алерта нет.
func (b *AlertBook) Resolve(clientID string, now time.Time) (model.NoShowAlert, bool) {
	alert, ok := b.byClient[clientID]
	if !ok || !alert.Active {
		return model.NoShowAlert{}, false
	}
	alert.Active = false
	alert.UpdatedAt = now
	return *alert, true
}

// Reconcile приводит книгу в соответствие со свежей статистикой.
// Возвращает переходы, которые нужно сохранить, и активные алерты в порядке статистики.
// Повторный вызов с той же статистикой не даёт переходов.
func (b *AlertBook) Reconcile(stats []model.ClientStatistics, thresholds Thresholds, now time.Time, newID func() string) ([]AlertChange, []model.NoShowAlert) {
	thresholds = thresholds.normalized()

	var changes []AlertChange
	active := make([]model.NoShowAlert, 0)
	qualifying := make(map[string]struct{}, len(stats))

	for _, s := range stats {
		if s.Client.ID == "" || s.NoShows < thresholds.Alert || s.NoShows == 0 {
			continue
		}
		qualifying[s.Client.ID] = struct{}{}

		severity := model.AlertSeverityWarning
		if s.NoShows >= thresholds.Penalty {
			severity = model.AlertSeverityCritical
		}

		existing, ok := b.byClient[s.Client.ID]
		switch {
		case ok && existing.Active:
			alert, changed := b.Update(s, severity, now)
			if changed {
				changes = append(changes, AlertChange{Kind: AlertUpdated, Alert: alert})
			}
			active = append(active, alert)
		default:
			alert := b.Activate(s, severity, now, newID)
			changes = append(changes, AlertChange{Kind: AlertActivated, Alert: alert})
			active = append(active, alert)
		}
	}

	for _, clientID := range b.order {
		if _, ok := qualifying[clientID]; ok {
			continue
		}
		if alert, ok := b.Resolve(clientID, now); ok {
			changes = append(changes, AlertChange{Kind: AlertResolved, Alert: alert})
		}
	}

	return changes, active
}

// Active активные алерты в порядке появления в книге
func (b *AlertBook) Active() []model.NoShowAlert {
	out := make([]model.NoShowAlert, 0, len(b.order))
	for _, clientID := range b.order {
		if alert := b.byClient[clientID]; alert.Active {
			out = append(out, *alert)
		}
	}
	return out
}

// AlertMessage текст алерта для тренера
func AlertMessage(clientName string, noShows int, severity model.AlertSeverity) string {
	if severity == model.AlertSeverityCritical {
		return fmt.Sprintf("Client %s has %d no-shows. Applying a penalty is recommended.", clientName, noShows)
	}
	return fmt.Sprintf("Client %s has %d no-shows. Warning the client is recommended.", clientName, noShows)
}

func fill(alert *model.NoShowAlert, stats model.ClientStatistics, severity model.AlertSeverity, now time.Time) {
	alert.Client = stats.Client
	alert.Severity = severity
	alert.NoShowCount = stats.NoShows
	alert.Message = AlertMessage(stats.Client.Name, stats.NoShows, severity)
	if stats.MostRecentNoShow != nil {
		alert.LastNoShowAt = *stats.MostRecentNoShow
	} else if alert.LastNoShowAt.IsZero() {
		alert.LastNoShowAt = now
	}
}

func sameContent(a, b model.NoShowAlert) bool {
	return a.Client == b.Client &&
		a.Severity == b.Severity &&
		a.NoShowCount == b.NoShowCount &&
		a.Message == b.Message &&
		a.LastNoShowAt.Equal(b.LastNoShowAt)
}
