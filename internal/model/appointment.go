package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled" // Создана, ждёт подтверждения
	AppointmentStatusConfirmed AppointmentStatus = "confirmed" // Подтверждена клиентом
	AppointmentStatusCompleted AppointmentStatus = "completed" // Клиент пришёл
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменена
	AppointmentStatusNoShow    AppointmentStatus = "no-show"   // Клиент не пришёл и не отменил
)

// IsOpen сообщает, что запись ещё ожидает проведения
func (s AppointmentStatus) IsOpen() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// ClientRef ссылка на клиента
type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Appointment запись клиента на сессию. Ядро только читает эти поля,
// статус меняет внешний слой бронирования.
type Appointment struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Client      ClientRef         `json:"client"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Status      AppointmentStatus `json:"status"`
	SessionType string            `json:"session_type"`
	SeriesID    *string           `json:"series_id"` // nil для одиночной записи
	CreatedAt   time.Time         `json:"created_at"`
}

// AppointmentFilter дополнительные условия выборки записей
type AppointmentFilter struct {
	ClientID string
	Statuses []AppointmentStatus
}

// Window замкнутый интервал времени [From, To]
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains проверяет, попадает ли момент в окно
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// TrailingWindow окно из последних days дней до now
func TrailingWindow(now time.Time, days int) Window {
	return Window{From: now.AddDate(0, 0, -days), To: now}
}
