package state

// UserState текущий шаг диалога с владельцем
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Настройка политики
	StateEnteringNoticeHours    UserState = "entering_notice_hours"
	StateEnteringAlertThreshold UserState = "entering_alert_threshold"

	// Отмена записи из чата
	StateEnteringCancellationNote UserState = "entering_cancellation_note"
)

// UserData шаг диалога и собранные на предыдущих шагах значения
type UserData struct {
	State UserState
	Data  map[string]string
}
