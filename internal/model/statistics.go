package model

import "time"

// ClientStatistics посещаемость клиента за окно. Всегда вычисляется заново, не хранится.
type ClientStatistics struct {
	Client           ClientRef  `json:"client"`
	TotalSessions    int        `json:"total_sessions"`
	Completed        int        `json:"completed"`
	NoShows          int        `json:"no_shows"`
	Cancelled        int        `json:"cancelled"`
	NoShowRate       int        `json:"no_show_rate"`    // %
	AttendanceRate   int        `json:"attendance_rate"` // %
	MostRecentNoShow *time.Time `json:"most_recent_no_show"`
	HasAlert         bool       `json:"has_alert"`
}

// TrendPoint показатели клиента за календарный месяц
type TrendPoint struct {
	Label          string `json:"label"` // "January 2026"
	Month          int    `json:"month"` // 1-12
	Year           int    `json:"year"`
	TotalSessions  int    `json:"total_sessions"`
	Completed      int    `json:"completed"`
	NoShows        int    `json:"no_shows"`
	Cancelled      int    `json:"cancelled"`
	NoShowRate     int    `json:"no_show_rate"`
	AttendanceRate int    `json:"attendance_rate"`
}

type SuggestionKind string

const (
	SuggestionWarning     SuggestionKind = "warning"
	SuggestionImprovement SuggestionKind = "improvement"
	SuggestionReward      SuggestionKind = "reward"
)

type SuggestionTone string

const (
	ToneFriendly     SuggestionTone = "friendly"
	ToneProfessional SuggestionTone = "professional"
	ToneFirm         SuggestionTone = "firm"
)

// ConversationSuggestion шаблон разговора с клиентом о посещаемости
type ConversationSuggestion struct {
	Kind      SuggestionKind `json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	KeyPoints []string       `json:"key_points"`
	Tone      SuggestionTone `json:"tone"`
}

// ClientReport расширенная статистика: тренд за 3 месяца и подсказка
type ClientReport struct {
	Statistics ClientStatistics        `json:"statistics"`
	Trend      []TrendPoint            `json:"trend"`
	Suggestion *ConversationSuggestion `json:"suggestion"`
	Adherence  int                     `json:"adherence"`
}
