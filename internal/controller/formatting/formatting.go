// Package formatting готовит тексты сообщений бота
package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatHours 24 -> "24 ч", 1.5 -> "1.5 ч"
func FormatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", h), "0"), ".") + " ч"
}

func onOff(v bool) string {
	if v {
		return "✅ включено"
	}
	return "❌ выключено"
}

// PenaltyName название штрафа для пользователя
func PenaltyName(kind model.PenaltyKind) string {
	switch kind {
	case model.PenaltyWarning:
		return "предупреждение"
	case model.PenaltyCharge:
		return "оплата"
	case model.PenaltyBlock:
		return "блокировка записи"
	default:
		return "нет"
	}
}

// FormatPolicy карточка политики отмены
func FormatPolicy(cfg *model.PolicyConfig) string {
	var b strings.Builder

	b.WriteString("📋 Политика отмены\n\n")
	fmt.Fprintf(&b, "Статус: %s\n", onOff(cfg.Active))
	fmt.Fprintf(&b, "⏰ Минимальное уведомление: %s\n", FormatHours(cfg.MinimumNoticeHours))
	fmt.Fprintf(&b, "💸 Штраф за позднюю отмену: %s", onOff(cfg.ApplyLateCancellationPenalty))
	if cfg.ApplyLateCancellationPenalty {
		fmt.Fprintf(&b, " (%s)", PenaltyName(cfg.LateCancellationPenaltyKind))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "🚫 Штраф за no-show: %s", onOff(cfg.NoShowPenalty))
	if cfg.NoShowPenalty {
		fmt.Fprintf(&b, " (%s)", PenaltyName(cfg.NoShowPenaltyKind))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "🔔 Алерт после: %d no-show\n", cfg.AlertThreshold)
	fmt.Fprintf(&b, "⚠️ Штраф после: %d no-show\n", cfg.PenaltyThreshold)
	fmt.Fprintf(&b, "🤖 Авто no-show: %s", onOff(cfg.AutoMarkNoShow))
	if cfg.AutoMarkNoShow {
		fmt.Fprintf(&b, " (через %d мин)", cfg.GraceMinutes)
	}
	b.WriteString("\n")

	active := 0
	for _, exc := range cfg.Exceptions {
		if exc.Active {
			active++
		}
	}
	fmt.Fprintf(&b, "🎟 Исключений: %d (активных %d)\n", len(cfg.Exceptions), active)

	if cfg.PolicyMessage != "" {
		fmt.Fprintf(&b, "\n💬 %s", cfg.PolicyMessage)
	}
	return b.String()
}

// FormatVerdict результат проверки отмены
func FormatVerdict(appt model.Appointment, v model.CancellationVerdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🗓 %s, %s\n", appt.Client.Name, FormatDateTime(appt.StartTime))
	fmt.Fprintf(&b, "До начала: %s (нужно %s)\n", FormatHours(v.NoticeHours), FormatHours(v.RequiredNoticeHours))
	if v.IsLate {
		b.WriteString("⚠️ Поздняя отмена")
		if v.Penalty != model.PenaltyNone && v.Penalty != "" {
			fmt.Fprintf(&b, ", штраф: %s", PenaltyName(v.Penalty))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("✅ Отмена вовремя\n")
	}
	if v.MatchedExceptionID != nil {
		b.WriteString("🎟 Применено исключение\n")
	}
	return b.String()
}

// FormatAlerts список активных алертов
func FormatAlerts(alerts []model.NoShowAlert) string {
	if len(alerts) == 0 {
		return "✅ Активных алертов нет"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Активные алерты (%d)\n", len(alerts))
	for i, a := range alerts {
		icon := "🟡"
		if a.Severity == model.AlertSeverityCritical {
			icon = "🔴"
		}
		fmt.Fprintf(&b, "\n%d. %s %s\n", i+1, icon, a.Client.Name)
		fmt.Fprintf(&b, "   No-show: %d, последний %s\n", a.NoShowCount, FormatDateTime(a.LastNoShowAt))
		fmt.Fprintf(&b, "   %s\n", a.Message)
	}
	return b.String()
}

// FormatStatistics сводка по клиентам, сначала худшие
func FormatStatistics(stats []model.ClientStatistics, limit int) string {
	if len(stats) == 0 {
		return "📊 Записей за период нет"
	}

	var b strings.Builder
	b.WriteString("📊 No-show по клиентам\n")
	for i, s := range stats {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "\n… и ещё %d", len(stats)-limit)
			break
		}
		mark := ""
		if s.HasAlert {
			mark = " 🔔"
		}
		fmt.Fprintf(&b, "\n%s%s\n", s.Client.Name, mark)
		fmt.Fprintf(&b, "   Сессий: %d, пришёл: %d, no-show: %d (%d%%)\n",
			s.TotalSessions, s.Completed, s.NoShows, s.NoShowRate)
	}
	return b.String()
}

// FormatReport подробный отчёт по клиенту
func FormatReport(r *model.ClientReport) string {
	var b strings.Builder
	s := r.Statistics

	fmt.Fprintf(&b, "👤 %s\n\n", s.Client.Name)
	fmt.Fprintf(&b, "Сессий: %d\nПришёл: %d\nNo-show: %d\nОтменено: %d\n", s.TotalSessions, s.Completed, s.NoShows, s.Cancelled)
	fmt.Fprintf(&b, "Посещаемость: %d%%\n", s.AttendanceRate)
	if s.MostRecentNoShow != nil {
		fmt.Fprintf(&b, "Последний no-show: %s\n", FormatDateTime(*s.MostRecentNoShow))
	}

	if len(r.Trend) > 0 {
		b.WriteString("\n📈 По месяцам\n")
		for _, p := range r.Trend {
			fmt.Fprintf(&b, "%s: %d сессий, no-show %d%%\n", p.Label, p.TotalSessions, p.NoShowRate)
		}
	}

	if r.Suggestion != nil {
		fmt.Fprintf(&b, "\n💡 %s\n%s\n", r.Suggestion.Title, r.Suggestion.Message)
		for _, point := range r.Suggestion.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", point)
		}
	}
	return b.String()
}

// FormatCompliance сводка по соблюдению политики
func FormatCompliance(c *model.ComplianceStatistics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📑 Соблюдение политики, %s\n\n", c.Period)
	if c.TotalCancellations == 0 {
		b.WriteString("Отмен за период не было")
		return b.String()
	}

	fmt.Fprintf(&b, "Отмен: %d (вовремя %d, поздних %d)\n", c.TotalCancellations, c.OnTimeCancellations, c.LateCancellations)
	fmt.Fprintf(&b, "Соблюдение: %d%%\n", c.ComplianceRate)
	fmt.Fprintf(&b, "Среднее уведомление: %s\n", FormatHours(c.AverageNoticeHours))
	fmt.Fprintf(&b, "Штрафов: %d, исключений: %d\n", c.PenaltiesApplied, c.ExceptionsApplied)

	if len(c.PerClient) > 0 {
		b.WriteString("\nПо клиентам:\n")
		for _, cc := range c.PerClient {
			fmt.Fprintf(&b, "%s: %d отмен, поздних %d (%d%%)\n", cc.Client.Name, cc.TotalCancellations, cc.LateCancellations, cc.ComplianceRate)
		}
	}
	return b.String()
}
