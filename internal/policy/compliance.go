package policy

import (
	"fmt"
	"math"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

const unknownClientName = "Unknown client"

// Compliance сводка соблюдения политики по журналу отмен.
// Период подписывается месяцем начала окна. Клиенты идут в порядке первого появления в журнале.
func Compliance(records []model.CancellationRecord, window model.Window) model.ComplianceStatistics {
	stats := model.ComplianceStatistics{
		Period:    PeriodLabel(window),
		PerClient: []model.ClientCompliance{},
	}

	var noticeSum float64
	index := make(map[string]int)

	for _, rec := range records {
		stats.TotalCancellations++
		if rec.IsLate {
			stats.LateCancellations++
		}
		if rec.Penalty != "" && rec.Penalty != model.PenaltyNone {
			stats.PenaltiesApplied++
		}
		if rec.MatchedExceptionID != nil {
			stats.ExceptionsApplied++
		}
		noticeSum += rec.NoticeHours

		if rec.Client.ID == "" {
			continue
		}
		i, ok := index[rec.Client.ID]
		if !ok {
			name := rec.Client.Name
			if name == "" {
				name = unknownClientName
			}
			stats.PerClient = append(stats.PerClient, model.ClientCompliance{
				Client: model.ClientRef{ID: rec.Client.ID, Name: name},
			})
			i = len(stats.PerClient) - 1
			index[rec.Client.ID] = i
		}
		stats.PerClient[i].TotalCancellations++
		if rec.IsLate {
			stats.PerClient[i].LateCancellations++
		}
	}

	stats.OnTimeCancellations = stats.TotalCancellations - stats.LateCancellations
	stats.ComplianceRate = complianceRate(stats.TotalCancellations, stats.LateCancellations)
	if stats.TotalCancellations > 0 {
		stats.AverageNoticeHours = math.Round(noticeSum/float64(stats.TotalCancellations)*10) / 10
	}

	for i := range stats.PerClient {
		c := &stats.PerClient[i]
		c.ComplianceRate = complianceRate(c.TotalCancellations, c.LateCancellations)
	}

	return stats
}

// PeriodLabel "October 2026" по началу окна
func PeriodLabel(window model.Window) string {
	return fmt.Sprintf("%s %d", window.From.Month(), window.From.Year())
}

func complianceRate(total, late int) int {
	if total == 0 {
		return 100
	}
	return percent(total-late, total)
}

// percent целый процент с округлением половины вверх
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}
