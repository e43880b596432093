// Package noshow turns raw appointment history into attendance statistics,
// monthly trends, alert state and conversation suggestions.
package noshow

import (
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

const (
	defaultAlertThreshold = 2
	trendMonths           = 3
	unknownClientName     = "Unknown client"
)

type counts struct {
	total, completed, noShows, cancelled int
}

func (c *counts) add(status model.AppointmentStatus) {
	c.total++
	switch status {
	case model.AppointmentStatusCompleted:
		c.completed++
	case model.AppointmentStatusNoShow:
		c.noShows++
	case model.AppointmentStatusCancelled:
		c.cancelled++
	}
}

// Rate целый процент part от total, половина округляется вверх; при total == 0 возвращает 0
func Rate(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}

// Aggregate считает статистику по каждому клиенту, у которого есть записи в окне.
// Записи без клиента пропускаются. Результат отсортирован по числу no-show по убыванию,
// при равенстве сохраняется порядок первого появления клиента.
func Aggregate(appointments []model.Appointment, window model.Window, alertThreshold int) []model.ClientStatistics {
	if alertThreshold <= 0 {
		alertThreshold = defaultAlertThreshold
	}

	type group struct {
		client     model.ClientRef
		counts     counts
		lastNoShow *time.Time
	}

	var groups []*group
	index := make(map[string]*group)

	for _, appt := range appointments {
		if appt.Client.ID == "" || !window.Contains(appt.StartTime) {
			continue
		}
		g, ok := index[appt.Client.ID]
		if !ok {
			g = &group{client: appt.Client}
			if g.client.Name == "" {
				g.client.Name = unknownClientName
			}
			index[appt.Client.ID] = g
			groups = append(groups, g)
		}
		g.counts.add(appt.Status)

		if appt.Status == model.AppointmentStatusNoShow {
			if g.lastNoShow == nil || appt.StartTime.After(*g.lastNoShow) {
				start := appt.StartTime
				g.lastNoShow = &start
			}
		}
	}

	stats := make([]model.ClientStatistics, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, model.ClientStatistics{
			Client:           g.client,
			TotalSessions:    g.counts.total,
			Completed:        g.counts.completed,
			NoShows:          g.counts.noShows,
			Cancelled:        g.counts.cancelled,
			NoShowRate:       Rate(g.counts.noShows, g.counts.total),
			AttendanceRate:   Rate(g.counts.completed, g.counts.total),
			MostRecentNoShow: g.lastNoShow,
			HasAlert:         g.counts.noShows >= alertThreshold,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].NoShows > stats[j].NoShows
	})
	return stats
}

// TrendWindow окно, покрывающее три календарных месяца тренда: с начала позапрошлого месяца до now
func TrendWindow(now time.Time) model.Window {
	return model.Window{From: monthStart(now, -(trendMonths - 1)), To: now}
}

// Trend возвращает ровно три точки, от самого старого месяца к текущему.
// Месяцы без записей заполняются нулями. Appointments уже отфильтрованы по клиенту.
func Trend(appointments []model.Appointment, now time.Time) []model.TrendPoint {
	byMonth := make(map[monthKey]*counts)
	for _, appt := range appointments {
		start := appt.StartTime.In(now.Location())
		key := monthKey{year: start.Year(), month: start.Month()}
		c, ok := byMonth[key]
		if !ok {
			c = &counts{}
			byMonth[key] = c
		}
		c.add(appt.Status)
	}

	points := make([]model.TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		first := monthStart(now, -i)
		var c counts
		if got, ok := byMonth[monthKey{year: first.Year(), month: first.Month()}]; ok {
			c = *got
		}
		points = append(points, model.TrendPoint{
			Label:          fmt.Sprintf("%s %d", first.Month(), first.Year()),
			Month:          int(first.Month()),
			Year:           first.Year(),
			TotalSessions:  c.total,
			Completed:      c.completed,
			NoShows:        c.noShows,
			Cancelled:      c.cancelled,
			NoShowRate:     Rate(c.noShows, c.total),
			AttendanceRate: Rate(c.completed, c.total),
		})
	}
	return points
}

type monthKey struct {
	year  int
	month time.Month
}

func monthStart(now time.Time, offset int) time.Time {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
}
