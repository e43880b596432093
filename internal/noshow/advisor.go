package noshow

import (
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// Improving тренд улучшается, если в нём хотя бы две точки и доля no-show
// в последней меньше, чем в первой
func Improving(trend []model.TrendPoint) bool {
	if len(trend) < 2 {
		return false
	}
	return trend[len(trend)-1].NoShowRate < trend[0].NoShowRate
}

// Suggest подбирает шаблон разговора с клиентом. Правила проверяются по порядку,
// срабатывает первое. Nil означает, что говорить не о чем.
func Suggest(stats model.ClientStatistics, trend []model.TrendPoint) *model.ConversationSuggestion {
	name := stats.Client.Name
	improving := Improving(trend)

	switch {
	case stats.NoShowRate >= 30 || stats.NoShows >= 3:
		return &model.ConversationSuggestion{
			Kind:  model.SuggestionWarning,
			Title: "Conversation about commitment and attendance",
			Message: fmt.Sprintf("Hi %s, I've noticed you missed %d sessions (%d%% of your sessions). "+
				"I understand things come up, but your commitment matters for reaching your goals.",
				name, stats.NoShows, stats.NoShowRate),
			KeyPoints: []string{
				fmt.Sprintf("Attendance rate: %d%%", stats.AttendanceRate),
				fmt.Sprintf("Total no-shows: %d", stats.NoShows),
				"Please let me know in advance if you can't make it",
				"Let's review the training plan together to make sure it's realistic",
			},
			Tone: model.ToneFirm,
		}

	case stats.NoShowRate >= 15 || (stats.NoShows >= 2 && !improving):
		return &model.ConversationSuggestion{
			Kind:  model.SuggestionWarning,
			Title: "Reminder about the importance of attendance",
			Message: fmt.Sprintf("Hi %s, I wanted to check in with you about attendance. "+
				"You've missed a few sessions lately. Your progress matters and consistency is key.", name),
			KeyPoints: []string{
				fmt.Sprintf("Attendance rate: %d%%", stats.AttendanceRate),
				fmt.Sprintf("No-show rate: %d%%", stats.NoShowRate),
				"Consistency is essential to see results",
				"Is there anything we can adjust in your plan to make attending easier?",
			},
			Tone: model.ToneProfessional,
		}

	case stats.AttendanceRate < 70 && stats.NoShows >= 1:
		return &model.ConversationSuggestion{
			Kind:  model.SuggestionImprovement,
			Title: "Support and improvement conversation",
			Message: fmt.Sprintf("Hi %s, I wanted to see how things are going. Your attendance has been %d%%. "+
				"We're making good progress, and we can do even better.", name, stats.AttendanceRate),
			KeyPoints: []string{
				fmt.Sprintf("Current attendance rate: %d%%", stats.AttendanceRate),
				"Consistency will improve your results",
				"We can adjust the schedule if needed",
				"Your commitment is paying off, let's keep going",
			},
			Tone: model.ToneFriendly,
		}

	case stats.AttendanceRate >= 80 && improving:
		return &model.ConversationSuggestion{
			Kind:  model.SuggestionReward,
			Title: "Recognition for excellent attendance",
			Message: fmt.Sprintf("Hi %s, I wanted to recognise your excellent attendance. "+
				"You've kept a %d%% rate and it shows in your progress. Keep it up!", name, stats.AttendanceRate),
			KeyPoints: []string{
				fmt.Sprintf("Excellent attendance rate: %d%%", stats.AttendanceRate),
				"Your commitment is getting results",
				"Thank you for your dedication",
			},
			Tone: model.ToneFriendly,
		}
	}

	return nil
}
