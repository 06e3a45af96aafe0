// Package achievements defines the achievement catalog and scores a user's
// progress against it from storage counts.
package achievements

import (
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/storage"
)

type Definition struct {
	Key         string
	Title       string
	Description string
	Icon        string
	Points      int
	Metric      string
	Target      int
}

var Catalog = []Definition{
	{"first_steps", "First Steps", "Created your first habit", "🌱", 10, storage.MetricHabitCount, 1},
	{"streak_master", "Streak Master", "Maintained a 7-day streak", "🔥", 25, storage.MetricStreakDays, 7},
	{"gratitude_pro", "Gratitude Pro", "Logged 10 gratitude entries", "🙏", 20, storage.MetricGratitudeEntries, 10},
	{"consistency_king", "Consistency King", "Tracked habits for 30 days", "👑", 50, storage.MetricDaysTracked, 30},
	{"wellness_warrior", "Wellness Warrior", "Completed 100 habit checkmarks", "⚔️", 75, storage.MetricTotalCompletions, 100},
	{"mood_tracker", "Mood Tracker", "Logged mood 20 times", "😊", 20, storage.MetricMoodLogs, 20},
	{"habit_collector", "Habit Collector", "Created 10 different habits", "📚", 30, storage.MetricTotalHabits, 10},
}

// Evaluate joins the catalog with counts and the already-earned map
// (key to earned date). An entry reached for the first time is reported
// earned on today and listed in newly so the caller can persist it.
// Earned entries stay earned even if the count later drops.
func Evaluate(counts map[string]int, earned map[string]string, today string) (all []models.Achievement, newly []string) {
	all = make([]models.Achievement, 0, len(Catalog))
	for _, d := range Catalog {
		value := counts[d.Metric]
		a := models.Achievement{
			Key:         d.Key,
			Title:       d.Title,
			Description: d.Description,
			Icon:        d.Icon,
			Points:      d.Points,
			Target:      d.Target,
			Value:       value,
			Progress:    min(value*100/d.Target, 100),
		}
		if day, ok := earned[d.Key]; ok {
			a.Earned = true
			a.EarnedDate = &day
			a.Progress = 100
		} else if value >= d.Target {
			day := today
			a.Earned = true
			a.EarnedDate = &day
			newly = append(newly, d.Key)
		}
		all = append(all, a)
	}
	return all, newly
}

// Earned filters to unlocked entries.
func Earned(all []models.Achievement) []models.Achievement {
	out := []models.Achievement{}
	for _, a := range all {
		if a.Earned {
			out = append(out, a)
		}
	}
	return out
}
