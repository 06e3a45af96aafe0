package models

import "github.com/julianstephens/bloomup/internal/constants"

// Task is today's view of an active habit. It is derived and never persisted.
type Task struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Icon          string   `json:"icon"`
	Category      Category `json:"category"`
	Minutes       int      `json:"minutes"`
	RequiredPomos int      `json:"requiredPomos"`
	Completed     bool     `json:"completed"`
}

// RequiredPomos is ceil(minutes/25) with a floor of one.
func RequiredPomos(minutes int) int {
	n := (minutes + constants.PomodoroMinutes - 1) / constants.PomodoroMinutes
	if n < 1 {
		return 1
	}
	return n
}

// TaskFromHabit projects h onto day.
func TaskFromHabit(h Habit, day string) Task {
	return Task{
		ID:            h.ID,
		Name:          h.Name,
		Icon:          h.Icon,
		Category:      h.Category,
		Minutes:       h.DurationMinutes,
		RequiredPomos: RequiredPomos(h.DurationMinutes),
		Completed:     h.CompletedOn(day),
	}
}
