package models

type DayStat struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// WeeklyStats summarizes one Sunday-started week of a habit.
type WeeklyStats struct {
	HabitID        string    `json:"habitId"`
	WeekStart      string    `json:"weekStart"`
	Days           []DayStat `json:"days"`
	CompletedCount int       `json:"completedCount"`
	Percent        int       `json:"percent"`
	CurrentStreak  int       `json:"currentStreak"`
	BestStreak     int       `json:"bestStreak"`
}

// HabitSummary backs GET /habits/stats.
type HabitSummary struct {
	TotalHabits    int `json:"total_habits"`
	ActiveHabits   int `json:"active_habits"`
	CompletedToday int `json:"completed_today"`
	BestStreak     int `json:"best_streak"`
	TotalSessions  int `json:"total_sessions"`
	FocusSeconds   int `json:"focus_seconds"`
}
