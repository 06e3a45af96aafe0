package constants

import "time"

const (
	// Pomodoro phase lengths
	PomodoroWork       = 25 * time.Minute
	PomodoroShortBreak = 5 * time.Minute
	PomodoroLongBreak  = 15 * time.Minute

	// ProgressPushEvery is the number of elapsed seconds between session progress pushes
	ProgressPushEvery = 5

	// PomodoroMinutes is the length of a single pomodoro, used to derive required pomos per task
	PomodoroMinutes = 25
)
