package models

type TimerMode string

const (
	ModePomodoro TimerMode = "pomodoro"
	ModeRegular  TimerMode = "regular"
)

type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// TimerSnapshot is the persisted timer state for one day.
type TimerSnapshot struct {
	Day                   string    `json:"day"`
	Mode                  TimerMode `json:"mode"`
	Phase                 Phase     `json:"phase"`
	TimeLeftSeconds       int       `json:"timeLeft"`
	ElapsedSeconds        int       `json:"elapsed"`
	CurrentTaskIndex      int       `json:"currentTaskIndex"`
	WorkSessionsCompleted int       `json:"workSessionsCompleted"`
	Running               bool      `json:"running"`
	TaskOrder             []string  `json:"taskOrder,omitempty"`
}
