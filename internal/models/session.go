package models

type SessionStatus string

const (
	SessionTodo       SessionStatus = "todo"
	SessionInProgress SessionStatus = "in_progress"
	SessionDone       SessionStatus = "done"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionTodo, SessionInProgress, SessionDone:
		return true
	}
	return false
}

// Session is one timed work record for a habit on a given day.
// There is at most one per (habit, day).
type Session struct {
	ID                     FlexID        `json:"session_id"`
	HabitID                FlexID        `json:"habit_id"`
	SessionDate            string        `json:"session_date"`
	Status                 SessionStatus `json:"status"`
	PlannedDurationSeconds int           `json:"planned_duration_seconds"`
	ActualDurationSeconds  int           `json:"actual_duration_seconds"`
	StartedAt              *string       `json:"started_at,omitempty"`
	CompletedAt            *string       `json:"completed_at,omitempty"`
}

// SessionUpdate is the body of a progress push or status change.
type SessionUpdate struct {
	Status                SessionStatus `json:"status"`
	ActualDurationSeconds int           `json:"actual_duration_seconds"`
}

// SessionKey identifies the single session allowed per habit and day.
func SessionKey(habitID, day string) string {
	return habitID + ":" + day
}
