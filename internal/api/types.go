// Package api holds the JSON request and response bodies shared by the
// habit server and its client.
package api

// CategoryV1 is the server's category record.
type CategoryV1 struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Color        string `json:"color"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// HabitV1 is the server's habit record.
type HabitV1 struct {
	HabitID         int64           `json:"habit_id"`
	UserID          int64           `json:"user_id"`
	HabitName       string          `json:"habit_name"`
	CategoryID      *int64          `json:"category_id"`
	Category        *CategoryV1     `json:"category"`
	Emoji           string          `json:"emoji"`
	DurationMinutes int             `json:"duration_minutes"`
	StartDate       string          `json:"start_date"`
	BestStreak      int             `json:"best_streak"`
	IsActive        bool            `json:"is_active"`
	Description     string          `json:"description,omitempty"`
	History         map[string]bool `json:"history"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type HabitCreate struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	CategoryID      *int64 `json:"category_id,omitempty"`
	CategoryName    string `json:"category_name,omitempty" validate:"max=100"`
	Emoji           string `json:"emoji,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	Description     string `json:"description,omitempty"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

type HabitUpdate struct {
	HabitName       *string `json:"habit_name,omitempty" validate:"omitempty,min=1,max=255"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	CategoryName    *string `json:"category_name,omitempty" validate:"omitempty,max=100"`
	Emoji           *string `json:"emoji,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	Description     *string `json:"description,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

type CategoryCreate struct {
	CategoryName string `json:"category_name" validate:"required,min=1,max=100"`
	Color        string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

type SessionCreate struct {
	PlannedDurationSeconds int    `json:"planned_duration_seconds" validate:"min=1"`
	SessionDate            string `json:"session_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type SessionUpdate struct {
	Status                *string `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	ActualDurationSeconds *int    `json:"actual_duration_seconds,omitempty" validate:"omitempty,min=0"`
}

type Signup struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserUpdate struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	Password       *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

type MoodCreate struct {
	Score    int    `json:"mood_score" validate:"min=1,max=10"`
	Note     string `json:"note,omitempty" validate:"max=500"`
	LoggedOn string `json:"logged_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type MoodUpdate struct {
	Score *int    `json:"mood_score,omitempty" validate:"omitempty,min=1,max=10"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type GratitudeCreate struct {
	Text     string `json:"text" validate:"required,min=1,max=2000"`
	Category string `json:"category,omitempty" validate:"max=50"`
}

type TodoCreate struct {
	Text string `json:"text" validate:"required,min=1,max=255"`
}

type TodoUpdate struct {
	Text      *string `json:"text,omitempty" validate:"omitempty,min=1,max=255"`
	Completed *bool   `json:"completed,omitempty"`
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Detail string `json:"detail"`
}
