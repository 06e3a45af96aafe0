package storage

import (
	"context"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	// GetUserByEmail returns the user together with their bcrypt hash.
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	UpdateUser(ctx context.Context, userID int64, changes UserChanges) (models.User, error)

	// Categories
	GetCategories(ctx context.Context, userID int64) ([]api.CategoryV1, error)
	CreateCategory(ctx context.Context, userID int64, name, color string) (api.CategoryV1, error)

	// Habits
	GetHabits(ctx context.Context, userID int64) ([]api.HabitV1, error)
	GetHabit(ctx context.Context, userID, habitID int64) (api.HabitV1, error)
	CreateHabit(ctx context.Context, userID int64, req api.HabitCreate, startDate string) (api.HabitV1, error)
	UpdateHabit(ctx context.Context, userID, habitID int64, req api.HabitUpdate) (api.HabitV1, error)
	DeleteHabit(ctx context.Context, userID, habitID int64) error
	// SetCompletion marks or unmarks day and keeps best_streak monotonic.
	SetCompletion(ctx context.Context, userID, habitID int64, day string, done bool) (api.HabitV1, error)
	GetHabitSummary(ctx context.Context, userID int64, today string) (models.HabitSummary, error)

	// Sessions
	GetSessions(ctx context.Context, userID, habitID int64, day string) ([]models.Session, error)
	CreateSession(ctx context.Context, userID, habitID int64, day string, plannedSeconds int) (models.Session, error)
	UpdateSession(ctx context.Context, userID, habitID, sessionID int64, req api.SessionUpdate) (models.Session, error)

	// Wellbeing
	GetMoods(ctx context.Context, userID int64, limit int) ([]models.Mood, error)
	GetMoodOn(ctx context.Context, userID int64, day string) (models.Mood, error)
	CreateMood(ctx context.Context, userID int64, score int, note, day string) (models.Mood, error)
	UpdateMood(ctx context.Context, userID, moodID int64, req api.MoodUpdate) (models.Mood, error)
	DeleteMood(ctx context.Context, userID, moodID int64) error
	GetGratitude(ctx context.Context, userID int64) ([]models.Gratitude, error)
	AddGratitude(ctx context.Context, userID int64, text, category string) (models.Gratitude, error)
	DeleteGratitude(ctx context.Context, userID, id int64) error

	// Achievements
	GetAchievementCounts(ctx context.Context, userID int64) (map[string]int, error)
	GetEarnedAchievements(ctx context.Context, userID int64) (map[string]string, error)
	AwardAchievement(ctx context.Context, userID int64, key, day string) error

	// Todos
	GetTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id int64, req api.TodoUpdate) (models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error

	// Utils
	GetConfigPath() string
}

// UserChanges carries the optional columns of a profile update.
type UserChanges struct {
	Name           *string
	Bio            *string
	ProfilePicture *string
	PasswordHash   *string
}
