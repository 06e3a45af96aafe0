package cache

import (
	"context"
	"errors"

	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/normalize"
)

// Habits returns the cached habit list. When the current key is empty the
// legacy keys are consulted and, if found, migrated forward.
func (s *Store) Habits(ctx context.Context) ([]models.Habit, error) {
	data, err := s.LoadRaw(ctx, HabitsKey)
	if err == nil {
		return normalize.Habits(data)
	}
	if !IsMiss(err) {
		return nil, err
	}

	for _, legacy := range LegacyHabitKeys {
		raw, err := s.backend.Get(ctx, legacy)
		if err != nil {
			continue
		}
		habits, err := normalize.Habits(raw)
		if err != nil {
			logger.Warn("Ignoring unreadable legacy habit cache", "key", legacy, "error", err)
			continue
		}
		if err := s.SaveHabits(ctx, habits); err != nil {
			logger.Warn("Failed to migrate legacy habit cache", "key", legacy, "error", err)
		} else {
			logger.Info("Migrated legacy habit cache", "from", legacy, "to", HabitsKey.String(), "count", len(habits))
		}
		return habits, nil
	}
	return []models.Habit{}, nil
}

func (s *Store) SaveHabits(ctx context.Context, habits []models.Habit) error {
	if habits == nil {
		habits = []models.Habit{}
	}
	return s.Save(ctx, HabitsKey, habits)
}

// Timer returns the persisted timer snapshot, or ErrMiss.
func (s *Store) Timer(ctx context.Context) (models.TimerSnapshot, error) {
	var snap models.TimerSnapshot
	err := s.Load(ctx, TimerKey, &snap)
	return snap, err
}

func (s *Store) SaveTimer(ctx context.Context, snap models.TimerSnapshot) error {
	return s.Save(ctx, TimerKey, snap)
}

func (s *Store) User(ctx context.Context) (models.User, error) {
	var u models.User
	err := s.Load(ctx, UserKey, &u)
	return u, err
}

func (s *Store) SaveUser(ctx context.Context, u models.User) error {
	return s.Save(ctx, UserKey, u)
}

func (s *Store) Token(ctx context.Context) (string, error) {
	var tok string
	err := s.Load(ctx, TokenKey, &tok)
	return tok, err
}

func (s *Store) SaveToken(ctx context.Context, token string) error {
	return s.Save(ctx, TokenKey, token)
}

type moodToday struct {
	Day  string       `json:"day"`
	Mood *models.Mood `json:"mood"`
}

// MoodToday returns the last mood fetched for day. A nil mood means the
// server reported nothing logged. Entries saved for another day are a miss.
func (s *Store) MoodToday(ctx context.Context, day string) (*models.Mood, error) {
	var v moodToday
	if err := s.Load(ctx, MoodTodayKey, &v); err != nil {
		return nil, err
	}
	if v.Day != day {
		return nil, ErrMiss
	}
	return v.Mood, nil
}

func (s *Store) SaveMoodToday(ctx context.Context, day string, m *models.Mood) error {
	return s.Save(ctx, MoodTodayKey, moodToday{Day: day, Mood: m})
}

// ClearSession removes the stored token and user.
func (s *Store) ClearSession(ctx context.Context) error {
	return errors.Join(s.Delete(ctx, TokenKey), s.Delete(ctx, UserKey))
}
