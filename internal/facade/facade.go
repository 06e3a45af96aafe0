// Package facade routes habit operations to the remote server and falls
// back to the local cache when the server cannot be reached.
package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/normalize"
	"github.com/julianstephens/bloomup/internal/remote"
	"github.com/julianstephens/bloomup/internal/utils"
)

// NeverRetry keeps the breaker open for the life of the process.
const NeverRetry time.Duration = 0

// openForever stands in for "no half-open transition"; gobreaker treats a zero timeout as 60s.
const openForever = 100 * 365 * 24 * time.Hour

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidHabit  = errors.New("invalid habit")
	ErrInvalidDate   = errors.New("invalid date")
)

// Remote is the subset of the habit server the facade calls.
type Remote interface {
	ListHabits(ctx context.Context) ([]models.Habit, error)
	CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	UpdateHabit(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	SetCompleted(ctx context.Context, id, day string, done bool) error
}

// Local is the cached habit list.
type Local interface {
	Habits(ctx context.Context) ([]models.Habit, error)
	SaveHabits(ctx context.Context, habits []models.Habit) error
}

type Mode string

const (
	ModeRemote Mode = "remote"
	ModeCache  Mode = "cache"
)

type Options struct {
	// RetryAfter is how long the facade stays cache-only before probing the
	// server again. NeverRetry (the default) makes the switch permanent.
	RetryAfter time.Duration
	// OnModeChange is called whenever the facade switches between remote and cache.
	OnModeChange func(from, to Mode)
}

type Facade struct {
	remote  Remote
	local   Local
	breaker *gobreaker.CircuitBreaker
	opts    Options

	// serializes read-modify-write cycles on the cached list
	mu sync.Mutex
}

// New builds a facade. A nil remote yields a cache-only facade.
func New(r Remote, l Local, opts Options) *Facade {
	f := &Facade{remote: r, local: l, opts: opts}

	timeout := opts.RetryAfter
	if timeout <= 0 {
		timeout = openForever
	}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "habit-remote",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			// auth failures and caller cancellation say nothing about server health
			return err == nil || remote.IsUnauthorized(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Warn("Habit server circuit changed state", "from", from.String(), "to", to.String())
			if opts.OnModeChange != nil {
				opts.OnModeChange(modeOf(from), modeOf(to))
			}
		},
	})
	return f
}

func modeOf(s gobreaker.State) Mode {
	if s == gobreaker.StateOpen {
		return ModeCache
	}
	return ModeRemote
}

// Mode reports where the next call will go.
func (f *Facade) Mode() Mode {
	if f.remote == nil {
		return ModeCache
	}
	return modeOf(f.breaker.State())
}

// call runs fn against the remote through the breaker. It returns
// handled=false when the caller should run the cache path instead.
func call[T any](ctx context.Context, f *Facade, op string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if f.remote == nil {
		return zero, false, nil
	}
	out, err := f.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err == nil {
		v, _ := out.(T)
		return v, true, nil
	}
	if remote.IsUnauthorized(err) || errors.Is(err, context.Canceled) {
		return zero, true, err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, false, nil
	}
	logger.Warn("Habit server call failed, falling back to local cache", "op", op, "error", err)
	return zero, false, nil
}

// List returns every habit in canonical form.
// A successful remote list is written through to the cache.
func (f *Facade) List(ctx context.Context) ([]models.Habit, error) {
	habits, ok, err := call(ctx, f, "list", func(ctx context.Context) ([]models.Habit, error) {
		return f.remote.ListHabits(ctx)
	})
	if err != nil {
		return nil, err
	}
	if ok {
		if err := f.saveLocal(ctx, habits); err != nil {
			logger.Warn("Failed to refresh habit cache", "error", err)
		}
		return habits, nil
	}
	return f.local.Habits(ctx)
}

func (f *Facade) Create(ctx context.Context, h models.Habit) (models.Habit, error) {
	if h.Name == "" {
		return models.Habit{}, fmt.Errorf("%w: name is required", ErrInvalidHabit)
	}
	if h.DurationMinutes < 0 {
		return models.Habit{}, fmt.Errorf("%w: duration must be positive", ErrInvalidHabit)
	}
	h.IsActive = true
	h = normalize.Defaults(h)

	created, ok, err := call(ctx, f, "create", func(ctx context.Context) (models.Habit, error) {
		return f.remote.CreateHabit(ctx, h)
	})
	if err != nil || ok {
		return created, err
	}

	if _, err := uuid.Parse(h.ID); err != nil {
		h.ID = uuid.NewString()
	}
	err = f.mutateLocal(ctx, func(list []models.Habit) ([]models.Habit, error) {
		return append(list, h), nil
	})
	return h, err
}

func (f *Facade) Update(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error) {
	if patch.DurationMinutes != nil && *patch.DurationMinutes <= 0 {
		return models.Habit{}, fmt.Errorf("%w: duration must be positive", ErrInvalidHabit)
	}
	if patch.Name != nil && *patch.Name == "" {
		return models.Habit{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidHabit)
	}

	updated, ok, err := call(ctx, f, "update", func(ctx context.Context) (models.Habit, error) {
		return f.remote.UpdateHabit(ctx, id, patch)
	})
	if err != nil || ok {
		return updated, err
	}

	err = f.mutateLocal(ctx, func(list []models.Habit) ([]models.Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
		}
		list[i] = patch.Apply(list[i])
		updated = list[i]
		return list, nil
	})
	return updated, err
}

func (f *Facade) Remove(ctx context.Context, id string) error {
	_, ok, err := call(ctx, f, "remove", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f.remote.DeleteHabit(ctx, id)
	})
	if err != nil || ok {
		return err
	}
	return f.mutateLocal(ctx, func(list []models.Habit) ([]models.Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// ToggleHistory marks (done) or unmarks habit id on day.
func (f *Facade) ToggleHistory(ctx context.Context, id, day string, done bool) error {
	if err := validDay(day); err != nil {
		return err
	}
	_, ok, err := call(ctx, f, "toggle", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f.remote.SetCompleted(ctx, id, day, done)
	})
	if err != nil || ok {
		return err
	}
	return f.mutateLocal(ctx, func(list []models.Habit) ([]models.Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
		}
		list[i].SetCompleted(day, done)
		return list, nil
	})
}

// WeeklyStats reports the Sunday-started week containing day for habit id.
func (f *Facade) WeeklyStats(ctx context.Context, id, day string) (models.WeeklyStats, error) {
	if err := validDay(day); err != nil {
		return models.WeeklyStats{}, err
	}
	list, err := f.List(ctx)
	if err != nil {
		return models.WeeklyStats{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.WeeklyStats{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	return Weekly(list[i], day)
}

// Weekly computes the week summary of h for the week containing day.
func Weekly(h models.Habit, day string) (models.WeeklyStats, error) {
	start, err := utils.StartOfWeek(day)
	if err != nil {
		return models.WeeklyStats{}, err
	}
	ws := models.WeeklyStats{
		HabitID:       h.ID,
		WeekStart:     start,
		Days:          make([]models.DayStat, 0, 7),
		CurrentStreak: models.CurrentStreak(h.History, day),
		BestStreak:    max(h.BestStreak, models.LongestStreak(h.History)),
	}
	for n := 0; n < 7; n++ {
		d, _ := utils.AddDays(start, n)
		done := h.CompletedOn(d)
		if done {
			ws.CompletedCount++
		}
		ws.Days = append(ws.Days, models.DayStat{Date: d, Completed: done})
	}
	ws.Percent = ws.CompletedCount * 100 / 7
	return ws, nil
}

func validDay(day string) error {
	if !utils.ValidateDate(day) {
		return fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDate, day)
	}
	return nil
}

func (f *Facade) mutateLocal(ctx context.Context, fn func([]models.Habit) ([]models.Habit, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, err := f.local.Habits(ctx)
	if err != nil {
		return fmt.Errorf("read habit cache: %w", err)
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	return f.local.SaveHabits(ctx, list)
}

func (f *Facade) saveLocal(ctx context.Context, list []models.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local.SaveHabits(ctx, list)
}

func indexOf(list []models.Habit, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
