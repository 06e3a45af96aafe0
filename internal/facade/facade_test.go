package facade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
)

type fakeRemote struct {
	mu      sync.Mutex
	calls   int
	err     error
	habits  []models.Habit
	toggled []string
}

func (f *fakeRemote) hit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRemote) ListHabits(context.Context) ([]models.Habit, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.habits, nil
}

func (f *fakeRemote) CreateHabit(_ context.Context, h models.Habit) (models.Habit, error) {
	if err := f.hit(); err != nil {
		return models.Habit{}, err
	}
	h.ID = "101"
	f.habits = append(f.habits, h)
	return h, nil
}

func (f *fakeRemote) UpdateHabit(_ context.Context, id string, p models.HabitPatch) (models.Habit, error) {
	if err := f.hit(); err != nil {
		return models.Habit{}, err
	}
	return p.Apply(models.Habit{ID: id}), nil
}

func (f *fakeRemote) DeleteHabit(context.Context, string) error { return f.hit() }

func (f *fakeRemote) SetCompleted(_ context.Context, id, day string, done bool) error {
	if err := f.hit(); err != nil {
		return err
	}
	f.toggled = append(f.toggled, id+"@"+day)
	return nil
}

func newLocal(t *testing.T, seed ...models.Habit) *cache.Store {
	t.Helper()
	s := cache.New(cache.NewMemoryStore())
	if len(seed) > 0 {
		if err := s.SaveHabits(context.Background(), seed); err != nil {
			t.Fatalf("SaveHabits() error = %v", err)
		}
	}
	return s
}

var netErr = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

func TestListRemoteWritesThrough(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{habits: []models.Habit{{ID: "1", Name: "Read", DurationMinutes: 30, IsActive: true}}}
	local := newLocal(t)
	f := New(r, local, Options{})

	got, err := f.List(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("List() = %v, %v", got, err)
	}
	cached, err := local.Habits(ctx)
	if err != nil || len(cached) != 1 || cached[0].Name != "Read" {
		t.Errorf("cache not refreshed: %v, %v", cached, err)
	}
	if f.Mode() != ModeRemote {
		t.Errorf("Mode() = %s", f.Mode())
	}
}

func TestNetworkFailureDowngradesPermanently(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{err: netErr}
	local := newLocal(t, models.Habit{ID: "a", Name: "Walk", DurationMinutes: 20, IsActive: true})

	var changes []Mode
	f := New(r, local, Options{OnModeChange: func(_, to Mode) { changes = append(changes, to) }})

	got, err := f.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Walk" {
		t.Errorf("List() fallback = %+v", got)
	}
	if f.Mode() != ModeCache {
		t.Fatalf("Mode() = %s, want cache", f.Mode())
	}

	// server recovers, but this instance must not try again
	r.err = nil
	created, err := f.Create(ctx, models.Habit{Name: "Stretch", DurationMinutes: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "101" {
		t.Error("Create() reached the remote after downgrade")
	}
	if _, err := f.List(ctx); err != nil {
		t.Fatal(err)
	}
	if r.calls != 1 {
		t.Errorf("remote calls = %d, want 1", r.calls)
	}
	if len(changes) != 1 || changes[0] != ModeCache {
		t.Errorf("mode changes = %v", changes)
	}

	cached, _ := local.Habits(ctx)
	if len(cached) != 2 {
		t.Errorf("cache has %d habits, want 2", len(cached))
	}
}

func TestUnauthorizedDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{err: &remote.HTTPError{Method: "GET", Path: "/habits", Status: 401}}
	f := New(r, newLocal(t, models.Habit{ID: "a", Name: "Walk"}), Options{})

	_, err := f.List(ctx)
	if !remote.IsUnauthorized(err) {
		t.Fatalf("List() error = %v, want unauthorized", err)
	}
	if f.Mode() != ModeRemote {
		t.Errorf("401 must not trip the breaker, mode = %s", f.Mode())
	}
}

func TestHalfOpenRetry(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{err: netErr}
	f := New(r, newLocal(t), Options{RetryAfter: 20 * time.Millisecond})

	if _, err := f.List(ctx); err != nil {
		t.Fatal(err)
	}
	if f.Mode() != ModeCache {
		t.Fatalf("Mode() = %s, want cache", f.Mode())
	}

	r.err = nil
	time.Sleep(40 * time.Millisecond)
	if _, err := f.List(ctx); err != nil {
		t.Fatal(err)
	}
	if r.calls != 2 || f.Mode() != ModeRemote {
		t.Errorf("calls = %d, mode = %s; want a retry to close the breaker", r.calls, f.Mode())
	}
}

func TestCacheOnlyOperations(t *testing.T) {
	ctx := context.Background()
	f := New(nil, newLocal(t), Options{})
	if f.Mode() != ModeCache {
		t.Fatalf("nil remote Mode() = %s", f.Mode())
	}

	h, err := f.Create(ctx, models.Habit{Name: "Meditate", Icon: "🧘", DurationMinutes: 15})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if h.ID == "" || !h.IsActive || h.Category.Name != "General" {
		t.Errorf("Create() = %+v", h)
	}

	name := "Meditate daily"
	if _, err := f.Update(ctx, h.ID, models.HabitPatch{Name: &name}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := f.ToggleHistory(ctx, h.ID, "2025-06-02", true); err != nil {
		t.Fatalf("ToggleHistory() error = %v", err)
	}
	if err := f.ToggleHistory(ctx, h.ID, "2025-06-03", true); err != nil {
		t.Fatal(err)
	}
	if err := f.ToggleHistory(ctx, h.ID, "2025-06-03", false); err != nil {
		t.Fatal(err)
	}

	list, _ := f.List(ctx)
	if len(list) != 1 || list[0].Name != name {
		t.Fatalf("List() = %+v", list)
	}
	if !list[0].CompletedOn("2025-06-02") || list[0].CompletedOn("2025-06-03") {
		t.Errorf("history = %v", list[0].History)
	}
	if list[0].BestStreak != 2 {
		t.Errorf("BestStreak = %d, want 2 (monotonic)", list[0].BestStreak)
	}

	if err := f.Remove(ctx, h.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := f.Remove(ctx, h.ID); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	f := New(nil, newLocal(t), Options{})
	zero := 0

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"empty name", func() error { _, err := f.Create(ctx, models.Habit{}); return err }, ErrInvalidHabit},
		{"zero duration patch", func() error {
			_, err := f.Update(ctx, "x", models.HabitPatch{DurationMinutes: &zero})
			return err
		}, ErrInvalidHabit},
		{"bad date", func() error { return f.ToggleHistory(ctx, "x", "06/02/2025", true) }, ErrInvalidDate},
		{"unknown habit", func() error { return f.ToggleHistory(ctx, "x", "2025-06-02", true) }, ErrHabitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestToggleRemote(t *testing.T) {
	r := &fakeRemote{}
	f := New(r, newLocal(t), Options{})
	if err := f.ToggleHistory(context.Background(), "9", "2025-06-02", true); err != nil {
		t.Fatal(err)
	}
	if len(r.toggled) != 1 || r.toggled[0] != "9@2025-06-02" {
		t.Errorf("toggled = %v", r.toggled)
	}
}

func TestWeekly(t *testing.T) {
	h := models.Habit{
		ID:         "1",
		BestStreak: 5,
		History: map[string]bool{
			"2025-06-01": true, // Sunday
			"2025-06-02": true,
			"2025-06-03": true,
			"2025-06-07": true,
			"2025-06-08": true, // next week
		},
	}
	ws, err := Weekly(h, "2025-06-04")
	if err != nil {
		t.Fatal(err)
	}
	if ws.WeekStart != "2025-06-01" || len(ws.Days) != 7 {
		t.Fatalf("week = %+v", ws)
	}
	if ws.CompletedCount != 4 || ws.Percent != 57 {
		t.Errorf("count = %d percent = %d", ws.CompletedCount, ws.Percent)
	}
	if ws.CurrentStreak != 3 || ws.BestStreak != 5 {
		t.Errorf("streaks = %d/%d", ws.CurrentStreak, ws.BestStreak)
	}
}
