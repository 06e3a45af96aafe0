// Package storagetest holds the behaviour every storage.Provider must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/storage"
)

func ptr[T any](v T) *T { return &v }

// Run exercises p, which must be initialized and empty.
func Run(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	user, err := p.CreateUser(ctx, "Ada@Example.com", "Ada", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	uid, _ := strconv.ParseInt(user.ID.String(), 10, 64)

	t.Run("Users", func(t *testing.T) {
		if _, err := p.CreateUser(ctx, "ada@example.com", "Other", "x"); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate email error = %v, want ErrConflict", err)
		}
		got, hash, err := p.GetUserByEmail(ctx, "ADA@example.com")
		if err != nil || hash != "hash" || got.ID != user.ID {
			t.Errorf("GetUserByEmail() = %+v, %q, %v", got, hash, err)
		}
		if _, _, err := p.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("unknown email error = %v", err)
		}
		upd, err := p.UpdateUser(ctx, uid, storage.UserChanges{Bio: ptr("hi"), ProfilePicture: ptr("/a.png")})
		if err != nil || upd.Bio != "hi" || upd.ProfilePicture != "/a.png" || upd.Name != "Ada" {
			t.Errorf("UpdateUser() = %+v, %v", upd, err)
		}
		if _, err := p.GetUser(ctx, uid+1000); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUser(missing) error = %v", err)
		}
	})

	var habitID int64
	t.Run("Habits", func(t *testing.T) {
		h, err := p.CreateHabit(ctx, uid, api.HabitCreate{Name: " Read ", CategoryName: "Learning", Emoji: "📚"}, "2025-01-01")
		if err != nil {
			t.Fatalf("CreateHabit() error = %v", err)
		}
		habitID = h.HabitID
		if h.HabitName != "Read" || h.DurationMinutes != 30 || !h.IsActive || h.Category == nil || h.Category.CategoryName != "Learning" {
			t.Errorf("created habit = %+v", h)
		}

		again, err := p.CreateHabit(ctx, uid, api.HabitCreate{Name: "Write", CategoryName: "Learning", DurationMinutes: 50}, "2025-01-01")
		if err != nil {
			t.Fatal(err)
		}
		if *again.CategoryID != *h.CategoryID {
			t.Error("category name should resolve to the existing category")
		}

		cats, err := p.GetCategories(ctx, uid)
		if err != nil || len(cats) != 1 {
			t.Errorf("GetCategories() = %+v, %v", cats, err)
		}
		if _, err := p.CreateCategory(ctx, uid, "Learning", ""); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate category error = %v", err)
		}
		fit, err := p.CreateCategory(ctx, uid, "Fitness", "#ff0000")
		if err != nil {
			t.Fatal(err)
		}

		off := false
		upd, err := p.UpdateHabit(ctx, uid, again.HabitID, api.HabitUpdate{IsActive: &off, CategoryID: &fit.CategoryID})
		if err != nil || upd.IsActive || upd.Category.CategoryName != "Fitness" || upd.DurationMinutes != 50 {
			t.Errorf("UpdateHabit() = %+v, %v", upd, err)
		}
		renamed, err := p.UpdateHabit(ctx, uid, again.HabitID, api.HabitUpdate{CategoryName: ptr("Stretching")})
		if err != nil || renamed.Category == nil || renamed.Category.CategoryName != "Stretching" {
			t.Fatalf("UpdateHabit(category_name) = %+v, %v", renamed, err)
		}
		if renamed.CategoryID == nil || *renamed.CategoryID == fit.CategoryID {
			t.Errorf("category_name should move the habit to a new category, got %v", renamed.CategoryID)
		}
		reused, err := p.UpdateHabit(ctx, uid, again.HabitID, api.HabitUpdate{CategoryName: ptr("Fitness")})
		if err != nil || reused.CategoryID == nil || *reused.CategoryID != fit.CategoryID {
			t.Errorf("category_name should resolve to the existing category, got %+v, %v", reused, err)
		}
		bogus := int64(999999)
		if _, err := p.UpdateHabit(ctx, uid, again.HabitID, api.HabitUpdate{CategoryID: &bogus}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("foreign category error = %v", err)
		}

		list, err := p.GetHabits(ctx, uid)
		if err != nil || len(list) != 2 {
			t.Fatalf("GetHabits() = %d, %v", len(list), err)
		}
		if err := p.DeleteHabit(ctx, uid, again.HabitID); err != nil {
			t.Fatal(err)
		}
		if err := p.DeleteHabit(ctx, uid, again.HabitID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second delete error = %v", err)
		}
	})

	t.Run("Completions", func(t *testing.T) {
		for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-03"} {
			if _, err := p.SetCompletion(ctx, uid, habitID, d, true); err != nil {
				t.Fatal(err)
			}
		}
		h, err := p.SetCompletion(ctx, uid, habitID, "2025-01-03", true)
		if err != nil || h.BestStreak != 3 || len(h.History) != 3 {
			t.Fatalf("repeat mark = %+v, %v", h, err)
		}
		h, err = p.SetCompletion(ctx, uid, habitID, "2025-01-02", false)
		if err != nil {
			t.Fatal(err)
		}
		if h.History["2025-01-02"] || h.BestStreak != 3 {
			t.Errorf("after unmark history=%v best=%d", h.History, h.BestStreak)
		}
		if _, err := p.SetCompletion(ctx, uid+1000, habitID, "2025-01-05", true); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("other user's habit error = %v", err)
		}

		sum, err := p.GetHabitSummary(ctx, uid, "2025-01-03")
		if err != nil || sum.TotalHabits != 1 || sum.CompletedToday != 1 || sum.BestStreak != 3 {
			t.Errorf("summary = %+v, %v", sum, err)
		}
	})

	t.Run("Sessions", func(t *testing.T) {
		s, err := p.CreateSession(ctx, uid, habitID, "2025-01-04", 1800)
		if err != nil || s.Status != "todo" || s.PlannedDurationSeconds != 1800 {
			t.Fatalf("CreateSession() = %+v, %v", s, err)
		}
		if _, err := p.CreateSession(ctx, uid, habitID, "2025-01-04", 1800); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate session error = %v", err)
		}
		sid, _ := strconv.ParseInt(s.ID.String(), 10, 64)

		s, err = p.UpdateSession(ctx, uid, habitID, sid, api.SessionUpdate{Status: ptr("in_progress"), ActualDurationSeconds: ptr(60)})
		if err != nil || s.StartedAt == nil || s.ActualDurationSeconds != 60 {
			t.Fatalf("start = %+v, %v", s, err)
		}
		started := *s.StartedAt
		s, err = p.UpdateSession(ctx, uid, habitID, sid, api.SessionUpdate{Status: ptr("done"), ActualDurationSeconds: ptr(1800)})
		if err != nil || s.CompletedAt == nil || *s.StartedAt != started {
			t.Errorf("done = %+v, %v", s, err)
		}

		list, err := p.GetSessions(ctx, uid, habitID, "2025-01-04")
		if err != nil || len(list) != 1 {
			t.Errorf("GetSessions(day) = %d, %v", len(list), err)
		}
		list, _ = p.GetSessions(ctx, uid, habitID, "2025-01-05")
		if len(list) != 0 {
			t.Errorf("GetSessions(other day) = %d", len(list))
		}
		if _, err := p.UpdateSession(ctx, uid, habitID, sid+1000, api.SessionUpdate{}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("missing session error = %v", err)
		}
	})

	t.Run("Wellbeing", func(t *testing.T) {
		m, err := p.CreateMood(ctx, uid, 7, "ok", "2025-01-04")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.CreateMood(ctx, uid, 3, "", "2025-01-04"); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("second mood same day error = %v", err)
		}
		mid, _ := strconv.ParseInt(m.ID.String(), 10, 64)
		m, err = p.UpdateMood(ctx, uid, mid, api.MoodUpdate{Score: ptr(9)})
		if err != nil || m.Score != 9 || m.Note != "ok" {
			t.Errorf("UpdateMood() = %+v, %v", m, err)
		}
		if got, err := p.GetMoodOn(ctx, uid, "2025-01-04"); err != nil || got.Score != 9 {
			t.Errorf("GetMoodOn() = %+v, %v", got, err)
		}
		if _, err := p.GetMoodOn(ctx, uid, "2025-01-05"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("empty day error = %v", err)
		}

		g, err := p.AddGratitude(ctx, uid, "coffee", "small joys")
		if err != nil || g.Text != "coffee" || len(g.Date) != 10 {
			t.Fatalf("AddGratitude() = %+v, %v", g, err)
		}
		entries, _ := p.GetGratitude(ctx, uid)
		if len(entries) != 1 {
			t.Errorf("GetGratitude() = %d entries", len(entries))
		}

		counts, err := p.GetAchievementCounts(ctx, uid)
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]int{
			storage.MetricHabitCount:       1,
			storage.MetricStreakDays:       3,
			storage.MetricDaysTracked:      2,
			storage.MetricGratitudeEntries: 1,
			storage.MetricMoodLogs:         1,
		}
		for k, v := range want {
			if counts[k] != v {
				t.Errorf("counts[%s] = %d, want %d", k, counts[k], v)
			}
		}

		if err := p.AwardAchievement(ctx, uid, "first_habit", "2025-01-04"); err != nil {
			t.Fatal(err)
		}
		if err := p.AwardAchievement(ctx, uid, "first_habit", "2025-02-01"); err != nil {
			t.Fatal(err)
		}
		earned, _ := p.GetEarnedAchievements(ctx, uid)
		if earned["first_habit"] != "2025-01-04" {
			t.Errorf("earned = %v, first award should win", earned)
		}

		gid, _ := strconv.ParseInt(g.ID.String(), 10, 64)
		if err := p.DeleteGratitude(ctx, uid, gid); err != nil {
			t.Error(err)
		}
		if err := p.DeleteMood(ctx, uid, mid); err != nil {
			t.Error(err)
		}
		if err := p.DeleteMood(ctx, uid, mid); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteMood error = %v", err)
		}
	})

	t.Run("Todos", func(t *testing.T) {
		td, err := p.CreateTodo(ctx, "buy milk")
		if err != nil || td.Completed {
			t.Fatalf("CreateTodo() = %+v, %v", td, err)
		}
		td, err = p.UpdateTodo(ctx, td.ID, api.TodoUpdate{Completed: ptr(true)})
		if err != nil || !td.Completed || td.Text != "buy milk" {
			t.Errorf("UpdateTodo() = %+v, %v", td, err)
		}
		if err := p.DeleteTodo(ctx, td.ID); err != nil {
			t.Error(err)
		}
		if _, err := p.UpdateTodo(ctx, td.ID, api.TodoUpdate{}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("update deleted todo error = %v", err)
		}
	})
}
