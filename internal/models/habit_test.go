package models

import "testing"

func days(ds ...string) map[string]bool {
	m := make(map[string]bool, len(ds))
	for _, d := range ds {
		m[d] = true
	}
	return m
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name    string
		history map[string]bool
		want    int
	}{
		{"empty", nil, 0},
		{"single day", days("2025-05-01"), 1},
		{"run across month end", days("2025-04-29", "2025-04-30", "2025-05-01"), 3},
		{"gap splits runs", days("2025-05-01", "2025-05-02", "2025-05-04", "2025-05-05", "2025-05-06"), 3},
		{"false values ignored", map[string]bool{"2025-05-01": true, "2025-05-02": false}, 1},
		{"malformed keys ignored", map[string]bool{"yesterday": true, "2025-05-02": true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestStreak(tt.history); got != tt.want {
				t.Errorf("LongestStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreak(t *testing.T) {
	h := days("2025-05-01", "2025-05-02", "2025-05-03")

	tests := []struct {
		asOf string
		want int
	}{
		{"2025-05-03", 3},
		{"2025-05-04", 3}, // today not done yet
		{"2025-05-05", 0},
		{"2025-05-02", 2},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := CurrentStreak(h, tt.asOf); got != tt.want {
			t.Errorf("CurrentStreak(%s) = %d, want %d", tt.asOf, got, tt.want)
		}
	}
}

func TestSetCompletedKeepsBestStreakMonotonic(t *testing.T) {
	h := Habit{ID: "1", History: days("2025-05-01", "2025-05-02")}

	h.SetCompleted("2025-05-03", true)
	if h.BestStreak != 3 {
		t.Fatalf("BestStreak = %d, want 3", h.BestStreak)
	}

	h.SetCompleted("2025-05-02", false)
	if _, ok := h.History["2025-05-02"]; ok {
		t.Error("unmarking must delete the key, not store false")
	}
	if h.BestStreak != 3 {
		t.Errorf("BestStreak dropped to %d after unmark", h.BestStreak)
	}
}

func TestSetCompletedNilHistory(t *testing.T) {
	var h Habit
	h.SetCompleted("2025-01-01", true)
	if !h.CompletedOn("2025-01-01") || h.BestStreak != 1 {
		t.Errorf("got history=%v best=%d", h.History, h.BestStreak)
	}
}

func TestHabitPatchApply(t *testing.T) {
	orig := Habit{ID: "7", Name: "Read", DurationMinutes: 30, IsActive: true, History: days("2025-01-01")}
	name := "Read fiction"
	off := false
	patched := HabitPatch{Name: &name, IsActive: &off}.Apply(orig)

	if patched.Name != name || patched.IsActive {
		t.Errorf("patch not applied: %+v", patched)
	}
	if patched.DurationMinutes != 30 {
		t.Errorf("untouched field changed: %d", patched.DurationMinutes)
	}

	patched.History["2025-01-02"] = true
	if orig.History["2025-01-02"] {
		t.Error("Apply must not share the history map with the original")
	}
	if !(HabitPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestRequiredPomos(t *testing.T) {
	tests := map[int]int{0: 1, 10: 1, 25: 1, 26: 2, 50: 2, 60: 3, 90: 4}
	for minutes, want := range tests {
		if got := RequiredPomos(minutes); got != want {
			t.Errorf("RequiredPomos(%d) = %d, want %d", minutes, got, want)
		}
	}
}

func TestTaskFromHabit(t *testing.T) {
	h := Habit{ID: "3", Name: "Stretch", Icon: "🧘", DurationMinutes: 40, History: days("2025-02-02")}

	task := TaskFromHabit(h, "2025-02-02")
	if !task.Completed || task.RequiredPomos != 2 || task.Minutes != 40 {
		t.Errorf("TaskFromHabit() = %+v", task)
	}
	if TaskFromHabit(h, "2025-02-03").Completed {
		t.Error("task should not be completed on another day")
	}
}
