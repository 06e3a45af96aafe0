package achievements

import (
	"testing"

	"github.com/julianstephens/bloomup/internal/storage"
)

func TestEvaluate(t *testing.T) {
	counts := map[string]int{
		storage.MetricHabitCount:       2,
		storage.MetricStreakDays:       3,
		storage.MetricGratitudeEntries: 15,
	}
	earned := map[string]string{"first_steps": "2025-01-01"}

	all, newly := Evaluate(counts, earned, "2025-02-01")
	if len(all) != len(Catalog) {
		t.Fatalf("got %d entries, want %d", len(all), len(Catalog))
	}
	if len(newly) != 1 || newly[0] != "gratitude_pro" {
		t.Errorf("newly = %v, want [gratitude_pro]", newly)
	}

	byKey := map[string]int{}
	for i, a := range all {
		byKey[a.Key] = i
	}

	tests := []struct {
		key      string
		progress int
		earned   bool
		date     string
	}{
		{"first_steps", 100, true, "2025-01-01"},
		{"streak_master", 42, false, ""},
		{"gratitude_pro", 100, true, "2025-02-01"},
		{"mood_tracker", 0, false, ""},
	}
	for _, tt := range tests {
		a := all[byKey[tt.key]]
		if a.Progress != tt.progress || a.Earned != tt.earned {
			t.Errorf("%s = progress %d earned %v", tt.key, a.Progress, a.Earned)
		}
		if tt.earned && (a.EarnedDate == nil || *a.EarnedDate != tt.date) {
			t.Errorf("%s earned date = %v, want %s", tt.key, a.EarnedDate, tt.date)
		}
	}

	if got := Earned(all); len(got) != 2 {
		t.Errorf("Earned() = %d entries, want 2", len(got))
	}
}

func TestEvaluateKeepsEarnedAfterDrop(t *testing.T) {
	all, newly := Evaluate(map[string]int{}, map[string]string{"streak_master": "2025-01-09"}, "2025-03-01")
	if len(newly) != 0 {
		t.Errorf("newly = %v", newly)
	}
	for _, a := range all {
		if a.Key == "streak_master" && (!a.Earned || a.Value != 0) {
			t.Errorf("streak_master = %+v", a)
		}
	}
}
