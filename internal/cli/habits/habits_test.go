package habits

import (
	"strings"
	"testing"

	"github.com/julianstephens/bloomup/internal/models"
)

func TestFind(t *testing.T) {
	list := []models.Habit{
		{ID: "a1b2c3d4-0000", Name: "Read"},
		{ID: "a1b2ffff-0000", Name: "Write"},
		{ID: "42", Name: "Stretch"},
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{"exact id", "42", "Stretch", ""},
		{"name ignores case", "read", "Read", ""},
		{"unique prefix", "a1b2c", "Read", ""},
		{"ambiguous prefix", "a1b2", "", "ambiguous"},
		{"missing", "Run", "", "not found"},
		{"empty", "", "", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := find(list, tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("find(%q) error = %v, want %q", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("find(%q) error = %v", tt.ref, err)
			}
			if h.Name != tt.want {
				t.Errorf("find(%q) = %q, want %q", tt.ref, h.Name, tt.want)
			}
		})
	}
}

func TestRenderLog(t *testing.T) {
	h := models.Habit{Name: "A very long habit name indeed", History: map[string]bool{"2025-03-10": true}}
	out := renderLog([]models.Habit{h}, "2025-03-11", 3)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and one row, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "03/09") || !strings.Contains(lines[0], "03/11") {
		t.Errorf("header = %q, want 03/09 through 03/11", lines[0])
	}
	row := lines[2]
	if !strings.HasPrefix(row, "A very long habit...") {
		t.Errorf("row name not truncated: %q", row)
	}
	if got := strings.Count(row, "x"); got != 1 {
		t.Errorf("row has %d marks, want 1: %q", got, row)
	}
}

func TestRenderWeek(t *testing.T) {
	ws := models.WeeklyStats{
		WeekStart:      "2025-03-09",
		Days:           []models.DayStat{{Date: "2025-03-09", Completed: true}, {Date: "2025-03-10"}},
		CompletedCount: 1,
		Percent:        14,
		CurrentStreak:  0,
		BestStreak:     4,
	}
	out := renderWeek(models.Habit{Name: "Read", Icon: "📚"}, ws)
	for _, want := range []string{"week of 2025-03-09", "[x] Sun 2025-03-09", "[ ] Mon 2025-03-10", "1/7 (14%)", "Best streak:    4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
