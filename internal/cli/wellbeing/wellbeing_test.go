package wellbeing

import (
	"context"
	"strings"
	"testing"

	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/models"
)

func TestCheckScore(t *testing.T) {
	for _, tt := range []struct {
		score int
		ok    bool
	}{{0, false}, {1, true}, {10, true}, {11, false}} {
		err := checkScore(tt.score)
		if (err == nil) != tt.ok {
			t.Errorf("checkScore(%d) = %v, want ok=%v", tt.score, err, tt.ok)
		}
	}
}

func TestFormatAchievement(t *testing.T) {
	day := "2025-03-11"
	tests := []struct {
		name string
		a    models.Achievement
		want string
	}{
		{
			name: "earned",
			a:    models.Achievement{Title: "First Steps", Icon: "🌱", Points: 10, Earned: true, EarnedDate: &day},
			want: "✓ 🌱 First Steps (10 pts) earned on 2025-03-11",
		},
		{
			name: "in progress",
			a:    models.Achievement{Title: "Week Warrior", Icon: "🔥", Progress: 42, Value: 3, Target: 7},
			want: "  🔥 Week Warrior 42% (3/7)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAchievement(tt.a); got != tt.want {
				t.Errorf("formatAchievement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatMood(t *testing.T) {
	got := formatMood(models.Mood{ID: "7", LoggedOn: "2025-03-11", Score: 3, Note: "tired"})
	if !strings.Contains(got, " 3/10 ●●●  tired") {
		t.Errorf("formatMood() = %q", got)
	}
}

func TestMoodTodayOffline(t *testing.T) {
	ctx, err := cli.NewContext(cli.Globals{ConfigDir: t.TempDir(), CacheSpec: "memory", Timezone: "UTC", Offline: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ctx.Close)

	cmd := &MoodTodayCmd{}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected an error with nothing cached")
	}

	rememberMood(context.Background(), ctx, ctx.Today(), &models.Mood{ID: "1", Score: 8, LoggedOn: ctx.Today()})
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("Run() with a cached mood = %v", err)
	}
}
