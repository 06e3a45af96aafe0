// Package wellbeing holds the mood, gratitude and achievement commands.
// They talk to the habit server directly. Only today's mood is cached so it
// can still be shown offline.
package wellbeing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/auth"
	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
)

type MoodCmd struct {
	Log    MoodLogCmd    `cmd:"" help:"Log today's mood (1-10)."`
	Today  MoodTodayCmd  `cmd:"" help:"Show today's mood."`
	List   MoodListCmd   `cmd:"" help:"List recent moods."`
	Edit   MoodEditCmd   `cmd:"" help:"Change a logged mood."`
	Delete MoodDeleteCmd `cmd:"" help:"Delete a logged mood."`
}

type MoodLogCmd struct {
	Score int    `arg:"" help:"Mood score from 1 (low) to 10 (great)."`
	Note  string `short:"n" help:"Optional note."`
	Date  string `help:"Day to log (default: today)."`
}

func (c *MoodLogCmd) Run(ctx *cli.Context) error {
	if err := checkScore(c.Score); err != nil {
		return err
	}
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	day := c.Date
	if day == "" {
		day = ctx.Today()
	}
	m, err := client.LogMood(bg, api.MoodCreate{Score: c.Score, Note: c.Note, LoggedOn: day})
	if err != nil {
		return auth.Require(err)
	}
	if day == ctx.Today() {
		rememberMood(bg, ctx, day, &m)
	}
	fmt.Printf("Logged mood %d for %s\n", m.Score, m.LoggedOn)
	return nil
}

type MoodTodayCmd struct{}

func (c *MoodTodayCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	day := ctx.Today()
	if ctx.Offline {
		return printCachedMood(bg, ctx, day, nil)
	}
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	m, err := client.TodayMood(bg)
	if err != nil {
		if remote.IsUnauthorized(err) {
			return auth.Require(err)
		}
		return printCachedMood(bg, ctx, day, err)
	}
	rememberMood(bg, ctx, day, m)
	printMood(m)
	return nil
}

func printMood(m *models.Mood) {
	if m == nil {
		fmt.Println("No mood logged today.")
		return
	}
	fmt.Println(formatMood(*m))
}

// printCachedMood shows the mood last fetched for day. fetchErr is returned
// when nothing is cached.
func printCachedMood(ctx context.Context, c *cli.Context, day string, fetchErr error) error {
	store, err := c.Cache(ctx)
	if err != nil {
		return errors.Join(fetchErr, err)
	}
	m, err := store.MoodToday(ctx, day)
	if err != nil {
		if !cache.IsMiss(err) {
			return errors.Join(fetchErr, err)
		}
		if fetchErr != nil {
			return fetchErr
		}
		return errors.New("today's mood is not cached; run without --offline")
	}
	if fetchErr != nil {
		logger.Warn("Showing cached mood", "day", day, "error", fetchErr)
	}
	printMood(m)
	return nil
}

func rememberMood(ctx context.Context, c *cli.Context, day string, m *models.Mood) {
	store, err := c.Cache(ctx)
	if err == nil {
		err = store.SaveMoodToday(ctx, day, m)
	}
	if err != nil {
		logger.Warn("Failed to cache today's mood", "error", err)
	}
}

type MoodListCmd struct {
	Limit int `short:"l" help:"Number of entries to show." default:"14"`
}

func (c *MoodListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	moods, err := client.ListMoods(bg, c.Limit)
	if err != nil {
		return auth.Require(err)
	}
	if len(moods) == 0 {
		fmt.Println("No moods logged.")
		return nil
	}
	for _, m := range moods {
		fmt.Println(formatMood(m))
	}
	return nil
}

type MoodEditCmd struct {
	ID    string  `arg:"" help:"Mood ID."`
	Score *int    `short:"s" help:"New score."`
	Note  *string `short:"n" help:"New note."`
}

func (c *MoodEditCmd) Run(ctx *cli.Context) error {
	if c.Score == nil && c.Note == nil {
		return fmt.Errorf("nothing to change")
	}
	if c.Score != nil {
		if err := checkScore(*c.Score); err != nil {
			return err
		}
	}
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	m, err := client.UpdateMood(bg, c.ID, api.MoodUpdate{Score: c.Score, Note: c.Note})
	if err != nil {
		return auth.Require(err)
	}
	fmt.Println(formatMood(m))
	return nil
}

type MoodDeleteCmd struct {
	ID string `arg:"" help:"Mood ID."`
}

func (c *MoodDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	if err := client.DeleteMood(bg, c.ID); err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Deleted mood %s\n", c.ID)
	return nil
}

type GratitudeCmd struct {
	Add    GratitudeAddCmd    `cmd:"" help:"Write down something you are grateful for."`
	List   GratitudeListCmd   `cmd:"" help:"List gratitude entries."`
	Delete GratitudeDeleteCmd `cmd:"" help:"Delete a gratitude entry."`
}

type GratitudeAddCmd struct {
	Text     []string `arg:"" help:"Entry text."`
	Category string   `short:"c" help:"Optional category."`
}

func (c *GratitudeAddCmd) Run(ctx *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		return fmt.Errorf("entry text is required")
	}
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	g, err := client.AddGratitude(bg, api.GratitudeCreate{Text: text, Category: c.Category})
	if err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Added entry %s\n", g.ID)
	return nil
}

type GratitudeListCmd struct{}

func (c *GratitudeListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	entries, err := client.ListGratitude(bg)
	if err != nil {
		return auth.Require(err)
	}
	if len(entries) == 0 {
		fmt.Println("No entries yet.")
		return nil
	}
	for _, g := range entries {
		cat := ""
		if g.Category != "" {
			cat = " [" + g.Category + "]"
		}
		fmt.Printf("%-6s %s%s  %s\n", g.ID, g.Date, cat, g.Text)
	}
	return nil
}

type GratitudeDeleteCmd struct {
	ID string `arg:"" help:"Entry ID."`
}

func (c *GratitudeDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	if err := client.DeleteGratitude(bg, c.ID); err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Deleted entry %s\n", c.ID)
	return nil
}

type AchievementsCmd struct {
	Earned bool `help:"Only show unlocked achievements."`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	list, err := client.Achievements(bg, c.Earned)
	if err != nil {
		return auth.Require(err)
	}
	if len(list) == 0 {
		fmt.Println("No achievements yet.")
		return nil
	}
	points := 0
	for _, a := range list {
		fmt.Println(formatAchievement(a))
		if a.Earned {
			points += a.Points
		}
	}
	fmt.Printf("\nPoints: %d\n", points)
	return nil
}

func checkScore(score int) error {
	if score < 1 || score > 10 {
		return fmt.Errorf("mood score must be between 1 and 10")
	}
	return nil
}

func formatMood(m models.Mood) string {
	s := fmt.Sprintf("%-6s %s  %2d/10 %s", m.ID, m.LoggedOn, m.Score, strings.Repeat("●", m.Score))
	if m.Note != "" {
		s += "  " + m.Note
	}
	return s
}

func formatAchievement(a models.Achievement) string {
	if a.Earned {
		on := ""
		if a.EarnedDate != nil {
			on = " on " + *a.EarnedDate
		}
		return fmt.Sprintf("✓ %s %s (%d pts) earned%s", a.Icon, a.Title, a.Points, on)
	}
	return fmt.Sprintf("  %s %s %d%% (%d/%d)", a.Icon, a.Title, a.Progress, a.Value, a.Target)
}
