package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/bloomup/internal/auth"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/facade"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
	Mark   HabitMarkCmd   `cmd:"" help:"Mark a habit as done for a day."`
	Unmark HabitUnmarkCmd `cmd:"" help:"Clear a habit's completion for a day."`
	Log    HabitLogCmd    `cmd:"" help:"Show habit log (ASCII history)."`
	Stats  HabitStatsCmd  `cmd:"" help:"Show weekly stats for a habit, or the account summary."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Category string `short:"c" help:"Category name." default:"General"`
	Icon     string `short:"i" help:"Icon shown next to the habit."`
	Duration int    `short:"d" help:"Daily target in minutes." default:"30"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Habits(bg)
	if err != nil {
		return err
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	list, err := f.List(bg)
	if err != nil {
		return auth.Require(err)
	}
	if _, err := find(list, c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	h, err := f.Create(bg, models.Habit{
		Name:            strings.TrimSpace(c.Name),
		Category:        models.Category{Name: c.Category},
		Icon:            c.Icon,
		DurationMinutes: c.Duration,
	})
	if err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Added habit: %s %s (%d min, %s)\n", h.Icon, h.Name, h.DurationMinutes, h.Category.Name)
	return nil
}

type HabitListCmd struct {
	All bool `help:"Include inactive habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Habits(bg)
	if err != nil {
		return err
	}
	list, err := f.List(bg)
	if err != nil {
		return auth.Require(err)
	}

	shown := 0
	today := ctx.Today()
	for _, h := range list {
		if !h.IsActive && !c.All {
			continue
		}
		status := ""
		if !h.IsActive {
			status = " [INACTIVE]"
		}
		fmt.Printf("%-8s %s %-24s %4d min  %-12s streak %d (best %d)%s\n",
			short(h.ID), h.Icon, h.Name, h.DurationMinutes, h.Category.Name,
			models.CurrentStreak(h.History, today), h.BestStreak, status)
		shown++
	}
	if shown == 0 {
		fmt.Println("No habits found.")
	}
	return nil
}

type HabitEditCmd struct {
	Habit    string  `arg:"" help:"Habit name or ID."`
	Name     *string `help:"New habit name."`
	Category *string `short:"c" help:"New category name."`
	Icon     *string `short:"i" help:"New icon."`
	Duration *int    `short:"d" help:"New daily target in minutes."`
	Active   *bool   `help:"Set active status."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, h, err := resolve(bg, ctx, c.Habit)
	if err != nil {
		return err
	}
	patch := models.HabitPatch{
		Name:            c.Name,
		CategoryName:    c.Category,
		Icon:            c.Icon,
		DurationMinutes: c.Duration,
		IsActive:        c.Active,
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to change")
	}
	updated, err := f.Update(bg, h.ID, patch)
	if err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Updated habit: %s\n", updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, h, err := resolve(bg, ctx, c.Habit)
	if err != nil {
		return err
	}
	if err := f.Remove(bg, h.ID); err != nil {
		return auth.Require(err)
	}
	fmt.Printf("Deleted habit: %s\n", h.Name)
	return nil
}

type HabitMarkCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitMarkCmd) Run(ctx *cli.Context) error {
	return toggle(ctx, c.Habit, c.Date, true)
}

type HabitUnmarkCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitUnmarkCmd) Run(ctx *cli.Context) error {
	return toggle(ctx, c.Habit, c.Date, false)
}

func toggle(ctx *cli.Context, ref, day string, done bool) error {
	bg := context.Background()
	if day == "" {
		day = ctx.Today()
	} else if !utils.ValidateDate(day) {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	f, h, err := resolve(bg, ctx, ref)
	if err != nil {
		return err
	}
	if err := f.ToggleHistory(bg, h.ID, day, done); err != nil {
		return auth.Require(err)
	}
	if done {
		fmt.Printf("Marked habit %q for %s\n", h.Name, day)
	} else {
		fmt.Printf("Unmarked habit %q for %s\n", h.Name, day)
	}
	return nil
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	f, err := ctx.Habits(bg)
	if err != nil {
		return err
	}
	list, err := f.List(bg)
	if err != nil {
		return auth.Require(err)
	}

	var selected []models.Habit
	if c.Habit != "" {
		h, err := find(list, c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		for _, h := range list {
			if h.IsActive {
				selected = append(selected, h)
			}
		}
	}
	if len(selected) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	fmt.Printf("Habit log (last %d days):\n\n", c.Days)
	fmt.Print(renderLog(selected, ctx.Today(), c.Days))
	return nil
}

type HabitStatsCmd struct {
	Habit string `arg:"" optional:"" help:"Habit name or ID. Omit for the account summary."`
	Date  string `help:"Any day of the week to report (default: today)."`
}

func (c *HabitStatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Habit == "" {
		client, err := ctx.RequireLogin(bg)
		if err != nil {
			return err
		}
		sum, err := client.HabitSummary(bg)
		if err != nil {
			return auth.Require(err)
		}
		fmt.Printf("Habits:          %d (%d active)\n", sum.TotalHabits, sum.ActiveHabits)
		fmt.Printf("Completed today: %d\n", sum.CompletedToday)
		fmt.Printf("Best streak:     %d\n", sum.BestStreak)
		fmt.Printf("Focus sessions:  %d (%s)\n", sum.TotalSessions, utils.FormatClock(sum.FocusSeconds))
		return nil
	}

	day := c.Date
	if day == "" {
		day = ctx.Today()
	}
	f, h, err := resolve(bg, ctx, c.Habit)
	if err != nil {
		return err
	}
	ws, err := f.WeeklyStats(bg, h.ID, day)
	if err != nil {
		return auth.Require(err)
	}
	fmt.Print(renderWeek(h, ws))
	return nil
}

// resolve finds ref among the current habits.
func resolve(ctx context.Context, c *cli.Context, ref string) (*facade.Facade, models.Habit, error) {
	f, err := c.Habits(ctx)
	if err != nil {
		return nil, models.Habit{}, err
	}
	list, err := f.List(ctx)
	if err != nil {
		return nil, models.Habit{}, auth.Require(err)
	}
	h, err := find(list, ref)
	return f, h, err
}

// find matches an exact ID first, then a case-insensitive name, then a
// unique ID prefix.
func find(list []models.Habit, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	for _, h := range list {
		if h.ID == ref {
			return h, nil
		}
	}
	for _, h := range list {
		if strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}
	var match []models.Habit
	for _, h := range list {
		if ref != "" && strings.HasPrefix(h.ID, ref) {
			match = append(match, h)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	default:
		return models.Habit{}, fmt.Errorf("habit %q is ambiguous, %d habits match", ref, len(match))
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
