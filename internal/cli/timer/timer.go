package timer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/timer"
	"github.com/julianstephens/bloomup/internal/tui"
	"github.com/julianstephens/bloomup/internal/utils"
)

type TimerCmd struct {
	UI     TimerUICmd     `cmd:"" default:"1" help:"Open the interactive timer (default)."`
	Run    TimerRunCmd    `cmd:"" help:"Run the timer in the terminal without the full-screen UI."`
	Status TimerStatusCmd `cmd:"" help:"Show the saved timer state."`
	Reset  TimerResetCmd  `cmd:"" help:"Reset the countdown for the current phase."`
}

type TimerUICmd struct {
	NoNotify bool `help:"Do not send desktop notifications."`
}

func (c *TimerUICmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	m, err := ctx.Timer(bg, !c.NoNotify)
	if err != nil {
		return err
	}
	tasks, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	habits, err := ctx.Habits(bg)
	if err != nil {
		return err
	}
	return tui.Run(tui.Deps{Timer: m, Tasks: tasks, Habits: habits, Today: ctx.Today})
}

type TimerRunCmd struct {
	Mode     string `help:"Timer mode." enum:"pomodoro,regular," default:""`
	Task     string `short:"t" help:"Habit name or position (1-based) to work on."`
	Phase    string `help:"Jump to a pomodoro phase first." enum:"work,short_break,long_break," default:""`
	Continue bool   `short:"c" help:"Keep going through phases until every task is done."`
	NoNotify bool   `help:"Do not send desktop notifications."`
}

func (c *TimerRunCmd) Run(ctx *cli.Context) error {
	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := ctx.Timer(bg, !c.NoNotify)
	if err != nil {
		return err
	}
	if err := c.configure(m); err != nil {
		return err
	}

	for {
		if err := m.Start(bg); err != nil {
			return err
		}
		fmt.Println(header(m))

		var last timer.Event
		r := timer.Runner{Machine: m, OnTick: func(ev timer.Event) {
			fmt.Printf("\r%s  ", utils.FormatClock(m.Snapshot().TimeLeftSeconds))
			if ev.Completed {
				last = ev
			}
		}}
		if err := r.Run(bg); err != nil {
			fmt.Println()
			fmt.Println("Paused. Run 'bloomup timer run' to pick up where you left off.")
			return nil
		}
		fmt.Println()
		if last.Message != "" {
			fmt.Println(last.Message)
		}
		if last.AllDone || !c.Continue {
			return nil
		}
	}
}

func (c *TimerRunCmd) configure(m *timer.Machine) error {
	if c.Mode != "" {
		if err := m.SwitchMode(models.TimerMode(c.Mode)); err != nil {
			return err
		}
	}
	if c.Task != "" {
		i, err := taskIndex(m.Tasks(), c.Task)
		if err != nil {
			return err
		}
		if err := m.SelectTask(i); err != nil {
			return err
		}
	}
	if c.Phase != "" {
		if err := m.SelectPhase(models.Phase(c.Phase)); err != nil {
			return err
		}
	}
	return nil
}

type TimerStatusCmd struct{}

func (c *TimerStatusCmd) Run(ctx *cli.Context) error {
	m, err := ctx.Timer(context.Background(), false)
	if err != nil {
		return err
	}
	snap := m.Snapshot()
	fmt.Println(header(m))
	fmt.Printf("Time left: %s of %s\n", utils.FormatClock(snap.TimeLeftSeconds), utils.FormatClock(m.Duration()))
	count, minutes := m.Completed()
	fmt.Printf("Done today: %d/%d tasks, %d min\n", count, len(m.Tasks()), minutes)
	return nil
}

type TimerResetCmd struct{}

func (c *TimerResetCmd) Run(ctx *cli.Context) error {
	m, err := ctx.Timer(context.Background(), false)
	if err != nil {
		return err
	}
	m.Reset()
	m.Wait()
	fmt.Println("Timer reset.")
	return nil
}

func header(m *timer.Machine) string {
	snap := m.Snapshot()
	task, ok := m.Current()
	if !ok {
		return fmt.Sprintf("[%s] no tasks for today", snap.Mode)
	}
	if snap.Mode == models.ModeRegular {
		return fmt.Sprintf("[regular] %s %s", task.Icon, task.Name)
	}
	return fmt.Sprintf("[%s] %s %s, %s", phaseName(snap.Phase), task.Icon, task.Name, m.SessionLabel())
}

func phaseName(p models.Phase) string {
	switch p {
	case models.PhaseShortBreak:
		return "short break"
	case models.PhaseLongBreak:
		return "long break"
	default:
		return "work"
	}
}

// taskIndex accepts a 1-based position or a habit name.
func taskIndex(tasks []models.Task, ref string) (int, error) {
	if pos, err := strconv.Atoi(ref); err == nil {
		if pos < 1 || pos > len(tasks) {
			return 0, fmt.Errorf("task %d out of range (1-%d)", pos, len(tasks))
		}
		return pos - 1, nil
	}
	for i, t := range tasks {
		if t.Name == ref || t.ID == ref {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no task named %q today", ref)
}
