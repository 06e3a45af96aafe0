package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/tui/components/habits"
)

// startedMsg reports the outcome of an asynchronous Start.
type startedMsg struct{ err error }

// habitsChangedMsg follows any habit mutation; the view reloads from the task context.
type habitsChangedMsg struct {
	status string
	err    error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.timerView.SetSize(msg.Width, msg.Height-4)
		m.habitsModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tickMsg:
		if ev := m.deps.Timer.Tick(); ev.Completed {
			m.status = ev.Message
			if ev.Task != nil {
				m.habitsModel.SetHabits(m.deps.Tasks.Habits(), m.deps.Today())
			}
		}
		return m, tick()

	case startedMsg:
		m.err = msg.err
		if msg.err != nil {
			logger.Warn("Timer failed to start", "error", msg.err)
		}
		return m, nil

	case habitsChangedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.habitsModel.SetHabits(m.deps.Tasks.Habits(), m.deps.Today())
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
			if m.state == StateTimer {
				m.state = StateHabits
			} else {
				m.state = StateTimer
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.mutate("Refreshed", func(context.Context) error { return nil })
		}
	}

	if m.state == StateTimer {
		return m.updateTimer(msg)
	}
	return m.updateHabits(msg)
}

func (m Model) updateTimer(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	t := m.deps.Timer
	snap := t.Snapshot()
	m.err = nil

	switch {
	case key.Matches(keyMsg, m.keys.Toggle):
		if t.Running() {
			t.Pause()
			return m, nil
		}
		return m, func() tea.Msg {
			return startedMsg{err: t.Start(context.Background())}
		}
	case key.Matches(keyMsg, m.keys.Reset):
		t.Reset()
	case key.Matches(keyMsg, m.keys.Mode):
		next := models.ModeRegular
		if snap.Mode == models.ModeRegular {
			next = models.ModePomodoro
		}
		m.err = t.SwitchMode(next)
	case key.Matches(keyMsg, m.keys.Work):
		m.err = t.SelectPhase(models.PhaseWork)
	case key.Matches(keyMsg, m.keys.Short):
		m.err = t.SelectPhase(models.PhaseShortBreak)
	case key.Matches(keyMsg, m.keys.Long):
		m.err = t.SelectPhase(models.PhaseLongBreak)
	case key.Matches(keyMsg, m.keys.Up):
		m.err = t.SelectTask(snap.CurrentTaskIndex - 1)
	case key.Matches(keyMsg, m.keys.Down):
		m.err = t.SelectTask(snap.CurrentTaskIndex + 1)
	case key.Matches(keyMsg, m.keys.MoveUp):
		m.err = t.MoveTask(snap.CurrentTaskIndex, snap.CurrentTaskIndex-1)
	case key.Matches(keyMsg, m.keys.MoveDown):
		m.err = t.MoveTask(snap.CurrentTaskIndex, snap.CurrentTaskIndex+1)
	}
	return m, nil
}

func (m Model) updateHabits(msg tea.Msg) (tea.Model, tea.Cmd) {
	day := m.deps.Today()
	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		m.form = newHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()
	case habits.MarkHabitMsg:
		return m, m.mutate("Marked done", func(ctx context.Context) error {
			return m.deps.Habits.ToggleHistory(ctx, msg.ID, day, true)
		})
	case habits.UnmarkHabitMsg:
		return m, m.mutate("Unmarked", func(ctx context.Context) error {
			return m.deps.Habits.ToggleHistory(ctx, msg.ID, day, false)
		})
	case habits.DeleteHabitMsg:
		m.habitToDelete = msg.ID
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	m.habitsModel, cmd = m.habitsModel.Update(msg)
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		h := m.habitForm.Habit()
		m.state = StateHabits
		return m, tea.Batch(cmd, m.mutate(fmt.Sprintf("Added %s", h.Name), func(ctx context.Context) error {
			_, err := m.deps.Habits.Create(ctx, h)
			return err
		}))
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.habitToDelete
		m.habitToDelete = ""
		m.state = StateHabits
		return m, m.mutate("Deleted", func(ctx context.Context) error {
			return m.deps.Habits.Remove(ctx, id)
		})
	case "n", "N", "esc", "q":
		m.habitToDelete = ""
		m.state = StateHabits
	}
	return m, nil
}

// mutate runs fn off the UI goroutine and then reloads the shared task
// context, which in turn feeds the timer.
func (m Model) mutate(status string, fn func(ctx context.Context) error) tea.Cmd {
	tasks := m.deps.Tasks
	return func() tea.Msg {
		ctx := context.Background()
		if err := fn(ctx); err != nil {
			return habitsChangedMsg{err: err}
		}
		return habitsChangedMsg{status: status, err: tasks.RefreshHabits(ctx)}
	}
}
