// Package timer implements the focus timer: a plain countdown per task in
// regular mode, or work/short-break/long-break cycles in pomodoro mode.
//
// Machine is safe for concurrent use. Side effects (session pushes, remote
// completion, notifications, snapshot writes) run after the internal lock
// is released, so callbacks may call back into the Machine.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/notifier"
	"github.com/julianstephens/bloomup/internal/utils"
)

var (
	ErrRunning   = errors.New("timer is running")
	ErrNoTask    = errors.New("no task selected")
	ErrWrongMode = errors.New("not available in this mode")
)

// Sessions records work against the server-side session of a task.
type Sessions interface {
	EnsureSessionForTask(ctx context.Context, task models.Task) (models.Session, error)
	UpdateSessionProgress(task models.Task, elapsedSeconds int)
	Checkpoint(task models.Task, elapsedSeconds int)
	Complete(task models.Task, elapsedSeconds int)
}

// Completer marks a habit done for a day.
type Completer interface {
	ToggleHistory(ctx context.Context, id, day string, done bool) error
}

// TaskSource is the shared task list. CompleteTask flips local state only.
type TaskSource interface {
	CompleteTask(id string) bool
}

type SnapshotStore interface {
	Timer(ctx context.Context) (models.TimerSnapshot, error)
	SaveTimer(ctx context.Context, snap models.TimerSnapshot) error
}

type Config struct {
	Sessions Sessions
	Habits   Completer
	Tasks    TaskSource
	// Store and Notifier are optional.
	Store    SnapshotStore
	Notifier notifier.Sender
	Today    func() string
}

// Event describes what a Tick did beyond counting down.
type Event struct {
	Completed bool
	From, To  models.Phase
	// Task is set when a task was finished by this tick.
	Task    *models.Task
	AllDone bool
	Message string
}

type Machine struct {
	cfg Config
	bg  sync.WaitGroup

	mu        sync.Mutex
	mode      models.TimerMode
	phase     models.Phase
	timeLeft  int
	elapsed   int
	index     int
	workDone  int
	running   bool
	tasks     []models.Task
	order     []string
	currentID string
}

func New(cfg Config) *Machine {
	if cfg.Today == nil {
		cfg.Today = func() string { return utils.FormatDate(time.Now()) }
	}
	return &Machine{
		cfg:      cfg,
		mode:     models.ModePomodoro,
		phase:    models.PhaseWork,
		timeLeft: phaseSeconds(models.PhaseWork),
	}
}

func phaseSeconds(p models.Phase) int {
	switch p {
	case models.PhaseShortBreak:
		return int(constants.PomodoroShortBreak / time.Second)
	case models.PhaseLongBreak:
		return int(constants.PomodoroLongBreak / time.Second)
	}
	return int(constants.PomodoroWork / time.Second)
}

// effects run after the lock is released
type effects []func()

func (e *effects) add(fn func()) { *e = append(*e, fn) }

func (e effects) run() {
	for _, fn := range e {
		fn()
	}
}

func (m *Machine) locked(fn func(fx *effects) error) error {
	var fx effects
	m.mu.Lock()
	err := fn(&fx)
	if err == nil {
		snap := m.snapshotLocked()
		fx.add(func() { m.persist(snap) })
	}
	m.mu.Unlock()
	fx.run()
	return err
}

// Start begins counting. In regular mode and pomodoro work phases the
// task's session is ensured first; failure leaves the timer paused.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	needsTask := m.mode == models.ModeRegular || m.phase == models.PhaseWork
	task, ok := m.currentLocked()
	m.mu.Unlock()

	if needsTask && !ok {
		return ErrNoTask
	}
	if needsTask && m.cfg.Sessions != nil {
		if _, err := m.cfg.Sessions.EnsureSessionForTask(ctx, task); err != nil {
			return fmt.Errorf("could not start session for %s: %w", task.Name, err)
		}
	}

	return m.locked(func(fx *effects) error {
		if cur, ok := m.currentLocked(); needsTask && (!ok || cur.ID != task.ID) {
			return fmt.Errorf("task changed while starting: %w", ErrNoTask)
		}
		m.running = true
		if needsTask && m.cfg.Sessions != nil {
			elapsed := m.elapsed
			fx.add(func() { m.cfg.Sessions.UpdateSessionProgress(task, elapsed) })
		}
		logger.Debug("Timer started", "mode", m.mode, "phase", m.phase, "task", task.Name)
		return nil
	})
}

// Pause stops counting. In regular mode the elapsed time is checkpointed.
func (m *Machine) Pause() {
	_ = m.locked(func(fx *effects) error {
		if !m.running {
			return nil
		}
		m.running = false
		if task, ok := m.currentLocked(); ok && m.mode == models.ModeRegular && m.cfg.Sessions != nil {
			elapsed := m.elapsed
			fx.add(func() { m.cfg.Sessions.Checkpoint(task, elapsed) })
		}
		return nil
	})
}

// Toggle starts a paused timer or pauses a running one.
func (m *Machine) Toggle(ctx context.Context) error {
	if m.Running() {
		m.Pause()
		return nil
	}
	return m.Start(ctx)
}

// Tick advances the timer by one second.
func (m *Machine) Tick() Event {
	var ev Event
	_ = m.locked(func(fx *effects) error {
		if !m.running {
			return nil
		}
		if m.timeLeft > 0 {
			m.timeLeft--
			if m.countsElapsed() {
				m.elapsed++
				if task, ok := m.currentLocked(); ok && m.cfg.Sessions != nil && m.elapsed%constants.ProgressPushEvery == 0 {
					elapsed := m.elapsed
					fx.add(func() { m.cfg.Sessions.UpdateSessionProgress(task, elapsed) })
				}
			}
		}
		if m.timeLeft == 0 {
			ev = m.completeLocked(fx)
		}
		return nil
	})
	return ev
}

func (m *Machine) countsElapsed() bool {
	return m.mode == models.ModeRegular || m.phase == models.PhaseWork
}

func (m *Machine) completeLocked(fx *effects) Event {
	m.running = false
	ev := Event{Completed: true, From: m.phase}

	if m.mode == models.ModeRegular {
		if task, ok := m.currentLocked(); ok {
			m.finishTaskLocked(fx, task)
			ev.Task = &task
			m.advanceLocked()
		}
		ev.AllDone = !m.hasCurrentLocked()
		m.resetLocked()
		ev.To = m.phase
	} else {
		switch m.phase {
		case models.PhaseWork:
			task, ok := m.currentLocked()
			m.workDone++
			if ok && m.workDone >= task.RequiredPomos {
				m.finishTaskLocked(fx, task)
				ev.Task = &task
				m.advanceLocked()
				m.workDone = 0
				if !m.hasCurrentLocked() {
					ev.AllDone = true
					m.resetLocked()
					break
				}
			}
			m.setPhaseLocked(models.PhaseShortBreak)
		case models.PhaseShortBreak:
			m.setPhaseLocked(models.PhaseLongBreak)
		case models.PhaseLongBreak:
			m.setPhaseLocked(models.PhaseWork)
			m.downgradeLocked()
		}
		ev.To = m.phase
	}

	name := ""
	if ev.Task != nil {
		name = ev.Task.Name
	} else if task, ok := m.currentLocked(); ok {
		name = task.Name
	}
	ev.Message = notifier.PhaseMessage(name, ev.From, ev.To, ev.AllDone)
	if ev.Message == "" && ev.Task != nil {
		ev.Message = fmt.Sprintf("%s completed!", ev.Task.Name)
	}
	if msg := ev.Message; msg != "" && m.cfg.Notifier != nil {
		m.background(func() {
			if err := m.cfg.Notifier.Notify(msg); err != nil {
				logger.Debug("Notification not delivered", "error", err)
			}
		})
	}
	logger.Info("Timer completed", "mode", m.mode, "from", ev.From, "to", ev.To, "allDone", ev.AllDone)
	return ev
}

// finishTaskLocked records task as done: final session state, remote
// completion for today and the local optimistic mark.
func (m *Machine) finishTaskLocked(fx *effects, task models.Task) {
	m.tasks[m.index].Completed = true
	elapsed := m.elapsed
	day := m.cfg.Today()
	if m.cfg.Sessions != nil {
		fx.add(func() { m.cfg.Sessions.Complete(task, elapsed) })
	}
	if m.cfg.Habits != nil {
		m.background(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.cfg.Habits.ToggleHistory(ctx, task.ID, day, true); err != nil {
				logger.Warn("Failed to mark habit complete", "habit", task.ID, "day", day, "error", err)
			}
		})
	}
	if m.cfg.Tasks != nil {
		fx.add(func() { m.cfg.Tasks.CompleteTask(task.ID) })
	}
}

func (m *Machine) background(fn func()) {
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		fn()
	}()
}

// Wait blocks until background completion calls and notifications finish.
func (m *Machine) Wait() {
	m.bg.Wait()
}

func (m *Machine) advanceLocked() {
	m.elapsed = 0
	m.index++
	for m.index < len(m.tasks) && m.tasks[m.index].Completed {
		m.index++
	}
	m.syncCurrentLocked()
}

func (m *Machine) setPhaseLocked(p models.Phase) {
	m.phase = p
	m.timeLeft = phaseSeconds(p)
}

// resetLocked reloads time left for the current mode and task.
func (m *Machine) resetLocked() {
	m.running = false
	m.elapsed = 0
	if m.mode == models.ModePomodoro {
		m.setPhaseLocked(models.PhaseWork)
		return
	}
	m.phase = models.PhaseWork
	if task, ok := m.currentLocked(); ok {
		m.timeLeft = task.Minutes * 60
	} else {
		m.timeLeft = phaseSeconds(models.PhaseWork)
	}
}

// downgradeLocked leaves pomodoro for tasks too short for a full pomodoro.
func (m *Machine) downgradeLocked() {
	if m.mode != models.ModePomodoro || m.phase != models.PhaseWork {
		return
	}
	task, ok := m.currentLocked()
	if !ok || task.Minutes >= constants.PomodoroMinutes {
		return
	}
	logger.Info("Task shorter than a pomodoro, switching to regular mode", "task", task.Name, "minutes", task.Minutes)
	m.mode = models.ModeRegular
	m.workDone = 0
	m.resetLocked()
}

// Reset stops the timer and reloads the current task's time.
func (m *Machine) Reset() {
	_ = m.locked(func(*effects) error {
		m.resetLocked()
		return nil
	})
}

// SwitchMode changes mode, clearing elapsed time and pomodoro progress.
func (m *Machine) SwitchMode(mode models.TimerMode) error {
	if mode != models.ModePomodoro && mode != models.ModeRegular {
		return fmt.Errorf("unknown timer mode %q", mode)
	}
	return m.locked(func(*effects) error {
		if m.running {
			return ErrRunning
		}
		m.mode = mode
		m.workDone = 0
		m.resetLocked()
		m.downgradeLocked()
		return nil
	})
}

// SelectTask makes task i current.
func (m *Machine) SelectTask(i int) error {
	return m.locked(func(*effects) error {
		if m.running {
			return ErrRunning
		}
		if i < 0 || i >= len(m.tasks) {
			return fmt.Errorf("task %d out of range: %w", i+1, ErrNoTask)
		}
		m.index = i
		m.syncCurrentLocked()
		m.workDone = 0
		m.resetLocked()
		m.downgradeLocked()
		return nil
	})
}

// MoveTask reorders the task list and makes the moved task current.
func (m *Machine) MoveTask(from, to int) error {
	return m.locked(func(*effects) error {
		if m.running {
			return ErrRunning
		}
		n := len(m.tasks)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("move %d→%d out of range: %w", from+1, to+1, ErrNoTask)
		}
		t := m.tasks[from]
		m.tasks = append(m.tasks[:from], m.tasks[from+1:]...)
		m.tasks = append(m.tasks[:to], append([]models.Task{t}, m.tasks[to:]...)...)
		m.order = m.order[:0]
		for _, t := range m.tasks {
			m.order = append(m.order, t.ID)
		}
		m.index = to
		m.syncCurrentLocked()
		m.workDone = 0
		m.resetLocked()
		m.downgradeLocked()
		return nil
	})
}

// SelectPhase jumps to a pomodoro phase and stops the timer.
func (m *Machine) SelectPhase(p models.Phase) error {
	return m.locked(func(*effects) error {
		if m.mode != models.ModePomodoro {
			return ErrWrongMode
		}
		switch p {
		case models.PhaseWork, models.PhaseShortBreak, models.PhaseLongBreak:
		default:
			return fmt.Errorf("unknown phase %q", p)
		}
		m.running = false
		m.setPhaseLocked(p)
		return nil
	})
}

// SetTasks replaces the task list, keeping the saved order and the
// current task when it is still present.
func (m *Machine) SetTasks(tasks []models.Task) {
	_ = m.locked(func(*effects) error {
		m.tasks = orderTasks(tasks, m.order)
		if i := m.indexOfLocked(m.currentID); i >= 0 {
			m.index = i
			if !m.running && m.elapsed == 0 && m.mode == models.ModeRegular {
				m.timeLeft = m.tasks[i].Minutes * 60
			}
			return nil
		}

		m.index = 0
		for m.index < len(m.tasks) && m.tasks[m.index].Completed {
			m.index++
		}
		m.syncCurrentLocked()
		m.workDone = 0
		m.resetLocked()
		m.downgradeLocked()
		return nil
	})
}

func orderTasks(tasks []models.Task, order []string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	used := make(map[string]bool, len(tasks))
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, id := range order {
		if t, ok := byID[id]; ok && !used[id] {
			out = append(out, t)
			used[id] = true
		}
	}
	for _, t := range tasks {
		if !used[t.ID] {
			out = append(out, t)
			used[t.ID] = true
		}
	}
	return out
}

func (m *Machine) indexOfLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Machine) syncCurrentLocked() {
	if t, ok := m.currentLocked(); ok {
		m.currentID = t.ID
	} else {
		m.currentID = ""
	}
}

func (m *Machine) currentLocked() (models.Task, bool) {
	if m.index < 0 || m.index >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.index], true
}

func (m *Machine) hasCurrentLocked() bool {
	_, ok := m.currentLocked()
	return ok
}

// Restore applies the saved snapshot if it was written today. The timer
// always comes back paused.
func (m *Machine) Restore(ctx context.Context) (bool, error) {
	if m.cfg.Store == nil {
		return false, nil
	}
	snap, err := m.cfg.Store.Timer(ctx)
	if err != nil {
		return false, err
	}
	if snap.Day != m.cfg.Today() {
		logger.Debug("Discarding timer state from another day", "saved", snap.Day)
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Mode == models.ModeRegular || snap.Mode == models.ModePomodoro {
		m.mode = snap.Mode
	}
	switch snap.Phase {
	case models.PhaseWork, models.PhaseShortBreak, models.PhaseLongBreak:
		m.phase = snap.Phase
	}
	m.timeLeft = max(snap.TimeLeftSeconds, 0)
	m.elapsed = max(snap.ElapsedSeconds, 0)
	m.workDone = max(snap.WorkSessionsCompleted, 0)
	m.order = append([]string(nil), snap.TaskOrder...)
	m.running = false
	m.index = max(snap.CurrentTaskIndex, 0)
	m.currentID = ""
	if m.index < len(m.order) {
		m.currentID = m.order[m.index]
	}
	if len(m.tasks) > 0 {
		m.tasks = orderTasks(m.tasks, m.order)
		if i := m.indexOfLocked(m.currentID); i >= 0 {
			m.index = i
		}
	}
	return true, nil
}

func (m *Machine) persist(snap models.TimerSnapshot) {
	if m.cfg.Store == nil {
		return
	}
	if err := m.cfg.Store.SaveTimer(context.Background(), snap); err != nil {
		logger.Warn("Failed to save timer state", "error", err)
	}
}

func (m *Machine) snapshotLocked() models.TimerSnapshot {
	order := m.order
	if len(m.tasks) > 0 {
		order = make([]string, len(m.tasks))
		for i, t := range m.tasks {
			order[i] = t.ID
		}
	}
	return models.TimerSnapshot{
		Day:                   m.cfg.Today(),
		Mode:                  m.mode,
		Phase:                 m.phase,
		TimeLeftSeconds:       m.timeLeft,
		ElapsedSeconds:        m.elapsed,
		CurrentTaskIndex:      m.index,
		WorkSessionsCompleted: m.workDone,
		Running:               m.running,
		TaskOrder:             append([]string(nil), order...),
	}
}

func (m *Machine) Snapshot() models.TimerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Machine) Tasks() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Task(nil), m.tasks...)
}

func (m *Machine) Current() (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

// SessionLabel renders pomodoro progress on the current task, e.g. "Session 2 of 3".
func (m *Machine) SessionLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.currentLocked()
	if !ok {
		return "Session 1 of 1"
	}
	return fmt.Sprintf("Session %d of %d", min(m.workDone+1, task.RequiredPomos), task.RequiredPomos)
}

// Completed returns how many tasks are done and their total minutes.
func (m *Machine) Completed() (count, minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Completed {
			count++
			minutes += t.Minutes
		}
	}
	return count, minutes
}

// Duration is the full length of the current countdown in seconds.
func (m *Machine) Duration() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == models.ModeRegular {
		if task, ok := m.currentLocked(); ok {
			return task.Minutes * 60
		}
	}
	return phaseSeconds(m.phase)
}
