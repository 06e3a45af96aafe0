package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/models"
)

const today = "2024-06-01"

type call struct {
	kind    string
	task    string
	elapsed int
}

type recorder struct {
	mu        sync.Mutex
	calls     []call
	ensureErr error
	marked    []string
	completed []string
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) EnsureSessionForTask(_ context.Context, t models.Task) (models.Session, error) {
	if r.ensureErr != nil {
		return models.Session{}, r.ensureErr
	}
	r.add(call{"ensure", t.ID, 0})
	return models.Session{ID: "s-" + models.FlexID(t.ID)}, nil
}
func (r *recorder) UpdateSessionProgress(t models.Task, e int) { r.add(call{"progress", t.ID, e}) }
func (r *recorder) Checkpoint(t models.Task, e int)            { r.add(call{"checkpoint", t.ID, e}) }
func (r *recorder) Complete(t models.Task, e int)              { r.add(call{"complete", t.ID, e}) }

func (r *recorder) ToggleHistory(_ context.Context, id, day string, done bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done {
		r.marked = append(r.marked, id+"@"+day)
	}
	return nil
}

func (r *recorder) CompleteTask(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, id)
	return true
}

func (r *recorder) find(kind string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func newMachine(t *testing.T, rec *recorder, store SnapshotStore) *Machine {
	t.Helper()
	return New(Config{
		Sessions: rec,
		Habits:   rec,
		Tasks:    rec,
		Store:    store,
		Today:    func() string { return today },
	})
}

func task(id, name string, minutes int) models.Task {
	return models.Task{ID: id, Name: name, Minutes: minutes, RequiredPomos: models.RequiredPomos(minutes)}
}

func ticks(m *Machine, n int) Event {
	var last Event
	for i := 0; i < n; i++ {
		if ev := m.Tick(); ev.Completed {
			last = ev
		}
	}
	return last
}

func TestRegularTaskScenario(t *testing.T) {
	rec := &recorder{}
	m := newMachine(t, rec, nil)
	m.SetTasks([]models.Task{task("42", "drink water", 30), task("43", "stretch", 10)})
	if err := m.SwitchMode(models.ModeRegular); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snap := m.Snapshot()
	if snap.ElapsedSeconds != 0 || snap.TimeLeftSeconds != 1800 {
		t.Fatalf("initial state = %+v", snap)
	}

	var ev Event
	for i := 1; i <= 1800; i++ {
		ev = m.Tick()
		s := m.Snapshot()
		if i < 1800 && s.ElapsedSeconds+s.TimeLeftSeconds != 1800 {
			t.Fatalf("tick %d: elapsed %d + left %d != 1800", i, s.ElapsedSeconds, s.TimeLeftSeconds)
		}
	}
	m.Wait()

	if !ev.Completed || ev.Task == nil || ev.Task.ID != "42" || ev.AllDone {
		t.Fatalf("final event = %+v", ev)
	}
	done := rec.find("complete")
	if len(done) != 1 || done[0].elapsed != 1800 {
		t.Errorf("session completions = %+v", done)
	}
	if len(rec.marked) != 1 || rec.marked[0] != "42@"+today {
		t.Errorf("remote marks = %v", rec.marked)
	}
	if len(rec.completed) != 1 || rec.completed[0] != "42" {
		t.Errorf("local completions = %v", rec.completed)
	}

	snap = m.Snapshot()
	if snap.Running || snap.CurrentTaskIndex != 1 || snap.TimeLeftSeconds != 600 || snap.ElapsedSeconds != 0 {
		t.Errorf("after completion = %+v", snap)
	}
	if count, minutes := m.Completed(); count != 1 || minutes != 30 {
		t.Errorf("Completed() = %d, %d", count, minutes)
	}
}

func TestRegularLastTaskHalts(t *testing.T) {
	rec := &recorder{}
	m := newMachine(t, rec, nil)
	m.SetTasks([]models.Task{task("1", "walk", 1)})
	_ = m.SwitchMode(models.ModeRegular)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ev := ticks(m, 60)
	if !ev.AllDone {
		t.Errorf("event = %+v, want AllDone", ev)
	}
	if _, ok := m.Current(); ok {
		t.Error("no task should be current")
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrNoTask) {
		t.Errorf("Start() with no tasks left = %v, want ErrNoTask", err)
	}
}

func TestPomodoroCycle(t *testing.T) {
	rec := &recorder{}
	m := newMachine(t, rec, nil)
	m.SetTasks([]models.Task{task("7", "read", 75), task("8", "write", 50)})
	ctx := context.Background()

	phaseTicks := map[models.Phase]int{
		models.PhaseWork:       25 * 60,
		models.PhaseShortBreak: 5 * 60,
		models.PhaseLongBreak:  15 * 60,
	}
	run := func(want models.Phase) Event {
		t.Helper()
		if got := m.Snapshot().Phase; got != want {
			t.Fatalf("phase = %s, want %s", got, want)
		}
		if err := m.Start(ctx); err != nil {
			t.Fatal(err)
		}
		ev := ticks(m, phaseTicks[want])
		if !ev.Completed {
			t.Fatalf("%s did not complete", want)
		}
		return ev
	}

	for i := 1; i <= 2; i++ {
		run(models.PhaseWork)
		if got := m.Snapshot().WorkSessionsCompleted; got != i {
			t.Fatalf("work sessions = %d, want %d", got, i)
		}
		if label := m.SessionLabel(); label != []string{"", "Session 2 of 3", "Session 3 of 3"}[i] {
			t.Errorf("label = %q", label)
		}
		run(models.PhaseShortBreak)
		if got := m.Snapshot().Phase; got != models.PhaseLongBreak {
			t.Fatalf("short break should lead to long break, got %s", got)
		}
		run(models.PhaseLongBreak)
	}

	ev := run(models.PhaseWork)
	m.Wait()
	if ev.Task == nil || ev.Task.ID != "7" || ev.To != models.PhaseShortBreak {
		t.Fatalf("third pomodoro event = %+v", ev)
	}
	snap := m.Snapshot()
	if snap.WorkSessionsCompleted != 0 || snap.CurrentTaskIndex != 1 {
		t.Errorf("after task completion = %+v", snap)
	}
	if done := rec.find("complete"); len(done) != 1 || done[0].elapsed != 75*60 {
		t.Errorf("session completions = %+v", done)
	}
	if len(rec.marked) != 1 {
		t.Errorf("remote marks = %v", rec.marked)
	}
}

func TestPomodoroBreaksDoNotCountElapsed(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "read", 50)})
	_ = m.SelectPhase(models.PhaseShortBreak)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ticks(m, 10)
	if got := m.Snapshot().ElapsedSeconds; got != 0 {
		t.Errorf("elapsed during break = %d", got)
	}
}

func TestShortTaskDowngradesToRegular(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "floss", 5)})
	snap := m.Snapshot()
	if snap.Mode != models.ModeRegular || snap.TimeLeftSeconds != 300 {
		t.Errorf("snapshot = %+v, want regular with 300s", snap)
	}
	if err := m.SwitchMode(models.ModePomodoro); err != nil {
		t.Fatal(err)
	}
	if m.Snapshot().Mode != models.ModeRegular {
		t.Error("pomodoro must not stick for a short task")
	}
}

func TestRunningGuards(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "a", 50), task("2", "b", 50)})
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := m.SwitchMode(models.ModeRegular); !errors.Is(err, ErrRunning) {
		t.Errorf("SwitchMode() = %v", err)
	}
	if err := m.SelectTask(1); !errors.Is(err, ErrRunning) {
		t.Errorf("SelectTask() = %v", err)
	}
	if err := m.MoveTask(1, 0); !errors.Is(err, ErrRunning) {
		t.Errorf("MoveTask() = %v", err)
	}

	// tab clicks are allowed and stop the timer
	if err := m.SelectPhase(models.PhaseLongBreak); err != nil {
		t.Fatal(err)
	}
	if m.Running() || m.Snapshot().TimeLeftSeconds != 15*60 {
		t.Errorf("SelectPhase() state = %+v", m.Snapshot())
	}
}

func TestStartFailures(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	if err := m.Start(context.Background()); !errors.Is(err, ErrNoTask) {
		t.Errorf("Start() without tasks = %v", err)
	}

	rec := &recorder{ensureErr: errors.New("connection refused")}
	m = newMachine(t, rec, nil)
	m.SetTasks([]models.Task{task("1", "a", 30)})
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the session cannot be ensured")
	}
	if m.Running() {
		t.Error("timer must stay paused after a failed start")
	}
}

func TestProgressAndCheckpoint(t *testing.T) {
	rec := &recorder{}
	m := newMachine(t, rec, nil)
	m.SetTasks([]models.Task{task("1", "a", 30)})
	_ = m.SwitchMode(models.ModeRegular)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ticks(m, 12)
	m.Pause()

	progress := rec.find("progress")
	if len(progress) != 3 || progress[1].elapsed != 5 || progress[2].elapsed != 10 {
		t.Errorf("progress pushes = %+v", progress)
	}
	cp := rec.find("checkpoint")
	if len(cp) != 1 || cp[0].elapsed != 12 {
		t.Errorf("checkpoints = %+v", cp)
	}

	// resuming keeps the checkpointed time
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().ElapsedSeconds; got != 12 {
		t.Errorf("elapsed after resume = %d", got)
	}
}

func TestMoveAndSelectTask(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("a", "A", 30), task("b", "B", 60), task("c", "C", 45)})

	if err := m.MoveTask(2, 0); err != nil {
		t.Fatal(err)
	}
	got := m.Tasks()
	if got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("order = %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
	if cur, _ := m.Current(); cur.ID != "c" {
		t.Errorf("current = %s, want c", cur.ID)
	}
	if err := m.SelectTask(2); err != nil {
		t.Fatal(err)
	}
	if m.SessionLabel() != "Session 1 of 3" {
		t.Errorf("label = %q", m.SessionLabel())
	}
	if err := m.SelectTask(5); !errors.Is(err, ErrNoTask) {
		t.Errorf("SelectTask(out of range) = %v", err)
	}

	// a refreshed list keeps the user's order and current task
	m.SetTasks([]models.Task{task("a", "A", 30), task("b", "B", 60), task("c", "C", 45), task("d", "D", 25)})
	got = m.Tasks()
	if got[0].ID != "c" || got[3].ID != "d" {
		t.Errorf("order after refresh = %+v", got)
	}
	if cur, _ := m.Current(); cur.ID != "b" {
		t.Errorf("current after refresh = %s", cur.ID)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	store := cache.New(cache.NewMemoryStore())

	m := newMachine(t, &recorder{}, store)
	m.SetTasks([]models.Task{task("a", "A", 30), task("b", "B", 60)})
	_ = m.SwitchMode(models.ModeRegular)
	_ = m.SelectTask(1)
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	ticks(m, 30)

	restored := newMachine(t, &recorder{}, store)
	ok, err := restored.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore() = %v, %v", ok, err)
	}
	restored.SetTasks([]models.Task{task("a", "A", 30), task("b", "B", 60)})
	snap := restored.Snapshot()
	if snap.Running {
		t.Error("restored timer must be paused")
	}
	if snap.Mode != models.ModeRegular || snap.ElapsedSeconds != 30 || snap.TimeLeftSeconds != 3570 {
		t.Errorf("restored = %+v", snap)
	}
	if cur, _ := restored.Current(); cur.ID != "b" {
		t.Errorf("current = %s, want b", cur.ID)
	}

	if err := store.SaveTimer(ctx, models.TimerSnapshot{Day: "2024-05-31", Mode: models.ModeRegular}); err != nil {
		t.Fatal(err)
	}
	stale := newMachine(t, &recorder{}, store)
	if ok, _ := stale.Restore(ctx); ok {
		t.Error("yesterday's snapshot must be discarded")
	}
	if stale.Snapshot().Mode != models.ModePomodoro {
		t.Error("defaults should be kept when the snapshot is stale")
	}
}

func TestRunnerStopsAfterCompletion(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "a", 1)})
	_ = m.SwitchMode(models.ModeRegular)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	var events int
	r := &Runner{Machine: m, Interval: time.Millisecond, OnTick: func(ev Event) {
		if ev.Completed {
			events++
		}
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if events != 1 {
		t.Errorf("completion events = %d, want 1", events)
	}
}

func TestRunnerCancel(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "a", 30)})
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (&Runner{Machine: m}).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
	if m.Running() {
		t.Error("cancelled runner should pause the machine")
	}
}

func TestDuration(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "read", 50)})
	if got := m.Duration(); got != 1500 {
		t.Errorf("pomodoro work Duration() = %d, want 1500", got)
	}
	_ = m.SelectPhase(models.PhaseShortBreak)
	if got := m.Duration(); got != 300 {
		t.Errorf("short break Duration() = %d, want 300", got)
	}
	_ = m.SwitchMode(models.ModeRegular)
	if got := m.Duration(); got != 3000 {
		t.Errorf("regular Duration() = %d, want 3000", got)
	}
}

func TestRunnerStopsOnCompletion(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "walk", 1)})
	_ = m.SwitchMode(models.ModeRegular)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	var events []Event
	r := &Runner{Machine: m, Interval: time.Microsecond, OnTick: func(ev Event) {
		if ev.Completed {
			events = append(events, ev)
		}
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	m.Wait()
	if len(events) != 1 || !events[0].AllDone {
		t.Errorf("events = %+v", events)
	}
}

func TestRunnerPausesOnCancel(t *testing.T) {
	m := newMachine(t, &recorder{}, nil)
	m.SetTasks([]models.Task{task("1", "walk", 30)})
	_ = m.SwitchMode(models.ModeRegular)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Machine: m, Interval: time.Hour}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v", err)
	}
	if m.Running() {
		t.Error("runner should pause the machine on cancel")
	}
}
