package taskctx

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
)

const today = "2025-03-10"

type habitList struct {
	habits []models.Habit
	err    error
	calls  *[]string
}

func (h habitList) List(context.Context) ([]models.Habit, error) {
	if h.calls != nil {
		*h.calls = append(*h.calls, "habits")
	}
	return h.habits, h.err
}

type categoryList struct {
	cats  []models.Category
	err   error
	calls *[]string
}

func (c categoryList) ListCategories(context.Context) ([]models.Category, error) {
	if c.calls != nil {
		*c.calls = append(*c.calls, "categories")
	}
	return c.cats, c.err
}

func sample() []models.Habit {
	return []models.Habit{
		{ID: "1", Name: "Read", DurationMinutes: 60, IsActive: true, Category: models.Category{ID: "3"}},
		{ID: "2", Name: "Walk", DurationMinutes: 20, IsActive: true, History: map[string]bool{today: true}},
		{ID: "3", Name: "Paused", DurationMinutes: 10, IsActive: false},
	}
}

func TestLoadOrderAndDerivation(t *testing.T) {
	var calls []string
	c := New(
		habitList{habits: sample(), calls: &calls},
		categoryList{cats: []models.Category{{ID: "3", Name: "Learning", Color: "#abcdef"}}, calls: &calls},
		func() string { return today },
	)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "categories" || calls[1] != "habits" {
		t.Errorf("call order = %v", calls)
	}

	tasks := c.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("tasks = %+v, inactive habit should be dropped", tasks)
	}
	if tasks[0].Category.Name != "Learning" || tasks[0].RequiredPomos != 3 {
		t.Errorf("task 0 = %+v", tasks[0])
	}
	if tasks[0].Completed || !tasks[1].Completed {
		t.Errorf("completion flags = %v/%v", tasks[0].Completed, tasks[1].Completed)
	}
	if tasks[1].Category.Name != "General" {
		t.Errorf("missing category should default to General, got %q", tasks[1].Category.Name)
	}
}

func TestLoadUnauthorized(t *testing.T) {
	c := New(habitList{}, categoryList{err: &remote.HTTPError{Status: 401}}, nil)
	if err := c.Load(context.Background()); !errors.Is(err, remote.ErrUnauthorized) {
		t.Errorf("Load() error = %v, want unauthorized", err)
	}
}

func TestLoadToleratesCategoryFailure(t *testing.T) {
	c := New(habitList{habits: sample()}, categoryList{err: errors.New("timeout")}, func() string { return today })
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Categories()) == 0 {
		t.Error("categories should fall back to those used by habits")
	}
}

func TestCompleteTaskIsLocal(t *testing.T) {
	src := sample()
	c := New(habitList{habits: src}, nil, func() string { return today })
	if err := c.RefreshHabits(context.Background()); err != nil {
		t.Fatal(err)
	}

	var notified [][]models.Task
	c.Subscribe(func(ts []models.Task) { notified = append(notified, ts) })

	if !c.CompleteTask("1") {
		t.Fatal("CompleteTask() = false")
	}
	if c.CompleteTask("nope") {
		t.Error("CompleteTask() on unknown id = true")
	}
	if !c.Tasks()[0].Completed {
		t.Error("task not marked complete")
	}
	if src[0].CompletedOn(today) {
		t.Error("source habit list was mutated")
	}
	if len(notified) != 1 {
		t.Errorf("subscribers notified %d times, want 1", len(notified))
	}
}

func TestUpdateHabitsRecomputes(t *testing.T) {
	c := New(habitList{}, nil, func() string { return today })
	c.UpdateHabits(sample()[:1])
	if len(c.Tasks()) != 1 {
		t.Fatalf("tasks = %d", len(c.Tasks()))
	}
	c.UpdateHabits(nil)
	if len(c.Tasks()) != 0 || len(c.Habits()) != 0 {
		t.Error("empty update should clear tasks")
	}
}

func TestSubscribeDuringNotify(t *testing.T) {
	tests := []struct {
		name   string
		notify func(c *Context)
	}{
		{"UpdateHabits", func(c *Context) { c.UpdateHabits(sample()) }},
		{"CompleteTask", func(c *Context) { c.CompleteTask("1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(habitList{}, nil, func() string { return today })
			c.UpdateHabits(sample())

			late := 0
			first := 0
			c.Subscribe(func([]models.Task) {
				first++
				c.Subscribe(func([]models.Task) { late++ })
			})

			tt.notify(c)
			if first != 1 || late != 0 {
				t.Errorf("first run: first=%d late=%d, want 1 and 0", first, late)
			}
			tt.notify(c)
			if first != 2 || late != 1 {
				t.Errorf("second run: first=%d late=%d, want 2 and 1", first, late)
			}
		})
	}
}
