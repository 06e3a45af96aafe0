// Package taskctx holds the habit list shared by the timer and dashboard
// views and derives today's tasks from it.
package taskctx

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
	"github.com/julianstephens/bloomup/internal/utils"
)

type HabitLister interface {
	List(ctx context.Context) ([]models.Habit, error)
}

type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type Context struct {
	habitSrc HabitLister
	catSrc   CategoryLister
	today    func() string

	mu         sync.RWMutex
	habits     []models.Habit
	categories []models.Category
	tasks      []models.Task
	subs       []func([]models.Task)
}

// New builds a task context. categories may be nil when no server is
// configured; categories are then taken from the habits themselves.
func New(habits HabitLister, categories CategoryLister, today func() string) *Context {
	if today == nil {
		today = func() string { return utils.FormatDate(time.Now()) }
	}
	return &Context{habitSrc: habits, catSrc: categories, today: today}
}

// Load fetches categories and then habits.
func (c *Context) Load(ctx context.Context) error {
	if c.catSrc != nil {
		cats, err := c.catSrc.ListCategories(ctx)
		switch {
		case remote.IsUnauthorized(err):
			return err
		case err != nil:
			logger.Warn("Could not load categories", "error", err)
		default:
			c.mu.Lock()
			c.categories = cats
			c.mu.Unlock()
		}
	}
	return c.RefreshHabits(ctx)
}

func (c *Context) RefreshHabits(ctx context.Context) error {
	list, err := c.habitSrc.List(ctx)
	if err != nil {
		return fmt.Errorf("load habits: %w", err)
	}
	c.UpdateHabits(list)
	return nil
}

// UpdateHabits replaces the habit list and recomputes tasks.
func (c *Context) UpdateHabits(list []models.Habit) {
	c.mu.Lock()
	c.habits = make([]models.Habit, len(list))
	for i, h := range list {
		c.habits[i] = h.Clone()
	}
	tasks := c.recompute()
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(tasks)
	}
}

// CompleteTask marks the task done for today in local state only.
// It reports whether a task with that id exists.
func (c *Context) CompleteTask(id string) bool {
	c.mu.Lock()
	found := false
	day := c.today()
	for i := range c.habits {
		if c.habits[i].ID == id {
			c.habits[i].SetCompleted(day, true)
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return false
	}
	tasks := c.recompute()
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(tasks)
	}
	return true
}

// Subscribe registers fn to receive every recomputed task list.
func (c *Context) Subscribe(fn func([]models.Task)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Context) Tasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Task(nil), c.tasks...)
}

func (c *Context) Habits() []models.Habit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Habit, len(c.habits))
	for i, h := range c.habits {
		out[i] = h.Clone()
	}
	return out
}

// Categories returns the server categories, or those used by the habits
// when the server list is unavailable.
func (c *Context) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.categories) > 0 {
		return append([]models.Category(nil), c.categories...)
	}
	seen := make(map[string]bool)
	var out []models.Category
	for _, h := range c.habits {
		if !seen[h.Category.Name] {
			seen[h.Category.Name] = true
			out = append(out, h.Category)
		}
	}
	return out
}

// caller holds c.mu
func (c *Context) recompute() []models.Task {
	day := c.today()
	tasks := make([]models.Task, 0, len(c.habits))
	for _, h := range c.habits {
		if !h.IsActive {
			continue
		}
		t := models.TaskFromHabit(h, day)
		t.Category = c.resolveCategory(h.Category)
		tasks = append(tasks, t)
	}
	c.tasks = tasks
	return append([]models.Task(nil), tasks...)
}

func (c *Context) resolveCategory(cat models.Category) models.Category {
	for _, known := range c.categories {
		if cat.ID != "" && known.ID == cat.ID {
			return known
		}
	}
	if cat.Name == "" {
		cat.Name = constants.DefaultCategoryName
	}
	if cat.Color == "" {
		cat.Color = constants.DefaultHabitColor
	}
	return cat
}
