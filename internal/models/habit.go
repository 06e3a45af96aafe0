package models

import (
	"sort"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
)

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Habit is the canonical in-memory and cached form of a habit.
// History holds only completed days; a missing key means not completed.
type Habit struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	Icon            string          `json:"icon"`
	DurationMinutes int             `json:"duration"`
	History         map[string]bool `json:"history"`
	BestStreak      int             `json:"bestStreak"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       string          `json:"createdAt,omitempty"`
}

// HabitPatch carries the fields of an update; nil fields are left alone.
type HabitPatch struct {
	Name            *string `json:"name,omitempty"`
	CategoryID      *string `json:"categoryId,omitempty"`
	CategoryName    *string `json:"categoryName,omitempty"`
	Icon            *string `json:"icon,omitempty"`
	DurationMinutes *int    `json:"duration,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

func (p HabitPatch) Empty() bool {
	return p.Name == nil && p.CategoryID == nil && p.CategoryName == nil &&
		p.Icon == nil && p.DurationMinutes == nil && p.IsActive == nil
}

// Apply returns a copy of h with the patch applied.
func (p HabitPatch) Apply(h Habit) Habit {
	out := h.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.CategoryID != nil {
		out.Category.ID = *p.CategoryID
	}
	if p.CategoryName != nil {
		out.Category.Name = *p.CategoryName
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	if p.DurationMinutes != nil {
		out.DurationMinutes = *p.DurationMinutes
	}
	if p.IsActive != nil {
		out.IsActive = *p.IsActive
	}
	return out
}

func (h Habit) Clone() Habit {
	out := h
	out.History = make(map[string]bool, len(h.History))
	for k, v := range h.History {
		if v {
			out.History[k] = true
		}
	}
	return out
}

func (h Habit) CompletedOn(day string) bool {
	return h.History[day]
}

// SetCompleted marks or clears day. Clearing deletes the key, so History never holds false.
// BestStreak is raised if the new history contains a longer run; it never drops.
func (h *Habit) SetCompleted(day string, done bool) {
	if h.History == nil {
		h.History = map[string]bool{}
	}
	if done {
		h.History[day] = true
	} else {
		delete(h.History, day)
	}
	if run := LongestStreak(h.History); run > h.BestStreak {
		h.BestStreak = run
	}
}

// CompletedDays returns the completed days in ascending order.
func (h Habit) CompletedDays() []string {
	days := make([]string, 0, len(h.History))
	for d, ok := range h.History {
		if ok {
			days = append(days, d)
		}
	}
	sort.Strings(days)
	return days
}

// LongestStreak returns the longest run of consecutive completed days in history.
func LongestStreak(history map[string]bool) int {
	days := make([]time.Time, 0, len(history))
	for d, ok := range history {
		if !ok {
			continue
		}
		t, err := time.Parse(constants.DateFormat, d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// CurrentStreak counts consecutive completed days ending at asOf.
// If asOf itself is not completed the streak is counted from the day before,
// so an unfinished today does not break yesterday's run.
func CurrentStreak(history map[string]bool, asOf string) int {
	t, err := time.Parse(constants.DateFormat, asOf)
	if err != nil {
		return 0
	}
	if !history[asOf] {
		t = t.AddDate(0, 0, -1)
	}
	n := 0
	for history[t.Format(constants.DateFormat)] {
		n++
		t = t.AddDate(0, 0, -1)
	}
	return n
}
