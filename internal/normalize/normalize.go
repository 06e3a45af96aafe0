// Package normalize turns every habit representation the client may meet
// into the canonical models.Habit.
//
// Three shapes are recognized:
//
//   - ShapeServerV1: records from the habit server (habit_id, habit_name, emoji, ...)
//   - ShapeLegacyLocal: un-enveloped local records written by older clients,
//     where category is a plain string and isActive is absent
//   - ShapeCanonical: models.Habit as this client writes it
//
// Decoding is tolerant: missing fields take the defaults of Defaults, ids may
// be numbers or strings, and history entries set to false are dropped.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
)

type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeServerV1
	ShapeLegacyLocal
	ShapeCanonical
)

func (s Shape) String() string {
	switch s {
	case ShapeServerV1:
		return "server-v1"
	case ShapeLegacyLocal:
		return "legacy-local"
	case ShapeCanonical:
		return "canonical"
	}
	return "unknown"
}

var (
	newIDFunc = uuid.NewString
	nowFunc   = time.Now
)

// ErrNotHabit is returned for JSON values that are not objects.
var ErrNotHabit = errors.New("not a habit record")

type rawHabit struct {
	ID         models.FlexID   `json:"id"`
	Name       *string         `json:"name"`
	Category   json.RawMessage `json:"category"`
	Icon       *string         `json:"icon"`
	Duration   *float64        `json:"duration"`
	Color      *string         `json:"color"`
	History    map[string]bool `json:"history"`
	BestStreak *float64        `json:"bestStreak"`
	IsActive   *bool           `json:"isActive"`
	CreatedAt  *string         `json:"createdAt"`

	HabitID         models.FlexID `json:"habit_id"`
	HabitName       *string       `json:"habit_name"`
	CategoryID      models.FlexID `json:"category_id"`
	CategoryName    *string       `json:"category_name"`
	Emoji           *string       `json:"emoji"`
	DurationMinutes *float64      `json:"duration_minutes"`
	BestStreakV1    *float64      `json:"best_streak"`
	IsActiveV1      *bool         `json:"is_active"`
	CreatedAtV1     *string       `json:"created_at"`
}

func (r rawHabit) shape() Shape {
	if r.HabitID != "" || r.HabitName != nil || r.Emoji != nil || r.DurationMinutes != nil {
		return ShapeServerV1
	}
	if r.IsActive != nil || isObject(r.Category) {
		return ShapeCanonical
	}
	return ShapeLegacyLocal
}

// Habit decodes a single record of any known shape.
func Habit(data []byte) (models.Habit, Shape, error) {
	if !isObject(data) {
		return models.Habit{}, ShapeUnknown, ErrNotHabit
	}
	var r rawHabit
	if err := json.Unmarshal(data, &r); err != nil {
		return models.Habit{}, ShapeUnknown, fmt.Errorf("decode habit: %w", err)
	}

	shape := r.shape()
	var h models.Habit
	switch shape {
	case ShapeServerV1:
		h = fromServerV1(r)
	default:
		h = fromLocal(r)
	}
	return Defaults(h), shape, nil
}

// Habits decodes a list. It accepts a bare array or an object wrapping the
// array under "habits", "items" or "data". Records that fail to decode are
// skipped and logged.
func Habits(data []byte) ([]models.Habit, error) {
	items, err := unwrapList(data, "habits", "items", "data")
	if err != nil {
		return nil, err
	}
	out := make([]models.Habit, 0, len(items))
	for i, item := range items {
		h, _, err := Habit(item)
		if err != nil {
			logger.Warn("Skipping undecodable habit record", "index", i, "error", err)
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Defaults fills the zero fields of h the way every shape expects.
func Defaults(h models.Habit) models.Habit {
	if h.ID == "" {
		h.ID = newIDFunc()
	}
	if h.Category.Name == "" {
		h.Category.Name = constants.DefaultCategoryName
	}
	if h.Category.ID == "" && h.Category.Name == constants.DefaultCategoryName {
		h.Category.ID = constants.DefaultCategoryID
	}
	if h.Category.Color == "" {
		h.Category.Color = constants.DefaultHabitColor
	}
	if h.Icon == "" {
		h.Icon = constants.DefaultHabitIcon
	}
	if h.DurationMinutes <= 0 {
		h.DurationMinutes = constants.DefaultHabitMinutes
	}
	if h.CreatedAt == "" {
		h.CreatedAt = nowFunc().UTC().Format(time.RFC3339)
	}
	if h.BestStreak < 0 {
		h.BestStreak = 0
	}
	h.History = cleanHistory(h.History)
	if run := models.LongestStreak(h.History); run > h.BestStreak {
		h.BestStreak = run
	}
	return h
}

func fromServerV1(r rawHabit) models.Habit {
	h := models.Habit{
		ID:         string(r.HabitID),
		Name:       firstString(r.HabitName, r.Name),
		Icon:       firstString(r.Emoji, r.Icon),
		History:    r.History,
		IsActive:   true,
		BestStreak: intOf(r.BestStreakV1),
		CreatedAt:  firstString(r.CreatedAtV1, r.CreatedAt),
	}
	if h.ID == "" {
		h.ID = string(r.ID)
	}
	if r.DurationMinutes != nil {
		h.DurationMinutes = intOf(r.DurationMinutes)
	} else {
		h.DurationMinutes = intOf(r.Duration)
	}
	if r.IsActiveV1 != nil {
		h.IsActive = *r.IsActiveV1
	}

	cat, _ := Category(r.Category)
	if cat.ID == "" {
		cat.ID = string(r.CategoryID)
	}
	if cat.Name == "" && r.CategoryName != nil {
		cat.Name = *r.CategoryName
	}
	if cat.Color == "" && r.Color != nil {
		cat.Color = *r.Color
	}
	h.Category = cat
	return h
}

func fromLocal(r rawHabit) models.Habit {
	h := models.Habit{
		ID:              string(r.ID),
		Name:            firstString(r.Name),
		Icon:            firstString(r.Icon),
		DurationMinutes: intOf(r.Duration),
		History:         r.History,
		BestStreak:      intOf(r.BestStreak),
		IsActive:        true,
		CreatedAt:       firstString(r.CreatedAt),
	}
	if r.IsActive != nil {
		h.IsActive = *r.IsActive
	}
	cat, _ := Category(r.Category)
	if cat.Color == "" && r.Color != nil {
		cat.Color = *r.Color
	}
	h.Category = cat
	return h
}

// Category decodes a category given as a server record, a canonical
// record, or a bare name. A null or empty value yields the zero Category.
func Category(data []byte) (models.Category, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return models.Category{}, nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return models.Category{}, err
		}
		return models.Category{ID: slug(name), Name: name}, nil
	}

	var raw struct {
		ID           models.FlexID `json:"id"`
		Name         string        `json:"name"`
		Color        string        `json:"color"`
		CategoryID   models.FlexID `json:"category_id"`
		CategoryName string        `json:"category_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Category{}, fmt.Errorf("decode category: %w", err)
	}
	c := models.Category{ID: string(raw.ID), Name: raw.Name, Color: raw.Color}
	if raw.CategoryID != "" {
		c.ID = string(raw.CategoryID)
	}
	if raw.CategoryName != "" {
		c.Name = raw.CategoryName
	}
	return c, nil
}

// Categories decodes a category list in either record shape.
func Categories(data []byte) ([]models.Category, error) {
	items, err := unwrapList(data, "categories", "items", "data")
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(items))
	for i, item := range items {
		c, err := Category(item)
		if err != nil {
			logger.Warn("Skipping undecodable category record", "index", i, "error", err)
			continue
		}
		if c.Color == "" {
			c.Color = constants.DefaultHabitColor
		}
		out = append(out, c)
	}
	return out, nil
}

func unwrapList(data []byte, keys ...string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}
	if data[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode list envelope: %w", err)
		}
		for _, k := range keys {
			if inner, ok := env[k]; ok {
				return unwrapList(inner, keys...)
			}
		}
	}
	return nil, fmt.Errorf("expected a JSON array, got %.20q", data)
}

func cleanHistory(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for day, done := range in {
		if !done {
			continue
		}
		// server timestamps may carry a time component
		if len(day) > 10 {
			day = day[:10]
		}
		out[day] = true
	}
	return out
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func intOf(f *float64) int {
	if f == nil {
		return 0
	}
	return int(math.Round(*f))
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
