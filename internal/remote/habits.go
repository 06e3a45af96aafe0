package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/normalize"
)

func habitPath(id string, rest ...string) string {
	p := "/habits/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *Client) ListHabits(ctx context.Context) ([]models.Habit, error) {
	raw, err := c.do(ctx, http.MethodGet, "/habits", nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Habits(raw)
}

func (c *Client) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	raw, err := c.do(ctx, http.MethodPost, "/habits", nil, normalize.CreateRequest(h))
	if err != nil {
		return models.Habit{}, err
	}
	created, _, err := normalize.Habit(raw)
	if err != nil {
		return models.Habit{}, fmt.Errorf("decode created habit: %w", err)
	}
	return created, nil
}

func (c *Client) UpdateHabit(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error) {
	raw, err := c.do(ctx, http.MethodPut, habitPath(id), nil, normalize.UpdateRequest(patch))
	if err != nil {
		return models.Habit{}, err
	}
	updated, _, err := normalize.Habit(raw)
	if err != nil {
		return models.Habit{}, fmt.Errorf("decode updated habit: %w", err)
	}
	return updated, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, habitPath(id), nil, nil)
	return err
}

// SetCompleted marks (done) or unmarks a habit for day.
func (c *Client) SetCompleted(ctx context.Context, id, day string, done bool) error {
	method := http.MethodPost
	if !done {
		method = http.MethodDelete
	}
	_, err := c.do(ctx, method, habitPath(id, "complete"), url.Values{"on": {day}}, nil)
	return err
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	raw, err := c.do(ctx, http.MethodGet, "/habits/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Categories(raw)
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (models.Category, error) {
	raw, err := c.do(ctx, http.MethodPost, "/habits/categories", nil, api.CategoryCreate{CategoryName: name, Color: color})
	if err != nil {
		return models.Category{}, err
	}
	return normalize.Category(raw)
}

func (c *Client) HabitSummary(ctx context.Context) (models.HabitSummary, error) {
	var out models.HabitSummary
	err := c.getJSON(ctx, "/habits/stats", nil, &out)
	return out, err
}
