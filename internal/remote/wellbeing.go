package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

func (c *Client) ListMoods(ctx context.Context, limit int) ([]models.Mood, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out []models.Mood
	err := c.getJSON(ctx, "/mood", q, &out)
	return out, err
}

func (c *Client) LogMood(ctx context.Context, req api.MoodCreate) (models.Mood, error) {
	var out models.Mood
	err := c.call(ctx, http.MethodPost, "/mood", nil, req, &out)
	return out, err
}

// TodayMood returns nil when nothing has been logged today.
func (c *Client) TodayMood(ctx context.Context) (*models.Mood, error) {
	var out *models.Mood
	if err := c.getJSON(ctx, "/mood/today", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateMood(ctx context.Context, id string, req api.MoodUpdate) (models.Mood, error) {
	var out models.Mood
	err := c.call(ctx, http.MethodPut, "/mood/"+url.PathEscape(id), nil, req, &out)
	return out, err
}

func (c *Client) DeleteMood(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/mood/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) ListGratitude(ctx context.Context) ([]models.Gratitude, error) {
	var out []models.Gratitude
	err := c.getJSON(ctx, "/gratitude", nil, &out)
	return out, err
}

func (c *Client) AddGratitude(ctx context.Context, req api.GratitudeCreate) (models.Gratitude, error) {
	var out models.Gratitude
	err := c.call(ctx, http.MethodPost, "/gratitude", nil, req, &out)
	return out, err
}

func (c *Client) DeleteGratitude(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/gratitude/"+url.PathEscape(id), nil, nil)
	return err
}

// Achievements returns the catalog with the caller's progress.
// With earnedOnly set only unlocked entries are returned.
func (c *Client) Achievements(ctx context.Context, earnedOnly bool) ([]models.Achievement, error) {
	path := "/achievements/user/all"
	if earnedOnly {
		path = "/achievements/user/earned"
	}
	var out []models.Achievement
	err := c.getJSON(ctx, path, nil, &out)
	return out, err
}
