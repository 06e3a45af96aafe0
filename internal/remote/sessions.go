package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

// ListSessions returns the habit's sessions on day, or all of them if day is empty.
func (c *Client) ListSessions(ctx context.Context, habitID, day string) ([]models.Session, error) {
	var q url.Values
	if day != "" {
		q = url.Values{"date_filter": {day}}
	}
	var out []models.Session
	if err := c.getJSON(ctx, habitPath(habitID, "sessions"), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSession(ctx context.Context, habitID string, plannedSeconds int, day string) (models.Session, error) {
	var out models.Session
	err := c.call(ctx, http.MethodPost, habitPath(habitID, "sessions"), nil,
		api.SessionCreate{PlannedDurationSeconds: plannedSeconds, SessionDate: day}, &out)
	return out, err
}

func (c *Client) UpdateSession(ctx context.Context, habitID, sessionID string, upd models.SessionUpdate) (models.Session, error) {
	status := string(upd.Status)
	body := api.SessionUpdate{ActualDurationSeconds: &upd.ActualDurationSeconds}
	if status != "" {
		body.Status = &status
	}
	var out models.Session
	err := c.call(ctx, http.MethodPut, habitPath(habitID, "sessions", url.PathEscape(sessionID)), nil, body, &out)
	return out, err
}
