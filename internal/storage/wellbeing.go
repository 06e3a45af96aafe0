package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

const moodColumns = `mood_id, mood_score, logged_on, note`

func scanMood(sc interface{ Scan(...any) error }) (models.Mood, error) {
	var m models.Mood
	var id int64
	if err := sc.Scan(&id, &m.Score, &m.LoggedOn, &m.Note); err != nil {
		return models.Mood{}, err
	}
	m.ID = models.FlexID(strconv.FormatInt(id, 10))
	return m, nil
}

// GetMoods returns the most recent entries first. limit <= 0 returns all.
func (s *SQL) GetMoods(ctx context.Context, userID int64, limit int) ([]models.Mood, error) {
	q := `SELECT ` + moodColumns + ` FROM mood_logs WHERE user_id = ? ORDER BY logged_on DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.conn().query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list moods: %w", err)
	}
	defer rows.Close()

	moods := []models.Mood{}
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

func (s *SQL) GetMoodOn(ctx context.Context, userID int64, day string) (models.Mood, error) {
	m, err := scanMood(s.conn().row(ctx, `SELECT `+moodColumns+` FROM mood_logs WHERE user_id = ? AND logged_on = ?`, userID, day))
	return m, notFound(err)
}

// CreateMood fails with ErrConflict when day already has an entry.
func (s *SQL) CreateMood(ctx context.Context, userID int64, score int, note, day string) (models.Mood, error) {
	m, err := scanMood(s.conn().row(ctx, `
		INSERT INTO mood_logs (user_id, mood_score, logged_on, note)
		VALUES (?, ?, ?, ?) RETURNING `+moodColumns, userID, score, day, note))
	if isUniqueViolation(err) {
		return models.Mood{}, fmt.Errorf("mood for %s: %w", day, ErrConflict)
	}
	if err != nil {
		return models.Mood{}, fmt.Errorf("failed to log mood: %w", err)
	}
	return m, nil
}

func (s *SQL) UpdateMood(ctx context.Context, userID, moodID int64, req api.MoodUpdate) (models.Mood, error) {
	var sets []string
	var args []any
	if req.Score != nil {
		sets = append(sets, "mood_score = ?")
		args = append(args, *req.Score)
	}
	if req.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *req.Note)
	}
	c := s.conn()
	if len(sets) == 0 {
		m, err := scanMood(c.row(ctx, `SELECT `+moodColumns+` FROM mood_logs WHERE mood_id = ? AND user_id = ?`, moodID, userID))
		return m, notFound(err)
	}
	args = append(args, moodID, userID)
	m, err := scanMood(c.row(ctx, `UPDATE mood_logs SET `+strings.Join(sets, ", ")+` WHERE mood_id = ? AND user_id = ? RETURNING `+moodColumns, args...))
	return m, notFound(err)
}

func (s *SQL) DeleteMood(ctx context.Context, userID, moodID int64) error {
	return requireRow(s.conn().exec(ctx, `DELETE FROM mood_logs WHERE mood_id = ? AND user_id = ?`, moodID, userID))
}

// gratitude rows expose created_at's date part as Date.
func scanGratitude(sc interface{ Scan(...any) error }) (models.Gratitude, error) {
	var g models.Gratitude
	var id int64
	var created string
	if err := sc.Scan(&id, &g.Text, &g.Category, &created); err != nil {
		return models.Gratitude{}, err
	}
	g.ID = models.FlexID(strconv.FormatInt(id, 10))
	g.Date = created
	if len(created) >= 10 {
		g.Date = created[:10]
	}
	return g, nil
}

func (s *SQL) GetGratitude(ctx context.Context, userID int64) ([]models.Gratitude, error) {
	rows, err := s.conn().query(ctx, `
		SELECT gratitude_id, body, category, created_at
		FROM gratitude_entries WHERE user_id = ?
		ORDER BY created_at DESC, gratitude_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gratitude entries: %w", err)
	}
	defer rows.Close()

	out := []models.Gratitude{}
	for rows.Next() {
		g, err := scanGratitude(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQL) AddGratitude(ctx context.Context, userID int64, text, category string) (models.Gratitude, error) {
	g, err := scanGratitude(s.conn().row(ctx, `
		INSERT INTO gratitude_entries (user_id, body, category, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING gratitude_id, body, category, created_at`,
		userID, strings.TrimSpace(text), category, s.now()))
	if err != nil {
		return models.Gratitude{}, fmt.Errorf("failed to add gratitude entry: %w", err)
	}
	return g, nil
}

func (s *SQL) DeleteGratitude(ctx context.Context, userID, id int64) error {
	return requireRow(s.conn().exec(ctx, `DELETE FROM gratitude_entries WHERE gratitude_id = ? AND user_id = ?`, id, userID))
}
