package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

const sessionColumns = `session_id, habit_id, session_date, status,
	planned_duration_seconds, actual_duration_seconds, started_at, completed_at`

func scanSession(sc interface{ Scan(...any) error }) (models.Session, error) {
	var s models.Session
	var id, habitID int64
	var status string
	var started, completed sql.NullString
	err := sc.Scan(&id, &habitID, &s.SessionDate, &status,
		&s.PlannedDurationSeconds, &s.ActualDurationSeconds, &started, &completed)
	if err != nil {
		return models.Session{}, err
	}
	s.ID = models.FlexID(strconv.FormatInt(id, 10))
	s.HabitID = models.FlexID(strconv.FormatInt(habitID, 10))
	s.Status = models.SessionStatus(status)
	if started.Valid {
		s.StartedAt = &started.String
	}
	if completed.Valid {
		s.CompletedAt = &completed.String
	}
	return s, nil
}

func ownsHabit(ctx context.Context, c conn, userID, habitID int64) error {
	var one int
	err := c.row(ctx, `SELECT 1 FROM habits WHERE habit_id = ? AND user_id = ?`, habitID, userID).Scan(&one)
	if err != nil {
		return fmt.Errorf("habit %d: %w", habitID, notFound(err))
	}
	return nil
}

// GetSessions lists a habit's sessions, newest first, optionally for one day only.
func (s *SQL) GetSessions(ctx context.Context, userID, habitID int64, day string) ([]models.Session, error) {
	c := s.conn()
	if err := ownsHabit(ctx, c, userID, habitID); err != nil {
		return nil, err
	}

	q := `SELECT ` + sessionColumns + ` FROM habit_sessions WHERE habit_id = ?`
	args := []any{habitID}
	if day != "" {
		q += ` AND session_date = ?`
		args = append(args, day)
	}
	rows, err := c.query(ctx, q+` ORDER BY session_date DESC, session_id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// CreateSession inserts a todo session. A second session for the same
// habit and day fails with ErrConflict.
func (s *SQL) CreateSession(ctx context.Context, userID, habitID int64, day string, plannedSeconds int) (models.Session, error) {
	c := s.conn()
	if err := ownsHabit(ctx, c, userID, habitID); err != nil {
		return models.Session{}, err
	}
	row := c.row(ctx, `
		INSERT INTO habit_sessions (habit_id, user_id, session_date, status, planned_duration_seconds, actual_duration_seconds)
		VALUES (?, ?, ?, ?, ?, 0)
		RETURNING `+sessionColumns,
		habitID, userID, day, string(models.SessionTodo), plannedSeconds)
	sess, err := scanSession(row)
	if isUniqueViolation(err) {
		return models.Session{}, fmt.Errorf("session for habit %d on %s: %w", habitID, day, ErrConflict)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// UpdateSession applies a status and progress change. started_at is set the
// first time a session goes in_progress, completed_at when it is done.
func (s *SQL) UpdateSession(ctx context.Context, userID, habitID, sessionID int64, req api.SessionUpdate) (models.Session, error) {
	var out models.Session
	err := s.withTx(ctx, func(c conn) error {
		if err := ownsHabit(ctx, c, userID, habitID); err != nil {
			return err
		}
		cur, err := scanSession(c.row(ctx, `SELECT `+sessionColumns+` FROM habit_sessions WHERE session_id = ? AND habit_id = ?`, sessionID, habitID))
		if err != nil {
			return fmt.Errorf("session %d: %w", sessionID, notFound(err))
		}

		var sets []string
		var args []any
		now := s.now()
		if req.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, *req.Status)
			switch models.SessionStatus(*req.Status) {
			case models.SessionInProgress:
				if cur.StartedAt == nil {
					sets = append(sets, "started_at = ?")
					args = append(args, now)
				}
			case models.SessionDone:
				sets = append(sets, "completed_at = ?")
				args = append(args, now)
			}
		}
		if req.ActualDurationSeconds != nil {
			sets = append(sets, "actual_duration_seconds = ?")
			args = append(args, *req.ActualDurationSeconds)
		}
		if len(sets) == 0 {
			out = cur
			return nil
		}
		args = append(args, sessionID)

		out, err = scanSession(c.row(ctx, `UPDATE habit_sessions SET `+strings.Join(sets, ", ")+` WHERE session_id = ? RETURNING `+sessionColumns, args...))
		return err
	})
	return out, err
}
