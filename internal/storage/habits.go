package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/models"
)

const habitSelect = `
	SELECT h.habit_id, h.user_id, h.habit_name, h.category_id,
	       c.category_name, c.color, c.created_at,
	       h.emoji, h.duration_minutes, h.description, h.start_date,
	       h.best_streak, h.is_active, h.created_at, h.updated_at
	FROM habits h
	LEFT JOIN categories c ON c.category_id = h.category_id`

func scanHabit(sc interface{ Scan(...any) error }) (api.HabitV1, error) {
	var h api.HabitV1
	var catID sql.NullInt64
	var catName, catColor, catCreated sql.NullString

	err := sc.Scan(
		&h.HabitID, &h.UserID, &h.HabitName, &catID,
		&catName, &catColor, &catCreated,
		&h.Emoji, &h.DurationMinutes, &h.Description, &h.StartDate,
		&h.BestStreak, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return api.HabitV1{}, err
	}
	if catID.Valid {
		id := catID.Int64
		h.CategoryID = &id
		h.Category = &api.CategoryV1{
			CategoryID:   id,
			CategoryName: catName.String,
			Color:        catColor.String,
			CreatedAt:    catCreated.String,
		}
	}
	h.History = map[string]bool{}
	return h, nil
}

// histories loads completion days per habit. habitID 0 loads every habit of the user.
func histories(ctx context.Context, c conn, userID, habitID int64) (map[int64]map[string]bool, error) {
	q := `SELECT habit_id, completed_on FROM habit_completions WHERE user_id = ?`
	args := []any{userID}
	if habitID != 0 {
		q += ` AND habit_id = ?`
		args = append(args, habitID)
	}
	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	defer rows.Close()

	out := map[int64]map[string]bool{}
	for rows.Next() {
		var id int64
		var day string
		if err := rows.Scan(&id, &day); err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = map[string]bool{}
		}
		out[id][day] = true
	}
	return out, rows.Err()
}

func getHabit(ctx context.Context, c conn, userID, habitID int64) (api.HabitV1, error) {
	h, err := scanHabit(c.row(ctx, habitSelect+` WHERE h.habit_id = ? AND h.user_id = ?`, habitID, userID))
	if err != nil {
		return api.HabitV1{}, notFound(err)
	}
	hist, err := histories(ctx, c, userID, habitID)
	if err != nil {
		return api.HabitV1{}, err
	}
	if hist[habitID] != nil {
		h.History = hist[habitID]
	}
	return h, nil
}

func (s *SQL) GetHabits(ctx context.Context, userID int64) ([]api.HabitV1, error) {
	c := s.conn()
	rows, err := c.query(ctx, habitSelect+` WHERE h.user_id = ? ORDER BY h.habit_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []api.HabitV1{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hist, err := histories(ctx, c, userID, 0)
	if err != nil {
		return nil, err
	}
	for i := range habits {
		if days := hist[habits[i].HabitID]; days != nil {
			habits[i].History = days
		}
	}
	return habits, nil
}

func (s *SQL) GetHabit(ctx context.Context, userID, habitID int64) (api.HabitV1, error) {
	return getHabit(ctx, s.conn(), userID, habitID)
}

// resolveCategory returns the category id a habit write should use:
// an owned id, or one found or created by name.
func (s *SQL) resolveCategory(ctx context.Context, c conn, userID int64, id *int64, name string) (*int64, error) {
	if id != nil {
		var one int
		err := c.row(ctx, `SELECT 1 FROM categories WHERE category_id = ? AND user_id = ?`, *id, userID).Scan(&one)
		if err != nil {
			return nil, fmt.Errorf("category %d: %w", *id, notFound(err))
		}
		return id, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var found int64
	err := c.row(ctx, `SELECT category_id FROM categories WHERE user_id = ? AND category_name = ?`, userID, name).Scan(&found)
	if err == nil {
		return &found, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = c.row(ctx, `
		INSERT INTO categories (user_id, category_name, color, created_at)
		VALUES (?, ?, ?, ?) RETURNING category_id`,
		userID, name, constants.DefaultHabitColor, s.now()).Scan(&found)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &found, nil
}

func (s *SQL) CreateHabit(ctx context.Context, userID int64, req api.HabitCreate, startDate string) (api.HabitV1, error) {
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = constants.DefaultHabitMinutes
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var out api.HabitV1
	err := s.withTx(ctx, func(c conn) error {
		catID, err := s.resolveCategory(ctx, c, userID, req.CategoryID, req.CategoryName)
		if err != nil {
			return err
		}
		now := s.now()
		var id int64
		err = c.row(ctx, `
			INSERT INTO habits (user_id, habit_name, category_id, emoji, duration_minutes,
			                    description, start_date, best_streak, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
			RETURNING habit_id`,
			userID, strings.TrimSpace(req.Name), catID, req.Emoji, duration,
			req.Description, startDate, active, now, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert habit: %w", err)
		}
		out, err = getHabit(ctx, c, userID, id)
		return err
	})
	return out, err
}

func (s *SQL) UpdateHabit(ctx context.Context, userID, habitID int64, req api.HabitUpdate) (api.HabitV1, error) {
	var out api.HabitV1
	err := s.withTx(ctx, func(c conn) error {
		if _, err := getHabit(ctx, c, userID, habitID); err != nil {
			return err
		}

		sets := []string{"updated_at = ?"}
		args := []any{s.now()}
		if req.HabitName != nil {
			sets = append(sets, "habit_name = ?")
			args = append(args, strings.TrimSpace(*req.HabitName))
		}
		if req.CategoryID != nil || req.CategoryName != nil {
			var name string
			if req.CategoryName != nil {
				name = *req.CategoryName
			}
			catID, err := s.resolveCategory(ctx, c, userID, req.CategoryID, name)
			if err != nil {
				return err
			}
			if catID != nil {
				sets = append(sets, "category_id = ?")
				args = append(args, *catID)
			}
		}
		if req.Emoji != nil {
			sets = append(sets, "emoji = ?")
			args = append(args, *req.Emoji)
		}
		if req.DurationMinutes != nil {
			sets = append(sets, "duration_minutes = ?")
			args = append(args, *req.DurationMinutes)
		}
		if req.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *req.Description)
		}
		if req.IsActive != nil {
			sets = append(sets, "is_active = ?")
			args = append(args, *req.IsActive)
		}
		args = append(args, habitID, userID)

		if _, err := c.exec(ctx, `UPDATE habits SET `+strings.Join(sets, ", ")+` WHERE habit_id = ? AND user_id = ?`, args...); err != nil {
			return fmt.Errorf("failed to update habit %d: %w", habitID, err)
		}
		var err error
		out, err = getHabit(ctx, c, userID, habitID)
		return err
	})
	return out, err
}

func (s *SQL) DeleteHabit(ctx context.Context, userID, habitID int64) error {
	return s.withTx(ctx, func(c conn) error {
		if _, err := c.exec(ctx, `DELETE FROM habit_completions WHERE habit_id = ? AND user_id = ?`, habitID, userID); err != nil {
			return err
		}
		if _, err := c.exec(ctx, `DELETE FROM habit_sessions WHERE habit_id = ? AND user_id = ?`, habitID, userID); err != nil {
			return err
		}
		return requireRow(c.exec(ctx, `DELETE FROM habits WHERE habit_id = ? AND user_id = ?`, habitID, userID))
	})
}

func (s *SQL) SetCompletion(ctx context.Context, userID, habitID int64, day string, done bool) (api.HabitV1, error) {
	var out api.HabitV1
	err := s.withTx(ctx, func(c conn) error {
		h, err := getHabit(ctx, c, userID, habitID)
		if err != nil {
			return err
		}

		if done {
			_, err = c.exec(ctx, `
				INSERT INTO habit_completions (habit_id, user_id, completed_on)
				VALUES (?, ?, ?)
				ON CONFLICT (habit_id, completed_on) DO NOTHING`, habitID, userID, day)
			h.History[day] = true
		} else {
			_, err = c.exec(ctx, `DELETE FROM habit_completions WHERE habit_id = ? AND completed_on = ?`, habitID, day)
			delete(h.History, day)
		}
		if err != nil {
			return fmt.Errorf("failed to update completion for habit %d: %w", habitID, err)
		}

		if run := models.LongestStreak(h.History); run > h.BestStreak {
			if _, err := c.exec(ctx, `UPDATE habits SET best_streak = ?, updated_at = ? WHERE habit_id = ?`, run, s.now(), habitID); err != nil {
				return err
			}
		}
		out, err = getHabit(ctx, c, userID, habitID)
		return err
	})
	return out, err
}

func (s *SQL) GetHabitSummary(ctx context.Context, userID int64, today string) (models.HabitSummary, error) {
	var sum models.HabitSummary
	c := s.conn()

	err := c.row(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
		       COALESCE(MAX(best_streak), 0)
		FROM habits WHERE user_id = ?`, userID).Scan(&sum.TotalHabits, &sum.ActiveHabits, &sum.BestStreak)
	if err != nil {
		return sum, fmt.Errorf("failed to count habits: %w", err)
	}
	err = c.row(ctx, `SELECT COUNT(*) FROM habit_completions WHERE user_id = ? AND completed_on = ?`,
		userID, today).Scan(&sum.CompletedToday)
	if err != nil {
		return sum, fmt.Errorf("failed to count completions: %w", err)
	}
	err = c.row(ctx, `SELECT COUNT(*), COALESCE(SUM(actual_duration_seconds), 0) FROM habit_sessions WHERE user_id = ?`,
		userID).Scan(&sum.TotalSessions, &sum.FocusSeconds)
	if err != nil {
		return sum, fmt.Errorf("failed to count sessions: %w", err)
	}
	return sum, nil
}

func (s *SQL) GetCategories(ctx context.Context, userID int64) ([]api.CategoryV1, error) {
	rows, err := s.conn().query(ctx, `
		SELECT category_id, category_name, color, created_at
		FROM categories WHERE user_id = ? ORDER BY category_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	cats := []api.CategoryV1{}
	for rows.Next() {
		var cat api.CategoryV1
		if err := rows.Scan(&cat.CategoryID, &cat.CategoryName, &cat.Color, &cat.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (s *SQL) CreateCategory(ctx context.Context, userID int64, name, color string) (api.CategoryV1, error) {
	if color == "" {
		color = constants.DefaultHabitColor
	}
	cat := api.CategoryV1{CategoryName: strings.TrimSpace(name), Color: color, CreatedAt: s.now()}
	err := s.conn().row(ctx, `
		INSERT INTO categories (user_id, category_name, color, created_at)
		VALUES (?, ?, ?, ?) RETURNING category_id`,
		userID, cat.CategoryName, cat.Color, cat.CreatedAt).Scan(&cat.CategoryID)
	if isUniqueViolation(err) {
		return api.CategoryV1{}, fmt.Errorf("category %q: %w", name, ErrConflict)
	}
	if err != nil {
		return api.CategoryV1{}, fmt.Errorf("failed to create category: %w", err)
	}
	return cat, nil
}
