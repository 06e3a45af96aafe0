package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

func (s *SQL) GetTodos(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.conn().query(ctx, `SELECT id, text, completed FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *SQL) CreateTodo(ctx context.Context, text string) (models.Todo, error) {
	var t models.Todo
	err := s.conn().row(ctx, `INSERT INTO tasks (text, completed) VALUES (?, ?) RETURNING id, text, completed`,
		strings.TrimSpace(text), false).Scan(&t.ID, &t.Text, &t.Completed)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

func (s *SQL) UpdateTodo(ctx context.Context, id int64, req api.TodoUpdate) (models.Todo, error) {
	sets := []string{}
	args := []any{}
	if req.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, strings.TrimSpace(*req.Text))
	}
	if req.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *req.Completed)
	}

	var t models.Todo
	var err error
	c := s.conn()
	if len(sets) == 0 {
		err = c.row(ctx, `SELECT id, text, completed FROM tasks WHERE id = ?`, id).Scan(&t.ID, &t.Text, &t.Completed)
	} else {
		args = append(args, id)
		err = c.row(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING id, text, completed`, args...).
			Scan(&t.ID, &t.Text, &t.Completed)
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("task %d: %w", id, notFound(err))
	}
	return t, nil
}

func (s *SQL) DeleteTodo(ctx context.Context, id int64) error {
	return requireRow(s.conn().exec(ctx, `DELETE FROM tasks WHERE id = ?`, id))
}
