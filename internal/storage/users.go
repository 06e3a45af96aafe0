package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/bloomup/internal/models"
)

const userColumns = `user_id, email, name, bio, profile_picture, created_at`

func scanUser(sc interface{ Scan(...any) error }, extra ...any) (models.User, error) {
	var u models.User
	var id int64
	dest := append([]any{&id, &u.Email, &u.Name, &u.Bio, &u.ProfilePicture, &u.CreatedAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return models.User{}, err
	}
	u.ID = models.FlexID(strconv.FormatInt(id, 10))
	return u, nil
}

func (s *SQL) CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error) {
	now := s.now()
	row := s.conn().row(ctx, `
		INSERT INTO users (email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(email)), passwordHash, name, now, now)

	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return models.User{}, fmt.Errorf("email %s: %w", email, ErrConflict)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *SQL) GetUser(ctx context.Context, userID int64) (models.User, error) {
	row := s.conn().row(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	return u, notFound(err)
}

func (s *SQL) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	var hash string
	row := s.conn().row(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row, &hash)
	if err != nil {
		return models.User{}, "", notFound(err)
	}
	return u, hash, nil
}

func (s *SQL) UpdateUser(ctx context.Context, userID int64, ch UserChanges) (models.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.now()}
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", ch.Name)
	add("bio", ch.Bio)
	add("profile_picture", ch.ProfilePicture)
	add("password_hash", ch.PasswordHash)
	args = append(args, userID)

	row := s.conn().row(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE user_id = ? RETURNING `+userColumns, args...)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}
