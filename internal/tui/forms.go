package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/models"
)

type HabitFormModel struct {
	Name     string
	Category string
	Icon     string
	Minutes  string
}

func newHabitForm(f *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Habit").Value(&f.Name).Validate(required("name")),
			huh.NewInput().Title("Category").Placeholder(constants.DefaultCategoryName).Value(&f.Category),
			huh.NewInput().Title("Icon").Placeholder(constants.DefaultHabitIcon).Value(&f.Icon),
			huh.NewInput().Title("Minutes per day").
				Placeholder(strconv.Itoa(constants.DefaultHabitMinutes)).
				Value(&f.Minutes).
				Validate(optionalMinutes),
		),
	)
}

// Habit converts the form into a habit ready for creation.
func (f HabitFormModel) Habit() models.Habit {
	h := models.Habit{
		Name:     strings.TrimSpace(f.Name),
		Icon:     strings.TrimSpace(f.Icon),
		Category: models.Category{Name: strings.TrimSpace(f.Category)},
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Minutes)); err == nil {
		h.DurationMinutes = n
	}
	return h
}

// LoginFormModel backs the interactive login and signup prompts.
type LoginFormModel struct {
	Name     string
	Email    string
	Password string
}

// NewLoginForm prompts for credentials. With signup set it also asks for a name.
func NewLoginForm(f *LoginFormModel, signup bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().Title("Email").Value(&f.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.Password).Validate(required("password")),
	}
	if signup {
		fields = append([]huh.Field{huh.NewInput().Title("Name").Value(&f.Name).Validate(required("name"))}, fields...)
	}
	return huh.NewForm(huh.NewGroup(fields...))
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}

func optionalMinutes(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1440 {
		return errors.New("minutes must be between 1 and 1440")
	}
	return nil
}
