package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
)

// GetTodayInTimezone returns today's date string (YYYY-MM-DD) in the specified timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return FormatDate(now), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// FormatDate renders t as a calendar day in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ValidateDate reports whether s is a YYYY-MM-DD calendar day.
func ValidateDate(s string) bool {
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// AddDays shifts a YYYY-MM-DD day by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// StartOfWeek returns the Sunday on or before day.
func StartOfWeek(day string) (string, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, -int(t.Weekday()))), nil
}

// FormatClock renders a second count as MM:SS. Negative input renders as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
