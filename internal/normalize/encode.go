package normalize

import (
	"strconv"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

// CreateRequest maps a canonical habit onto the server's create body.
// Categories with a numeric id are sent by id, anything else by name.
func CreateRequest(h models.Habit) api.HabitCreate {
	req := api.HabitCreate{
		Name:            h.Name,
		Emoji:           h.Icon,
		DurationMinutes: h.DurationMinutes,
		IsActive:        &h.IsActive,
	}
	if id, ok := numericID(h.Category.ID); ok {
		req.CategoryID = &id
	} else {
		req.CategoryName = h.Category.Name
	}
	return req
}

// UpdateRequest maps a patch onto the server's update body.
func UpdateRequest(p models.HabitPatch) api.HabitUpdate {
	req := api.HabitUpdate{
		HabitName:       p.Name,
		Emoji:           p.Icon,
		DurationMinutes: p.DurationMinutes,
		IsActive:        p.IsActive,
	}
	if p.CategoryID != nil {
		if id, ok := numericID(*p.CategoryID); ok {
			req.CategoryID = &id
			return req
		}
	}
	if p.CategoryName != nil {
		req.CategoryName = p.CategoryName
	}
	return req
}

func numericID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
