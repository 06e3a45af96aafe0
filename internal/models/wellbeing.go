package models

type Mood struct {
	ID       FlexID `json:"mood_id"`
	Score    int    `json:"mood_score"`
	LoggedOn string `json:"logged_on"`
	Note     string `json:"note,omitempty"`
}

type Gratitude struct {
	ID       FlexID `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date"`
}

// Achievement is a catalog entry joined with one user's progress towards it.
// Progress is a percentage; Value is the raw count behind it.
type Achievement struct {
	Key         string  `json:"key_name"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Points      int     `json:"points"`
	Target      int     `json:"target_value"`
	Progress    int     `json:"progress"`
	Value       int     `json:"progress_unit_value"`
	Earned      bool    `json:"is_earned"`
	EarnedDate  *string `json:"earned_date,omitempty"`
}
