package storage

import (
	"context"
	"fmt"
)

// Achievement metrics reported by GetAchievementCounts.
const (
	MetricHabitCount       = "habit_count"
	MetricTotalHabits      = "total_habits"
	MetricStreakDays       = "streak_days"
	MetricDaysTracked      = "days_tracked"
	MetricTotalCompletions = "total_completions"
	MetricGratitudeEntries = "gratitude_entries"
	MetricMoodLogs         = "mood_logs"
)

func (s *SQL) GetAchievementCounts(ctx context.Context, userID int64) (map[string]int, error) {
	queries := []struct {
		metric string
		query  string
	}{
		{MetricHabitCount, `SELECT COUNT(*) FROM habits WHERE user_id = ? AND is_active`},
		{MetricTotalHabits, `SELECT COUNT(*) FROM habits WHERE user_id = ?`},
		{MetricStreakDays, `SELECT COALESCE(MAX(best_streak), 0) FROM habits WHERE user_id = ?`},
		{MetricDaysTracked, `SELECT COUNT(DISTINCT completed_on) FROM habit_completions WHERE user_id = ?`},
		{MetricTotalCompletions, `SELECT COUNT(*) FROM habit_completions WHERE user_id = ?`},
		{MetricGratitudeEntries, `SELECT COUNT(*) FROM gratitude_entries WHERE user_id = ?`},
		{MetricMoodLogs, `SELECT COUNT(*) FROM mood_logs WHERE user_id = ?`},
	}

	c := s.conn()
	counts := make(map[string]int, len(queries))
	for _, q := range queries {
		var n int
		if err := c.row(ctx, q.query, userID).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", q.metric, err)
		}
		counts[q.metric] = n
	}
	return counts, nil
}

// GetEarnedAchievements maps achievement keys to the day they were earned.
func (s *SQL) GetEarnedAchievements(ctx context.Context, userID int64) (map[string]string, error) {
	rows, err := s.conn().query(ctx, `SELECT key_name, earned_date FROM user_achievements WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	earned := map[string]string{}
	for rows.Next() {
		var key, day string
		if err := rows.Scan(&key, &day); err != nil {
			return nil, err
		}
		earned[key] = day
	}
	return earned, rows.Err()
}

// AwardAchievement is idempotent; the first earned date wins.
func (s *SQL) AwardAchievement(ctx context.Context, userID int64, key, day string) error {
	_, err := s.conn().exec(ctx, `
		INSERT INTO user_achievements (user_id, key_name, earned_date)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, key_name) DO NOTHING`, userID, key, day)
	if err != nil {
		return fmt.Errorf("failed to award %s: %w", key, err)
	}
	return nil
}
