package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/bloomup/internal/achievements"
	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/storage"
)

func (s *Server) listMoods(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	moods, err := s.cfg.Store.GetMoods(c.Request.Context(), userID(c), limit)
	if err != nil {
		storageFailed(c, err, "Mood")
		return
	}
	c.JSON(http.StatusOK, moods)
}

func (s *Server) createMood(c *gin.Context) {
	var req api.MoodCreate
	if !s.bind(c, &req) {
		return
	}
	day := req.LoggedOn
	if day == "" {
		day = s.today()
	}
	ctx := c.Request.Context()
	m, err := s.cfg.Store.CreateMood(ctx, userID(c), req.Score, req.Note, day)
	if errors.Is(err, storage.ErrConflict) {
		fail(c, http.StatusBadRequest, "Mood already logged for "+day+". Use PUT to update.")
		return
	}
	if err != nil {
		storageFailed(c, err, "Mood")
		return
	}
	s.refreshAchievements(ctx, userID(c))
	c.JSON(http.StatusCreated, m)
}

// todayMood answers null when nothing has been logged today.
func (s *Server) todayMood(c *gin.Context) {
	m, err := s.cfg.Store.GetMoodOn(c.Request.Context(), userID(c), s.today())
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		storageFailed(c, err, "Mood")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) updateMood(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req api.MoodUpdate
	if !s.bind(c, &req) {
		return
	}
	m, err := s.cfg.Store.UpdateMood(c.Request.Context(), userID(c), id, req)
	if err != nil {
		storageFailed(c, err, "Mood log")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMood(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.cfg.Store.DeleteMood(c.Request.Context(), userID(c), id); err != nil {
		storageFailed(c, err, "Mood log")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listGratitude(c *gin.Context) {
	entries, err := s.cfg.Store.GetGratitude(c.Request.Context(), userID(c))
	if err != nil {
		storageFailed(c, err, "Gratitude entry")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) addGratitude(c *gin.Context) {
	var req api.GratitudeCreate
	if !s.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	g, err := s.cfg.Store.AddGratitude(ctx, userID(c), req.Text, req.Category)
	if err != nil {
		storageFailed(c, err, "Gratitude entry")
		return
	}
	s.refreshAchievements(ctx, userID(c))
	c.JSON(http.StatusCreated, g)
}

func (s *Server) deleteGratitude(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.cfg.Store.DeleteGratitude(c.Request.Context(), userID(c), id); err != nil {
		storageFailed(c, err, "Gratitude entry")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listCatalog(c *gin.Context) {
	all, _ := achievements.Evaluate(nil, nil, s.today())
	c.JSON(http.StatusOK, all)
}

func (s *Server) userAchievements(earnedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := s.evaluateAchievements(c.Request.Context(), userID(c))
		if err != nil {
			storageFailed(c, err, "Achievement")
			return
		}
		if earnedOnly {
			all = achievements.Earned(all)
		}
		c.JSON(http.StatusOK, all)
	}
}

// evaluateAchievements scores the catalog and records anything newly unlocked.
func (s *Server) evaluateAchievements(ctx context.Context, uid int64) ([]models.Achievement, error) {
	counts, err := s.cfg.Store.GetAchievementCounts(ctx, uid)
	if err != nil {
		return nil, err
	}
	earned, err := s.cfg.Store.GetEarnedAchievements(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today()
	all, newly := achievements.Evaluate(counts, earned, today)
	for _, key := range newly {
		if err := s.cfg.Store.AwardAchievement(ctx, uid, key, today); err != nil {
			return nil, err
		}
		logger.Info("Achievement earned", "user_id", uid, "key", key)
	}
	return all, nil
}

// refreshAchievements runs after writes that can unlock something. A
// failure never fails the write that triggered it.
func (s *Server) refreshAchievements(ctx context.Context, uid int64) {
	if _, err := s.evaluateAchievements(ctx, uid); err != nil {
		logger.Warn("Failed to refresh achievements", "user_id", uid, "error", err)
	}
}
