package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/utils"
)

func (s *Server) listHabits(c *gin.Context) {
	habits, err := s.cfg.Store.GetHabits(c.Request.Context(), userID(c))
	if err != nil {
		storageFailed(c, err, "Habit")
		return
	}
	c.JSON(http.StatusOK, habits)
}

func (s *Server) createHabit(c *gin.Context) {
	var req api.HabitCreate
	if !s.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	h, err := s.cfg.Store.CreateHabit(ctx, userID(c), req, s.today())
	if err != nil {
		storageFailed(c, err, "Category")
		return
	}
	s.refreshAchievements(ctx, userID(c))
	c.JSON(http.StatusCreated, h)
}

func (s *Server) updateHabit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req api.HabitUpdate
	if !s.bind(c, &req) {
		return
	}
	h, err := s.cfg.Store.UpdateHabit(c.Request.Context(), userID(c), id, req)
	if err != nil {
		storageFailed(c, err, "Habit")
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) deleteHabit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.cfg.Store.DeleteHabit(c.Request.Context(), userID(c), id); err != nil {
		storageFailed(c, err, "Habit")
		return
	}
	c.Status(http.StatusNoContent)
}

// setCompletion marks or unmarks ?on= (default today) for a habit.
func (s *Server) setCompletion(done bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		day := c.DefaultQuery("on", s.today())
		if !utils.ValidateDate(day) {
			fail(c, http.StatusUnprocessableEntity, "on must be a YYYY-MM-DD date")
			return
		}
		ctx := c.Request.Context()
		if _, err := s.cfg.Store.SetCompletion(ctx, userID(c), id, day, done); err != nil {
			storageFailed(c, err, "Habit")
			return
		}
		if done {
			s.refreshAchievements(ctx, userID(c))
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) habitStats(c *gin.Context) {
	sum, err := s.cfg.Store.GetHabitSummary(c.Request.Context(), userID(c), s.today())
	if err != nil {
		storageFailed(c, err, "Habit")
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.cfg.Store.GetCategories(c.Request.Context(), userID(c))
	if err != nil {
		storageFailed(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) createCategory(c *gin.Context) {
	var req api.CategoryCreate
	if !s.bind(c, &req) {
		return
	}
	cat, err := s.cfg.Store.CreateCategory(c.Request.Context(), userID(c), req.CategoryName, req.Color)
	if err != nil {
		storageFailed(c, err, "Category")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) listSessions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	day := c.Query("date_filter")
	if day != "" && !utils.ValidateDate(day) {
		fail(c, http.StatusUnprocessableEntity, "date_filter must be a YYYY-MM-DD date")
		return
	}
	sessions, err := s.cfg.Store.GetSessions(c.Request.Context(), userID(c), id, day)
	if err != nil {
		storageFailed(c, err, "Habit")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) createSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req api.SessionCreate
	if !s.bind(c, &req) {
		return
	}
	day := req.SessionDate
	if day == "" {
		day = s.today()
	}
	sess, err := s.cfg.Store.CreateSession(c.Request.Context(), userID(c), id, day, req.PlannedDurationSeconds)
	if err != nil {
		storageFailed(c, err, "Session")
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) updateSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sid, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req api.SessionUpdate
	if !s.bind(c, &req) {
		return
	}
	sess, err := s.cfg.Store.UpdateSession(c.Request.Context(), userID(c), id, sid, req)
	if err != nil {
		storageFailed(c, err, "Session")
		return
	}
	c.JSON(http.StatusOK, sess)
}
