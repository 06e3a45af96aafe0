// Package server is the BloomUp habit REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/bloomup/internal/avatar"
	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/storage"
	"github.com/julianstephens/bloomup/internal/utils"
)

type Config struct {
	Store    storage.Provider
	Secret   []byte
	TokenTTL time.Duration
	// Location decides where "today" begins and ends.
	Location *time.Location
	Avatars  avatar.Store
	// AvatarDir, when set, is served at /uploads.
	AvatarDir string
	Now       func() time.Time
}

type Server struct {
	cfg      Config
	engine   *gin.Engine
	validate *validator.Validate
}

func New(cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = constants.DefaultTokenTTLH * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{cfg: cfg, validate: validator.New(validator.WithRequiredStructEnabled())}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Mount registers extra routes on the root router, outside authentication.
func (s *Server) Mount(register func(gin.IRouter)) { register(s.engine) }

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)
	if s.cfg.AvatarDir != "" {
		r.Static("/uploads", s.cfg.AvatarDir)
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", s.signup)
		authGroup.POST("/login", s.login)
		authGroup.POST("/google-login", s.googleLogin)
	}

	r.GET("/achievements", s.listCatalog)

	protected := r.Group("/")
	protected.Use(s.authenticate())
	{
		protected.GET("/users/me", s.getMe)
		protected.PUT("/users/me", s.updateMe)
		protected.POST("/users/me/avatar", s.uploadAvatar)

		protected.GET("/habits", s.listHabits)
		protected.POST("/habits", s.createHabit)
		protected.GET("/habits/stats", s.habitStats)
		protected.GET("/habits/categories", s.listCategories)
		protected.POST("/habits/categories", s.createCategory)
		protected.PUT("/habits/:id", s.updateHabit)
		protected.DELETE("/habits/:id", s.deleteHabit)
		protected.POST("/habits/:id/complete", s.setCompletion(true))
		protected.DELETE("/habits/:id/complete", s.setCompletion(false))
		protected.GET("/habits/:id/sessions", s.listSessions)
		protected.POST("/habits/:id/sessions", s.createSession)
		protected.PUT("/habits/:id/sessions/:sessionId", s.updateSession)

		protected.GET("/mood", s.listMoods)
		protected.POST("/mood", s.createMood)
		protected.GET("/mood/today", s.todayMood)
		protected.PUT("/mood/:id", s.updateMood)
		protected.DELETE("/mood/:id", s.deleteMood)

		protected.GET("/gratitude", s.listGratitude)
		protected.POST("/gratitude", s.addGratitude)
		protected.DELETE("/gratitude/:id", s.deleteGratitude)

		protected.GET("/achievements/user/all", s.userAchievements(false))
		protected.GET("/achievements/user/earned", s.userAchievements(true))
	}
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Habit API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down habit API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) today() string {
	return utils.FormatDate(s.cfg.Now().In(s.cfg.Location))
}

func (s *Server) health(c *gin.Context) {
	if err := s.cfg.Store.Ping(c.Request.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		fail(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
