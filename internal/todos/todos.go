// Package todos is the standalone tasks service: a flat to-do list with
// no users, served over the same storage backends as the habit API.
package todos

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/storage"
)

// Store is the part of storage.Provider the service needs.
type Store interface {
	GetTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id int64, req api.TodoUpdate) (models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

type Service struct {
	store    Store
	validate *validator.Validate
}

func New(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Register mounts the /tasks routes on r.
func (s *Service) Register(r gin.IRouter) {
	r.GET("/tasks", s.list)
	r.POST("/tasks", s.create)
	r.PUT("/tasks/:id", s.update)
	r.DELETE("/tasks/:id", s.delete)
}

// Handler returns a bare engine serving only the tasks routes.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	s.Register(r)
	return r
}

func (s *Service) list(c *gin.Context) {
	todos, err := s.store.GetTodos(c.Request.Context())
	if err != nil {
		s.failed(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (s *Service) create(c *gin.Context) {
	var req api.TodoCreate
	if !s.bind(c, &req) {
		return
	}
	t, err := s.store.CreateTodo(c.Request.Context(), req.Text)
	if err != nil {
		s.failed(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Service) update(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req api.TodoUpdate
	if !s.bind(c, &req) {
		return
	}
	t, err := s.store.UpdateTodo(c.Request.Context(), id, req)
	if err != nil {
		s.failed(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Service) delete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTodo(c.Request.Context(), id); err != nil {
		s.failed(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.ErrorBody{Detail: err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.ErrorBody{Detail: err.Error()})
		return false
	}
	return true
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.ErrorBody{Detail: "id must be an integer"})
		return 0, false
	}
	return id, true
}

func (s *Service) failed(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, api.ErrorBody{Detail: "Task not found"})
		return
	}
	logger.Error("Task storage failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorBody{Detail: "internal server error"})
}
