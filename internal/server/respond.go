package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/storage"
)

func fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, api.ErrorBody{Detail: detail})
}

// bind decodes the JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		fail(c, http.StatusUnprocessableEntity, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusUnprocessableEntity, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// storageFailed maps storage sentinels onto HTTP statuses. what names the
// resource in 404 responses.
func storageFailed(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrConflict):
		fail(c, http.StatusConflict, what+" already exists")
	default:
		logger.Error("Storage operation failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
