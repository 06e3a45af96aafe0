package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/avatar"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/storage"
)

const userIDKey = "userID"

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u models.User) (string, error) {
	now := s.cfg.Now()
	claims := &Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *Server) parseToken(raw string) (int64, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.cfg.Now))
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// authenticate rejects requests without a valid bearer token and stores
// the caller's id for handlers.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.Header("WWW-Authenticate", "Bearer")
			fail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		uid, err := s.parseToken(raw)
		if err != nil {
			detail := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				detail = "Token expired"
			}
			fail(c, http.StatusUnauthorized, detail)
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func (s *Server) signup(c *gin.Context) {
	var req api.Signup
	if !s.bind(c, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}

	u, err := s.cfg.Store.CreateUser(c.Request.Context(), req.Email, strings.TrimSpace(req.Name), string(hash))
	if errors.Is(err, storage.ErrConflict) {
		fail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		storageFailed(c, err, "user")
		return
	}
	logger.Info("User signed up", "user_id", u.ID)
	c.JSON(http.StatusOK, u)
}

func (s *Server) login(c *gin.Context) {
	var req api.Login
	if !s.bind(c, &req) {
		return
	}
	u, hash, err := s.cfg.Store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		storageFailed(c, err, "user")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		logger.Error("Failed to sign token", "error", err)
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// googleLogin is routed so clients get a clear answer; no Google client is configured.
func (s *Server) googleLogin(c *gin.Context) {
	fail(c, http.StatusNotImplemented, "Google sign-in is not available on this server")
}

func (s *Server) getMe(c *gin.Context) {
	u, err := s.cfg.Store.GetUser(c.Request.Context(), userID(c))
	if err != nil {
		storageFailed(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateMe(c *gin.Context) {
	var req api.UserUpdate
	if !s.bind(c, &req) {
		return
	}
	changes := storage.UserChanges{Name: req.Name, Bio: req.Bio, ProfilePicture: req.ProfilePicture}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			fail(c, http.StatusInternalServerError, "internal server error")
			return
		}
		h := string(hash)
		changes.PasswordHash = &h
	}

	u, err := s.cfg.Store.UpdateUser(c.Request.Context(), userID(c), changes)
	if err != nil {
		storageFailed(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) uploadAvatar(c *gin.Context) {
	if s.cfg.Avatars == nil {
		fail(c, http.StatusNotImplemented, "avatar uploads are not configured")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer f.Close()

	url, err := s.cfg.Avatars.Save(c.Request.Context(), fh.Filename, f)
	if errors.Is(err, avatar.ErrUnsupportedType) {
		fail(c, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if err != nil {
		logger.Error("Avatar upload failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	u, err := s.cfg.Store.UpdateUser(c.Request.Context(), userID(c), storage.UserChanges{ProfilePicture: &url})
	if err != nil {
		storageFailed(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}
