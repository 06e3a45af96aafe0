package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (models.TokenResponse, error) {
	var out models.TokenResponse
	err := c.call(ctx, http.MethodPost, "/auth/login", nil, api.Login{Email: email, Password: password}, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, req api.Signup) (models.User, error) {
	var out models.User
	err := c.call(ctx, http.MethodPost, "/auth/signup", nil, req, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.getJSON(ctx, "/users/me", nil, &out)
	return out, err
}

func (c *Client) UpdateMe(ctx context.Context, upd api.UserUpdate) (models.User, error) {
	var out models.User
	err := c.call(ctx, http.MethodPut, "/users/me", nil, upd, &out)
	return out, err
}

// UploadAvatar sends an image as multipart form field "file".
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (models.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return models.User{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.User{}, fmt.Errorf("read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/users/me/avatar", nil), &buf)
	if err != nil {
		return models.User{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	raw, err := c.send(ctx, req, "/users/me/avatar")
	if err != nil {
		return models.User{}, err
	}
	var out models.User
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.User{}, fmt.Errorf("decode avatar response: %w", err)
	}
	return out, nil
}
