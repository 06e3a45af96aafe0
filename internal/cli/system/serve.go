package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/julianstephens/bloomup/internal/avatar"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/server"
	"github.com/julianstephens/bloomup/internal/storage"
	"github.com/julianstephens/bloomup/internal/todos"
)

// ServeCmd runs the habit REST API.
type ServeCmd struct {
	Listen       string        `help:"Address to listen on." env:"BLOOMUP_LISTEN" default:"${listen_addr}"`
	DB           string        `help:"Server database: SQLite path, PostgreSQL connection string or 'keyring'." env:"BLOOMUP_DB"`
	Secret       string        `help:"HMAC secret for signing access tokens." env:"BLOOMUP_JWT_SECRET"`
	TokenTTL     time.Duration `name:"token-ttl" help:"Access token lifetime." default:"${token_ttl}"`
	PublicURL    string        `name:"public-url" help:"Externally visible base URL, used for avatar links." env:"BLOOMUP_PUBLIC_URL" default:"${api_url}"`
	AvatarDir    string        `help:"Directory for uploaded avatars. Defaults to <config-dir>/uploads." env:"BLOOMUP_AVATAR_DIR"`
	AvatarBucket string        `help:"S3 bucket for avatars; overrides --avatar-dir." env:"BLOOMUP_AVATAR_BUCKET"`
	NoMigrate    bool          `help:"Refuse to start on an outdated schema instead of migrating."`
	NoTasks      bool          `help:"Do not mount the /tasks endpoints."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if len(c.Secret) < 16 {
		return errors.New("BLOOMUP_JWT_SECRET must be set to at least 16 characters")
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{
		Store:    store,
		Secret:   []byte(c.Secret),
		TokenTTL: c.TokenTTL,
		Location: ctx.Location,
	}
	if c.AvatarBucket != "" {
		bucket, err := avatar.NewBucket(bg, c.AvatarBucket, "")
		if err != nil {
			return err
		}
		cfg.Avatars = bucket
	} else {
		dir := c.AvatarDir
		if dir == "" {
			dir = filepath.Join(ctx.ConfigDir, "uploads")
		}
		cfg.Avatars = avatar.Disk{Dir: dir, BaseURL: c.PublicURL + "/uploads"}
		cfg.AvatarDir = dir
	}

	srv := server.New(cfg)
	if !c.NoTasks {
		srv.Mount(todos.New(store).Register)
	}
	logger.Info("Starting habit API", "db", store.GetConfigPath(), "timezone", ctx.Location.String())
	return srv.Run(bg, c.Listen)
}

func (c *ServeCmd) openStore(ctx *cli.Context) (storage.Provider, error) {
	store, err := cli.OpenStore(c.DB, ctx.ConfigDir)
	if err != nil {
		return nil, err
	}
	if c.NoMigrate {
		err = store.Load()
	} else {
		err = store.Init()
	}
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
