package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/bloomup/internal/auth"
	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/facade"
	"github.com/julianstephens/bloomup/internal/keyring"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/notifier"
	"github.com/julianstephens/bloomup/internal/remote"
	"github.com/julianstephens/bloomup/internal/session"
	"github.com/julianstephens/bloomup/internal/storage"
	"github.com/julianstephens/bloomup/internal/storage/postgres"
	"github.com/julianstephens/bloomup/internal/storage/sqlite"
	"github.com/julianstephens/bloomup/internal/taskctx"
	"github.com/julianstephens/bloomup/internal/timer"
	"github.com/julianstephens/bloomup/internal/utils"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigDir string `help:"Directory for the cache, logs and the default server database." default:"${config_dir}" type:"path"`
	APIURL    string `name:"api-url" help:"Habit server base URL." env:"BLOOMUP_API_URL" default:"${api_url}"`
	Token     string `help:"Bearer token to use instead of the stored login." env:"BLOOMUP_API_TOKEN"`
	CacheSpec string `name:"cache" help:"Local cache backend: file, file:<path>, memory or redis://..." env:"BLOOMUP_CACHE" default:"${cache_spec}"`
	Timezone  string `help:"Timezone that decides which calendar day it is." env:"BLOOMUP_TIMEZONE" default:"${timezone}"`
	Offline   bool   `help:"Never contact the server; work from the local cache only."`
	Debug     bool   `help:"Log at debug level and mirror logs to stderr."`
}

// Context is handed to every command's Run. The client stack is built on
// first use so server-side commands never touch the cache.
type Context struct {
	Globals
	Location *time.Location

	cache    *cache.Store
	session  *auth.Session
	client   *remote.Client
	habits   *facade.Facade
	sessions *session.Manager
	tasks    *taskctx.Context
}

func NewContext(g Globals) (*Context, error) {
	loc, err := utils.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", g.Timezone, err)
	}
	return &Context{Globals: g, Location: loc}, nil
}

// Today is the current calendar day in the configured timezone.
func (c *Context) Today() string {
	return utils.FormatDate(time.Now().In(c.Location))
}

// Cache opens the local store.
func (c *Context) Cache(ctx context.Context) (*cache.Store, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	store, err := cache.Open(ctx, c.CacheSpec, c.ConfigDir)
	if err != nil {
		return nil, err
	}
	c.cache = store
	return store, nil
}

func (c *Context) Session(ctx context.Context) (*auth.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	store, err := c.Cache(ctx)
	if err != nil {
		return nil, err
	}
	c.session = auth.New(store, c.Token)
	return c.session, nil
}

// Client is the habit server client with the stored token and the
// logout-on-401 hook installed.
func (c *Context) Client(ctx context.Context) (*remote.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	sess, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	client, err := remote.New(c.APIURL,
		remote.WithToken(sess.Token),
		remote.WithUnauthorizedHook(sess.OnUnauthorized))
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Habits is the storage facade. It is cache-only when offline or logged out.
func (c *Context) Habits(ctx context.Context) (*facade.Facade, error) {
	if c.habits != nil {
		return c.habits, nil
	}
	store, err := c.Cache(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	var r facade.Remote
	if !c.Offline && sess.LoggedIn(ctx) {
		client, err := c.Client(ctx)
		if err != nil {
			return nil, err
		}
		r = client
	} else {
		logger.Debug("Habit facade running from local cache", "offline", c.Offline)
	}
	c.habits = facade.New(r, store, facade.Options{
		OnModeChange: func(from, to facade.Mode) {
			if to == facade.ModeCache {
				fmt.Fprintln(os.Stderr, "⚠ Habit server unreachable, continuing with the local cache.")
			}
		},
	})
	return c.habits, nil
}

// Tasks loads the shared task context.
func (c *Context) Tasks(ctx context.Context) (*taskctx.Context, error) {
	if c.tasks != nil {
		return c.tasks, nil
	}
	habits, err := c.Habits(ctx)
	if err != nil {
		return nil, err
	}
	var cats taskctx.CategoryLister
	if habits.Mode() == facade.ModeRemote {
		client, err := c.Client(ctx)
		if err != nil {
			return nil, err
		}
		cats = client
	}
	tc := taskctx.New(habits, cats, c.Today)
	if err := tc.Load(ctx); err != nil {
		return nil, auth.Require(err)
	}
	c.tasks = tc
	return tc, nil
}

// Timer builds a timer over today's tasks, restoring any state saved earlier today.
func (c *Context) Timer(ctx context.Context, notify bool) (*timer.Machine, error) {
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	habits, err := c.Habits(ctx)
	if err != nil {
		return nil, err
	}
	store, err := c.Cache(ctx)
	if err != nil {
		return nil, err
	}

	cfg := timer.Config{Habits: habits, Tasks: tasks, Store: store, Today: c.Today}
	if habits.Mode() == facade.ModeRemote {
		client, err := c.Client(ctx)
		if err != nil {
			return nil, err
		}
		c.sessions = session.NewManager(client, session.Options{Today: c.Today})
		cfg.Sessions = c.sessions
	}
	if notify {
		cfg.Notifier = notifier.New()
	}

	m := timer.New(cfg)
	if _, err := m.Restore(ctx); err != nil && !cache.IsMiss(err) {
		logger.Warn("Could not restore timer state", "error", err)
	}
	m.SetTasks(tasks.Tasks())
	tasks.Subscribe(m.SetTasks)
	return m, nil
}

// RequireLogin fails early for commands that only make sense online.
func (c *Context) RequireLogin(ctx context.Context) (*remote.Client, error) {
	if c.Offline {
		return nil, errors.New("this command needs the habit server; drop --offline")
	}
	sess, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.LoggedIn(ctx) {
		return nil, auth.ErrLoginRequired
	}
	return c.Client(ctx)
}

// Close drains background session pushes and releases the cache.
func (c *Context) Close() {
	if c.sessions != nil {
		c.sessions.Wait()
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			logger.Warn("Failed to close cache", "error", err)
		}
	}
}

// OpenStore picks the server backend from spec: a PostgreSQL connection
// string, "keyring" for the connection string stored in the OS keyring,
// or a SQLite file path (default <configDir>/bloomup.db).
func OpenStore(spec, configDir string) (storage.Provider, error) {
	if spec == "keyring" {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("no connection string in keyring: %w", err)
		}
		return postgres.New(connStr), nil
	}
	if IsPostgres(spec) {
		if _, err := postgres.ValidateConnString(spec); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, err
			}
			logger.Warn("Database connection string embeds a password; prefer .pgpass or 'bloomup keyring set'")
		}
		return postgres.New(spec), nil
	}
	if spec == "" {
		spec = filepath.Join(configDir, constants.DefaultDBFile)
	}
	return sqlite.NewStore(spec), nil
}

// IsPostgres reports whether spec looks like a PostgreSQL URL or key/value DSN.
func IsPostgres(spec string) bool {
	return strings.HasPrefix(spec, "postgres://") ||
		strings.HasPrefix(spec, "postgresql://") ||
		strings.Contains(spec, "host=")
}
