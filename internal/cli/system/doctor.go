package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/keyring"
	"github.com/julianstephens/bloomup/internal/notifier"
)

type DoctorCmd struct {
	DB string `help:"Server database to check (path, connection string or 'keyring'). Defaults to the local SQLite file when it exists." env:"BLOOMUP_DB"`
}

type check struct {
	name string
	// warn marks checks whose failure does not fail the run.
	warn bool
	// skip returns a reason when the check does not apply.
	skip func() string
	run  func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	offline := func() string {
		if ctx.Offline {
			return "offline mode"
		}
		return ""
	}
	apiOK := false

	checks := []check{
		{name: "Clock/timezone", run: func() error { return checkClockTimezone(ctx) }},
		{name: "Local cache", run: func() error { return checkCache(bg, ctx) }},
		{name: "OS keyring", warn: true, run: checkKeyring},
		{name: "Habit server reachable", skip: offline, run: func() error {
			err := checkAPI(bg, ctx)
			apiOK = err == nil
			return err
		}},
		{name: "Login", warn: true, skip: func() string {
			if r := offline(); r != "" {
				return r
			}
			if !apiOK {
				return "server not reachable"
			}
			return ""
		}, run: func() error { return checkLogin(bg, ctx) }},
		{name: "Notification tray", warn: true, run: notifier.TrayRunning},
		{name: "Server database", skip: func() string {
			if cmd.storeSpec(ctx) == "" {
				return "no server database configured"
			}
			return ""
		}, run: func() error { return checkServerDB(bg, cmd.storeSpec(ctx), ctx.ConfigDir) }},
	}

	hasError := false
	for _, c := range checks {
		if c.skip != nil {
			if reason := c.skip(); reason != "" {
				fmt.Printf("⊘ %s: SKIPPED (%s)\n", c.name, reason)
				continue
			}
		}
		err := c.run()
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

// storeSpec is the explicit --db value, or the default SQLite file if present.
func (cmd *DoctorCmd) storeSpec(ctx *cli.Context) string {
	if cmd.DB != "" {
		return cmd.DB
	}
	path := filepath.Join(ctx.ConfigDir, constants.DefaultDBFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Location == nil {
		return errors.New("timezone not loaded")
	}
	fmt.Printf("   Today is %s in %s\n", ctx.Today(), ctx.Location)
	return nil
}

func checkCache(bg context.Context, ctx *cli.Context) error {
	store, err := ctx.Cache(bg)
	if err != nil {
		return fmt.Errorf("failed to open cache %q: %w", ctx.CacheSpec, err)
	}
	habits, err := store.Habits(bg)
	if err != nil {
		return fmt.Errorf("cached habits unreadable: %w", err)
	}
	if _, err := store.Timer(bg); err != nil && !cache.IsMiss(err) {
		return fmt.Errorf("cached timer state unreadable: %w", err)
	}
	fmt.Printf("   %d habit(s) cached\n", len(habits))
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring unavailable; logins are kept in the local cache")
	}
	return nil
}

func checkAPI(bg context.Context, ctx *cli.Context) error {
	client, err := ctx.Client(bg)
	if err != nil {
		return err
	}
	if err := client.Ping(bg); err != nil {
		return fmt.Errorf("%s: %w", client.BaseURL(), err)
	}
	return nil
}

func checkLogin(bg context.Context, ctx *cli.Context) error {
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	user, err := client.Me(bg)
	if err != nil {
		return err
	}
	fmt.Printf("   Signed in as %s\n", user.Email)
	return nil
}

// checkServerDB opens the store without migrating, which also validates the
// schema version.
func checkServerDB(bg context.Context, spec, configDir string) error {
	store, err := cli.OpenStore(spec, configDir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Load(); err != nil {
		return err
	}
	return store.Ping(bg)
}
