package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/cli/account"
	"github.com/julianstephens/bloomup/internal/cli/habits"
	"github.com/julianstephens/bloomup/internal/cli/system"
	"github.com/julianstephens/bloomup/internal/cli/timer"
	"github.com/julianstephens/bloomup/internal/cli/wellbeing"
	"github.com/julianstephens/bloomup/internal/constants"
	apperrors "github.com/julianstephens/bloomup/internal/errors"
	"github.com/julianstephens/bloomup/internal/logger"
)

var CLI struct {
	cli.Globals `embed:""`

	Version kong.VersionFlag `help:"Print the version and exit."`

	Timer timer.TimerCmd `cmd:"" default:"1" help:"Focus timer over today's habits."`
	Today habits.TodayCmd `cmd:"" help:"Show today's habit checklist."`
	Habit habits.HabitCmd `cmd:"" help:"Manage habits and habit tracking."`

	Mood         wellbeing.MoodCmd         `cmd:"" help:"Track your mood."`
	Gratitude    wellbeing.GratitudeCmd    `cmd:"" help:"Keep a gratitude journal."`
	Achievements wellbeing.AchievementsCmd `cmd:"" help:"Show achievements and progress."`

	Login   account.LoginCmd   `cmd:"" help:"Sign in to the habit server."`
	Logout  account.LogoutCmd  `cmd:"" help:"Forget the stored login."`
	Whoami  account.WhoamiCmd  `cmd:"" help:"Show the signed-in user."`
	Profile account.ProfileCmd `cmd:"" help:"Update your profile."`
	Avatar  account.AvatarCmd  `cmd:"" help:"Upload a profile picture."`

	Serve   system.ServeCmd   `cmd:"" help:"Run the habit REST API."`
	Migrate system.MigrateCmd `cmd:"" help:"Create or upgrade the server database."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage credentials in the OS keyring."`
	Debug   system.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`
	Notify  system.NotifyCmd  `cmd:"" hidden:"" help:"Send a notification (used internally)."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}

	kctx := kong.Parse(&CLI,
		kong.Name("bloomup"),
		kong.Description("Habit tracker with a pomodoro focus timer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_dir":  constants.DefaultConfigDir,
			"api_url":     constants.DefaultAPIURL,
			"cache_spec":  constants.DefaultCacheSpec,
			"timezone":    constants.DefaultTimezone,
			"listen_addr": constants.DefaultListenAddr,
			"token_ttl":   fmt.Sprintf("%dh", constants.DefaultTokenTTLH),
		},
	)

	serving := kctx.Selected() != nil && kctx.Selected().Name == "serve"
	if err := logger.Init(logger.Config{
		Debug:     CLI.Globals.Debug,
		ConfigDir: CLI.ConfigDir,
		Stderr:    serving,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	appCtx, err := cli.NewContext(CLI.Globals)
	if err != nil {
		apperrors.Fatal(err)
	}

	err = kctx.Run(appCtx)
	appCtx.Close()
	apperrors.Fatal(err)
}
