package system

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/bloomup/internal/cache"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/constants"
)

type DebugCmd struct {
	Paths     DebugPathsCmd     `cmd:"" help:"Show the files bloomup reads and writes."`
	DumpCache DebugDumpCacheCmd `cmd:"" help:"Dump a cached value as JSON."`
	DumpTasks DebugDumpTasksCmd `cmd:"" help:"Dump today's task list as JSON."`
}

type DebugPathsCmd struct {
	out io.Writer
}

func (cmd *DebugPathsCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"config_dir": ctx.ConfigDir,
		"log_dir":    filepath.Join(ctx.ConfigDir, "logs"),
		"server_db":  filepath.Join(ctx.ConfigDir, constants.DefaultDBFile),
		"cache":      ctx.CacheSpec,
	}
	store, err := ctx.Cache(context.Background())
	if err != nil {
		return err
	}
	if fs, ok := store.Backend().(*cache.FileStore); ok {
		output["cache_file"] = fs.Path()
	}
	return writeJSON(cmd.out, output)
}

type DebugDumpCacheCmd struct {
	Key string `arg:"" enum:"habits,timer,user" help:"Which cached value to dump (habits, timer or user)."`

	out io.Writer
}

func (cmd *DebugDumpCacheCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	store, err := ctx.Cache(bg)
	if err != nil {
		return err
	}

	var v any
	switch cmd.Key {
	case "habits":
		v, err = store.Habits(bg)
	case "timer":
		v, err = store.Timer(bg)
	case "user":
		v, err = store.User(bg)
	default:
		return fmt.Errorf("unknown cache key %q", cmd.Key)
	}
	if cache.IsMiss(err) {
		return fmt.Errorf("nothing cached under %s", cmd.Key)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}
	return writeJSON(cmd.out, v)
}

type DebugDumpTasksCmd struct {
	out io.Writer
}

func (cmd *DebugDumpTasksCmd) Run(ctx *cli.Context) error {
	tc, err := ctx.Tasks(context.Background())
	if err != nil {
		return err
	}
	return writeJSON(cmd.out, tc.Tasks())
}

func writeJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}
