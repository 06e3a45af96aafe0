package system

import (
	"fmt"

	"github.com/julianstephens/bloomup/internal/cli"
)

// MigrateCmd creates the server database if needed and applies pending migrations.
type MigrateCmd struct {
	DB string `help:"Server database: SQLite path, PostgreSQL connection string or 'keyring'." env:"BLOOMUP_DB"`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, err := cli.OpenStore(c.DB, ctx.ConfigDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Printf("Database is up to date: %s\n", store.GetConfigPath())
	return nil
}
