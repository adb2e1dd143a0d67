package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing, then initializes
// the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.writePlain("✓ Created %s, add your Spotify client_id and client_secret\n", configPath)
		}
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenConfigured(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	for _, m := range applied {
		r.writePlain("   migration %04d applied %s\n", m.Version, m.AppliedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
