package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/shared"
)

// Setup creates config.toml from the embedded template when missing, then initializes the session database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	if loaded, err := shared.LoadConfig(configPath); err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
	} else {
		loaded.ApplyEnv()
		config = loaded
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Session store: %s\n", config.Database.Path)
	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set api.base_url, auth.url and auth.anon_key in %s (or %s, %s, %s)\n",
			configPath, shared.EnvAPIURL, shared.EnvAuthURL, shared.EnvAuthAnonKey)
		r.writePlain("2. Run 'ww auth login' to sign in\n")
		return nil
	}
	return r.writePlain("Run 'ww auth login' to sign in\n")
}
