package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file, leaving an existing one untouched.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("%s %s\n", formatter.Muted("Config already present at"), r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("%s\n", formatter.OK("✓ Created "+r.configPath))
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard with redirect URI %s\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("2. Set credentials.spotify.client_id and client_secret in %s\n", r.configPath)
	return r.writePlain("3. Run 'spotifly auth login'\n")
}
