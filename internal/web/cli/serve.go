package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/zuul/internal/web/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		Long: `Run the web application until SIGINT or SIGTERM.

Environment Variables:
  ZUUL_BASE_URL            Identity Provider (default: https://auth.fit.cvut.cz)
  ZUUL_CLIENT_ID           OAuth client id (required)
  ZUUL_CLIENT_SECRET       OAuth client secret
  ZUUL_REDIRECT_URI        Callback URL ending in /auth/zuul/check (required)
  ZUUL_SCOPES              Comma separated scopes
  ZUUL_STATELESS           Skip the OAuth state check
  USERMAP_BASE_URL         Usermap API (default: https://kosapi.fit.cvut.cz/usermap/v1)
  SESSION_BACKEND          memory or redis (default: memory)
  SESSION_SECRET           Cookie signing secret (required outside dev)
  SESSION_TTL              Session lifetime (default: 24h)
  SESSION_ENCRYPT          Encrypt Redis session records (default: true)
  REDIS_ADDR               Redis address (default: localhost:6379)
  PORT                     HTTP port (default: 8080)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}
