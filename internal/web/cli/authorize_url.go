package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/zuul/pkg/cryptox"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
)

func newAuthorizeURLCommand() *cobra.Command {
	var (
		baseURL     string
		clientID    string
		redirectURI string
		scopes      []string
		state       string
		noState     bool
	)

	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the Zuul authorization URL",
		Long: `Print the URL the login flow would redirect the browser to. Useful when
registering the client or debugging scopes.

Flags default to ZUUL_BASE_URL, ZUUL_CLIENT_ID and ZUUL_REDIRECT_URI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				return fmt.Errorf("--client-id or ZUUL_CLIENT_ID is required")
			}

			client := zuul.NewClient(zuul.Config{
				BaseURL:     baseURL,
				ClientID:    clientID,
				RedirectURI: redirectURI,
			})

			var opts []zuul.AuthURLOption
			if !noState {
				if state == "" {
					state = cryptox.MustGenerateToken(cryptox.TokenSize256)
				}
				opts = append(opts, zuul.WithState(state))
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), client.BuildAuthorizationURL(scopes, opts...))
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", os.Getenv("ZUUL_BASE_URL"), "Identity Provider base URL")
	cmd.Flags().StringVar(&clientID, "client-id", os.Getenv("ZUUL_CLIENT_ID"), "OAuth client id")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", os.Getenv("ZUUL_REDIRECT_URI"), "Callback URL")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scope to request (repeatable)")
	cmd.Flags().StringVar(&state, "state", "", "State parameter (random when empty)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "Omit the state parameter")

	return cmd
}
