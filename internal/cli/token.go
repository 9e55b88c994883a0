package cli

import (
	"fmt"

	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/spf13/cobra"
)

// NewTokenCommand mints a bearer token for the configured key without a
// running server.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the configured API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			tok, err := token.New(cfg.Secret, cfg.APIKey).Issue(cfg.APIKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}
