package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scorealign/internal/server"
	"github.com/matzehuels/scorealign/pkg/errors"
)

// serveCommand creates the serve command, which exposes one score over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags layoutFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve [score.musicxml]",
		Short: "Serve layouts of a score over HTTP",
		Long: `Serve layouts of a score over HTTP.

Endpoints:
  GET /healthz
  GET /api/layout?width=&level=        all systems as JSON
  GET /api/systems/{index}?width=      one system as JSON
  GET /api/render.svg?width=&level=    the aligned page as SVG

Flags set the defaults that query parameters override.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := errors.ValidatePath(args[0]); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, cfg, flags.noCache, flags.signal)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(runner, flags.options(cmd, args[0], &cfg), c.Logger)
			printInfo("Serving %s on http://%s", args[0], addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	return cmd
}
