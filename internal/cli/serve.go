package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/densify/internal/server"
	"github.com/matzehuels/densify/pkg/emit"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags settingsFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the processing API over HTTP",
		Long: `Start an HTTP server that processes uploaded images and serves the
emitted variants from the output directory.

  POST /v1/process?filename=logo@2x.png   process the request body
  GET  /assets/{name}                     fetch an emitted variant
  GET  /healthz                           liveness and build info`,
		Example: `  densify serve --addr :9000 --public-path /assets/`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				s.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), s, flags.refresh)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, s *settings, refresh bool) error {
	sink, err := emit.NewDirSink(s.cfg.Output.Dir)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, s, sink, refresh)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(runner, sink, server.Options{
		Logger:         c.Logger,
		MaxBodyBytes:   s.cfg.Server.MaxBodyBytes,
		PublicPathExpr: s.cfg.Output.PublicPathExpr,
	})

	printInfo("Serving on %s", StyleLink.Render(s.cfg.Server.Addr))
	printDetail("Assets: %s", s.cfg.Output.Dir)
	return srv.ListenAndServe(ctx, s.cfg.Server.Addr)
}
