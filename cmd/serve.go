package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/df07/go-sphere-tracer/web/server"
)

func newServeCmd() *cobra.Command {
	var config server.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web preview server",
		Long:  "Serve progressive renders over Server-Sent Events, plus scene listing and pixel inspection endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if config.ScenesDir == "" {
				config.ScenesDir = scene.FindScenesDir()
			}
			return server.NewServer(config, renderer.NewWriterLogger(cmd.ErrOrStderr())).Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&config.Port, "port", "p", server.DefaultPort, "Port to serve on")
	cmd.Flags().StringVar(&config.ScenesDir, "scenes-dir", "", "Directory of YAML/TOML scene files (default ./scenes or ../scenes)")
	cmd.Flags().StringVar(&config.StaticDir, "static", "", "Directory of static files served at /")
	return cmd
}
