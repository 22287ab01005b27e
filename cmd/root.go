// Package cmd holds the sphere-tracer command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sphere-tracer",
		Short: "Monte-Carlo path tracer for sphere scenes",
		Long: `sphere-tracer renders scenes made of spheres with diffuse, metal and glass
materials. Scenes are either built in or loaded from YAML/TOML files, and images
are written as plain PPM (P3) or PNG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScenesCmd())
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
