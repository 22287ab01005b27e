package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/df07/go-sphere-tracer/pkg/scene"
)

func newScenesCmd() *cobra.Command {
	var scenesDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and scene files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scenesDir == "" {
				scenesDir = scene.FindScenesDir()
			}
			response, err := scene.ListAllScenes(scenesDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(response)
			}

			for i, group := range response.Groups {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s:\n", group.Name)
				for _, info := range group.Scenes {
					fmt.Fprintf(out, "  %-20s %s\n", info.ID, info.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenesDir, "scenes-dir", "", "Directory of YAML/TOML scene files (default ./scenes or ../scenes)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}
