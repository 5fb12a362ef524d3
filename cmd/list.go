package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dreamdenizen/everest-updater/internal/everest"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the currently installed mods",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := parseConfig(cmd)
		manager, err := buildManager(cfg, nil, 0, false)
		if err != nil {
			return err
		}

		mods, err := manager.List()
		if err != nil {
			return err
		}

		printModList(mods)
		return nil
	},
}

// printModList renders each installed mod as `- <name> (<filename>)`
// followed by a trailing count line.
func printModList(mods []*everest.LocalMod) {
	for _, mod := range mods {
		pterm.Printf("- %s (%s)\n", mod.Name(), filepath.Base(mod.Path))
	}
	fmt.Printf("\n✅ %d mods found.\n", len(mods))
}

func init() {
	rootCmd.AddCommand(listCmd)
}
