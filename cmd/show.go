package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <NAME-OR-URL>",
	Short: "Show a single registry record's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := parseConfig(cmd)
		manager, err := buildManager(cfg, nil, 0, false)
		if err != nil {
			return err
		}

		result, err := manager.Show(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		pterm.Printf("Name:     %s\n", result.Name)
		pterm.Printf("Version:  %s\n", result.Version)
		pterm.Printf("GameBananaId: %d\n", result.GameBananaID)
		if len(result.Dependencies) == 0 {
			pterm.Println("Dependencies: none")
			return nil
		}
		pterm.Println("Dependencies:")
		for _, dep := range result.Dependencies {
			pterm.Printf("  - %s\n", dep)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
