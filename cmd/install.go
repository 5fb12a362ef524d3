package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <URL>...",
	Short: "Install mods from GameBanana mod page URLs",
	Args:  cobra.RangeArgs(1, 19),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := parseConfig(cmd)

		mirrorNames, _ := cmd.Flags().GetStringSlice("mirror-priority")
		mirrorIDs, err := parseMirrorPriority(mirrorNames)
		if err != nil {
			return err
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		useAPIMirror, _ := cmd.Flags().GetBool("use-api-mirror")

		manager, err := buildManager(cfg, mirrorIDs, jobs, useAPIMirror)
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("Resolving dependencies and downloading mods...")
		installing, errs, err := manager.Install(cmd.Context(), args, newByteProgressReporter(spinner))
		if err != nil {
			spinner.Fail("Install failed")
			return err
		}
		spinner.Success("Dependency resolution complete")

		for _, name := range installing {
			pterm.Printf("- %s\n", name)
		}

		return reportDownloadErrors(errs)
	},
}

func init() {
	installCmd.Flags().StringSliceP("mirror-priority", "p", defaultMirrorPriority, "Comma-separated list of mirror priorities")
	installCmd.Flags().BoolP("use-api-mirror", "m", false, "Enables GitHub mirror for database retrieval")
	installCmd.Flags().IntP("jobs", "j", 4, "Maximum number of concurrent downloads (1-6)")
	rootCmd.AddCommand(installCmd)
}
