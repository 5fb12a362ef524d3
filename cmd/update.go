package cmd

import (
	"fmt"

	"github.com/dreamdenizen/everest-updater/internal/everest"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and optionally install mod updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := parseConfig(cmd)

		mirrorNames, _ := cmd.Flags().GetStringSlice("mirror-priority")
		mirrorIDs, err := parseMirrorPriority(mirrorNames)
		if err != nil {
			return err
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		install, _ := cmd.Flags().GetBool("install")
		useAPIMirror, _ := cmd.Flags().GetBool("use-api-mirror")

		manager, err := buildManager(cfg, mirrorIDs, jobs, useAPIMirror)
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("Checking the registry for updates...")

		if !install {
			_, info, err := manager.Update(cmd.Context())
			if err != nil {
				spinner.Fail("Could not check for updates")
				return err
			}
			spinner.Success("Registry check complete")
			printUpdateInfo(info)
			return nil
		}

		spinner.UpdateText("Downloading updates...")
		info, errs, err := manager.InstallUpdates(cmd.Context(), newByteProgressReporter(spinner))
		if err != nil {
			spinner.Fail("Could not check for updates")
			return err
		}
		spinner.Success("Downloads complete")
		printUpdateInfo(info)

		return reportDownloadErrors(errs)
	},
}

func printUpdateInfo(info []everest.UpdateInfo) {
	if len(info) == 0 {
		pterm.Success.Println("All mods are up to date!")
		return
	}
	fmt.Println()
	for _, u := range info {
		pterm.Println(u.String())
	}
}

func init() {
	updateCmd.Flags().StringSliceP("mirror-priority", "p", defaultMirrorPriority, "Comma-separated list of mirror priorities")
	updateCmd.Flags().BoolP("use-api-mirror", "m", false, "Enables GitHub mirror for database retrieval")
	updateCmd.Flags().IntP("jobs", "j", 4, "Maximum number of concurrent downloads (1-6)")
	updateCmd.Flags().Bool("install", false, "Download and install detected updates instead of only reporting them")
	rootCmd.AddCommand(updateCmd)
}
