package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dreamdenizen/everest-updater/internal/everest"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CLIConfig collects the global flags every subcommand resolves before
// building a Manager.
type CLIConfig struct {
	ModsDir string
	LogFile string
}

var logFileHandle io.Closer

var rootCmd = &cobra.Command{
	Use:   "everest-updater",
	Short: "Installs and updates Everest/Celeste mods from GameBanana",
	Long:  `A CLI tool to list, install, and update Celeste/Everest mods, verifying archive integrity against the community registry.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logPath, _ := cmd.Flags().GetString("log-file")
		if logPath == "" {
			return nil
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", logPath, err)
		}
		logFileHandle = f
		return nil
	},
}

// Execute initializes the root command tree and delegates to Cobra for
// argument parsing and subcommand dispatch.
func Execute() {
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
		pterm.DisableStyling()
		pterm.RawOutput = true
	}
	defer func() {
		if logFileHandle != nil {
			_ = logFileHandle.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("directory", "d", "", "Directory where mods are installed (default: Steam's Celeste Mods directory)")
	rootCmd.PersistentFlags().String("log-file", "", "Writes logs to the specified file")
}

// logf writes a line to the active log file, if one was opened, and is a
// no-op otherwise. Dispatch flows pass this to Manager.Logf.
func logf(format string, args ...any) {
	if logFileHandle == nil {
		return
	}
	fmt.Fprintf(logFileHandle.(*os.File), format+"\n", args...)
}

func parseConfig(cmd *cobra.Command) CLIConfig {
	cfg := CLIConfig{}
	cfg.ModsDir, _ = cmd.Flags().GetString("directory")
	cfg.LogFile, _ = cmd.Flags().GetString("log-file")
	return cfg
}

// resolveModsDir applies the CLI's directory-resolution rule: the explicit
// flag if given, otherwise the conventional Steam mods directory under the
// user's home.
func resolveModsDir(cfg CLIConfig) (string, error) {
	if cfg.ModsDir != "" {
		return cfg.ModsDir, nil
	}
	return everest.DefaultModsDirectory()
}

// buildManager resolves every global setting and constructs a Manager
// ready for the list/install/update/show flows.
func buildManager(cfg CLIConfig, mirrorIDs []everest.MirrorID, jobs int, useAPIMirror bool) (*everest.Manager, error) {
	modsDir, err := resolveModsDir(cfg)
	if err != nil {
		return nil, err
	}
	cachePath, err := everest.DefaultCachePath()
	if err != nil {
		return nil, err
	}

	return &everest.Manager{
		Config: everest.Config{
			ModsDir:      modsDir,
			CachePath:    cachePath,
			MirrorIDs:    mirrorIDs,
			Jobs:         jobs,
			UseAPIMirror: useAPIMirror,
		},
		Logf: logf,
	}, nil
}

// defaultMirrorPriority is the CLI's documented default ordering.
var defaultMirrorPriority = []string{"otobot", "gb", "jade", "wegfan"}

func parseMirrorPriority(names []string) ([]everest.MirrorID, error) {
	if len(names) == 0 {
		names = defaultMirrorPriority
	}
	ids := make([]everest.MirrorID, 0, len(names))
	for _, name := range names {
		id, err := everest.ParseMirrorID(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
