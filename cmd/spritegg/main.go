// Command spritegg builds sprite sheets from per-frame PNG folders.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spritegg/internal/config"
	"spritegg/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	logFile    string
	logFormat  string

	// cfg is loaded by the root PersistentPreRunE.
	cfg *config.Config
)

// errRunFailed signals a run that already reported its own failures.
var errRunFailed = errors.New("build finished with errors")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "spritegg",
	Short: "Sprite sheet builder for per-frame PNG folders",
	Long: `spritegg turns folders of per-frame PNG renders into one sprite sheet per
entity (hero, enemy, NPC, item, weapon) and copies the sheets into the game
asset trees.

Entity type is taken from the folder prefix: PJ_, E<n>_, NPC_, I_, W_.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-file") {
			loaded.Logging.File = logFile
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Logging.Format = logFormat
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := logging.Initialize(logging.Config{
			File:   loaded.Logging.File,
			Level:  loaded.Logging.Level,
			Format: loaded.Logging.Format,
		}); err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		logging.Boot("spritegg %s: config=%s", cmd.Name(), configPath)
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output and debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "build_sprites.log", "Log file path (empty disables logging)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
}

// currentConfig returns the loaded config, or the defaults when a command
// runs without the root pre-run hook.
func currentConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.CloseAll()
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+strings.TrimSpace(err.Error())))
		}
		os.Exit(1)
	}
}
