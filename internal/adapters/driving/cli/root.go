// Package cli implements the reguard command tree. Each command lives
// in its own file and registers itself on the root in init().
package cli

import (
	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/adapters/driven/config/file"
	"github.com/veridian-labs/reguard/internal/logger"
)

var version = "dev"

var (
	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "reguard",
	Short: "Streaming risk pipeline for financial documents",
	Long: `reguard ingests financial documents, classifies their regulatory
jurisdiction, scores compliance risk, indexes them for hybrid retrieval,
and dispatches alerts when a document crosses the risk threshold.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.reguard/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging to stderr")
}

// SetVersion records the build version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configured (or default) config file.
func loadConfig() (*file.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return file.Load(path)
}
