package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "etude",
	Short: "Hardware-adaptive runtime for the etude speech engine",
	Long: `etude manages the hardware-adaptive layer of the speech synthesis
engine: it detects CPU/GPU capabilities, dispatches compute kernels to
the fastest supported implementation, and runs the thermal, power and
adaptive tuning loops.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		return logging.Init(level, cfg.Logging.File, cfg.Logging.Console)
	},
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.etude/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
