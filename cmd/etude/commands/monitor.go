package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub002/internal/engine"
)

var monitorDuration time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the adaptive monitoring loop",
	Long: `Start the thermal/power/adaptive control loop and print the status
report on an interval. Stops on SIGINT or after --duration.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	rt, err := engine.New(cfg)
	if err != nil {
		return err
	}

	if err := rt.Start(); err != nil {
		return err
	}
	defer rt.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	report := time.NewTicker(time.Duration(cfg.Adaptive.IntervalMs) * time.Millisecond * 5)
	defer report.Stop()

	var timeout <-chan time.Time
	if monitorDuration > 0 {
		timeout = time.After(monitorDuration)
	}

	for {
		select {
		case <-sig:
			return nil
		case <-timeout:
			return nil
		case <-report.C:
			fmt.Println(rt.StatusString())
		}
	}
}
