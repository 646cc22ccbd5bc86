package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub002/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the runtime status report",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := engine.New(cfg)
	if err != nil {
		return err
	}

	// One thermal sample so the report reflects live readings.
	rt.Thermal.Update()

	fmt.Println(rt.StatusString())
	return nil
}
