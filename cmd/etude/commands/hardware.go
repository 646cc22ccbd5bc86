package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub002/internal/hardware"
)

var hardwareCmd = &cobra.Command{
	Use:   "hardware",
	Short: "Show detected hardware capabilities",
	Long: `Probe the CPU, GPU and memory and print the capability snapshot
used to select kernel implementations.`,
	RunE: runHardware,
}

func init() {
	rootCmd.AddCommand(hardwareCmd)
}

func runHardware(cmd *cobra.Command, args []string) error {
	det := hardware.NewDetector()
	caps := det.Detect()

	fmt.Println(caps.Summary())
	fmt.Printf("Detected at: %s\n", caps.DetectedAt.Format("2006-01-02 15:04:05"))
	return nil
}
