//go:build linux

package power

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const powerSupplyDir = "/sys/class/power_supply"

// systemBattery reads the first BAT* entry under /sys/class/power_supply.
type systemBattery struct{}

func newSystemBattery() BatteryReader {
	return &systemBattery{}
}

func (s *systemBattery) Read() (BatteryStatus, error) {
	entries, err := os.ReadDir(powerSupplyDir)
	if err != nil {
		return BatteryStatus{}, err
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "BAT") {
			continue
		}
		dir := filepath.Join(powerSupplyDir, e.Name())

		capRaw, err := os.ReadFile(filepath.Join(dir, "capacity"))
		if err != nil {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(string(capRaw)), 64)
		if err != nil {
			continue
		}

		status := ""
		if raw, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
			status = strings.TrimSpace(string(raw))
		}

		return BatteryStatus{
			Percent:  pct,
			Charging: status == "Charging" || status == "Full",
			Present:  true,
		}, nil
	}

	// No battery: desktop or server on AC power.
	return BatteryStatus{Present: false}, nil
}
