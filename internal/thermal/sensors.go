package thermal

import (
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// systemSensors reads temperatures through gopsutil. On hosts without
// exposed sensors (common in containers and VMs) Read returns a zero
// reading, which downstream logic treats as normal.
type systemSensors struct{}

func newSystemSensors() *systemSensors {
	return &systemSensors{}
}

func (s *systemSensors) Read() (Reading, error) {
	r := Reading{Timestamp: time.Now()}

	temps, err := host.SensorsTemperatures()
	if err != nil && len(temps) == 0 {
		// Partial results still come back alongside an error on some
		// platforms; only a truly empty result is a failure.
		return r, err
	}

	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		switch {
		case strings.Contains(key, "gpu"):
			if t.Temperature > r.GPUTempC {
				r.GPUTempC = t.Temperature
			}
		case strings.Contains(key, "bat"):
			if t.Temperature > r.BatteryTempC {
				r.BatteryTempC = t.Temperature
			}
		case strings.Contains(key, "cpu"), strings.Contains(key, "core"),
			strings.Contains(key, "coretemp"), strings.Contains(key, "k10temp"),
			strings.Contains(key, "package"):
			if t.Temperature > r.CPUTempC {
				r.CPUTempC = t.Temperature
			}
		}
		if t.Temperature > r.MaxTempC {
			r.MaxTempC = t.Temperature
		}
	}

	return r, nil
}

// FixedSensors is a SensorReader returning a constant reading. Used in
// tests and on platforms with no sensor API at all.
type FixedSensors struct {
	Reading Reading
}

func (f *FixedSensors) Read() (Reading, error) {
	r := f.Reading
	r.Timestamp = time.Now()
	return r, nil
}
