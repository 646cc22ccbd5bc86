//go:build !linux

package power

// systemBattery on platforms without a wired battery API reports no
// battery, which the controller treats as AC power.
type systemBattery struct{}

func newSystemBattery() BatteryReader {
	return &systemBattery{}
}

func (s *systemBattery) Read() (BatteryStatus, error) {
	return BatteryStatus{Present: false}, nil
}
