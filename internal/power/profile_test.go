package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in   string
		want Profile
		ok   bool
	}{
		{"max_performance", MaxPerformance, true},
		{"balanced", Balanced, true},
		{"power_saver", PowerSaver, true},
		{"ultra_power_saver", UltraPowerSaver, true},
		{"turbo", Balanced, false},
	}

	for _, tt := range tests {
		got, err := ParseProfile(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}

func TestConfigDerivationIsDeterministic(t *testing.T) {
	for _, p := range []Profile{MaxPerformance, Balanced, PowerSaver, UltraPowerSaver} {
		first := configFor(p, 8)
		second := configFor(p, 8)
		assert.Equal(t, first, second, "configFor(%s) not idempotent", p)
	}
}

func TestConfigPerProfile(t *testing.T) {
	const cores = 8

	max := configFor(MaxPerformance, cores)
	assert.Equal(t, ScalingPerformance, max.CPUScaling)
	assert.Equal(t, 1.0, max.CPUMaxFreqRatio)
	assert.Equal(t, cores, max.MaxActiveCores)
	assert.Equal(t, GPUHigh, max.GPUPower)
	assert.False(t, max.MemoryCompression)
	assert.True(t, max.BackgroundProcessing)

	bal := configFor(Balanced, cores)
	assert.Equal(t, ScalingOnDemand, bal.CPUScaling)
	assert.Equal(t, 6, bal.MaxActiveCores)
	assert.Equal(t, GPUMedium, bal.GPUPower)

	saver := configFor(PowerSaver, cores)
	assert.Equal(t, ScalingConservative, saver.CPUScaling)
	assert.Equal(t, 4, saver.MaxActiveCores)
	assert.Equal(t, GPULow, saver.GPUPower)
	assert.True(t, saver.MemoryCompression)
	assert.False(t, saver.BackgroundProcessing)

	ultra := configFor(UltraPowerSaver, cores)
	assert.Equal(t, ScalingPowerSave, ultra.CPUScaling)
	assert.Equal(t, 2, ultra.MaxActiveCores)
	assert.Equal(t, GPUOff, ultra.GPUPower)
}

func TestConfigFloorsAtOneCore(t *testing.T) {
	for _, p := range []Profile{PowerSaver, UltraPowerSaver} {
		cfg := configFor(p, 1)
		assert.GreaterOrEqual(t, cfg.MaxActiveCores, 1, "profile %s", p)
	}
}

func TestProfileStrings(t *testing.T) {
	assert.Equal(t, "max_performance", MaxPerformance.String())
	assert.Equal(t, "ultra_power_saver", UltraPowerSaver.String())
	assert.Equal(t, "ondemand", ScalingOnDemand.String())
	assert.Equal(t, "off", GPUOff.String())
}
