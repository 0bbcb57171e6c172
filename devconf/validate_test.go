package devconf

import (
	"testing"

	"github.com/juju/errors"

	"omibyte.io/wmdt/targets"
)

func TestValidateConfigWithoutCPUClock(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{"sd clock", SDMMCConfig{ClockHz: 40000000, BusWidth: 4}, true},
		{"sd clock off divider", SDMMCConfig{ClockHz: 35000000, BusWidth: 4}, false},
		{"sd clock above cpu", SDMMCConfig{ClockHz: 480000000, BusWidth: 4}, false},
		{"psram clock", PSRAMConfig{ClockHz: 80000000}, true},
		{"psram clock off divider", PSRAMConfig{ClockHz: 70000000}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validateConfig(test.cfg, targets.Baseline())
			if test.valid && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if !test.valid && !errors.Is(err, errors.NotValid) {
				t.Errorf("expected NotValid, got %v", err)
			}
		})
	}
}
