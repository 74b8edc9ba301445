package teenastro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		valid bool
	}{
		{"backlash zero", Backlash{}.Validate(), true},
		{"backlash max", Backlash{RA: 999, Dec: 999}.Validate(), true},
		{"backlash ra too big", Backlash{RA: 1000}.Validate(), false},
		{"backlash dec negative", Backlash{Dec: -1}.Validate(), false},
		{"elevation bounds", ElevationLimits{Min: -30, Max: 60}.Validate(), true},
		{"elevation upper bounds", ElevationLimits{Min: 30, Max: 90}.Validate(), true},
		{"elevation min too high", ElevationLimits{Min: 40, Max: 90}.Validate(), false},
		{"elevation min too low", ElevationLimits{Min: -31, Max: 90}.Validate(), false},
		{"elevation max too low", ElevationLimits{Min: 0, Max: 59}.Validate(), false},
		{"elevation max too high", ElevationLimits{Min: 0, Max: 91}.Validate(), false},
		{"meridian bounds", MeridianLimits{East: 0, West: 180}.Validate(), true},
		{"meridian east too big", MeridianLimits{East: 181}.Validate(), false},
		{"meridian west negative", MeridianLimits{West: -1}.Validate(), false},
		{"slew rate min", validateSlewRate(1), true},
		{"slew rate max", validateSlewRate(9), true},
		{"slew rate zero", validateSlewRate(0), false},
		{"slew rate ten", validateSlewRate(10), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.valid {
				assert.NoError(t, tc.err)
			} else {
				assert.ErrorIs(t, tc.err, ErrInvalidInput)
			}
		})
	}
}
