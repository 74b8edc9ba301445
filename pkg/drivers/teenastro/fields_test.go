package teenastro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFieldDispatch(t *testing.T) {
	tests := []struct {
		id     string
		values map[string]string
		want   []string
	}{
		{FieldBacklash, map[string]string{"dec": "25", "ra": "10"}, []string{":$BD25#", ":$BR10#"}},
		{FieldElevation, map[string]string{"min": "-5", "max": "85"}, []string{":Sh-5#", ":So85#"}},
		{FieldMeridian, map[string]string{"east": "30", "west": "45"}, []string{":SXE9,30#", ":SXEA,45#"}},
		{FieldSlewRate, map[string]string{"rate": "3"}, []string{":R3#"}},
		{FieldSlewRate, map[string]string{"RATE": " 4 "}, []string{":R4#"}},
		{FieldTrackComp, map[string]string{"mode": "refraction"}, []string{":Tr#"}},
		{FieldFrequency, map[string]string{"adjust": "reset"}, []string{":TR#"}},
		{FieldAutoFlip, map[string]string{"enabled": "false"}, []string{":SX95,0#"}},
		{FieldPreferredPier, map[string]string{"side": "west"}, []string{":SX96,W#"}},
		{FieldPreferredPier, map[string]string{"side": "b"}, []string{":SX96,B#"}},
		{FieldHomePause, map[string]string{"action": "continue"}, []string{":SX99,1#"}},
		{FieldHomeInit, map[string]string{"action": "return"}, []string{":hC#"}},
		{FieldReticle, map[string]string{"action": "dark"}, []string{":B-#"}},
		{FieldAlignStars, map[string]string{"tier": "1"}, nil},
		{FieldAlign, map[string]string{"action": "start", "stars": "2"}, []string{":A?#", ":A2#", ":A?#"}},
		{FieldAlign, map[string]string{"action": "add"}, []string{":A+#", ":A?#", ":GX02#", ":GX03#"}},
		{FieldPolarError, nil, []string{":GX02#", ":GX03#"}},
		{FieldPark, map[string]string{"action": "unpark"}, []string{":hR#"}},
		{FieldParkOption, map[string]string{"action": "default"}, nil},
		{FieldTrackState, map[string]string{"enabled": "true"}, []string{":Te#"}},
		{FieldTrackRate, map[string]string{"ra": "1", "dec": "2"}, []string{":RA1.000000#", ":RE2.000000#"}},
		{FieldTime, map[string]string{"date": "2024-12-31"}, []string{":SC12/31/24#"}},
		{FieldSite, map[string]string{"lat": "10", "lon": "20"}, []string{":Sg340:00#", ":St+10*00#"}},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			f := newMountFixture(t, Site{})

			handled, err := f.mount.UpdateField(tc.id, tc.values)
			require.NoError(t, err)
			assert.True(t, handled)
			assert.Equal(t, tc.want, f.sim.Commands())
		})
	}
}

func TestUpdateFieldInvalidValues(t *testing.T) {
	tests := []struct {
		id     string
		values map[string]string
	}{
		{FieldBacklash, map[string]string{"dec": "x", "ra": "1"}},
		{FieldBacklash, map[string]string{"dec": "1"}},
		{FieldElevation, map[string]string{"min": "40", "max": "90"}},
		{FieldElevation, map[string]string{"min": "30.9", "max": "90.5"}},
		{FieldSlewRate, map[string]string{"rate": "1e3"}},
		{FieldTrackRate, map[string]string{"ra": "NaN", "dec": "0"}},
		{FieldTrackRate, map[string]string{"ra": "0", "dec": "+Inf"}},
		{FieldSite, map[string]string{"lat": "NaN", "lon": "0"}},
		{FieldAutoFlip, map[string]string{"enabled": "maybe"}},
		{FieldTrackComp, map[string]string{"mode": "extra"}},
		{FieldFrequency, map[string]string{}},
		{FieldHomePause, map[string]string{"action": "later"}},
		{FieldAlign, map[string]string{"action": "start", "stars": "0"}},
		{FieldAlign, map[string]string{"action": "dance"}},
		{FieldPark, map[string]string{"action": "fly"}},
		{FieldParkOption, map[string]string{}},
		{FieldTime, map[string]string{"date": "31/12/2024"}},
		{FieldSite, map[string]string{"lat": "91", "lon": "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			f := newMountFixture(t, Site{})

			handled, err := f.mount.UpdateField(tc.id, tc.values)
			assert.True(t, handled)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, f.sim.Commands())
		})
	}
}

func TestUpdateFieldUnknownAndReadOnly(t *testing.T) {
	f := newMountFixture(t, Site{})

	handled, err := f.mount.UpdateField("NO_SUCH_FIELD", nil)
	assert.False(t, handled)
	assert.NoError(t, err)

	for _, id := range []string{FieldCoord, FieldStatus, FieldPierSide, FieldAlignProcess, FieldFirmware} {
		handled, err = f.mount.UpdateField(id, map[string]string{"value": "1"})
		assert.True(t, handled, id)
		assert.ErrorIs(t, err, ErrInvalidInput, id)
	}
	assert.Empty(t, f.sim.Commands())
}
