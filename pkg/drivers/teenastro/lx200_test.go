package teenastro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSexagesimal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "12:34:56", want: 12 + 34.0/60 + 56.0/3600},
		{input: "12:34.5", want: 12 + 34.5/60},
		{input: "+45*30:15", want: 45 + 30.0/60 + 15.0/3600},
		{input: "-05*30", want: -5.5},
		{input: "-05°30'00\"", want: -5.5},
		{input: " 00:00:00 ", want: 0},
		{input: "", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "1:2:3:4", wantErr: true},
		{input: "-", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseSexagesimal(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestLX200Position(t *testing.T) {
	codec, _ := newTestCodec(t)
	lx := NewLX200(codec)

	ra, err := lx.RA()
	require.NoError(t, err)
	assert.InDelta(t, 5.5, ra, 1e-9)

	dec, err := lx.Dec()
	require.NoError(t, err)
	assert.InDelta(t, 22.25, dec, 1e-9)
}

func TestLX200SetSite(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     []string
	}{
		{"north west", 45.5, -73.75, []string{":Sg073:45#", ":St+45*30#"}},
		{"south east", -33.5, 151.25, []string{":Sg208:45#", ":St-33*30#"}},
		{"greenwich", 51.5, 0, []string{":Sg000:00#", ":St+51*30#"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codec, sim := newTestCodec(t)
			require.NoError(t, NewLX200(codec).SetSite(tc.lat, tc.lon))
			assert.Equal(t, tc.want, sim.Commands())
		})
	}
}

func TestLX200StandardAck(t *testing.T) {
	codec, sim := newTestCodec(t)
	lx := NewLX200(codec)

	require.NoError(t, lx.SetMinElevation(-5))
	require.NoError(t, lx.SetMaxElevation(85))
	assert.Equal(t, []string{":Sh-5#", ":So85#"}, sim.Commands())

	sim.Script(":Sh10#", "0")
	assert.ErrorIs(t, lx.SetMinElevation(10), ErrRejected)

	sim.Silence(":So80#")
	assert.ErrorIs(t, lx.SetMaxElevation(80), ErrTimeout)
}

func TestLX200Firmware(t *testing.T) {
	codec, sim := newTestCodec(t)

	fw, err := NewLX200(codec).Firmware()
	require.NoError(t, err)
	assert.Equal(t, Firmware{Date: "Jan 01 2024", Time: "12:00:00", Version: "1.5.0", Product: "TeenAstro"}, fw)
	assert.Equal(t, []string{":GVD#", ":GVT#", ":GVN#", ":GVP#"}, sim.Commands())

	sim.Silence(":GVN#")
	_, err = NewLX200(codec).Firmware()
	assert.ErrorIs(t, err, ErrTimeout)
}
