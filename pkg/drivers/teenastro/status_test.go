package teenastro

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFirstRead(t *testing.T) {
	d := NewStatusDecoder()

	got, changed, err := d.Decode("nNPHrtE0")
	require.NoError(t, err)
	assert.True(t, changed)

	want := Status{
		Raw:        "nNPHrtE0",
		Tracking:   TrackParked,
		Refraction: RefractionFull,
		Parked:     true,
		ParkLabel:  "At Home and Parked",
		Topology:   TopologyGerman,
		LastError:  CodeNone,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeParkedAtHomeWithPPS(t *testing.T) {
	d := NewStatusDecoder()

	got, _, err := d.Decode("PHS4")
	require.NoError(t, err)
	assert.True(t, got.Parked)
	assert.Equal(t, "At Home and Parked", got.ParkLabel)
	assert.Equal(t, TimeSyncPPS, got.TimeSync)
	assert.Equal(t, CodeDec, got.LastError)
	assert.Equal(t, "Dec Limit Exceeded", got.LastError.String())

	// Ordinal 3 is the limit sensor, not the declination limit.
	got, _, err = NewStatusDecoder().Decode("PHS3")
	require.NoError(t, err)
	assert.Equal(t, CodeLimitSense, got.LastError)
}

func TestDecodeTracking(t *testing.T) {
	tests := []struct {
		raw  string
		want TrackingState
	}{
		{"nN0", TrackIdle},
		{"n0", TrackSlewing},
		{"N0", TrackTracking},
		{"0", TrackIdle},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, _, err := NewStatusDecoder().Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Tracking)
		})
	}
}

func TestDecodeRefraction(t *testing.T) {
	tests := []struct {
		raw  string
		want RefractionMode
	}{
		{"N0", RefractionUnknown},
		{"Nr0", RefractionOnly},
		{"Nrt0", RefractionFull},
		{"Ns0", RefractionOff},
		{"Nt0", RefractionUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, _, err := NewStatusDecoder().Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Refraction)
		})
	}
}

func TestDecodeErrorCodes(t *testing.T) {
	tests := []struct {
		raw  string
		want ErrorCode
	}{
		{"N0", CodeNone},
		{"N1", CodeMotorFault},
		{"N2", CodeAlt},
		{"N3", CodeLimitSense},
		{"N4", CodeDec},
		{"N5", CodeAzm},
		{"N6", CodeUnderPole},
		{"N7", CodeMeridian},
		{"N8", CodeSync},
		{"N9", CodePark},
		{"N:", CodeGotoSync},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, _, err := NewStatusDecoder().Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.LastError)
		})
	}
}

func TestDecodeInvalidErrorCodeKeepsPrevious(t *testing.T) {
	d := NewStatusDecoder()
	_, _, err := d.Decode("N3")
	require.NoError(t, err)

	got, changed, err := d.Decode("n;")
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, changed)
	assert.Equal(t, CodeLimitSense, got.LastError)
	assert.Equal(t, TrackSlewing, got.Tracking)
	assert.Equal(t, got, d.Current())
}

func TestDecodeEmpty(t *testing.T) {
	d := NewStatusDecoder()
	_, changed, err := d.Decode("")
	assert.ErrorIs(t, err, ErrDecode)
	assert.False(t, changed)
}

func TestDecodeUnchangedIsNoop(t *testing.T) {
	d := NewStatusDecoder()

	first, changed, err := d.Decode("nNpE0")
	require.NoError(t, err)
	require.True(t, changed)

	again, changed, err := d.Decode("nNpE0")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, again)

	d.Reset()
	_, changed, err = d.Decode("nNpE0")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestDecodeParkTransitions(t *testing.T) {
	tests := []struct {
		name      string
		sequence  []string
		tracking  TrackingState
		parked    bool
		parkLabel string
	}{
		{"first read parked", []string{"nNPE0"}, TrackParked, true, "Parked"},
		{"first read parking", []string{"nNIE0"}, TrackParking, false, "Park in Progress"},
		{"first read park failed", []string{"nNFE0"}, TrackUnparkFailed, false, "Parking Failed"},
		{"first read unparked idle", []string{"nNpE0"}, TrackIdle, false, "UnParked"},
		{"first read unparked tracking", []string{"NpE0"}, TrackTracking, false, "UnParked"},
		{"unpark to tracking", []string{"nNPE0", "NpE0"}, TrackTracking, false, "UnParked"},
		{"unpark to idle", []string{"nNPE0", "nNpE0"}, TrackIdle, false, "UnParked"},
		{"unpark failed", []string{"nNPE0", "nNFE0"}, TrackUnparkFailed, false, "Parking Failed"},
		{"park requested", []string{"NpE0", "nNIE0"}, TrackParking, false, "Park in Progress"},
		{"park completed", []string{"NpE0", "nNIE0", "nNPE0"}, TrackParked, true, "Parked"},
		{"parked ignores parking flag", []string{"nNPE0", "nNPIE0"}, TrackIdle, true, "Parked"},
		{"unparked ignores unpark failed", []string{"NpE0", "NFE0"}, TrackTracking, false, "UnParked"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewStatusDecoder()
			var got Status
			for _, raw := range tc.sequence {
				var err error
				got, _, err = d.Decode(raw)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.tracking, got.Tracking)
			assert.Equal(t, tc.parked, got.Parked)
			assert.Equal(t, tc.parkLabel, got.ParkLabel)
		})
	}
}

func TestDecodeHome(t *testing.T) {
	got, _, err := NewStatusDecoder().Decode("nNpHE0")
	require.NoError(t, err)
	assert.Equal(t, "At Home and UnParked", got.ParkLabel)
	assert.False(t, got.HomePause)

	got, _, err = NewStatusDecoder().Decode("nNpuwE0")
	require.NoError(t, err)
	assert.Equal(t, "Waiting at Home", got.ParkLabel)
	assert.True(t, got.HomePause)
}

func TestDecodeTopology(t *testing.T) {
	tests := []struct {
		raw  string
		want Topology
	}{
		{"N0", TopologyUnknown},
		{"NE0", TopologyGerman},
		{"NK0", TopologyFork},
		{"Nk0", TopologyForkAlt},
		{"NA0", TopologyAltAz},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, _, err := NewStatusDecoder().Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Topology)
		})
	}
}

func TestPierDecoder(t *testing.T) {
	var d PierDecoder

	side, changed, err := d.Decode("E")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PierEast, side)

	_, changed, err = d.Decode("E")
	require.NoError(t, err)
	assert.False(t, changed)

	side, changed, err = d.Decode("W")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PierWest, side)

	side, changed, err = d.Decode("X")
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, changed)
	assert.Equal(t, PierWest, side)

	side, _, err = d.Decode("?")
	require.NoError(t, err)
	assert.Equal(t, PierUnknown, side)

	side, _, err = d.Decode("N")
	require.NoError(t, err)
	assert.Equal(t, PierUnknown, side)

	_, _, err = d.Decode("")
	assert.ErrorIs(t, err, ErrDecode)

	d.Reset()
	assert.Equal(t, PierUnknown, d.Current())
}
