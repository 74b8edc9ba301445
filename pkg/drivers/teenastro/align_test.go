package teenastro

import (
	"strings"
	"testing"

	"teenastro/pkg/alpaca"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAligner(t *testing.T) (*Aligner, *Simulator) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	codec, sim := newTestCodec(t)
	return NewAligner(codec, logger), sim
}

func countCommand(cmds []string, cmd string) int {
	n := 0
	for _, c := range cmds {
		if c == cmd {
			n++
		}
	}
	return n
}

func TestAlignStartClampsToMax(t *testing.T) {
	a, sim := newTestAligner(t)
	sim.Script(":A?#", "500#")

	state, err := a.Start(7)
	require.NoError(t, err)
	assert.Equal(t, alpaca.StateBusy, state)
	assert.Equal(t, []string{":A?#", ":A5#"}, sim.Commands())
	assert.Equal(t, AlignSession{State: AlignStarted, Target: 5, Max: 5}, a.Session())
}

func TestAlignStartTier(t *testing.T) {
	tests := []struct {
		tier int
		cmd  string
	}{
		{0, ":A1#"},
		{2, ":A3#"},
		{4, ":A5#"},
		{5, ":A9#"},
	}

	for _, tc := range tests {
		t.Run(tc.cmd, func(t *testing.T) {
			a, sim := newTestAligner(t)

			state, err := a.StartTier(tc.tier)
			require.NoError(t, err)
			assert.Equal(t, alpaca.StateBusy, state)
			assert.Equal(t, tc.cmd, sim.Commands()[1])
		})
	}
}

func TestAlignStartInvalid(t *testing.T) {
	a, sim := newTestAligner(t)

	state, err := a.Start(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, alpaca.StateIdle, state)

	state, err = a.StartTier(6)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, alpaca.StateIdle, state)

	assert.Empty(t, sim.Commands())
}

func TestAlignStartBadMax(t *testing.T) {
	for _, reply := range []string{"000#", "x00#"} {
		t.Run(reply, func(t *testing.T) {
			a, sim := newTestAligner(t)
			sim.Script(":A?#", reply)

			state, err := a.Start(3)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, alpaca.StateAlert, state)
			assert.Equal(t, []string{":A?#"}, sim.Commands())
		})
	}
}

func TestAlignStartQueryTimeout(t *testing.T) {
	a, sim := newTestAligner(t)
	sim.Silence(":A?#")

	state, err := a.Start(3)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, alpaca.StateAlert, state)
}

func TestAlignCompletionRefreshesPolarErrorOnce(t *testing.T) {
	a, sim := newTestAligner(t)

	_, err := a.Start(2)
	require.NoError(t, err)

	report, err := a.PollStatus()
	require.NoError(t, err)
	assert.False(t, report.Completed)
	assert.Equal(t, "912 Manual Align: Star 1/2", report.Message)

	for i := 0; i < 2; i++ {
		state, err := a.AddStar()
		require.NoError(t, err)
		assert.Equal(t, alpaca.StateBusy, state)
	}
	assert.Equal(t, AlignCapturing, a.Session().State)

	report, err = a.PollStatus()
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.Equal(t, "Manual Align: Completed", report.Message)
	require.NotNil(t, report.Polar)
	assert.Equal(t, int64(95), report.Polar.Altitude)
	assert.Equal(t, int64(-42), report.Polar.Azimuth)
	assert.Equal(t, AlignCompleted, a.Session().State)

	for i := 0; i < 3; i++ {
		report, err = a.PollStatus()
		require.NoError(t, err)
		assert.False(t, report.Completed)
		assert.Nil(t, report.Polar)
		assert.Equal(t, "Manual Align: Completed", report.Message)
	}

	assert.Equal(t, 1, countCommand(sim.Commands(), ":GX02#"))
	assert.Equal(t, 1, countCommand(sim.Commands(), ":GX03#"))
}

func TestAlignPolarFailureReported(t *testing.T) {
	a, sim := newTestAligner(t)
	sim.Script(":A?#", "952#")
	sim.Silence(":GX02#")

	report, err := a.PollStatus()
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.Nil(t, report.Polar)
	assert.ErrorIs(t, report.PolarErr, ErrTimeout)
}

func TestAlignPollMalformed(t *testing.T) {
	a, sim := newTestAligner(t)
	sim.Script(":A?#", "9x#")

	_, err := a.PollStatus()
	assert.ErrorIs(t, err, ErrDecode)
}

func TestAlignFinish(t *testing.T) {
	a, sim := newTestAligner(t)

	state, err := a.Finish()
	require.NoError(t, err)
	assert.Equal(t, alpaca.StateOk, state)
	assert.Equal(t, AlignCompleted, a.Session().State)
	assert.Equal(t, []string{":AW#"}, sim.Commands())
}

func TestRefreshPolarError(t *testing.T) {
	codec, sim := newTestCodec(t)
	sim.Script(":GX02#", "12.7#")
	sim.Script(":GX03#", "-3725#")

	pe, err := RefreshPolarError(codec)
	require.NoError(t, err)
	assert.Equal(t, PolarError{
		Altitude:     12,
		Azimuth:      -3725,
		AltitudeText: `12" / 0:00:12`,
		AzimuthText:  `-3725" / -1:02:05`,
	}, pe)

	sim.Script(":GX03#", "abc#")
	_, err = RefreshPolarError(codec)
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, strings.HasPrefix(err.Error(), "azimuth correction"))
}

func TestFormatSexagesimal(t *testing.T) {
	assert.Equal(t, "0:00:00", formatSexagesimal(0))
	assert.Equal(t, "45:30:00", formatSexagesimal(45.5))
	assert.Equal(t, "-33:30:00", formatSexagesimal(-33.5))
	assert.Equal(t, "0:01:35", formatSexagesimal(95.0/3600))
}
