package teenastro

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"teenastro/pkg/alpaca"
	"teenastro/templates"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	logger, _ := test.NewNullLogger()

	tmpl, err := templates.LoadTemplates()
	require.NoError(t, err)

	d, err := NewDriver(0, openTestDB(t), tmpl, Options{Simulate: true}, logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	// Tests drive polls explicitly.
	cfg := defaultConfig
	cfg.PollInterval = 3600 * 1000
	require.NoError(t, d.store.SetConfig(cfg))
	return d
}

func TestDriverConnectPollDisconnect(t *testing.T) {
	d := newTestDriver(t)

	assert.False(t, d.Connected())
	assert.Equal(t, alpaca.TelescopeStatus{SideOfPier: alpaca.PierUnknown}, d.Status())

	require.NoError(t, d.Connect())
	assert.True(t, d.Connected())
	assert.Error(t, d.Connect())

	fw, ok := d.Fields().Get(FieldFirmware)
	require.True(t, ok)
	assert.Equal(t, alpaca.StateOk, fw.State)

	d.Poll()

	coord, ok := d.Fields().Get(FieldCoord)
	require.True(t, ok)
	assert.Equal(t, Coordinates{RA: 5.5, Dec: 22.25}, coord.Value)

	status := d.Status()
	assert.True(t, status.AtHome)
	assert.True(t, status.AtPark)
	assert.False(t, status.Slewing)
	assert.Equal(t, alpaca.PierEast, status.SideOfPier)
	assert.Equal(t, alpaca.AlignmentGermanPolar, status.AlignmentMode)
	assert.InDelta(t, 5.5, status.RightAscension, 1e-9)

	require.NoError(t, d.Disconnect())
	assert.False(t, d.Connected())
	assert.ErrorIs(t, d.Disconnect(), alpaca.ErrNotConnected)
}

func TestDriverConcurrentDisconnect(t *testing.T) {
	d := newTestDriver(t)
	require.NoError(t, d.Connect())

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Poll()
			errs[i] = d.Disconnect()
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, alpaca.ErrNotConnected)
	}
	assert.Equal(t, 1, ok)
	assert.False(t, d.Connected())
	assert.False(t, d.Connecting())
	require.NoError(t, d.Connect())
}

func TestDriverUpdateField(t *testing.T) {
	d := newTestDriver(t)

	handled, err := d.UpdateField(FieldSlewRate, map[string]string{"rate": "3"})
	assert.True(t, handled)
	assert.ErrorIs(t, err, alpaca.ErrNotConnected)

	require.NoError(t, d.Connect())

	handled, err = d.UpdateField(FieldSlewRate, map[string]string{"rate": "3"})
	assert.True(t, handled)
	require.NoError(t, err)

	f, ok := d.Fields().Get(FieldSlewRate)
	require.True(t, ok)
	assert.Equal(t, 3, f.Value)

	handled, err = d.UpdateField(FieldElevation, map[string]string{"min": "40", "max": "90"})
	assert.True(t, handled)
	var aerr *alpaca.Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 0x401, aerr.Number)

	handled, err = d.UpdateField("NO_SUCH_FIELD", nil)
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestDriverTelescopeOperations(t *testing.T) {
	d := newTestDriver(t)
	assert.ErrorIs(t, d.Park(), alpaca.ErrNotConnected)

	require.NoError(t, d.Connect())
	d.Poll()

	sim := d.ch.(*Simulator)
	sim.ClearCommands()

	// Already parked.
	require.NoError(t, d.Park())
	assert.Empty(t, sim.Commands())

	require.NoError(t, d.Unpark())
	require.NoError(t, d.SetTracking(true))
	require.NoError(t, d.FindHome())
	require.NoError(t, d.AbortSlew())
	assert.Equal(t, []string{":hR#", ":Te#", ":hC#", ":Q#"}, sim.Commands())

	sim.Script(":RA0.500000#", "1")
	err := d.SetTrackingRates(0.5, 0)
	var aerr *alpaca.Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 0x500, aerr.Number)
}

func TestDriverSetup(t *testing.T) {
	d := newTestDriver(t)

	rec := httptest.NewRecorder()
	d.HandleSetup(rec, httptest.NewRequest(http.MethodGet, "/setup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/dev/ttyUSB0")

	form := url.Values{
		"serial-port":   {"/dev/ttyACM0"},
		"baud":          {"19200"},
		"poll-interval": {"500"},
		"site-known":    {"true"},
		"latitude":      {"47.5"},
		"longitude":     {"8.25"},
	}
	req := httptest.NewRequest(http.MethodPost, "/setup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	d.HandleSetup(rec, req)
	assert.Contains(t, rec.Body.String(), "Configuration saved")

	cfg, err := d.store.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
	assert.Equal(t, 19200, cfg.Baud)
	assert.Equal(t, 500, cfg.PollInterval)
	assert.True(t, cfg.SiteKnown)
	assert.Equal(t, 47.5, cfg.Latitude)

	form.Set("poll-interval", "10")
	req = httptest.NewRequest(http.MethodPost, "/setup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	d.HandleSetup(rec, req)
	assert.Contains(t, rec.Body.String(), "poll interval must be at least 100 ms")

	cfg, err = d.store.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.PollInterval)
}
