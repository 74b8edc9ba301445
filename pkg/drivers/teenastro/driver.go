package teenastro

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"teenastro/pkg/alpaca"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	deviceName    = "TeenAstro"
	deviceType    = "Telescope"
	driverName    = "TeenAstro Telescope Driver"
	driverVersion = "1.0"
)

type connState int

const (
	connStateDisconnected connState = iota
	connStateConnecting
	connStateConnected
	connStateDisconnecting
)

// Options override the stored device configuration from the command line.
type Options struct {
	Simulate   bool
	SerialPort string
}

// Driver represents the TeenAstro Alpaca telescope driver. It serializes the
// poll loop and client requests on one mutex.
type Driver struct {
	number int                // Driver number
	store  *store             // Configuration and park store
	tmpl   *template.Template // HTML template for rendering the setup form
	opts   Options
	fields *alpaca.FieldStore
	logger log.FieldLogger

	mu    sync.Mutex
	state connState

	// Created when the driver is connected
	ch     Channel
	mount  *Mount
	client mqtt.Client
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDriver(number int, db *bolt.DB, tmpl *template.Template, opts Options, logger log.FieldLogger) (*Driver, error) {
	store, err := NewStore(db, number)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %v", err)
	}

	driver := Driver{
		number: number,
		store:  store,
		tmpl:   tmpl,
		opts:   opts,
		fields: alpaca.NewFieldStore(),
		state:  connStateDisconnected,
		logger: logger,
	}
	return &driver, nil
}

func (d *Driver) uniqueID() string {
	return fmt.Sprintf("5b0e7f7a-3c61-4d1e-9a2f-7e5c1d%06d", d.number)
}

func (d *Driver) Close() {
	d.logger.Info("Closing TeenAstro driver")

	if err := d.Disconnect(); err != nil && !errors.Is(err, alpaca.ErrNotConnected) {
		d.logger.Errorf("failed to disconnect: %v", err)
	}
}

func (d *Driver) openChannel(cfg Config) (Channel, error) {
	if d.opts.Simulate || cfg.Simulate {
		d.logger.Info("Using simulated TeenAstro controller")
		return NewSimulator(), nil
	}

	port := cfg.SerialPort
	if d.opts.SerialPort != "" {
		port = d.opts.SerialPort
	}
	return OpenSerial(port, cfg.Baud)
}

func (d *Driver) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != connStateDisconnected {
		return fmt.Errorf("driver is already connected")
	}

	cfg, err := d.store.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get telescope config: %v", err)
	}

	d.state = connStateConnecting

	ch, err := d.openChannel(cfg)
	if err != nil {
		d.state = connStateDisconnected
		return fmt.Errorf("failed to open channel: %w", err)
	}

	pubs := alpaca.Publishers{d.fields, alpaca.PublisherFunc(d.logField)}

	var mqttPub *mqttPublisher
	if cfg.MQTTConfig.Enabled {
		client, err := createMQTTClient(cfg.MQTTConfig, fmt.Sprintf("teenastro-alpaca-%d", d.number))
		if err != nil {
			ch.Close()
			d.state = connStateDisconnected
			return err
		}
		d.client = client
		mqttPub = newMQTTPublisher(client, cfg.TopicRoot, d.logger)
		pubs = append(pubs, mqttPub)
	}

	codec := NewCodec(ch, d.logger)
	site := Site{Latitude: cfg.Latitude, Longitude: cfg.Longitude, Known: cfg.SiteKnown}
	mount := NewMount(codec, NewLX200(codec), pubs, d.store, d.uniqueID(), site, d.logger)

	if err := mount.Init(); err != nil {
		ch.Close()
		if d.client != nil {
			d.client.Disconnect(100)
			d.client = nil
		}
		d.state = connStateDisconnected
		return fmt.Errorf("failed to initialise mount: %w", err)
	}

	d.ch, d.mount = ch, mount

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	interval := time.Duration(cfg.PollInterval) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.pollLoop(ctx, interval)
	}()

	if mqttPub != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := mqttPub.Run(ctx, d); err != nil {
				d.logger.Errorf("MQTT listener stopped: %v", err)
			}
		}()
	}

	d.state = connStateConnected
	d.logger.Info("Connected to TeenAstro controller")
	return nil
}

func (d *Driver) pollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll()
		}
	}
}

// Poll runs one status cycle if the driver is connected.
func (d *Driver) Poll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mount == nil {
		return
	}
	if err := d.mount.Poll(); err != nil {
		d.logger.Warnf("Poll failed: %v", err)
	}
}

func (d *Driver) Disconnect() error {
	d.mu.Lock()
	if d.state != connStateConnected {
		d.mu.Unlock()
		return alpaca.ErrNotConnected
	}
	d.state = connStateDisconnecting
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	// The poll loop takes the mutex, so wait for it unlocked.
	cancel()
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ch.Close(); err != nil {
		d.logger.Warnf("Closing channel: %v", err)
	}
	if d.client != nil {
		d.client.Disconnect(100)
	}
	d.ch, d.mount, d.client = nil, nil, nil
	d.state = connStateDisconnected
	d.logger.Info("Disconnected from TeenAstro controller")
	return nil
}

func (d *Driver) Connecting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == connStateConnecting
}

func (d *Driver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == connStateConnected
}

// Fields returns the store holding every published field.
func (d *Driver) Fields() *alpaca.FieldStore {
	return d.fields
}

func (d *Driver) logField(f alpaca.Field) {
	entry := d.logger.WithField("field", f.ID)
	if f.State == alpaca.StateAlert {
		entry.Warnf("%v: %s", f.Value, f.Message)
		return
	}
	entry.Debugf("%v [%s] %s", f.Value, f.State, f.Message)
}

// translate maps driver errors to Alpaca errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput):
		return alpaca.InvalidValueError(err)
	default:
		return alpaca.DriverError(err)
	}
}

// withMount runs fn with the mount while holding the driver lock.
func (d *Driver) withMount(fn func(m *Mount) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mount == nil {
		return alpaca.ErrNotConnected
	}
	return translate(fn(d.mount))
}

// UpdateField implements alpaca.FieldUpdater.
func (d *Driver) UpdateField(id string, values map[string]string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mount == nil {
		return true, alpaca.ErrNotConnected
	}
	handled, err := d.mount.UpdateField(id, values)
	return handled, translate(err)
}

func (d *Driver) GetState() []alpaca.StateProperty {
	props := []alpaca.StateProperty{
		{
			Name:  "TimeStamp",
			Value: time.Now().Format(time.RFC3339),
		},
	}

	if d.Connected() {
		props = append(props, d.Status().ToProperties()...)
	}
	return props
}

var alignmentModes = map[Topology]alpaca.AlignmentMode{
	TopologyGerman:  alpaca.AlignmentGermanPolar,
	TopologyFork:    alpaca.AlignmentPolar,
	TopologyForkAlt: alpaca.AlignmentPolar,
	TopologyAltAz:   alpaca.AlignmentAltAz,
}

var pierSides = map[PierSide]alpaca.PierSide{
	PierUnknown: alpaca.PierUnknown,
	PierEast:    alpaca.PierEast,
	PierWest:    alpaca.PierWest,
}

func (d *Driver) Status() alpaca.TelescopeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mount == nil {
		return alpaca.TelescopeStatus{SideOfPier: alpaca.PierUnknown}
	}

	st := d.mount.Status()
	coords := d.mount.Coordinates()
	rate := d.mount.TrackRate()
	mode, ok := alignmentModes[st.Topology]
	if !ok {
		mode = alpaca.AlignmentGermanPolar
	}

	return alpaca.TelescopeStatus{
		AtHome:             strings.Contains(st.Raw, "H"),
		AtPark:             st.Parked,
		Slewing:            st.Tracking == TrackSlewing,
		Tracking:           st.Tracking == TrackTracking,
		RightAscension:     coords.RA,
		Declination:        coords.Dec,
		RightAscensionRate: rate.RA,
		DeclinationRate:    rate.Dec,
		SideOfPier:         pierSides[d.mount.PierSide()],
		AlignmentMode:      mode,
	}
}

func (d *Driver) Capabilities() alpaca.TelescopeCapabilities {
	return alpaca.TelescopeCapabilities{
		CanFindHome:        true,
		CanPark:            true,
		CanUnpark:          true,
		CanSetPark:         true,
		CanSetTracking:     true,
		CanSetRightAscRate: true,
		CanSetDecRate:      true,
	}
}

func (d *Driver) DeviceInfo() alpaca.DeviceInfo {
	return alpaca.DeviceInfo{
		Name:        deviceName,
		Description: "TeenAstro mount controller",
		Type:        deviceType,
		Number:      d.number,
		UniqueID:    d.uniqueID(),
	}
}

func (d *Driver) DriverInfo() alpaca.DriverInfo {
	return alpaca.DriverInfo{
		Name:             driverName,
		Version:          driverVersion,
		InterfaceVersion: 3,
	}
}

func (d *Driver) SetTracking(enabled bool) error {
	return d.withMount(func(m *Mount) error { return m.SetTrackEnabled(enabled) })
}

func (d *Driver) SetTrackingRates(ra, dec float64) error {
	return d.withMount(func(m *Mount) error { return m.SetTrackRate(TrackRate{RA: ra, Dec: dec}) })
}

func (d *Driver) AbortSlew() error {
	return d.withMount(func(m *Mount) error { return m.Abort() })
}

func (d *Driver) FindHome() error {
	return d.withMount(func(m *Mount) error { return m.ReturnHome() })
}

func (d *Driver) Park() error {
	return d.withMount(func(m *Mount) error {
		if m.Status().Parked {
			return nil
		}
		return m.Park()
	})
}

func (d *Driver) Unpark() error {
	return d.withMount(func(m *Mount) error { return m.Unpark() })
}

func (d *Driver) SetPark() error {
	return d.withMount(func(m *Mount) error { return m.SetCurrentPark() })
}

func (d *Driver) HandleSetup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := d.store.GetConfig()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d.renderSetupForm(w, cfg, false, "")

	case http.MethodPost:
		cfg, err := parseSetupForm(r)
		if err != nil {
			d.renderSetupForm(w, cfg, false, err.Error())
			return
		}

		d.logger.Infof("Setting telescope config: %+v", cfg)
		if err := d.store.SetConfig(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		d.renderSetupForm(w, cfg, true, "")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Driver) renderSetupForm(w http.ResponseWriter, cfg Config, success bool, err string) {
	data := struct {
		Config
		Number  int
		Success bool
		Error   string
	}{cfg, d.number, success, err}

	if err := d.tmpl.ExecuteTemplate(w, "teenastro_setup.html", data); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		d.logger.Errorf("Error rendering template: %v", err)
	}
}

func parseSetupForm(r *http.Request) (Config, error) {
	if err := r.ParseForm(); err != nil {
		return Config{}, fmt.Errorf("error parsing form: %v", err)
	}

	cfg := defaultConfig
	cfg.SerialPort = strings.TrimSpace(r.FormValue("serial-port"))
	cfg.Simulate = r.FormValue("simulate") == "true"
	cfg.SiteKnown = r.FormValue("site-known") == "true"

	cfg.Host = r.FormValue("mqtt-host")
	cfg.Username = r.FormValue("mqtt-username")
	cfg.Password = r.FormValue("mqtt-password")
	cfg.TopicRoot = r.FormValue("mqtt-topic-root")
	cfg.MQTTConfig.Enabled = r.FormValue("mqtt-enabled") == "true"

	var err error
	if cfg.Baud, err = strconv.Atoi(r.FormValue("baud")); err != nil || cfg.Baud <= 0 {
		return cfg, fmt.Errorf("invalid baud rate %q", r.FormValue("baud"))
	}
	if cfg.PollInterval, err = strconv.Atoi(r.FormValue("poll-interval")); err != nil || cfg.PollInterval < 100 {
		return cfg, fmt.Errorf("poll interval must be at least 100 ms")
	}
	if cfg.SiteKnown {
		if cfg.Latitude, err = strconv.ParseFloat(r.FormValue("latitude"), 64); err != nil || cfg.Latitude < -90 || cfg.Latitude > 90 {
			return cfg, fmt.Errorf("invalid latitude %q", r.FormValue("latitude"))
		}
		if cfg.Longitude, err = strconv.ParseFloat(r.FormValue("longitude"), 64); err != nil || cfg.Longitude < -180 || cfg.Longitude >= 360 {
			return cfg, fmt.Errorf("invalid longitude %q", r.FormValue("longitude"))
		}
	}
	if !cfg.Simulate && cfg.SerialPort == "" {
		return cfg, fmt.Errorf("serial port cannot be empty")
	}
	return cfg, nil
}
