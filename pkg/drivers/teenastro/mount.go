package teenastro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"teenastro/pkg/alpaca"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// pairDelay separates the two commands of a paired setting so the
// controller finishes the first before the second arrives.
const pairDelay = 100 * time.Millisecond

// defaultAlignTier selects three stars.
const defaultAlignTier = 2

// Site is the observing location. Longitude is east positive.
type Site struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Known     bool    `json:"known"`
}

// Coordinates holds right ascension in hours and declination in degrees.
type Coordinates struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// TrackRate is the custom tracking rate offset per axis.
type TrackRate struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// ParkState is the value of the park field.
type ParkState struct {
	Parked bool   `json:"parked"`
	Label  string `json:"label"`
}

// AlignProgress is the value of the alignment process field.
type AlignProgress struct {
	Session AlignSession `json:"session"`
	Message string       `json:"message"`
}

// Mount runs the TeenAstro protocol on top of a codec. It is not safe for
// concurrent use; callers serialize polls and updates.
type Mount struct {
	c        commander
	lx200    LX200
	pub      alpaca.Publisher
	parks    ParkStore
	deviceID string
	site     Site

	status *StatusDecoder
	pier   PierDecoder
	align  *Aligner

	coords        Coordinates
	limits        Limits
	autoFlip      bool
	preferredPier string
	trackRate     TrackRate
	polar         PolarError
	park          ParkPosition
	alignTier     int
	firmware      Firmware

	sleep  func(time.Duration)
	logger log.FieldLogger
}

func NewMount(c commander, lx200 LX200, pub alpaca.Publisher, parks ParkStore, deviceID string, site Site, logger log.FieldLogger) *Mount {
	logger = logger.WithField("component", "mount")
	return &Mount{
		c:         c,
		lx200:     lx200,
		pub:       pub,
		parks:     parks,
		deviceID:  deviceID,
		site:      site,
		status:    NewStatusDecoder(),
		align:     NewAligner(c, logger),
		alignTier: defaultAlignTier,
		limits:    Limits{Elevation: ElevationLimits{Min: -10, Max: 90}, MaxSlewRate: 5},
		sleep:     time.Sleep,
		logger:    logger,
	}
}

func (m *Mount) publish(id string, value any, state alpaca.FieldState, msg string) {
	m.pub.Publish(alpaca.Field{ID: id, Value: value, State: state, Message: msg})
}

func (m *Mount) publishf(id string, value any, state alpaca.FieldState, format string, args ...any) {
	m.publish(id, value, state, fmt.Sprintf(format, args...))
}

// reject reports invalid user input without touching the controller.
func (m *Mount) reject(id string, value any, err error) error {
	m.publish(id, value, alpaca.StateIdle, err.Error())
	return err
}

// confirm sends a confirmed command and turns a negative ack into ErrRejected.
func (m *Mount) confirm(cmd string) error {
	ok, err := m.c.SendConfirmed(cmd)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%q: %w", cmd, ErrRejected)
	}
	return nil
}

// Init reads the firmware identity, loads the park position and pushes the
// stored site to the controller. It runs once after connecting.
func (m *Mount) Init() error {
	m.status.Reset()
	m.pier.Reset()
	m.align.Reset()

	fw, err := m.lx200.Firmware()
	if err != nil {
		m.publishf(FieldFirmware, m.firmware, alpaca.StateAlert, "Error reading firmware info: %v", err)
		return fmt.Errorf("reading firmware info: %w", err)
	}
	m.firmware = fw
	m.publish(FieldFirmware, fw, alpaca.StateOk, "")
	m.logger.Infof("Connected to %s %s (%s %s)", fw.Product, fw.Version, fw.Date, fw.Time)

	if err := m.initPark(); err != nil {
		m.logger.Warnf("Park data load failed: %v", err)
	}

	if m.site.Known {
		if err := m.SetSite(m.site.Latitude, m.site.Longitude); err != nil {
			m.logger.Warnf("Pushing site location failed: %v", err)
		}
	}

	m.publish(FieldAlignStars, m.alignTier, alpaca.StateOk, "")
	m.publish(FieldElevation, m.limits.Elevation, alpaca.StateIdle, "")
	m.publish(FieldSlewRate, m.limits.MaxSlewRate, alpaca.StateIdle, "")
	m.publish(FieldTrackRate, m.trackRate, alpaca.StateIdle, "")
	return nil
}

func defaultPark(site Site) ParkPosition {
	if !site.Known {
		return ParkPosition{Axis1: 20, Axis2: 80}
	}
	p := ParkPosition{Axis1: 0, Axis2: site.Latitude}
	if site.Latitude < 0 {
		p.Axis1 = 180
	}
	return p
}

func (m *Mount) initPark() error {
	p, found, err := m.parks.LoadPark(m.deviceID)
	if err != nil {
		m.park = defaultPark(m.site)
		m.publish(FieldParkOption, m.park, alpaca.StateAlert, "Park data load failed")
		return err
	}
	if !found {
		p = defaultPark(m.site)
		if err := m.parks.StorePark(m.deviceID, p); err != nil {
			m.park = p
			return err
		}
	}
	m.park = p
	m.publish(FieldParkOption, p, alpaca.StateOk, "")
	return nil
}

// Poll runs one status cycle. A failed position read aborts the cycle; every
// other failure only marks its own field.
func (m *Mount) Poll() error {
	timer := prometheus.NewTimer(pollDuration)
	defer timer.ObserveDuration()

	ra, err := m.lx200.RA()
	var dec float64
	if err == nil {
		dec, err = m.lx200.Dec()
	}
	if err != nil {
		pollFailures.Inc()
		m.publish(FieldCoord, m.coords, alpaca.StateAlert, "Error reading RA/DEC.")
		return fmt.Errorf("reading position: %w", err)
	}

	m.pollStatus()
	m.pollPier()
	m.pollBacklash()
	m.pollAutoFlip()
	m.pollPreferredPier()
	m.pollMeridian()
	if !m.pollAlign() {
		m.refreshPolar()
	}

	m.coords = Coordinates{RA: ra, Dec: dec}
	state := alpaca.StateOk
	if m.status.Current().Tracking == TrackSlewing {
		state = alpaca.StateBusy
	}
	m.publish(FieldCoord, m.coords, state, "")
	return nil
}

func (m *Mount) pollStatus() {
	raw, err := m.c.Query(":GU#")
	if err != nil {
		m.publishf(FieldStatus, m.status.Current(), alpaca.StateAlert, "Error reading status: %v", err)
		return
	}

	st, changed, err := m.status.Decode(raw)
	if !changed {
		if err != nil {
			m.publish(FieldStatus, st, alpaca.StateAlert, err.Error())
		}
		return
	}

	if err != nil {
		m.logger.Warnf("Status %q: %v", raw, err)
		m.publish(FieldStatus, st, alpaca.StateAlert, err.Error())
	} else {
		m.publish(FieldStatus, st, alpaca.StateOk, "")
	}

	parkState := alpaca.StateOk
	switch st.Tracking {
	case TrackParking:
		parkState = alpaca.StateBusy
	case TrackUnparkFailed:
		parkState = alpaca.StateAlert
	}
	m.publish(FieldPark, ParkState{Parked: st.Parked, Label: st.ParkLabel}, parkState, "")

	if st.HomePause {
		m.publish(FieldHomePause, true, alpaca.StateOk, "Pause at Home Enabled")
	} else {
		m.publish(FieldHomePause, false, alpaca.StateOk, "")
	}
	m.publish(FieldTrackState, st.Tracking == TrackTracking, alpaca.StateOk, "")
	m.publish(FieldTrackComp, st.Refraction, alpaca.StateOk, "")
}

func (m *Mount) pollPier() {
	raw, err := m.c.Query(":Gm#")
	if err != nil {
		m.publishf(FieldPierSide, m.pier.Current(), alpaca.StateAlert, "Error reading pier side: %v", err)
		return
	}

	side, changed, err := m.pier.Decode(raw)
	switch {
	case err != nil:
		m.publish(FieldPierSide, side, alpaca.StateAlert, err.Error())
	case changed:
		m.publish(FieldPierSide, side, alpaca.StateOk, "")
	}
}

func (m *Mount) queryInt(cmd string) (int, error) {
	reply, err := m.c.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s replied %q", ErrDecode, cmd, reply)
	}
	return int(v), nil
}

func (m *Mount) pollBacklash() {
	dec, err := m.queryInt(":%BD#")
	var ra int
	if err == nil {
		ra, err = m.queryInt(":%BR#")
	}
	if err != nil {
		m.publishf(FieldBacklash, m.limits.Backlash, alpaca.StateAlert, "Error reading backlash: %v", err)
		return
	}
	m.limits.Backlash = Backlash{RA: ra, Dec: dec}
	m.publish(FieldBacklash, m.limits.Backlash, alpaca.StateOk, "")
}

func (m *Mount) pollAutoFlip() {
	v, err := m.queryInt(":GX95#")
	if err != nil {
		m.publishf(FieldAutoFlip, m.autoFlip, alpaca.StateAlert, "Error reading auto flip: %v", err)
		return
	}
	m.autoFlip = v != 0
	m.publish(FieldAutoFlip, m.autoFlip, alpaca.StateOk, "")
}

func (m *Mount) pollPreferredPier() {
	reply, err := m.c.Query(":GX96#")
	if err != nil {
		m.publishf(FieldPreferredPier, m.preferredPier, alpaca.StateAlert, "Error reading preferred pier side: %v", err)
		return
	}

	for _, side := range []string{"W", "E", "B"} {
		if strings.Contains(reply, side) {
			m.preferredPier = side
			m.publish(FieldPreferredPier, side, alpaca.StateOk, "")
			return
		}
	}
	m.preferredPier = ""
	m.publish(FieldPreferredPier, "", alpaca.StateBusy, "")
}

func (m *Mount) pollMeridian() {
	east, err := m.queryInt(":GXE9#")
	var west int
	if err == nil {
		west, err = m.queryInt(":GXEA#")
	}
	if err != nil {
		m.publishf(FieldMeridian, m.limits.Meridian, alpaca.StateAlert, "Error reading meridian limits: %v", err)
		return
	}
	m.limits.Meridian = MeridianLimits{East: east, West: west}
	m.publish(FieldMeridian, m.limits.Meridian, alpaca.StateOk, "")
}

// pollAlign reports whether the status poll already refreshed the polar
// error in this cycle.
func (m *Mount) pollAlign() bool {
	report, err := m.align.PollStatus()
	if err != nil {
		m.logger.Warnf("Fail Align Command: %v", err)
		m.publish(FieldAlignProcess, AlignProgress{Session: m.align.Session()}, alpaca.StateAlert, err.Error())
		return false
	}

	state := alpaca.StateBusy
	if report.Status.Completed() {
		state = alpaca.StateOk
	}
	m.publish(FieldAlignProcess, AlignProgress{Session: m.align.Session(), Message: report.Message}, state, "")

	if !report.Completed {
		return false
	}
	if report.PolarErr != nil {
		m.publish(FieldPolarError, m.polar, alpaca.StateAlert, report.PolarErr.Error())
	} else {
		m.polar = *report.Polar
		m.publish(FieldPolarError, m.polar, alpaca.StateOk, "")
	}
	return true
}

func (m *Mount) refreshPolar() {
	pe, err := RefreshPolarError(m.c)
	if err != nil {
		m.publish(FieldPolarError, m.polar, alpaca.StateAlert, err.Error())
		return
	}
	m.polar = pe
	m.publish(FieldPolarError, pe, alpaca.StateOk, "")
}

// SetBacklash sets DEC then RA backlash.
func (m *Mount) SetBacklash(b Backlash) error {
	if err := b.Validate(); err != nil {
		return m.reject(FieldBacklash, m.limits.Backlash, err)
	}

	errDec := m.confirm(fmt.Sprintf(":$BD%d#", b.Dec))
	m.sleep(pairDelay)
	errRA := m.confirm(fmt.Sprintf(":$BR%d#", b.RA))
	if err := errors.Join(errDec, errRA); err != nil {
		m.publishf(FieldBacklash, m.limits.Backlash, alpaca.StateAlert, "Error setting backlash: %v", err)
		return err
	}

	m.limits.Backlash = b
	m.publish(FieldBacklash, b, alpaca.StateOk, "")
	return nil
}

// SetElevationLimits sets the minimum then the maximum elevation.
func (m *Mount) SetElevationLimits(e ElevationLimits) error {
	if err := e.Validate(); err != nil {
		return m.reject(FieldElevation, m.limits.Elevation, err)
	}

	errMin := m.lx200.SetMinElevation(e.Min)
	if errMin != nil {
		errMin = fmt.Errorf("setting min elevation limit: %w", errMin)
	}
	m.sleep(pairDelay)
	errMax := m.lx200.SetMaxElevation(e.Max)
	if errMax != nil {
		errMax = fmt.Errorf("setting max elevation limit: %w", errMax)
	}
	if err := errors.Join(errMin, errMax); err != nil {
		m.publish(FieldElevation, m.limits.Elevation, alpaca.StateAlert, err.Error())
		return err
	}

	m.limits.Elevation = e
	m.publish(FieldElevation, e, alpaca.StateOk, "")
	return nil
}

// SetMeridianLimits sets the east then the west limit.
func (m *Mount) SetMeridianLimits(ml MeridianLimits) error {
	if err := ml.Validate(); err != nil {
		return m.reject(FieldMeridian, m.limits.Meridian, err)
	}

	errEast := m.confirm(fmt.Sprintf(":SXE9,%d#", ml.East))
	m.sleep(pairDelay)
	errWest := m.confirm(fmt.Sprintf(":SXEA,%d#", ml.West))
	if err := errors.Join(errEast, errWest); err != nil {
		m.publishf(FieldMeridian, m.limits.Meridian, alpaca.StateAlert, "Error setting meridian limits: %v", err)
		return err
	}

	m.limits.Meridian = ml
	m.publish(FieldMeridian, ml, alpaca.StateOk, "")
	return nil
}

func (m *Mount) SetMaxSlewRate(rate int) error {
	if err := validateSlewRate(rate); err != nil {
		return m.reject(FieldSlewRate, m.limits.MaxSlewRate, err)
	}
	if err := m.c.SendBlind(fmt.Sprintf(":R%d#", rate)); err != nil {
		m.publish(FieldSlewRate, m.limits.MaxSlewRate, alpaca.StateAlert, err.Error())
		return err
	}
	m.limits.MaxSlewRate = rate
	m.publishf(FieldSlewRate, rate, alpaca.StateOk, "Slewrate set to %d", rate)
	return nil
}

var compensationCommands = map[RefractionMode]string{
	RefractionFull: ":To#",
	RefractionOnly: ":Tr#",
	RefractionOff:  ":Tn#",
}

func (m *Mount) SetTrackCompensation(mode RefractionMode) error {
	current := m.status.Current().Refraction
	cmd, ok := compensationCommands[mode]
	if !ok {
		return m.reject(FieldTrackComp, current, fmt.Errorf("%w: tracking compensation %v", ErrInvalidInput, mode))
	}
	if err := m.confirm(cmd); err != nil {
		m.publish(FieldTrackComp, current, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldTrackComp, mode, alpaca.StateOk, "")
	return nil
}

var frequencyCommands = map[string]string{
	"minus": ":T-#",
	"plus":  ":T+#",
	"reset": ":TR#",
}

// AdjustFrequency nudges the sidereal tracking frequency.
func (m *Mount) AdjustFrequency(adj string) error {
	cmd, ok := frequencyCommands[adj]
	if !ok {
		return m.reject(FieldFrequency, "", fmt.Errorf("%w: frequency adjustment %q", ErrInvalidInput, adj))
	}
	if err := m.c.SendBlind(cmd); err != nil {
		m.publish(FieldFrequency, adj, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldFrequency, adj, alpaca.StateOk, "")
	return nil
}

func (m *Mount) SetAutoFlip(enabled bool) error {
	if err := m.confirm(fmt.Sprintf(":SX95,%d#", boolToInt(enabled))); err != nil {
		m.publish(FieldAutoFlip, m.autoFlip, alpaca.StateAlert, err.Error())
		return err
	}
	m.autoFlip = enabled
	m.publish(FieldAutoFlip, enabled, alpaca.StateOk, "")
	return nil
}

func (m *Mount) SetPreferredPierSide(side string) error {
	side = strings.ToUpper(side)
	if side != "W" && side != "E" && side != "B" {
		return m.reject(FieldPreferredPier, m.preferredPier, fmt.Errorf("%w: preferred pier side %q", ErrInvalidInput, side))
	}
	if err := m.confirm(fmt.Sprintf(":SX96,%s#", side)); err != nil {
		m.publish(FieldPreferredPier, m.preferredPier, alpaca.StateAlert, err.Error())
		return err
	}
	m.preferredPier = side
	m.publish(FieldPreferredPier, side, alpaca.StateOk, "")
	return nil
}

func (m *Mount) SetHomePause(enabled bool) error {
	current := m.status.Current().HomePause
	if err := m.confirm(fmt.Sprintf(":SX98,%d#", boolToInt(enabled))); err != nil {
		m.publish(FieldHomePause, current, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldHomePause, enabled, alpaca.StateOk, "")
	return nil
}

// ContinueFromHome resumes a goto paused at the home position.
func (m *Mount) ContinueFromHome() error {
	current := m.status.Current().HomePause
	if err := m.confirm(":SX99,1#"); err != nil {
		m.publish(FieldHomePause, current, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldHomePause, current, alpaca.StateOk, "Continue")
	return nil
}

// ReturnHome slews to the home position.
func (m *Mount) ReturnHome() error {
	if err := m.c.SendBlind(":hC#"); err != nil {
		m.publish(FieldHomeInit, "return", alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldHomeInit, "return", alpaca.StateIdle, "Return Home")
	return nil
}

// ResetHome declares the current position to be home.
func (m *Mount) ResetHome() error {
	if err := m.c.SendBlind(":hF#"); err != nil {
		m.publish(FieldHomeInit, "reset", alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldHomeInit, "reset", alpaca.StateIdle, "At Home (Reset)")
	return nil
}

func (m *Mount) Reticle(brighter bool) error {
	cmd, label := ":B-#", "Dark"
	if brighter {
		cmd, label = ":B+#", "Bright"
	}
	if err := m.c.SendBlind(cmd); err != nil {
		m.publish(FieldReticle, label, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldReticle, label, alpaca.StateOk, label)
	return nil
}

// SelectAlignTier chooses the star count used by StartAlignment.
func (m *Mount) SelectAlignTier(index int) error {
	if index < 0 || index >= len(alignTiers) {
		return m.reject(FieldAlignStars, m.alignTier, fmt.Errorf("%w: star tier %d", ErrInvalidInput, index))
	}
	m.alignTier = index
	m.publish(FieldAlignStars, index, alpaca.StateOk, "")
	return nil
}

func (m *Mount) alignResult(state alpaca.FieldState, err error, action string) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.publish(FieldAlign, action, state, msg)
	if !errors.Is(err, ErrInvalidInput) {
		m.pollAlign()
	}
	return err
}

// StartAlignment starts an alignment with the selected star tier.
func (m *Mount) StartAlignment() error {
	state, err := m.align.StartTier(m.alignTier)
	return m.alignResult(state, err, "start")
}

// StartAlignmentStars starts an alignment with an explicit star count.
func (m *Mount) StartAlignmentStars(stars int) error {
	state, err := m.align.Start(stars)
	return m.alignResult(state, err, "start")
}

func (m *Mount) AddAlignStar() error {
	state, err := m.align.AddStar()
	return m.alignResult(state, err, "add")
}

func (m *Mount) FinishAlignment() error {
	state, err := m.align.Finish()
	return m.alignResult(state, err, "finish")
}

func (m *Mount) parkValue() ParkState {
	st := m.status.Current()
	return ParkState{Parked: st.Parked, Label: st.ParkLabel}
}

// Park aborts any slew in progress and sends the mount to its park position.
func (m *Mount) Park() error {
	if m.status.Current().Tracking == TrackSlewing {
		if err := m.lx200.Abort(); err != nil {
			m.publish(FieldPark, m.parkValue(), alpaca.StateAlert, "Abort slew failed.")
			return fmt.Errorf("aborting slew: %w", err)
		}
		m.logger.Info("Slew aborted before parking")
	}
	if err := m.lx200.SlewToPark(); err != nil {
		m.publish(FieldPark, m.parkValue(), alpaca.StateAlert, "Parking Failed.")
		return err
	}
	m.publish(FieldPark, m.parkValue(), alpaca.StateBusy, labelParking)
	return nil
}

func (m *Mount) Unpark() error {
	if _, err := m.c.Query(":hR#"); err != nil {
		m.publishf(FieldPark, m.parkValue(), alpaca.StateAlert, "Unpark failed: %v", err)
		return err
	}
	m.publish(FieldPark, m.parkValue(), alpaca.StateBusy, "Unparking")
	return nil
}

// SetCurrentPark makes the current position the park position.
func (m *Mount) SetCurrentPark() error {
	if _, err := m.c.Query(":hQ#"); err != nil {
		m.publishf(FieldParkOption, m.park, alpaca.StateAlert, "Set park position failed: %v", err)
		return err
	}
	return m.storePark(ParkPosition{Axis1: m.coords.RA, Axis2: m.coords.Dec}, "Park Value set to current position")
}

func (m *Mount) SetDefaultPark() error {
	return m.storePark(defaultPark(m.site), "Park position set to default value")
}

// WritePark persists the current park position.
func (m *Mount) WritePark() error {
	return m.storePark(m.park, "")
}

func (m *Mount) storePark(p ParkPosition, msg string) error {
	if err := m.parks.StorePark(m.deviceID, p); err != nil {
		m.publishf(FieldParkOption, m.park, alpaca.StateAlert, "Park data write failed: %v", err)
		return err
	}
	m.park = p
	if msg != "" {
		m.logger.Info(msg)
	}
	m.publish(FieldParkOption, p, alpaca.StateOk, msg)
	return nil
}

func (m *Mount) SetTrackEnabled(enabled bool) error {
	cmd := ":Td#"
	if enabled {
		cmd = ":Te#"
	}
	tracking := m.status.Current().Tracking == TrackTracking
	if _, err := m.c.Query(cmd); err != nil {
		m.publish(FieldTrackState, tracking, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldTrackState, enabled, alpaca.StateOk, "")
	return nil
}

// SetTrackRate sets the RA and DEC rate offsets.
func (m *Mount) SetTrackRate(rate TrackRate) error {
	if !finite(rate.RA) || !finite(rate.Dec) {
		return m.reject(FieldTrackRate, m.trackRate, fmt.Errorf("%w: track rate ra=%g dec=%g", ErrInvalidInput, rate.RA, rate.Dec))
	}
	if err := m.confirm(fmt.Sprintf(":RA%f#", rate.RA)); err != nil {
		m.publish(FieldTrackRate, m.trackRate, alpaca.StateAlert, err.Error())
		return err
	}
	if err := m.confirm(fmt.Sprintf(":RE%f#", rate.Dec)); err != nil {
		m.publish(FieldTrackRate, m.trackRate, alpaca.StateAlert, err.Error())
		return err
	}
	m.trackRate = rate
	m.publish(FieldTrackRate, rate, alpaca.StateOk, "RA and DE Rates successfully set")
	return nil
}

// SetLocalDate sets the controller calendar date.
func (m *Mount) SetLocalDate(t time.Time) error {
	value := t.Format(time.DateOnly)
	cmd := fmt.Sprintf(":SC%02d/%02d/%02d#", int(t.Month()), t.Day(), t.Year()%100)
	if err := m.confirm(cmd); err != nil {
		m.publish(FieldTime, value, alpaca.StateAlert, err.Error())
		return err
	}
	m.publish(FieldTime, value, alpaca.StateOk, "")
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SetSite sends the observing site to the controller.
func (m *Mount) SetSite(lat, lon float64) error {
	if !finite(lat) || !finite(lon) || lat < -90 || lat > 90 || lon < -180 || lon >= 360 {
		return m.reject(FieldSite, m.site, fmt.Errorf("%w: site lat=%g lon=%g", ErrInvalidInput, lat, lon))
	}
	if err := m.lx200.SetSite(lat, lon); err != nil {
		m.publishf(FieldSite, m.site, alpaca.StateAlert, "Error setting site location: %v", err)
		return err
	}
	m.site = Site{Latitude: lat, Longitude: lon, Known: true}
	m.publishf(FieldSite, m.site, alpaca.StateOk, "Site location updated to Lat %s - Long %s",
		formatSexagesimal(lat), formatSexagesimal(lon))
	return nil
}

func (m *Mount) Abort() error {
	return m.lx200.Abort()
}

func (m *Mount) Status() Status {
	return m.status.Current()
}

func (m *Mount) PierSide() PierSide {
	return m.pier.Current()
}

func (m *Mount) Coordinates() Coordinates {
	return m.coords
}

func (m *Mount) TrackRate() TrackRate {
	return m.trackRate
}

func (m *Mount) Limits() Limits {
	return m.limits
}

func (m *Mount) ParkPosition() ParkPosition {
	return m.park
}

func (m *Mount) AlignSession() AlignSession {
	return m.align.Session()
}

func (m *Mount) PolarError() PolarError {
	return m.polar
}

func (m *Mount) Site() Site {
	return m.site
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
