package teenastro

import (
	"fmt"
	"strings"
)

type TrackingState int

const (
	TrackIdle TrackingState = iota
	TrackSlewing
	TrackTracking
	TrackParking
	TrackParked
	TrackUnparkFailed
)

var trackingNames = [...]string{"Idle", "Slewing", "Tracking", "Parking", "Parked", "Unpark Failed"}

func (t TrackingState) String() string {
	if t < 0 || int(t) >= len(trackingNames) {
		return fmt.Sprintf("TrackingState(%d)", int(t))
	}
	return trackingNames[t]
}

func (t TrackingState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type RefractionMode int

const (
	RefractionUnknown RefractionMode = iota
	RefractionOff
	RefractionOnly
	RefractionFull
)

var refractionNames = [...]string{"Unknown", "Off", "Refraction Only", "Full Compensation"}

func (r RefractionMode) String() string {
	if r < 0 || int(r) >= len(refractionNames) {
		return fmt.Sprintf("RefractionMode(%d)", int(r))
	}
	return refractionNames[r]
}

func (r RefractionMode) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type TimeSync int

const (
	TimeSyncNone TimeSync = iota
	TimeSyncPPS
)

func (t TimeSync) String() string {
	if t == TimeSyncPPS {
		return "PPS / GPS"
	}
	return "None"
}

func (t TimeSync) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Topology int

const (
	TopologyUnknown Topology = iota
	TopologyGerman
	TopologyFork
	TopologyForkAlt
	TopologyAltAz
)

var topologyNames = [...]string{"Unknown", "German", "Fork", "Fork Alt", "AltAz"}

func (t Topology) String() string {
	if t < 0 || int(t) >= len(topologyNames) {
		return fmt.Sprintf("Topology(%d)", int(t))
	}
	return topologyNames[t]
}

func (t Topology) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ErrorCode is the controller's last error, reported as the final character
// of the status string. The ordinals follow the firmware table.
type ErrorCode int

const (
	CodeNone ErrorCode = iota
	CodeMotorFault
	CodeAlt
	CodeLimitSense
	CodeDec
	CodeAzm
	CodeUnderPole
	CodeMeridian
	CodeSync
	CodePark
	CodeGotoSync
)

var errorCodeNames = [...]string{
	"None",
	"Motor Fault",
	"Altitude Min/Max",
	"Limit Sense",
	"Dec Limit Exceeded",
	"Azm Limit Exceeded",
	"Under Pole Limit Exceeded",
	"Meridian Limit (W) Exceeded",
	"Sync ignored > 30 deg",
	"Park Error",
	"Goto Sync Error",
}

func (e ErrorCode) String() string {
	if e < 0 || int(e) >= len(errorCodeNames) {
		return fmt.Sprintf("ErrorCode(%d)", int(e))
	}
	return errorCodeNames[e]
}

func (e ErrorCode) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// parseErrorCode decodes the final status character.
func parseErrorCode(c byte) (ErrorCode, error) {
	code := ErrorCode(int(c) - '0')
	if code < CodeNone || code > CodeGotoSync {
		return CodeNone, fmt.Errorf("%w: error code %q", ErrDecode, c)
	}
	return code, nil
}

const (
	labelParked       = "Parked"
	labelUnparked     = "UnParked"
	labelParkFailed   = "Parking Failed"
	labelParking      = "Park in Progress"
	labelHomeParked   = "At Home and Parked"
	labelHomeUnparked = "At Home and UnParked"
	labelWaitingHome  = "Waiting at Home"
)

// Status is one decoded snapshot of the controller status string.
type Status struct {
	Raw        string         `json:"raw"`
	Tracking   TrackingState  `json:"tracking"`
	Refraction RefractionMode `json:"refraction"`
	Parked     bool           `json:"parked"`
	ParkLabel  string         `json:"parkLabel"`
	HomePause  bool           `json:"homePause"`
	TimeSync   TimeSync       `json:"timeSync"`
	Topology   Topology       `json:"topology"`
	LastError  ErrorCode      `json:"lastError"`
}

// StatusDecoder turns :GU# replies into Status snapshots. It keeps the last
// raw string and only recomputes when the reply changes.
type StatusDecoder struct {
	prevRaw   string
	firstRead bool
	current   Status
}

func NewStatusDecoder() *StatusDecoder {
	return &StatusDecoder{firstRead: true}
}

// Reset forgets the previous reply so the next decode is treated as the first
// read after connecting.
func (d *StatusDecoder) Reset() {
	*d = StatusDecoder{firstRead: true}
}

// Current returns the last decoded snapshot.
func (d *StatusDecoder) Current() Status {
	return d.current
}

// Decode decodes raw and reports whether the snapshot was recomputed. An
// unchanged raw string is a no-op. A malformed error code keeps the previous
// LastError and is reported as ErrDecode alongside the recomputed snapshot.
func (d *StatusDecoder) Decode(raw string) (Status, bool, error) {
	if raw == "" {
		return d.current, false, fmt.Errorf("%w: empty status", ErrDecode)
	}
	if raw == d.prevRaw && !d.firstRead {
		return d.current, false, nil
	}
	d.prevRaw = raw

	has := func(s string) bool { return strings.Contains(raw, s) }

	prev := d.current
	st := Status{
		Raw:       raw,
		Tracking:  prev.Tracking,
		Parked:    prev.Parked,
		ParkLabel: prev.ParkLabel,
		LastError: prev.LastError,
	}

	switch {
	case has("n") && has("N"):
		st.Tracking = TrackIdle
	case has("n"):
		st.Tracking = TrackSlewing
	case has("N"):
		st.Tracking = TrackTracking
	}

	if has("r") {
		st.Refraction = RefractionOnly
	}
	if has("s") {
		st.Refraction = RefractionOff
	}
	if has("r") && has("t") {
		st.Refraction = RefractionFull
	}
	if has("r") && !has("t") {
		st.Refraction = RefractionOnly
	}

	if d.firstRead {
		d.firstPark(&st, has)
		d.firstRead = false
	} else {
		d.nextPark(&st, has, prev.Parked)
	}

	if has("H") && has("P") {
		st.ParkLabel = labelHomeParked
	}
	if has("H") && has("p") {
		st.ParkLabel = labelHomeUnparked
	}
	st.HomePause = has("u")
	if has("w") {
		st.ParkLabel = labelWaitingHome
	}
	if has("S") {
		st.TimeSync = TimeSyncPPS
	}

	for _, t := range []struct {
		c    string
		topo Topology
	}{
		{"E", TopologyGerman},
		{"K", TopologyFork},
		{"k", TopologyForkAlt},
		{"A", TopologyAltAz},
	} {
		if has(t.c) {
			st.Topology = t.topo
		}
	}

	code, err := parseErrorCode(raw[len(raw)-1])
	if err == nil {
		st.LastError = code
	}

	d.current = st
	return st, true, err
}

func (d *StatusDecoder) firstPark(st *Status, has func(string) bool) {
	if has("P") {
		st.Parked, st.Tracking, st.ParkLabel = true, TrackParked, labelParked
	}
	if has("F") {
		st.Parked, st.Tracking, st.ParkLabel = false, TrackUnparkFailed, labelParkFailed
	}
	if has("I") {
		st.Parked, st.Tracking, st.ParkLabel = false, TrackParking, labelParking
	}
	if has("p") {
		unparked(st, has)
	}
}

// nextPark branches on the parked flag as it was before this decode.
func (d *StatusDecoder) nextPark(st *Status, has func(string) bool, wasParked bool) {
	if !wasParked {
		if has("P") {
			st.Parked, st.Tracking, st.ParkLabel = true, TrackParked, labelParked
		}
		if has("I") {
			st.Parked, st.Tracking, st.ParkLabel = false, TrackParking, labelParking
		}
		return
	}

	if has("F") {
		st.Parked, st.Tracking, st.ParkLabel = false, TrackUnparkFailed, labelParkFailed
	}
	if has("p") {
		unparked(st, has)
	}
}

func unparked(st *Status, has func(string) bool) {
	st.Parked = false
	st.ParkLabel = labelUnparked
	if has("nN") {
		st.Tracking = TrackIdle
	} else {
		st.Tracking = TrackTracking
	}
}
