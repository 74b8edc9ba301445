package teenastro

import "fmt"

// Backlash in motor ticks per axis.
type Backlash struct {
	RA  int `json:"ra"`
	Dec int `json:"dec"`
}

func (b Backlash) Validate() error {
	if !inRange(b.Dec, 0, 999) || !inRange(b.RA, 0, 999) {
		return fmt.Errorf("%w: backlash must be within [0,999], got dec=%d ra=%d", ErrInvalidInput, b.Dec, b.RA)
	}
	return nil
}

// ElevationLimits in degrees above the horizon.
type ElevationLimits struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (e ElevationLimits) Validate() error {
	if !inRange(e.Min, -30, 30) {
		return fmt.Errorf("%w: minimum elevation must be within [-30,30], got %d", ErrInvalidInput, e.Min)
	}
	if !inRange(e.Max, 60, 90) {
		return fmt.Errorf("%w: maximum elevation must be within [60,90], got %d", ErrInvalidInput, e.Max)
	}
	return nil
}

// MeridianLimits in minutes past the meridian on each side.
type MeridianLimits struct {
	East int `json:"east"`
	West int `json:"west"`
}

func (m MeridianLimits) Validate() error {
	if !inRange(m.East, 0, 180) || !inRange(m.West, 0, 180) {
		return fmt.Errorf("%w: minutes past meridian must be within [0,180], got east=%d west=%d", ErrInvalidInput, m.East, m.West)
	}
	return nil
}

func validateSlewRate(rate int) error {
	if !inRange(rate, 1, 9) {
		return fmt.Errorf("%w: max slew rate must be within [1,9], got %d", ErrInvalidInput, rate)
	}
	return nil
}

// Limits caches the configurable limits. Values are set optimistically when
// a set command succeeds and replaced by the next poll.
type Limits struct {
	Backlash    Backlash        `json:"backlash"`
	Elevation   ElevationLimits `json:"elevation"`
	Meridian    MeridianLimits  `json:"meridian"`
	MaxSlewRate int             `json:"maxSlewRate"`
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
