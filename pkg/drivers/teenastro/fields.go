package teenastro

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field identifiers published by the mount.
const (
	FieldCoord         = "EQUATORIAL_EOD_COORD"
	FieldStatus        = "MOUNT_STATUS"
	FieldPierSide      = "PIER_SIDE"
	FieldBacklash      = "BACKLASH"
	FieldAutoFlip      = "AUTO_FLIP"
	FieldPreferredPier = "PREFERRED_PIER_SIDE"
	FieldMeridian      = "MINUTES_PAST_MERIDIAN"
	FieldElevation     = "ELEVATION_LIMITS"
	FieldSlewRate      = "MAX_SLEW_RATE"
	FieldTrackComp     = "TRACK_COMPENSATION"
	FieldFrequency     = "FREQUENCY_ADJUST"
	FieldHomePause     = "HOME_PAUSE"
	FieldHomeInit      = "HOME_INIT"
	FieldReticle       = "RETICLE_BRIGHTNESS"
	FieldAlignStars    = "ALIGN_STARS"
	FieldAlign         = "ALIGN"
	FieldAlignProcess  = "ALIGN_PROCESS"
	FieldPolarError    = "ALIGN_POLAR_ERROR"
	FieldPark          = "TELESCOPE_PARK"
	FieldParkOption    = "PARK_OPTION"
	FieldTrackState    = "TELESCOPE_TRACK_STATE"
	FieldTrackRate     = "TELESCOPE_TRACK_RATE"
	FieldFirmware      = "FIRMWARE_INFO"
	FieldTime          = "TIME_UTC"
	FieldSite          = "GEOGRAPHIC_COORD"
)

type fieldHandler func(m *Mount, values map[string]string) error

var fieldHandlers = map[string]fieldHandler{
	FieldBacklash: func(m *Mount, v map[string]string) error {
		dec, err := intValue(v, "dec")
		if err != nil {
			return m.reject(FieldBacklash, m.limits.Backlash, err)
		}
		ra, err := intValue(v, "ra")
		if err != nil {
			return m.reject(FieldBacklash, m.limits.Backlash, err)
		}
		return m.SetBacklash(Backlash{RA: ra, Dec: dec})
	},

	FieldElevation: func(m *Mount, v map[string]string) error {
		lo, err := intValue(v, "min")
		if err != nil {
			return m.reject(FieldElevation, m.limits.Elevation, err)
		}
		hi, err := intValue(v, "max")
		if err != nil {
			return m.reject(FieldElevation, m.limits.Elevation, err)
		}
		return m.SetElevationLimits(ElevationLimits{Min: lo, Max: hi})
	},

	FieldMeridian: func(m *Mount, v map[string]string) error {
		east, err := intValue(v, "east")
		if err != nil {
			return m.reject(FieldMeridian, m.limits.Meridian, err)
		}
		west, err := intValue(v, "west")
		if err != nil {
			return m.reject(FieldMeridian, m.limits.Meridian, err)
		}
		return m.SetMeridianLimits(MeridianLimits{East: east, West: west})
	},

	FieldSlewRate: func(m *Mount, v map[string]string) error {
		rate, err := intValue(v, "rate")
		if err != nil {
			return m.reject(FieldSlewRate, m.limits.MaxSlewRate, err)
		}
		return m.SetMaxSlewRate(rate)
	},

	FieldTrackComp: func(m *Mount, v map[string]string) error {
		modes := map[string]RefractionMode{
			"full":       RefractionFull,
			"refraction": RefractionOnly,
			"off":        RefractionOff,
		}
		s, _ := lookup(v, "mode")
		mode, ok := modes[strings.ToLower(s)]
		if !ok {
			return m.reject(FieldTrackComp, m.status.Current().Refraction,
				fmt.Errorf("%w: tracking compensation %q", ErrInvalidInput, s))
		}
		return m.SetTrackCompensation(mode)
	},

	FieldFrequency: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "adjust")
		return m.AdjustFrequency(strings.ToLower(s))
	},

	FieldAutoFlip: func(m *Mount, v map[string]string) error {
		enabled, err := boolValue(v, "enabled")
		if err != nil {
			return m.reject(FieldAutoFlip, m.autoFlip, err)
		}
		return m.SetAutoFlip(enabled)
	},

	FieldPreferredPier: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "side")
		switch strings.ToLower(s) {
		case "west":
			s = "W"
		case "east":
			s = "E"
		case "best":
			s = "B"
		}
		return m.SetPreferredPierSide(s)
	},

	FieldHomePause: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "enable":
			return m.SetHomePause(true)
		case "disable":
			return m.SetHomePause(false)
		case "continue":
			return m.ContinueFromHome()
		}
		return m.reject(FieldHomePause, m.status.Current().HomePause,
			fmt.Errorf("%w: home pause action %q", ErrInvalidInput, s))
	},

	FieldHomeInit: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "return":
			return m.ReturnHome()
		case "reset":
			return m.ResetHome()
		}
		return m.reject(FieldHomeInit, "", fmt.Errorf("%w: home action %q", ErrInvalidInput, s))
	},

	FieldReticle: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "plus", "bright":
			return m.Reticle(true)
		case "minus", "dark":
			return m.Reticle(false)
		}
		return m.reject(FieldReticle, "", fmt.Errorf("%w: reticle action %q", ErrInvalidInput, s))
	},

	FieldAlignStars: func(m *Mount, v map[string]string) error {
		tier, err := intValue(v, "tier")
		if err != nil {
			return m.reject(FieldAlignStars, m.alignTier, err)
		}
		return m.SelectAlignTier(tier)
	},

	FieldAlign: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "start":
			if _, ok := lookup(v, "stars"); ok {
				stars, err := intValue(v, "stars")
				if err != nil {
					return m.reject(FieldAlign, "start", err)
				}
				return m.StartAlignmentStars(stars)
			}
			return m.StartAlignment()
		case "add":
			return m.AddAlignStar()
		case "finish":
			return m.FinishAlignment()
		}
		return m.reject(FieldAlign, "", fmt.Errorf("%w: align action %q", ErrInvalidInput, s))
	},

	FieldPolarError: func(m *Mount, v map[string]string) error {
		m.refreshPolar()
		return nil
	},

	FieldPark: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "park":
			return m.Park()
		case "unpark":
			return m.Unpark()
		}
		return m.reject(FieldPark, m.parkValue(), fmt.Errorf("%w: park action %q", ErrInvalidInput, s))
	},

	FieldParkOption: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "action")
		switch strings.ToLower(s) {
		case "current":
			return m.SetCurrentPark()
		case "default":
			return m.SetDefaultPark()
		case "write":
			return m.WritePark()
		}
		return m.reject(FieldParkOption, m.park, fmt.Errorf("%w: park option %q", ErrInvalidInput, s))
	},

	FieldTrackState: func(m *Mount, v map[string]string) error {
		enabled, err := boolValue(v, "enabled")
		if err != nil {
			return m.reject(FieldTrackState, m.status.Current().Tracking == TrackTracking, err)
		}
		return m.SetTrackEnabled(enabled)
	},

	FieldTrackRate: func(m *Mount, v map[string]string) error {
		ra, err := floatValue(v, "ra")
		if err != nil {
			return m.reject(FieldTrackRate, m.trackRate, err)
		}
		dec, err := floatValue(v, "dec")
		if err != nil {
			return m.reject(FieldTrackRate, m.trackRate, err)
		}
		return m.SetTrackRate(TrackRate{RA: ra, Dec: dec})
	},

	FieldTime: func(m *Mount, v map[string]string) error {
		s, _ := lookup(v, "date")
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return m.reject(FieldTime, "", fmt.Errorf("%w: date %q", ErrInvalidInput, s))
		}
		return m.SetLocalDate(t)
	},

	FieldSite: func(m *Mount, v map[string]string) error {
		lat, err := floatValue(v, "lat")
		if err != nil {
			return m.reject(FieldSite, m.site, err)
		}
		lon, err := floatValue(v, "lon")
		if err != nil {
			return m.reject(FieldSite, m.site, err)
		}
		return m.SetSite(lat, lon)
	},
}

var readOnlyFields = map[string]bool{
	FieldCoord:        true,
	FieldStatus:       true,
	FieldPierSide:     true,
	FieldAlignProcess: true,
	FieldFirmware:     true,
}

// UpdateField dispatches a user update by field ID. Unknown IDs are not
// handled; known IDs report the outcome of the operation.
func (m *Mount) UpdateField(id string, values map[string]string) (bool, error) {
	h, ok := fieldHandlers[id]
	if !ok {
		if readOnlyFields[id] {
			return true, fmt.Errorf("%w: field %s is read-only", ErrInvalidInput, id)
		}
		return false, nil
	}
	return true, h(m, values)
}

func lookup(values map[string]string, key string) (string, bool) {
	for k, v := range values {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func floatValue(values map[string]string, key string) (float64, error) {
	s, ok := lookup(values, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidInput, key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidInput, key, s)
	}
	return v, nil
}

func intValue(values map[string]string, key string) (int, error) {
	s, ok := lookup(values, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidInput, key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidInput, key, s)
	}
	return v, nil
}

func boolValue(values map[string]string, key string) (bool, error) {
	s, ok := lookup(values, key)
	if !ok {
		return false, fmt.Errorf("%w: missing %s", ErrInvalidInput, key)
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidInput, key, s)
	}
	return b, nil
}
