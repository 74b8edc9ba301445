package teenastro

import (
	"fmt"
	"math"
	"strconv"
)

// PolarError is the polar alignment correction reported after an alignment.
type PolarError struct {
	Altitude     int64  `json:"altitude"`
	Azimuth      int64  `json:"azimuth"`
	AltitudeText string `json:"altitudeText"`
	AzimuthText  string `json:"azimuthText"`
}

// RefreshPolarError reads the altitude and azimuth corrections. The two
// values come from separate queries, so a controller update in between can
// return a pair from different solutions.
func RefreshPolarError(c commander) (PolarError, error) {
	alt, err := queryArcseconds(c, ":GX02#")
	if err != nil {
		return PolarError{}, fmt.Errorf("altitude correction: %w", err)
	}
	az, err := queryArcseconds(c, ":GX03#")
	if err != nil {
		return PolarError{}, fmt.Errorf("azimuth correction: %w", err)
	}

	return PolarError{
		Altitude:     alt,
		Azimuth:      az,
		AltitudeText: formatCorrection(alt),
		AzimuthText:  formatCorrection(az),
	}, nil
}

func queryArcseconds(c commander, cmd string) (int64, error) {
	reply, err := c.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(reply, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrDecode, reply)
	}
	return int64(v), nil
}

func formatCorrection(arcsec int64) string {
	return fmt.Sprintf("%d\" / %s", arcsec, formatSexagesimal(float64(arcsec)/3600))
}

// formatSexagesimal renders degrees as D:MM:SS.
func formatSexagesimal(deg float64) string {
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}

	total := int64(math.Round(deg * 3600))
	return fmt.Sprintf("%s%d:%02d:%02d", sign, total/3600, total/60%60, total%60)
}
