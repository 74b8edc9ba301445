package teenastro

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LX200 is the generic LX200 command set shared with other mounts.
type LX200 interface {
	// RA returns the right ascension in hours.
	RA() (float64, error)
	// Dec returns the declination in degrees.
	Dec() (float64, error)
	SetSite(lat, lon float64) error
	SetMinElevation(deg int) error
	SetMaxElevation(deg int) error
	Abort() error
	SlewToPark() error
	Firmware() (Firmware, error)
}

// Firmware identifies the controller firmware.
type Firmware struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Version string `json:"version"`
	Product string `json:"product"`
}

type genericLX200 struct {
	codec *Codec
}

func NewLX200(codec *Codec) LX200 {
	return &genericLX200{codec: codec}
}

func (g *genericLX200) RA() (float64, error) {
	return g.querySexagesimal(":GR#")
}

func (g *genericLX200) Dec() (float64, error) {
	return g.querySexagesimal(":GD#")
}

func (g *genericLX200) querySexagesimal(cmd string) (float64, error) {
	reply, err := g.codec.Query(cmd)
	if err != nil {
		return 0, err
	}
	return parseSexagesimal(reply)
}

// standard sends a command acknowledged with '1'.
func (g *genericLX200) standard(cmd string) error {
	b, err := g.codec.ack("standard", cmd)
	if err != nil {
		return err
	}
	if b != '1' {
		commandErrors.WithLabelValues("standard", "rejected").Inc()
		return fmt.Errorf("%q: %w", cmd, ErrRejected)
	}
	return nil
}

// SetSite sends the site coordinates. lon is east positive; the controller
// expects west positive longitude in [0,360).
func (g *genericLX200) SetSite(lat, lon float64) error {
	west := math.Mod(360-lon, 360)
	if west < 0 {
		west += 360
	}
	d, m := degMin(west)
	if err := g.standard(fmt.Sprintf(":Sg%03d:%02d#", d, m)); err != nil {
		return fmt.Errorf("setting longitude: %w", err)
	}

	sign := '+'
	if lat < 0 {
		sign = '-'
	}
	d, m = degMin(math.Abs(lat))
	if err := g.standard(fmt.Sprintf(":St%c%02d*%02d#", sign, d, m)); err != nil {
		return fmt.Errorf("setting latitude: %w", err)
	}
	return nil
}

func (g *genericLX200) SetMinElevation(deg int) error {
	return g.standard(fmt.Sprintf(":Sh%02d#", deg))
}

func (g *genericLX200) SetMaxElevation(deg int) error {
	return g.standard(fmt.Sprintf(":So%02d#", deg))
}

func (g *genericLX200) Abort() error {
	return g.codec.SendBlind(":Q#")
}

func (g *genericLX200) SlewToPark() error {
	return g.codec.SendBlind(":hP#")
}

func (g *genericLX200) Firmware() (Firmware, error) {
	var fw Firmware
	for _, q := range []struct {
		cmd string
		dst *string
	}{
		{":GVD#", &fw.Date},
		{":GVT#", &fw.Time},
		{":GVN#", &fw.Version},
		{":GVP#", &fw.Product},
	} {
		reply, err := g.codec.Query(q.cmd)
		if err != nil {
			return fw, err
		}
		*q.dst = reply
	}
	return fw, nil
}

// degMin splits a non negative angle into whole degrees and minutes.
func degMin(v float64) (int, int) {
	total := int(math.Round(v * 60))
	return total / 60, total % 60
}

// parseSexagesimal parses replies such as "12:34:56", "12:34.5",
// "+45*30:15" or "-05*30".
func parseSexagesimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty coordinate", ErrDecode)
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '*' || r == '\'' || r == '"' || r == '°' || r == utf8.RuneError
	})
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: coordinate %q", ErrDecode, s)
	}

	var v float64
	scale := 1.0
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: coordinate %q", ErrDecode, s)
		}
		v += f / scale
		scale *= 60
	}
	return sign * v, nil
}
