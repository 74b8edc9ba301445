package teenastro

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Simulator is an in-memory TeenAstro controller. It implements Channel,
// answers the commands the driver uses and records every command it
// receives. Replies can be scripted per command. A read with nothing
// pending times out immediately.
type Simulator struct {
	mu       sync.Mutex
	in       []byte
	pending  []byte
	commands []string
	scripted map[string]string
	silent   map[string]bool
	closed   bool

	ra, dec    float64
	tracking   bool
	slewing    bool
	parked     bool
	parking    bool
	atHome     bool
	homePause  bool
	refraction RefractionMode
	pier       byte
	lastError  ErrorCode

	backlash      Backlash
	meridian      MeridianLimits
	elevation     ElevationLimits
	autoFlip      bool
	preferredPier byte
	slewRate      int

	alignMax, alignCurrent, alignRequired int
	polarAlt, polarAz                     int64

	firmware Firmware
}

func NewSimulator() *Simulator {
	return &Simulator{
		scripted:      make(map[string]string),
		silent:        make(map[string]bool),
		ra:            5.5,
		dec:           22.25,
		parked:        true,
		atHome:        true,
		refraction:    RefractionFull,
		pier:          'E',
		backlash:      Backlash{RA: 20, Dec: 30},
		meridian:      MeridianLimits{East: 15, West: 15},
		elevation:     ElevationLimits{Min: -10, Max: 90},
		preferredPier: 'B',
		slewRate:      5,
		alignMax:      9,
		firmware: Firmware{
			Date:    "Jan 01 2024",
			Time:    "12:00:00",
			Version: "1.5.0",
			Product: "TeenAstro",
		},
	}
}

// Script makes the simulator answer cmd with reply instead of its model.
// The reply is sent verbatim, so query replies need their terminator.
func (s *Simulator) Script(cmd, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.silent, cmd)
	s.scripted[cmd] = reply
}

// Silence makes the simulator ignore cmd.
func (s *Simulator) Silence(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scripted, cmd)
	s.silent[cmd] = true
}

// Unscript restores model replies for cmd.
func (s *Simulator) Unscript(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scripted, cmd)
	delete(s.silent, cmd)
}

// Commands returns the commands received so far.
func (s *Simulator) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Simulator) ClearCommands() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
}

func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}

	s.in = append(s.in, p...)
	for {
		end := strings.IndexByte(string(s.in), terminator)
		if end < 0 {
			break
		}
		frame := string(s.in[:end+1])
		s.in = s.in[end+1:]

		start := strings.IndexByte(frame, ':')
		if start < 0 {
			continue
		}
		cmd := frame[start:]
		s.commands = append(s.commands, cmd)
		s.pending = append(s.pending, s.reply(cmd)...)
	}
	return len(p), nil
}

func (s *Simulator) ReadUntil(limit int, term byte, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []byte
	for len(buf) < limit {
		if len(s.pending) == 0 {
			return buf, ErrTimeout
		}
		c := s.pending[0]
		s.pending = s.pending[1:]
		buf = append(buf, c)
		if term != 0 && c == term {
			break
		}
	}
	return buf, nil
}

func (s *Simulator) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

const (
	ackOK       = "0"
	ackStandard = "1"
)

func (s *Simulator) reply(cmd string) string {
	if s.silent[cmd] {
		return ""
	}
	if r, ok := s.scripted[cmd]; ok {
		return r
	}

	body := strings.TrimSuffix(strings.TrimPrefix(cmd, ":"), "#")
	switch body {
	case "GU":
		return s.statusString() + "#"
	case "Gm":
		return string(s.pier) + "#"
	case "GR":
		return formatHMS(s.ra) + "#"
	case "GD":
		return formatDMS(s.dec) + "#"
	case "%BD":
		return strconv.Itoa(s.backlash.Dec) + "#"
	case "%BR":
		return strconv.Itoa(s.backlash.RA) + "#"
	case "GX95":
		return strconv.Itoa(boolToInt(s.autoFlip)) + "#"
	case "GX96":
		return string(s.preferredPier) + "#"
	case "GXE9":
		return strconv.Itoa(s.meridian.East) + "#"
	case "GXEA":
		return strconv.Itoa(s.meridian.West) + "#"
	case "GX02":
		return strconv.FormatInt(s.polarAlt, 10) + "#"
	case "GX03":
		return strconv.FormatInt(s.polarAz, 10) + "#"
	case "GVD":
		return s.firmware.Date + "#"
	case "GVT":
		return s.firmware.Time + "#"
	case "GVN":
		return s.firmware.Version + "#"
	case "GVP":
		return s.firmware.Product + "#"
	case "A?":
		return fmt.Sprintf("%d%d%d#", s.alignMax, s.alignCurrent, s.alignRequired)
	case "A+":
		s.alignCurrent++
		if s.alignRequired > 0 && s.alignCurrent > s.alignRequired {
			s.polarAlt, s.polarAz = 95, -42
		}
		return ""
	case "AW":
		return ""
	case "Q":
		s.slewing = false
		return ""
	case "hP":
		s.slewing, s.tracking, s.parking = false, false, true
		return ""
	case "hR":
		s.parked, s.parking = false, false
		return "1#"
	case "hQ":
		return "1#"
	case "hC":
		s.atHome = true
		return ""
	case "hF":
		s.atHome = true
		s.parked = false
		return ""
	case "Te":
		s.tracking = true
		return "1#"
	case "Td":
		s.tracking = false
		return "1#"
	case "T+", "T-", "TR", "B+", "B-":
		return ""
	case "To":
		s.refraction = RefractionFull
		return ackOK
	case "Tr":
		s.refraction = RefractionOnly
		return ackOK
	case "Tn":
		s.refraction = RefractionOff
		return ackOK
	}

	switch {
	case strings.HasPrefix(body, "$BD"):
		return s.setInt(body[3:], &s.backlash.Dec, ackOK)
	case strings.HasPrefix(body, "$BR"):
		return s.setInt(body[3:], &s.backlash.RA, ackOK)
	case strings.HasPrefix(body, "SXE9,"):
		return s.setInt(body[5:], &s.meridian.East, ackOK)
	case strings.HasPrefix(body, "SXEA,"):
		return s.setInt(body[5:], &s.meridian.West, ackOK)
	case strings.HasPrefix(body, "SX95,"):
		s.autoFlip = body[5:] == "1"
		return ackOK
	case strings.HasPrefix(body, "SX96,"):
		if v := body[5:]; v == "W" || v == "E" || v == "B" {
			s.preferredPier = v[0]
			return ackOK
		}
		return "1"
	case strings.HasPrefix(body, "SX98,"):
		s.homePause = body[5:] == "1"
		return ackOK
	case strings.HasPrefix(body, "SX99,"):
		return ackOK
	case strings.HasPrefix(body, "RA"), strings.HasPrefix(body, "RE"), strings.HasPrefix(body, "SC"):
		return ackOK
	case strings.HasPrefix(body, "R"):
		s.setInt(body[1:], &s.slewRate, "")
		return ""
	case strings.HasPrefix(body, "Sh"):
		return s.setInt(body[2:], &s.elevation.Min, ackStandard)
	case strings.HasPrefix(body, "So"):
		return s.setInt(body[2:], &s.elevation.Max, ackStandard)
	case strings.HasPrefix(body, "Sg"), strings.HasPrefix(body, "St"):
		return ackStandard
	case len(body) == 2 && body[0] == 'A' && body[1] >= '1' && body[1] <= '9':
		s.alignRequired = int(body[1] - '0')
		s.alignCurrent = 1
		return ""
	}
	return ""
}

func (s *Simulator) setInt(arg string, dst *int, ack string) string {
	v, err := strconv.Atoi(arg)
	if err != nil {
		if ack == "" {
			return ""
		}
		return "1"
	}
	*dst = v
	return ack
}

func (s *Simulator) statusString() string {
	var b strings.Builder

	switch {
	case s.slewing:
		b.WriteString("n")
	case s.tracking:
		b.WriteString("N")
	default:
		b.WriteString("nN")
	}

	switch {
	case s.parked:
		b.WriteString("P")
	case s.parking:
		b.WriteString("I")
		s.parking, s.parked = false, true
	default:
		b.WriteString("p")
	}

	if s.atHome {
		b.WriteString("H")
	}
	if s.homePause {
		b.WriteString("u")
	}

	switch s.refraction {
	case RefractionFull:
		b.WriteString("rt")
	case RefractionOnly:
		b.WriteString("r")
	case RefractionOff:
		b.WriteString("s")
	}

	b.WriteString("E")
	b.WriteByte(byte('0' + s.lastError))
	return b.String()
}

func formatHMS(hours float64) string {
	total := int(hours*3600 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600%24, total/60%60, total%60)
}

func formatDMS(deg float64) string {
	sign := '+'
	if deg < 0 {
		sign = '-'
		deg = -deg
	}
	total := int(deg*3600 + 0.5)
	return fmt.Sprintf("%c%02d*%02d:%02d", sign, total/3600, total/60%60, total%60)
}
