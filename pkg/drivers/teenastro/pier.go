package teenastro

import "fmt"

type PierSide int

const (
	PierUnknown PierSide = iota
	PierEast
	PierWest
)

func (p PierSide) String() string {
	switch p {
	case PierEast:
		return "East"
	case PierWest:
		return "West"
	default:
		return "Unknown"
	}
}

func (p PierSide) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PierDecoder decodes :Gm# replies, guarded by its own previous reply.
type PierDecoder struct {
	prevRaw string
	seen    bool
	side    PierSide
}

func (d *PierDecoder) Reset() {
	*d = PierDecoder{}
}

func (d *PierDecoder) Current() PierSide {
	return d.side
}

// Decode reports whether raw differs from the previous reply. Unrecognised
// replies keep the previous side and return ErrDecode.
func (d *PierDecoder) Decode(raw string) (PierSide, bool, error) {
	if raw == "" {
		return d.side, false, fmt.Errorf("%w: empty pier side", ErrDecode)
	}
	if d.seen && raw == d.prevRaw {
		return d.side, false, nil
	}
	d.prevRaw, d.seen = raw, true

	switch raw[0] {
	case 'E':
		d.side = PierEast
	case 'W':
		d.side = PierWest
	case 'N', '?':
		d.side = PierUnknown
	default:
		return d.side, true, fmt.Errorf("%w: pier side %q", ErrDecode, raw)
	}
	return d.side, true, nil
}
