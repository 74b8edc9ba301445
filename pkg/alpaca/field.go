package alpaca

import (
	"fmt"
	"strings"
	"time"
)

// FieldState is the status a device reports alongside a field value.
type FieldState int

const (
	StateIdle FieldState = iota
	StateOk
	StateBusy
	StateAlert
)

var fieldStateNames = [...]string{"Idle", "Ok", "Busy", "Alert"}

func (s FieldState) String() string {
	if s < 0 || int(s) >= len(fieldStateNames) {
		return fmt.Sprintf("FieldState(%d)", int(s))
	}
	return fieldStateNames[s]
}

func (s FieldState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FieldState) UnmarshalText(text []byte) error {
	for i, name := range fieldStateNames {
		if strings.EqualFold(name, string(text)) {
			*s = FieldState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown field state %q", text)
}

// Field is one published device property.
type Field struct {
	ID      string     `json:"id"`
	Value   any        `json:"value"`
	State   FieldState `json:"state"`
	Message string     `json:"message,omitempty"`
	Updated time.Time  `json:"updated"`
}

// Publisher receives every field a device publishes.
type Publisher interface {
	Publish(f Field)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(f Field)

func (fn PublisherFunc) Publish(f Field) {
	fn(f)
}

// Publishers fans a field out to several publishers in order.
type Publishers []Publisher

func (ps Publishers) Publish(f Field) {
	for _, p := range ps {
		p.Publish(f)
	}
}

// FieldUpdater accepts user-submitted field updates. It reports whether the
// field is known to the device; err describes why a known field was rejected.
type FieldUpdater interface {
	UpdateField(id string, values map[string]string) (handled bool, err error)
}
