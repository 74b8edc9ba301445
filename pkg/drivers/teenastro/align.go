package teenastro

import (
	"fmt"

	"teenastro/pkg/alpaca"

	log "github.com/sirupsen/logrus"
)

// commander is the subset of Codec used by the protocol helpers.
type commander interface {
	SendBlind(cmd string) error
	SendConfirmed(cmd string) (bool, error)
	Query(cmd string) (string, error)
}

type AlignState int

const (
	AlignIdle AlignState = iota
	AlignStarted
	AlignCapturing
	AlignCompleted
	AlignFailed
)

var alignStateNames = [...]string{"Idle", "Started", "Capturing", "Completed", "Failed"}

func (s AlignState) String() string {
	if s < 0 || int(s) >= len(alignStateNames) {
		return fmt.Sprintf("AlignState(%d)", int(s))
	}
	return alignStateNames[s]
}

func (s AlignState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AlignSession tracks the alignment handshake.
type AlignSession struct {
	State    AlignState `json:"state"`
	Target   int        `json:"target"`
	Max      int        `json:"max"`
	Current  int        `json:"current"`
	Required int        `json:"required"`
}

// AlignStatus is the :A?# reply: maximum, current and last required star.
type AlignStatus struct {
	Max      int `json:"max"`
	Current  int `json:"current"`
	Required int `json:"required"`
}

func (s AlignStatus) Completed() bool {
	return s.Current > s.Required
}

// AlignReport is the outcome of one status poll.
type AlignReport struct {
	Status  AlignStatus `json:"status"`
	Message string      `json:"message"`

	// Completed is set only on the poll that first observes completion.
	Completed bool        `json:"completed"`
	Polar     *PolarError `json:"polar,omitempty"`
	PolarErr  error       `json:"-"`
}

// alignTiers maps the star count choices to wire values. The controller
// skips counts above five, so the sixth choice is nine stars.
var alignTiers = [...]int{1, 2, 3, 4, 5, 9}

// Aligner drives the multi star alignment handshake.
type Aligner struct {
	c         commander
	session   AlignSession
	completed bool
	logger    log.FieldLogger
}

func NewAligner(c commander, logger log.FieldLogger) *Aligner {
	return &Aligner{c: c, logger: logger.WithField("component", "align")}
}

func (a *Aligner) Session() AlignSession {
	return a.session
}

func (a *Aligner) Reset() {
	a.session = AlignSession{}
	a.completed = false
}

// Start begins an alignment with the requested number of stars, clamped to
// the controller's maximum.
func (a *Aligner) Start(stars int) (alpaca.FieldState, error) {
	if stars < 1 {
		return alpaca.StateIdle, fmt.Errorf("%w: star count %d", ErrInvalidInput, stars)
	}

	reply, err := a.c.Query(":A?#")
	if err != nil {
		a.logger.Warnf("Getting max stars failed: %v", err)
		return alpaca.StateAlert, err
	}
	maxStars, ok := digit(reply, 0)
	if !ok || maxStars == 0 {
		return alpaca.StateAlert, fmt.Errorf("%w: max stars %q", ErrDecode, reply)
	}

	if stars > maxStars {
		a.logger.Infof("Requested %d stars, controller allows %d", stars, maxStars)
		stars = maxStars
	}

	cmd := fmt.Sprintf(":A%d#", stars)
	if err := a.c.SendBlind(cmd); err != nil {
		a.session.State = AlignFailed
		return alpaca.StateAlert, err
	}

	a.logger.Infof("Started alignment with %s, max possible: %d", cmd, maxStars)
	a.session = AlignSession{State: AlignStarted, Target: stars, Max: maxStars}
	a.completed = false
	return alpaca.StateBusy, nil
}

// StartTier starts an alignment from a star count choice index.
func (a *Aligner) StartTier(index int) (alpaca.FieldState, error) {
	if index < 0 || index >= len(alignTiers) {
		return alpaca.StateIdle, fmt.Errorf("%w: star tier %d", ErrInvalidInput, index)
	}
	return a.Start(alignTiers[index])
}

// AddStar records the currently centred star.
func (a *Aligner) AddStar() (alpaca.FieldState, error) {
	if err := a.c.SendBlind(":A+#"); err != nil {
		return alpaca.StateAlert, err
	}
	if a.session.State == AlignStarted {
		a.session.State = AlignCapturing
	}
	return alpaca.StateBusy, nil
}

// Finish writes the alignment to the controller's persistent memory.
func (a *Aligner) Finish() (alpaca.FieldState, error) {
	if err := a.c.SendBlind(":AW#"); err != nil {
		a.session.State = AlignFailed
		return alpaca.StateAlert, err
	}
	a.session.State = AlignCompleted
	return alpaca.StateOk, nil
}

// PollStatus reads the alignment progress. The first poll that sees the
// current star pass the required count refreshes the polar error once.
func (a *Aligner) PollStatus() (AlignReport, error) {
	reply, err := a.c.Query(":A?#")
	if err != nil {
		return AlignReport{}, err
	}

	var st AlignStatus
	var ok [3]bool
	st.Max, ok[0] = digit(reply, 0)
	st.Current, ok[1] = digit(reply, 1)
	st.Required, ok[2] = digit(reply, 2)
	if !ok[0] || !ok[1] || !ok[2] {
		return AlignReport{}, fmt.Errorf("%w: align status %q", ErrDecode, reply)
	}

	a.session.Max, a.session.Current, a.session.Required = st.Max, st.Current, st.Required

	report := AlignReport{Status: st}
	if !st.Completed() {
		a.completed = false
		report.Message = fmt.Sprintf("%s Manual Align: Star %d/%d", reply, st.Current, st.Required)
		if a.session.State == AlignStarted && st.Current > 1 {
			a.session.State = AlignCapturing
		}
		return report, nil
	}

	report.Message = "Manual Align: Completed"
	if a.completed {
		return report, nil
	}

	a.completed = true
	report.Completed = true
	if a.session.State == AlignStarted || a.session.State == AlignCapturing {
		a.session.State = AlignCompleted
	}

	pe, err := RefreshPolarError(a.c)
	if err != nil {
		report.PolarErr = err
	} else {
		report.Polar = &pe
	}
	return report, nil
}

// digit returns the decimal digit at s[i].
func digit(s string, i int) (int, bool) {
	if i >= len(s) || s[i] < '0' || s[i] > '9' {
		return 0, false
	}
	return int(s[i] - '0'), true
}
