package alpaca

import (
	"net/http"
)

type TelescopeCapabilities struct {
	CanFindHome        bool `json:"CanFindHome"`
	CanPark            bool `json:"CanPark"`
	CanUnpark          bool `json:"CanUnpark"`
	CanSetPark         bool `json:"CanSetPark"`
	CanSetTracking     bool `json:"CanSetTracking"`
	CanSetPierSide     bool `json:"CanSetPierSide"`
	CanSlew            bool `json:"CanSlew"`
	CanSync            bool `json:"CanSync"`
	CanPulseGuide      bool `json:"CanPulseGuide"`
	CanSetRightAscRate bool `json:"CanSetRightAscensionRate"`
	CanSetDecRate      bool `json:"CanSetDeclinationRate"`
}

type PierSide int

const (
	PierUnknown PierSide = -1
	PierEast    PierSide = 0
	PierWest    PierSide = 1
)

type AlignmentMode int

const (
	AlignmentAltAz AlignmentMode = iota
	AlignmentPolar
	AlignmentGermanPolar
)

type TelescopeStatus struct {
	AtHome             bool          `json:"AtHome"`
	AtPark             bool          `json:"AtPark"`
	Slewing            bool          `json:"Slewing"`
	Tracking           bool          `json:"Tracking"`
	RightAscension     float64       `json:"RightAscension"`
	Declination        float64       `json:"Declination"`
	RightAscensionRate float64       `json:"RightAscensionRate"`
	DeclinationRate    float64       `json:"DeclinationRate"`
	SideOfPier         PierSide      `json:"SideOfPier"`
	AlignmentMode      AlignmentMode `json:"AlignmentMode"`
}

func (ts TelescopeStatus) ToProperties() []StateProperty {
	return []StateProperty{
		{"AtHome", ts.AtHome},
		{"AtPark", ts.AtPark},
		{"Slewing", ts.Slewing},
		{"Tracking", ts.Tracking},
		{"RightAscension", ts.RightAscension},
		{"Declination", ts.Declination},
		{"SideOfPier", ts.SideOfPier},
	}
}

type Telescope interface {
	Device

	Capabilities() TelescopeCapabilities
	Status() TelescopeStatus

	SetTracking(bool) error
	SetTrackingRates(ra, dec float64) error
	AbortSlew() error
	FindHome() error
	Park() error
	Unpark() error
	SetPark() error
}

type TelescopeHandler struct {
	DeviceHandler
	dev Telescope
}

func NewTelescopeHandler(dev Telescope) *TelescopeHandler {
	return &TelescopeHandler{
		DeviceHandler: DeviceHandler{dev: dev},
		dev:           dev,
	}
}

func (th *TelescopeHandler) RegisterRoutes(mux *http.ServeMux) {
	th.DeviceHandler.RegisterRoutes(mux)

	for _, property := range []string{
		"athome", "atpark", "slewing", "tracking", "rightascension",
		"declination", "rightascensionrate", "declinationrate",
		"sideofpier", "alignmentmode",
	} {
		mux.HandleFunc("GET /"+property, th.handleStatus)
	}

	for _, property := range []string{
		"canfindhome", "canpark", "canunpark", "cansetpark", "cansettracking",
		"cansetpierside", "canslew", "cansync", "canpulseguide",
		"cansetrightascensionrate", "cansetdeclinationrate",
	} {
		mux.HandleFunc("GET /"+property, th.handleCapabilities)
	}

	mux.HandleFunc("PUT /tracking", th.handleSetTracking)
	mux.HandleFunc("PUT /rightascensionrate", th.handleSetRightAscensionRate)
	mux.HandleFunc("PUT /declinationrate", th.handleSetDeclinationRate)
	mux.HandleFunc("PUT /abortslew", th.action(th.dev.AbortSlew))
	mux.HandleFunc("PUT /findhome", th.action(th.dev.FindHome))
	mux.HandleFunc("PUT /park", th.action(th.dev.Park))
	mux.HandleFunc("PUT /unpark", th.action(th.dev.Unpark))
	mux.HandleFunc("PUT /setpark", th.action(th.dev.SetPark))
}

func (th *TelescopeHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !th.dev.Connected() {
		handleError(w, r, ErrNotConnected)
		return
	}

	status := th.dev.Status()

	switch r.URL.Path[1:] {
	case "athome":
		handleResponse(w, r, status.AtHome)
	case "atpark":
		handleResponse(w, r, status.AtPark)
	case "slewing":
		handleResponse(w, r, status.Slewing)
	case "tracking":
		handleResponse(w, r, status.Tracking)
	case "rightascension":
		handleResponse(w, r, status.RightAscension)
	case "declination":
		handleResponse(w, r, status.Declination)
	case "rightascensionrate":
		handleResponse(w, r, status.RightAscensionRate)
	case "declinationrate":
		handleResponse(w, r, status.DeclinationRate)
	case "sideofpier":
		handleResponse(w, r, status.SideOfPier)
	case "alignmentmode":
		handleResponse(w, r, status.AlignmentMode)
	default:
		handleError(w, r, ErrPropertyNotImplemented)
	}
}

func (th *TelescopeHandler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps := th.dev.Capabilities()

	switch r.URL.Path[1:] {
	case "canfindhome":
		handleResponse(w, r, caps.CanFindHome)
	case "canpark":
		handleResponse(w, r, caps.CanPark)
	case "canunpark":
		handleResponse(w, r, caps.CanUnpark)
	case "cansetpark":
		handleResponse(w, r, caps.CanSetPark)
	case "cansettracking":
		handleResponse(w, r, caps.CanSetTracking)
	case "cansetpierside":
		handleResponse(w, r, caps.CanSetPierSide)
	case "canslew":
		handleResponse(w, r, caps.CanSlew)
	case "cansync":
		handleResponse(w, r, caps.CanSync)
	case "canpulseguide":
		handleResponse(w, r, caps.CanPulseGuide)
	case "cansetrightascensionrate":
		handleResponse(w, r, caps.CanSetRightAscRate)
	case "cansetdeclinationrate":
		handleResponse(w, r, caps.CanSetDecRate)
	default:
		handleError(w, r, ErrPropertyNotImplemented)
	}
}

func (th *TelescopeHandler) handleSetTracking(w http.ResponseWriter, r *http.Request) {
	tracking, err := parseBoolRequest(r, "Tracking")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := th.dev.SetTracking(tracking); err != nil {
		handleError(w, r, err)
		return
	}
	handleResponse(w, r, nil)
}

// The controller sets both offset rates together, so each handler resends
// the other axis at its current rate.
func (th *TelescopeHandler) handleSetRightAscensionRate(w http.ResponseWriter, r *http.Request) {
	ra, err := parseFloatRequest(r, "RightAscensionRate")
	if err != nil {
		handleError(w, r, err)
		return
	}
	th.setRates(w, r, ra, th.dev.Status().DeclinationRate)
}

func (th *TelescopeHandler) handleSetDeclinationRate(w http.ResponseWriter, r *http.Request) {
	dec, err := parseFloatRequest(r, "DeclinationRate")
	if err != nil {
		handleError(w, r, err)
		return
	}
	th.setRates(w, r, th.dev.Status().RightAscensionRate, dec)
}

func (th *TelescopeHandler) setRates(w http.ResponseWriter, r *http.Request, ra, dec float64) {
	if err := th.dev.SetTrackingRates(ra, dec); err != nil {
		handleError(w, r, err)
		return
	}
	handleResponse(w, r, nil)
}

func (th *TelescopeHandler) action(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			handleError(w, r, err)
			return
		}
		handleResponse(w, r, nil)
	}
}
