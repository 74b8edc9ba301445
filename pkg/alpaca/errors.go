package alpaca

import (
	"errors"
	"fmt"
)

// Error is an Alpaca error carrying an ASCOM error number.
type Error struct {
	Number  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ASCOM error numbers
const (
	errNumNotImplemented       = 0x400
	errNumInvalidValue         = 0x401
	errNumNotConnected         = 0x407
	errNumParked               = 0x408
	errNumInvalidOperation     = 0x40B
	errNumActionNotImplemented = 0x40C
	errNumUnspecified          = 0x500
)

var (
	ErrNotConnected           = &Error{errNumNotConnected, "device is not connected"}
	ErrPropertyNotImplemented = &Error{errNumNotImplemented, "property or method not implemented"}
	ErrParked                 = &Error{errNumParked, "operation not allowed while parked"}
	ErrInvalidOperation       = &Error{errNumInvalidOperation, "invalid operation"}
	ErrFieldNotFound          = &Error{errNumActionNotImplemented, "field not handled by this device"}
)

func invalidValue(format string, args ...any) error {
	return &Error{errNumInvalidValue, fmt.Sprintf(format, args...)}
}

// errorNumber maps err to an ASCOM error number. Unknown errors are reported
// as driver errors.
func errorNumber(err error) int {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Number
	}
	return errNumUnspecified
}

// InvalidValueError reports err to clients as an ASCOM invalid value error.
func InvalidValueError(err error) error {
	return &Error{errNumInvalidValue, err.Error()}
}

// DriverError reports err to clients as an unspecified driver error.
func DriverError(err error) error {
	return &Error{errNumUnspecified, err.Error()}
}
