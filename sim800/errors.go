package sim800

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not been successfully initialized.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when an operation is attempted on a Modem
	// that has been closed, or when Close is called twice.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrSIMPinRequired is returned when the SIM card requires a PIN and no
	// PIN was provided in the Config.
	//
	// Callers may handle this error specially (for example, by prompting
	// the user for a PIN) and retry initialization.
	ErrSIMPinRequired = errors.New("SIM PIN required")

	// ErrTimeout is returned when no response line arrives within the
	// caller's budget. The connection remains usable afterwards; the
	// command itself may or may not have reached the modem.
	//
	// Check for it with errors.Is.
	ErrTimeout = errors.New("response timed out")
)

// ProtocolError reports a command transaction that completed with something
// other than the expected terminator, for example an ERROR result or a
// malformed reply. Response carries the raw modem output for diagnostics.
type ProtocolError struct {
	Cmd      string
	Response string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("command %q failed: %q", e.Cmd, e.Response)
}
