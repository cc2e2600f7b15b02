package sim800

import (
	"fmt"
	"regexp"
	"strconv"

	"gridsense.io/telemetry/cellgw/at"
)

// Functionality is the modem-wide RF/SIM power state set with AT+CFUN.
// The numeric values are the CFUN codes.
type Functionality int

const (
	// FuncMin disables both RF and the SIM interface.
	FuncMin Functionality = 0
	// FuncFull is normal operation.
	FuncFull Functionality = 1
	// FuncFlight disables RF but keeps the SIM accessible.
	FuncFlight Functionality = 4
)

func (f Functionality) String() string {
	switch f {
	case FuncMin:
		return "minimum"
	case FuncFull:
		return "full"
	case FuncFlight:
		return "flight"
	default:
		return fmt.Sprintf("functionality(%d)", int(f))
	}
}

var funcReport = regexp.MustCompile(`\+CFUN: ([014])`)

// Functionality queries the current mode with AT+CFUN?.
func (m *Modem) Functionality() (Functionality, error) {
	resp, err := m.Command(at.CmdFuncQuery)
	if err != nil {
		return 0, err
	}
	match := funcReport.FindStringSubmatch(resp)
	if match == nil {
		return 0, &ProtocolError{Cmd: at.CmdFuncQuery, Response: resp}
	}
	code, _ := strconv.Atoi(match[1])
	return Functionality(code), nil
}

// SetFunctionality switches the modem to the target mode. The SIM800
// rejects a direct transition between minimum and flight mode, so that pair
// is decomposed into two steps through full functionality; every other
// change issues exactly one CFUN command.
func (m *Modem) SetFunctionality(target Functionality) error {
	current, err := m.Functionality()
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if (current == FuncMin && target == FuncFlight) ||
		(current == FuncFlight && target == FuncMin) {
		if err := m.setFunctionality(FuncFull); err != nil {
			return err
		}
	}
	return m.setFunctionality(target)
}

func (m *Modem) setFunctionality(f Functionality) error {
	return m.CommandExpectOK(fmt.Sprintf("AT+CFUN=%d", int(f)))
}

// SimReset reboots the module with AT+CFUN=1,1. A reset invalidates every
// prior readiness guarantee, so the in-memory state is cleared before the
// command is written; callers should WaitForReady afterwards.
func (m *Modem) SimReset() error {
	m.ready.reset()
	return m.CommandExpectOK(at.CmdReset)
}
