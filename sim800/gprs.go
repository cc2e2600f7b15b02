package sim800

import (
	"strings"

	"gridsense.io/telemetry/cellgw/at"
)

// GPRSAttach attaches the modem to the packet service. Attaching can take
// several seconds on a congested network, so the documented 10 s bound
// applies instead of the default command timeout.
func (m *Modem) GPRSAttach() error {
	return m.commandExpectOK(at.CmdAttach, m.config.AttachTimeout)
}

// GPRSDetach detaches the modem from the packet service.
func (m *Modem) GPRSDetach() error {
	return m.commandExpectOK(at.CmdDetach, m.config.AttachTimeout)
}

// GPRSAttached queries the current attach state with AT+CGATT?. This is the
// synchronous fallback for callers that have no event handler registered
// and therefore no dispatched registration updates to rely on.
func (m *Modem) GPRSAttached() (bool, error) {
	resp, err := m.Command(at.CmdAttachQuery)
	if err != nil {
		return false, err
	}
	switch {
	case strings.Contains(resp, "+CGATT: 1"):
		return true, nil
	case strings.Contains(resp, "+CGATT: 0"):
		return false, nil
	default:
		return false, &ProtocolError{Cmd: at.CmdAttachQuery, Response: resp}
	}
}
