package sim800

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gridsense.io/telemetry/cellgw/at"
)

// urcMessage is the element type of the unsolicited queue. shutdown marks
// the reserved teardown sentinel, which only unblocks the dispatcher's
// queue wait and is never forwarded to the application. A tagged message
// cannot collide with real modem output the way a magic string could.
type urcMessage struct {
	line     string
	shutdown bool
}

var (
	smsIndication = regexp.MustCompile(`\+CMTI: "([A-Z]+)",([0-9]+)`)
	networkReport = regexp.MustCompile(`\+CGREG: ([0-5])`)
)

// dispatchLoop consumes the unsolicited queue for the lifetime of the
// connection, one line at a time, so notifications are handled in exactly
// the order they arrived. It exits when it observes the shutdown sentinel;
// lines enqueued before the sentinel are always processed first.
func (m *Modem) dispatchLoop() {
	defer close(m.dispatchDone)
	for {
		msg, ok := m.unsolicited.popWait()
		if !ok || msg.shutdown {
			return
		}
		m.dispatch(msg.line)
	}
}

// dispatch decodes one unsolicited line and fires the matching handler
// callback. The readiness state is updated before the external callback is
// invoked, so a handler can rely on the state being current. A line that
// matches no decoder is a decode failure and is reported through OnError
// rather than raised on this goroutine.
func (m *Modem) dispatch(line string) {
	handler := m.config.Handler

	if match := smsIndication.FindStringSubmatch(line); match != nil {
		index, _ := strconv.Atoi(match[2])
		if handler != nil {
			handler.OnSMSReceived(SMSIndication{Folder: match[1], Index: index})
		}
		return
	}

	if strings.Contains(line, at.UrcModuleReady) {
		m.ready.setSerialReady()
		if handler != nil {
			handler.OnSerialReady()
		}
		return
	}

	if match := networkReport.FindStringSubmatch(line); match != nil {
		code, _ := strconv.Atoi(match[1])
		status := NetworkStatus(code)
		m.ready.setNetwork(status)
		if handler != nil {
			handler.OnNetworkStatusChange(status)
		}
		return
	}

	if handler != nil {
		handler.OnError(fmt.Sprintf("unknown unsolicited response: %q", line))
	}
}
