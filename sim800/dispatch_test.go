package sim800

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHandler tallies callbacks without inspecting payloads.
type countingHandler struct {
	mu     sync.Mutex
	sms    int
	ready  int
	status int
	errs   int
}

func (h *countingHandler) OnSMSReceived(SMSIndication) {
	h.mu.Lock()
	h.sms++
	h.mu.Unlock()
}

func (h *countingHandler) OnSerialReady() {
	h.mu.Lock()
	h.ready++
	h.mu.Unlock()
}

func (h *countingHandler) OnNetworkStatusChange(NetworkStatus) {
	h.mu.Lock()
	h.status++
	h.mu.Unlock()
}

func (h *countingHandler) OnError(string) {
	h.mu.Lock()
	h.errs++
	h.mu.Unlock()
}

func (h *countingHandler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sms + h.ready + h.status + h.errs
}

// newDispatchModem builds the minimal Modem needed to run the dispatcher
// directly, bypassing transport and initialization.
func newDispatchModem(h EventHandler) *Modem {
	return &Modem{
		config:       Config{Handler: h},
		unsolicited:  newFifo[urcMessage](),
		ready:        newReadiness(),
		dispatchDone: make(chan struct{}),
	}
}

func TestDispatchShutdownSentinel(t *testing.T) {
	t.Run("Processes all lines enqueued before the sentinel", func(t *testing.T) {
		h := &countingHandler{}
		m := newDispatchModem(h)

		const n = 200
		for i := 0; i < n; i++ {
			m.unsolicited.push(urcMessage{line: fmt.Sprintf(`+CMTI: "SM",%d`, i)})
		}
		m.unsolicited.push(urcMessage{shutdown: true})
		// Lines after the sentinel must never be processed.
		m.unsolicited.push(urcMessage{line: `+CMTI: "SM",9999`})

		go m.dispatchLoop()
		<-m.dispatchDone

		assert.Equal(t, n, h.sms, "every line before the sentinel is dispatched")
		assert.Equal(t, n, h.total(), "nothing is dispatched after the sentinel")
	})

	t.Run("Sentinel is never forwarded to the handler", func(t *testing.T) {
		h := &countingHandler{}
		m := newDispatchModem(h)
		m.unsolicited.push(urcMessage{shutdown: true})

		go m.dispatchLoop()
		<-m.dispatchDone

		assert.Zero(t, h.total())
	})
}

func TestDispatchDecoding(t *testing.T) {
	run := func(h EventHandler, lines ...string) *Modem {
		m := newDispatchModem(h)
		for _, line := range lines {
			m.unsolicited.push(urcMessage{line: line})
		}
		m.unsolicited.push(urcMessage{shutdown: true})
		go m.dispatchLoop()
		<-m.dispatchDone
		return m
	}

	t.Run("RDY marks serial ready", func(t *testing.T) {
		h := &countingHandler{}
		m := run(h, "RDY")
		assert.True(t, m.ready.serialReady())
		assert.Equal(t, 1, h.ready)
	})

	t.Run("CGREG digits map to network status", func(t *testing.T) {
		cases := map[string]NetworkStatus{
			"+CGREG: 0": NetworkUnregistered,
			"+CGREG: 1": NetworkRegistered,
			"+CGREG: 2": NetworkSearching,
			"+CGREG: 3": NetworkDenied,
			"+CGREG: 4": NetworkUnknown,
			"+CGREG: 5": NetworkRoaming,
		}
		for line, want := range cases {
			h := &countingHandler{}
			m := run(h, line)
			assert.Equal(t, want, m.ready.networkStatus(), "line %q", line)
			assert.Equal(t, 1, h.status)
		}
	})

	t.Run("CMTI decodes folder and index", func(t *testing.T) {
		var got SMSIndication
		h := &funcHandler{onSMS: func(msg SMSIndication) { got = msg }}
		run(h, `+CMTI: "SM",3`)
		require.Equal(t, SMSIndication{Folder: "SM", Index: 3}, got)
	})

	t.Run("Unknown line reported via OnError", func(t *testing.T) {
		var msg string
		h := &funcHandler{onError: func(s string) { msg = s }}
		run(h, "+UNDECODABLE: 42")
		assert.Contains(t, msg, "+UNDECODABLE: 42")
	})

	t.Run("Nil handler drops events but still updates state", func(t *testing.T) {
		m := run(nil, "RDY", "+CGREG: 1")
		assert.True(t, m.ready.serialReady())
		assert.Equal(t, NetworkRegistered, m.ready.networkStatus())
	})
}

// funcHandler adapts closures to the EventHandler interface.
type funcHandler struct {
	onSMS   func(SMSIndication)
	onError func(string)
}

func (h *funcHandler) OnSMSReceived(msg SMSIndication) {
	if h.onSMS != nil {
		h.onSMS(msg)
	}
}

func (h *funcHandler) OnSerialReady() {}

func (h *funcHandler) OnNetworkStatusChange(NetworkStatus) {}

func (h *funcHandler) OnError(message string) {
	if h.onError != nil {
		h.onError(message)
	}
}
