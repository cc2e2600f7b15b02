package sim800_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gridsense.io/telemetry/cellgw/sim800"
)

// testDialer hands out a pre-built transport, standing in for a serial port.
type testDialer struct {
	transport sim800.Transport
}

func (d testDialer) Dial(ctx context.Context) (sim800.Transport, error) {
	return d.transport, nil
}

// initScript answers the standard initialization sequence.
func initScript() map[string]string {
	return map[string]string{
		"AT":        "\r\nOK\r\n",
		"ATE0":      "\r\nOK\r\n",
		"AT+CMEE=2": "\r\nOK\r\n",
		"AT+CPIN?":  "\r\n+CPIN: READY\r\n\r\nOK\r\n",
		"AT+CMGF=1": "\r\nOK\r\n",
	}
}

// newTestModem opens a Modem over a TestTransport that answers the standard
// init sequence plus any per-command responses in script. Commands without
// a scripted response get no reply, so reads run into their timeout.
func newTestModem(t *testing.T, script map[string]string, handler sim800.EventHandler) (*sim800.Modem, *sim800.TestTransport) {
	t.Helper()

	tt := sim800.NewTestTransport()
	responses := initScript()
	for cmd, resp := range script {
		responses[cmd] = resp
	}
	tt.OnWrite = func(line string) {
		if resp, ok := responses[line]; ok {
			tt.SendData(resp)
		}
	}

	config, err := sim800.NewConfigBuilder().
		WithDialer(testDialer{transport: tt}).
		WithHandler(handler).
		WithATTimeout(500 * time.Millisecond).
		WithSendTimeout(time.Second).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := sim800.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to open modem: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, tt
}

// recordingHandler captures dispatched events for inspection. When Modem is
// set, each SMS callback also snapshots the readiness state visible at
// callback time.
type recordingHandler struct {
	mu sync.Mutex

	Modem *sim800.Modem

	order    []string
	sms      []sim800.SMSIndication
	statuses []sim800.NetworkStatus
	errors   []string

	serialAtSMS  bool
	networkAtSMS sim800.NetworkStatus
}

func (h *recordingHandler) OnSMSReceived(msg sim800.SMSIndication) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "sms")
	h.sms = append(h.sms, msg)
	if h.Modem != nil {
		h.serialAtSMS = h.Modem.SerialReady()
		h.networkAtSMS = h.Modem.NetworkStatus()
	}
}

func (h *recordingHandler) OnSerialReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "ready")
}

func (h *recordingHandler) OnNetworkStatusChange(status sim800.NetworkStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "network")
	h.statuses = append(h.statuses, status)
}

func (h *recordingHandler) OnError(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "error")
	h.errors = append(h.errors, message)
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}
