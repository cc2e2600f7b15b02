package sim800

import (
	"io"
	"strings"
	"sync"
)

// TestTransport is a test helper that simulates a blocking transport using
// channels. Reads block until data is queued with SendData, the way a real
// serial port blocks until the modem speaks.
//
// An optional OnWrite hook observes each command line the modem writes
// (without the CR terminator), letting a test script responses per command.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool

	// OnWrite, when set, is invoked synchronously for every Write with the
	// written line stripped of its trailing CR.
	OnWrite func(line string)
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	hook := t.OnWrite
	t.mu.Unlock()
	if hook != nil {
		hook(strings.TrimSuffix(string(p), "\r"))
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}
