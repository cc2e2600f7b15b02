package sim800

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gridsense.io/telemetry/cellgw/at"
)

// Write sends one command line to the modem, appending the CR terminator
// the SIM800 expects. A write failure surfaces as a wrapped transport
// error. Write does not wait for a response; pair it with read or Expect.
func (m *Modem) Write(cmd string) error {
	if m.isClosed() {
		return ErrAlreadyClosed
	}
	wire := strings.TrimSpace(cmd) + "\r"
	if _, err := m.transport.Write([]byte(wire)); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}
	return nil
}

// read drains the solicited queue, joining lines with a newline, until a
// terminator line appears ("OK", or any line containing "ERROR", inclusive).
// The timeout bounds the wait for each individual line; if it elapses with
// no line arriving the transaction fails with ErrTimeout and no partial
// response is returned. There is no cancellation mid-wait.
func (m *Modem) read(timeout time.Duration) (string, error) {
	var lines []string
	for {
		line, ok := m.solicited.pop(timeout)
		if !ok {
			if err := m.readErr(); err != nil {
				return "", fmt.Errorf("read response: %w", err)
			}
			if m.solicited.isClosed() {
				return "", io.EOF
			}
			return "", fmt.Errorf("read response: %w", ErrTimeout)
		}
		lines = append(lines, line)
		if at.Final(line) {
			return strings.Join(lines, "\n"), nil
		}
	}
}

// Expect reads solicited lines until one containing keyword appears
// (inclusive), for multi-stage exchanges whose completion line is not a
// generic terminator, such as the SMS "> " prompt or an HTTPACTION result.
// Timeout semantics match read.
func (m *Modem) Expect(keyword string, timeout time.Duration) (string, error) {
	var lines []string
	for {
		line, ok := m.solicited.pop(timeout)
		if !ok {
			if err := m.readErr(); err != nil {
				return "", fmt.Errorf("expect %q: %w", keyword, err)
			}
			if m.solicited.isClosed() {
				return "", io.EOF
			}
			return "", fmt.Errorf("expect %q: %w", keyword, ErrTimeout)
		}
		lines = append(lines, line)
		if strings.Contains(line, keyword) {
			return strings.Join(lines, "\n"), nil
		}
	}
}

// Command writes cmd and reads the response with the default timeout.
// The response includes the terminator line; an ERROR result is returned
// as data, not as an error — use CommandExpectOK to enforce success.
func (m *Modem) Command(cmd string) (string, error) {
	return m.CommandTimeout(cmd, m.config.ATTimeout)
}

// CommandTimeout is Command with an explicit response budget, for protocol
// steps whose documented max response time exceeds the default (GPRS
// attach, SMS send).
func (m *Modem) CommandTimeout(cmd string, timeout time.Duration) (string, error) {
	if err := m.Write(cmd); err != nil {
		return "", err
	}
	return m.read(timeout)
}

// CommandExpectOK writes cmd and fails with a ProtocolError unless the
// trailing response line is exactly "OK".
func (m *Modem) CommandExpectOK(cmd string) error {
	return m.commandExpectOK(cmd, m.config.ATTimeout)
}

func (m *Modem) commandExpectOK(cmd string, timeout time.Duration) error {
	resp, err := m.CommandTimeout(cmd, timeout)
	if err != nil {
		return err
	}
	lines := strings.Split(resp, "\n")
	if lines[len(lines)-1] != at.OK {
		return &ProtocolError{Cmd: cmd, Response: resp}
	}
	return nil
}

// Flush discards solicited lines that are not attributable to any
// transaction, such as output arriving after a terminator but before the
// next Write. Callers should flush before starting an unrelated sequence
// when stray lines are a risk; the transport would otherwise merge them
// into the next response.
func (m *Modem) Flush() {
	m.solicited.drain()
}
