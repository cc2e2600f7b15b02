// Package sim800 drives a SIM800-class cellular modem over a byte-oriented
// transport using the textual AT command protocol.
//
// The modem multiplexes two kinds of output onto the same stream: solicited
// responses to commands the host just wrote, and unsolicited notifications
// (incoming SMS, network registration changes, boot-ready signals). The
// package frames the raw bytes into lines, classifies every line, matches
// solicited lines to the in-flight command under a timeout, and routes
// unsolicited lines to a background dispatcher that decodes them into typed
// events and keeps the connection's readiness state current.
//
// The protocol is strictly half-duplex. At most one command transaction may
// be in flight; issuing a second command before the first terminator has
// been consumed is a caller error with undefined line attribution. The
// package documents this as a precondition rather than serializing callers
// with a lock.
package sim800

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gridsense.io/telemetry/cellgw/at"
)

// Modem represents one open connection to a SIM800-class modem. It owns the
// transport, both line queues and the readiness state; the dispatcher and
// read-loop goroutines it spawns hold references to the queues only, so the
// transport has a single writer.
type Modem struct {
	transport Transport
	config    Config

	solicited   *fifo[string]
	unsolicited *fifo[urcMessage]
	ready       *readiness

	mu      sync.Mutex
	closed  bool
	scanErr error

	readerDone   chan struct{}
	dispatchDone chan struct{}
}

// New dials the transport, spawns the read and dispatch goroutines and runs
// the initialization sequence (probe, echo off, verbose errors, SIM unlock,
// SMS text mode). The context governs dialing only; once the connection is
// open, blocking operations are bounded by the timeouts in Config.
//
// The returned Modem must be released with Close.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport:    transport,
		config:       config,
		solicited:    newFifo[string](),
		unsolicited:  newFifo[urcMessage](),
		ready:        newReadiness(),
		readerDone:   make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}

	go m.readLoop()
	go m.dispatchLoop()

	if err := m.init(); err != nil {
		m.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}
	return m, nil
}

// init brings the modem into a known state. It runs over the normal command
// path, so unsolicited lines arriving mid-sequence are routed to the
// dispatcher rather than corrupting the replies.
func (m *Modem) init() error {
	deadline := time.Now().Add(m.config.InitTimeout)

	// 1. Wake-up / sanity check
	if err := m.CommandExpectOK(at.CmdAt); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}

	if err := m.CommandExpectOK(at.CmdEchoOff); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}

	if err := m.CommandExpectOK(at.CmdVerboseErrors); err != nil {
		return fmt.Errorf("could not enable verbose errors: %w", err)
	}

	// 2. Check SIM status
	simStatus, err := m.Command(at.CmdSimStatus)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}

	switch {
	case strings.Contains(simStatus, at.SimReady):
		// OK

	case strings.Contains(simStatus, at.SimPin):
		if m.config.SimPIN == "" {
			return ErrSIMPinRequired
		}
		if err := m.CommandExpectOK(fmt.Sprintf(`AT+CPIN="%s"`, m.config.SimPIN)); err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		if err := m.waitForSIMReady(deadline); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unsupported SIM state: %q", simStatus)
	}

	// 3. Select SMS text mode
	if err := m.CommandExpectOK(at.CmdSetTextMode); err != nil {
		return fmt.Errorf("set SMS text mode: %w", err)
	}

	return nil
}

// waitForSIMReady polls the SIM status until it reports ready. The SIM
// needs time to authenticate after PIN entry.
func (m *Modem) waitForSIMReady(deadline time.Time) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("SIM not ready: %w", ErrTimeout)
		}
		<-ticker.C
		resp, err := m.Command(at.CmdSimStatus)
		if err != nil {
			continue
		}
		if strings.Contains(resp, at.SimReady) {
			return nil
		}
	}
}

// Close shuts down the connection and releases all resources: the
// dispatcher is unblocked with the teardown sentinel and joined, the
// transport is closed (which ends the read loop), and the readiness state
// reverts to its initial values. A closed Modem cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.mu.Unlock()

	// The sentinel is ordered after every real line already enqueued, so
	// the dispatcher drains its backlog before exiting.
	m.unsolicited.push(urcMessage{shutdown: true})
	<-m.dispatchDone

	var err error
	if m.transport != nil {
		err = m.transport.Close()
	}
	<-m.readerDone

	m.ready.reset()
	return err
}

func (m *Modem) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Modem) setScanErr(err error) {
	m.mu.Lock()
	m.scanErr = err
	m.mu.Unlock()
}

func (m *Modem) readErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanErr
}
