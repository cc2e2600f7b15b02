package sim800

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ReadyTarget selects which condition WaitForReady blocks on.
type ReadyTarget int

const (
	// ReadySerial waits for the module boot-ready announcement (RDY).
	ReadySerial ReadyTarget = iota
	// ReadyNetwork waits for GPRS network registration (home or roaming).
	ReadyNetwork
	// ReadyBoth waits for both conditions.
	ReadyBoth
)

// readiness tracks module boot and network-registration state per open
// connection. The dispatcher goroutine is the sole writer; any number of
// goroutines may read. Writes are single-field assignments, so atomics are
// sufficient and readers never take a lock.
type readiness struct {
	serial  atomic.Bool
	network atomic.Int32
}

func newReadiness() *readiness {
	r := &readiness{}
	r.reset()
	return r
}

// reset restores the state a fresh connection starts with: serial not
// ready, network status unknown.
func (r *readiness) reset() {
	r.serial.Store(false)
	r.network.Store(int32(NetworkUnknown))
}

func (r *readiness) setSerialReady()              { r.serial.Store(true) }
func (r *readiness) setNetwork(s NetworkStatus)   { r.network.Store(int32(s)) }
func (r *readiness) serialReady() bool            { return r.serial.Load() }
func (r *readiness) networkStatus() NetworkStatus { return NetworkStatus(r.network.Load()) }

func (r *readiness) satisfied(target ReadyTarget) bool {
	switch target {
	case ReadySerial:
		return r.serialReady()
	case ReadyNetwork:
		return r.networkStatus().Registered()
	default:
		return r.serialReady() && r.networkStatus().Registered()
	}
}

// SerialReady reports whether the module has announced boot readiness.
func (m *Modem) SerialReady() bool {
	return m.ready.serialReady()
}

// NetworkStatus returns the last network-registration status reported by
// the modem, or NetworkUnknown if none has been seen yet.
func (m *Modem) NetworkStatus() NetworkStatus {
	return m.ready.networkStatus()
}

// WaitForReady blocks until the target readiness condition holds or timeout
// elapses, in which case it fails with ErrTimeout. It polls the in-memory
// state maintained by the dispatcher; no commands are written to the modem.
// There is no external cancellation, only the timeout.
func (m *Modem) WaitForReady(timeout time.Duration, target ReadyTarget) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if m.ready.satisfied(target) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for ready: %w", ErrTimeout)
		}
		<-ticker.C
	}
}
