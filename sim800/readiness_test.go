package sim800_test

import (
	"errors"
	"testing"
	"time"

	"gridsense.io/telemetry/cellgw/sim800"
)

func TestWaitForReady(t *testing.T) {
	t.Run("Returns ErrTimeout when the modem never becomes ready", func(t *testing.T) {
		m, _ := newTestModem(t, nil, nil)

		start := time.Now()
		err := m.WaitForReady(300*time.Millisecond, sim800.ReadyBoth)
		elapsed := time.Since(start)

		if !errors.Is(err, sim800.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if elapsed < 250*time.Millisecond || elapsed > 2*time.Second {
			t.Errorf("timeout fired after %v, expected about 300ms", elapsed)
		}
	})

	t.Run("Unblocks when readiness arrives while waiting", func(t *testing.T) {
		m, tt := newTestModem(t, nil, nil)

		go func() {
			time.Sleep(50 * time.Millisecond)
			tt.SendData("\r\nRDY\r\n")
		}()

		if err := m.WaitForReady(2*time.Second, sim800.ReadySerial); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !m.SerialReady() {
			t.Error("SerialReady() = false after successful wait")
		}
	})

	t.Run("Network target requires registration, not just any report", func(t *testing.T) {
		m, tt := newTestModem(t, nil, nil)

		tt.SendData("\r\n+CGREG: 2\r\n")
		if err := m.WaitForReady(200*time.Millisecond, sim800.ReadyNetwork); !errors.Is(err, sim800.ErrTimeout) {
			t.Fatalf("searching should not satisfy the network target, got %v", err)
		}

		tt.SendData("\r\n+CGREG: 5\r\n")
		if err := m.WaitForReady(2*time.Second, sim800.ReadyNetwork); err != nil {
			t.Fatalf("roaming should satisfy the network target: %v", err)
		}
		if got := m.NetworkStatus(); got != sim800.NetworkRoaming {
			t.Errorf("NetworkStatus() = %v, want %v", got, sim800.NetworkRoaming)
		}
	})
}

func TestUnsolicitedOrdering(t *testing.T) {
	handler := &recordingHandler{}
	m, tt := newTestModem(t, nil, handler)
	handler.Modem = m

	tt.SendData("\r\nRDY\r\n")
	tt.SendData("\r\n+CGREG: 1\r\n")
	tt.SendData("\r\n+CMTI: \"SM\",3\r\n")

	deadline := time.Now().Add(2 * time.Second)
	for len(handler.snapshot()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for events, got %v", handler.snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := handler.snapshot()
	want := []string{"ready", "network", "sms"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.sms) != 1 || handler.sms[0].Index != 3 || handler.sms[0].Folder != "SM" {
		t.Errorf("sms indications = %+v, want one for SM,3", handler.sms)
	}
	// State is committed before each callback runs: at SMS time the earlier
	// RDY and registration must already be visible.
	if !handler.serialAtSMS {
		t.Error("serial readiness not visible inside the SMS callback")
	}
	if handler.networkAtSMS != sim800.NetworkRegistered {
		t.Errorf("network status inside SMS callback = %v, want %v", handler.networkAtSMS, sim800.NetworkRegistered)
	}
}
