package sim800_test

import (
	"errors"
	"testing"

	"gridsense.io/telemetry/cellgw/sim800"
)

func TestSendSMS(t *testing.T) {
	t.Run("Prompt then terminator completes the send", func(t *testing.T) {
		m, tt := newTestModem(t, map[string]string{
			`AT+CMGS="+15551234567"`:  "\r\n> ",
			"Hello from the field\x1a": "\r\n+CMGS: 5\r\n\r\nOK\r\n",
		}, nil)
		writes := recordWrites(tt)

		if err := m.SendSMS("+15551234567", "Hello from the field"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := writes()
		if len(got) != 2 {
			t.Fatalf("writes = %v, want command then body", got)
		}
		if got[1] != "Hello from the field\x1a" {
			t.Errorf("body write = %q, want message terminated with Ctrl+Z", got[1])
		}
	})

	t.Run("Missing prompt fails with ErrTimeout", func(t *testing.T) {
		// No scripted prompt: the command is swallowed.
		m, _ := newTestModem(t, nil, nil)

		err := m.SendSMS("+15551234567", "hello")
		if !errors.Is(err, sim800.ErrTimeout) {
			t.Fatalf("expected ErrTimeout waiting for the prompt, got %v", err)
		}
	})

	t.Run("ERROR after the body is a protocol error", func(t *testing.T) {
		m, _ := newTestModem(t, map[string]string{
			`AT+CMGS="+15551234567"`: "\r\n> ",
			"hello\x1a":              "\r\n+CMS ERROR: 500\r\n",
		}, nil)

		err := m.SendSMS("+15551234567", "hello")
		var perr *sim800.ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProtocolError, got %v", err)
		}
	})
}

func TestReadSMS(t *testing.T) {
	t.Run("Decodes header and body", func(t *testing.T) {
		m, _ := newTestModem(t, map[string]string{
			"AT+CMGR=3": "\r\n+CMGR: \"REC UNREAD\",\"+15551234567\",\"\",\"24/05/02,10:20:01+08\"\r\nMeter 7 offline\r\n\r\nOK\r\n",
		}, nil)

		msg, err := m.ReadSMS(3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := sim800.SMS{
			Index:  3,
			Status: "REC UNREAD",
			Sender: "+15551234567",
			Time:   "24/05/02,10:20:01+08",
			Text:   "Meter 7 offline",
		}
		if msg != want {
			t.Errorf("ReadSMS(3) = %+v, want %+v", msg, want)
		}
	})

	t.Run("Keeps a multi-line body intact", func(t *testing.T) {
		m, _ := newTestModem(t, map[string]string{
			"AT+CMGR=1": "\r\n+CMGR: \"REC READ\",\"+15551234567\",\"\",\"24/05/02,10:20:01+08\"\r\nfirst line\r\nsecond line\r\n\r\nOK\r\n",
		}, nil)

		msg, err := m.ReadSMS(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Text != "first line\nsecond line" {
			t.Errorf("Text = %q, want both lines", msg.Text)
		}
	})

	t.Run("Empty slot is a protocol error", func(t *testing.T) {
		m, _ := newTestModem(t, map[string]string{
			"AT+CMGR=9": "\r\nOK\r\n",
		}, nil)

		_, err := m.ReadSMS(9)
		var perr *sim800.ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProtocolError for an empty slot, got %v", err)
		}
	})
}

func TestDeleteSMS(t *testing.T) {
	m, tt := newTestModem(t, map[string]string{
		"AT+CMGD=3": "\r\nOK\r\n",
	}, nil)
	writes := recordWrites(tt)

	if err := m.DeleteSMS(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := writes()
	if len(got) != 1 || got[0] != "AT+CMGD=3" {
		t.Errorf("writes = %v, want a single delete command", got)
	}
}
