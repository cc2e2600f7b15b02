package sim800

import (
	"fmt"
	"strings"

	"gridsense.io/telemetry/cellgw/at"
)

// SMS represents a text message stored on the modem.
type SMS struct {
	Index  int
	Status string // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string
	Time   string
	Text   string
}

// SendSMS sends a text message to the specified recipient.
//
// The message is sent in text mode (not PDU mode). The recipient should be
// in international format (e.g., "+1234567890").
//
// This method blocks until the message is accepted by the network or an
// error occurs; network delivery to the final recipient happens
// asynchronously. The confirmation can take tens of seconds, bounded by
// Config.SendTimeout.
func (m *Modem) SendSMS(recipient, message string) error {
	if err := m.Write(fmt.Sprintf(`AT+CMGS="%s"`, recipient)); err != nil {
		return err
	}

	// The modem answers with a bare "> " prompt, not a terminator.
	if _, err := m.Expect(">", m.config.ATTimeout); err != nil {
		return fmt.Errorf("SMS prompt: %w", err)
	}

	if err := m.Write(message + at.CtrlZ); err != nil {
		return err
	}

	resp, err := m.read(m.config.SendTimeout)
	if err != nil {
		return fmt.Errorf("SMS send: %w", err)
	}
	if !strings.Contains(resp, at.OK) {
		return &ProtocolError{Cmd: "AT+CMGS", Response: resp}
	}
	return nil
}

// ReadSMS fetches the message at the given storage index, as announced by
// an SMSIndication.
func (m *Modem) ReadSMS(index int) (SMS, error) {
	cmd := fmt.Sprintf("AT+CMGR=%d", index)
	resp, err := m.Command(cmd)
	if err != nil {
		return SMS{}, err
	}

	lines := strings.Split(resp, "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "+CMGR:") {
		return SMS{}, &ProtocolError{Cmd: cmd, Response: resp}
	}

	// Header format: +CMGR: "REC UNREAD","+1234567890","","24/05/02,10:20:01+08"
	fields := splitQuoted(strings.TrimPrefix(lines[0], "+CMGR: "))
	msg := SMS{Index: index}
	if len(fields) > 0 {
		msg.Status = fields[0]
	}
	if len(fields) > 1 {
		msg.Sender = fields[1]
	}
	if len(fields) > 3 {
		msg.Time = fields[3]
	}

	// Body is everything between the header and the trailing OK.
	body := lines[1:]
	if body[len(body)-1] == at.OK {
		body = body[:len(body)-1]
	}
	msg.Text = strings.Join(body, "\n")
	return msg, nil
}

// DeleteSMS removes the message at the given storage index.
func (m *Modem) DeleteSMS(index int) error {
	return m.CommandExpectOK(fmt.Sprintf("AT+CMGD=%d", index))
}

// splitQuoted splits a comma-separated field list, keeping commas inside
// double quotes (the CMGR timestamp contains one) and stripping the quotes.
func splitQuoted(s string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, b.String())
	return fields
}
