package sim800

import (
	"bufio"
	"strings"

	"gridsense.io/telemetry/cellgw/at"
)

// readLoop frames the raw byte stream into lines and routes each one to
// the solicited or unsolicited queue. It is the only goroutine that reads
// from the transport, and it never blocks on a consumer: both queues are
// unbounded, so every line the modem emits while the consumers are busy is
// still captured in order.
//
// The loop exits when the transport reports EOF or an error, typically
// because Close tore it down. On exit the solicited queue is closed so a
// blocked command reader fails fast instead of running out its timeout.
func (m *Modem) readLoop() {
	defer close(m.readerDone)
	defer m.solicited.close()

	scanner := bufio.NewScanner(m.transport)
	scanner.Split(at.Splitter)

	for scanner.Scan() {
		line := scanner.Text()
		// The prompt token carries a significant trailing space.
		if line != at.Prompt {
			line = strings.TrimSpace(line)
		}
		if line == "" {
			continue
		}

		if m.config.Patterns.Classify(line) == at.TypeURC {
			m.unsolicited.push(urcMessage{line: line})
		} else {
			m.solicited.push(line)
		}
	}

	if err := scanner.Err(); err != nil {
		m.setScanErr(err)
	}
}
