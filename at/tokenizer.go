package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing AT command modem responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with
// bufio.Scanner.
//
// It splits the input by CRLF line endings and also recognizes the SMS
// input prompt ("> "), which arrives without a line terminator.
//
// Important: This splitter assumes "No Echo" mode (ATE0). If echo is
// enabled, it would need modification to handle command echoes that
// precede the actual response.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match SMS Prompt
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a modem output line. Unsolicited codes
// are checked before final results so that asynchronous notifications are
// never mistaken for a command terminator; the pattern table is curated to
// exclude codes that double as direct command replies.
func (s *PatternSet) Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	if s.Unsolicited(line) {
		return TypeURC
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer:
		return TypeFinal
	}

	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	default:
		return TypeData
	}
}

// Final reports whether line terminates a command transaction: exactly "OK",
// or any line carrying an ERROR result.
func Final(line string) bool {
	return line == OK || strings.Contains(line, ERROR)
}
