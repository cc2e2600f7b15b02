package at

import "strings"

// defaultPatterns lists the unsolicited result codes of the SIM800 series,
// per section 9.1 of the AT command manual. Matching is anchored at the
// start of the line and case-sensitive; the modem vocabulary is fixed ASCII.
//
// Some codes from that section are deliberately absent because they are only
// ever produced as the direct reply to a command we issue, and routing them
// to the unsolicited queue would starve the command reader:
//
//   - "+CME ERROR:" / "+CMS ERROR:" are final results once AT+CMEE=2 is set
//   - "+CPIN:" answers AT+CPIN? during initialization
//   - "+CFUN:" answers AT+CFUN? (phonebook-init reporting not enabled)
//   - "+CMTE:" answers AT+CMTE? (temperature detection not enabled)
//   - "+SAPBR" / "+HTTPACTION:" answer their bearer/HTTP commands
//
// Firmware variants that do emit the excluded codes asynchronously can add
// them back with WithPatterns.
var defaultPatterns = []string{
	"+CCWA:",            // call is waiting
	"+CLIP:",            // calling line identity
	"+CRING:",           // incoming call
	"+CREG:",            // change in network registration
	"+CCWV:",            // accumulated call meter about to reach max
	"+CMTI:",            // new SMS message has arrived
	"+CMT:",             // new SMS message delivered directly
	"+CBM:",             // new cell broadcast message
	"+CDS:",             // new SMS status report received
	"+COLP:",            // connected line presentation
	"+CSSU:",            // supplementary service notification
	"+CSSI:",            // supplementary service notification
	"+CLCC:",            // automatic list of current calls
	"*PSNWID:",          // refresh network name by network
	"*PSUTTZ:",          // refresh time and timezone by network
	"+CTZV:",            // refresh network timezone by network
	"DST:",              // refresh daylight savings time by network
	"+CSMINS:",          // sim card inserted or removed
	"+CDRIND:",          // voice call or data terminated
	"+CHF:",             // current channel
	"+CENG:",            // report network information
	"MO RING",           // mobile originated call alerting
	"MO CONNECTED",      // mobile originated call established
	"+CSQN:",            // signal quality report
	"+SIMTONE:",         // tone started or stopped playing
	"+STTONE:",          // tone started or stopped playing
	"+CR:",              // intermediate result code
	"+CUSD:",            // ussd response
	"RING",              // incoming call
	"NORMAL POWER DOWN", // module is powering down
	"UNDER-VOLTAGE",     // supply voltage alarm
	"OVER-VOLTAGE",      // supply voltage alarm
	"CHARGE-ONLY MODE",  // charging via external charger
	"RDY",               // module is ready
	"CONNECT",           // tcp/udp connection info
	"SEND OK",           // data sending successful
	"CLOSED",            // tcp/udp connection is closed
	"RECV FROM",         // remote IP address and port
	"+IPD",              // protocol data
	"+RECEIVE",          // incoming socket data
	"REMOTE IP:",        // remote endpoint of incoming connection
	"+CDNSGIP",          // dns lookup result
	"+PDP DEACT",        // gprs disconnected by network
	"+FTPGET:",
	"+FTPPUT:",
	"+FTPDELE:",
	"+FTPSIZE:",
	"+FTPMKD:",
	"+FTPRMD:",
	"+FTPLIST:",
	"Call Ready",
	"SMS Ready",
	"+CGREG:", // change in GPRS network registration
}

// PatternSet decides whether a response line is an unsolicited result code.
// The zero value is not usable; construct one with NewPatternSet. A
// PatternSet is immutable after construction and safe for concurrent use.
type PatternSet struct {
	patterns []string
}

// PatternOption customizes the set of recognized unsolicited codes. The
// exact vocabulary varies between firmware revisions, so the table is
// versioned rather than fixed.
type PatternOption func(*PatternSet)

// WithPatterns appends additional prefix patterns to the default table.
func WithPatterns(patterns ...string) PatternOption {
	return func(s *PatternSet) {
		s.patterns = append(s.patterns, patterns...)
	}
}

// WithoutPatterns removes patterns from the table, for firmware that
// returns them as direct command replies.
func WithoutPatterns(patterns ...string) PatternOption {
	return func(s *PatternSet) {
		kept := s.patterns[:0]
		for _, p := range s.patterns {
			drop := false
			for _, rm := range patterns {
				if p == rm {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, p)
			}
		}
		s.patterns = kept
	}
}

// NewPatternSet builds a PatternSet from the default SIM800 table and the
// given options.
func NewPatternSet(opts ...PatternOption) *PatternSet {
	s := &PatternSet{patterns: append([]string(nil), defaultPatterns...)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unsolicited reports whether line is an asynchronous notification rather
// than part of a command response. The check is deterministic, stateless
// and linear in the number of patterns.
func (s *PatternSet) Unsolicited(line string) bool {
	for _, p := range s.patterns {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the active pattern table.
func (s *PatternSet) Patterns() []string {
	return append([]string(nil), s.patterns...)
}
