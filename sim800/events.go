package sim800

// NetworkStatus mirrors the <stat> field of the +CGREG unsolicited result
// code. The numeric values are fixed by the SIM800 AT command manual.
type NetworkStatus int

const (
	NetworkUnregistered NetworkStatus = iota // not registered, not searching
	NetworkRegistered                        // registered, home network
	NetworkSearching                         // not registered, searching for an operator
	NetworkDenied                            // registration denied
	NetworkUnknown                           // status not known
	NetworkRoaming                           // registered, roaming
)

func (s NetworkStatus) String() string {
	switch s {
	case NetworkUnregistered:
		return "unregistered"
	case NetworkRegistered:
		return "registered"
	case NetworkSearching:
		return "searching"
	case NetworkDenied:
		return "denied"
	case NetworkRoaming:
		return "roaming"
	default:
		return "unknown"
	}
}

// Registered reports whether the status counts as network-ready, i.e.
// registered on the home network or roaming.
func (s NetworkStatus) Registered() bool {
	return s == NetworkRegistered || s == NetworkRoaming
}

// SMSIndication announces a message the modem has stored, decoded from a
// +CMTI notification. Fetch the message itself with ReadSMS.
type SMSIndication struct {
	// Folder is the storage area, typically "SM" (SIM card).
	Folder string
	// Index identifies the message within the folder.
	Index int
}

// EventHandler receives unsolicited modem events. Register one in Config
// before opening the connection; at most one handler is active at a time.
//
// Methods are invoked from the dispatcher goroutine, one at a time, in the
// exact order the notifications arrived. The readiness state is already
// updated when a method runs, so a handler reacting to OnSMSReceived can
// rely on SerialReady and NetworkStatus being current. Handlers must not
// block for long: the next notification is not dispatched until the current
// callback returns.
type EventHandler interface {
	// OnSMSReceived is called when a new SMS message has been stored.
	OnSMSReceived(msg SMSIndication)

	// OnSerialReady is called when the module announces boot readiness (RDY).
	OnSerialReady()

	// OnNetworkStatusChange is called when GPRS network registration changes.
	OnNetworkStatusChange(status NetworkStatus)

	// OnError is called when an unsolicited line matched the pattern table
	// but no decoder, or when dispatching otherwise fails. It is the only
	// error path out of the dispatcher; nothing is ever thrown across
	// goroutines.
	OnError(message string)
}
