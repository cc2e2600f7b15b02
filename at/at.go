package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes) the engine decodes into typed events
	UrcNewMsg        = "+CMTI:"
	UrcModuleReady   = "RDY"
	UrcNetworkStatus = "+CGREG:"

	// Commands issued during initialization and mode changes
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdVerboseErrors = "AT+CMEE=2"
	CmdSimStatus     = "AT+CPIN?"
	CmdSetTextMode   = "AT+CMGF=1"
	CmdFuncQuery     = "AT+CFUN?"
	CmdReset         = "AT+CFUN=1,1"
	CmdAttach        = "AT+CGATT=1"
	CmdDetach        = "AT+CGATT=0"
	CmdAttachQuery   = "AT+CGATT?"

	// SIM status replies to AT+CPIN?
	SimReady = "+CPIN: READY"
	SimPin   = "+CPIN: SIM PIN"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)
