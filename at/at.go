// Package at defines the AT command dialect spoken by Wisol WSSFM10R
// Sigfox modules.
package at

const (
	// Delimiter marks the end of one response segment.
	Delimiter byte = '\r'

	// BitRate is the fixed serial speed of the module.
	BitRate = 9600

	// CmdEnd terminates every command.
	CmdEnd = "\r"
)

// Module commands. Payloads are appended as lowercase hex pairs.
const (
	CmdSendMessage    = "AT$SF=" // send a message to the Sigfox cloud
	CmdGetID          = "AT$I=10"
	CmdGetPAC         = "AT$I=11" // PAC is needed to register the device
	CmdGetTemperature = "AT$T?"   // returns tenths of a degree Celsius
	CmdGetVoltage     = "AT$V?"   // returns millivolts
	CmdSleep          = "AT$P=1"
	CmdWakeup         = "AT$P=0"
)
