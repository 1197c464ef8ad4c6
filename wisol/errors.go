package wisol

import "errors"

var (
	// ErrNoTransport is returned when a Driver is constructed without a
	// Transport.
	//
	// This indicates a configuration error. A Transport is required in
	// order to reach the module.
	ErrNoTransport = errors.New("no transport configured")

	// ErrTimeout is returned when an exchange completed transmission but
	// fewer end-of-response delimiters than expected arrived within the
	// time budget. The accumulated partial response is still available
	// through the Outcome.
	ErrTimeout = errors.New("response timeout")

	// ErrRateLimited is returned when the duty-cycle gate refused a send
	// attempt because too little time has passed since the previous one.
	ErrRateLimited = errors.New("duty cycle: rate limited")

	// ErrBusy is returned when an exchange is attempted while another one
	// is still in flight. The protocol is strictly half duplex; callers
	// must serialize exchanges.
	ErrBusy = errors.New("exchange already in flight")

	// ErrNotSupported is returned by capabilities the Wisol module does
	// not implement (firmware access, parameter read/write, downlink
	// receive, and so on). It lets callers distinguish "not implemented"
	// from "succeeded".
	ErrNotSupported = errors.New("not supported by this module")

	// ErrClosed is returned when an operation is attempted on a serial
	// transport whose port is not open.
	ErrClosed = errors.New("serial port not open")

	// ErrInvalidPayload is returned when a message payload exceeds the
	// Sigfox limit or is not a sequence of hex digit pairs.
	ErrInvalidPayload = errors.New("invalid message payload")
)
