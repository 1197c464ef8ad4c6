package wisol

// Transport is the byte-level channel to a Wisol module.
//
// A Transport is a capability set rather than a stream: the exchange
// engine writes one byte at a time (the module's serial interface has no
// output buffering) and polls for inbound bytes without blocking.
// Typical implementations are a hardware serial port or an in-memory
// fake used for testing.
type Transport interface {
	// Begin establishes byte-stream access at the given bit rate.
	Begin(bitRate int) error

	// End releases the channel.
	End() error

	// Flush discards any buffered input data.
	Flush() error

	// Listen marks this channel as the active listener. Implementations
	// with a single channel may treat it as a no-op.
	Listen() error

	// Available reports how many inbound bytes can be read without
	// blocking.
	Available() int

	// ReadByte returns the next inbound byte. The second return value is
	// false when no byte is available.
	ReadByte() (byte, bool)

	// WriteByte transmits a single byte.
	WriteByte(b byte) error
}
