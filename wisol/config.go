package wisol

import (
	"io"
	"log/slog"
	"time"
)

// DefaultCommandTimeout bounds the wait for a command response once the
// command has been fully transmitted.
const DefaultCommandTimeout = time.Second

// Config holds the driver configuration settings.
type Config struct {
	// Transport is the byte channel to the module. Required.
	Transport Transport
	// Country selects the Sigfox frequency zone during Begin.
	Country Country
	// Emulator short-circuits all exchanges, reporting success without
	// touching the transport. Used against the Sigfox emulator.
	Emulator bool
	// Device is the expected device ID, reported in emulator mode and
	// replaced by the real ID read during Begin.
	Device string
	// Logger receives structured diagnostics. Defaults to discard.
	Logger *slog.Logger
	// EchoWriter receives raw exchanged frames as hex dump lines.
	// Defaults to discard; failures writing to it are never fatal.
	EchoWriter io.Writer
	// CommandTimeout overrides DefaultCommandTimeout.
	CommandTimeout time.Duration
	// Clock overrides the wall clock, mainly for tests.
	Clock Clock

	// Timing overrides; zero values select the module defaults.
	SettleDelay    time.Duration
	InterByteDelay time.Duration
	BootDelay      time.Duration
}

func (c *Config) validate() error {
	if c.Transport == nil {
		return ErrNoTransport
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.EchoWriter == nil {
		c.EchoWriter = io.Discard
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = settleDelay
	}
	if c.InterByteDelay == 0 {
		c.InterByteDelay = interByteDelay
	}
	if c.BootDelay == 0 {
		c.BootDelay = bootDelay
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithTransport(t Transport) *ConfigBuilder {
	b.config.Transport = t
	return b
}

func (b *ConfigBuilder) WithCountry(c Country) *ConfigBuilder {
	b.config.Country = c
	return b
}

func (b *ConfigBuilder) WithEmulator(on bool) *ConfigBuilder {
	b.config.Emulator = on
	return b
}

func (b *ConfigBuilder) WithDevice(device string) *ConfigBuilder {
	b.config.Device = device
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.Logger = logger
	return b
}

func (b *ConfigBuilder) WithEchoWriter(w io.Writer) *ConfigBuilder {
	b.config.EchoWriter = w
	return b
}

func (b *ConfigBuilder) WithCommandTimeout(d time.Duration) *ConfigBuilder {
	b.config.CommandTimeout = d
	return b
}

func (b *ConfigBuilder) WithClock(c Clock) *ConfigBuilder {
	b.config.Clock = c
	return b
}

// WithTimings overrides the settle, inter-byte and boot delays. Zero
// values keep the defaults.
func (b *ConfigBuilder) WithTimings(settle, interByte, boot time.Duration) *ConfigBuilder {
	b.config.SettleDelay = settle
	b.config.InterByteDelay = interByte
	b.config.BootDelay = boot
	return b
}

// Build validates the assembled configuration.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	return b.config, nil
}
