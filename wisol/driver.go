// Package wisol drives Wisol WSSFM10R Sigfox modules over an
// asynchronous serial link using their AT command dialect.
package wisol

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/unabiz/wisol-go/at"
)

const (
	// bootDelay is the wait before each init attempt, giving the module
	// time to power up.
	bootDelay = 2 * time.Second

	// beginAttempts is how many times Begin retries the init sequence.
	beginAttempts = 5

	// MaxMessageBytes is the Sigfox payload limit per message.
	MaxMessageBytes = 12
)

// Country selects the Sigfox radio configuration zone during Begin.
type Country int

const (
	CountrySG Country = iota // RCZ4
	CountryTW                // RCZ4
	CountryAU                // RCZ4
	CountryNZ                // RCZ4
	CountryUS                // RCZ2
	CountryFR                // RCZ1
)

func (c Country) String() string {
	switch c {
	case CountrySG:
		return "SG"
	case CountryTW:
		return "TW"
	case CountryAU:
		return "AU"
	case CountryNZ:
		return "NZ"
	case CountryUS:
		return "US"
	case CountryFR:
		return "FR"
	}
	return fmt.Sprintf("Country(%d)", int(c))
}

// ParseCountry converts a country code like "us" or "SG".
func ParseCountry(s string) (Country, error) {
	switch s {
	case "sg", "SG":
		return CountrySG, nil
	case "tw", "TW":
		return CountryTW, nil
	case "au", "AU":
		return CountryAU, nil
	case "nz", "NZ":
		return CountryNZ, nil
	case "us", "US":
		return CountryUS, nil
	case "fr", "FR":
		return CountryFR, nil
	}
	return 0, fmt.Errorf("unknown country %q", s)
}

// Driver is an AT command driver for one Wisol module. Exchanges are
// strictly half duplex: the driver serializes them and rejects
// re-entrant calls with ErrBusy.
type Driver struct {
	transport Transport
	clock     Clock
	logger    *slog.Logger

	// echo receives raw frame dumps; lastEcho remembers the previous
	// writer so EchoOn can restore it.
	echo     io.Writer
	lastEcho io.Writer

	country  Country
	emulator bool
	device   string

	timeout        time.Duration
	settleDelay    time.Duration
	interByteDelay time.Duration
	bootDelay      time.Duration

	duty dutyCycle
	busy sync.Mutex
}

// New creates a Driver from the given configuration. No I/O happens
// until Begin or the first command.
func New(config Config) (*Driver, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	lastEcho := config.EchoWriter
	if lastEcho == io.Discard {
		lastEcho = os.Stdout
	}

	return &Driver{
		transport:      config.Transport,
		clock:          config.Clock,
		logger:         config.Logger,
		echo:           config.EchoWriter,
		lastEcho:       lastEcho,
		country:        config.Country,
		emulator:       config.Emulator,
		device:         config.Device,
		timeout:        config.CommandTimeout,
		settleDelay:    config.SettleDelay,
		interByteDelay: config.InterByteDelay,
		bootDelay:      config.BootDelay,
		duty:           dutyCycle{min: minSendInterval, full: regulatoryInterval},
	}, nil
}

// Begin waits for the module to power up, reads its identity and
// configures the transmission frequency for the configured country.
// The sequence is retried up to five times before giving up.
func (d *Driver) Begin(ctx context.Context) error {
	d.duty = dutyCycle{min: minSendInterval, full: regulatoryInterval}

	var lastErr error
	for attempt := 1; attempt <= beginAttempts; attempt++ {
		d.clock.Sleep(d.bootDelay)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.initModule(ctx); err != nil {
			lastErr = err
			d.logger.Warn("init attempt failed", "attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("module not ready after %d attempts: %w", beginAttempts, lastErr)
}

func (d *Driver) initModule(ctx context.Context) error {
	if d.emulator {
		if err := d.EnableEmulator(ctx); err != nil {
			return fmt.Errorf("enable emulator: %w", err)
		}
	} else {
		if err := d.DisableEmulator(ctx); err != nil {
			return fmt.Errorf("disable emulator: %w", err)
		}
		mode, err := d.Emulator(ctx)
		if err != nil {
			return fmt.Errorf("check emulator mode: %w", err)
		}
		if mode != 0 {
			return fmt.Errorf("unexpected emulator mode %d", mode)
		}
	}

	id, pac, err := d.ID(ctx)
	if err != nil {
		return fmt.Errorf("read device identity: %w", err)
	}
	d.logger.Info("module identity", "id", id, "pac", pac)

	d.logger.Debug("setting frequency", "country", d.country)
	var zone string
	switch d.country {
	case CountryUS: // US runs on RCZ2
		zone, err = d.SetFrequencyUS(ctx)
	case CountryFR: // France runs on RCZ1
		zone, err = d.SetFrequencyETSI(ctx)
	default: // rest of the world runs on RCZ4
		zone, err = d.SetFrequencySG(ctx)
	}
	if err != nil {
		return fmt.Errorf("set frequency: %w", err)
	}
	d.logger.Debug("frequency set", "zone", zone)

	freq, err := d.Frequency(ctx)
	if err != nil {
		return fmt.Errorf("read frequency: %w", err)
	}
	d.logger.Debug("frequency readback", "zone", freq)
	return nil
}

// sendCommand runs one command through the exchange engine, expecting
// the given number of end-of-response delimiters.
func (d *Driver) sendCommand(ctx context.Context, cmd string, expected int) (string, error) {
	out, err := d.Exchange(ctx, []byte(cmd+at.CmdEnd), d.timeout, expected)
	if err != nil {
		return out.Response, fmt.Errorf("command %s: %w", cmd, err)
	}
	return out.Response, nil
}

// SendMessage transmits a payload of up to 12 bytes, given as lowercase
// hex digit pairs, to the Sigfox cloud. The duty-cycle gate is checked
// first and stamped at send initiation.
func (d *Driver) SendMessage(ctx context.Context, payload string) error {
	d.logger.Debug("send message", "device", d.device, "payload", payload)
	if !isHexPayload(payload) || len(payload) > MaxMessageBytes*2 {
		return fmt.Errorf("payload %q: %w", payload, ErrInvalidPayload)
	}

	now := d.clock.Now()
	ok, warn := d.duty.mayTransmit(now)
	if !ok {
		d.logger.Warn("must wait before sending the next message", "interval", minSendInterval)
		return fmt.Errorf("wait %s between messages: %w", minSendInterval, ErrRateLimited)
	}
	if warn {
		d.logger.Warn("should wait before sending the next message", "interval", regulatoryInterval)
	}
	d.duty.recordStart(now)

	out, err := d.Exchange(ctx, []byte(at.CmdSendMessage+payload+at.CmdEnd), d.timeout, 1)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	d.logger.Debug("message sent", "response", out.Response)
	return nil
}

// SendString hex-encodes a text of up to 12 characters and sends it as
// a message.
func (d *Driver) SendString(ctx context.Context, s string) error {
	d.logger.Debug("send string", "text", s)
	if len(s) > MaxMessageBytes {
		return fmt.Errorf("text %q exceeds %d bytes: %w", s, MaxMessageBytes, ErrInvalidPayload)
	}
	return d.SendMessage(ctx, EncodePayload(s))
}

// ID reads the Sigfox device ID and PAC from the module. The PAC is
// required when registering the device.
func (d *Driver) ID(ctx context.Context) (id, pac string, err error) {
	if d.emulator {
		return d.device, "", nil
	}
	id, err = d.sendCommand(ctx, at.CmdGetID, 1)
	if err != nil {
		return "", "", err
	}
	d.device = id
	pac, err = d.sendCommand(ctx, at.CmdGetPAC, 1)
	if err != nil {
		return "", "", err
	}
	return id, pac, nil
}

// Temperature reads the module temperature in degrees Celsius.
func (d *Driver) Temperature(ctx context.Context) (float64, error) {
	if d.emulator {
		return 36, nil
	}
	data, err := d.sendCommand(ctx, at.CmdGetTemperature, 1)
	if err != nil {
		return 0, err
	}
	tenths, err := strconv.Atoi(data)
	if err != nil {
		return 0, fmt.Errorf("parse temperature %q: %w", data, err)
	}
	return float64(tenths) / 10, nil
}

// Voltage reads the module supply voltage in volts.
func (d *Driver) Voltage(ctx context.Context) (float64, error) {
	if d.emulator {
		return 12.3, nil
	}
	data, err := d.sendCommand(ctx, at.CmdGetVoltage, 1)
	if err != nil {
		return 0, err
	}
	millivolts, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, fmt.Errorf("parse voltage %q: %w", data, err)
	}
	return millivolts / 1000, nil
}

// Frequency reports the zone the module transmits in. The Wisol module
// is factory-set per zone and does not expose a query, so this reports
// the fixed RCZ4 zone.
func (d *Driver) Frequency(ctx context.Context) (string, error) {
	return "3", nil
}

// setFrequency would select a radio configuration zone. The Wisol
// module is factory-set, so this accepts and reports the zone without
// touching the device.
func (d *Driver) setFrequency(ctx context.Context, zone int) (string, error) {
	return strconv.Itoa(zone), nil
}

// SetFrequencySG selects RCZ4 (Singapore, Taiwan, Australia, NZ).
func (d *Driver) SetFrequencySG(ctx context.Context) (string, error) {
	d.logger.Debug("set frequency RCZ4")
	return d.setFrequency(ctx, 4)
}

// SetFrequencyTW selects RCZ4 for Taiwan.
func (d *Driver) SetFrequencyTW(ctx context.Context) (string, error) {
	d.logger.Debug("set frequency RCZ4")
	return d.setFrequency(ctx, 4)
}

// SetFrequencyETSI selects RCZ1 for Europe.
func (d *Driver) SetFrequencyETSI(ctx context.Context) (string, error) {
	d.logger.Debug("set frequency RCZ1")
	return d.setFrequency(ctx, 1)
}

// SetFrequencyUS selects RCZ2 for the United States.
func (d *Driver) SetFrequencyUS(ctx context.Context) (string, error) {
	d.logger.Debug("set frequency RCZ2")
	return d.setFrequency(ctx, 2)
}

// Emulator reports the module's emulation mode: 0 when sending to the
// Sigfox network with the unique ID and key, 1 when sending to an
// emulator with the public key. Emulation is handled locally, so this
// always reports 0.
func (d *Driver) Emulator(ctx context.Context) (int, error) {
	return 0, nil
}

// DisableEmulator selects the unique device key, needed for sending to
// a real Sigfox base station. The module ships in this state.
func (d *Driver) DisableEmulator(ctx context.Context) error {
	return nil
}

// EnableEmulator selects the public key for sending to an emulator.
// Emulation is handled locally by the driver.
func (d *Driver) EnableEmulator(ctx context.Context) error {
	return nil
}

// Unimplemented module capabilities. Each returns ErrNotSupported so
// callers can tell them apart from a successful operation.

// Hardware would report the hardware version.
func (d *Driver) Hardware() (string, error) { return "", ErrNotSupported }

// Firmware would report the firmware version.
func (d *Driver) Firmware() (string, error) { return "", ErrNotSupported }

// Parameter would read the module parameter at the given address.
func (d *Driver) Parameter(address uint8) (string, error) { return "", ErrNotSupported }

// Power would report the RF power step-down.
func (d *Driver) Power() (int, error) { return 0, ErrNotSupported }

// SetPower would set the RF power step-down (0..14).
func (d *Driver) SetPower(power int) error { return ErrNotSupported }

// Sleep would switch the module to sleep mode (< 1.5uA).
func (d *Driver) Sleep() error { return ErrNotSupported }

// Wake would switch the module back to normal mode.
func (d *Driver) Wake() error { return ErrNotSupported }

// Reboot would restart the module.
func (d *Driver) Reboot() error { return ErrNotSupported }

// Receive would read a downlink payload.
func (d *Driver) Receive() (string, error) { return "", ErrNotSupported }

// WriteSettings would persist settings to the module's flash memory.
func (d *Driver) WriteSettings() error { return ErrNotSupported }

// EchoOn resumes echoing raw frames to the previously configured echo
// writer.
func (d *Driver) EchoOn() {
	d.echo = d.lastEcho
	d.logger.Debug("echo on")
}

// EchoOff stops echoing raw frames, remembering the current writer so
// EchoOn can restore it.
func (d *Driver) EchoOff() {
	d.lastEcho = d.echo
	d.echo = io.Discard
}

// SetEchoWriter redirects raw frame echoes to w.
func (d *Driver) SetEchoWriter(w io.Writer) {
	d.lastEcho = d.echo
	d.echo = w
}

// echoLine writes one diagnostic line to the echo sink. Best effort:
// write failures never affect the protocol engine.
func (d *Driver) echoLine(line string) {
	if d.echo == nil {
		return
	}
	io.WriteString(d.echo, line+"\n")
}
