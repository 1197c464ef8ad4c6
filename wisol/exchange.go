package wisol

import (
	"context"
	"fmt"
	"time"

	"github.com/unabiz/wisol-go/at"
)

const (
	// settleDelay is the pause after opening the serial channel, giving
	// the module time to settle before bytes flow.
	settleDelay = 200 * time.Millisecond

	// interByteDelay is the pause after each transmitted byte. The
	// module's serial interface has no receive FIFO and overflows
	// without it.
	interByteDelay = 10 * time.Millisecond

	// pollInterval is how long the loop yields when it has nothing to
	// send and nothing to read.
	pollInterval = time.Millisecond

	// markerCapacity bounds how many delimiter positions are recorded
	// per exchange. Delimiters beyond it are still counted.
	markerCapacity = 5
)

// markerLog records the response offsets at which delimiter bytes were
// seen and stripped. Offsets are strictly increasing. Once full, further
// delimiters are counted by the caller but their positions are dropped.
type markerLog struct {
	pos [markerCapacity]int
	n   int
}

func (l *markerLog) record(offset int) {
	if l.n < len(l.pos) {
		l.pos[l.n] = offset
		l.n++
	}
}

func (l *markerLog) positions() []int {
	return l.pos[:l.n]
}

// Outcome is the result of one exchange.
type Outcome struct {
	// OK is true when the expected number of delimiters arrived in time.
	OK bool
	// Response is the accumulated response text with all delimiter
	// bytes stripped out. On failure it holds whatever partial data
	// arrived.
	Response string
	// Markers are the response offsets where delimiters occurred, up to
	// the log capacity.
	Markers []int
	// Observed counts every delimiter seen, including those beyond the
	// marker log capacity.
	Observed int
	// Expected is the delimiter target the exchange was waiting for.
	Expected int
}

// Exchange transmits cmd byte by byte and accumulates the response until
// expected delimiter bytes have been observed or timeout expires.
//
// The timeout budget covers the wait after transmission: the timer
// re-arms after every written byte, so a slow send phase does not eat
// into it. Exactly one exchange may run at a time; a re-entrant call
// returns ErrBusy. The session is always closed and both frames are
// always rendered to the echo sink before returning, whatever the
// outcome.
//
// On failure the returned Outcome still carries the partial response
// and the error matches ErrTimeout (or the context error).
func (d *Driver) Exchange(ctx context.Context, cmd []byte, timeout time.Duration, expected int) (Outcome, error) {
	out := Outcome{Expected: expected}
	d.logger.Debug("exchange", "command", string(cmd), "expected", expected)
	if d.emulator {
		out.OK = true
		return out, nil
	}
	if !d.busy.TryLock() {
		return out, ErrBusy
	}
	defer d.busy.Unlock()

	d.openSession()

	var (
		response []byte
		markers  markerLog
		observed int
		sent     int
		ctxErr   error
	)
	armed := d.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		// If there is data to send, send it.
		if sent < len(cmd) {
			if err := d.transport.WriteByte(cmd[sent]); err != nil {
				d.logger.Debug("write byte", "error", err)
			}
			d.clock.Sleep(d.interByteDelay)
			sent++
			// Start the timer only when all data has been sent.
			armed = d.clock.Now()
		}

		if d.clock.Now().Sub(armed) > timeout {
			break
		}

		// If data is available to receive, receive it.
		if d.transport.Available() > 0 {
			b, ok := d.transport.ReadByte()
			if !ok {
				continue
			}
			if b == at.Delimiter {
				markers.record(len(response))
				observed++
				if observed >= expected {
					break // seen all markers already
				}
			} else {
				response = append(response, b)
			}
		} else if sent == len(cmd) {
			d.clock.Sleep(pollInterval)
		}
	}

	d.closeSession()

	// Log the actual bytes sent and received.
	d.echoLine(renderFrame(">> ", cmd, nil))
	d.echoLine(renderFrame("<< ", response, markers.positions()))

	out.Response = string(response)
	out.Markers = markers.positions()
	out.Observed = observed

	if ctxErr != nil {
		return out, ctxErr
	}
	if observed < expected {
		if len(response) == 0 {
			d.logger.Debug("exchange failed: no response")
			return out, fmt.Errorf("no response: %w", ErrTimeout)
		}
		d.logger.Debug("exchange failed: unknown response", "response", out.Response)
		return out, fmt.Errorf("unknown response %q: %w", out.Response, ErrTimeout)
	}

	d.logger.Debug("exchange done", "response", out.Response, "observed", observed)
	out.OK = true
	return out, nil
}

// openSession establishes byte-stream access for one exchange: fixed
// bit rate, settle delay, stale input discarded, channel marked as the
// listener. Failures are logged, not returned; a dead channel surfaces
// as an exchange timeout with an empty response.
func (d *Driver) openSession() {
	if err := d.transport.Begin(at.BitRate); err != nil {
		d.logger.Warn("open transport", "error", err)
	}
	d.clock.Sleep(d.settleDelay)
	if err := d.transport.Flush(); err != nil {
		d.logger.Debug("flush transport", "error", err)
	}
	if err := d.transport.Listen(); err != nil {
		d.logger.Debug("listen", "error", err)
	}
}

func (d *Driver) closeSession() {
	if err := d.transport.End(); err != nil {
		d.logger.Debug("close transport", "error", err)
	}
}
