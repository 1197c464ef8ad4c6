package wisol

import "time"

// The Sigfox network operates on public frequencies and may be used for
// at most 1% of the time. A message is sent three times for redundancy
// and takes about 6 seconds of airtime, so messages should be at least
// 10 minutes apart. Exceeding the limit can get the modem blocked by the
// network operator.
const (
	// minSendInterval is the development-friendly lower bound. Sends
	// closer together than this are refused outright.
	minSendInterval = 2 * time.Second

	// regulatoryInterval is the spacing required for compliant operation.
	// Sends between the two intervals are allowed with a warning.
	regulatoryInterval = 10 * time.Minute
)

// dutyCycle gates transmissions so the device does not send more often
// than the regulatory interval allows. Each Driver owns one gate; all
// exchanges on a device share its clock.
type dutyCycle struct {
	min  time.Duration
	full time.Duration

	// lastStart is the moment the previous accepted send began
	// transmitting. Zero means nothing has been sent yet.
	lastStart time.Time
}

// mayTransmit reports whether a send may start at the given time. warn
// is set when the send is allowed but falls short of the regulatory
// interval.
func (g *dutyCycle) mayTransmit(now time.Time) (ok, warn bool) {
	if g.lastStart.IsZero() {
		return true, false
	}
	elapsed := now.Sub(g.lastStart)
	if elapsed < g.min {
		return false, false
	}
	if elapsed < g.full {
		return true, true
	}
	return true, false
}

// recordStart stamps the gate at send initiation. Duty-cycle accounting
// tracks airtime start, not completion, which is the regulator-relevant
// event.
func (g *dutyCycle) recordStart(now time.Time) {
	g.lastStart = now
}
