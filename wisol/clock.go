package wisol

import "time"

// Clock supplies the time source and delays used by the exchange engine.
// The default implementation uses the wall clock; tests substitute a fake
// so settle delays, inter-byte delays and timeouts run instantly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
