package wisol

import (
	"testing"
	"time"
)

func TestDutyCycle(t *testing.T) {
	base := time.Unix(0, 0)
	gate := dutyCycle{min: 2 * time.Second, full: 10 * time.Minute}

	t.Run("first send always allowed", func(t *testing.T) {
		ok, warn := gate.mayTransmit(base)
		if !ok {
			t.Error("first send should be allowed")
		}
		if warn {
			t.Error("first send should not warn")
		}
	})

	gate.recordStart(base)

	t.Run("elapsed zero refused", func(t *testing.T) {
		if ok, _ := gate.mayTransmit(base); ok {
			t.Error("send with elapsed=0 should be refused")
		}
	})

	t.Run("below minimum refused", func(t *testing.T) {
		if ok, _ := gate.mayTransmit(base.Add(time.Second)); ok {
			t.Error("send 1s after previous should be refused")
		}
	})

	t.Run("between minimum and regulatory warns", func(t *testing.T) {
		ok, warn := gate.mayTransmit(base.Add(5 * time.Second))
		if !ok {
			t.Error("send after minimum interval should be allowed")
		}
		if !warn {
			t.Error("send before regulatory interval should warn")
		}
	})

	t.Run("at regulatory interval allowed without warning", func(t *testing.T) {
		ok, warn := gate.mayTransmit(base.Add(10 * time.Minute))
		if !ok {
			t.Error("send at regulatory interval should be allowed")
		}
		if warn {
			t.Error("send at regulatory interval should not warn")
		}
	})

	t.Run("beyond regulatory interval allowed without warning", func(t *testing.T) {
		gate := dutyCycle{min: 2 * time.Second, full: 600 * time.Second}
		gate.recordStart(base)
		ok, warn := gate.mayTransmit(base.Add(650 * time.Second))
		if !ok || warn {
			t.Errorf("mayTransmit() = %v, %v; want allowed without warning", ok, warn)
		}
	})
}
