package wisol_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unabiz/wisol-go/wisol"
)

func newTestDriver(t *testing.T, transport wisol.Transport, clock wisol.Clock) *wisol.Driver {
	t.Helper()
	config, err := wisol.NewConfigBuilder().
		WithTransport(transport).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}
	d, err := wisol.New(config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	return d
}

func TestExchange(t *testing.T) {
	t.Run("single line response", func(t *testing.T) {
		sim := wisol.NewSimTransport(map[string]string{
			"AT$I=10": "1234\r",
		})
		d := newTestDriver(t, sim, newFakeClock())

		out, err := d.Exchange(context.Background(), []byte("AT$I=10\r"), 100*time.Millisecond, 1)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.OK {
			t.Error("expected successful outcome")
		}
		if out.Response != "1234" {
			t.Errorf("Response = %q, want %q", out.Response, "1234")
		}
		if out.Observed != 1 {
			t.Errorf("Observed = %d, want 1", out.Observed)
		}
		if !slices.Equal(out.Markers, []int{4}) {
			t.Errorf("Markers = %v, want [4]", out.Markers)
		}
		if string(sim.Written) != "AT$I=10\r" {
			t.Errorf("transmitted %q, want %q", sim.Written, "AT$I=10\r")
		}
		if sim.Ends != 1 {
			t.Errorf("session closed %d times, want 1", sim.Ends)
		}
	})

	t.Run("timeout with empty response", func(t *testing.T) {
		sim := wisol.NewSimTransport(nil)
		sim.Silent = true
		clock := newFakeClock()
		d := newTestDriver(t, sim, clock)

		start := clock.Now()
		out, err := d.Exchange(context.Background(), []byte("AT$I=10\r"), 100*time.Millisecond, 1)

		if !errors.Is(err, wisol.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got: %v", err)
		}
		if out.Response != "" {
			t.Errorf("Response = %q, want empty", out.Response)
		}
		if out.Observed != 0 {
			t.Errorf("Observed = %d, want 0", out.Observed)
		}
		if sim.Ends != 1 {
			t.Error("session should be closed on timeout too")
		}

		// 200ms settle + 8 bytes at 10ms + the 100ms receive budget.
		elapsed := clock.Now().Sub(start)
		if elapsed < 380*time.Millisecond || elapsed > 390*time.Millisecond {
			t.Errorf("elapsed = %v, want about 380ms", elapsed)
		}
	})

	t.Run("delimiters stripped from interleaved data", func(t *testing.T) {
		sim := wisol.NewSimTransport(map[string]string{
			"AT": "OK\rDATA\rX\r",
		})
		d := newTestDriver(t, sim, newFakeClock())

		out, err := d.Exchange(context.Background(), []byte("AT\r"), 100*time.Millisecond, 3)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Response != "OKDATAX" {
			t.Errorf("Response = %q, want %q", out.Response, "OKDATAX")
		}
		if strings.ContainsRune(out.Response, '\r') {
			t.Error("response must not contain delimiter characters")
		}
		if !slices.Equal(out.Markers, []int{2, 6, 7}) {
			t.Errorf("Markers = %v, want [2 6 7]", out.Markers)
		}
	})

	t.Run("marker log capacity", func(t *testing.T) {
		sim := wisol.NewSimTransport(map[string]string{
			"AT": "a\rb\rc\rd\re\rf\rg\r",
		})
		d := newTestDriver(t, sim, newFakeClock())

		out, err := d.Exchange(context.Background(), []byte("AT\r"), 100*time.Millisecond, 7)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Observed != 7 {
			t.Errorf("Observed = %d, want 7 (capacity must not affect the count)", out.Observed)
		}
		if !slices.Equal(out.Markers, []int{1, 2, 3, 4, 5}) {
			t.Errorf("Markers = %v, want the first 5 positions", out.Markers)
		}
		if out.Response != "abcdefg" {
			t.Errorf("Response = %q, want %q", out.Response, "abcdefg")
		}
	})

	t.Run("partial response still returned on timeout", func(t *testing.T) {
		sim := wisol.NewSimTransport(map[string]string{
			"AT": "PART\r",
		})
		d := newTestDriver(t, sim, newFakeClock())

		out, err := d.Exchange(context.Background(), []byte("AT\r"), 50*time.Millisecond, 2)

		if !errors.Is(err, wisol.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got: %v", err)
		}
		if out.Response != "PART" {
			t.Errorf("Response = %q, want partial data preserved", out.Response)
		}
		if out.Observed != 1 {
			t.Errorf("Observed = %d, want 1", out.Observed)
		}
	})

	t.Run("emulator short-circuits the transport", func(t *testing.T) {
		sim := wisol.NewSimTransport(nil)
		config, err := wisol.NewConfigBuilder().
			WithTransport(sim).
			WithClock(newFakeClock()).
			WithEmulator(true).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}
		d, err := wisol.New(config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}

		out, err := d.Exchange(context.Background(), []byte("AT\r"), time.Second, 1)

		if err != nil || !out.OK {
			t.Errorf("emulator exchange should succeed, got %v, %v", out, err)
		}
		if len(sim.BitRates) != 0 {
			t.Error("emulator mode must not touch the transport")
		}
	})

	t.Run("echo sink receives both frames", func(t *testing.T) {
		sim := wisol.NewSimTransport(map[string]string{
			"AT$I=10": "1234\r",
		})
		var echo bytes.Buffer
		config, err := wisol.NewConfigBuilder().
			WithTransport(sim).
			WithClock(newFakeClock()).
			WithEchoWriter(&echo).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}
		d, err := wisol.New(config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}

		if _, err := d.Exchange(context.Background(), []byte("AT$I=10\r"), time.Second, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(echo.String(), ">> AT$I=10") {
			t.Errorf("echo output missing sent frame: %q", echo.String())
		}
		if !strings.Contains(echo.String(), "<< 12340x0d") {
			t.Errorf("echo output missing received frame: %q", echo.String())
		}
	})

	t.Run("re-entrant exchange returns ErrBusy", func(t *testing.T) {
		gate := &gateTransport{
			SimTransport: wisol.NewSimTransport(nil),
			entered:      make(chan struct{}),
			release:      make(chan struct{}),
		}
		gate.SimTransport.Silent = true
		d := newTestDriver(t, gate, newFakeClock())

		done := make(chan error, 1)
		go func() {
			_, err := d.Exchange(context.Background(), []byte("AT\r"), 0, 1)
			done <- err
		}()

		<-gate.entered
		_, err := d.Exchange(context.Background(), []byte("AT\r"), 0, 1)
		if !errors.Is(err, wisol.ErrBusy) {
			t.Errorf("expected ErrBusy, got: %v", err)
		}

		close(gate.release)
		if err := <-done; !errors.Is(err, wisol.ErrTimeout) {
			t.Errorf("first exchange should time out, got: %v", err)
		}
	})
}

// gateTransport blocks inside the session open until released, keeping
// an exchange in flight for the busy-guard test.
type gateTransport struct {
	*wisol.SimTransport
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateTransport) Begin(bitRate int) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.SimTransport.Begin(bitRate)
}
