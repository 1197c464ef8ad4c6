package wisol

import (
	"bytes"
	"sync"

	"github.com/unabiz/wisol-go/at"
)

// SimTransport is a test helper that simulates a Wisol module. Written
// bytes accumulate until a delimiter completes a command; the scripted
// reply for that command (delimiters included) is then queued for the
// engine to poll. Exported for use in tests.
type SimTransport struct {
	mu sync.Mutex

	// Replies maps a command (without its trailing delimiter) to the
	// raw bytes the module answers with.
	Replies map[string]string
	// Silent suppresses all replies, simulating a missing device.
	Silent bool

	// Written records every byte the engine transmitted.
	Written []byte
	// BitRates records the rate passed to each Begin call.
	BitRates []int
	// Flushes, Listens and Ends count lifecycle calls.
	Flushes int
	Listens int
	Ends    int

	frame   []byte
	pending []byte
}

// NewSimTransport creates a simulated transport with the given scripted
// replies.
func NewSimTransport(replies map[string]string) *SimTransport {
	return &SimTransport{Replies: replies}
}

func (t *SimTransport) Begin(bitRate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.BitRates = append(t.BitRates, bitRate)
	return nil
}

func (t *SimTransport) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Ends++
	return nil
}

func (t *SimTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Flushes++
	t.pending = nil
	return nil
}

func (t *SimTransport) Listen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Listens++
	return nil
}

func (t *SimTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *SimTransport) ReadByte() (byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return 0, false
	}
	b := t.pending[0]
	t.pending = t.pending[1:]
	return b, true
}

func (t *SimTransport) WriteByte(b byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Written = append(t.Written, b)
	t.frame = append(t.frame, b)
	if b != at.Delimiter {
		return nil
	}
	cmd := string(bytes.TrimSuffix(t.frame, []byte{at.Delimiter}))
	t.frame = nil
	if t.Silent {
		return nil
	}
	if reply, ok := t.Replies[cmd]; ok {
		t.pending = append(t.pending, reply...)
	}
	return nil
}
