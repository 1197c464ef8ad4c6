package wisol_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/unabiz/wisol-go/at"
	"github.com/unabiz/wisol-go/wisol"
)

// TestSessionProtocol pins the exact transport call sequence of one
// exchange: open at the module bit rate, flush, listen, byte-at-a-time
// writes interleaved with receive polls, close.
func TestSessionProtocol(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := wisol.NewMockTransport(ctrl)
	gomock.InOrder(
		mockTransport.EXPECT().Begin(at.BitRate).Return(nil),
		mockTransport.EXPECT().Flush().Return(nil),
		mockTransport.EXPECT().Listen().Return(nil),
		mockTransport.EXPECT().WriteByte(byte('A')).Return(nil),
		mockTransport.EXPECT().Available().Return(0),
		mockTransport.EXPECT().WriteByte(byte('\r')).Return(nil),
		mockTransport.EXPECT().Available().Return(0),
		mockTransport.EXPECT().End().Return(nil),
	)

	d := newTestDriver(t, mockTransport, newFakeClock())

	// A zero receive budget ends the wait right after transmission.
	out, err := d.Exchange(context.Background(), []byte("A\r"), 0, 1)

	if !errors.Is(err, wisol.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got: %v", err)
	}
	if out.Observed != 0 || out.Response != "" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}
