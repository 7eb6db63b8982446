package tlvconn_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/headend/simulcrypt/tlv/duck"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	p := duck.NewProtocol()
	ca := tlvconn.New(a, p, false, 0)
	cb := tlvconn.New(b, p, false, 0)

	msg := &duck.LogSection{Section: []byte{0xAA, 0xBB}}

	errc := make(chan error, 1)
	go func() { errc <- ca.Send(msg) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := cb.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Send: %v", err)
	}
	ls, ok := got.(*duck.LogSection)
	if !ok {
		t.Fatalf("wrong type: %T", got)
	}
	if string(ls.Section) != string(msg.Section) {
		t.Fatalf("got %v, want %v", ls.Section, msg.Section)
	}
}

func TestReceiveAbort(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	p := duck.NewProtocol()
	cb := tlvconn.New(b, p, false, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cb.Receive(ctx)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != tlvconn.ErrAborted {
			t.Fatalf("got %v, want ErrAborted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock on cancellation")
	}
}

func TestInvalidMessageThreshold(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	p := duck.NewProtocol()
	cb := tlvconn.New(b, p, false, 1)

	// Write a structurally invalid frame (wrong version byte) directly,
	// bypassing Send, to simulate a malformed peer.
	go func() {
		a.Write([]byte{0x00, 0xAA, 0x01, 0x00, 0x00})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cb.Receive(ctx)
	if err != tlvconn.ErrTooManyInvalidMessages {
		t.Fatalf("got %v, want ErrTooManyInvalidMessages", err)
	}
}
