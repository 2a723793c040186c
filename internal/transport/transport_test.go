package transport

import (
	"bytes"
	"testing"
)

func TestFrameRoundTripSmall(t *testing.T) {
	t.Parallel()

	payload := []byte{1, 2, 3, 4}
	frame := encodeFrame(payload)
	if frame[0] != frameRaw {
		t.Fatalf("small payload compressed, marker %d", frame[0])
	}
	got, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestFrameRoundTripLarge(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("entity-state"), 200)
	frame := encodeFrame(payload)
	if frame[0] != frameZstd {
		t.Fatalf("large payload not compressed, marker %d", frame[0])
	}
	if len(frame) >= len(payload) {
		t.Fatalf("compressed frame (%d) not smaller than payload (%d)", len(frame), len(payload))
	}
	got, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch after inflate")
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := decodeFrame(nil); err == nil {
		t.Fatal("empty frame accepted")
	}
	if _, err := decodeFrame([]byte{99, 1, 2}); err == nil {
		t.Fatal("unknown marker accepted")
	}
}

func TestPipeDelivery(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	defer a.Close()

	if err := a.Send([]byte("hello"), ReliableOrdered); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := <-b.Receive()
	if string(got) != "hello" {
		t.Fatalf("received %q", got)
	}
}

func TestPipeUnreliableDropsWhenFull(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	defer a.Close()

	// Fill the peer's queue without draining it.
	for i := 0; i < recvQueueSize; i++ {
		if err := a.Send([]byte{byte(i)}, ReliableOrdered); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	// An unreliable send must not block here.
	if err := a.Send([]byte("overflow"), Unreliable); err != nil {
		t.Fatalf("unreliable send: %v", err)
	}
	_ = b
}

func TestPipeSendAfterClose(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	a.Close()

	if err := a.Send([]byte("late"), ReliableOrdered); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if _, ok := <-b.Receive(); ok {
		t.Fatal("receive channel still open after close")
	}
}
