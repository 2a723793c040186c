package wire

import (
	"math"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := NewWriter(MsgPlayerUpdate)
	w.WriteC(7)
	w.WriteH(65000)
	w.WriteD(-123456)
	w.WriteQ(-9876543210)
	w.WriteF(3.5)
	w.WriteBool(true)
	w.WriteS("Hero of Valor")

	r := NewReader(w.Bytes())
	if r.Type() != MsgPlayerUpdate {
		t.Fatalf("type = %d", r.Type())
	}
	if got := r.ReadC(); got != 7 {
		t.Fatalf("ReadC = %d", got)
	}
	if got := r.ReadH(); got != 65000 {
		t.Fatalf("ReadH = %d", got)
	}
	if got := r.ReadD(); got != -123456 {
		t.Fatalf("ReadD = %d", got)
	}
	if got := r.ReadQ(); got != -9876543210 {
		t.Fatalf("ReadQ = %d", got)
	}
	if got := r.ReadF(); got != 3.5 {
		t.Fatalf("ReadF = %v", got)
	}
	if !r.ReadBool() {
		t.Fatal("ReadBool = false")
	}
	if got := r.ReadS(); got != "Hero of Valor" {
		t.Fatalf("ReadS = %q", got)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d", r.Remaining())
	}
}

func TestReaderShortBuffer(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{byte(MsgAction), 1})
	if got := r.ReadD(); got != 0 {
		t.Fatalf("ReadD on short buffer = %d", got)
	}
	if got := r.ReadS(); got != "" {
		t.Fatalf("ReadS on short buffer = %q", got)
	}
}

func TestPatchH(t *testing.T) {
	t.Parallel()

	w := NewWriter(MsgPlayerMovement)
	off := w.Len()
	w.WriteH(0) // count placeholder
	w.WriteH(42)
	w.PatchH(off, 3)

	r := NewReader(w.Bytes())
	if got := r.ReadH(); got != 3 {
		t.Fatalf("patched count = %d", got)
	}
	if got := r.ReadH(); got != 42 {
		t.Fatalf("payload = %d", got)
	}
}

func TestQuantizerRoundTrip(t *testing.T) {
	t.Parallel()

	q := NewQuantizer(2000)
	step := q.Step()
	for _, v := range []float32{0, 0.5, 123.456, 999.99, 1999.9} {
		got := q.Dequantize(q.Quantize(v))
		if diff := float32(math.Abs(float64(got - v))); diff > step {
			t.Fatalf("round trip of %v drifted by %v (step %v)", v, diff, step)
		}
	}
}

func TestQuantizerClamps(t *testing.T) {
	t.Parallel()

	q := NewQuantizer(2000)
	if got := q.Quantize(-5); got != 0 {
		t.Fatalf("negative clamped to %d", got)
	}
	if got := q.Quantize(5000); got != math.MaxUint16 {
		t.Fatalf("overflow clamped to %d", got)
	}
}
