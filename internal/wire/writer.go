package wire

import (
	"encoding/binary"
	"math"
)

// Writer builds an outgoing message. All multi-byte writes are
// little-endian. Byte 0 is the message type.
type Writer struct {
	buf []byte
}

func NewWriter(t MsgType) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(byte(t))
	return w
}

// NewMasterWriter starts a message on the master channel.
func NewMasterWriter(t MasterMsgType) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(byte(t))
	return w
}

// NewRawWriter starts a message with no type byte. Used for building
// chunk bodies that are framed later.
func NewRawWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes little-endian.
func (w *Writer) WriteH(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteD writes 4 bytes little-endian (signed or unsigned via cast).
func (w *Writer) WriteD(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteQ writes 8 bytes little-endian.
func (w *Writer) WriteQ(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteQU writes 8 bytes little-endian unsigned.
func (w *Writer) WriteQU(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteF writes a float32 as 4 bytes little-endian.
func (w *Writer) WriteF(v float32) {
	w.WriteD(int32(math.Float32bits(v)))
}

// WriteBool writes 1 byte, 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteS writes a UTF-8 string with a uint16 length prefix.
func (w *Writer) WriteS(s string) {
	w.WriteH(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PatchH overwrites 2 bytes at off with v. Used for count fields that
// are only known once a batch is complete.
func (w *Writer) PatchH(off int, v uint16) {
	binary.LittleEndian.PutUint16(w.buf[off:], v)
}

// Bytes returns the encoded message.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current encoded length.
func (w *Writer) Len() int {
	return len(w.buf)
}
