package transport

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Frames above this size are zstd-compressed before hitting the wire.
// Movement batches stay under it; chunked snapshots do not.
const compressThreshold = 512

const (
	frameRaw  = 0
	frameZstd = 1
)

var (
	zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDec, _ = zstd.NewReader(nil)
)

// encodeFrame prefixes the payload with a compression marker,
// compressing it when large enough to be worth the cycles.
func encodeFrame(payload []byte) []byte {
	if len(payload) < compressThreshold {
		frame := make([]byte, 1+len(payload))
		frame[0] = frameRaw
		copy(frame[1:], payload)
		return frame
	}
	return zstdEnc.EncodeAll(payload, []byte{frameZstd})
}

// decodeFrame strips the compression marker and inflates if needed.
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("decode frame: empty")
	}
	body := frame[1:]
	switch frame[0] {
	case frameRaw:
		return body, nil
	case frameZstd:
		payload, err := zstdDec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("decode frame: unknown marker %d", frame[0])
	}
}
