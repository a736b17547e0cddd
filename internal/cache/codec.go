package cache

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// Envelope markers. Every stored payload starts with one marker byte so a
// reader never has to guess whether the body is compressed.
const (
	envelopeRaw        byte = 0x00
	envelopeCompressed byte = 0x01
)

// encodePayload wraps data in a storage envelope, s2-compressing when asked.
// Compression is skipped when it does not shrink the payload.
func encodePayload(data []byte, compress bool) []byte {
	if compress {
		packed := s2.Encode(nil, data)
		if len(packed) < len(data) {
			out := make([]byte, 0, len(packed)+1)
			out = append(out, envelopeCompressed)
			return append(out, packed...)
		}
	}
	out := make([]byte, 0, len(data)+1)
	out = append(out, envelopeRaw)
	return append(out, data...)
}

// decodePayload unwraps a storage envelope.
func decodePayload(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("empty cache payload")
	}
	body := stored[1:]
	switch stored[0] {
	case envelopeRaw:
		return body, nil
	case envelopeCompressed:
		data, err := s2.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("decompress cache payload: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown cache envelope marker 0x%02x", stored[0])
	}
}
