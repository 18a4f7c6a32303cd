// internal/history/compression.go
package history

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Snapshot blobs below this size are stored uncompressed; the zstd frame
// overhead is not worth it.
const compressMinSize = 1024

type compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCompressor() (*compressor, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	return &compressor{enc: enc, dec: dec}, nil
}

// compress returns the possibly-compressed data and whether compression was
// applied.
func (c *compressor) compress(data []byte) ([]byte, bool) {
	if len(data) < compressMinSize {
		return data, false
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), true
}

func (c *compressor) decompress(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
