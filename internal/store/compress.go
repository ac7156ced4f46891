package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

var ErrCorruptSnapshot = errors.New("snapshot is corrupted")

// checksumSize prefixes every encoded snapshot with the xxHash64 of the compressed body.
const checksumSize = 8

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

// encode compresses data and prefixes it with a big endian checksum of the compressed bytes.
func encode(data []byte) []byte {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	out := make([]byte, checksumSize, checksumSize+len(data)/2)
	out = encoder.EncodeAll(data, out)
	binary.BigEndian.PutUint64(out[:checksumSize], xxhash.Sum64(out[checksumSize:]))
	return out
}

func decode(data []byte) ([]byte, error) {
	if len(data) < checksumSize {
		return nil, fmt.Errorf("snapshot of %d bytes, %w", len(data), ErrCorruptSnapshot)
	}
	body := data[checksumSize:]
	if binary.BigEndian.Uint64(data[:checksumSize]) != xxhash.Sum64(body) {
		return nil, fmt.Errorf("checksum mismatch, %w", ErrCorruptSnapshot)
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w, %w", err, ErrCorruptSnapshot)
	}
	return out, nil
}
