package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how artifacts are compressed at rest.
type Compression uint8

const (
	// CompressionNone stores artifacts as is.
	CompressionNone Compression = iota
	// CompressionLZ4 stores LZ4 blocks (fast).
	CompressionLZ4
	// CompressionZSTD stores ZSTD blocks (better ratio).
	CompressionZSTD
)

// ParseCompression maps "none", "lz4" and "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zst":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Ext is the file name suffix of compressed artifacts.
func (c Compression) Ext() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed artifacts are a sequence of blocks, each
// [uncompressed uint32][compressed uint32][payload]. A compressed size of
// zero marks a block stored raw.
const (
	blockHeaderSize = 8
	blockSize       = 1 << 20
)

var errCorruptBlock = errors.New("artifact: corrupt compressed block")

func compress(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}
	out := make([]byte, 0, len(data)/2+blockHeaderSize)
	for start := 0; start < len(data); start += blockSize {
		block := data[start:min(start+blockSize, len(data))]

		var packed []byte
		switch c {
		case CompressionLZ4:
			buf := make([]byte, lz4.CompressBlockBound(len(block)))
			n, err := lz4.CompressBlock(block, buf, nil)
			if err != nil {
				return nil, err
			}
			packed = buf[:n]
		case CompressionZSTD:
			enc := getZstdEncoder()
			packed = enc.EncodeAll(block, nil)
			zstdEncoderPool.Put(enc)
		}

		var hdr [blockHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:], uint32(len(block)))
		if len(packed) == 0 || len(packed) >= len(block) {
			out = append(out, hdr[:]...)
			out = append(out, block...)
			continue
		}
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
		out = append(out, hdr[:]...)
		out = append(out, packed...)
	}
	return out, nil
}

func decompress(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}
	var out []byte
	for len(data) > 0 {
		if len(data) < blockHeaderSize {
			return nil, errCorruptBlock
		}
		raw := int(binary.LittleEndian.Uint32(data[0:]))
		packed := int(binary.LittleEndian.Uint32(data[4:]))
		data = data[blockHeaderSize:]

		if packed == 0 {
			if len(data) < raw {
				return nil, errCorruptBlock
			}
			out = append(out, data[:raw]...)
			data = data[raw:]
			continue
		}
		if len(data) < packed {
			return nil, errCorruptBlock
		}
		block := data[:packed]
		data = data[packed:]

		switch c {
		case CompressionLZ4:
			buf := make([]byte, raw)
			n, err := lz4.UncompressBlock(block, buf)
			if err != nil {
				return nil, err
			}
			if n != raw {
				return nil, errCorruptBlock
			}
			out = append(out, buf...)
		case CompressionZSTD:
			dec := getZstdDecoder()
			start := len(out)
			decoded, err := dec.DecodeAll(block, out)
			zstdDecoderPool.Put(dec)
			if err != nil {
				return nil, err
			}
			if len(decoded)-start != raw {
				return nil, errCorruptBlock
			}
			out = decoded
		}
	}
	return out, nil
}
