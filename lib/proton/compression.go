// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/nucleus/lib/buffer"
)

// Compression selects the algorithm applied to a node image before it
// is encrypted. The values are stored in sealed blocks.
type Compression uint8

const (
	// CompressionNone stores the image as is.
	CompressionNone Compression = 0

	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd at the default level.
	CompressionZstd Compression = 2
)

// MaximumImageSize bounds the decompressed size of a node image. A
// frame announcing more is rejected before anything is allocated.
const MaximumImageSize = 64 << 20

// ErrCompression reports a frame that cannot be decoded.
var ErrCompression = errors.New("proton: malformed compression frame")

// errIncompressible signals that compression did not shrink the input.
var errIncompressible = errors.New("incompressible")

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the String form.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("proton: unknown compression %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("proton: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaximumImageSize))
	if err != nil {
		panic("proton: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress frames image as
//
//	[algorithm][uvarint image size][payload]
//
// falling back to CompressionNone when the preferred algorithm does not
// shrink the image.
func Compress(image []byte, preferred Compression) ([]byte, error) {
	algorithm := preferred
	payload, err := compressPayload(image, preferred)
	if errors.Is(err, errIncompressible) {
		algorithm, payload = CompressionNone, image
	} else if err != nil {
		return nil, err
	}

	frame := buffer.New(1 + binary.MaxVarintLen64 + len(payload))
	frame.Append([]byte{byte(algorithm)})
	frame.Append(binary.AppendUvarint(nil, uint64(len(image))))
	frame.Append(payload)
	return frame.Release(), nil
}

// Decompress reverses Compress.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCompression, len(frame))
	}
	algorithm := Compression(frame[0])
	size, read := binary.Uvarint(frame[1:])
	if read <= 0 {
		return nil, fmt.Errorf("%w: bad size prefix", ErrCompression)
	}
	if size > MaximumImageSize {
		return nil, fmt.Errorf("%w: image of %d bytes exceeds the %d-byte limit", ErrCompression, size, MaximumImageSize)
	}
	payload := frame[1+read:]

	switch algorithm {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("%w: stored image is %d bytes, frame says %d", ErrCompression, len(payload), size)
		}
		return payload, nil

	case CompressionLZ4:
		image := make([]byte, size)
		written, err := lz4.UncompressBlock(payload, image)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCompression, err)
		}
		if uint64(written) != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, frame says %d", ErrCompression, written, size)
		}
		return image, nil

	case CompressionZstd:
		image, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCompression, err)
		}
		if uint64(len(image)) != size {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, frame says %d", ErrCompression, len(image), size)
		}
		return image, nil

	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCompression, algorithm)
	}
}

func compressPayload(image []byte, algorithm Compression) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		return image, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(image)))
		written, err := lz4.CompressBlock(image, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("proton: lz4 compress: %w", err)
		}
		if written == 0 || written >= len(image) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(image, nil)
		if len(compressed) >= len(image) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("proton: unsupported compression %d", algorithm)
	}
}
