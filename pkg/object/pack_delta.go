package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMissingBase indicates a ref-delta whose base OID is not
	// resolvable in the store.
	ErrMissingBase = errors.New("delta base not found")

	// ErrDeltaSizeMismatch indicates a delta stream whose declared source
	// or target size does not hold.
	ErrDeltaSizeMismatch = errors.New("delta size mismatch")

	// ErrDeltaRange indicates a copy instruction outside the base object.
	ErrDeltaRange = errors.New("delta copy out of range")
)

// A copy instruction with no explicit length copies this fixed span.
const deltaDefaultCopySize = 4096

// decodeDeltaVarint reads a variable-length integer: 7 payload bits per
// byte, high bit as continuation, least-significant chunk first.
func decodeDeltaVarint(r io.ByteReader) (uint64, error) {
	var (
		value uint64
		shift uint
	)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
		if shift > 63 {
			return 0, fmt.Errorf("delta varint too large")
		}
	}
}

// ApplyDelta reconstructs a target object's content by replaying a
// copy/insert instruction stream against the base object's content.
//
// The stream declares (source size, target size) as varints, then a
// sequence of instructions. An instruction byte with the high bit set is
// a copy: bits 0-3 select up to 4 following little-endian offset bytes,
// bits 4-6 up to 3 length bytes, absent bytes contribute zero, and a zero
// length means the default 4096-byte span. An instruction byte with the
// high bit clear is an insert of that many literal bytes from the stream.
func ApplyDelta(base, delta []byte) ([]byte, error) {
	dr := bytes.NewReader(delta)

	sourceSize, err := decodeDeltaVarint(dr)
	if err != nil {
		return nil, fmt.Errorf("read source size: %w", err)
	}
	if sourceSize != uint64(len(base)) {
		return nil, fmt.Errorf("%w: declared source %d, base is %d bytes",
			ErrDeltaSizeMismatch, sourceSize, len(base))
	}
	targetSize, err := decodeDeltaVarint(dr)
	if err != nil {
		return nil, fmt.Errorf("read target size: %w", err)
	}

	out := make([]byte, 0, targetSize)
	for dr.Len() > 0 {
		cmd, err := dr.ReadByte()
		if err != nil {
			return nil, err
		}

		if cmd&0x80 != 0 {
			offset, size, err := decodeCopyArgs(dr, cmd)
			if err != nil {
				return nil, err
			}
			if offset+size > uint64(len(base)) {
				return nil, fmt.Errorf("%w: copy [%d,%d) exceeds source size %d",
					ErrDeltaRange, offset, offset+size, len(base))
			}
			out = append(out, base[offset:offset+size]...)
			continue
		}

		if cmd == 0 {
			return nil, fmt.Errorf("invalid delta instruction 0")
		}
		insert := make([]byte, int(cmd))
		if _, err := io.ReadFull(dr, insert); err != nil {
			return nil, fmt.Errorf("delta insert: %w", err)
		}
		out = append(out, insert...)
	}

	if uint64(len(out)) != targetSize {
		return nil, fmt.Errorf("%w: produced %d bytes, declared target %d",
			ErrDeltaSizeMismatch, len(out), targetSize)
	}
	return out, nil
}

// decodeCopyArgs reads the offset and length bytes selected by the copy
// instruction's low seven bits, one flag bit per present byte.
func decodeCopyArgs(r io.ByteReader, cmd byte) (offset, size uint64, err error) {
	for i := uint(0); i < 4; i++ {
		if cmd&(1<<i) != 0 {
			b, err := r.ReadByte()
			if err != nil {
				return 0, 0, fmt.Errorf("delta copy offset byte %d: %w", i, err)
			}
			offset |= uint64(b) << (8 * i)
		}
	}
	for i := uint(0); i < 3; i++ {
		if cmd&(1<<(4+i)) != 0 {
			b, err := r.ReadByte()
			if err != nil {
				return 0, 0, fmt.Errorf("delta copy size byte %d: %w", i, err)
			}
			size |= uint64(b) << (8 * i)
		}
	}
	if size == 0 {
		size = deltaDefaultCopySize
	}
	return offset, size, nil
}
