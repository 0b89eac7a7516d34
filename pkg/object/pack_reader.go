package object

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"fmt"
	"io"
)

// PackEntry is one decoded object entry from a pack stream. Literal
// entries carry their store type; ref-delta entries carry the base OID
// and a raw delta instruction stream in Data.
type PackEntry struct {
	Type    PackObjectType
	Size    uint64
	Data    []byte
	BaseOID Hash // set for ref-delta entries only
}

// IsDelta reports whether the entry must be resolved against a base.
func (e PackEntry) IsDelta() bool {
	return e.Type == PackRefDelta
}

// PackFile is the decoded content of a full pack stream.
type PackFile struct {
	Header  PackHeader
	Entries []PackEntry
}

// ReadPack parses a full pack byte slice, verifies the trailing SHA-1
// checksum, and returns decoded entries. Pack records are back-to-back
// with no compressed-length prefix, so each record's zlib stream is
// inflated from a *bytes.Reader whose remaining length tells the parser
// exactly where the next record starts.
func ReadPack(data []byte) (*PackFile, error) {
	if len(data) < packHeaderSize+RawHashSize {
		return nil, fmt.Errorf("%w: pack too short (%d bytes)", ErrCorruptPack, len(data))
	}

	payload := data[:len(data)-RawHashSize]
	trailer := data[len(data)-RawHashSize:]

	sum := sha1.Sum(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("%w: trailer checksum mismatch", ErrCorruptPack)
	}

	header, err := UnmarshalPackHeader(payload[:packHeaderSize])
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	entries := make([]PackEntry, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		objType, size, n, err := decodePackEntryHeader(payload[offset:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		offset += n

		entry := PackEntry{Type: objType, Size: size}
		switch objType {
		case PackCommit, PackTree, PackBlob:
		case PackRefDelta:
			// The 20 raw base-OID bytes follow the size header.
			if len(payload[offset:]) < RawHashSize {
				return nil, fmt.Errorf("entry %d: %w: truncated ref-delta base", i, ErrCorruptPack)
			}
			base, err := HashFromRaw(payload[offset : offset+RawHashSize])
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w: %v", i, ErrCorruptPack, err)
			}
			entry.BaseOID = base
			offset += RawHashSize
		default:
			return nil, fmt.Errorf("entry %d: %w: unsupported object type %d", i, ErrCorruptPack, objType)
		}

		if offset >= len(payload) {
			return nil, fmt.Errorf("entry %d: %w: missing compressed payload", i, ErrCorruptPack)
		}

		sub := bytes.NewReader(payload[offset:])
		zr, err := zlib.NewReader(sub)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w: zlib reader: %v", i, ErrCorruptPack, err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			_ = zr.Close()
			return nil, fmt.Errorf("entry %d: %w: decompress: %v", i, ErrCorruptPack, err)
		}
		if err := zr.Close(); err != nil {
			return nil, fmt.Errorf("entry %d: %w: close zlib stream: %v", i, ErrCorruptPack, err)
		}
		if uint64(len(raw)) != size {
			return nil, fmt.Errorf("entry %d: %w: size mismatch header=%d decoded=%d",
				i, ErrCorruptPack, size, len(raw))
		}

		consumed := len(payload[offset:]) - sub.Len()
		offset += consumed

		entry.Data = raw
		entries = append(entries, entry)
	}

	if offset != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing undecoded bytes", ErrCorruptPack, len(payload)-offset)
	}

	return &PackFile{
		Header:  *header,
		Entries: entries,
	}, nil
}
