package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// RawHashSize is the byte length of a raw SHA-1 digest.
const RawHashSize = sha1.Size

// HashBytes computes the raw SHA-1 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// which is the content address of an object.
func HashObject(objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// HashFromRaw converts a raw 20-byte digest into a hex Hash.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != RawHashSize {
		return "", fmt.Errorf("raw hash length %d, expected %d", len(raw), RawHashSize)
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// Raw decodes the hex Hash back into its 20 raw digest bytes.
func (h Hash) Raw() ([]byte, error) {
	if len(h) != 2*RawHashSize {
		return nil, fmt.Errorf("hash %q: length %d, expected %d", h, len(h), 2*RawHashSize)
	}
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("hash %q: %w", h, err)
	}
	return raw, nil
}

// Valid reports whether h is a well-formed 40-character hex hash.
func (h Hash) Valid() bool {
	_, err := h.Raw()
	return err == nil
}
