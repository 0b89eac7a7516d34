package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrProtocol indicates an HTTP failure, malformed pkt-line framing, or a
// pack checksum mismatch while talking to the remote.
var ErrProtocol = errors.New("protocol error")

// flushPkt is the zero-length pkt-line terminating a section.
const flushPkt = "0000"

// formatPktLine frames payload as a pkt-line: 4 hex digits of total
// length (including the prefix itself) followed by the payload.
func formatPktLine(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, fmt.Sprintf("%04x", len(payload)+4)...)
	return append(out, payload...)
}

// readPktLine reads one pkt-line from r. A flush packet returns
// (nil, true, nil). io.EOF before any length byte is returned as io.EOF
// so callers can detect a clean end of stream.
func readPktLine(r *bufio.Reader) (payload []byte, flush bool, err error) {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		if err == io.EOF {
			return nil, false, io.EOF
		}
		return nil, false, fmt.Errorf("%w: short pkt-line length prefix: %v", ErrProtocol, err)
	}

	length, err := strconv.ParseUint(string(prefix), 16, 16)
	if err != nil {
		return nil, false, fmt.Errorf("%w: malformed pkt-line length %q", ErrProtocol, prefix)
	}
	if length == 0 {
		return nil, true, nil
	}
	if length < 4 {
		return nil, false, fmt.Errorf("%w: pkt-line length %d below minimum", ErrProtocol, length)
	}

	payload = make([]byte, length-4)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, false, fmt.Errorf("%w: truncated pkt-line payload: %v", ErrProtocol, err)
	}
	return payload, false, nil
}
