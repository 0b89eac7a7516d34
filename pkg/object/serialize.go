package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj to the canonical binary tree body.
// Each entry is "<mode> <name>\0" followed by the 20 raw OID bytes.
// Entries are sorted by raw name bytes so that two logically identical
// directories always serialize to byte-identical bodies.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s %s\x00", e.Mode, e.Name)
		raw, err := e.OID.Raw()
		if err != nil {
			// A malformed OID can only come from a programming error on
			// the write path; encode zeros rather than panic.
			raw = make([]byte, RawHashSize)
		}
		buf.Write(raw)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a binary tree body. It repeatedly scans for the
// next NUL, splits the preceding chunk into mode and name on the first
// space, and consumes exactly 20 following bytes as the entry OID.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	rest := data
	for len(rest) > 0 {
		nulIdx := bytes.IndexByte(rest, 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: trailing bytes with no entry terminator", ErrCorruptObject)
		}
		mode, name, ok := strings.Cut(string(rest[:nulIdx]), " ")
		if !ok || mode == "" || name == "" {
			return nil, fmt.Errorf("unmarshal tree: %w: malformed entry header %q", ErrCorruptObject, rest[:nulIdx])
		}
		rest = rest[nulIdx+1:]
		if len(rest) < RawHashSize {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated OID for entry %q", ErrCorruptObject, name)
		}
		oid, err := HashFromRaw(rest[:RawHashSize])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w: %v", ErrCorruptObject, err)
		}
		rest = rest[RawHashSize:]

		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: mode,
			Name: name,
			OID:  oid,
		})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj to the canonical commit body:
//
//	tree H
//	parent H      (zero or more)
//	author Name <email> unix-seconds ±HHMM
//	committer Name <email> unix-seconds ±HHMM
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s <%s> %d %s\n", c.Author, c.AuthorEmail, c.Timestamp, c.Timezone)

	committer := c.Committer
	committerEmail := c.CommitterEmail
	committerTS := c.CommitterTimestamp
	committerTZ := c.CommitterTimezone
	if committer == "" {
		committer = c.Author
		committerEmail = c.AuthorEmail
		committerTS = c.Timestamp
		committerTZ = c.Timezone
	}
	fmt.Fprintf(&buf, "committer %s <%s> %d %s\n", committer, committerEmail, committerTS, committerTZ)

	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	if !strings.HasSuffix(c.Message, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: %w: missing header/message separator", ErrCorruptObject)
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: %w: malformed header line %q", ErrCorruptObject, line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			name, email, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author, c.AuthorEmail, c.Timestamp, c.Timezone = name, email, ts, tz
		case "committer":
			name, email, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer, c.CommitterEmail, c.CommitterTimestamp, c.CommitterTimezone = name, email, ts, tz
		default:
			// Unknown headers (gpgsig, encoding, ...) are preserved only in
			// the raw bytes; the decoded struct skips them.
		}
	}
	return c, nil
}

// parseIdentLine splits "Name <email> unix-seconds ±HHMM".
func parseIdentLine(val string) (name, email string, ts int64, tz string, err error) {
	open := strings.IndexByte(val, '<')
	end := strings.IndexByte(val, '>')
	if open < 0 || end < open {
		return "", "", 0, "", fmt.Errorf("malformed identity %q", val)
	}
	name = strings.TrimSpace(val[:open])
	email = val[open+1 : end]

	fields := strings.Fields(val[end+1:])
	if len(fields) != 2 {
		return "", "", 0, "", fmt.Errorf("malformed identity timestamp in %q", val)
	}
	ts, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return "", "", 0, "", fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}
	tz = fields[1]
	return name, email, ts, tz, nil
}

// TreeOID extracts the tree hash embedded in a raw commit body by scanning
// for the "tree " marker and reading the 40 hex characters that follow.
// This is the minimum parse the fetch path needs to materialize a
// workspace after cloning.
func TreeOID(raw []byte) (Hash, error) {
	const marker = "tree "
	idx := bytes.Index(raw, []byte(marker))
	if idx < 0 {
		return "", fmt.Errorf("commit body: %w: no tree header", ErrCorruptObject)
	}
	start := idx + len(marker)
	if len(raw) < start+2*RawHashSize {
		return "", fmt.Errorf("commit body: %w: truncated tree hash", ErrCorruptObject)
	}
	h := Hash(raw[start : start+2*RawHashSize])
	if !h.Valid() {
		return "", fmt.Errorf("commit body: %w: malformed tree hash %q", ErrCorruptObject, h)
	}
	return h, nil
}
