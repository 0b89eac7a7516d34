package remote

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/grit-vcs/grit/pkg/object"
)

// Ref is one advertised (object id, ref name) pair.
type Ref struct {
	OID  object.Hash
	Name string
}

// Advertisement is the parsed result of the info/refs discovery step.
type Advertisement struct {
	Refs []Ref
	// DefaultBranch is the ref HEAD points at, taken from the
	// symref=HEAD:<ref> capability (e.g. "refs/heads/main").
	DefaultBranch string
}

// ClientOptions configures the smart-protocol client.
type ClientOptions struct {
	Timeout     time.Duration // HTTP client timeout (default 60s)
	MaxAttempts int           // retry attempts for transport errors (default 3)
}

const fetchResponseLimit = 512 << 20 // 512MB

// Client speaks the smart HTTP upload-pack protocol against one remote.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
}

// NewClient creates a client for the given repository URL with default
// options.
func NewClient(remoteURL string) (*Client, error) {
	return NewClientWithOptions(remoteURL, ClientOptions{})
}

// NewClientWithOptions creates a client with configurable options.
// Zero-value or negative fields receive defaults.
func NewClientWithOptions(remoteURL string, opts ClientOptions) (*Client, error) {
	base, err := normalizeRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// RepoName returns the repository name implied by the remote URL, used
// as the default clone destination.
func (c *Client) RepoName() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(path.Base(u.Path), ".git")
}

func normalizeRemoteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("remote URL must include scheme and host")
	}
	base := strings.TrimRight(raw, "/")
	if !strings.HasSuffix(base, ".git") {
		base += ".git"
	}
	return base, nil
}

// DiscoverRefs performs the reference advertisement: GET info/refs and
// parse the pkt-line framed response. The first pkt-line is the service
// announcement and must be followed by a flush; the first ref line
// carries the capability list after a NUL, from which the symref=HEAD
// capability names the default branch; subsequent "<oid> <refname>"
// lines run until the terminating flush.
func (c *Client) DiscoverRefs(ctx context.Context) (*Advertisement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/info/refs?service=git-upload-pack", nil)
	if err != nil {
		return nil, err
	}

	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("%w: discover refs: %v", ErrProtocol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: discover refs: HTTP %d", ErrProtocol, resp.StatusCode)
	}

	return parseAdvertisement(bufio.NewReader(resp.Body))
}

func parseAdvertisement(r *bufio.Reader) (*Advertisement, error) {
	// Service announcement ("# service=git-upload-pack").
	payload, flush, err := readPktLine(r)
	if err != nil {
		return nil, err
	}
	if flush || !bytes.HasPrefix(payload, []byte("# service=")) {
		return nil, fmt.Errorf("%w: missing service announcement", ErrProtocol)
	}
	if _, flush, err = readPktLine(r); err != nil {
		return nil, err
	} else if !flush {
		return nil, fmt.Errorf("%w: expected flush after service announcement", ErrProtocol)
	}

	ad := &Advertisement{}
	first := true
	for {
		payload, flush, err := readPktLine(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if flush {
			break
		}

		line := strings.TrimSuffix(string(payload), "\n")
		if first {
			first = false
			refPart, caps, hasCaps := strings.Cut(line, "\x00")
			if hasCaps {
				ad.DefaultBranch = symrefHead(caps)
			}
			line = refPart
		}

		ref, err := parseRefLine(line)
		if err != nil {
			return nil, err
		}
		ad.Refs = append(ad.Refs, ref)
	}

	return ad, nil
}

func parseRefLine(line string) (Ref, error) {
	oid, name, ok := strings.Cut(line, " ")
	if !ok {
		return Ref{}, fmt.Errorf("%w: malformed ref line %q", ErrProtocol, line)
	}
	h := object.Hash(oid)
	if !h.Valid() {
		return Ref{}, fmt.Errorf("%w: malformed ref hash %q", ErrProtocol, oid)
	}
	return Ref{OID: h, Name: name}, nil
}

// symrefHead extracts the HEAD target from a capability list such as
// "multi_ack symref=HEAD:refs/heads/main agent=...".
func symrefHead(caps string) string {
	for _, field := range strings.Fields(caps) {
		if target, ok := strings.CutPrefix(field, "symref=HEAD:"); ok {
			return target
		}
	}
	return ""
}

// FetchPack performs the fetch negotiation for the given wants and
// returns the raw packfile bytes (including the pack's own trailing
// checksum). The request body is pkt-line framed "want <oid>" lines, a
// flush, and "done"; the response is a NAK pkt-line followed by the raw
// pack, whose final 20 bytes must equal the SHA-1 of all preceding pack
// bytes. The checksum is verified here, before any parsing.
func (c *Client) FetchPack(ctx context.Context, wants []object.Hash) ([]byte, error) {
	if len(wants) == 0 {
		return nil, fmt.Errorf("at least one want hash is required")
	}

	var body bytes.Buffer
	for _, w := range wants {
		if !w.Valid() {
			return nil, fmt.Errorf("%w: malformed want hash %q", ErrProtocol, w)
		}
		body.Write(formatPktLine([]byte("want " + string(w) + "\n")))
	}
	body.WriteString(flushPkt)
	body.Write(formatPktLine([]byte("done\n")))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/git-upload-pack", bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-git-upload-pack-request")

	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch pack: %v", ErrProtocol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch pack: HTTP %d", ErrProtocol, resp.StatusCode)
	}

	br := bufio.NewReader(io.LimitReader(resp.Body, fetchResponseLimit))
	payload, flush, err := readPktLine(br)
	if err != nil {
		return nil, err
	}
	if flush || strings.TrimSuffix(string(payload), "\n") != "NAK" {
		return nil, fmt.Errorf("%w: expected NAK, got %q", ErrProtocol, payload)
	}

	pack, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: read pack stream: %v", ErrProtocol, err)
	}
	if len(pack) < object.RawHashSize {
		return nil, fmt.Errorf("%w: pack shorter than its checksum", ErrProtocol)
	}

	sum := sha1.Sum(pack[:len(pack)-object.RawHashSize])
	if !bytes.Equal(sum[:], pack[len(pack)-object.RawHashSize:]) {
		return nil, fmt.Errorf("%w: pack checksum mismatch", ErrProtocol)
	}

	return pack, nil
}
