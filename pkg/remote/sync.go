package remote

import (
	"context"
	"fmt"

	"github.com/grit-vcs/grit/pkg/object"
)

// FetchIntoStore fetches a pack covering the given wants and unpacks
// every record into the store: literals directly, ref-deltas resolved
// against their base objects. Nothing is trusted before the pack
// checksum verifies.
func FetchIntoStore(ctx context.Context, c *Client, store *object.Store, wants []object.Hash) (*object.UnpackSummary, error) {
	wants = dedupeHashes(wants)
	if len(wants) == 0 {
		return &object.UnpackSummary{}, nil
	}

	pack, err := c.FetchPack(ctx, wants)
	if err != nil {
		return nil, err
	}

	summary, err := store.UnpackPack(pack)
	if err != nil {
		return nil, fmt.Errorf("unpack fetched objects: %w", err)
	}
	return summary, nil
}

func dedupeHashes(hashes []object.Hash) []object.Hash {
	seen := make(map[object.Hash]struct{}, len(hashes))
	out := make([]object.Hash, 0, len(hashes))
	for _, h := range hashes {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
