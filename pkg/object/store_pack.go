package object

import (
	"fmt"
)

// UnpackSummary reports the outcome of Store.UnpackPack.
type UnpackSummary struct {
	Literals int
	Deltas   int
}

// pendingDelta is a queued ref-delta awaiting its base object.
type pendingDelta struct {
	BaseOID Hash
	Data    []byte
}

// UnpackPack decodes a full pack stream and converts every record into a
// stored loose object. Literal objects are stored first, keyed by their
// recomputed content hash (pack ordering is not an identity). Ref-deltas
// are then resolved in passes: each pass applies every delta whose base
// is already in the store, so deltas chained on other deltas or bases
// appearing later in the pack still resolve. A pass that makes no
// progress means a base is genuinely absent.
func (s *Store) UnpackPack(data []byte) (*UnpackSummary, error) {
	pack, err := ReadPack(data)
	if err != nil {
		return nil, err
	}

	summary := &UnpackSummary{}
	pending := make([]pendingDelta, 0)

	for i, entry := range pack.Entries {
		if entry.IsDelta() {
			pending = append(pending, pendingDelta{
				BaseOID: entry.BaseOID,
				Data:    entry.Data,
			})
			continue
		}
		objType, ok := entry.Type.ObjectType()
		if !ok {
			return nil, fmt.Errorf("entry %d: %w: unsupported object type %d", i, ErrCorruptPack, entry.Type)
		}
		if _, err := s.Write(objType, entry.Data); err != nil {
			return nil, fmt.Errorf("store pack entry %d: %w", i, err)
		}
		summary.Literals++
	}

	for len(pending) > 0 {
		next := pending[:0]
		progressed := false

		for _, d := range pending {
			if !s.Has(d.BaseOID) {
				next = append(next, d)
				continue
			}
			baseType, baseContent, err := s.Read(d.BaseOID)
			if err != nil {
				return nil, fmt.Errorf("read delta base %s: %w", d.BaseOID, err)
			}
			resolved, err := ApplyDelta(baseContent, d.Data)
			if err != nil {
				return nil, fmt.Errorf("resolve delta against %s: %w", d.BaseOID, err)
			}
			if _, err := s.Write(baseType, resolved); err != nil {
				return nil, fmt.Errorf("store resolved delta: %w", err)
			}
			summary.Deltas++
			progressed = true
		}

		if !progressed {
			return nil, fmt.Errorf("%w: %s", ErrMissingBase, next[0].BaseOID)
		}
		pending = next
	}

	return summary, nil
}
