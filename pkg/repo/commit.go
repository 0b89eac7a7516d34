package repo

import (
	"fmt"
	"time"

	"github.com/grit-vcs/grit/pkg/object"
)

// CreateCommit builds and stores a commit object for the given tree,
// stamped with the configured identity and the current local time.
// parent may be empty for a root commit.
func (r *Repo) CreateCommit(tree object.Hash, parent object.Hash, message string) (object.Hash, error) {
	ident, err := r.LoadIdentity()
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}

	now := time.Now()
	commit := &object.CommitObj{
		TreeHash:    tree,
		Author:      ident.Name,
		AuthorEmail: ident.Email,
		Timestamp:   now.Unix(),
		Timezone:    formatTimezone(now),
		Message:     message,
	}
	if parent != "" {
		commit.Parents = append(commit.Parents, parent)
	}

	h, err := r.Store.WriteCommit(commit)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return h, nil
}

// formatTimezone renders t's UTC offset as ±HHMM.
func formatTimezone(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d%02d", sign, offset/3600, (offset%3600)/60)
}
