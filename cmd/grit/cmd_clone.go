package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/remote"
	"github.com/grit-vcs/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <url> [directory]",
		Short: "Clone a remote repository over smart HTTP",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.NewClient(args[0])
			if err != nil {
				return err
			}

			dest := client.RepoName()
			if len(args) == 2 {
				dest = args[1]
			}
			if strings.TrimSpace(dest) == "" {
				return fmt.Errorf("destination directory is required")
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			if err := ensureEmptyDir(absDest); err != nil {
				return err
			}

			r, err := repo.Init(absDest)
			if err != nil {
				return err
			}

			ad, err := client.DiscoverRefs(cmd.Context())
			if err != nil {
				return err
			}

			wants := make([]object.Hash, 0, len(ad.Refs))
			for _, ref := range ad.Refs {
				wants = append(wants, ref.OID)
			}
			if _, err := remote.FetchIntoStore(cmd.Context(), client, r.Store, wants); err != nil {
				return err
			}

			// Every advertised ref becomes a local ref file; HEAD becomes a
			// symbolic pointer to the advertised default branch.
			var headOID object.Hash
			for _, ref := range ad.Refs {
				if ref.Name == "HEAD" {
					headOID = ref.OID
					continue
				}
				if err := r.UpdateRef(ref.Name, ref.OID); err != nil {
					return err
				}
			}
			defaultBranch := ad.DefaultBranch
			if defaultBranch != "" {
				if err := r.WriteSymbolicHead(defaultBranch); err != nil {
					return err
				}
			}

			tip, err := cloneTip(r, defaultBranch, headOID)
			if err != nil {
				return err
			}
			if tip == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "cloned empty repository into %s\n", absDest)
				return nil
			}

			_, raw, err := r.Store.Read(tip)
			if err != nil {
				return err
			}
			tree, err := object.TreeOID(raw)
			if err != nil {
				return err
			}
			if err := r.CheckoutTree(tree, absDest); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s\n", args[0], absDest)
			return nil
		},
	}
}

// cloneTip picks the commit to materialize: the default branch's ref if
// advertised, otherwise the remote HEAD itself.
func cloneTip(r *repo.Repo, defaultBranch string, headOID object.Hash) (object.Hash, error) {
	if defaultBranch != "" {
		h, err := r.ResolveRef(defaultBranch)
		if err == nil {
			return h, nil
		}
	}
	return headOID, nil
}

func ensureEmptyDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(path, 0o755)
		}
		return fmt.Errorf("read destination: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("destination %q already exists and is not empty", path)
	}
	return nil
}
