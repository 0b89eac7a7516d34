package main

import (
	"fmt"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] <tree-oid>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			tree, err := r.Store.ReadTree(object.Hash(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range tree.Entries {
				if nameOnly {
					fmt.Fprintln(out, e.Name)
					continue
				}
				entryType := "blob"
				if e.IsDir() {
					entryType = "tree"
				}
				mode := e.Mode
				for len(mode) < 6 {
					mode = "0" + mode
				}
				fmt.Fprintf(out, "%s %s %s\t%s\n", mode, entryType, e.OID, e.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	return cmd
}
