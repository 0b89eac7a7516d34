package main

import (
	"fmt"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var parent string
	var message string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree-oid> [-p <parent>] [-m <message>]",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			tree := object.Hash(args[0])
			if !tree.Valid() {
				return fmt.Errorf("malformed tree hash %q", args[0])
			}
			parentHash := object.Hash(parent)
			if parent != "" && !parentHash.Valid() {
				return fmt.Errorf("malformed parent hash %q", parent)
			}

			h, err := r.CreateCommit(tree, parentHash, message)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit hash")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
