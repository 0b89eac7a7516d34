package main

import (
	"fmt"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file -p <oid>",
		Short: "Print the content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pretty {
				return fmt.Errorf("cat-file requires -p")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			_, content, err := r.Store.Read(object.Hash(args[0]))
			if err != nil {
				return err
			}

			// Content is written verbatim: no trailing newline is added.
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	return cmd
}
