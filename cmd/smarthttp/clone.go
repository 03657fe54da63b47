package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"
)

func newCloneCommand(a *app) *cobra.Command {
	var (
		bare   bool
		depth  int
		branch string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "clone [flags] <repository> [<directory>]",
		Short: "Clone a repository into a new directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := normalizeURL(args[0])
			if err != nil {
				return err
			}

			directory := directoryFromURL(url)
			if len(args) > 1 {
				directory = args[1]
			}

			if _, err := os.Stat(directory); err == nil {
				return fmt.Errorf("destination path '%s' already exists", directory)
			}

			if bare {
				fmt.Fprintf(cmd.OutOrStdout(), "Cloning into bare repository '%s'...\n", directory)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Cloning into '%s'...\n", directory)
			}

			opts := &git.CloneOptions{
				URL:   url,
				Depth: depth,
			}
			if branch != "" {
				opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
				opts.SingleBranch = true
			}
			if !quiet {
				opts.Progress = cmd.ErrOrStderr()
			}

			a.log.Info("cloning", "url", url, "directory", directory, "bare", bare)
			if _, err := git.PlainCloneContext(cmd.Context(), directory, bare, opts); err != nil {
				return fmt.Errorf("clone failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "Create a bare repository")
	cmd.Flags().IntVar(&depth, "depth", 0, "Create a shallow clone with truncated history")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Checkout specific branch instead of the remote HEAD")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not report progress")

	return cmd
}
