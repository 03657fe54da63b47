package main

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/spf13/cobra"
)

func newFetchCommand(a *app) *cobra.Command {
	var (
		dir   string
		tags  bool
		prune bool
		depth int
		force bool
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [flags] [<remote>] [<refspec>...]",
		Short: "Download objects and refs from another repository",
		Long: `Fetch branches and/or tags from a remote, along with the objects
necessary to complete their histories. Remote-tracking branches are updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(dir)
			if err != nil {
				return err
			}

			remoteName := git.DefaultRemoteName
			if len(args) > 0 {
				remoteName = args[0]
			}

			url, err := remoteURL(repo, remoteName)
			if err != nil {
				return err
			}

			opts := &git.FetchOptions{
				RemoteName: remoteName,
				Depth:      depth,
				Force:      force,
				Prune:      prune,
			}
			for _, spec := range argsAfter(args, 1) {
				opts.RefSpecs = append(opts.RefSpecs, gitconfig.RefSpec(spec))
			}
			if tags {
				opts.Tags = git.AllTags
			}
			if !quiet {
				opts.Progress = cmd.ErrOrStderr()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Fetching from %s (%s)\n", remoteName, url)
			a.log.Info("fetching", "remote", remoteName, "url", url)

			err = repo.FetchContext(cmd.Context(), opts)
			if errors.Is(err, git.NoErrAlreadyUpToDate) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already up to date.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "repo", "C", ".", "Run as if started in this directory")
	cmd.Flags().BoolVar(&tags, "tags", false, "Fetch all tags from the remote")
	cmd.Flags().BoolVar(&prune, "prune", false, "Prune remote-tracking branches no longer on remote")
	cmd.Flags().IntVar(&depth, "depth", 0, "Limit fetching to the specified number of commits")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Allow non-fast-forward updates of local refs")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not report progress")

	return cmd
}

func argsAfter(args []string, n int) []string {
	if len(args) <= n {
		return nil
	}
	return args[n:]
}
