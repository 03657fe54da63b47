package main

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/spf13/cobra"
)

func newPushCommand(a *app) *cobra.Command {
	var (
		dir        string
		force      bool
		followTags bool
		prune      bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "push [flags] [<remote>] [<refspec>...]",
		Short: "Update remote refs along with associated objects",
		Long: `Updates remote refs using local refs, while sending objects
necessary to complete the given refs. Without refspecs every local
branch is pushed to the branch of the same name.`,
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

			opts := &git.PushOptions{
				RemoteName: remoteName,
				Force:      force,
				Prune:      prune,
				FollowTags: followTags,
			}
			for _, spec := range argsAfter(args, 1) {
				rs := gitconfig.RefSpec(spec)
				if err := rs.Validate(); err != nil {
					return fmt.Errorf("invalid refspec %q: %w", spec, err)
				}
				opts.RefSpecs = append(opts.RefSpecs, rs)
			}
			if !quiet {
				opts.Progress = cmd.ErrOrStderr()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pushing to %s\n", url)
			a.log.Info("pushing", "remote", remoteName, "url", url, "force", force)

			err = repo.PushContext(cmd.Context(), opts)
			if errors.Is(err, git.NoErrAlreadyUpToDate) {
				fmt.Fprintln(cmd.OutOrStdout(), "Everything up-to-date")
				return nil
			}
			if err != nil {
				return fmt.Errorf("push failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "repo", "C", ".", "Run as if started in this directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force updates even if they are not fast-forwards")
	cmd.Flags().BoolVar(&followTags, "follow-tags", false, "Also push annotated tags reachable from pushed commits")
	cmd.Flags().BoolVar(&prune, "prune", false, "Remove remote branches that have no local counterpart")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not report progress")

	return cmd
}
