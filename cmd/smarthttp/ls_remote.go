package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/spf13/cobra"
)

func newLsRemoteCommand(a *app) *cobra.Command {
	var (
		heads bool
		tags  bool
	)

	cmd := &cobra.Command{
		Use:   "ls-remote [flags] <repository>",
		Short: "List references in a remote repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := normalizeURL(args[0])
			if err != nil {
				return err
			}

			remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
				Name: "origin",
				URLs: []string{url},
			})

			refs, err := remote.ListContext(cmd.Context(), &git.ListOptions{})
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", url, err)
			}
			a.log.V(1).Info("listed references", "url", url, "count", len(refs))

			hashes := make(map[plumbing.ReferenceName]plumbing.Hash, len(refs))
			for _, ref := range refs {
				if ref.Type() == plumbing.HashReference {
					hashes[ref.Name()] = ref.Hash()
				}
			}

			out := cmd.OutOrStdout()
			for _, ref := range sortRefs(refs) {
				name := ref.Name()
				if heads || tags {
					if !(heads && name.IsBranch()) && !(tags && name.IsTag()) {
						continue
					}
				}
				hash := ref.Hash()
				if ref.Type() == plumbing.SymbolicReference {
					target, ok := hashes[ref.Target()]
					if !ok {
						fmt.Fprintf(out, "ref: %s\t%s\n", ref.Target(), name)
						continue
					}
					hash = target
				}
				fmt.Fprintf(out, "%s\t%s\n", hash, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&heads, "heads", false, "Limit to refs/heads")
	cmd.Flags().BoolVarP(&tags, "tags", "t", false, "Limit to refs/tags")

	return cmd
}

// sortRefs orders HEAD first and the rest by name, as git ls-remote prints them
func sortRefs(refs []*plumbing.Reference) []*plumbing.Reference {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, func(x, y *plumbing.Reference) int {
		if x.Name() == plumbing.HEAD {
			return -1
		}
		if y.Name() == plumbing.HEAD {
			return 1
		}
		return cmp.Compare(x.Name(), y.Name())
	})
	return sorted
}
