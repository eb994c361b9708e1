package cli

import (
	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/revision"
	"github.com/matzehuels/skillpkgs/pkg/snapshot"
)

// cleanCacheCommand creates the clean-cache command.
func (c *CLI) cleanCacheCommand() *cobra.Command {
	var store bool

	cmd := &cobra.Command{
		Use:   "clean-cache",
		Short: "Remove the git clone cache",
		Long: `Remove the directory holding shallow clones made when the GitHub API could
not resolve a revision. With --store, also remove the local snapshot store
and its file index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.Config.CloneCacheDir
			if err := revision.Clean(dir); err != nil {
				return skerrors.Wrap(skerrors.ErrCodeInternal, err, "remove %s", dir)
			}
			printSuccess("Removed clone cache")
			printDetail("Directory: %s", dir)

			if !store {
				return nil
			}
			if err := snapshot.NewArchivePrefetcher(c.fs, c.Config.StoreDir, nil, nil, nil).Clean(); err != nil {
				return skerrors.Wrap(skerrors.ErrCodeInternal, err, "remove %s", c.Config.StoreDir)
			}
			if err := c.fs.RemoveAll(c.Config.IndexDir()); err != nil {
				return skerrors.Wrap(skerrors.ErrCodeInternal, err, "remove %s", c.Config.IndexDir())
			}
			printSuccess("Removed snapshot store")
			printDetail("Directory: %s", c.Config.StoreDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "also remove the snapshot store")
	return cmd
}
