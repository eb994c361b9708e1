package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/skillpkgs/pkg/pipeline"
)

// combineCommand creates the combine command.
func (c *CLI) combineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Merge shard artifacts into the catalog",
		Long: `Merge every stored shard artifact over the current catalog, write the
catalog partitions to <data-dir>/by-name/<prefix>/skills.json, and remove
the artifacts.

Entries absent from all shards are kept. Fails with NO_SHARD_ARTIFACTS when
no shard has been stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			arts, err := c.artifactStore(ctx)
			if err != nil {
				return err
			}

			res, err := pipeline.Combine(ctx, c.catalogStore(), arts, c.Logger)
			if err != nil {
				return err
			}

			printSuccess("Combined %s shards into %s entries",
				StyleNumber.Render(strconv.Itoa(res.Artifacts)), StyleNumber.Render(strconv.Itoa(res.Entries)))
			printDetail("%d partitions in %s", len(res.Partitions), c.Config.CatalogDir())
			return nil
		},
	}
}
