package cli

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/pipeline"
	"github.com/matzehuels/skillpkgs/pkg/shard"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update [index/total]",
		Short: "Pin the listed skills of one shard to current revisions",
		Long: `Resolve, fetch, and locate every listed skill whose repository falls into
the given shard, and store the resulting catalog entries as a shard artifact.

Repositories are split into contiguous blocks in sorted order, so N jobs
running "update 1/N" through "update N/N" together cover every repository
exactly once. Without an argument the whole listing is processed.

Run "combine" once every shard has finished.`,
		Example: `  skillpkgs update
  skillpkgs update 3/8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			spec, err := shard.Parse(raw)
			if err != nil {
				return err
			}
			return c.runUpdate(cmd.Context(), spec)
		},
	}
}

func (c *CLI) runUpdate(ctx context.Context, spec shard.Spec) error {
	lists, err := c.readLists()
	if err != nil {
		return err
	}

	baseline, err := c.catalogStore().Load()
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded catalog", "dir", c.Config.CatalogDir(), "entries", len(baseline))

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	arts, err := c.artifactStore(ctx)
	if err != nil {
		return err
	}

	res, err := runner.Update(ctx, baseline, spec, lists...)
	if err != nil {
		return err
	}
	if err := arts.Put(ctx, res.Artifact()); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInternal, err, "store shard %s", spec)
	}

	printUpdateSummary(res)
	return nil
}

// readLists reads the source list files, custom first. A missing file is
// skipped with a warning.
func (c *CLI) readLists() ([][]source.Record, error) {
	var lists [][]source.Record
	for _, file := range c.registry(false).Files() {
		path := c.Config.SourceFile(file)
		recs, err := source.ReadList(path)
		if err != nil {
			return nil, err
		}
		if recs == nil {
			c.Logger.Warn("source list missing", "path", path)
			continue
		}
		c.Logger.Debug("read source list", "path", path, "records", len(recs))
		lists = append(lists, recs)
	}
	return lists, nil
}

func printUpdateSummary(res *pipeline.Result) {
	printSuccess("Shard %s: %s entries from %s repositories",
		StyleHighlight.Render(res.Shard.String()),
		StyleNumber.Render(strconv.Itoa(len(res.Entries))),
		StyleNumber.Render(strconv.Itoa(len(res.Repositories))))
	printOutcomes(res.Stats.Outcomes)
	printDetail("%d resolutions · %d fetches · %d manifest lookups · %s",
		res.Stats.Resolutions, res.Stats.Fetches, res.Stats.Locates, res.Stats.Duration.Round(time.Millisecond))

	for _, repo := range slices.Sorted(maps.Keys(res.Failed)) {
		printWarning("%s: %s", repo, skerrors.UserMessage(res.Failed[repo]))
	}
}
