package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch <source>",
		Short: "Download an upstream skill listing",
		Long: `Download every record of an upstream listing and write it, deduplicated
and sorted, to <data-dir>/source-<name>.json.

Sources: ` + strings.Join([]string{source.SkillsSh, source.SkillsDirectory}, ", ") + `

The custom list is maintained by hand and is never fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), args[0], refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached listing pages")
	return cmd
}

func (c *CLI) runFetch(ctx context.Context, name string, refresh bool) error {
	lister, err := c.registry(refresh).Lookup(name)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	c.Logger.Info("Fetching listing", "source", name)

	recs, err := source.Collect(lister.List(ctx))
	if err != nil {
		return err
	}

	path := c.Config.SourceFile(source.FileName(name))
	if err := source.WriteList(path, recs); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInternal, err, "write %s", path)
	}
	prog.done("Fetched listing", "source", name, "records", len(recs))

	printSuccess("Wrote %s records from %s", StyleNumber.Render(strconv.Itoa(len(recs))), StyleHighlight.Render(name))
	printFile(path)
	return nil
}
