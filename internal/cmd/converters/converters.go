// Package converters provides the converters command.
package converters

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wikiconv/internal/view"
	"github.com/open-cli-collective/wikiconv/pkg/engine"
	"github.com/open-cli-collective/wikiconv/pkg/registry"
)

type convertersOptions struct {
	kind    string
	output  string
	noColor bool
}

// NewCmdConverters creates the converters command.
func NewCmdConverters() *cobra.Command {
	opts := &convertersOptions{}

	cmd := &cobra.Command{
		Use:   "converters",
		Short: "List registered converters",
		Long: `List the parsers, passes and serializers in lookup order.

Entries are tried top to bottom; the first whose input and output patterns
cover a request and whose factory accepts it wins.`,
		Example: `  # List everything
  wikiconv converters

  # Only parsers, as JSON
  wikiconv converters --kind parser -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, eng, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.output = cfg.OutputFormat
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runConverters(opts, eng, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "Only list one kind: parser, pass or serializer")

	return cmd
}

func rows[C any](kind string, entries []registry.Entry[C]) [][]string {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, []string{kind, e.Name, e.In.String(), e.Out.String(), e.Priority.String()})
	}
	return out
}

func runConverters(opts *convertersOptions, eng *engine.Engine, w io.Writer) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}

	var table [][]string
	if opts.kind == "" || opts.kind == "parser" {
		table = append(table, rows("parser", eng.Parsers().Entries())...)
	}
	if opts.kind == "" || opts.kind == "pass" {
		table = append(table, rows("pass", eng.Passes().Entries())...)
	}
	if opts.kind == "" || opts.kind == "serializer" {
		table = append(table, rows("serializer", eng.Serializers().Entries())...)
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(w)
	renderer.RenderTable([]string{"KIND", "NAME", "IN", "OUT", "PRIORITY"}, table)
	return nil
}
