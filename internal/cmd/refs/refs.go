// Package refs provides the refs command.
package refs

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wikiconv/internal/config"
	"github.com/open-cli-collective/wikiconv/internal/logging"
	"github.com/open-cli-collective/wikiconv/internal/view"
	"github.com/open-cli-collective/wikiconv/pkg/engine"
)

type refsOptions struct {
	from    string
	page    string
	output  string
	noColor bool
}

// NewCmdRefs creates the refs command.
func NewCmdRefs() *cobra.Command {
	opts := &refsOptions{}

	cmd := &cobra.Command{
		Use:   "refs [file|-]",
		Short: "List the references of a page",
		Long: `List the wiki links, transclusions and external links of a document.

Names are resolved against --page, so relative links come out absolute.`,
		Example: `  # References of a page
  wikiconv refs FrontPage.wiki --page FrontPage

  # As JSON
  wikiconv refs FrontPage.wiki -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			cfg, eng, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			input, err := cmdutil.ReadInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("from") {
				if t := cmdutil.TypeFromPath(path); t != "" {
					opts.from = t
				}
			}
			opts.output = cfg.OutputFormat
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runRefs(cmd.Context(), input, opts, cfg, eng, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "Input format")
	cmd.Flags().StringVarP(&opts.page, "page", "p", "", "Page name the input belongs to")

	return cmd
}

func runRefs(ctx context.Context, input string, opts *refsOptions, cfg *config.Config, eng *engine.Engine, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	fromName := opts.from
	if fromName == "" {
		fromName = cfg.From()
	}
	from, err := engine.LookupType(fromName)
	if err != nil {
		return fmt.Errorf("invalid input format %q: %w", fromName, err)
	}

	id := uuid.NewString()
	ctx = logging.WithConversionID(ctx, id)
	refs, err := eng.Refs(ctx, engine.Request{Input: input, From: from, Page: opts.page, ID: id})
	if err != nil {
		return fmt.Errorf("failed to collect references: %w", err)
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(w)
	if renderer.Format() == view.FormatJSON {
		return renderer.RenderJSON(refs)
	}
	renderer.RenderSection("Links", refs.Links)
	renderer.RenderSection("Transclusions", refs.Transclusions)
	renderer.RenderSection("External links", refs.ExternalLinks)
	return nil
}
