// Package convert provides the convert command.
package convert

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

type convertOptions struct {
	from     string
	to       string
	page     string
	passes   []string
	noPasses bool
	warnings bool
	output   string
	noColor  bool
}

// NewCmdConvert creates the convert command.
func NewCmdConvert() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert markup between formats",
		Long: `Convert a document from one markup format to another.

The input is read from the file argument, or from stdin when it is omitted
or "-". The input format defaults to the one matching the file extension,
then to default_from in the config. Passes run in the order given.

With --warnings the markup problems the parser recovered from are written to
stderr after the output.`,
		Example: `  # Render a wiki page as HTML
  wikiconv convert FrontPage.wiki --to html

  # Convert creole on stdin to markdown without expanding macros
  cat page.txt | wikiconv convert --from creole --to markdown --pass links

  # Expand includes from the configured page store
  wikiconv convert Home.wiki --page Home --pass includes,macros,links

  # Report markup problems
  wikiconv convert notes.rst --to wiki --warnings`,
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
			return runConvert(cmd.Context(), input, opts, cfg, eng, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "Input format (wiki, creole, markdown, rst, mediawiki, csv, html, docbook, text or a MIME type)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Output format (html, text, wiki, markdown or a MIME type)")
	cmd.Flags().StringVarP(&opts.page, "page", "p", "", "Page name the input belongs to, used for relative links and includes")
	cmd.Flags().StringSliceVar(&opts.passes, "pass", nil, "Passes to run in order: "+fmt.Sprint(engine.PassNames()))
	cmd.Flags().BoolVar(&opts.noPasses, "no-passes", false, "Run no passes, overriding the configured list")
	cmd.Flags().BoolVar(&opts.warnings, "warnings", false, "Report markup problems on stderr")

	return cmd
}

// passList returns the flag list, the configured list or the defaults.
func (o *convertOptions) passList(cfg *config.Config) []string {
	switch {
	case o.noPasses:
		return nil
	case len(o.passes) > 0:
		return o.passes
	case len(cfg.Passes) > 0:
		return cfg.Passes
	}
	return engine.DefaultPasses
}

func runConvert(ctx context.Context, input string, opts *convertOptions, cfg *config.Config, eng *engine.Engine, w, errW io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fromName, toName := opts.from, opts.to
	if fromName == "" {
		fromName = cfg.From()
	}
	if toName == "" {
		toName = cfg.To()
	}
	from, err := engine.LookupType(fromName)
	if err != nil {
		return fmt.Errorf("invalid input format %q: %w", fromName, err)
	}
	to, err := engine.LookupType(toName)
	if err != nil {
		return fmt.Errorf("invalid output format %q: %w", toName, err)
	}

	id := uuid.NewString()
	ctx = logging.WithConversionID(ctx, id)
	logging.FromContext(ctx).Debug("converting", "from", from.String(), "to", to.String())

	req := engine.Request{
		Input:  input,
		From:   from,
		To:     to,
		Page:   opts.page,
		Passes: opts.passList(cfg),
		ID:     id,
	}
	out, err := eng.Convert(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to convert: %w", err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return err
	}
	if !opts.warnings {
		return nil
	}

	warnings, err := eng.Warnings(req)
	if err != nil {
		return err
	}
	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(errW)
	for _, msg := range warnings {
		renderer.RenderKeyValue("warning", msg)
	}
	return nil
}
