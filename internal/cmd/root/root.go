// Package root provides the root command for the wikiconv CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/cmd/completion"
	"github.com/open-cli-collective/wikiconv/internal/cmd/configcmd"
	"github.com/open-cli-collective/wikiconv/internal/cmd/convert"
	"github.com/open-cli-collective/wikiconv/internal/cmd/converters"
	"github.com/open-cli-collective/wikiconv/internal/cmd/refs"
	"github.com/open-cli-collective/wikiconv/internal/version"
)

// NewCmdRoot creates the root command for wikiconv.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikiconv",
		Short: "Convert wiki markup between formats",
		Long: `wikiconv converts documents between wiki markup dialects and output
formats through a shared document tree.

Inputs: moin wiki, creole, markdown, reStructuredText, mediawiki, csv,
html, docbook and plain text. Outputs: html, plain text, moin wiki and
markdown. Passes expand macros and includes, resolve links, replace
smileys and highlight code between parsing and output.

Get started by running: wikiconv convert --help`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/wikiconv/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format for listings: table, json, plain")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	cmd.SetVersionTemplate("wikiconv version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	cmd.AddCommand(convert.NewCmdConvert())
	cmd.AddCommand(converters.NewCmdConverters())
	cmd.AddCommand(refs.NewCmdRefs())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
