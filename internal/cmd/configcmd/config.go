// Package configcmd provides config management commands.
package configcmd

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/cmd/cmdutil"
)

// NewCmdConfig creates the config command.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wikiconv configuration",
		Long:  `Commands for viewing, testing, and clearing wikiconv configuration.`,
	}

	cmd.AddCommand(NewCmdShow())
	cmd.AddCommand(NewCmdTest())
	cmd.AddCommand(NewCmdClear())

	return cmd
}

// envVars lists the environment variables that override the file.
var envVars = []string{
	"WIKICONV_PAGES_DIR", "WIKICONV_REMOTE_URL", "WIKICONV_REMOTE_USER", "WIKICONV_REMOTE_TOKEN",
	"WIKICONV_FROM", "WIKICONV_TO", "WIKICONV_PASSES", "WIKICONV_LINK_BASE",
	"WIKICONV_LOG_LEVEL", "WIKICONV_LOG_FORMAT", "WIKICONV_OUTPUT",
}

func configPath(cmd *cobra.Command) string {
	return cmdutil.GlobalsFrom(cmd).Path()
}
