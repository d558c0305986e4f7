package main

import (
	"os"

	"github.com/open-cli-collective/wikiconv/internal/cmd/root"
	"github.com/open-cli-collective/wikiconv/internal/view"
)

func main() {
	cmd := root.NewCmdRoot()
	if err := cmd.Execute(); err != nil {
		noColor, _ := cmd.PersistentFlags().GetBool("no-color")
		r := view.NewRenderer(view.FormatTable, noColor)
		r.SetWriter(os.Stderr)
		r.Error(err.Error())
		os.Exit(1)
	}
}
