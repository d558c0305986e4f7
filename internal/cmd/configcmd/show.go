package configcmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current wikiconv configuration with the source of each value.`,
		Example: `  # Show current config
  wikiconv config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runShow(path string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}

	// The file may not exist.
	fileCfg, fileErr := config.Load(path)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue, envVar string) {
		_, _ = bold.Fprintf(w, "%-14s", label+":")
		if value == "" {
			_, _ = dim.Fprintln(w, "-")
			return
		}

		display := value
		if strings.Contains(strings.ToLower(label), "token") && len(value) > 8 {
			display = value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
		}
		fmt.Fprint(w, display)

		source := "config"
		switch {
		case os.Getenv(envVar) != "":
			source = envVar
		case fileErr != nil, fileValue != value:
			source = "-"
		}
		_, _ = dim.Fprintf(w, "  (source: %s)\n", source)
	}

	printField("Pages dir", cfg.PagesDir, fileCfg.PagesDir, "WIKICONV_PAGES_DIR")
	printField("Remote URL", cfg.RemoteURL, fileCfg.RemoteURL, "WIKICONV_REMOTE_URL")
	printField("Remote user", cfg.RemoteUser, fileCfg.RemoteUser, "WIKICONV_REMOTE_USER")
	printField("Remote token", cfg.RemoteToken, fileCfg.RemoteToken, "WIKICONV_REMOTE_TOKEN")
	printField("From", cfg.From(), fileCfg.From(), "WIKICONV_FROM")
	printField("To", cfg.To(), fileCfg.To(), "WIKICONV_TO")
	printField("Passes", strings.Join(cfg.Passes, ","), strings.Join(fileCfg.Passes, ","), "WIKICONV_PASSES")
	printField("Link base", cfg.LinkBase, fileCfg.LinkBase, "WIKICONV_LINK_BASE")
	printField("Log level", cfg.LogLevel, fileCfg.LogLevel, "WIKICONV_LOG_LEVEL")
	printField("Log format", cfg.LogFormat, fileCfg.LogFormat, "WIKICONV_LOG_FORMAT")
	printField("Output", cfg.OutputFormat, fileCfg.OutputFormat, "WIKICONV_OUTPUT")

	if len(cfg.Interwiki) > 0 {
		_, _ = bold.Fprintln(w, "Interwiki:")
		names := make([]string, 0, len(cfg.Interwiki))
		for name := range cfg.Interwiki {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %s\n", name, cfg.Interwiki[name])
		}
	}

	fmt.Fprintln(w)
	_, _ = dim.Fprintf(w, "Config file: %s\n", path)
	if fileErr != nil {
		_, _ = dim.Fprintln(w, "(file not found)")
	}

	return nil
}
