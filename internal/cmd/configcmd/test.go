package configcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wikiconv/internal/config"
	"github.com/open-cli-collective/wikiconv/internal/view"
	"github.com/open-cli-collective/wikiconv/pkg/store"
)

const testTimeout = 10 * time.Second

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the configuration and page store",
		Long: `Validate the wikiconv configuration and check that the configured page
store can list pages.`,
		Example: `  # Test configuration
  wikiconv config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			cfg, err := cmdutil.LoadConfig(cmdutil.GlobalsFrom(cmd))
			if err != nil {
				return err
			}
			return runTest(cmd.Context(), cfg, noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runTest(ctx context.Context, cfg *config.Config, noColor bool, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r := view.NewRenderer(view.FormatTable, noColor)
	r.SetWriter(w)

	if err := cfg.Validate(); err != nil {
		r.Error("Invalid configuration: " + err.Error())
		return fmt.Errorf("invalid config: %w", err)
	}
	r.Success("Configuration valid")

	s := cmdutil.NewStore(cfg)
	if s == nil {
		r.RenderText("\nNo page store configured; includes and page listings are disabled.")
		return nil
	}

	where := cfg.PagesDir
	if where == "" {
		where = cfg.RemoteURL
	}
	r.RenderText(fmt.Sprintf("Listing pages in %s...", where))

	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	names, err := s.List(ctx, "")
	switch {
	case errors.Is(err, store.ErrForbidden):
		r.Error("Access denied")
		r.RenderText("\nCheck your credentials with: wikiconv config show")
		return fmt.Errorf("access denied: %w", err)
	case err != nil:
		r.Error("Page store unavailable: " + err.Error())
		return fmt.Errorf("page store unavailable: %w", err)
	}

	r.Success(fmt.Sprintf("Page store reachable (%d pages)", len(names)))
	return nil
}
