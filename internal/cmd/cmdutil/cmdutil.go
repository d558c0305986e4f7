// Package cmdutil holds the setup shared by the wikiconv commands: global
// flags, configuration, logging, the page store and the engine.
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wikiconv/internal/config"
	"github.com/open-cli-collective/wikiconv/internal/logging"
	"github.com/open-cli-collective/wikiconv/internal/view"
	"github.com/open-cli-collective/wikiconv/pkg/engine"
	"github.com/open-cli-collective/wikiconv/pkg/store"
)

// Globals are the persistent flags of the root command.
type Globals struct {
	ConfigPath string
	Output     string
	NoColor    bool
	LogLevel   string
}

// GlobalsFrom reads the persistent flags. Unset flags keep their zero
// values.
func GlobalsFrom(cmd *cobra.Command) Globals {
	var g Globals
	g.ConfigPath, _ = cmd.Flags().GetString("config")
	g.Output, _ = cmd.Flags().GetString("output")
	g.NoColor, _ = cmd.Flags().GetBool("no-color")
	g.LogLevel, _ = cmd.Flags().GetString("log-level")
	return g
}

// Path returns the --config path or the default location.
func (g Globals) Path() string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	return config.DefaultConfigPath()
}

// LoadConfig loads and validates the configuration. The --output and
// --log-level flags take precedence over the file and environment.
func LoadConfig(g Globals) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(g.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if g.Output != "" {
		cfg.OutputFormat = g.Output
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if err := view.ValidateFormat(cfg.OutputFormat); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewLogger installs the global logger for cfg. Logs go to w.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	return logging.Init(w, level, format)
}

// NewStore returns the page store cfg names, or nil when it names none.
func NewStore(cfg *config.Config) store.Store {
	switch {
	case cfg.PagesDir != "":
		return store.NewDir(cfg.PagesDir)
	case cfg.RemoteURL != "":
		return store.NewHTTP(cfg.RemoteURL, cfg.RemoteUser, cfg.RemoteToken)
	}
	return nil
}

// NewEngine builds an engine over the configured store.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	env := engine.Environment{
		Store:     NewStore(cfg),
		Interwiki: cfg.Interwiki,
		Base:      cfg.LinkBase,
		Logger:    logger,
	}
	eng, err := engine.New(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}

// Setup loads the configuration and builds the logger and engine, in that
// order.
func Setup(cmd *cobra.Command) (*config.Config, *engine.Engine, error) {
	cfg, err := LoadConfig(GlobalsFrom(cmd))
	if err != nil {
		return nil, nil, err
	}
	eng, err := NewEngine(cfg, NewLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, err
	}
	return cfg, eng, nil
}

// ReadInput reads the named file, or stdin for "" and "-".
func ReadInput(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// TypeFromPath guesses an input format name from a file extension. It
// returns "" when the extension is unknown.
func TypeFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := store.Extensions[ext]; ok {
		return t.String()
	}
	return ""
}
