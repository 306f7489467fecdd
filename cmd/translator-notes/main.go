// Command translator-notes drafts Bible translation notes from retrieved
// examples and serves the notes API.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"translator-notes/internal/config"
	"translator-notes/internal/logging"
)

// Globals is handed to every command's Run method.
type Globals struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// CLI defines the command-line interface using Kong.
var CLI struct {
	Config   string `name:"config" short:"c" help:"Config file (default: ./config.yaml or ~/.config/translator-notes/config.yaml)" type:"path"`
	LogLevel string `name:"log-level" help:"Override logging.level (debug, info, warn, error)"`

	Serve  ServeCmd  `cmd:"" help:"Run the HTTP API and frontend"`
	Ingest IngestCmd `cmd:"" help:"Index example-note .tsv files or folders"`
	Clear  ClearCmd  `cmd:"" help:"Delete every indexed example"`
	Verse  VerseCmd  `cmd:"" help:"Resolve a verse reference"`
	Query  QueryCmd  `cmd:"" help:"Show the examples nearest to a query"`
	Prompt PromptCmd `cmd:"" help:"Print the assembled generator prompt"`
	Draft  DraftCmd  `cmd:"" help:"Draft a translation note"`
	TUI    TUICmd    `cmd:"" name:"tui" help:"Interactive drafting client"`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("translator-notes"),
		kong.Description("Retrieval-augmented drafting of Bible translation notes"),
		kong.UsageOnError(),
	)

	var (
		cfg *config.AppConfig
		err error
	)
	if CLI.Config == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(CLI.Config)
	}
	ctx.FatalIfErrorf(err, "load config")
	if CLI.LogLevel != "" {
		cfg.Logging.Level = CLI.LogLevel
	}
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	ctx.FatalIfErrorf(err, "init logging")

	err = ctx.Run(&Globals{Config: cfg, Logger: logger})
	if err != nil {
		logger.Error("command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
