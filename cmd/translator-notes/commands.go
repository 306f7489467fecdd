package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"translator-notes/internal/app"
	"translator-notes/internal/httpapi"
	"translator-notes/internal/scheduler"
	"translator-notes/internal/tui"
)

func open(g *Globals) (context.Context, context.CancelFunc, *app.App, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.Build(ctx, g.Config, g.Logger)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, a, nil
}

type ServeCmd struct {
	Addr string `name:"addr" help:"Listen address (overrides server.addr)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()

	if err := a.IngestInitial(ctx); err != nil {
		return err
	}
	if schedule := g.Config.Ingest.Schedule; schedule != "" {
		s, err := scheduler.New(schedule, g.Config.Ingest.Paths, a.Service, g.Logger)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop(context.Background())
	}

	addr := g.Config.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(a.Service, httpapi.Options{
			StaticDir:   g.Config.Server.StaticDir,
			CORSOrigins: g.Config.Server.CORSOrigins,
			Logger:      g.Logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		g.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	g.Logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

type IngestCmd struct {
	Paths []string `arg:"" required:"" help:"Example-note .tsv files or folders" type:"path"`
}

func (c *IngestCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	files, added, err := a.Service.Ingest(ctx, c.Paths)
	if err != nil {
		return err
	}
	fmt.Printf("Documents embedded successfully: %d files processed, %d documents added\n", files, added)
	return nil
}

type ClearCmd struct{}

func (c *ClearCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	if err := a.Service.ClearIndex(ctx); err != nil {
		return err
	}
	fmt.Println("Database cleared successfully")
	return nil
}

type VerseCmd struct {
	Reference []string `arg:"" required:"" help:"Verse reference, e.g. GEN 1:1"`
}

func (c *VerseCmd) Run(g *Globals) error {
	_, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	fmt.Println(a.Service.ResolveVerse(strings.Join(c.Reference, " ")))
	return nil
}

type QueryCmd struct {
	Text []string `arg:"" required:"" help:"Query text"`
	N    int      `name:"n" short:"n" default:"10" help:"Number of examples"`
}

func (c *QueryCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	res, err := a.Service.Retrieve(ctx, strings.Join(c.Text, " "), c.N)
	if err != nil {
		return err
	}
	for i, d := range res.Documents {
		fmt.Printf("%2d  %.4f  %-12s %s\n", i+1, res.Distances[i], d.Metadata.Reference, d.Note)
	}
	if len(res.TemplateDocs) > 0 {
		fmt.Println("\nTemplates:")
		for _, t := range res.TemplateDocs {
			fmt.Println("  " + t)
		}
	}
	return nil
}

type PromptCmd struct {
	Query     string `arg:"" help:"What the note should address"`
	Reference string `arg:"" help:"Verse reference"`
}

func (c *PromptCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	p, err := a.Service.AssemblePrompt(ctx, c.Query, c.Reference)
	if err != nil {
		return err
	}
	fmt.Print(p)
	return nil
}

type DraftCmd struct {
	Query     string `arg:"" help:"What the note should address"`
	Reference string `arg:"" help:"Verse reference"`
}

func (c *DraftCmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	out, err := a.Service.Draft(ctx, c.Query, c.Reference)
	if err != nil {
		return err
	}
	fmt.Println(a.Service.ResolveVerse(c.Reference))
	fmt.Println()
	fmt.Println(out)
	return nil
}

type TUICmd struct {
	Ingest bool `name:"ingest" default:"true" negatable:"" help:"Index data.initial_notes before starting"`
}

func (c *TUICmd) Run(g *Globals) error {
	ctx, cancel, a, err := open(g)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()
	if c.Ingest {
		if err := a.IngestInitial(ctx); err != nil {
			return err
		}
	}
	n, err := a.Service.IndexSize(ctx)
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("%d examples indexed, %d verses, %d templates", n, a.Verses.Len(), a.Templates.Len())
	_, err = tea.NewProgram(tui.New(a.Service, summary), tea.WithAltScreen()).Run()
	return err
}
