package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// CLI is the command line interface.
type CLI struct {
	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the portfolio web server."`
	Render RenderCmd `cmd:"" help:"Write the page as static HTML."`
	QR     QRCmd     `cmd:"" name:"qr" help:"Write a QR code PNG for one of the portfolio links."`
}

type ServeCmd struct{}

func (ServeCmd) Run(cfg *Config) error {
	gin.SetMode(cfg.GinMode)

	content, err := NewContentStore(cfg.ContentPath)
	if err != nil {
		return err
	}
	store, err := OpenStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	srv, err := NewServer(cfg, content, store, clock)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, err := NewJobs(ctx, srv, clock)
	if err != nil {
		return err
	}
	jobs.Start()
	defer func() {
		if err := jobs.Stop(); err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	if cfg.WatchContent && cfg.ContentPath != "" {
		go func() {
			if err := content.Watch(ctx); err != nil {
				slog.Error("Content watcher stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Portfolio listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	// Streams only end when their sessions close, so close them before draining.
	srv.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type RenderCmd struct {
	Out string `short:"o" default:"index.html" help:"Output file, - for stdout."`
}

func (r RenderCmd) Run(cfg *Config) error {
	content, err := NewContentStore(cfg.ContentPath)
	if err != nil {
		return err
	}
	store, err := OpenStore(":memory:")
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := NewServer(cfg, content, store, nil)
	if err != nil {
		return err
	}

	if r.Out == "-" {
		return srv.RenderStatic(os.Stdout)
	}
	f, err := os.Create(r.Out)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.Out, err)
	}
	if err := srv.RenderStatic(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type QRCmd struct {
	Name string `arg:"" help:"github, linkedin, email or app-N."`
	Out  string `short:"o" help:"Output file (default <name>.png)."`
	Size int    `default:"256" help:"Image size in pixels."`
}

func (q QRCmd) Run(cfg *Config) error {
	content, err := NewContentStore(cfg.ContentPath)
	if err != nil {
		return err
	}
	url, err := QRTarget(content.Get(), q.Name)
	if err != nil {
		return err
	}
	png, err := NewQRCache(nil).PNG(q.Name, url, q.Size)
	if err != nil {
		return err
	}
	out := q.Out
	if out == "" {
		out = q.Name + ".png"
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	slog.Info("QR code written", "name", q.Name, "url", url, "file", out)
	return nil
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	initLogger(cfg)

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("portfolio"),
		kong.Description("Personal portfolio server."),
		kong.Bind(cfg),
	)
	if err := kctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
