package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MorrisonWill/willmorrison.com/internal/content"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/server"
	"github.com/MorrisonWill/willmorrison.com/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site over HTTP",
	Long: `The serve command starts a web server for the site.

In development mode (the default) every request re-reads and re-renders its
Markdown file and templates are never cached. In production mode
(--mode production or SITE_MODE=production) pages are served from the last
build; pass --watch to build first and rebuild whenever content, templates,
or public files change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, &application, application.cfg.Port, watchFlag(cmd))
	},
}

func watchFlag(cmd *cobra.Command) bool {
	w, _ := cmd.Flags().GetBool("watch")
	return w
}

func runServer(ctx context.Context, a *app, port int, watchChanges bool) error {
	if watchChanges {
		if a.mode == model.ModeProduction {
			if err := startWatching(ctx, a); err != nil {
				return err
			}
		} else {
			a.log.Info("--watch has no effect in development mode; pages are rendered on every request")
		}
	}

	r := a.renderer()
	resolver := content.NewResolver(a.fs, a.layout, a.mode, r, a.log)
	lister := content.NewLister(a.fs, a.layout, r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.New(a.fs, a.layout, resolver, lister, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server running", "addr", "http://localhost"+srv.Addr, "mode", a.mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startWatching performs an initial build and rebuilds in the background
// until ctx is cancelled.
func startWatching(ctx context.Context, a *app) error {
	a.log.Info("performing initial build")
	if _, err := runBuildProcess(ctx, a); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	w := &watch.Watcher{
		Paths: []string{
			a.osPath(a.layout.ContentDir),
			a.osPath(a.layout.TemplatesDir),
			a.osPath(a.layout.PublicDir),
		},
		Debounce: watch.DefaultDebounce,
		Rebuild: func(ctx context.Context) error {
			_, err := runBuildProcess(ctx, a)
			return err
		},
		Log: a.log,
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.log.Error("watcher stopped", "error", err)
		}
	}()
	return nil
}

func init() {
	serveCmd.Flags().IntP("port", "p", 3000, "port to serve the site on")
	serveCmd.Flags().String("mode", "development", "render mode: development or production")
	serveCmd.Flags().Bool("watch", false, "in production mode, build first and rebuild on changes")
	rootCmd.AddCommand(serveCmd)
}
