package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httptransport "zekken/internal/http"
	"zekken/internal/http/handlers"
	"zekken/internal/modules/suggest"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session API for a local front end",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from ZEKKEN_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	provider, err := a.suggestions()
	if err != nil {
		return err
	}

	hub := handlers.NewHub(a.log)
	unsubscribe := a.search.Subscribe(hub.PublishState)
	defer unsubscribe()

	fetcher := suggest.NewFetcher(provider, a.search, hub.PublishSuggestions, a.log,
		suggest.WithDebounce(a.cfg.Suggest.Debounce))
	defer fetcher.Close()

	addr := a.cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	server := &http.Server{
		Addr: addr,
		Handler: httptransport.NewRouter(httptransport.RouterDeps{
			Search:      a.search,
			Suggest:     fetcher,
			Hub:         hub,
			Log:         a.log,
			RateLimit:   a.cfg.HTTP.RateLimit,
			RateBurst:   a.cfg.HTTP.RateBurst,
			CORSOrigins: a.cfg.HTTP.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	// Event streams end when the server starts shutting down.
	server.BaseContext = func(net.Listener) context.Context { return gctx }
	g.Go(func() error {
		a.log.Info("listening", "addr", addr, "store", a.cfg.Store.Driver)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
