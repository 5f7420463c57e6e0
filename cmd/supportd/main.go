// Command supportd serves the customer support API and, optionally, the
// web chat UI.
//
//	supportd -config supportmesh.yaml
//	supportd -query "Where is my order ORD-1?"
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/supportmesh"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "supportd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	query := flag.String("query", "", "answer a single query and exit")
	ui := flag.Bool("ui", false, "also serve the web chat UI")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *ui {
		cfg.UI.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sm, err := supportmesh.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer sm.Close()

	if *query != "" {
		answer, err := sm.Support().Chat(ctx, *query)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	logger := sm.Logger()

	errCh := make(chan error, 2)

	api := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      sm.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("supportd.api.listen", "addr", api.Addr)
		errCh <- server.Serve(ctx, api, cfg.Server.ShutdownTimeout)
	}()

	servers := 1
	if cfg.UI.Enabled {
		servers++
		web := &http.Server{
			Addr:        cfg.UI.Addr,
			Handler:     sm.UIHandler(),
			ReadTimeout: cfg.Server.ReadTimeout,
		}
		go func() {
			logger.Info("supportd.ui.listen", "addr", web.Addr, "backend", cfg.UI.BackendURL)
			errCh <- server.Serve(ctx, web, cfg.Server.ShutdownTimeout)
		}()
	}

	var firstErr error
	for i := 0; i < servers; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			stop()
		}
	}

	logger.Info("supportd.stopped")
	return firstErr
}
