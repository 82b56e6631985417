// chessd-server is the HTTP-facing supervisor process: it spawns and
// supervises a chessd-engine child (and, best-effort, a secondary, stronger
// UCI engine) and exposes /api/health, /api/move, /api/move/status/:id, and
// /api/hint per the external interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arrowgate/chessd/pkg/httpapi"
	"github.com/arrowgate/chessd/pkg/supervisor"
	"github.com/seekerror/logw"
)

var configPath = flag.String("config", "", "Path to a TOML supervisor config file (defaults built in if empty)")

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: chessd-server [options]

chessd-server supervises one or two UCI engines and exposes them over HTTP.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := supervisor.LoadConfig(*configPath)
	if err != nil {
		logw.Exitf(ctx, "Failed to load config: %v", err)
	}

	sup, err := supervisor.New(ctx, cfg)
	if err != nil {
		logw.Exitf(ctx, "Failed to start supervisor: %v", err)
	}
	defer sup.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.New(sup),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logw.Infof(ctx, "chessd-server listening on %v", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logw.Exitf(ctx, "HTTP server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logw.Infof(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
