package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bholykov/pdstage/internal/api"
	"github.com/bholykov/pdstage/internal/checker"
	"github.com/bholykov/pdstage/internal/config"
)

func main() {
	cfgPath := flag.String("config", "configs/check.yaml", "Path to check YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	serve := flag.Bool("serve", false, "Run as an HTTP service instead of a one-shot check")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// ── Build checker (parse → resolve → verify) ─────────────────────────────
	chk, err := checker.New(cfg)
	if err != nil {
		slog.Error("patch verification failed to build", "patch", cfg.Patch.Path, "err", err)
		os.Exit(1)
	}
	rep := chk.Report()
	slog.Info("patch verified", "patch", cfg.Patch.Path, "run_id", rep.RunID,
		"values", len(rep.Values), "findings", len(rep.Findings), "passed", rep.Passed)

	if !*serve {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		if !rep.Passed {
			os.Exit(1)
		}
		return
	}

	// ── Config hot-reload ─────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.CheckConfig) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		rep, err := chk.SwapConfig(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped: rebuild failed", "err", err)
			return
		}
		slog.Info("config hot-reloaded", "run_id", rep.RunID, "passed", rep.Passed)
	})
	stopCfgWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopCfgWatch()
	}

	// ── Patch file watcher ────────────────────────────────────────────────────
	if cfg.Patch.Watch {
		stopPatchWatch, err := chk.Watch()
		if err != nil {
			slog.Warn("patch watcher unavailable (re-verify on edit disabled)", "err", err)
		} else {
			defer stopPatchWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(chk, loader)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutMs) * time.Millisecond,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye")
}
