/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/po-assist/internal/adapters/anthropic"
    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/adapters/openai"
    "github.com/HamedShams/po-assist/internal/adapters/telegram"
    "github.com/HamedShams/po-assist/internal/config"
    httpapi "github.com/HamedShams/po-assist/internal/http"
    "github.com/HamedShams/po-assist/internal/jobs"
    "github.com/HamedShams/po-assist/internal/logger"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/rs/zerolog"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // Storage
    store, err := repo.Open(ctx, cfg, log)
    if err != nil { log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("store open failed") }
    defer store.Close()

    // Adapters
    jc := jira.NewClient(cfg, log)
    tg := telegram.NewClient(cfg, log)
    if !jc.Configured() { log.Warn().Msg("jira not configured; publish endpoints will fail until JIRA_* is set") }

    // Services
    svc := services.New(cfg, log, store, jc, newCompleter(cfg, log), tg)

    router := httpapi.NewRouter(cfg, log, svc)
    srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

    // Cron
    locker, _ := store.(repo.Locker)
    cron, err := jobs.NewCron(cfg, log, svc, locker)
    if err != nil { log.Fatal().Err(err).Msg("cron setup failed") }
    cron.Start()
    defer cron.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() {
        log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("http listening")
        errCh <- srv.ListenAndServe()
    }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil && !errors.Is(err, http.ErrServerClosed) { log.Error().Err(err).Msg("http server error") }
    }

    shCtx, shCancel := context.WithTimeout(context.Background(), 15*time.Second); defer shCancel()
    if err := srv.Shutdown(shCtx); err != nil { log.Error().Err(err).Msg("http shutdown") }
}

// newCompleter picks the LLM adapter named by LLM_PROVIDER.
func newCompleter(cfg config.Config, log zerolog.Logger) services.Completer {
    switch cfg.LLMProvider {
    case "anthropic":
        return anthropic.NewClient(cfg, log)
    default:
        return openai.NewClient(cfg, log)
    }
}
