/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
    "context"
    "fmt"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

// pruneLockKey serializes pruning across replicas sharing one Postgres.
const pruneLockKey int64 = 7311001

type service interface { PruneRecords(ctx context.Context) (int64, error) }

type Cron struct {
    cfg    config.Config
    log    zerolog.Logger
    svc    service
    locker repo.Locker
    c      *cron.Cron
}

// NewCron schedules record pruning. locker may be nil for single-process stores.
func NewCron(cfg config.Config, log zerolog.Logger, svc service, locker repo.Locker) (*Cron, error) {
    loc, err := time.LoadLocation(cfg.TZ)
    if err != nil { loc = time.UTC }
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log.With().Str("component", "cron").Logger(), svc: svc, locker: locker, c: c}
    if _, err := c.AddFunc(cfg.PruneCron, cr.prune); err != nil { return nil, fmt.Errorf("prune schedule %q: %w", cfg.PruneCron, err) }
    return cr, nil
}

func (cr *Cron) Start(){ cr.c.Start() }
func (cr *Cron) Stop(){ <-cr.c.Stop().Done() }

func (cr *Cron) prune(){
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute); defer cancel()
    if cr.locker != nil {
        ok, err := cr.locker.TryAdvisoryLock(ctx, pruneLockKey)
        if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
        if !ok { cr.log.Info().Msg("cron: already running elsewhere"); return }
        defer func(){ _ = cr.locker.AdvisoryUnlock(context.Background(), pruneLockKey) }()
    }
    n, err := cr.svc.PruneRecords(ctx)
    if err != nil { cr.log.Error().Err(err).Msg("cron: prune failed"); return }
    cr.log.Info().Int64("removed", n).Msg("cron: pruned publish records")
}
