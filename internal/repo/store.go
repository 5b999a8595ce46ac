/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/rs/zerolog"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("repo: not found")

// InstallationStore is the tenant registry written by the add-on lifecycle hooks.
type InstallationStore interface {
    SaveInstallation(ctx context.Context, in domain.Installation) error
    GetInstallation(ctx context.Context, clientKey string) (*domain.Installation, error)
    DeleteInstallation(ctx context.Context, clientKey string) error
    SetInstallationEnabled(ctx context.Context, clientKey string, enabled bool) error
}

// PublishRecordStore maps candidate fingerprints to the issues they produced.
type PublishRecordStore interface {
    FindPublished(ctx context.Context, fingerprint string) (*domain.PublishRecord, error)
    SavePublished(ctx context.Context, rec domain.PublishRecord) error
    PrunePublished(ctx context.Context, before time.Time) (int64, error)
}

type Store interface {
    InstallationStore
    PublishRecordStore
    Close()
}

// Locker is implemented by stores that can coordinate jobs across replicas.
type Locker interface {
    TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
    AdvisoryUnlock(ctx context.Context, key int64) error
}

// Open picks the backend named by DB_DRIVER.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (Store, error) {
    switch cfg.DBDriver {
    case "postgres", "pgx":
        return OpenPostgres(ctx, cfg.DBDSN, log)
    case "sqlite", "":
        return OpenSQLite(cfg.DBDSN, log)
    case "memory":
        return NewMemory(), nil
    }
    return nil, fmt.Errorf("repo: unknown DB_DRIVER %q", cfg.DBDriver)
}
