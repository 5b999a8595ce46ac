/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS installations (
    client_key    TEXT PRIMARY KEY,
    shared_secret TEXT NOT NULL DEFAULT '',
    base_url      TEXT NOT NULL DEFAULT '',
    product_type  TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    enabled       BOOLEAN NOT NULL DEFAULT TRUE,
    installed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS publish_records (
    fingerprint  TEXT PRIMARY KEY,
    project_key  TEXT NOT NULL,
    kind         TEXT NOT NULL,
    title        TEXT NOT NULL,
    external_key TEXT NOT NULL,
    external_id  TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS publish_records_created_at_idx ON publish_records(created_at);
`

type Postgres struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func OpenPostgres(ctx context.Context, dsn string, log zerolog.Logger) (*Postgres, error) {
    pool, err := pgxpool.New(ctx, dsn)
    if err != nil { return nil, fmt.Errorf("db connect: %w", err) }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { pool.Close(); return nil, fmt.Errorf("db ping: %w", err) }
    if _, err := pool.Exec(ctx2, pgSchema); err != nil { pool.Close(); return nil, fmt.Errorf("db migrate: %w", err) }
    return &Postgres{Pool: pool, log: log.With().Str("component", "postgres").Logger()}, nil
}

func (p *Postgres) Close() { p.Pool.Close() }

func (p *Postgres) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := p.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (p *Postgres) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := p.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

func (p *Postgres) SaveInstallation(ctx context.Context, in domain.Installation) error {
    const q = `
        INSERT INTO installations(client_key, shared_secret, base_url, product_type, description, enabled)
        VALUES($1,$2,$3,$4,$5,$6)
        ON CONFLICT(client_key) DO UPDATE SET
            shared_secret=EXCLUDED.shared_secret,
            base_url=EXCLUDED.base_url,
            product_type=EXCLUDED.product_type,
            description=EXCLUDED.description,
            enabled=EXCLUDED.enabled,
            updated_at=now()`
    _, err := p.Pool.Exec(ctx, q, in.ClientKey, in.SharedSecret, in.BaseURL, in.ProductType, in.Description, in.Enabled)
    return err
}

func (p *Postgres) GetInstallation(ctx context.Context, clientKey string) (*domain.Installation, error) {
    const q = `SELECT client_key, shared_secret, base_url, product_type, description, enabled, installed_at, updated_at
        FROM installations WHERE client_key=$1`
    var in domain.Installation
    err := p.Pool.QueryRow(ctx, q, clientKey).Scan(&in.ClientKey, &in.SharedSecret, &in.BaseURL, &in.ProductType, &in.Description, &in.Enabled, &in.InstalledAt, &in.UpdatedAt)
    if errors.Is(err, pgx.ErrNoRows) { return nil, ErrNotFound }
    if err != nil { return nil, err }
    return &in, nil
}

func (p *Postgres) DeleteInstallation(ctx context.Context, clientKey string) error {
    _, err := p.Pool.Exec(ctx, `DELETE FROM installations WHERE client_key=$1`, clientKey)
    return err
}

func (p *Postgres) SetInstallationEnabled(ctx context.Context, clientKey string, enabled bool) error {
    tag, err := p.Pool.Exec(ctx, `UPDATE installations SET enabled=$2, updated_at=now() WHERE client_key=$1`, clientKey, enabled)
    if err != nil { return err }
    if tag.RowsAffected() == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) FindPublished(ctx context.Context, fingerprint string) (*domain.PublishRecord, error) {
    const q = `SELECT fingerprint, project_key, kind, title, external_key, external_id, created_at
        FROM publish_records WHERE fingerprint=$1`
    var rec domain.PublishRecord
    var kind string
    err := p.Pool.QueryRow(ctx, q, fingerprint).Scan(&rec.Fingerprint, &rec.ProjectKey, &kind, &rec.Title, &rec.ExternalKey, &rec.ExternalID, &rec.CreatedAt)
    if errors.Is(err, pgx.ErrNoRows) { return nil, ErrNotFound }
    if err != nil { return nil, err }
    rec.Kind = domain.Kind(kind)
    return &rec, nil
}

func (p *Postgres) SavePublished(ctx context.Context, rec domain.PublishRecord) error {
    const q = `
        INSERT INTO publish_records(fingerprint, project_key, kind, title, external_key, external_id)
        VALUES($1,$2,$3,$4,$5,$6)
        ON CONFLICT(fingerprint) DO UPDATE SET
            external_key=EXCLUDED.external_key,
            external_id=EXCLUDED.external_id`
    _, err := p.Pool.Exec(ctx, q, rec.Fingerprint, rec.ProjectKey, string(rec.Kind), rec.Title, rec.ExternalKey, rec.ExternalID)
    return err
}

func (p *Postgres) PrunePublished(ctx context.Context, before time.Time) (int64, error) {
    tag, err := p.Pool.Exec(ctx, `DELETE FROM publish_records WHERE created_at < $1`, before)
    if err != nil { return 0, err }
    return tag.RowsAffected(), nil
}
