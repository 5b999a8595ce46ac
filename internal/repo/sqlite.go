/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/rs/zerolog"
    _ "modernc.org/sqlite"
)

// SQLite backs the standalone deployment with a single local file.
type SQLite struct {
    db  *sql.DB
    log zerolog.Logger
}

func OpenSQLite(dsn string, log zerolog.Logger) (*SQLite, error) {
    db, err := sql.Open("sqlite", dsn)
    if err != nil { return nil, fmt.Errorf("failed to open database: %w", err) }
    // one writer at a time
    db.SetMaxOpenConns(1)
    s := &SQLite{db: db, log: log.With().Str("component", "sqlite").Logger()}
    if err := s.migrate(); err != nil {
        db.Close()
        return nil, fmt.Errorf("failed to migrate database: %w", err)
    }
    return s, nil
}

func (s *SQLite) Close() {
    if err := s.db.Close(); err != nil { s.log.Error().Err(err).Msg("sqlite close failed") }
}

func (s *SQLite) migrate() error {
    migrations := []string{
        `CREATE TABLE IF NOT EXISTS installations (
            client_key    TEXT PRIMARY KEY,
            shared_secret TEXT NOT NULL DEFAULT '',
            base_url      TEXT NOT NULL DEFAULT '',
            product_type  TEXT NOT NULL DEFAULT '',
            description   TEXT NOT NULL DEFAULT '',
            enabled       INTEGER NOT NULL DEFAULT 1,
            installed_at  INTEGER NOT NULL,
            updated_at    INTEGER NOT NULL
        )`,
        `CREATE TABLE IF NOT EXISTS publish_records (
            fingerprint  TEXT PRIMARY KEY,
            project_key  TEXT NOT NULL,
            kind         TEXT NOT NULL,
            title        TEXT NOT NULL,
            external_key TEXT NOT NULL,
            external_id  TEXT NOT NULL DEFAULT '',
            created_at   INTEGER NOT NULL
        )`,
        `CREATE INDEX IF NOT EXISTS publish_records_created_at_idx ON publish_records(created_at)`,
    }
    for _, m := range migrations {
        if _, err := s.db.Exec(m); err != nil { return err }
    }
    return nil
}

// Timestamps are stored as unix nanoseconds.
func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func (s *SQLite) SaveInstallation(ctx context.Context, in domain.Installation) error {
    now := time.Now().UTC().UnixNano()
    const q = `
        INSERT INTO installations(client_key, shared_secret, base_url, product_type, description, enabled, installed_at, updated_at)
        VALUES(?,?,?,?,?,?,?,?)
        ON CONFLICT(client_key) DO UPDATE SET
            shared_secret=excluded.shared_secret,
            base_url=excluded.base_url,
            product_type=excluded.product_type,
            description=excluded.description,
            enabled=excluded.enabled,
            updated_at=excluded.updated_at`
    _, err := s.db.ExecContext(ctx, q, in.ClientKey, in.SharedSecret, in.BaseURL, in.ProductType, in.Description, in.Enabled, now, now)
    return err
}

func (s *SQLite) GetInstallation(ctx context.Context, clientKey string) (*domain.Installation, error) {
    const q = `SELECT client_key, shared_secret, base_url, product_type, description, enabled, installed_at, updated_at
        FROM installations WHERE client_key=?`
    var in domain.Installation
    var installed, updated int64
    err := s.db.QueryRowContext(ctx, q, clientKey).Scan(&in.ClientKey, &in.SharedSecret, &in.BaseURL, &in.ProductType, &in.Description, &in.Enabled, &installed, &updated)
    if errors.Is(err, sql.ErrNoRows) { return nil, ErrNotFound }
    if err != nil { return nil, err }
    in.InstalledAt, in.UpdatedAt = fromUnix(installed), fromUnix(updated)
    return &in, nil
}

func (s *SQLite) DeleteInstallation(ctx context.Context, clientKey string) error {
    _, err := s.db.ExecContext(ctx, `DELETE FROM installations WHERE client_key=?`, clientKey)
    return err
}

func (s *SQLite) SetInstallationEnabled(ctx context.Context, clientKey string, enabled bool) error {
    res, err := s.db.ExecContext(ctx, `UPDATE installations SET enabled=?, updated_at=? WHERE client_key=?`, enabled, time.Now().UTC().UnixNano(), clientKey)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (s *SQLite) FindPublished(ctx context.Context, fingerprint string) (*domain.PublishRecord, error) {
    const q = `SELECT fingerprint, project_key, kind, title, external_key, external_id, created_at
        FROM publish_records WHERE fingerprint=?`
    var rec domain.PublishRecord
    var kind string
    var created int64
    err := s.db.QueryRowContext(ctx, q, fingerprint).Scan(&rec.Fingerprint, &rec.ProjectKey, &kind, &rec.Title, &rec.ExternalKey, &rec.ExternalID, &created)
    if errors.Is(err, sql.ErrNoRows) { return nil, ErrNotFound }
    if err != nil { return nil, err }
    rec.Kind = domain.Kind(kind)
    rec.CreatedAt = fromUnix(created)
    return &rec, nil
}

func (s *SQLite) SavePublished(ctx context.Context, rec domain.PublishRecord) error {
    created := rec.CreatedAt
    if created.IsZero() { created = time.Now().UTC() }
    const q = `
        INSERT INTO publish_records(fingerprint, project_key, kind, title, external_key, external_id, created_at)
        VALUES(?,?,?,?,?,?,?)
        ON CONFLICT(fingerprint) DO UPDATE SET
            external_key=excluded.external_key,
            external_id=excluded.external_id`
    _, err := s.db.ExecContext(ctx, q, rec.Fingerprint, rec.ProjectKey, string(rec.Kind), rec.Title, rec.ExternalKey, rec.ExternalID, created.UnixNano())
    return err
}

func (s *SQLite) PrunePublished(ctx context.Context, before time.Time) (int64, error) {
    res, err := s.db.ExecContext(ctx, `DELETE FROM publish_records WHERE created_at < ?`, before.UTC().UnixNano())
    if err != nil { return 0, err }
    return res.RowsAffected()
}
