/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "sync"
    "time"

    "github.com/HamedShams/po-assist/internal/domain"
)

// Memory is a process-local Store for tests and throwaway runs.
type Memory struct {
    mu      sync.RWMutex
    inst    map[string]domain.Installation
    records map[string]domain.PublishRecord
}

func NewMemory() *Memory {
    return &Memory{inst: map[string]domain.Installation{}, records: map[string]domain.PublishRecord{}}
}

func (m *Memory) SaveInstallation(_ context.Context, in domain.Installation) error {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now().UTC()
    if prev, ok := m.inst[in.ClientKey]; ok { in.InstalledAt = prev.InstalledAt } else { in.InstalledAt = now }
    in.UpdatedAt = now
    m.inst[in.ClientKey] = in
    return nil
}

func (m *Memory) GetInstallation(_ context.Context, clientKey string) (*domain.Installation, error) {
    m.mu.RLock(); defer m.mu.RUnlock()
    in, ok := m.inst[clientKey]
    if !ok { return nil, ErrNotFound }
    return &in, nil
}

func (m *Memory) DeleteInstallation(_ context.Context, clientKey string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    delete(m.inst, clientKey)
    return nil
}

func (m *Memory) SetInstallationEnabled(_ context.Context, clientKey string, enabled bool) error {
    m.mu.Lock(); defer m.mu.Unlock()
    in, ok := m.inst[clientKey]
    if !ok { return ErrNotFound }
    in.Enabled = enabled
    in.UpdatedAt = time.Now().UTC()
    m.inst[clientKey] = in
    return nil
}

func (m *Memory) FindPublished(_ context.Context, fingerprint string) (*domain.PublishRecord, error) {
    m.mu.RLock(); defer m.mu.RUnlock()
    rec, ok := m.records[fingerprint]
    if !ok { return nil, ErrNotFound }
    return &rec, nil
}

func (m *Memory) SavePublished(_ context.Context, rec domain.PublishRecord) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if rec.CreatedAt.IsZero() { rec.CreatedAt = time.Now().UTC() }
    m.records[rec.Fingerprint] = rec
    return nil
}

func (m *Memory) PrunePublished(_ context.Context, before time.Time) (int64, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var n int64
    for k, rec := range m.records {
        if rec.CreatedAt.Before(before) { delete(m.records, k); n++ }
    }
    return n, nil
}

func (m *Memory) Close() {}
