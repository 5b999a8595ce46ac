/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "strings"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/rs/zerolog"
)

const (
    SourceProject = "project"
    SourceGlobal  = "global"
    SourceNone    = "none"
)

type Prober struct {
    src TypeSource
    log zerolog.Logger
}

func NewProber(src TypeSource, log zerolog.Logger) *Prober { return &Prober{src: src, log: log} }

// Probe returns the project's issue types, the global catalog when the
// project call fails, or an empty set when both fail.
func (p *Prober) Probe(ctx context.Context, projectKey string) ([]domain.IssueTypeDescriptor, string) {
    descs, err := p.src.ProjectIssueTypes(ctx, projectKey)
    if err == nil { return descs, SourceProject }
    p.log.Warn().Err(err).Str("project", projectKey).Msg("project issue types unavailable, using global catalog")
    descs, err = p.src.IssueTypes(ctx)
    if err == nil { return descs, SourceGlobal }
    p.log.Warn().Err(err).Msg("global issue types unavailable")
    return nil, SourceNone
}

// SelectMapping picks the first non-subtask type named like "epic" and like
// "story". With the task fallback a "task" type may fill the story slot.
func SelectMapping(descs []domain.IssueTypeDescriptor, fallback string) domain.TypeMapping {
    var m domain.TypeMapping
    var task *domain.IssueTypeDescriptor
    for i := range descs {
        d := descs[i]
        if d.Subtask { continue }
        name := strings.ToLower(d.Name)
        if m.Epic == nil && strings.Contains(name, "epic") { m.Epic = &d }
        if m.Story == nil && strings.Contains(name, "story") { m.Story = &d }
        if task == nil && strings.Contains(name, "task") && !strings.Contains(name, "sub") { task = &d }
    }
    if m.Story == nil && fallback == config.FallbackTask { m.Story = task }
    return m
}
