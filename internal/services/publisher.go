/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/rs/zerolog"
)

type PublisherOptions struct {
    // PriorityField opts into sending priority: "priority" sends {name},
    // a custom field id sends {value}. Empty keeps priority advisory.
    PriorityField    string
    StoryPointsField string
}

// Publisher creates issues strictly one at a time, in input order.
type Publisher struct {
    jira    IssueCreator
    records repo.PublishRecordStore
    opts    PublisherOptions
    log     zerolog.Logger
}

// NewPublisher accepts a nil records store, which disables fingerprint dedupe.
func NewPublisher(jira IssueCreator, records repo.PublishRecordStore, opts PublisherOptions, log zerolog.Logger) *Publisher {
    return &Publisher{jira: jira, records: records, opts: opts, log: log.With().Str("component", "publisher").Logger()}
}

func (p *Publisher) Publish(ctx context.Context, projectKey string, items []domain.CandidateItem, mapping domain.TypeMapping) *Ledger {
    l := NewLedger(projectKey, len(items))
    seen := make(map[string]int, len(items))
    for _, it := range items {
        fp := Fingerprint(projectKey, it)
        n := seen[fp]
        seen[fp] = n + 1
        l.Record(p.publishOne(ctx, projectKey, it, mapping, occurrence(fp, n)))
    }
    return l
}

// occurrence gives the nth repeat of identical content within a batch its own record key.
func occurrence(fp string, n int) string {
    if n == 0 { return fp }
    sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", fp, n)))
    return hex.EncodeToString(sum[:])
}

func (p *Publisher) publishOne(ctx context.Context, projectKey string, it domain.CandidateItem, mapping domain.TypeMapping, fp string) (out domain.PublishOutcome) {
    out = domain.PublishOutcome{Item: it}
    defer func() {
        if r := recover(); r != nil {
            p.log.Error().Interface("panic", r).Str("title", it.Title).Msg("item publish panicked")
            out.Status, out.ExternalKey, out.ExternalID = domain.StatusFailed, "", ""
            out.ErrorDetail = fmt.Sprintf("internal error: %v", r)
        }
    }()
    failed := func(detail string) domain.PublishOutcome {
        out.Status, out.ErrorDetail = domain.StatusFailed, detail
        return out
    }

    if err := ctx.Err(); err != nil { return failed("not attempted: " + err.Error()) }
    t := mapping.Resolve(it.Kind)
    if t == nil { return failed(fmt.Sprintf("no suitable issue type for %s", it.Kind)) }

    if rec := p.lookup(ctx, fp); rec != nil {
        out.Status, out.ExternalKey, out.ExternalID, out.Deduplicated = domain.StatusPublished, rec.ExternalKey, rec.ExternalID, true
        return out
    }

    out.Attempts++
    created, richErr := p.jira.CreateIssue(ctx, p.richFields(projectKey, it, t.ID))
    if richErr != nil {
        p.log.Warn().Err(richErr).Str("title", it.Title).Msg("rich payload rejected, retrying minimal")
        out.Attempts++
        var minErr error
        created, minErr = p.jira.CreateIssue(ctx, minimalFields(projectKey, it, t.ID))
        if minErr != nil {
            return failed(fmt.Sprintf("rich payload rejected: %v; minimal payload rejected: %v", richErr, minErr))
        }
    }
    out.Status, out.ExternalKey, out.ExternalID = domain.StatusPublished, created.Key, created.ID
    p.remember(ctx, fp, projectKey, it, created.Key, created.ID)
    return out
}

func (p *Publisher) lookup(ctx context.Context, fp string) *domain.PublishRecord {
    if p.records == nil { return nil }
    rec, err := p.records.FindPublished(ctx, fp)
    if err != nil {
        if !errors.Is(err, repo.ErrNotFound) { p.log.Warn().Err(err).Msg("publish record lookup failed") }
        return nil
    }
    return rec
}

func (p *Publisher) remember(ctx context.Context, fp, projectKey string, it domain.CandidateItem, key, id string) {
    if p.records == nil { return }
    rec := domain.PublishRecord{Fingerprint: fp, ProjectKey: projectKey, Kind: it.Kind, Title: it.Title, ExternalKey: key, ExternalID: id}
    if err := p.records.SavePublished(ctx, rec); err != nil { p.log.Warn().Err(err).Str("key", key).Msg("publish record save failed") }
}

func minimalFields(projectKey string, it domain.CandidateItem, typeID string) map[string]any {
    return map[string]any{
        "project":   map[string]any{"key": projectKey},
        "summary":   it.Title,
        "issuetype": map[string]any{"id": typeID},
    }
}

func (p *Publisher) richFields(projectKey string, it domain.CandidateItem, typeID string) map[string]any {
    f := minimalFields(projectKey, it, typeID)
    f["description"] = p.jira.RichDescription(it.Description, it.AcceptanceCriteria)
    switch field := p.opts.PriorityField; {
    case field == "":
    case field == "priority":
        f["priority"] = map[string]any{"name": string(it.Priority)}
    default:
        f[field] = map[string]any{"value": string(it.Priority)}
    }
    if p.opts.StoryPointsField != "" && it.StoryPoints != nil { f[p.opts.StoryPointsField] = *it.StoryPoints }
    return f
}

// Fingerprint identifies a candidate's content within a project, so a
// retried batch finds items it already created.
func Fingerprint(projectKey string, it domain.CandidateItem) string {
    h := sha256.New()
    for _, part := range []string{strings.ToUpper(projectKey), string(it.Kind), it.Title, it.Description, strings.Join(it.AcceptanceCriteria, "\x1f")} {
        h.Write([]byte(part))
        h.Write([]byte{0})
    }
    return hex.EncodeToString(h.Sum(nil))
}
