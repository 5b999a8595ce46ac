/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "encoding/json"
    "fmt"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
)

// Ledger accumulates outcomes of one publish batch in input order.
type Ledger struct {
    ProjectKey string
    Skipped    int
    eligible   int
    outcomes   []domain.PublishOutcome
}

func NewLedger(projectKey string, eligible int) *Ledger {
    return &Ledger{ProjectKey: projectKey, eligible: eligible, outcomes: make([]domain.PublishOutcome, 0, eligible)}
}

func (l *Ledger) Record(o domain.PublishOutcome) { l.outcomes = append(l.outcomes, o) }

// Outcomes returns a copy.
func (l *Ledger) Outcomes() []domain.PublishOutcome {
    out := make([]domain.PublishOutcome, len(l.outcomes))
    copy(out, l.outcomes)
    return out
}

func (l *Ledger) TotalEligible() int { return l.eligible }

func (l *Ledger) PublishedCount() int {
    n := 0
    for _, o := range l.outcomes { if o.Status == domain.StatusPublished { n++ } }
    return n
}

func (l *Ledger) FailedCount() int { return len(l.outcomes) - l.PublishedCount() }

func (l *Ledger) Message() string {
    return fmt.Sprintf("Published %d out of %d items", l.PublishedCount(), l.TotalEligible())
}

// Summary is Message plus the failed titles, one per line.
func (l *Ledger) Summary() string {
    var sb strings.Builder
    sb.WriteString(l.Message())
    if l.ProjectKey != "" { sb.WriteString(" to " + l.ProjectKey) }
    for _, o := range l.outcomes {
        if o.Status == domain.StatusFailed { sb.WriteString("\n- " + o.Item.Title + ": " + o.ErrorDetail) }
    }
    return sb.String()
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
    return json.Marshal(struct {
        Success        bool                    `json:"success"`
        ProjectKey     string                  `json:"projectKey"`
        PublishedCount int                     `json:"publishedCount"`
        TotalEligible  int                     `json:"totalEligible"`
        SkippedCount   int                     `json:"skippedCount"`
        Outcomes       []domain.PublishOutcome `json:"outcomes"`
        Message        string                  `json:"message"`
    }{
        Success:        l.PublishedCount() > 0 || l.TotalEligible() == 0,
        ProjectKey:     l.ProjectKey,
        PublishedCount: l.PublishedCount(),
        TotalEligible:  l.TotalEligible(),
        SkippedCount:   l.Skipped,
        Outcomes:       l.Outcomes(),
        Message:        l.Message(),
    })
}
