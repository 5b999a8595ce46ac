/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/rs/zerolog"
)

var (
    // ErrConfig fails a whole request before any external call is made.
    ErrConfig        = errors.New("configuration error")
    ErrInvalidInput  = errors.New("invalid input")
    ErrUnparseable   = errors.New("model output could not be parsed into stories")
    ErrProjectExists = errors.New("project already exists")
    ErrPermission    = errors.New("permission denied by jira")
)

// TypeSource lists issue types.
type TypeSource interface {
    ProjectIssueTypes(ctx context.Context, projectKey string) ([]domain.IssueTypeDescriptor, error)
    IssueTypes(ctx context.Context) ([]domain.IssueTypeDescriptor, error)
}

// IssueCreator creates issues one call at a time.
type IssueCreator interface {
    CreateIssue(ctx context.Context, fields map[string]any) (*jira.CreatedIssue, error)
    RichDescription(description string, criteria []string) any
}

type JiraClient interface {
    TypeSource
    IssueCreator
    Configured() bool
    Myself(ctx context.Context) (*jira.User, error)
    Projects(ctx context.Context) ([]jira.Project, error)
    Project(ctx context.Context, key string) (*jira.Project, error)
    ProjectTypes(ctx context.Context) ([]jira.ProjectType, error)
    Priorities(ctx context.Context) ([]jira.Priority, error)
    CreateProject(ctx context.Context, p jira.NewProject) (*jira.CreatedProject, error)
}

// Completer is the text completion oracle: prompt in, unstructured text out.
type Completer interface {
    Complete(ctx context.Context, system, prompt string) (string, error)
}

type Notifier interface {
    Enabled() bool
    Broadcast(ctx context.Context, text string) error
}

type Service struct {
    cfg      config.Config
    log      zerolog.Logger
    store    repo.Store
    jira     JiraClient
    llm      Completer
    notifier Notifier
}

func New(cfg config.Config, log zerolog.Logger, store repo.Store, jc JiraClient, llm Completer, notifier Notifier) *Service {
    return &Service{cfg: cfg, log: log.With().Str("component", "service").Logger(), store: store, jira: jc, llm: llm, notifier: notifier}
}

type PublishRequest struct {
    ProjectKey string
    Items      []any
}

// PublishBatch normalizes raw candidates, probes the project schema and publishes sequentially.
func (s *Service) PublishBatch(ctx context.Context, req PublishRequest) (*Ledger, error) {
    projectKey := strings.TrimSpace(req.ProjectKey)
    if s.jira == nil || !s.jira.Configured() { return nil, fmt.Errorf("%w: jira base URL or credentials missing", ErrConfig) }
    if projectKey == "" { return nil, fmt.Errorf("%w: %w: project key is required", ErrConfig, ErrInvalidInput) }

    norm := Normalize(req.Items)
    s.log.Info().Str("project", projectKey).Int("eligible", len(norm.Items)).Int("skipped", norm.Skipped).Msg("publish batch start")
    if len(norm.Items) == 0 {
        l := NewLedger(projectKey, 0)
        l.Skipped = norm.Skipped
        return l, nil
    }

    prober := NewProber(s.jira, s.log)
    descs, source := prober.Probe(ctx, projectKey)
    mapping := SelectMapping(descs, s.cfg.StoryTypeFallback)
    s.log.Info().Str("project", projectKey).Str("source", source).Int("types", len(descs)).
        Bool("epic", mapping.Epic != nil).Bool("story", mapping.Story != nil).Msg("issue types resolved")

    var records repo.PublishRecordStore
    if s.cfg.PublishDedupe && s.store != nil { records = s.store }
    pub := NewPublisher(s.jira, records, PublisherOptions{PriorityField: s.cfg.JiraPriorityField, StoryPointsField: s.cfg.JiraStoryPointsField}, s.log)
    ledger := pub.Publish(ctx, projectKey, norm.Items, mapping)
    ledger.Skipped = norm.Skipped
    s.log.Info().Str("project", projectKey).Int("published", ledger.PublishedCount()).Int("eligible", ledger.TotalEligible()).Msg("publish batch done")
    s.notify(ledger)
    return ledger, nil
}

func (s *Service) notify(l *Ledger) {
    if s.notifier == nil || !s.notifier.Enabled() { return }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second); defer cancel()
    if err := s.notifier.Broadcast(ctx, l.Summary()); err != nil { s.log.Error().Err(err).Msg("publish notification failed") }
}

type ProbeReport struct {
    ProjectKey string                       `json:"projectKey"`
    Source     string                       `json:"source"`
    IssueTypes []domain.IssueTypeDescriptor `json:"issueTypes"`
    Mapping    domain.TypeMapping           `json:"mapping"`
}

// ProbeProject exposes the prober on its own, for troubleshooting mappings.
func (s *Service) ProbeProject(ctx context.Context, projectKey string) (*ProbeReport, error) {
    projectKey = strings.TrimSpace(projectKey)
    if s.jira == nil || !s.jira.Configured() { return nil, fmt.Errorf("%w: jira base URL or credentials missing", ErrConfig) }
    if projectKey == "" { return nil, fmt.Errorf("%w: %w: project key is required", ErrConfig, ErrInvalidInput) }
    descs, source := NewProber(s.jira, s.log).Probe(ctx, projectKey)
    if descs == nil { descs = []domain.IssueTypeDescriptor{} }
    return &ProbeReport{ProjectKey: projectKey, Source: source, IssueTypes: descs, Mapping: SelectMapping(descs, s.cfg.StoryTypeFallback)}, nil
}

// PruneRecords drops fingerprints older than the configured retention.
func (s *Service) PruneRecords(ctx context.Context) (int64, error) {
    if s.store == nil { return 0, nil }
    return s.store.PrunePublished(ctx, time.Now().Add(-s.cfg.PublishRecordTTL))
}
