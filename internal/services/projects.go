/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "net/http"
    "regexp"
    "strings"
    "sync"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "golang.org/x/sync/errgroup"
)

var projectKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

type ProjectsReport struct {
    Projects     []jira.Project     `json:"projects"`
    ProjectTypes []jira.ProjectType `json:"projectTypes"`
}

func (s *Service) requireJira() error {
    if s.jira == nil || !s.jira.Configured() { return fmt.Errorf("%w: jira base URL or credentials missing", ErrConfig) }
    return nil
}

// ListProjects fetches projects and project types together; types are optional.
func (s *Service) ListProjects(ctx context.Context) (*ProjectsReport, error) {
    if err := s.requireJira(); err != nil { return nil, err }
    rep := &ProjectsReport{Projects: []jira.Project{}, ProjectTypes: []jira.ProjectType{}}
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        ps, err := s.jira.Projects(gctx)
        if err != nil { return fmt.Errorf("list projects: %w", err) }
        rep.Projects = ps
        return nil
    })
    g.Go(func() error {
        ts, err := s.jira.ProjectTypes(gctx)
        if err != nil { s.log.Warn().Err(err).Msg("project types unavailable"); return nil }
        rep.ProjectTypes = ts
        return nil
    })
    if err := g.Wait(); err != nil { return nil, err }
    return rep, nil
}

type NewProjectRequest struct {
    Key         string `json:"key"`
    Name        string `json:"name"`
    Description string `json:"description"`
}

// CreateProject creates a software project led by the authenticated user.
func (s *Service) CreateProject(ctx context.Context, req NewProjectRequest) (*jira.CreatedProject, error) {
    if err := s.requireJira(); err != nil { return nil, err }
    key := strings.ToUpper(strings.TrimSpace(req.Key))
    name := strings.TrimSpace(req.Name)
    if name == "" { return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput) }
    if !projectKeyRe.MatchString(key) { return nil, fmt.Errorf("%w: project key must be 2-10 uppercase letters or digits starting with a letter", ErrInvalidInput) }

    me, err := s.jira.Myself(ctx)
    if err != nil { return nil, fmt.Errorf("resolve current user: %w", err) }
    if _, err := s.jira.Project(ctx, key); err == nil {
        return nil, fmt.Errorf("%w: %s", ErrProjectExists, key)
    } else if jira.StatusOf(err) != http.StatusNotFound {
        return nil, fmt.Errorf("check project %s: %w", key, err)
    }

    created, err := s.jira.CreateProject(ctx, jira.NewProject{Key: key, Name: name, Description: req.Description, LeadAccountID: me.AccountID, ProjectTypeKey: "software"})
    switch jira.StatusOf(err) {
    case 0:
    case http.StatusForbidden, http.StatusUnauthorized:
        return nil, fmt.Errorf("%w: %v", ErrPermission, err)
    case http.StatusBadRequest:
        return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
    }
    if err != nil { return nil, err }
    s.log.Info().Str("key", created.Key).Msg("jira project created")
    return created, nil
}

type CheckResult struct {
    OK     bool   `json:"ok"`
    Detail string `json:"detail"`
}

type ConnectionReport struct {
    OK     bool                   `json:"ok"`
    Checks map[string]CheckResult `json:"checks"`
}

// TestConnection runs the read-only diagnostics concurrently.
func (s *Service) TestConnection(ctx context.Context) (*ConnectionReport, error) {
    if err := s.requireJira(); err != nil { return nil, err }
    var mu sync.Mutex
    rep := &ConnectionReport{OK: true, Checks: map[string]CheckResult{}}
    record := func(name string, detail string, err error) {
        mu.Lock(); defer mu.Unlock()
        if err != nil { rep.OK = false; rep.Checks[name] = CheckResult{OK: false, Detail: err.Error()}; return }
        rep.Checks[name] = CheckResult{OK: true, Detail: detail}
    }
    var g errgroup.Group
    g.Go(func() error {
        me, err := s.jira.Myself(ctx)
        if err == nil { record("myself", me.DisplayName, nil) } else { record("myself", "", err) }
        return nil
    })
    g.Go(func() error {
        ps, err := s.jira.Projects(ctx)
        record("projects", fmt.Sprintf("%d projects", len(ps)), err)
        return nil
    })
    g.Go(func() error {
        ts, err := s.jira.IssueTypes(ctx)
        record("issueTypes", fmt.Sprintf("%d issue types", len(ts)), err)
        return nil
    })
    g.Go(func() error {
        ps, err := s.jira.Priorities(ctx)
        record("priorities", fmt.Sprintf("%d priorities", len(ps)), err)
        return nil
    })
    _ = g.Wait()
    return rep, nil
}
