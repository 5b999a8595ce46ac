package services

import (
    "context"
    "errors"
    "testing"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// stubJira satisfies JiraClient without HTTP for the admin endpoints.
type stubJira struct {
    existing    map[string]bool
    createErr   error
    typesErr    error
    prioErr     error
    created     []jira.NewProject
}

func (s *stubJira) Configured() bool { return true }
func (s *stubJira) ProjectIssueTypes(context.Context, string) ([]domain.IssueTypeDescriptor, error) { return nil, nil }
func (s *stubJira) IssueTypes(context.Context) ([]domain.IssueTypeDescriptor, error) {
    return []domain.IssueTypeDescriptor{{ID: "1", Name: "Story"}}, nil
}
func (s *stubJira) CreateIssue(context.Context, map[string]any) (*jira.CreatedIssue, error) { return nil, errors.New("unused") }
func (s *stubJira) RichDescription(d string, c []string) any { return jira.DescriptionDoc(d, c) }
func (s *stubJira) Myself(context.Context) (*jira.User, error) { return &jira.User{AccountID: "acc-1", DisplayName: "PO"}, nil }
func (s *stubJira) Projects(context.Context) ([]jira.Project, error) {
    return []jira.Project{{ID: "1", Key: "SHOP", Name: "Shop"}}, nil
}
func (s *stubJira) Project(_ context.Context, key string) (*jira.Project, error) {
    if s.existing[key] { return &jira.Project{Key: key}, nil }
    return nil, &jira.APIError{Status: 404, Body: "not found"}
}
func (s *stubJira) ProjectTypes(context.Context) ([]jira.ProjectType, error) {
    if s.typesErr != nil { return nil, s.typesErr }
    return []jira.ProjectType{{Key: "software"}}, nil
}
func (s *stubJira) Priorities(context.Context) ([]jira.Priority, error) {
    if s.prioErr != nil { return nil, s.prioErr }
    return []jira.Priority{{ID: "1", Name: "High"}}, nil
}
func (s *stubJira) CreateProject(_ context.Context, p jira.NewProject) (*jira.CreatedProject, error) {
    s.created = append(s.created, p)
    if s.createErr != nil { return nil, s.createErr }
    return &jira.CreatedProject{ID: "10010", Key: p.Key}, nil
}

func stubService(sj *stubJira) *Service {
    return New(config.Config{}, zerolog.Nop(), repo.NewMemory(), sj, nil, nil)
}

func TestCreateProject(t *testing.T) {
    ctx := context.Background()
    sj := &stubJira{existing: map[string]bool{"SHOP": true}}
    svc := stubService(sj)

    _, err := svc.CreateProject(ctx, NewProjectRequest{Key: "shop", Name: "Shop"})
    assert.True(t, errors.Is(err, ErrProjectExists))

    _, err = svc.CreateProject(ctx, NewProjectRequest{Key: "1BAD", Name: "Bad"})
    assert.True(t, errors.Is(err, ErrInvalidInput))

    _, err = svc.CreateProject(ctx, NewProjectRequest{Key: "OPS", Name: " "})
    assert.True(t, errors.Is(err, ErrInvalidInput))

    created, err := svc.CreateProject(ctx, NewProjectRequest{Key: "ops", Name: "Operations"})
    require.NoError(t, err)
    assert.Equal(t, "OPS", created.Key)
    require.Len(t, sj.created, 1)
    assert.Equal(t, "acc-1", sj.created[0].LeadAccountID)
    assert.Equal(t, "software", sj.created[0].ProjectTypeKey)

    sj.createErr = &jira.APIError{Status: 403, Body: "nope"}
    _, err = svc.CreateProject(ctx, NewProjectRequest{Key: "NEW", Name: "New"})
    assert.True(t, errors.Is(err, ErrPermission))
}

func TestListProjects_TypesAreOptional(t *testing.T) {
    svc := stubService(&stubJira{typesErr: errors.New("403")})
    rep, err := svc.ListProjects(context.Background())
    require.NoError(t, err)
    assert.Len(t, rep.Projects, 1)
    assert.Empty(t, rep.ProjectTypes)
}

func TestTestConnection_ReportsEachCheck(t *testing.T) {
    svc := stubService(&stubJira{prioErr: errors.New("jira api status=403 body=")})
    rep, err := svc.TestConnection(context.Background())
    require.NoError(t, err)
    assert.False(t, rep.OK)
    require.Len(t, rep.Checks, 4)
    assert.True(t, rep.Checks["myself"].OK)
    assert.Equal(t, "PO", rep.Checks["myself"].Detail)
    assert.False(t, rep.Checks["priorities"].OK)
}

func TestHandleLifecycle(t *testing.T) {
    ctx := context.Background()
    store := repo.NewMemory()
    svc := New(config.Config{}, zerolog.Nop(), store, nil, nil, nil)
    ev := LifecycleEvent{ClientKey: "tenant-1", SharedSecret: "s", BaseURL: "https://acme.atlassian.net"}

    require.NoError(t, svc.HandleLifecycle(ctx, "installed", ev))
    in, err := store.GetInstallation(ctx, "tenant-1")
    require.NoError(t, err)
    assert.True(t, in.Enabled)

    require.NoError(t, svc.HandleLifecycle(ctx, "disabled", ev))
    in, _ = store.GetInstallation(ctx, "tenant-1")
    assert.False(t, in.Enabled)

    require.NoError(t, svc.HandleLifecycle(ctx, "uninstalled", ev))
    _, err = store.GetInstallation(ctx, "tenant-1")
    assert.True(t, errors.Is(err, repo.ErrNotFound))

    assert.Error(t, svc.HandleLifecycle(ctx, "installed", LifecycleEvent{}))
    assert.Error(t, svc.HandleLifecycle(ctx, "rebooted", ev))
}
