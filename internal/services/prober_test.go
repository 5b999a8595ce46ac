package services

import (
    "context"
    "errors"
    "testing"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/rs/zerolog"
)

type stubTypes struct {
    project, global       []domain.IssueTypeDescriptor
    projectErr, globalErr error
    globalCalls           int
}

func (s *stubTypes) ProjectIssueTypes(context.Context, string) ([]domain.IssueTypeDescriptor, error) {
    return s.project, s.projectErr
}

func (s *stubTypes) IssueTypes(context.Context) ([]domain.IssueTypeDescriptor, error) {
    s.globalCalls++
    return s.global, s.globalErr
}

func TestProbe_ProjectFirstThenGlobal(t *testing.T) {
    ctx := context.Background()
    proj := []domain.IssueTypeDescriptor{{ID: "1", Name: "Epic"}}
    glob := []domain.IssueTypeDescriptor{{ID: "2", Name: "Story"}}

    src := &stubTypes{project: proj, global: glob}
    got, source := NewProber(src, zerolog.Nop()).Probe(ctx, "SHOP")
    if source != SourceProject || len(got) != 1 || got[0].ID != "1" { t.Fatalf("expected project types, got %s %#v", source, got) }
    if src.globalCalls != 0 { t.Fatalf("global catalog should not be queried") }

    src = &stubTypes{projectErr: errors.New("404"), global: glob}
    got, source = NewProber(src, zerolog.Nop()).Probe(ctx, "SHOP")
    if source != SourceGlobal || got[0].ID != "2" { t.Fatalf("expected global fallback, got %s %#v", source, got) }

    src = &stubTypes{projectErr: errors.New("404"), globalErr: errors.New("500")}
    got, source = NewProber(src, zerolog.Nop()).Probe(ctx, "SHOP")
    if source != SourceNone || len(got) != 0 { t.Fatalf("expected empty set, got %s %#v", source, got) }
}

func TestSelectMapping(t *testing.T) {
    descs := []domain.IssueTypeDescriptor{
        {ID: "1", Name: "Epic Sub-task", Subtask: true},
        {ID: "2", Name: "Story Sub-task", Subtask: true},
        {ID: "3", Name: "Task"},
        {ID: "4", Name: "EPIC"},
        {ID: "5", Name: "User Story"},
        {ID: "6", Name: "Epic (legacy)"},
    }
    m := SelectMapping(descs, config.FallbackStrict)
    if m.Epic == nil || m.Epic.ID != "4" { t.Fatalf("epic: %#v", m.Epic) }
    if m.Story == nil || m.Story.ID != "5" { t.Fatalf("story: %#v", m.Story) }

    noStory := []domain.IssueTypeDescriptor{{ID: "3", Name: "Task"}, {ID: "9", Name: "Sub-task", Subtask: true}}
    if m := SelectMapping(noStory, config.FallbackStrict); m.Story != nil { t.Fatalf("strict policy must not fall back: %#v", m.Story) }
    if m := SelectMapping(noStory, config.FallbackTask); m.Story == nil || m.Story.ID != "3" { t.Fatalf("task fallback: %#v", m.Story) }

    unflaggedSub := []domain.IssueTypeDescriptor{{ID: "7", Name: "Subtask"}, {ID: "8", Name: "Dev Task"}}
    if m := SelectMapping(unflaggedSub, config.FallbackTask); m.Story == nil || m.Story.ID != "8" { t.Fatalf("sub-named types are not a task fallback: %#v", m.Story) }

    onlySubtasks := []domain.IssueTypeDescriptor{{ID: "1", Name: "Story Sub-task", Subtask: true}}
    if m := SelectMapping(onlySubtasks, config.FallbackTask); m.Epic != nil || m.Story != nil { t.Fatalf("subtasks are never eligible: %#v", m) }
}
