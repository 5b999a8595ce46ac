/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "errors"
    "net/http"
    "net/url"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
)

type issueType struct {
    ID      string `json:"id"`
    Name    string `json:"name"`
    Subtask bool   `json:"subtask"`
}

func (t issueType) descriptor() domain.IssueTypeDescriptor {
    return domain.IssueTypeDescriptor{ID: t.ID, Name: t.Name, Subtask: t.Subtask}
}

// CreatedIssue is the body of a successful POST /issue.
type CreatedIssue struct {
    ID   string `json:"id"`
    Key  string `json:"key"`
    Self string `json:"self"`
}

// ProjectIssueTypes lists the issue types configured on one project.
func (c *Client) ProjectIssueTypes(ctx context.Context, projectKey string) ([]domain.IssueTypeDescriptor, error) {
    if strings.TrimSpace(projectKey) == "" { return nil, errors.New("jira: empty project key") }
    var p struct {
        IssueTypes []issueType `json:"issueTypes"`
    }
    if err := c.get(ctx, c.apiURL("/project/"+url.PathEscape(projectKey), nil), &p); err != nil { return nil, err }
    out := make([]domain.IssueTypeDescriptor, 0, len(p.IssueTypes))
    for _, t := range p.IssueTypes { out = append(out, t.descriptor()) }
    return out, nil
}

// IssueTypes lists the global issue type catalog.
func (c *Client) IssueTypes(ctx context.Context) ([]domain.IssueTypeDescriptor, error) {
    var arr []issueType
    if err := c.get(ctx, c.apiURL("/issuetype", nil), &arr); err != nil { return nil, err }
    out := make([]domain.IssueTypeDescriptor, 0, len(arr))
    for _, t := range arr { out = append(out, t.descriptor()) }
    return out, nil
}

// CreateIssue posts {"fields": fields} once; callers own any fallback.
// A 2xx answer means the issue exists even when its body is unreadable,
// so that case returns an empty CreatedIssue rather than an error.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (*CreatedIssue, error) {
    var out CreatedIssue
    err := c.do(ctx, http.MethodPost, c.apiURL("/issue", nil), map[string]any{"fields": fields}, &out)
    if errors.Is(err, errUndecodable) {
        c.log.Warn().Err(err).Msg("jira accepted create but the response body was unreadable")
        return &CreatedIssue{}, nil
    }
    if err != nil { return nil, err }
    if out.Key == "" && out.ID == "" { c.log.Warn().Msg("jira create response without id or key") }
    return &out, nil
}

// RichDescription renders a description body in the format the configured API version accepts.
func (c *Client) RichDescription(description string, criteria []string) any {
    if c.apiVer == "2" { return WikiDescription(description, criteria) }
    return DescriptionDoc(description, criteria)
}
