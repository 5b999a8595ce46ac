/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "net/http"
    "net/url"
)

type User struct {
    AccountID    string `json:"accountId"`
    DisplayName  string `json:"displayName"`
    EmailAddress string `json:"emailAddress"`
}

type Project struct {
    ID             string `json:"id"`
    Key            string `json:"key"`
    Name           string `json:"name"`
    ProjectTypeKey string `json:"projectTypeKey"`
}

type ProjectType struct {
    Key          string `json:"key"`
    FormattedKey string `json:"formattedKey"`
}

type Priority struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}

type NewProject struct {
    Key            string `json:"key"`
    Name           string `json:"name"`
    Description    string `json:"description,omitempty"`
    LeadAccountID  string `json:"leadAccountId"`
    ProjectTypeKey string `json:"projectTypeKey"`
    AssigneeType   string `json:"assigneeType,omitempty"`
}

type CreatedProject struct {
    ID   json.Number `json:"id"`
    Key  string      `json:"key"`
    Self string      `json:"self"`
}

func (c *Client) Myself(ctx context.Context) (*User, error) {
    var u User
    if err := c.get(ctx, c.apiURL("/myself", nil), &u); err != nil { return nil, err }
    return &u, nil
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
    var arr []Project
    if err := c.get(ctx, c.apiURL("/project", nil), &arr); err != nil { return nil, err }
    return arr, nil
}

func (c *Client) Project(ctx context.Context, key string) (*Project, error) {
    var p Project
    if err := c.get(ctx, c.apiURL("/project/"+url.PathEscape(key), nil), &p); err != nil { return nil, err }
    return &p, nil
}

func (c *Client) ProjectTypes(ctx context.Context) ([]ProjectType, error) {
    var arr []ProjectType
    if err := c.get(ctx, c.apiURL("/project/type", nil), &arr); err != nil { return nil, err }
    return arr, nil
}

func (c *Client) Priorities(ctx context.Context) ([]Priority, error) {
    var arr []Priority
    if err := c.get(ctx, c.apiURL("/priority", nil), &arr); err != nil { return nil, err }
    return arr, nil
}

// CreateProject is not retried; a timeout may still have created the project.
func (c *Client) CreateProject(ctx context.Context, p NewProject) (*CreatedProject, error) {
    if p.AssigneeType == "" { p.AssigneeType = "UNASSIGNED" }
    var out CreatedProject
    if err := c.do(ctx, http.MethodPost, c.apiURL("/project", nil), p, &out); err != nil { return nil, err }
    return &out, nil
}
