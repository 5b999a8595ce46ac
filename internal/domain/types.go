/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "time"

type Kind string

const (
    KindEpic  Kind = "epic"
    KindStory Kind = "story"
)

type Priority string

const (
    PriorityHigh   Priority = "High"
    PriorityMedium Priority = "Medium"
    PriorityLow    Priority = "Low"
)

const (
    DefaultTitle       = "Untitled Story"
    DefaultDescription = "No description provided"
)

// CandidateItem is a normalized, not yet published Epic or Story.
type CandidateItem struct {
    ID                 string   `json:"id"`
    Kind               Kind     `json:"type"`
    Title              string   `json:"title"`
    Description        string   `json:"description"`
    AcceptanceCriteria []string `json:"acceptanceCriteria"`
    Priority           Priority `json:"priority"`
    StoryPoints        *int     `json:"storyPoints,omitempty"`
    ParentEpic         string   `json:"parentEpic,omitempty"`
}

type IssueTypeDescriptor struct {
    ID      string `json:"id"`
    Name    string `json:"name"`
    Subtask bool   `json:"subtask"`
}

type TypeMapping struct {
    Epic  *IssueTypeDescriptor `json:"epicType,omitempty"`
    Story *IssueTypeDescriptor `json:"storyType,omitempty"`
}

func (m TypeMapping) Resolve(k Kind) *IssueTypeDescriptor {
    switch k {
    case KindEpic:
        return m.Epic
    case KindStory:
        return m.Story
    }
    return nil
}

type Status string

const (
    StatusPublished Status = "Published"
    StatusFailed    Status = "Failed"
)

type PublishOutcome struct {
    Item         CandidateItem `json:"item"`
    Status       Status        `json:"status"`
    ExternalKey  string        `json:"externalKey,omitempty"`
    ExternalID   string        `json:"externalId,omitempty"`
    ErrorDetail  string        `json:"errorDetail,omitempty"`
    Attempts     int           `json:"attempts"`
    Deduplicated bool          `json:"deduplicated,omitempty"`
}

// Installation is one Connect tenant registration.
type Installation struct {
    ClientKey    string
    SharedSecret string
    BaseURL      string
    ProductType  string
    Description  string
    Enabled      bool
    InstalledAt  time.Time
    UpdatedAt    time.Time
}

// PublishRecord remembers which candidate fingerprint produced which issue.
type PublishRecord struct {
    Fingerprint string
    ProjectKey  string
    Kind        Kind
    Title       string
    ExternalKey string
    ExternalID  string
    CreatedAt   time.Time
}

type ChatMessage struct {
    Role    string `json:"role"`
    Content string `json:"content"`
}
