/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
)

const storyShape = `Return the response as a JSON object with this structure:
{
  %s"stories": [
    {
      "id": "unique-id",
      "type": "epic" or "story",
      "title": "Story Title",
      "description": "Detailed description",
      "acceptanceCriteria": ["criteria 1", "criteria 2", "criteria 3"],
      "priority": "High" | "Medium" | "Low",
      "storyPoints": number (only for stories, not epics),
      "parentEpic": "epic-id" (only for stories)
    }
  ]
}
If you cannot produce JSON, list each item as lines starting with Type:, Title:, Description:, Priority:, Story Points: and Acceptance Criteria: followed by "-" bullets.`

const storyRules = `Please generate:
1. 2-4 EPICs that group related functionality
2. 8-15 detailed User Stories under these EPICs
3. Each story should include:
   - Clear title
   - Detailed description in "As a [user], I want [goal] so that [benefit]" format
   - 3-5 acceptance criteria
   - Priority (High/Medium/Low)
   - Story points estimate (1, 2, 3, 5, 8, 13)
Make sure the stories are practical, testable, and follow INVEST principles.`

const analystSystem = "You are an expert Product Owner and Business Analyst who turns requirements into EPICs and User Stories."

const assistantSystem = `You are PO Assist, an expert AI assistant specializing in Product Management, Agile methodologies, User Stories, EPICs, and software development best practices.
You help Product Owners, Business Analysts, and development teams with writing and refining user stories and EPICs, Agile and Scrum guidance, requirements analysis, backlog management, sprint planning and stakeholder communication.
Provide helpful, practical, and actionable advice. Be concise but thorough.`

// Generation is a parsed and normalized model answer.
type Generation struct {
    Status   ParseStatus            `json:"status"`
    Response string                 `json:"response,omitempty"`
    Stories  []domain.CandidateItem `json:"stories"`
    Skipped  int                    `json:"skippedCount"`
    Warnings []string               `json:"warnings,omitempty"`
}

func (s *Service) complete(ctx context.Context, system, prompt string) (string, error) {
    if s.llm == nil || !s.cfg.LLMConfigured() { return "", fmt.Errorf("%w: no API key for LLM provider %q", ErrConfig, s.cfg.LLMProvider) }
    return s.llm.Complete(ctx, system, prompt)
}

// GenerateStories turns a BRD into candidates; unparseable output is an error.
func (s *Service) GenerateStories(ctx context.Context, brd, projectName string) (*Generation, error) {
    if strings.TrimSpace(brd) == "" { return nil, fmt.Errorf("%w: brdContent is required", ErrInvalidInput) }
    prompt := "Analyze the following Business Requirements Document and generate comprehensive EPICs and User Stories.\n\n" +
        "Project Name: " + projectName + "\n\nBRD Content:\n" + brd + "\n\n" + storyRules + "\n\n" + fmt.Sprintf(storyShape, "")
    text, err := s.complete(ctx, analystSystem, prompt)
    if err != nil { return nil, err }
    g := s.digest(text)
    if g.Status == ParseUnparseable {
        s.log.Warn().Int("len", len(text)).Msg("story generation output unparseable")
        return nil, ErrUnparseable
    }
    return g, nil
}

// GenerateFromChat is GenerateStories over a conversation; prose answers come back with no stories.
func (s *Service) GenerateFromChat(ctx context.Context, message string, history []domain.ChatMessage) (*Generation, error) {
    if strings.TrimSpace(message) == "" { return nil, fmt.Errorf("%w: message is required", ErrInvalidInput) }
    prompt := "The user has provided BRD content in our conversation and is asking you to generate user stories.\n\n" +
        "Conversation History:\n" + transcript(s.window(history), "role") + "\n\nCurrent Request: " + message + "\n\n" +
        "Based on the BRD content mentioned in our conversation, first provide a conversational response explaining what you're doing, then return the stories.\n" +
        storyRules + "\n\n" + fmt.Sprintf(storyShape, `"response": "Your conversational response explaining the story generation",`+"\n  ")
    text, err := s.complete(ctx, analystSystem, prompt)
    if err != nil { return nil, err }
    return s.digest(text), nil
}

// Chat answers a product-management question with bounded history.
func (s *Service) Chat(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
    if strings.TrimSpace(message) == "" { return "", fmt.Errorf("%w: message is required", ErrInvalidInput) }
    prompt := "Previous conversation:\n" + transcript(s.window(history), "speaker") + "\n\nCurrent user message: " + message
    return s.complete(ctx, assistantSystem, prompt)
}

func (s *Service) digest(text string) *Generation {
    pr := ParseCompletion(text)
    norm := Normalize(pr.Items)
    g := &Generation{Status: pr.Status, Response: pr.Response, Stories: norm.Items, Skipped: norm.Skipped, Warnings: pr.Warnings}
    if g.Status == ParseUnparseable { g.Stories = []domain.CandidateItem{} }
    return g
}

func (s *Service) window(h []domain.ChatMessage) []domain.ChatMessage {
    return trimHistory(h, s.cfg.LLMHistoryWindow)
}

func trimHistory(h []domain.ChatMessage, n int) []domain.ChatMessage {
    if n <= 0 || len(h) <= n { return h }
    return h[len(h)-n:]
}

// transcript renders history as "role: content" or "User:/Assistant:" lines.
func transcript(h []domain.ChatMessage, style string) string {
    lines := make([]string, 0, len(h))
    for _, m := range h {
        who := m.Role
        if style == "speaker" {
            who = "Assistant"
            if m.Role == "user" { who = "User" }
        }
        lines = append(lines, who+": "+m.Content)
    }
    return strings.Join(lines, "\n")
}
