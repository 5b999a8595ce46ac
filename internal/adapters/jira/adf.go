/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import "strings"

// DescriptionDoc builds an Atlassian Document Format body: the description
// paragraph and, only when criteria exist, an "Acceptance Criteria" heading
// followed by a bullet list.
func DescriptionDoc(description string, criteria []string) map[string]any {
    content := []any{paragraph(description)}
    if len(criteria) > 0 {
        content = append(content, map[string]any{
            "type":    "heading",
            "attrs":   map[string]any{"level": 3},
            "content": []any{text("Acceptance Criteria")},
        })
        items := make([]any, 0, len(criteria))
        for _, ac := range criteria {
            items = append(items, map[string]any{"type": "listItem", "content": []any{paragraph(ac)}})
        }
        content = append(content, map[string]any{"type": "bulletList", "content": items})
    }
    return map[string]any{"type": "doc", "version": 1, "content": content}
}

func paragraph(s string) map[string]any {
    // ADF rejects empty text nodes
    if s == "" { return map[string]any{"type": "paragraph", "content": []any{}} }
    return map[string]any{"type": "paragraph", "content": []any{text(s)}}
}

func text(s string) map[string]any { return map[string]any{"type": "text", "text": s} }

// WikiDescription is the v2 (wiki markup) equivalent of DescriptionDoc.
func WikiDescription(description string, criteria []string) string {
    var sb strings.Builder
    sb.WriteString(description)
    if len(criteria) > 0 {
        sb.WriteString("\n\nh3. Acceptance Criteria\n")
        for _, ac := range criteria { sb.WriteString("* " + ac + "\n") }
    }
    return strings.TrimRight(sb.String(), "\n")
}

// DocText flattens an ADF node back to plain text, one line per block.
func DocText(node any) string {
    var sb strings.Builder
    walkText(node, &sb)
    return strings.TrimSpace(sb.String())
}

func walkText(node any, sb *strings.Builder) {
    m, ok := node.(map[string]any)
    if !ok { return }
    if t, _ := m["type"].(string); t == "text" {
        s, _ := m["text"].(string)
        sb.WriteString(s)
        return
    }
    children, _ := m["content"].([]any)
    for _, ch := range children { walkText(ch, sb) }
    switch m["type"] {
    case "paragraph", "heading":
        sb.WriteString("\n")
    }
}
