/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "encoding/json"
    "fmt"
    "regexp"
    "strings"
)

type ParseStatus string

const (
    ParseSuccess     ParseStatus = "success"
    ParsePartial     ParseStatus = "partial"
    ParseUnparseable ParseStatus = "unparseable"
)

// ParseResult is the tagged outcome of reading model output. Items are raw
// candidate objects for Normalize.
type ParseResult struct {
    Status   ParseStatus
    Items    []any
    Warnings []string
    Response string
    Raw      string
}

// ParseCompletion recovers candidates from model text: embedded JSON first,
// then the line-marker grammar (Title:, Description:, Priority:, Type:,
// Story Points:, Acceptance Criteria: followed by bullets).
func ParseCompletion(text string) ParseResult {
    res := ParseResult{Raw: text}
    items, response, warnings, found := parseEmbeddedJSON(text)
    res.Response = response
    if found && len(items) > 0 {
        res.Items, res.Warnings = items, warnings
    } else {
        res.Items, res.Warnings = parseMarkers(text)
    }
    switch {
    case len(res.Items) == 0:
        res.Status = ParseUnparseable
        res.Items = nil
    case len(res.Warnings) > 0:
        res.Status = ParsePartial
    default:
        res.Status = ParseSuccess
    }
    if res.Response == "" && res.Status == ParseUnparseable { res.Response = strings.TrimSpace(text) }
    return res
}

func parseEmbeddedJSON(text string) (items []any, response string, warnings []string, found bool) {
    tryObject := func() bool {
        i, j := strings.Index(text, "{"), strings.LastIndex(text, "}")
        if i < 0 || j <= i { return false }
        var obj map[string]any
        if err := json.Unmarshal([]byte(text[i:j+1]), &obj); err != nil { return false }
        response, _ = obj["response"].(string)
        list, _ := obj["stories"].([]any)
        items, warnings = objectsOnly(list)
        return true
    }
    tryArray := func() bool {
        i, j := strings.Index(text, "["), strings.LastIndex(text, "]")
        if i < 0 || j <= i { return false }
        var list []any
        if err := json.Unmarshal([]byte(text[i:j+1]), &list); err != nil { return false }
        items, warnings = objectsOnly(list)
        return true
    }
    // whichever bracket opens first is the outermost value
    if a, o := strings.Index(text, "["), strings.Index(text, "{"); a >= 0 && (o < 0 || a < o) {
        if tryArray() { return items, response, warnings, true }
    }
    if tryObject() { return items, response, warnings, true }
    if tryArray() { return items, response, warnings, true }
    return nil, "", nil, false
}

func objectsOnly(list []any) ([]any, []string) {
    var out []any
    var warnings []string
    for i, e := range list {
        if _, ok := e.(map[string]any); !ok {
            warnings = append(warnings, fmt.Sprintf("entry %d is not an object", i+1))
            continue
        }
        out = append(out, e)
    }
    return out, warnings
}

var (
    listPrefix   = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
    headingStrip = strings.NewReplacer("**", "", "__", "", "`", "")
)

const (
    secNone = iota
    secDescription
    secCriteria
)

type markerBlock struct {
    fields   map[string]any
    criteria []any
    desc     []string
    section  int
}

func (b *markerBlock) empty() bool { return len(b.fields) == 0 && len(b.desc) == 0 && len(b.criteria) == 0 }

// marker splits "**Title:** Foo" into ("title", "Foo").
func marker(line string) (string, string, bool) {
    bare := strings.TrimSpace(headingStrip.Replace(line))
    bare = strings.TrimLeft(bare, "#> ")
    bare = listPrefix.ReplaceAllString(bare, "")
    idx := strings.Index(bare, ":")
    if idx <= 0 { return "", "", false }
    key := strings.ToLower(strings.TrimSpace(bare[:idx]))
    switch key {
    case "title", "description", "priority", "type", "story points", "acceptance criteria":
        return key, strings.TrimSpace(bare[idx+1:]), true
    }
    return "", "", false
}

func parseMarkers(text string) ([]any, []string) {
    var items []any
    var warnings []string
    cur := &markerBlock{fields: map[string]any{}}
    n := 0
    flush := func() {
        if cur.empty() { return }
        n++
        if len(cur.desc) > 0 { cur.fields["description"] = strings.Join(cur.desc, "\n") }
        if len(cur.criteria) > 0 { cur.fields["acceptanceCriteria"] = cur.criteria }
        if _, ok := cur.fields["title"]; !ok { warnings = append(warnings, fmt.Sprintf("block %d has no Title", n)) }
        if _, ok := cur.fields["type"]; !ok {
            warnings = append(warnings, fmt.Sprintf("block %d has no Type; assumed story", n))
            cur.fields["type"] = "story"
        }
        items = append(items, cur.fields)
        cur = &markerBlock{fields: map[string]any{}}
    }

    for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
        trimmed := strings.TrimSpace(line)
        if trimmed == "" { continue }
        if cur.section == secCriteria && listPrefix.MatchString(trimmed) {
            // bullets stay criteria even when they read like a field, unless they open a new block
            if key, _, ok := marker(trimmed); !ok || (key != "title" && key != "type") {
                cur.criteria = append(cur.criteria, strings.TrimSpace(listPrefix.ReplaceAllString(trimmed, "")))
                continue
            }
        }
        if key, val, ok := marker(trimmed); ok {
            switch key {
            case "title", "type":
                if _, dup := cur.fields[key]; dup { flush() }
                if key == "type" { cur.fields["type"] = kindWord(val) } else { cur.fields["title"] = val }
                cur.section = secNone
            case "description":
                cur.desc = nil
                if val != "" { cur.desc = append(cur.desc, val) }
                cur.section = secDescription
            case "priority":
                cur.fields["priority"] = val
                cur.section = secNone
            case "story points":
                cur.fields["storyPoints"] = val
                cur.section = secNone
            case "acceptance criteria":
                if val != "" { cur.criteria = append(cur.criteria, val) }
                cur.section = secCriteria
            }
            continue
        }
        switch cur.section {
        case secCriteria, secDescription:
            cur.desc = append(cur.desc, trimmed)
        }
    }
    flush()
    return items, warnings
}

func kindWord(v string) string {
    l := strings.ToLower(strings.TrimSpace(v))
    switch {
    case strings.Contains(l, "epic"):
        return "epic"
    case strings.Contains(l, "story"):
        return "story"
    }
    return l
}
