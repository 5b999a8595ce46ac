/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "encoding/json"
    "fmt"
    "math"
    "strconv"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
)

type NormalizeResult struct {
    Items   []domain.CandidateItem
    Skipped int
}

// Normalize turns untrusted candidate objects into CandidateItems. Entries
// whose kind is not exactly "epic" or "story" are dropped and counted.
func Normalize(raw []any) NormalizeResult {
    res := NormalizeResult{Items: make([]domain.CandidateItem, 0, len(raw))}
    for i, r := range raw {
        item, ok := normalizeOne(i, r)
        if !ok { res.Skipped++; continue }
        res.Items = append(res.Items, item)
    }
    return res
}

func normalizeOne(idx int, raw any) (item domain.CandidateItem, ok bool) {
    defer func() {
        if r := recover(); r != nil { item, ok = domain.CandidateItem{}, false }
    }()
    m, isObj := raw.(map[string]any)
    if !isObj { return item, false }

    kindVal, has := m["type"]
    if !has { kindVal = m["kind"] }
    kind, _ := kindVal.(string)
    switch domain.Kind(kind) {
    case domain.KindEpic, domain.KindStory:
        item.Kind = domain.Kind(kind)
    default:
        return item, false
    }

    item.ID = textOr(m["id"], fmt.Sprintf("item-%d", idx+1))
    item.Title = textOr(m["title"], domain.DefaultTitle)
    item.Description = textOr(m["description"], domain.DefaultDescription)
    item.AcceptanceCriteria = criteria(m["acceptanceCriteria"])
    item.Priority = priority(m["priority"])
    if item.Kind == domain.KindStory {
        if n, ok := positiveInt(m["storyPoints"]); ok { item.StoryPoints = &n }
    }
    item.ParentEpic = textOr(m["parentEpic"], "")
    return item, true
}

func textOr(v any, def string) string {
    var s string
    switch t := v.(type) {
    case string:
        s = t
    case json.Number:
        s = t.String()
    case float64:
        if t == math.Trunc(t) { s = strconv.FormatInt(int64(t), 10) }
    }
    s = strings.TrimSpace(s)
    if s == "" { return def }
    return s
}

func criteria(v any) []string {
    out := []string{}
    switch list := v.(type) {
    case []any:
        for _, e := range list {
            if s, ok := e.(string); ok && strings.TrimSpace(s) != "" { out = append(out, strings.TrimSpace(s)) }
        }
    case []string:
        for _, s := range list {
            if strings.TrimSpace(s) != "" { out = append(out, strings.TrimSpace(s)) }
        }
    }
    return out
}

func priority(v any) domain.Priority {
    s, _ := v.(string)
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "high", "highest":
        return domain.PriorityHigh
    case "low", "lowest":
        return domain.PriorityLow
    }
    return domain.PriorityMedium
}

func positiveInt(v any) (int, bool) {
    var f float64
    switch t := v.(type) {
    case float64:
        f = t
    case int:
        f = float64(t)
    case int64:
        f = float64(t)
    case json.Number:
        n, err := t.Float64()
        if err != nil { return 0, false }
        f = n
    case string:
        n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
        if err != nil { return 0, false }
        f = n
    default:
        return 0, false
    }
    if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 { return 0, false }
    return int(f), true
}
