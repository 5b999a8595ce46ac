/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

type Config struct {
    AppEnv   string
    TZ       string
    HTTPAddr string

    PublicBaseURL string
    HTTPTimeout   time.Duration

    DBDriver string
    DBDSN    string

    JiraBaseURL          string
    JiraEmail            string
    JiraAPIToken         string
    JiraPAT              string
    JiraAPIVersion       string
    JiraRetryMaxElapsed  time.Duration
    JiraPriorityField    string
    JiraStoryPointsField string

    StoryTypeFallback string
    PublishDedupe     bool
    PublishRecordTTL  time.Duration
    PruneCron         string

    LLMProvider      string
    OpenAIKey        string
    OpenAIModel      string
    AnthropicKey     string
    AnthropicModel   string
    LLMTimeout       time.Duration
    LLMHistoryWindow int

    TelegramToken   string
    TelegramChatIDs []int64
}

// Story type fallback policies.
const (
    FallbackStrict = "strict"
    FallbackTask   = "task"
)

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

func boolean(key string, def bool) bool {
    v := os.Getenv(key)
    if v == "" { return def }
    b, err := strconv.ParseBool(v)
    if err != nil { return def }
    return b
}

func parseInt64s(csv string) []int64 {
    if csv == "" { return nil }
    parts := strings.Split(csv, ",")
    out := make([]int64, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p == "" { continue }
        n, err := strconv.ParseInt(p, 10, 64)
        if err == nil { out = append(out, n) }
    }
    return out
}

// Load reads .env (if present) and the process environment.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("warning: cannot load .env: %v", err)
    }
    cfg := Config{
        AppEnv:   getenv("APP_ENV", "dev"),
        TZ:       getenv("APP_TZ", "UTC"),
        HTTPAddr: getenv("HTTP_ADDR", ":8080"),

        PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
        HTTPTimeout:   dur("HTTP_TIMEOUT", 30*time.Second),

        DBDriver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
        DBDSN:    getenv("DB_DSN", "file:po-assist.db?_pragma=busy_timeout(5000)"),

        JiraBaseURL:          strings.TrimRight(getenv("JIRA_BASE_URL", ""), "/"),
        JiraEmail:            getenv("JIRA_EMAIL", ""),
        JiraAPIToken:         getenv("JIRA_API_TOKEN", ""),
        JiraPAT:              getenv("JIRA_PAT", ""),
        JiraAPIVersion:       getenv("JIRA_API_VERSION", "3"),
        JiraRetryMaxElapsed:  dur("JIRA_RETRY_MAX_ELAPSED", 10*time.Second),
        JiraPriorityField:    strings.TrimSpace(getenv("JIRA_PRIORITY_FIELD", "")),
        JiraStoryPointsField: strings.TrimSpace(getenv("JIRA_STORY_POINTS_FIELD", "")),

        StoryTypeFallback: strings.ToLower(getenv("STORY_TYPE_FALLBACK", FallbackStrict)),
        PublishDedupe:     boolean("PUBLISH_DEDUPE", true),
        PublishRecordTTL:  dur("PUBLISH_RECORD_TTL", 90*24*time.Hour),
        PruneCron:         getenv("PRUNE_CRON", "0 3 * * *"),

        LLMProvider:      strings.ToLower(getenv("LLM_PROVIDER", "openai")),
        OpenAIKey:        getenv("OPENAI_API_KEY", ""),
        OpenAIModel:      getenv("OPENAI_MODEL", "gpt-4.1-mini"),
        AnthropicKey:     getenv("ANTHROPIC_API_KEY", ""),
        AnthropicModel:   getenv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
        LLMTimeout:       dur("LLM_TIMEOUT", 60*time.Second),
        LLMHistoryWindow: atoi("LLM_HISTORY_WINDOW", 10),

        TelegramToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
        TelegramChatIDs: parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),
    }

    if cfg.StoryTypeFallback != FallbackTask { cfg.StoryTypeFallback = FallbackStrict }
    if cfg.JiraAPIVersion != "2" { cfg.JiraAPIVersion = "3" }

    // set global timezone if available
    if loc, err := time.LoadLocation(cfg.TZ); err == nil {
        time.Local = loc
    } else {
        log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
    }
    return cfg
}

// JiraConfigured reports whether a base URL and some credential are present.
func (c Config) JiraConfigured() bool {
    if c.JiraBaseURL == "" { return false }
    return c.JiraPAT != "" || (c.JiraEmail != "" && c.JiraAPIToken != "")
}

// LLMConfigured reports whether the selected provider has a key.
func (c Config) LLMConfigured() bool {
    if c.LLMProvider == "anthropic" { return c.AnthropicKey != "" }
    return c.OpenAIKey != ""
}
