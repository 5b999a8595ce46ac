/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/rs/zerolog"
)

const defaultAPIBase = "https://api.telegram.org"

type Client struct {
    token   string
    chats   []int64
    apiBase string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{ token: cfg.TelegramToken, chats: cfg.TelegramChatIDs, apiBase: defaultAPIBase, http: &http.Client{ Timeout: 10 * time.Second }, log: log.With().Str("component", "telegram").Logger() }
}

// WithAPIBase points the client at another Bot API host.
func (c *Client) WithAPIBase(base string) *Client { c.apiBase = strings.TrimRight(base, "/"); return c }

func (c *Client) Enabled() bool { return c.token != "" && len(c.chats) > 0 }

// SendMessagePlain sends without parse_mode so titles never break markdown parsing.
func (c *Client) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
    if c.token == "" || chatID == 0 { return fmt.Errorf("telegram: missing token or chat id") }
    url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
    body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
    b, _ := json.Marshal(body)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        bodyBytes, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(bodyBytes))
    }
    return nil
}

// Broadcast sends text to every configured chat and returns the first error.
func (c *Client) Broadcast(ctx context.Context, text string) error {
    var first error
    for _, chat := range c.chats {
        if err := c.SendMessagePlain(ctx, chat, text); err != nil {
            c.log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
            if first == nil { first = err }
        }
    }
    return first
}
