/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package anthropic

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    sdk "github.com/anthropics/anthropic-sdk-go"
    "github.com/anthropics/anthropic-sdk-go/option"
    "github.com/rs/zerolog"
)

const maxTokens = 8192

type Client struct {
    key     string
    model   sdk.Model
    timeout time.Duration
    cli     sdk.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    cli := sdk.NewClient(option.WithAPIKey(cfg.AnthropicKey))
    return &Client{ key: cfg.AnthropicKey, model: sdk.Model(cfg.AnthropicModel), timeout: cfg.LLMTimeout, cli: cli, log: log.With().Str("component", "anthropic").Logger() }
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("anthropic: missing key") }
    if c.timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.timeout); defer cancel()
    }
    c.log.Info().Str("model", string(c.model)).Int("prompt_len", len(prompt)).Msg("anthropic completion call")
    params := sdk.MessageNewParams{
        Model:     c.model,
        MaxTokens: maxTokens,
        Messages: []sdk.MessageParam{
            sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
        },
    }
    if system != "" { params.System = []sdk.TextBlockParam{{Text: system}} }
    message, err := c.cli.Messages.New(ctx, params)
    if err != nil {
        var apiErr *sdk.Error
        if errors.As(err, &apiErr) { return "", fmt.Errorf("anthropic status=%d: %w", apiErr.StatusCode, err) }
        return "", err
    }
    var sb strings.Builder
    for _, block := range message.Content {
        if block.Type == "text" { sb.WriteString(block.Text) }
    }
    if sb.Len() == 0 { return "", errors.New("anthropic: no text content") }
    return sb.String(), nil
}
