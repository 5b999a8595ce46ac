/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    oai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"
)

type Client struct {
    key     string
    model   string
    timeout time.Duration
    cli     oai.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4.1-mini" }
    cli := oai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
    return &Client{ key: cfg.OpenAIKey, model: model, timeout: cfg.LLMTimeout, cli: cli, log: log.With().Str("component", "openai").Logger() }
}

// Complete sends one system+user exchange and returns the raw assistant text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("openai: missing key") }
    if c.timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.timeout); defer cancel()
    }
    c.log.Info().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("openai completion call")
    msgs := []oai.ChatCompletionMessageParamUnion{}
    if system != "" { msgs = append(msgs, oai.SystemMessage(system)) }
    msgs = append(msgs, oai.UserMessage(prompt))
    params := oai.ChatCompletionNewParams{ Model: shared.ChatModel(c.model), Messages: msgs }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return resp.Choices[0].Message.Content, nil
}
