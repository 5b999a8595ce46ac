/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/cenkalti/backoff/v4"
    "github.com/rs/zerolog"
)

// ErrNotConfigured is returned before any request when base URL or credentials are missing.
var ErrNotConfigured = errors.New("jira: missing base URL or credentials")

var errUndecodable = errors.New("jira: undecodable response body")

// APIError is a non-2xx answer from Jira.
type APIError struct {
    Status int
    Body   string
}

func (e *APIError) Error() string { return fmt.Sprintf("jira api status=%d body=%s", e.Status, e.Body) }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
    var apiErr *APIError
    if errors.As(err, &apiErr) { return apiErr.Status }
    return 0
}

type Client struct {
    baseURL  string
    email    string
    apiToken string
    token    string
    http     *http.Client
    log      zerolog.Logger
    apiVer   string
    retryMax time.Duration
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL:  strings.TrimRight(cfg.JiraBaseURL, "/"),
        email:    cfg.JiraEmail,
        apiToken: cfg.JiraAPIToken,
        token:    cfg.JiraPAT,
        http:     &http.Client{ Timeout: cfg.HTTPTimeout },
        log:      log.With().Str("component", "jira").Logger(),
        apiVer:   cfg.JiraAPIVersion,
        retryMax: cfg.JiraRetryMaxElapsed,
    }
}

// Configured reports whether requests can be authenticated at all.
func (c *Client) Configured() bool {
    if c.baseURL == "" { return false }
    return c.token != "" || (c.email != "" && c.apiToken != "")
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) apiURL(path string, q url.Values) string {
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    ver := c.apiVer
    if ver == "" { ver = "3" }
    u := c.baseURL + "/rest/api/" + ver + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// do performs exactly one request and decodes a JSON answer into out (if non-nil).
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
    if !c.Configured() { return ErrNotConfigured }
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { return err }
        r = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, u, r)
    if err != nil { return err }
    req.Header.Set("Accept", "application/json")
    if body != nil { req.Header.Set("Content-Type", "application/json") }
    if c.token != "" {
        req.Header.Set("Authorization", "Bearer "+c.token)
    } else {
        req.SetBasicAuth(c.email, c.apiToken)
    }
    start := time.Now()
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    c.log.Debug().Str("m", method).Str("u", u).Int("s", resp.StatusCode).Dur("took", time.Since(start)).Msg("jira call")
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
        return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
    }
    if out == nil { _, _ = io.Copy(io.Discard, resp.Body); return nil }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil { return fmt.Errorf("%w: %v", errUndecodable, err) }
    return nil
}

// get retries transport errors, 429 and 5xx; other statuses are final.
func (c *Client) get(ctx context.Context, u string, out any) error {
    op := func() error {
        err := c.do(ctx, http.MethodGet, u, nil, out)
        if err == nil { return nil }
        if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil { return backoff.Permanent(err) }
        if s := StatusOf(err); s != 0 && s != http.StatusTooManyRequests && s < 500 { return backoff.Permanent(err) }
        c.log.Warn().Err(err).Str("u", u).Msg("jira read failed, retrying")
        return err
    }
    return backoff.Retry(op, backoff.WithContext(c.readBackOff(), ctx))
}

func (c *Client) readBackOff() backoff.BackOff {
    if c.retryMax <= 0 { return &backoff.StopBackOff{} }
    bo := backoff.NewExponentialBackOff()
    bo.InitialInterval = 300 * time.Millisecond
    bo.MaxElapsedTime = c.retryMax
    return bo
}
