/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/rs/zerolog"
)

type service interface {
    PublishBatch(ctx context.Context, req services.PublishRequest) (*services.Ledger, error)
    ProbeProject(ctx context.Context, projectKey string) (*services.ProbeReport, error)
    GenerateStories(ctx context.Context, brd, projectName string) (*services.Generation, error)
    GenerateFromChat(ctx context.Context, message string, history []domain.ChatMessage) (*services.Generation, error)
    Chat(ctx context.Context, message string, history []domain.ChatMessage) (string, error)
    ListProjects(ctx context.Context) (*services.ProjectsReport, error)
    CreateProject(ctx context.Context, req services.NewProjectRequest) (*jira.CreatedProject, error)
    TestConnection(ctx context.Context) (*services.ConnectionReport, error)
    HandleLifecycle(ctx context.Context, event string, ev services.LifecycleEvent) error
}

type Handlers struct {
    cfg     config.Config
    log     zerolog.Logger
    svc     service
    started time.Time
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc, started: time.Now()}
}

// fail maps service errors onto status codes; anything unknown is a 500.
func (h *Handlers) fail(c *gin.Context, err error) {
    status := http.StatusInternalServerError
    var apiErr *jira.APIError
    switch {
    case errors.Is(err, services.ErrInvalidInput): status = http.StatusBadRequest
    case errors.Is(err, services.ErrUnparseable): status = http.StatusUnprocessableEntity
    case errors.Is(err, services.ErrProjectExists): status = http.StatusConflict
    case errors.Is(err, services.ErrPermission): status = http.StatusForbidden
    case errors.Is(err, services.ErrConfig): status = http.StatusInternalServerError
    case errors.As(err, &apiErr): status = http.StatusBadGateway
    }
    rid, _ := c.Get("rid")
    ev := h.log.Warn()
    if status >= 500 { ev = h.log.Error() }
    ev.Err(err).Interface("rid", rid).Str("p", c.FullPath()).Int("s", status).Msg("request failed")
    c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{
        "ok":             true,
        "jiraConfigured": h.cfg.JiraConfigured(),
        "llmConfigured":  h.cfg.LLMConfigured(),
        "llmProvider":    h.cfg.LLMProvider,
    })
}

func (h *Handlers) Ping(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"message": "pong", "uptime": time.Since(h.started).Round(time.Second).String()})
}

type publishBody struct {
    ProjectKey string `json:"projectKey"`
    Items      []any  `json:"items"`
    Stories    []any  `json:"stories"`
}

func (h *Handlers) PublishToJira(c *gin.Context) {
    var body publishBody
    if err := c.ShouldBindJSON(&body); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
        return
    }
    items := body.Items
    if items == nil { items = body.Stories }
    ledger, err := h.svc.PublishBatch(c.Request.Context(), services.PublishRequest{ProjectKey: body.ProjectKey, Items: items})
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, ledger)
}

func (h *Handlers) Probe(c *gin.Context) {
    var body struct { ProjectKey string `json:"projectKey"` }
    _ = c.ShouldBindJSON(&body)
    if body.ProjectKey == "" { body.ProjectKey = c.Query("projectKey") }
    rep, err := h.svc.ProbeProject(c.Request.Context(), body.ProjectKey)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, rep)
}

func (h *Handlers) GenerateStories(c *gin.Context) {
    var body struct {
        BRDContent  string `json:"brdContent"`
        ProjectName string `json:"projectName"`
    }
    if err := c.ShouldBindJSON(&body); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
        return
    }
    g, err := h.svc.GenerateStories(c.Request.Context(), body.BRDContent, body.ProjectName)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, gin.H{"success": true, "stories": g.Stories, "skippedCount": g.Skipped, "warnings": g.Warnings, "status": g.Status})
}

func (h *Handlers) GenerateFromChat(c *gin.Context) {
    var body struct {
        Message             string               `json:"message"`
        ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
    }
    if err := c.ShouldBindJSON(&body); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
        return
    }
    g, err := h.svc.GenerateFromChat(c.Request.Context(), body.Message, body.ConversationHistory)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, gin.H{"success": true, "response": g.Response, "stories": g.Stories, "status": g.Status})
}

func (h *Handlers) Chat(c *gin.Context) {
    var body struct {
        Message string               `json:"message"`
        History []domain.ChatMessage `json:"history"`
    }
    if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
        c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
        return
    }
    answer, err := h.svc.Chat(c.Request.Context(), body.Message, body.History)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, gin.H{"success": true, "response": answer})
}

func (h *Handlers) ListProjects(c *gin.Context) {
    rep, err := h.svc.ListProjects(c.Request.Context())
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, gin.H{"success": true, "projects": rep.Projects, "projectTypes": rep.ProjectTypes})
}

func (h *Handlers) CreateProject(c *gin.Context) {
    var body services.NewProjectRequest
    if err := c.ShouldBindJSON(&body); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
        return
    }
    p, err := h.svc.CreateProject(c.Request.Context(), body)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusCreated, gin.H{"success": true, "project": p})
}

func (h *Handlers) TestConnection(c *gin.Context) {
    rep, err := h.svc.TestConnection(c.Request.Context())
    if err != nil { h.fail(c, err); return }
    status := http.StatusOK
    if !rep.OK { status = http.StatusBadGateway }
    c.JSON(status, rep)
}

func (h *Handlers) Lifecycle(c *gin.Context) {
    event := c.Param("event")
    raw, err := c.GetRawData()
    var ev services.LifecycleEvent
    if err == nil && len(raw) > 0 { err = json.Unmarshal(raw, &ev) }
    if err == nil { err = h.svc.HandleLifecycle(c.Request.Context(), event, ev) }
    if err != nil { h.log.Warn().Err(err).Str("event", event).Str("client", ev.ClientKey).Msg("lifecycle event not recorded") }
    c.JSON(http.StatusOK, gin.H{"success": true})
}
