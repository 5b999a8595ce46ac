/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(accessLog(log))
    r.Use(cors())

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    r.GET("/ping", h.Ping)
    r.GET("/atlassian-connect.json", h.ConnectDescriptor)

    api := r.Group("/api")
    api.POST("/publish-to-jira", h.PublishToJira)
    api.POST("/probe", h.Probe)
    api.POST("/generate-stories", h.GenerateStories)
    api.POST("/generate-stories-from-chat", h.GenerateFromChat)
    api.POST("/chat", h.Chat)
    api.GET("/jira/projects", h.ListProjects)
    api.POST("/jira/projects", h.CreateProject)
    api.GET("/jira/test", h.TestConnection)
    // Jira retries lifecycle posts that fail, so these always acknowledge.
    api.POST("/atlassian/:event", h.Lifecycle)

    return r
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
    return func(c *gin.Context) {
        rid := c.GetHeader(requestIDHeader)
        if rid == "" { rid = uuid.NewString() }
        c.Set("rid", rid)
        c.Header(requestIDHeader, rid)
        start := time.Now()
        c.Next()
        log.Info().Str("rid", rid).Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).
            Dur("took", time.Since(start)).Msg("http")
    }
}

// cors lets the add-on iframe and local frontends call the API.
func cors() gin.HandlerFunc {
    return func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
        c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
        if c.Request.Method == http.MethodOptions {
            c.AbortWithStatus(http.StatusNoContent)
            return
        }
        c.Next()
    }
}
