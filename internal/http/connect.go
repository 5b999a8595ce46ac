/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "net/http"

    "github.com/gin-gonic/gin"
)

// ConnectDescriptor serves the Atlassian Connect app descriptor.
func (h *Handlers) ConnectDescriptor(c *gin.Context) {
    base := h.cfg.PublicBaseURL
    if base == "" { base = "http://" + c.Request.Host }
    c.JSON(http.StatusOK, gin.H{
        "key":         "po-assist",
        "name":        "PO Assist",
        "description": "Generate epics and user stories from requirements and publish them to Jira",
        "vendor":      gin.H{"name": "PO Assist", "url": base},
        "baseUrl":     base,
        "authentication": gin.H{"type": "none"},
        "apiVersion":  1,
        "lifecycle": gin.H{
            "installed":   "/api/atlassian/installed",
            "uninstalled": "/api/atlassian/uninstalled",
            "enabled":     "/api/atlassian/enabled",
            "disabled":    "/api/atlassian/disabled",
        },
        "scopes": []string{"READ", "WRITE"},
        "modules": gin.H{
            "generalPages": []gin.H{{
                "key":      "po-assist-page",
                "location": "system.top.navigation.bar",
                "name":     gin.H{"value": "PO Assist"},
                "url":      "/",
            }},
            "webPanels": []gin.H{{
                "key":      "po-assist-panel",
                "location": "atl.jira.view.issue.right.context",
                "name":     gin.H{"value": "PO Assist"},
                "url":      "/?issueKey={issue.key}&projectKey={project.key}",
            }},
        },
    })
}
