/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strings"

    "github.com/HamedShams/po-assist/internal/domain"
)

// LifecycleEvent is the body Jira posts to the add-on lifecycle URLs.
type LifecycleEvent struct {
    Key          string `json:"key"`
    ClientKey    string `json:"clientKey"`
    SharedSecret string `json:"sharedSecret"`
    BaseURL      string `json:"baseUrl"`
    ProductType  string `json:"productType"`
    Description  string `json:"description"`
    EventType    string `json:"eventType"`
}

// HandleLifecycle records an install handshake in the installation store.
func (s *Service) HandleLifecycle(ctx context.Context, event string, ev LifecycleEvent) error {
    if s.store == nil { return nil }
    if strings.TrimSpace(ev.ClientKey) == "" { return fmt.Errorf("%w: clientKey missing", ErrInvalidInput) }
    switch event {
    case "installed":
        return s.store.SaveInstallation(ctx, domain.Installation{
            ClientKey: ev.ClientKey, SharedSecret: ev.SharedSecret, BaseURL: ev.BaseURL,
            ProductType: ev.ProductType, Description: ev.Description, Enabled: true,
        })
    case "uninstalled":
        return s.store.DeleteInstallation(ctx, ev.ClientKey)
    case "enabled", "disabled":
        return s.store.SetInstallationEnabled(ctx, ev.ClientKey, event == "enabled")
    }
    return fmt.Errorf("%w: unknown lifecycle event %q", ErrInvalidInput, event)
}
