/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "fmt"
    "strings"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/spf13/cobra"
)

var (
    publishProject string
    publishFile    string
    publishDryRun  bool
)

var publishCmd = &cobra.Command{
    Use:   "publish",
    Short: "Publish candidates from a file to a Jira project",
    Long: `Parses --file like "poctl parse" and creates one issue per eligible item.
With --dry-run nothing is sent; the rendered descriptions are printed instead.`,
    RunE: runPublish,
}

func init() {
    publishCmd.Flags().StringVarP(&publishProject, "project", "p", "", "Jira project key")
    publishCmd.Flags().StringVarP(&publishFile, "file", "f", "", "Input file (default stdin)")
    publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Print what would be created without calling Jira")
    _ = publishCmd.MarkFlagRequired("project")
}

func runPublish(cmd *cobra.Command, args []string) error {
    rep, err := loadCandidates(publishFile)
    if err != nil { return err }
    out := cmd.OutOrStdout()
    if publishDryRun {
        if jsonOutput { return printJSON(out, rep) }
        for _, it := range rep.Items {
            fmt.Fprintf(out, "[%s] %s\n", it.Kind, it.Title)
            for _, line := range strings.Split(jira.DocText(jira.DescriptionDoc(it.Description, it.AcceptanceCriteria)), "\n") {
                fmt.Fprintf(out, "    %s\n", line)
            }
        }
        fmt.Fprintf(out, "%d items would be published to %s (%d skipped)\n", len(rep.Items), strings.ToUpper(publishProject), rep.Skipped)
        return nil
    }

    cfg, log := setup()
    jc, err := newJira(cfg, log)
    if err != nil { return err }
    store, err := repo.Open(cmd.Context(), cfg, log)
    if err != nil { return err }
    defer store.Close()

    svc := services.New(cfg, log, store, jc, nil, nil)
    ledger, err := svc.PublishBatch(cmd.Context(), services.PublishRequest{ProjectKey: publishProject, Items: rep.raw})
    if err != nil { return err }
    if jsonOutput { return printJSON(out, ledger) }

    for _, o := range ledger.Outcomes() {
        switch {
        case o.Deduplicated: fmt.Fprintf(out, "= %-10s %s (already published)\n", o.ExternalKey, o.Item.Title)
        case o.ExternalKey != "": fmt.Fprintf(out, "+ %-10s %s\n", o.ExternalKey, o.Item.Title)
        default: fmt.Fprintf(out, "! %-10s %s: %s\n", "-", o.Item.Title, o.ErrorDetail)
        }
    }
    fmt.Fprintln(out, ledger.Message())
    if ledger.FailedCount() > 0 { return fmt.Errorf("%d items failed", ledger.FailedCount()) }
    return nil
}
