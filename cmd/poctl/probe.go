/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "fmt"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/spf13/cobra"
)

var probeProject string

var probeCmd = &cobra.Command{
    Use:   "probe",
    Short: "Show the issue types a project accepts and the chosen mapping",
    RunE:  runProbe,
}

func init() {
    probeCmd.Flags().StringVarP(&probeProject, "project", "p", "", "Jira project key")
    _ = probeCmd.MarkFlagRequired("project")
}

func runProbe(cmd *cobra.Command, args []string) error {
    cfg, log := setup()
    jc, err := newJira(cfg, log)
    if err != nil { return err }
    svc := services.New(cfg, log, repo.NewMemory(), jc, nil, nil)
    rep, err := svc.ProbeProject(cmd.Context(), probeProject)
    if err != nil { return err }
    if jsonOutput { return printJSON(cmd.OutOrStdout(), rep) }

    out := cmd.OutOrStdout()
    fmt.Fprintf(out, "Project %s (types from %s)\n", rep.ProjectKey, rep.Source)
    for _, d := range rep.IssueTypes {
        sub := ""
        if d.Subtask { sub = " [subtask]" }
        fmt.Fprintf(out, "  %-8s %s%s\n", d.ID, d.Name, sub)
    }
    fmt.Fprintf(out, "epic  -> %s\n", typeName(rep.Mapping.Epic))
    fmt.Fprintf(out, "story -> %s\n", typeName(rep.Mapping.Story))
    return nil
}

func typeName(d *domain.IssueTypeDescriptor) string {
    if d == nil { return "(unresolved)" }
    return d.Name + " (" + d.ID + ")"
}
