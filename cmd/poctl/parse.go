/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "fmt"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/spf13/cobra"
)

var parseFile string

var parseCmd = &cobra.Command{
    Use:   "parse",
    Short: "Parse model output into normalized candidate items",
    Long: `Reads model output (embedded JSON or Title:/Type: line markers) from
--file or stdin and prints the candidates that would be published.`,
    RunE: runParse,
}

func init() {
    parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Input file (default stdin)")
}

type parseReport struct {
    Status   services.ParseStatus   `json:"status"`
    Warnings []string               `json:"warnings,omitempty"`
    Skipped  int                    `json:"skippedCount"`
    Items    []domain.CandidateItem `json:"items"`
    raw      []any
}

func loadCandidates(path string) (parseReport, error) {
    text, err := readInput(path)
    if err != nil { return parseReport{}, err }
    pr := services.ParseCompletion(text)
    norm := services.Normalize(pr.Items)
    return parseReport{Status: pr.Status, Warnings: pr.Warnings, Skipped: norm.Skipped, Items: norm.Items, raw: pr.Items}, nil
}

func runParse(cmd *cobra.Command, args []string) error {
    rep, err := loadCandidates(parseFile)
    if err != nil { return err }
    if jsonOutput { return printJSON(cmd.OutOrStdout(), rep) }

    out := cmd.OutOrStdout()
    fmt.Fprintf(out, "status: %s, %d eligible, %d skipped\n", rep.Status, len(rep.Items), rep.Skipped)
    for _, w := range rep.Warnings { fmt.Fprintf(out, "warning: %s\n", w) }
    for _, it := range rep.Items {
        fmt.Fprintf(out, "%-8s %-5s %-6s %s\n", it.ID, it.Kind, it.Priority, it.Title)
    }
    return nil
}
