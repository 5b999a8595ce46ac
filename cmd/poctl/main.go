/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "encoding/json"
    "fmt"
    "io"
    "os"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/logger"
    "github.com/HamedShams/po-assist/internal/services"
    "github.com/rs/zerolog"
    "github.com/spf13/cobra"
)

var (
    jsonOutput bool
    verbose    bool
)

var rootCmd = &cobra.Command{
    Use:   "poctl",
    Short: "Inspect and publish candidate stories without the HTTP server",
    Long: `poctl drives the same parser, normalizer and publisher as the API.

Examples:
  poctl probe --project SHOP              # Show issue types and the epic/story mapping
  poctl parse --file answer.txt           # Parse model output into candidates
  poctl publish --project SHOP --file stories.json --dry-run`,
    SilenceUsage:  true,
    SilenceErrors: true,
}

func init() {
    rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
    rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")

    rootCmd.AddCommand(probeCmd)
    rootCmd.AddCommand(parseCmd)
    rootCmd.AddCommand(publishCmd)
}

func main() {
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "Error: "+err.Error())
        os.Exit(1)
    }
}

// setup loads config and a stderr logger so stdout stays machine readable.
func setup() (config.Config, zerolog.Logger) {
    cfg := config.Load()
    log := logger.NewWithWriter(cfg, os.Stderr)
    if !verbose { log = log.Level(zerolog.WarnLevel) }
    return cfg, log
}

func newJira(cfg config.Config, log zerolog.Logger) (*jira.Client, error) {
    jc := jira.NewClient(cfg, log)
    if !jc.Configured() { return nil, fmt.Errorf("%w: set JIRA_BASE_URL and JIRA_EMAIL/JIRA_API_TOKEN or JIRA_PAT", services.ErrConfig) }
    return jc, nil
}

func printJSON(w io.Writer, v any) error {
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    return enc.Encode(v)
}

func readInput(path string) (string, error) {
    if path == "" || path == "-" {
        b, err := io.ReadAll(os.Stdin)
        return string(b), err
    }
    b, err := os.ReadFile(path)
    if err != nil { return "", fmt.Errorf("read %s: %w", path, err) }
    return string(b), nil
}
