/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package logger

import (
    "io"
    "os"
    "time"

    "github.com/HamedShams/po-assist/internal/config"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

func New(cfg config.Config) zerolog.Logger {
    return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit sink; the CLI logs to stderr.
func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
    if cfg.AppEnv == "dev" {
        output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
        logger := zerolog.New(output).With().Timestamp().Logger()
        log.Logger = logger
        return logger
    }
    zerolog.TimeFieldFormat = time.RFC3339
    logger := zerolog.New(w).With().Timestamp().Logger()
    log.Logger = logger
    return logger
}
