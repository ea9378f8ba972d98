/*
NAME
  trace.go

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// TraceConfig configures an optional rotating file sink a caller may attach
// to a decoder's logging.Logger for offline bitstream-parse diagnostics,
// mirroring the rotation fields the teacher's cmd binaries (e.g.
// cmd/looper) set on their own lumberjack.Logger.
type TraceConfig struct {
	Path       string // Destination file path.
	MaxSizeMB  int    // Maximum size in megabytes before rotation.
	MaxBackups int    // Maximum number of old log files to retain.
	MaxAgeDays int    // Maximum number of days to retain an old log file.
}

// NewTraceWriter returns a lumberjack.Logger configured from cfg, ready to
// be passed to logging.New (or io.MultiWriter'd alongside another sink)
// exactly as the teacher's cmd binaries do with their own file logs.
func NewTraceWriter(cfg TraceConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

// Callers construct their own logging.Logger around the returned writer
// exactly as the teacher's cmd binaries do, e.g.:
//
//	l := logging.New(logging.Debug, codecutil.NewTraceWriter(cfg), true)
//
// This package does not depend on github.com/ausocean/utils/logging itself
// so that a caller never needs this package's own logging.Logger constant
// set to differ from the one the rest of their embedding program already
// uses.
