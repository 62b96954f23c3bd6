// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package diag wires the structured leveled logger used by the opt-in
// error hooks (transport.LoggingHooks, which also report reassembler
// protocol errors) and by the demo command, built on
// github.com/cnotch/xlog. Nothing here is backed by a flag, environment
// variable, or JSON loader: the logger is always built programmatically,
// and callers that want different behavior call SetLevel/EnableFileSink
// directly.
package diag

import (
	"os"
	"sync"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	global = newConsoleLogger(xlog.InfoLevel)
)

func newConsoleLogger(level xlog.Level) *xlog.Logger {
	return xlog.New(
		xlog.NewCore(xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds), xlog.Lock(os.Stderr), level),
		xlog.AddCaller())
}

// L returns the package-level logger. Safe for concurrent use.
func L() *xlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// SetLevel adjusts the console logger's level. Intended for callers that
// embed this module and want to dial verbosity up for a debugging
// session without reaching for a config file.
func SetLevel(level xlog.Level) {
	mu.Lock()
	defer mu.Unlock()
	global = newConsoleLogger(level)
}

// EnableFileSink tees the console logger into a rotated on-disk JSON log
// via lumberjack, the same library config/log.go uses for its ToFile
// branch. There is no flag/env/JSON wiring for this: a caller that wants
// file logging calls EnableFileSink directly from its own main.
func EnableFileSink(filename string, maxSizeMB, maxBackups, maxDays int, compress bool) {
	mu.Lock()
	defer mu.Unlock()

	fileWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxDays,
		LocalTime:  true,
		Compress:   compress,
	}

	global = xlog.New(
		xlog.NewTee(
			xlog.NewCore(xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds), xlog.Lock(os.Stderr), xlog.InfoLevel),
			xlog.NewCore(xlog.NewJSONEncoder(xlog.LstdFlags|xlog.Lmicroseconds), fileWriter, xlog.InfoLevel),
		),
		xlog.AddCaller())
}
