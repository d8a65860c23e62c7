// Copyright 2025 the EVUA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a small printf-style logging facade used across the
// pipeline. It is backed by zap so output stays structured and cheap to
// filter, while call sites keep the simple Info/Error/Debug surface.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls which messages are emitted.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

var (
	level  atomic.Int32
	logger atomic.Pointer[zap.SugaredLogger]
)

func init() {
	level.Store(int32(InfoLevel))
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l.Sugar())
}

// SetLogLevel sets the minimum level that will be emitted.
func SetLogLevel(l Level) {
	level.Store(int32(l))
}

// SetLogger replaces the backing logger. Tests use this to capture output.
func SetLogger(l *zap.Logger) {
	logger.Store(l.Sugar())
}

func enabled(l Level) bool {
	return int32(l) >= level.Load()
}

// Debug logs at debug level with printf semantics.
func Debug(format string, args ...interface{}) {
	if enabled(DebugLevel) {
		logger.Load().Debugf(format, args...)
	}
}

// Info logs at info level with printf semantics.
func Info(format string, args ...interface{}) {
	if enabled(InfoLevel) {
		logger.Load().Infof(format, args...)
	}
}

// Error logs at error level with printf semantics.
func Error(format string, args ...interface{}) {
	if enabled(ErrorLevel) {
		logger.Load().Errorf(format, args...)
	}
}
