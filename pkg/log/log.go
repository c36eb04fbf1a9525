// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent     = 4  // spaces to indent record entries
	categoryIndent = 2  // spaces to indent category headers
	nameWidth      = 35 // Base width for filename
	qidWidth       = 12 // Width for the identifier
	statusWidth    = 14 // Width for status text
)

// Record statuses as printed on the console
const (
	StatusUploaded    = "uploaded"
	StatusNotUploaded = "not uploaded"
	StatusSkipped     = "skipped"
)

// 🎯 RecordOperation represents the outcome of one manifest record
type RecordOperation struct {
	Filename    string // Name as written in the manifest
	Category    string // Category folder
	QID         string // Client identifier
	Status      string // One of the Status constants
	Reason      string // Why it was not uploaded or skipped
	Destination string // Remote key or local path
}

// 📦 BatchOperation represents a batch folder being processed
type BatchOperation struct {
	Name   string // Batch short code
	Input  string // Input folder
	Output string // Output folder
	DryRun bool   // Whether side effects are simulated
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *BatchOperation
	records   []RecordOperation
}

// 🏭 New creates a new logger that prints to console and mirrors to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatRecordOperation formats a record outcome for display
func (l *Logger) formatRecordOperation(op RecordOperation) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case StatusUploaded:
		symbol = '✓'
		symbolColor = color.FgGreen
	case StatusNotUploaded:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	qid := op.QID
	if qid == "" {
		qid = "∅"
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Filename),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", qidWidth, qid)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))

	if op.Reason != "" {
		line += color.New(color.Faint).Sprint(op.Reason)
	}
	return line
}

// 📝 LogRecordOperation logs a record outcome
func (l *Logger) LogRecordOperation(ctx context.Context, op RecordOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Add to records list
	l.records = append(l.records, op)

	// Format and print
	fmt.Fprintln(l.console, l.formatRecordOperation(op))

	// Log to zerolog
	l.zlog.Info().
		Str("file", op.Filename).
		Str("category", op.Category).
		Str("qid", op.QID).
		Str("status", op.Status).
		Str("reason", op.Reason).
		Str("destination", op.Destination).
		Msg("record processed")
}

// 📝 StartBatch starts a new batch operation
func (l *Logger) StartBatch(ctx context.Context, op BatchOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.records = nil

	// Print batch header
	fmt.Fprintf(l.console, "[processing %s]\n",
		color.New(color.FgCyan).Sprint(op.Input))

	mode := "live"
	if op.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Name),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(mode))

	// Log to zerolog
	l.zlog.Info().
		Str("batch", op.Name).
		Str("input", op.Input).
		Str("output", op.Output).
		Bool("dry_run", op.DryRun).
		Msg("starting batch")
}

// 📝 StartCategory prints a category header within the current batch
func (l *Logger) StartCategory(ctx context.Context, category, manifest string, records int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s%s %s %s\n",
		fmt.Sprintf("%*s", categoryIndent, ""),
		color.New(color.FgBlue).Sprint("▸"),
		color.New(color.Bold).Sprint(category),
		color.New(color.Faint).Sprintf("(%s, %d records)", manifest, records))

	l.zlog.Info().
		Str("category", category).
		Str("manifest", manifest).
		Int("records", records).
		Msg("starting category")
}

// 📝 EndBatch ends the current batch operation
func (l *Logger) EndBatch(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	counts := map[string]int{}
	for _, r := range l.records {
		counts[r.Status]++
	}

	// Log summary
	l.zlog.Info().
		Str("batch", l.currentOp.Name).
		Int("records", len(l.records)).
		Int("uploaded", counts[StatusUploaded]).
		Int("not_uploaded", counts[StatusNotUploaded]).
		Int("skipped", counts[StatusSkipped]).
		Msg("batch complete")

	l.currentOp = nil
	l.records = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nameText := color.New(color.Bold, color.FgCyan).Sprint("uploadrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
