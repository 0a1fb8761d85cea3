// Package ui renders calvin's terminal output: the status glyphs deploy,
// clean, diff, and check print per file, gated by the --color flag and
// NO_COLOR.
package ui

import (
	"github.com/fatih/color"

	"github.com/64andrewwalker/calvin/internal/model"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	info    = color.New(color.FgCyan).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	header  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Status symbols, one per outcome a planned output can land on.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
)

// StatusSuccess marks a file that was written, or a scope found in sync.
func StatusSuccess(msg string) string {
	return tag(success, SymbolSuccess, msg)
}

// StatusError marks a failed write or a scope found out of sync.
func StatusError(msg string) string {
	return tag(failure, SymbolError, msg)
}

// StatusWarning marks a recovered diagnostic: a skipped asset, a pruned
// registry entry, an orphan left behind for `calvin clean --force`.
func StatusWarning(msg string) string {
	return tag(warn, SymbolWarning, msg)
}

// StatusSkipped marks an output left untouched because it already matched.
func StatusSkipped(msg string) string {
	return tag(dim, SymbolSkipped, msg)
}

func tag(c func(a ...any) string, symbol, msg string) string {
	if msg == "" {
		return c(symbol)
	}
	return c(symbol) + " " + msg
}

// Info renders a startup or progress line (e.g. "deploying...").
func Info(msg string) string { return info(msg) }

// Dim renders secondary detail: counts, skip reasons, "nothing to deploy".
func Dim(msg string) string { return dim(msg) }

// Header renders a section label, as `diff` does per changed file.
func Header(msg string) string { return header(msg) }

// DiffEntry renders one `calvin diff` header line: scope and path in the
// header color, with the new/modified tag picking up the same color as
// its StatusSuccess/StatusWarning counterpart so a skim can tell new files
// from modified ones without reading the word.
func DiffEntry(scope model.Scope, path string, isNew bool) string {
	tagWord := "modified"
	tagged := warn(tagWord)
	if isNew {
		tagWord = "new"
		tagged = success(tagWord)
	}
	return header(string(scope)+" "+path) + " (" + tagged + ")"
}

// DisableColors disables all color output, for --color=never or NO_COLOR.
func DisableColors() {
	color.NoColor = true
}

// EnableColors re-enables color output, for --color=always.
func EnableColors() {
	color.NoColor = false
}
