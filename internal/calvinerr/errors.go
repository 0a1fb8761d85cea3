// Package calvinerr defines the error taxonomy every core package returns.
package calvinerr

import (
	"errors"
	"fmt"

	"github.com/64andrewwalker/calvin/internal/util"
)

// Kind identifies which taxonomy bucket an error belongs to.
type Kind string

const (
	// KindParse covers unreadable files, missing or malformed frontmatter, unknown kind values.
	KindParse Kind = "parse"
	// KindSchema covers a frontmatter field that violates the schema for its asset kind.
	KindSchema Kind = "schema"
	// KindMerge covers a duplicate asset identity within one layer.
	KindMerge Kind = "merge"
	// KindPathSafety covers a supplemental or output path that escapes its scope root.
	KindPathSafety Kind = "path_safety"
	// KindSecurity covers dangerous allowed-tools, unknown MCP servers, or a missing deny-list.
	KindSecurity Kind = "security"
	// KindPlanConflict covers an existing-untracked or modified-by-user output path.
	KindPlanConflict Kind = "plan_conflict"
	// KindIO covers write/read/delete failures during execution.
	KindIO Kind = "io"
	// KindLockfile covers a corrupt or version-mismatched lockfile on disk.
	KindLockfile Kind = "lockfile"
)

// Error is the common shape for every error the core returns: a kind,
// a human message, the path it concerns (if any), and a suggested fix.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Fix     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		// Path-bearing messages display paths using ~ where applicable.
		msg = fmt.Sprintf("%s (%s)", msg, util.Tildify(e.Path))
	}
	if e.Fix != "" {
		msg = fmt.Sprintf("%s — %s", msg, e.Fix)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap allows errors.Is/errors.As to reach the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on Kind alone, e.g.
// errors.Is(err, &calvinerr.Error{Kind: calvinerr.KindLockfile}).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind Kind, message, path, fix string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Path: path, Fix: fix, Err: cause}
}

// ParseError reports a malformed or unreadable source file. Recovered per-file.
func ParseError(message, path string, cause error) *Error {
	return newErr(KindParse, message, path, "", cause)
}

// SchemaError reports a frontmatter field that is invalid for the asset's kind. Fatal for the file.
func SchemaError(message, path, fix string) *Error {
	return newErr(KindSchema, message, path, fix, nil)
}

// MergeError reports a duplicate asset identity within one layer. Fatal.
func MergeError(message string) *Error {
	return newErr(KindMerge, message, "", "", nil)
}

// PathSafetyError reports a path that escapes its scope root. Fatal.
func PathSafetyError(message, path string) *Error {
	return newErr(KindPathSafety, message, path, "", nil)
}

// SecurityWarning reports a dangerous allowed-tools entry, unknown MCP server, or missing
// deny-list. Severity (warning vs fatal) is a property of SecurityPolicy.mode, not this type.
func SecurityWarning(message, path string) *Error {
	return newErr(KindSecurity, message, path, "", nil)
}

// PlanConflict reports an output path the Planner could not classify as write or skip.
func PlanConflict(message, path string) *Error {
	return newErr(KindPlanConflict, message, path, "", nil)
}

// IoError reports a read/write/delete failure during execution. Recorded, not fatal.
func IoError(message, path string, cause error) *Error {
	return newErr(KindIO, message, path, "", cause)
}

// LockfileError reports a corrupt or version-mismatched lockfile. The run refuses to proceed.
func LockfileError(message, path string) *Error {
	return newErr(KindLockfile, message, path, "run `calvin lockfile migrate`", nil)
}

// Batch collects multiple errors from a pass that does not short-circuit on the first failure.
type Batch []error

func (b Batch) Error() string {
	if len(b) == 0 {
		return "no errors"
	}
	if len(b) == 1 {
		return b[0].Error()
	}
	return fmt.Sprintf("%d errors:\n- %s", len(b), errors.Join(b...).Error())
}

// HasErrors reports whether the batch carries any failure.
func (b Batch) HasErrors() bool {
	return len(b) > 0
}

// AsError returns nil for an empty batch, the sole error for a single-element batch,
// or the batch itself otherwise.
func (b Batch) AsError() error {
	if len(b) == 0 {
		return nil
	}
	if len(b) == 1 {
		return b[0]
	}
	return b
}
