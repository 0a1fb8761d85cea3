// Package event provides the concrete ports.DeployEventSink implementations
// a deploy run reports progress through: a human-readable terminal sink and
// the supplemented newline-delimited-JSON sink used by --diagnostics-json.
package event

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/64andrewwalker/calvin/internal/ports"
	"github.com/64andrewwalker/calvin/internal/ui"
)

// TextSink writes one colorized status line per event to w, using
// ui.StatusSuccess/StatusWarning/StatusError.
type TextSink struct {
	w io.Writer
}

// NewTextSink builds a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// Emit renders event as a single line appropriate to its kind.
func (s *TextSink) Emit(e ports.Event) {
	switch e.Kind {
	case ports.EventStart:
		fmt.Fprintln(s.w, ui.Info("deploying..."))
	case ports.EventPlanned:
		fmt.Fprintln(s.w, ui.Dim(fmt.Sprintf("planned: %s", summarizeCounts(e.Counts))))
	case ports.EventWritten:
		fmt.Fprintln(s.w, ui.StatusSuccess(e.Path))
	case ports.EventSkipped:
		fmt.Fprintln(s.w, ui.StatusSkipped(fmt.Sprintf("%s (%s)", e.Path, e.Reason)))
	case ports.EventOrphanDeleted:
		fmt.Fprintln(s.w, ui.StatusWarning(fmt.Sprintf("removed orphan %s", e.Path)))
	case ports.EventWarning:
		fmt.Fprintln(s.w, ui.StatusWarning(e.Message))
	case ports.EventComplete:
		if e.Success {
			fmt.Fprintln(s.w, ui.StatusSuccess(fmt.Sprintf("done: %s", summarizeCounts(e.Counts))))
		} else {
			fmt.Fprintln(s.w, ui.StatusError(fmt.Sprintf("failed: %s", summarizeCounts(e.Counts))))
		}
	}
}

func summarizeCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "no changes"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d %s", counts[k], k)
	}
	return out
}

// jsonEvent is the wire shape for JSONSink, one object per line.
type jsonEvent struct {
	Kind    string         `json:"kind"`
	Path    string         `json:"path,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Counts  map[string]int `json:"counts,omitempty"`
	Message string         `json:"message,omitempty"`
	Success bool           `json:"success,omitempty"`
}

// JSONSink writes one JSON object per event, newline-delimited, for the
// --diagnostics-json flag.
type JSONSink struct {
	enc *json.Encoder
}

// NewJSONSink builds a JSONSink writing ndjson to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Emit encodes event as one line of JSON. Encoding errors are swallowed:
// diagnostics output must never abort a deploy that otherwise succeeded.
func (s *JSONSink) Emit(e ports.Event) {
	_ = s.enc.Encode(jsonEvent{
		Kind:    string(e.Kind),
		Path:    e.Path,
		Reason:  e.Reason,
		Counts:  e.Counts,
		Message: e.Message,
		Success: e.Success,
	})
}

// MultiSink fans one event out to every sink in order.
type MultiSink struct {
	sinks []ports.DeployEventSink
}

// NewMultiSink builds a MultiSink wrapping sinks.
func NewMultiSink(sinks ...ports.DeployEventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit forwards event to every wrapped sink.
func (s *MultiSink) Emit(e ports.Event) {
	for _, sink := range s.sinks {
		sink.Emit(e)
	}
}
