// Package frontmatter splits and renders the "---\nYAML\n---\nbody" block
// shared by every promptpack asset file and every adapter's emitted output.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Split separates a leading YAML frontmatter block from the remaining body.
// It mirrors the "---" delimiter convention common to every supported
// platform's own Markdown-with-frontmatter files.
func Split(content []byte) (raw []byte, body string, hasFrontmatter bool) {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, string(content), false
	}

	remaining := content[len("---"):]
	remaining = bytes.TrimPrefix(remaining, []byte("\r\n"))
	remaining = bytes.TrimPrefix(remaining, []byte("\n"))

	closing := []byte("\n---")
	idx := bytes.Index(remaining, closing)
	if idx == -1 {
		return nil, string(content), false
	}

	fm := remaining[:idx]
	rest := remaining[idx+len(closing):]
	rest = bytes.TrimPrefix(rest, []byte("\r\n"))
	rest = bytes.TrimPrefix(rest, []byte("\n"))

	return bytes.TrimRight(fm, "\r"), string(rest), true
}

// Parse decodes a frontmatter block into dst, a pointer to a struct or map.
func Parse(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parsing frontmatter: %w", err)
	}
	return nil
}

// Render marshals fm as YAML and wraps it in "---" delimiters followed by
// body, the inverse of Split. fm is typically a small ordered struct so
// field order in the emitted file stays stable across runs.
func Render(fm any, body string) ([]byte, error) {
	encoded, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("rendering frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(encoded)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimLeft(body, "\n"))
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
