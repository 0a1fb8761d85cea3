package compiler

import "strings"

// SignaturePrefix is the stable text every Calvin-generated file's signature
// comment carries, regardless of the comment syntax used to wrap it.
const SignaturePrefix = "Generated by Calvin. Source: "

// CommentStyle describes how to wrap the signature prefix for one output
// format. Outputs in formats that forbid comments entirely are not wrapped
// in any style; their adapter sets OutputFile.IsSigned to false instead —
// see adapter packages.
type CommentStyle struct {
	Prefix string
	Suffix string
}

// Markdown wraps the signature in an HTML comment, valid in every Markdown
// renderer the supported targets consume.
var Markdown = CommentStyle{Prefix: "<!-- ", Suffix: " -->"}

// SlashSlash wraps the signature in a line comment, for JSONC/JS-shaped
// config. None of the bundled adapters uses it.
var SlashSlash = CommentStyle{Prefix: "// ", Suffix: ""}

// TOMLHash wraps the signature in a TOML/shell-style comment.
var TOMLHash = CommentStyle{Prefix: "# ", Suffix: ""}

// Render produces the full signature line for sourcePath in this style.
func (c CommentStyle) Render(sourcePath string) string {
	return c.Prefix + SignaturePrefix + sourcePath + c.Suffix
}

// HasSignature reports whether content's first four lines carry the stable
// signature prefix, the rule used to decide a file is Calvin-managed.
func HasSignature(content []byte) bool {
	lines := strings.SplitN(string(content), "\n", 5)
	for i, line := range lines {
		if i >= 4 {
			break
		}
		if strings.Contains(line, SignaturePrefix) {
			return true
		}
	}
	return false
}
