package policy

import (
	"fmt"
	"slices"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
)

// Mode controls how strictly SecurityPolicy enforces its rules.
type Mode string

const (
	// ModeStrict turns every SecurityWarning into a fatal error and requires
	// adapters to emit their security_baseline deny-lists.
	ModeStrict Mode = "strict"
	// ModeBalanced surfaces SecurityWarning as a warning and still emits
	// security_baseline deny-lists.
	ModeBalanced Mode = "balanced"
	// ModeYolo disables security_baseline generation entirely.
	ModeYolo Mode = "yolo"
)

// IsValid reports whether m is a recognized mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeStrict, ModeBalanced, ModeYolo:
		return true
	default:
		return false
	}
}

// DefaultDangerousTools lists allowed-tools entries skills should not be
// granted without an explicit override, mirroring the classes of risk the
// rest of the pack flags for secrets and shell access.
func DefaultDangerousTools() []string {
	return []string{
		"bash",
		"shell",
		"exec",
		"eval",
		"write_file",
		"delete_file",
		"network",
	}
}

// SecurityPolicy enforces the dangerous-tool and MCP-allowlist rules that
// gate a skill's allowed-tools and any MCP server references in its body.
type SecurityPolicy struct {
	Mode            Mode
	DangerousTools  []string
	MCPAllowlist    []string // empty means "no MCP servers permitted"
	RequireBaseline bool
}

// NewSecurityPolicy builds a SecurityPolicy with calvin's default
// dangerous-tool list, in the given mode.
func NewSecurityPolicy(mode Mode, mcpAllowlist []string) SecurityPolicy {
	return SecurityPolicy{
		Mode:            mode,
		DangerousTools:  DefaultDangerousTools(),
		MCPAllowlist:    mcpAllowlist,
		RequireBaseline: mode != ModeYolo,
	}
}

// CheckAllowedTools inspects a skill's allowed-tools list and returns a
// SecurityWarning-shaped error for every dangerous tool found. In strict
// mode the caller must treat a non-nil return as fatal; in balanced mode
// as a warning; in yolo mode this is never called.
func (p SecurityPolicy) CheckAllowedTools(assetID string, tools []string) []error {
	var errs []error
	for _, tool := range tools {
		if slices.Contains(p.DangerousTools, tool) {
			errs = append(errs, calvinerr.SecurityWarning(
				fmt.Sprintf("skill %q requests dangerous tool %q", assetID, tool), ""))
		}
	}
	return errs
}

// CheckMCPServer reports a SecurityWarning if server is not present in the
// allowlist. An empty allowlist denies every server.
func (p SecurityPolicy) CheckMCPServer(assetID, server string) error {
	if slices.Contains(p.MCPAllowlist, server) {
		return nil
	}
	return calvinerr.SecurityWarning(
		fmt.Sprintf("skill %q references unknown MCP server %q", assetID, server), "")
}

// Severity reports whether a SecurityWarning under this policy's mode should
// abort compilation (strict) or merely be surfaced as a diagnostic
// (balanced). Callers never invoke this in yolo mode.
func (p SecurityPolicy) Severity() string {
	if p.Mode == ModeStrict {
		return "error"
	}
	return "warning"
}
