package model

// LayerConfig is the section-level configuration a Layer contributes to the
// merge. Sections replace wholesale across layers — an explicit empty
// collection means "disable all", not "use defaults".
type LayerConfig struct {
	// EnabledTargets, when non-nil, fully replaces lower layers' enabled-target
	// list. A non-nil empty slice means "disable every target for this layer".
	EnabledTargets []Target
	// Raw carries any additional section the adapter/config layer did not
	// have a typed field for, so nothing from config.toml is silently dropped.
	Raw map[string]any
}

// LayerDiagnostic is a recoverable per-file issue encountered while loading
// a Layer: the offending asset, skill, or config section was skipped, but
// loading continued and every other asset in the layer still compiles.
type LayerDiagnostic struct {
	Message string
	Path    string
}

// Layer is one promptpack directory contributing assets and config to the
// merged view. Layers are constructed during startup and are immutable
// afterward; priority is the layer's position in the resolved stack, not a
// field on Layer itself.
type Layer struct {
	Name        string
	Root        string
	Config      LayerConfig
	Assets      []Asset
	Diagnostics []LayerDiagnostic
}
