// Package merge implements LayerMerger: folding an ordered stack of layers
// (lowest priority first) into one deduplicated asset set plus a merged
// config and the provenance of every override.
package merge

import (
	"fmt"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/model"
)

// Result is what LayerMerger produces from an ordered layer stack.
type Result struct {
	Assets    []model.Asset
	Config    model.LayerConfig
	Overrides []model.OverrideRecord
}

// LayerMerger folds an ordered Vec<Layer> (lowest priority first) into one
// deduplicated AssetSet, carrying provenance by value.
type LayerMerger struct{}

// NewLayerMerger constructs a LayerMerger. It carries no state.
func NewLayerMerger() *LayerMerger {
	return &LayerMerger{}
}

// Merge folds layers, ordered lowest-priority first (user, then additional
// layers in declared order, then project last/highest). A duplicate asset
// identity within a single layer is a hard MergeError; across layers, the
// higher-priority asset wins and the merger records an OverrideRecord.
func (m *LayerMerger) Merge(layers []model.Layer) (Result, error) {
	if len(layers) == 0 {
		return Result{}, calvinerr.MergeError("no layers found")
	}

	winners := map[model.Identity]model.Asset{}
	winningLayer := map[model.Identity]string{}
	var order []model.Identity
	var overrides []model.OverrideRecord
	var config model.LayerConfig

	for _, layer := range layers {
		seenInLayer := map[model.Identity]bool{}
		for _, asset := range layer.Assets {
			id := asset.Identity()
			if seenInLayer[id] {
				return Result{}, calvinerr.MergeError(
					fmt.Sprintf("duplicate asset id %q in layer %q", id, layer.Name))
			}
			seenInLayer[id] = true

			if prevLayer, existed := winningLayer[id]; existed {
				overrides = append(overrides, model.OverrideRecord{
					Identity:      id,
					WinningLayer:  layer.Name,
					ShadowedLayer: prevLayer,
				})
			} else {
				order = append(order, id)
			}
			winners[id] = asset
			winningLayer[id] = layer.Name
		}

		config = mergeConfig(config, layer.Config)
	}

	merged := make([]model.Asset, 0, len(order))
	for _, id := range order {
		merged = append(merged, winners[id])
	}

	return Result{Assets: merged, Config: config, Overrides: overrides}, nil
}

// mergeConfig implements section-level replacement: a layer that defines a
// section fully replaces lower layers' section. A non-nil empty collection
// means "disable all", distinct from the section being absent entirely.
func mergeConfig(base, overlay model.LayerConfig) model.LayerConfig {
	merged := base
	if overlay.EnabledTargets != nil {
		merged.EnabledTargets = overlay.EnabledTargets
	}
	if overlay.Raw != nil {
		if merged.Raw == nil {
			merged.Raw = map[string]any{}
		}
		for k, v := range overlay.Raw {
			merged.Raw[k] = v
		}
	}
	return merged
}
