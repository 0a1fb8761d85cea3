package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// layerSpec names a layer to load and the root to load it from, before any
// of them have been read from disk.
type layerSpec struct {
	name string
	root string
}

// LayerResolver turns a DeployOptions into an ordered, loaded []model.Layer,
// lowest priority first: user, then additional layers in declared order,
// then project last. A layerSpec whose root does not exist is skipped with a
// Warning event rather than treated as fatal, since a first-run project with
// no user promptpack yet is the common case, not an error.
type LayerResolver struct {
	assetRepo ports.AssetRepository
	sink      ports.DeployEventSink
}

// NewLayerResolver builds a LayerResolver bound to an AssetRepository and
// the sink warnings are reported through.
func NewLayerResolver(assetRepo ports.AssetRepository, sink ports.DeployEventSink) *LayerResolver {
	return &LayerResolver{assetRepo: assetRepo, sink: sink}
}

func (r *LayerResolver) specs(opts DeployOptions) []layerSpec {
	var specs []layerSpec
	if !opts.NoUserLayer {
		specs = append(specs, layerSpec{name: "user", root: filepath.Join(opts.HomeDir, ".calvin", "promptpack")})
	}
	for i, root := range opts.AdditionalLayers {
		specs = append(specs, layerSpec{name: additionalLayerName(i), root: root})
	}
	projectSource := opts.ProjectRoot
	if opts.SourceOverride != "" {
		projectSource = opts.SourceOverride
	}
	specs = append(specs, layerSpec{name: "project", root: projectSource})
	return specs
}

func additionalLayerName(i int) string {
	return "additional-" + strconv.Itoa(i+1)
}

// Resolve loads every spec in priority order, skipping (with a Warning
// event) any root that does not exist.
func (r *LayerResolver) Resolve(ctx context.Context, opts DeployOptions) ([]model.Layer, error) {
	var layers []model.Layer
	for _, spec := range r.specs(opts) {
		if _, err := os.Stat(spec.root); err != nil {
			r.sink.Emit(ports.Event{
				Kind:    ports.EventWarning,
				Message: "layer " + spec.name + " at " + spec.root + " not found, skipping",
			})
			continue
		}
		layer, err := r.assetRepo.LoadLayer(ctx, spec.name, spec.root)
		if err != nil {
			return nil, err
		}
		for _, d := range layer.Diagnostics {
			r.sink.Emit(ports.Event{
				Kind:    ports.EventWarning,
				Message: d.Message,
				Path:    d.Path,
			})
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
