package ifc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Options controls one import. The zero value is usable; NewImporter
// fills unset fields with the defaults below.
type Options struct {
	// SkipSpaceRepresentations drops the geometry of IfcSpace lines so
	// room volumes do not occlude the actual building elements.
	SkipSpaceRepresentations bool
	// CoordinateToOrigin recenters the model around the origin.
	CoordinateToOrigin bool
	// CircleSegments is the tessellation resolution for curved profiles.
	CircleSegments int
	// UseCustomTriangulation selects the boundary-aware triangulator.
	UseCustomTriangulation bool
	// SkipAnnotations drops IfcAnnotation geometry.
	SkipAnnotations bool

	Logger *zap.Logger
}

// DefaultOptions returns the settings used when the caller passes nil.
func DefaultOptions() *Options {
	return &Options{
		SkipSpaceRepresentations: true,
		CoordinateToOrigin:       false,
		CircleSegments:           32,
		UseCustomTriangulation:   true,
		SkipAnnotations:          true,
		Logger:                   zap.NewNop(),
	}
}

// Importer reads IFC building models into Documents.
type Importer struct {
	engine Engine
	opts   *Options
	log    *zap.Logger
}

func NewImporter(engine Engine, opts *Options) *Importer {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.CircleSegments <= 0 {
		opts.CircleSegments = 32
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Importer{engine: engine, opts: opts, log: opts.Logger}
}

// CanRead reports whether the data looks like a STEP physical file or
// the name carries the .ifc extension.
func CanRead(name string, head []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".ifc") {
		return true
	}
	return bytes.Contains(head, []byte("ISO-10303-21"))
}

// Load reads and imports the file at path.
func (imp *Importer) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return imp.LoadBytes(filepath.Base(path), data)
}

// LoadReader imports from a stream.
func (imp *Importer) LoadReader(name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return imp.LoadBytes(name, data)
}

// LoadBytes imports an in-memory file.
func (imp *Importer) LoadBytes(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("ifc: empty file %q", name)
	}
	if !CanRead(name, head(data)) {
		return nil, fmt.Errorf("ifc: %q is not a STEP physical file", name)
	}
	model, err := imp.engine.Open(data, imp.opts)
	if err != nil {
		return nil, fmt.Errorf("ifc: open %q: %w", name, err)
	}
	defer model.Close()
	return imp.Build(model, strings.TrimSuffix(name, filepath.Ext(name)))
}

func head(data []byte) []byte {
	if len(data) > 256 {
		return data[:256]
	}
	return data
}

// loadContext carries the state of one in-flight import. A fresh one is
// made per Build call so concurrent imports never share state.
type loadContext struct {
	model       Model
	log         *zap.Logger
	opts        *Options
	doc         *Document
	containment map[uint32]uint32
	materials   *materialSet
}

// Build runs the import pipeline over an opened model: containment and
// material scans, per-element tessellation, default-material insertion,
// hierarchy reconstruction, and mesh assignment.
func (imp *Importer) Build(model Model, name string) (*Document, error) {
	ctx := &loadContext{
		model:     model,
		log:       imp.log,
		opts:      imp.opts,
		doc:       &Document{Name: name, Root: newNode(name)},
		materials: newMaterialSet(imp.log),
	}
	ctx.containment = buildContainmentMap(model, imp.log)
	if err := ctx.materials.extract(model); err != nil {
		imp.log.Warn("material extraction failed, using defaults", zap.Error(err))
		ctx.materials.fail()
	}

	extractGeometry(ctx)
	ctx.materials.ensureDefault(ctx.doc.Meshes)
	ctx.doc.Materials = ctx.materials.list

	nodes := buildHierarchy(ctx)
	assignMeshes(ctx, nodes)

	imp.log.Info("imported document", zap.String("name", name),
		zap.Int("meshes", len(ctx.doc.Meshes)), zap.Int("materials", len(ctx.doc.Materials)))
	return ctx.doc, nil
}

// extractGeometry tessellates every element of every known product type.
// A failing element is logged and skipped, never fatal.
func extractGeometry(ctx *loadContext) {
	for _, code := range elementTypes {
		switch code {
		case IfcOpeningElement, IfcOpeningStandardCase:
			continue // openings are subtracted from their hosts already
		case IfcSpace:
			if ctx.opts.SkipSpaceRepresentations {
				continue
			}
		case IfcAnnotation:
			if ctx.opts.SkipAnnotations {
				continue
			}
		}
		for _, id := range ctx.model.LinesWithType(code) {
			meshes, err := buildElementMeshes(ctx, id)
			if err != nil {
				ctx.log.Warn("skipping element", zap.Uint32("id", id),
					zap.String("type", TypeName(code)), zap.Error(err))
				continue
			}
			ctx.doc.Meshes = append(ctx.doc.Meshes, meshes...)
		}
	}
}
