package ifc

import (
	"errors"

	"github.com/bldgtool/ifcconv/geom"
)

// ErrNoGeometry is returned by a GeometrySource that has no tessellated
// shape for an element. The importer skips such elements.
var ErrNoGeometry = errors.New("ifc: no geometry for element")

// LineReader gives typed access to the arguments of parsed STEP lines.
// Implementations are external: this package never tokenizes IFC text
// itself (see the step package for a basic reader).
type LineReader interface {
	// LineType returns the numeric type code of a line, 0 if unknown.
	LineType(id uint32) uint32
	LinesWithType(typeCode uint32) []uint32
	AllLines() []uint32

	StringArg(id uint32, n int) (string, error)
	RefArg(id uint32, n int) (uint32, error)
	FloatArg(id uint32, n int) (float64, error)
	IntArg(id uint32, n int) (int64, error)
	// SetArg reads argument n as a set of entity references.
	SetArg(id uint32, n int) ([]uint32, error)
}

// PlacedGeometry is one placement of a shared geometry buffer: the
// transform and color are per-placement, the buffers per-geometry.
type PlacedGeometry struct {
	GeometryID uint32
	Transform  geom.Matrix4
	Color      geom.Vector4 // RGBA in [0,1]
}

// FlatMesh is the fully tessellated shape of one element.
type FlatMesh struct {
	ElementID  uint32
	Geometries []PlacedGeometry
}

// Geometry holds raw tessellation output: interleaved position+normal
// floats (6 per vertex) and a triangle index buffer.
type Geometry struct {
	VertexData []float32
	Indices    []uint32
}

// GeometrySource produces tessellated geometry for elements. The
// boundary-representation tessellation itself is an external concern.
type GeometrySource interface {
	FlatMesh(elementID uint32) (*FlatMesh, error)
	Geometry(geometryID uint32) (*Geometry, error)
}

// Model is one opened IFC file as seen by the importer.
type Model interface {
	LineReader
	GeometrySource
	Close() error
}

// Engine opens raw IFC file bytes into a Model.
type Engine interface {
	Open(data []byte, opts *Options) (Model, error)
}
