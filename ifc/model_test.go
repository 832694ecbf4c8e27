package ifc

import (
	"fmt"
	"sort"

	"github.com/bldgtool/ifcconv/geom"
)

// fakeModel is an in-memory Model for tests. Lines are stored as typed
// argument slices; geometry is handed out verbatim.
type fakeModel struct {
	lines  map[uint32]*fakeLine
	flat   map[uint32]*FlatMesh
	geoms  map[uint32]*Geometry
	closed bool
}

type fakeLine struct {
	typ  uint32
	args []interface{}
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		lines: map[uint32]*fakeLine{},
		flat:  map[uint32]*FlatMesh{},
		geoms: map[uint32]*Geometry{},
	}
}

// addLine registers one entity line. Arguments may be string, float64,
// int64, ref (entity reference), refs (reference set) or nil.
func (m *fakeModel) addLine(id, typ uint32, args ...interface{}) {
	m.lines[id] = &fakeLine{typ: typ, args: args}
}

type ref uint32
type refs []uint32

func (m *fakeModel) LineType(id uint32) uint32 {
	if l, ok := m.lines[id]; ok {
		return l.typ
	}
	return 0
}

func (m *fakeModel) LinesWithType(typeCode uint32) []uint32 {
	var out []uint32
	for id, l := range m.lines {
		if l.typ == typeCode {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *fakeModel) AllLines() []uint32 {
	out := make([]uint32, 0, len(m.lines))
	for id := range m.lines {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *fakeModel) arg(id uint32, n int) (interface{}, error) {
	l, ok := m.lines[id]
	if !ok {
		return nil, fmt.Errorf("no line #%d", id)
	}
	if n < 0 || n >= len(l.args) {
		return nil, fmt.Errorf("line #%d has no argument %d", id, n)
	}
	return l.args[n], nil
}

func (m *fakeModel) StringArg(id uint32, n int) (string, error) {
	a, err := m.arg(id, n)
	if err != nil {
		return "", err
	}
	s, ok := a.(string)
	if !ok {
		return "", fmt.Errorf("line #%d argument %d is not a string", id, n)
	}
	return s, nil
}

func (m *fakeModel) RefArg(id uint32, n int) (uint32, error) {
	a, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	r, ok := a.(ref)
	if !ok {
		return 0, fmt.Errorf("line #%d argument %d is not a reference", id, n)
	}
	return uint32(r), nil
}

func (m *fakeModel) FloatArg(id uint32, n int) (float64, error) {
	a, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	f, ok := a.(float64)
	if !ok {
		return 0, fmt.Errorf("line #%d argument %d is not a real", id, n)
	}
	return f, nil
}

func (m *fakeModel) IntArg(id uint32, n int) (int64, error) {
	a, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	v, ok := a.(int64)
	if !ok {
		return 0, fmt.Errorf("line #%d argument %d is not an integer", id, n)
	}
	return v, nil
}

func (m *fakeModel) SetArg(id uint32, n int) ([]uint32, error) {
	a, err := m.arg(id, n)
	if err != nil {
		return nil, err
	}
	s, ok := a.(refs)
	if !ok {
		return nil, fmt.Errorf("line #%d argument %d is not a set", id, n)
	}
	return []uint32(s), nil
}

func (m *fakeModel) FlatMesh(elementID uint32) (*FlatMesh, error) {
	if f, ok := m.flat[elementID]; ok {
		return f, nil
	}
	return nil, ErrNoGeometry
}

func (m *fakeModel) Geometry(geometryID uint32) (*Geometry, error) {
	if g, ok := m.geoms[geometryID]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("no geometry %d", geometryID)
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

// addBoxGeometry registers a unit quad (two triangles, 4 vertices) as
// geometry geomID and places it for the element with the given transform
// and color.
func (m *fakeModel) addBoxGeometry(elemID, geomID uint32, tr geom.Matrix4, color geom.Vector4) {
	if _, ok := m.geoms[geomID]; !ok {
		m.geoms[geomID] = &Geometry{
			VertexData: []float32{
				0, 0, 0, 0, 0, 1,
				1, 0, 0, 0, 0, 1,
				1, 1, 0, 0, 0, 1,
				0, 1, 0, 0, 0, 1,
			},
			Indices: []uint32{0, 1, 2, 0, 2, 3},
		}
	}
	fm := m.flat[elemID]
	if fm == nil {
		fm = &FlatMesh{ElementID: elemID}
		m.flat[elemID] = fm
	}
	fm.Geometries = append(fm.Geometries, PlacedGeometry{
		GeometryID: geomID,
		Transform:  tr,
		Color:      color,
	})
}

// buildingFixture is a minimal complete model: project, site, building,
// two storeys, a space, two walls contained in the first storey and a
// slab with no containment relation.
//
//	#1 project "Haus"
//	#2 site #3 building #4/#5 storeys #6 space
//	#10 #11 walls (contained in #4), #12 slab (uncontained)
func buildingFixture() *fakeModel {
	m := newFakeModel()
	m.addLine(1, IfcProject, "2XQ$n5SLP5MBLyL442paFx", nil, "Haus")
	m.addLine(2, IfcSite, "0KMpiAlnb52RoQuNh4okUv", nil, "Grundstück")
	m.addLine(3, IfcBuilding, "0fNbPM3yX1IunvkS3DmdgB", nil, "Wohnhaus")
	// storey args: GlobalId(0) Name(2) ... Elevation(9)
	m.addLine(4, IfcBuildingStorey, "1oZ0wPs$j4sxkAhOYTnnnF", nil, "EG",
		nil, nil, nil, nil, nil, nil, 0.0)
	m.addLine(5, IfcBuildingStorey, "2GNgSHJ5j7NBhKhLbFCmtX", nil, "OG",
		nil, nil, nil, nil, nil, nil, 3.0)
	m.addLine(6, IfcSpace, "04avudEZf8cR9G27v2ZThk", nil, "A1001",
		nil, nil, nil, nil, "K\\S\\|che")
	m.addLine(10, IfcWallStandardCase, "3RpBV4PAbC8A0Mg5i3Vvgn", nil, "Wand-Nord")
	m.addLine(11, IfcWallStandardCase, "0e4zVcbLv2ZQPLVeppnWoY", nil, "Wand-S\\S\\|d")
	m.addLine(12, IfcSlab, "1d4CWs$lb5PwZSbMvqjQie", nil, "Bodenplatte")

	m.addLine(20, IfcRelContainedInSpatialStructure,
		"1p0bidWoj8OvEGF2SRkrzR", nil, "", nil, refs{10, 11}, ref(4))
	m.addLine(21, IfcRelContainedInSpatialStructure,
		"2Nl7GAQ9955uO1kObDP7YH", nil, "", nil, refs{6}, ref(4))

	id := geom.NewMatrix4()
	m.addBoxGeometry(10, 100, *id, geom.Vector4{X: 1, Y: 0, Z: 0, W: 1})
	m.addBoxGeometry(11, 100, *geom.NewTranslateMatrix4(2, 0, 0),
		geom.Vector4{X: 1, Y: 0, Z: 0, W: 1})
	m.addBoxGeometry(12, 101, *id, geom.Vector4{X: 0.5, Y: 0.5, Z: 0.5, W: 1})
	return m
}
