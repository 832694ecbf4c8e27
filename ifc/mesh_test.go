package ifc

import (
	"math"
	"strings"
	"testing"

	"github.com/bldgtool/ifcconv/geom"
	"go.uber.org/zap"
)

func newTestContext(m Model) *loadContext {
	return &loadContext{
		model:     m,
		log:       zap.NewNop(),
		opts:      DefaultOptions(),
		doc:       &Document{Root: newNode("test")},
		materials: newMaterialSet(zap.NewNop()),
	}
}

func TestBuildElementMeshesSingleMaterial(t *testing.T) {
	m := buildingFixture()
	ctx := newTestContext(m)
	meshes, err := buildElementMeshes(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(meshes))
	}
	mesh := meshes[0]
	if mesh.Name != "Wand-Nord" {
		t.Errorf("name %q, want Wand-Nord", mesh.Name)
	}
	if len(mesh.Vertexes) != 4 || len(mesh.Faces) != 2 {
		t.Errorf("got %d vertices / %d faces, want 4 / 2", len(mesh.Vertexes), len(mesh.Faces))
	}
	if mesh.Material < 0 {
		t.Errorf("material unresolved")
	}
	if mesh.Element == nil || mesh.Element.ID != 10 || mesh.Element.Type != "IFCWALLSTANDARDCASE" {
		t.Errorf("element ref %+v", mesh.Element)
	}
	if len(mesh.UVs) != len(mesh.Vertexes) {
		t.Errorf("got %d UVs for %d vertices", len(mesh.UVs), len(mesh.Vertexes))
	}
}

func TestBuildElementMeshesAppliesTransform(t *testing.T) {
	m := buildingFixture()
	ctx := newTestContext(m)
	meshes, err := buildElementMeshes(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	// The placement moves the quad by +2 on X.
	for _, v := range meshes[0].Vertexes {
		if v.X < 2 || v.X > 3 {
			t.Errorf("vertex X=%v outside translated range [2,3]", v.X)
		}
	}
}

func TestBuildElementMeshesNoGeometry(t *testing.T) {
	m := buildingFixture()
	ctx := newTestContext(m)
	// Storey #4 has no tessellated shape.
	meshes, err := buildElementMeshes(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if meshes != nil {
		t.Errorf("expected nil meshes for element without geometry")
	}
}

func TestBuildElementMeshesSplitsByMaterial(t *testing.T) {
	m := buildingFixture()
	// Give the slab a second placement with a different color.
	m.addBoxGeometry(12, 101, *geom.NewTranslateMatrix4(0, 0, 1),
		geom.Vector4{X: 1, Y: 0, Z: 0, W: 1})
	ctx := newTestContext(m)
	meshes, err := buildElementMeshes(ctx, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2 (one per material)", len(meshes))
	}
	total := 0
	for i, part := range meshes {
		if want := "Bodenplatte_Mat"; !strings.HasPrefix(part.Name, want) {
			t.Errorf("part %d named %q, want prefix %q", i, part.Name, want)
		}
		if len(part.Faces) != 2 {
			t.Errorf("part %d has %d faces, want 2", i, len(part.Faces))
		}
		for _, f := range part.Faces {
			for _, vi := range f.Verts {
				if vi < 0 || vi >= len(part.Vertexes) {
					t.Fatalf("part %d references vertex %d of %d", i, vi, len(part.Vertexes))
				}
			}
		}
		if part.Material == meshes[(i+1)%2].Material {
			t.Errorf("split parts share material %d", part.Material)
		}
		total += len(part.Vertexes)
	}
	// Groups never share vertices, so the split can only keep or grow the
	// total count.
	if total < 8 {
		t.Errorf("split dropped vertices: %d total, want >= 8", total)
	}
}

func TestBuildElementMeshesFallbackName(t *testing.T) {
	m := buildingFixture()
	m.addLine(13, IfcSlab, "gid", nil, "$")
	m.addBoxGeometry(13, 101, *geom.NewMatrix4(), geom.Vector4{W: 1})
	ctx := newTestContext(m)
	meshes, err := buildElementMeshes(ctx, 13)
	if err != nil {
		t.Fatal(err)
	}
	if meshes[0].Name != "Mesh 13" {
		t.Errorf("name %q, want Mesh 13", meshes[0].Name)
	}
}

func TestGenerateUVsRange(t *testing.T) {
	mesh := &Mesh{Vertexes: []*geom.Vector3{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 2, Z: 0},
		{X: 5, Y: 1, Z: 0},
	}}
	generateUVs(mesh)
	if len(mesh.UVs) != 3 {
		t.Fatalf("got %d UVs", len(mesh.UVs))
	}
	for i, uv := range mesh.UVs {
		if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
			t.Errorf("uv %d = %+v outside [0,1]", i, uv)
		}
	}
	// X has the largest extent and is dropped; Y maps to U.
	if math.Abs(float64(mesh.UVs[1].X-1)) > 1e-6 {
		t.Errorf("vertex with max Y should map to U=1, got %v", mesh.UVs[1].X)
	}
}

func TestGenerateUVsDegenerateExtent(t *testing.T) {
	mesh := &Mesh{Vertexes: []*geom.Vector3{
		{X: 0, Y: 0, Z: 5},
		{X: 1, Y: 0, Z: 5},
		{X: 0, Y: 1, Z: 5},
	}}
	generateUVs(mesh)
	for i, uv := range mesh.UVs {
		if math.IsNaN(float64(uv.X)) || math.IsNaN(float64(uv.Y)) {
			t.Errorf("uv %d is NaN: %+v", i, uv)
		}
	}
}
