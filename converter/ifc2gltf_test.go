package converter

import (
	"testing"

	"github.com/bldgtool/ifcconv/geom"
	"github.com/bldgtool/ifcconv/ifc"
	"github.com/qmuntal/gltf"
)

func buildingDocument() *ifc.Document {
	quad := func(name string, mat int) *ifc.Mesh {
		return &ifc.Mesh{
			Name: name,
			Vertexes: []*geom.Vector3{
				{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
				{X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			},
			Faces:    []*ifc.Face{{Verts: [3]int{0, 1, 2}}, {Verts: [3]int{0, 2, 3}}},
			UVs:      []geom.Vector2{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
			Material: mat,
			Element:  &ifc.ElementRef{ID: 10, Type: "IFCWALL", Name: name},
		}
	}
	doc := &ifc.Document{
		Name:   "haus",
		Meshes: []*ifc.Mesh{quad("Wand", 0), quad("Decke", 1)},
		Materials: []*ifc.Material{
			{Name: "IFC_Default", Color: geom.Vector4{X: 0.6, Y: 0.6, Z: 0.6, W: 1}, Roughness: 1},
			{Name: "Glas", Color: geom.Vector4{X: 0.8, Y: 0.9, Z: 1, W: 0.4}, Roughness: 1},
		},
	}
	root := &ifc.Node{Name: "Haus", Transform: geom.NewMatrix4()}
	storey := &ifc.Node{Name: "EG", Transform: geom.NewMatrix4(), MeshIndexes: []int{0, 1},
		Element: &ifc.ElementRef{ID: 4, Type: "IFCBUILDINGSTOREY", Name: "EG"}}
	root.AddChild(storey)
	doc.Root = root
	return doc
}

func TestConvertDocument(t *testing.T) {
	conv := NewIFCToGLTFConverter(nil)
	gdoc, err := conv.Convert(buildingDocument())
	if err != nil {
		t.Fatal(err)
	}
	if len(gdoc.Materials) != 2 {
		t.Fatalf("got %d materials", len(gdoc.Materials))
	}
	if gdoc.Materials[1].AlphaMode != gltf.AlphaBlend {
		t.Errorf("translucent material alpha mode %q", gdoc.Materials[1].AlphaMode)
	}
	bc := gdoc.Materials[0].PBRMetallicRoughness.BaseColorFactor
	if bc == nil || bc[0] != 0.6 || bc[3] != 1 {
		t.Errorf("base color %v", bc)
	}
	if len(gdoc.Meshes) != 2 {
		t.Fatalf("got %d meshes", len(gdoc.Meshes))
	}
	prim := gdoc.Meshes[0].Primitives[0]
	if prim.Material == nil || *prim.Material != 0 {
		t.Errorf("primitive material %v", prim.Material)
	}
	if _, ok := prim.Attributes["TEXCOORD_0"]; !ok {
		t.Error("texture coordinates missing")
	}

	// Haus -> EG -> one child node per mesh.
	if len(gdoc.Scenes[0].Nodes) != 1 {
		t.Fatalf("scene roots %v", gdoc.Scenes[0].Nodes)
	}
	rootNode := gdoc.Nodes[gdoc.Scenes[0].Nodes[0]]
	if rootNode.Name != "Haus" || len(rootNode.Children) != 1 {
		t.Fatalf("root node %+v", rootNode)
	}
	eg := gdoc.Nodes[rootNode.Children[0]]
	if eg.Name != "EG" || len(eg.Children) != 2 {
		t.Fatalf("storey node %+v", eg)
	}
	for _, ci := range eg.Children {
		if gdoc.Nodes[ci].Mesh == nil {
			t.Errorf("mesh child %q without mesh", gdoc.Nodes[ci].Name)
		}
	}
}

func TestConvertFlatten(t *testing.T) {
	opts := &IFCToGLTFOption{IgnoreHierarchy: true}
	gdoc, err := NewIFCToGLTFConverter(opts).Convert(buildingDocument())
	if err != nil {
		t.Fatal(err)
	}
	if len(gdoc.Scenes[0].Nodes) != 2 {
		t.Fatalf("flattened scene roots %v", gdoc.Scenes[0].Nodes)
	}
}

func TestConvertNodeTransform(t *testing.T) {
	doc := buildingDocument()
	doc.Root.Children[0].Transform = geom.NewTranslateMatrix4(2, 0, 3)
	gdoc, err := NewIFCToGLTFConverter(nil).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	root := gdoc.Nodes[gdoc.Scenes[0].Nodes[0]]
	if root.Matrix != ([16]float32{}) {
		t.Errorf("identity transform must leave the node matrix unset, got %v", root.Matrix)
	}
	eg := gdoc.Nodes[root.Children[0]]
	if eg.Matrix[12] != 2 || eg.Matrix[14] != 3 || eg.Matrix[0] != 1 {
		t.Errorf("storey matrix %v", eg.Matrix)
	}
}

func TestConvertScale(t *testing.T) {
	conv := NewIFCToGLTFConverter(&IFCToGLTFOption{Scale: 0.001})
	if _, err := conv.Convert(buildingDocument()); err != nil {
		t.Fatal(err)
	}
	// Vertex positions are scaled at write time; the accessor max must
	// reflect the millimeter conversion.
	pos := conv.Accessors[conv.Meshes[0].Primitives[0].Attributes["POSITION"]]
	if len(pos.Max) == 3 && pos.Max[0] > 0.01 {
		t.Errorf("positions not scaled, max %v", pos.Max)
	}
}

func TestConvertUnlit(t *testing.T) {
	conv := NewIFCToGLTFConverter(&IFCToGLTFOption{ForceUnlit: true})
	gdoc, err := conv.Convert(buildingDocument())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := gdoc.Materials[0].Extensions[unlitMaterialExt]; !ok {
		t.Error("unlit extension missing")
	}
}
