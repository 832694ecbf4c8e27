package converter

import (
	"fmt"

	"github.com/bldgtool/ifcconv/ifc"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type IFCToGLTFOption struct {
	Scale      float32 // Default: 1.0
	ForceUnlit bool

	IgnoreHierarchy bool // flatten all meshes under the scene root
}

type ifcToGltf struct {
	*IFCToGLTFOption
	*gltf.Document
	meshToGltf []int
}

func NewIFCToGLTFConverter(options *IFCToGLTFOption) *ifcToGltf {
	if options == nil {
		options = &IFCToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1.0
	}
	return &ifcToGltf{
		IFCToGLTFOption: options,
		Document:        gltf.NewDocument(),
	}
}

var unlitMaterialExt = "KHR_materials_unlit"

func (c *ifcToGltf) convertMaterial(mat *ifc.Material) *gltf.Material {
	metallic := mat.Metallic
	roughness := mat.Roughness
	mm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{mat.Color.X, mat.Color.Y, mat.Color.Z, mat.Color.W},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if mat.Color.W < 0.99 {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if c.ForceUnlit {
		mm.Extensions = map[string]interface{}{unlitMaterialExt: map[string]string{}}
	}
	return mm
}

func (c *ifcToGltf) convertMesh(mesh *ifc.Mesh) (*gltf.Mesh, error) {
	if len(mesh.Vertexes) == 0 || len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("mesh %q is empty", mesh.Name)
	}
	scale := c.Scale
	vertexes := make([][3]float32, len(mesh.Vertexes))
	for i, v := range mesh.Vertexes {
		v.Scale(scale).ToArray(vertexes[i][:])
	}
	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, uint32(f.Verts[0]), uint32(f.Verts[1]), uint32(f.Verts[2]))
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(c.Document, vertexes),
	}
	if len(mesh.UVs) == len(mesh.Vertexes) {
		texcood0 := make([][2]float32, len(mesh.UVs))
		for i, uv := range mesh.UVs {
			texcood0[i] = [2]float32{uv.X, uv.Y}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(c.Document, texcood0)
	}

	primitive := &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(c.Document, indices)),
		Attributes: attributes,
	}
	if mesh.Material >= 0 {
		primitive.Material = gltf.Index(uint32(mesh.Material))
	}
	return &gltf.Mesh{Name: mesh.Name, Primitives: []*gltf.Primitive{primitive}}, nil
}

func (c *ifcToGltf) addNode(node *ifc.Node, parent *gltf.Node) {
	gn := &gltf.Node{Name: node.Name}
	if node.Transform != nil && !node.Transform.IsIdentity() {
		node.Transform.ToArray(gn.Matrix[:])
	}
	if node.Element != nil {
		gn.Extras = map[string]interface{}{
			"ifcID":   node.Element.ID,
			"ifcType": node.Element.Type,
		}
	}
	id := uint32(len(c.Nodes))
	c.Nodes = append(c.Nodes, gn)
	if parent != nil {
		parent.Children = append(parent.Children, id)
	} else {
		c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, id)
	}

	switch len(node.MeshIndexes) {
	case 0:
	case 1:
		if g := c.meshToGltf[node.MeshIndexes[0]]; g >= 0 {
			gn.Mesh = gltf.Index(uint32(g))
		}
	default:
		// A glTF node holds a single mesh: fan out into child nodes.
		for _, mi := range node.MeshIndexes {
			g := c.meshToGltf[mi]
			if g < 0 {
				continue
			}
			child := &gltf.Node{
				Name: c.Meshes[g].Name,
				Mesh: gltf.Index(uint32(g)),
			}
			gn.Children = append(gn.Children, uint32(len(c.Nodes)))
			c.Nodes = append(c.Nodes, child)
		}
	}

	for _, ch := range node.Children {
		c.addNode(ch, gn)
	}
}

// Convert builds a glTF document from an imported building model. The
// material order is preserved so mesh material indices stay valid.
func (c *ifcToGltf) Convert(doc *ifc.Document) (*gltf.Document, error) {
	if doc.Root == nil {
		return nil, fmt.Errorf("document %q has no root node", doc.Name)
	}
	for _, mat := range doc.Materials {
		c.Materials = append(c.Materials, c.convertMaterial(mat))
	}
	c.meshToGltf = make([]int, len(doc.Meshes))
	for i, mesh := range doc.Meshes {
		gm, err := c.convertMesh(mesh)
		if err != nil {
			c.meshToGltf[i] = -1
			continue
		}
		c.meshToGltf[i] = len(c.Meshes)
		c.Meshes = append(c.Meshes, gm)
	}

	if c.IgnoreHierarchy {
		for g := range c.Meshes {
			id := uint32(len(c.Nodes))
			c.Nodes = append(c.Nodes, &gltf.Node{
				Name: c.Meshes[g].Name,
				Mesh: gltf.Index(uint32(g)),
			})
			c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, id)
		}
	} else {
		c.addNode(doc.Root, nil)
	}
	return c.Document, nil
}
