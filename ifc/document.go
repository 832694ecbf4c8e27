// Package ifc builds a spatial scene document from IFC (ISO 10303-21
// building model) entities. Entity access and tessellation are supplied by
// an external engine (see Model); this package reconstructs the
// Project/Site/Building/Storey/Space hierarchy, consolidates materials and
// assigns every mesh to the spatial node that contains it.
package ifc

import (
	"fmt"

	"github.com/bldgtool/ifcconv/geom"
)

// ElementRef links a produced mesh or node back to its source entity.
type ElementRef struct {
	ID   uint32
	Type string
	Name string
}

type Face struct {
	Verts [3]int
}

// Mesh is a single-material triangle mesh. Placements are baked into the
// vertex positions, so nodes referencing a mesh carry identity transforms.
type Mesh struct {
	Name     string
	Vertexes []*geom.Vector3
	Faces    []*Face
	UVs      []geom.Vector2
	Material int
	Element  *ElementRef
}

// Material colors are stored as linear RGB. Color.W is the opacity.
type Material struct {
	Name      string
	Color     geom.Vector4
	Ambient   geom.Vector3
	Specular  geom.Vector3
	Power     float32
	Metallic  float32
	Roughness float32
}

// Node is one node of the output hierarchy. Children are owned by their
// parent; MeshIndexes reference Document.Meshes.
type Node struct {
	Name        string
	Transform   *geom.Matrix4
	Parent      *Node
	Children    []*Node
	MeshIndexes []int
	Element     *ElementRef
	Elevation   *float64
}

func newNode(name string) *Node {
	return &Node{Name: name, Transform: geom.NewMatrix4()}
}

// AddChild appends c and sets its parent pointer.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

type Document struct {
	Name      string
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
}

// Validate checks the structural invariants of a built document: acyclic
// tree with consistent parent pointers, in-range face and material indices,
// and every mesh referenced by exactly one node.
func (doc *Document) Validate() error {
	for i, m := range doc.Meshes {
		if m.Material < 0 || m.Material >= len(doc.Materials) {
			return fmt.Errorf("mesh %d: material index %d out of range [0,%d)", i, m.Material, len(doc.Materials))
		}
		for _, f := range m.Faces {
			for _, v := range f.Verts {
				if v < 0 || v >= len(m.Vertexes) {
					return fmt.Errorf("mesh %d: vertex index %d out of range [0,%d)", i, v, len(m.Vertexes))
				}
			}
		}
	}
	refs := map[int]int{}
	seen := map[*Node]bool{}
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("node %q: cycle in hierarchy", n.Name)
		}
		seen[n] = true
		for _, i := range n.MeshIndexes {
			refs[i]++
		}
		for _, c := range n.Children {
			if c.Parent != n {
				return fmt.Errorf("node %q: parent pointer does not match %q", c.Name, n.Name)
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if doc.Root == nil {
		return fmt.Errorf("document has no root node")
	}
	if err := walk(doc.Root); err != nil {
		return err
	}
	for i := range doc.Meshes {
		if refs[i] != 1 {
			return fmt.Errorf("mesh %d referenced %d times", i, refs[i])
		}
	}
	return nil
}
