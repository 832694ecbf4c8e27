package ifc

import (
	"errors"
	"fmt"

	"github.com/bldgtool/ifcconv/geom"
	"go.uber.org/zap"
)

const vertexStride = 6 // position + normal, interleaved

// buildElementMeshes tessellates one element into document meshes.
// A (nil, nil) return means the element has nothing to show; real
// failures come back as errors and the element is skipped upstream.
func buildElementMeshes(ctx *loadContext, elemID uint32) ([]*Mesh, error) {
	flat, err := ctx.model.FlatMesh(elemID)
	if err != nil {
		if errors.Is(err, ErrNoGeometry) {
			return nil, nil
		}
		return nil, fmt.Errorf("flat mesh for #%d: %w", elemID, err)
	}
	if flat == nil || len(flat.Geometries) == 0 {
		return nil, nil
	}

	var verts []*geom.Vector3
	var faces []*Face
	var faceMats []int
	for _, placed := range flat.Geometries {
		g, err := ctx.model.Geometry(placed.GeometryID)
		if err != nil {
			ctx.log.Warn("skipping geometry", zap.Uint32("element", elemID),
				zap.Uint32("geometry", placed.GeometryID), zap.Error(err))
			continue
		}
		if len(g.VertexData) < vertexStride || len(g.Indices) < 3 {
			continue
		}
		base := len(verts)
		mat := ctx.materials.resolve(elemID, placed.Color)
		for i := 0; i+vertexStride <= len(g.VertexData); i += vertexStride {
			v := geom.NewVector3FromSlice(g.VertexData[i : i+3])
			verts = append(verts, placed.Transform.ApplyTo(v))
		}
		for i := 0; i+3 <= len(g.Indices); i += 3 {
			faces = append(faces, &Face{Verts: [3]int{
				base + int(g.Indices[i]),
				base + int(g.Indices[i+1]),
				base + int(g.Indices[i+2]),
			}})
			faceMats = append(faceMats, mat)
		}
	}
	if len(faces) == 0 {
		return nil, nil
	}

	name := elementName(ctx.model, elemID)
	if name == "" {
		name = fmt.Sprintf("Mesh %d", elemID)
	}
	ref := &ElementRef{ID: elemID, Type: TypeName(ctx.model.LineType(elemID)), Name: name}

	distinct := distinctMaterials(faceMats)
	if len(distinct) <= 1 {
		mat := -1
		if len(distinct) == 1 {
			mat = distinct[0]
		}
		mesh := &Mesh{Name: name, Vertexes: verts, Faces: faces, Material: mat, Element: ref}
		generateUVs(mesh)
		return []*Mesh{mesh}, nil
	}
	return splitByMaterial(name, ref, verts, faces, faceMats), nil
}

func distinctMaterials(faceMats []int) []int {
	var out []int
	seen := map[int]bool{}
	for _, m := range faceMats {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// splitByMaterial partitions the faces into one mesh per material, in
// first-seen face order, remapping each group to a dense vertex list so
// no group carries vertices it does not use.
func splitByMaterial(name string, ref *ElementRef, verts []*geom.Vector3, faces []*Face, faceMats []int) []*Mesh {
	type group struct {
		mesh  *Mesh
		remap map[int]int
	}
	var order []int
	groups := map[int]*group{}
	for fi, f := range faces {
		mat := faceMats[fi]
		g, ok := groups[mat]
		if !ok {
			g = &group{
				mesh:  &Mesh{Material: mat, Element: ref},
				remap: map[int]int{},
			}
			groups[mat] = g
			order = append(order, mat)
		}
		var nf Face
		for i, vi := range f.Verts {
			ni, ok := g.remap[vi]
			if !ok {
				ni = len(g.mesh.Vertexes)
				g.remap[vi] = ni
				g.mesh.Vertexes = append(g.mesh.Vertexes, verts[vi])
			}
			nf.Verts[i] = ni
		}
		g.mesh.Faces = append(g.mesh.Faces, &nf)
	}
	out := make([]*Mesh, 0, len(order))
	for _, mat := range order {
		m := groups[mat].mesh
		// The _Mat suffix is the material index at resolution time; it
		// is not rewritten if a default material is inserted in front
		// of the list afterwards.
		m.Name = fmt.Sprintf("%s_Mat%d", name, mat)
		generateUVs(m)
		out = append(out, m)
	}
	return out
}

// generateUVs planar-projects the mesh along its largest bounding-box
// axis, normalizing the remaining two axes to [0,1].
func generateUVs(m *Mesh) {
	if len(m.Vertexes) == 0 {
		return
	}
	min := *m.Vertexes[0]
	max := min
	for _, v := range m.Vertexes[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	ext := max.Sub(&min)
	// Drop the largest axis; project onto the other two.
	var ui, vi int
	switch {
	case ext.X >= ext.Y && ext.X >= ext.Z:
		ui, vi = 1, 2
	case ext.Y >= ext.X && ext.Y >= ext.Z:
		ui, vi = 0, 2
	default:
		ui, vi = 0, 1
	}
	mins := [3]float32{min.X, min.Y, min.Z}
	exts := [3]float32{ext.X, ext.Y, ext.Z}
	for i := range exts {
		if exts[i] < 1e-6 {
			exts[i] = 1
		}
	}
	m.UVs = make([]geom.Vector2, len(m.Vertexes))
	for i, v := range m.Vertexes {
		c := [3]float32{v.X, v.Y, v.Z}
		m.UVs[i] = geom.Vector2{
			X: (c[ui] - mins[ui]) / exts[ui],
			Y: (c[vi] - mins[vi]) / exts[vi],
		}
	}
}

// elementName reads the decoded Name attribute of an element line.
// Placeholder values come back as the empty string.
func elementName(r LineReader, id uint32) string {
	s, err := r.StringArg(id, 2)
	if err != nil {
		return ""
	}
	switch s {
	case "", "$", "''":
		return ""
	}
	return DecodeString(s)
}
