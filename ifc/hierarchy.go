package ifc

import (
	"fmt"

	"go.uber.org/zap"
)

// spatialLines holds every spatial-structure line found in the file,
// bucketed by level, in file order.
type spatialLines struct {
	byLevel map[SpatialLevel][]uint32
}

// scanSpatialLines walks the file once and buckets the spatial lines.
func scanSpatialLines(r LineReader) *spatialLines {
	s := &spatialLines{byLevel: map[SpatialLevel][]uint32{}}
	for _, id := range r.AllLines() {
		info, ok := infoFor(r.LineType(id))
		if !ok || info.level == LevelNone {
			continue
		}
		s.byLevel[info.level] = append(s.byLevel[info.level], id)
	}
	return s
}

// buildHierarchy reconstructs the Project/Site/Building/Storey/Space tree
// under doc.Root, returning the id→node map used for mesh assignment.
// Without a project line the document degrades to a flat list.
func buildHierarchy(ctx *loadContext) map[uint32]*Node {
	spatial := scanSpatialLines(ctx.model)
	projects := spatial.byLevel[LevelProject]
	if len(projects) == 0 {
		ctx.log.Warn("no project line, building flat hierarchy")
		flatHierarchy(ctx.doc)
		return nil
	}

	nodes := map[uint32]*Node{}
	project := newSpatialNode(ctx, projects[0])
	ctx.doc.Root = project
	nodes[projects[0]] = project
	if len(projects) > 1 {
		ctx.log.Warn("multiple project lines, using first",
			zap.Uint32("used", projects[0]), zap.Int("total", len(projects)))
	}

	contained := func(id uint32) (*Node, bool) {
		parentID, ok := ctx.containment[id]
		if !ok {
			return nil, false
		}
		p, ok := nodes[parentID]
		return p, ok
	}

	attach := func(ids []uint32, defaultParent func(uint32) *Node) {
		for _, id := range ids {
			if _, dup := nodes[id]; dup {
				continue
			}
			n := newSpatialNode(ctx, id)
			parent, ok := contained(id)
			if !ok {
				parent = defaultParent(id)
			}
			parent.AddChild(n)
			nodes[id] = n
		}
	}

	sites := spatial.byLevel[LevelSite]
	attach(sites, func(uint32) *Node { return project })

	// Buildings default under the first site, or the project when the
	// file has no site at all.
	buildingFallback := project
	if len(sites) > 0 {
		buildingFallback = nodes[sites[0]]
	}
	attach(spatial.byLevel[LevelBuilding], func(uint32) *Node { return buildingFallback })

	storeyFallback := buildingFallback
	if b := spatial.byLevel[LevelBuilding]; len(b) > 0 {
		storeyFallback = nodes[b[0]]
	}
	attach(spatial.byLevel[LevelStorey], func(uint32) *Node { return storeyFallback })

	spaceFallback := storeyFallback
	if s := spatial.byLevel[LevelStorey]; len(s) > 0 {
		spaceFallback = nodes[s[0]]
	}
	attach(spatial.byLevel[LevelSpace], func(uint32) *Node { return spaceFallback })

	return nodes
}

// flatHierarchy attaches every mesh directly to the root node.
func flatHierarchy(doc *Document) {
	for i := range doc.Meshes {
		doc.Root.MeshIndexes = append(doc.Root.MeshIndexes, i)
	}
}

// newSpatialNode builds the node for one spatial line: decoded name from
// its declared name attribute, a synthesized fallback when the name is a
// placeholder, and the storey elevation when the line carries one.
func newSpatialNode(ctx *loadContext, id uint32) *Node {
	code := ctx.model.LineType(id)
	info, _ := infoFor(code)

	name := ""
	if s, err := ctx.model.StringArg(id, info.nameArg); err == nil {
		switch s {
		case "", "$", "''":
		default:
			name = DecodeString(s)
		}
	}
	if name == "" {
		// GlobalId prefix gives a stable human-checkable fallback.
		if gid, err := ctx.model.StringArg(id, 0); err == nil && len(gid) >= 8 {
			name = fmt.Sprintf("%s_%s", info.name, gid[:8])
		} else {
			name = fmt.Sprintf("%s_%d_%d", info.fallback, code, id)
		}
	}

	n := newNode(name)
	n.Element = &ElementRef{ID: id, Type: info.name, Name: name}
	if info.level == LevelStorey {
		if elev, err := ctx.model.FloatArg(id, 9); err == nil {
			n.Elevation = &elev
		}
	}
	return n
}

// assignMeshes hangs every document mesh off its containing spatial node,
// falling back to a semantically plausible parent when the file never
// declared containment for the element.
func assignMeshes(ctx *loadContext, nodes map[uint32]*Node) {
	if nodes == nil {
		return // flat hierarchy already holds the meshes
	}
	fallback := semanticFallback(ctx.doc.Root)
	for i, mesh := range ctx.doc.Meshes {
		target := fallback
		if mesh.Element != nil {
			if parentID, ok := ctx.containment[mesh.Element.ID]; ok {
				if n, ok := nodes[parentID]; ok {
					target = n
				}
			}
		}
		target.MeshIndexes = append(target.MeshIndexes, i)
	}
}

// semanticFallback picks the node that unassigned meshes attach to: a
// site-level node that has children (so loose geometry lands next to the
// buildings), else the first non-root child, else the root itself.
func semanticFallback(root *Node) *Node {
	for _, site := range root.Children {
		if len(site.Children) > 0 {
			return site
		}
	}
	if len(root.Children) > 0 {
		return root.Children[0]
	}
	return root
}
