package ifc

import (
	"fmt"
	"math"
	"sort"

	"github.com/bldgtool/ifcconv/geom"
	"go.uber.org/zap"
)

// materialSet is the per-load material state: the ordered material list,
// the schema-ID index, and the cache of generated color-identity
// materials. It never survives a load.
type materialSet struct {
	log          *zap.Logger
	list         []*Material
	idToIndex    map[uint32]int
	colorToIndex map[string]int
	relMaterials map[uint32][]uint32
	failed       bool
}

func newMaterialSet(log *zap.Logger) *materialSet {
	return &materialSet{
		log:          log,
		idToIndex:    map[uint32]int{},
		colorToIndex: map[string]int{},
		relMaterials: map[uint32][]uint32{},
	}
}

// fail switches the set into the degraded mode where every mesh resolves
// to the lazily inserted default material.
func (ms *materialSet) fail() {
	ms.failed = true
	ms.list = nil
	ms.idToIndex = map[uint32]int{}
	ms.colorToIndex = map[string]int{}
}

// extract builds the schema-declared part of the material list: one
// material per definition bundle, plus default-appearance materials for
// surface styles referenced only through styled items.
func (ms *materialSet) extract(r LineReader) error {
	if r == nil {
		return fmt.Errorf("ifc: no line reader")
	}
	ms.relMaterials = scanRelMaterials(r, ms.log)
	defs, covered := scanMaterialDefinitions(r, ms.log)

	ids := make([]uint32, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, matID := range ids {
		m := ms.schemaMaterial(r, matID, defs[matID])
		ms.idToIndex[matID] = len(ms.list)
		ms.list = append(ms.list, m)
		ms.log.Debug("extracted material", zap.Uint32("id", matID), zap.String("name", m.Name))
	}

	ms.extractStyledItems(r, covered)
	ms.log.Info("extracted schema materials", zap.Int("count", len(ms.list)))
	return nil
}

// scanRelMaterials maps each element to the materials associated with it
// by IfcRelAssociatesMaterial relations.
func scanRelMaterials(r LineReader, log *zap.Logger) map[uint32][]uint32 {
	rel := map[uint32][]uint32{}
	for _, relID := range r.LinesWithType(IfcRelAssociatesMaterial) {
		// arg 4: RelatedObjects, arg 5: RelatingMaterial
		mat, err := r.RefArg(relID, 5)
		if err != nil {
			log.Warn("skipping material relation", zap.Uint32("rel", relID), zap.Error(err))
			continue
		}
		objs, err := r.SetArg(relID, 4)
		if err != nil {
			log.Warn("skipping material relation", zap.Uint32("rel", relID), zap.Error(err))
			continue
		}
		for _, o := range objs {
			rel[o] = append(rel[o], mat)
		}
	}
	return rel
}

// scanMaterialDefinitions collects, per material, the flattened list of
// appearance property lines (colour, shading, rendering) reachable from
// its IfcMaterialDefinitionRepresentation. The second map records the
// surface styles visited on the way, so the styled-item pass can skip
// styles a material already accounts for.
func scanMaterialDefinitions(r LineReader, log *zap.Logger) (map[uint32][]uint32, map[uint32]bool) {
	defs := map[uint32][]uint32{}
	covered := map[uint32]bool{}
	for _, defID := range r.LinesWithType(IfcMaterialDefinitionRepresentation) {
		// arg 2: Representations, arg 3: RepresentedMaterial
		mat, err := r.RefArg(defID, 3)
		if err != nil {
			log.Warn("skipping material definition", zap.Uint32("def", defID), zap.Error(err))
			continue
		}
		reps, err := r.SetArg(defID, 2)
		if err != nil {
			log.Warn("skipping material definition", zap.Uint32("def", defID), zap.Error(err))
			continue
		}
		for _, rep := range reps {
			// IfcStyledRepresentation: arg 3 is the Items set.
			items, err := r.SetArg(rep, 3)
			if err != nil {
				continue
			}
			for _, item := range items {
				collectStyleProps(r, item, defs, covered, mat, 0)
			}
		}
	}
	return defs, covered
}

const maxStyleDepth = 8

// collectStyleProps follows the styled-item / style-assignment /
// surface-style indirection down to the concrete property lines.
func collectStyleProps(r LineReader, id uint32, defs map[uint32][]uint32, covered map[uint32]bool, mat uint32, depth int) {
	if depth > maxStyleDepth {
		return
	}
	switch r.LineType(id) {
	case IfcStyledItem:
		if styles, err := r.SetArg(id, 1); err == nil {
			for _, s := range styles {
				collectStyleProps(r, s, defs, covered, mat, depth+1)
			}
		}
	case IfcPresentationStyleAssignment:
		if styles, err := r.SetArg(id, 0); err == nil {
			for _, s := range styles {
				collectStyleProps(r, s, defs, covered, mat, depth+1)
			}
		}
	case IfcSurfaceStyle:
		covered[id] = true
		// arg 2: Styles
		if styles, err := r.SetArg(id, 2); err == nil {
			for _, s := range styles {
				collectStyleProps(r, s, defs, covered, mat, depth+1)
			}
		}
	case IfcColourRgb, IfcSurfaceStyleRendering, IfcSurfaceStyleShading:
		defs[mat] = append(defs[mat], id)
	}
}

// schemaMaterial builds one material from its definition bundle.
// Unrecognized property lines are ignored.
func (ms *materialSet) schemaMaterial(r LineReader, matID uint32, props []uint32) *Material {
	name := ""
	if s, err := r.StringArg(matID, 0); err == nil {
		name = DecodeString(s)
	}
	if name == "" {
		name = fmt.Sprintf("Material_%d", matID)
	}

	diffuse := geom.Vector4{X: 0.8, Y: 0.8, Z: 0.8, W: 1}
	for _, propID := range props {
		switch r.LineType(propID) {
		case IfcColourRgb:
			if c, err := readColourRgb(r, propID); err == nil {
				diffuse.X, diffuse.Y, diffuse.Z = c.X, c.Y, c.Z
			} else {
				ms.log.Debug("bad colour line", zap.Uint32("id", propID), zap.Error(err))
			}
		case IfcSurfaceStyleRendering, IfcSurfaceStyleShading:
			// arg 0: SurfaceColour, arg 1: Transparency (rendering only)
			if ref, err := r.RefArg(propID, 0); err == nil {
				if c, err := readColourRgb(r, ref); err == nil {
					diffuse.X, diffuse.Y, diffuse.Z = c.X, c.Y, c.Z
				}
			}
			if t, err := r.FloatArg(propID, 1); err == nil {
				diffuse.W = 1 - clamp01(float32(t))
			}
		}
	}
	m := materialFromColor(diffuse, name)
	m.Power = 32
	return m
}

// readColourRgb reads an IfcColourRgb line (arg 0 is the colour name,
// args 1-3 are the components).
func readColourRgb(r LineReader, id uint32) (geom.Vector3, error) {
	var c [3]float64
	for i := range c {
		v, err := r.FloatArg(id, i+1)
		if err != nil {
			return geom.Vector3{}, err
		}
		c[i] = v
	}
	return geom.Vector3{
		X: clamp01(float32(c[0])),
		Y: clamp01(float32(c[1])),
		Z: clamp01(float32(c[2])),
	}, nil
}

// extractStyledItems registers a material for every surface style that is
// referenced by a styled item but not already covered by a material
// definition. The style's own colour subcomponents are not decoded yet;
// these materials get the default appearance under the style's name.
func (ms *materialSet) extractStyledItems(r LineReader, covered map[uint32]bool) {
	for _, itemID := range r.LinesWithType(IfcStyledItem) {
		styles, err := r.SetArg(itemID, 1)
		if err != nil {
			continue
		}
		for _, styleID := range styles {
			ms.registerSurfaceStyle(r, styleID, covered, 0)
		}
	}
}

func (ms *materialSet) registerSurfaceStyle(r LineReader, styleID uint32, covered map[uint32]bool, depth int) {
	if depth > maxStyleDepth {
		return
	}
	switch r.LineType(styleID) {
	case IfcPresentationStyleAssignment:
		if styles, err := r.SetArg(styleID, 0); err == nil {
			for _, s := range styles {
				ms.registerSurfaceStyle(r, s, covered, depth+1)
			}
		}
	case IfcSurfaceStyle:
		if covered[styleID] {
			return
		}
		if _, ok := ms.idToIndex[styleID]; ok {
			return
		}
		name := ""
		if s, err := r.StringArg(styleID, 0); err == nil {
			name = DecodeString(s)
		}
		if name == "" {
			name = fmt.Sprintf("SurfaceStyle_%d", styleID)
		}
		m := materialFromColor(geom.Vector4{X: 0.8, Y: 0.8, Z: 0.8, W: 1}, name)
		m.Power = 32
		ms.idToIndex[styleID] = len(ms.list)
		ms.list = append(ms.list, m)
		ms.log.Debug("registered surface style", zap.Uint32("id", styleID), zap.String("name", name))
	}
}

// resolve picks the material index for one geometry placement: the
// element's schema material when one is registered, otherwise a
// color-identity material for the placement's own RGBA. Negative return
// means unresolved (degraded mode); ensureDefault maps it to the default
// material afterwards.
func (ms *materialSet) resolve(elemID uint32, color geom.Vector4) int {
	if ms.failed {
		return -1
	}
	if mats := ms.relMaterials[elemID]; len(mats) > 0 {
		if idx, ok := ms.idToIndex[mats[0]]; ok {
			return idx
		}
	}
	return ms.colorMaterial(color)
}

// colorMaterial returns the index of the generated material for a color,
// creating it on first use. Colors are quantized to 8 bits per channel;
// the material is named by the RRGGBBAA hex key and built from the
// rounded color so name and appearance always agree.
func (ms *materialSet) colorMaterial(color geom.Vector4) int {
	r := quantize(color.X)
	g := quantize(color.Y)
	b := quantize(color.Z)
	a := quantize(color.W)
	key := fmt.Sprintf("%02X%02X%02X%02X", r, g, b, a)
	if idx, ok := ms.colorToIndex[key]; ok {
		return idx
	}
	rounded := geom.Vector4{
		X: float32(r) / 255,
		Y: float32(g) / 255,
		Z: float32(b) / 255,
		W: float32(a) / 255,
	}
	idx := len(ms.list)
	ms.list = append(ms.list, materialFromColor(rounded, key))
	ms.colorToIndex[key] = idx
	ms.log.Debug("created color material", zap.String("key", key), zap.Int("index", idx))
	return idx
}

// ensureDefault lazily inserts the default material at index 0 when some
// mesh is still unresolved, shifting every other index up by one.
func (ms *materialSet) ensureDefault(meshes []*Mesh) {
	needed := false
	for _, m := range meshes {
		if m.Material < 0 {
			needed = true
			break
		}
	}
	if !needed {
		return
	}
	def := materialFromColor(geom.Vector4{X: 0.8, Y: 0.8, Z: 0.8, W: 1}, "IFC_Default")
	ms.list = append([]*Material{def}, ms.list...)
	for id := range ms.idToIndex {
		ms.idToIndex[id]++
	}
	for key := range ms.colorToIndex {
		ms.colorToIndex[key]++
	}
	for _, m := range meshes {
		if m.Material < 0 {
			m.Material = 0
		} else {
			m.Material++
		}
	}
	ms.log.Info("inserted default material at index 0")
}

func quantize(v float32) uint8 {
	f := float64(v) * 255
	if f < 0 {
		f = 0
	} else if f > 255 {
		f = 255
	}
	return uint8(math.Round(f))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// materialFromColor builds a material from an sRGB-authored RGBA color.
// The stored diffuse is linear; alpha is never gamma-corrected.
func materialFromColor(srgb geom.Vector4, name string) *Material {
	lin := geom.Vector3{
		X: srgbToLinear(srgb.X),
		Y: srgbToLinear(srgb.Y),
		Z: srgbToLinear(srgb.Z),
	}
	return &Material{
		Name:      name,
		Color:     geom.Vector4{X: lin.X, Y: lin.Y, Z: lin.Z, W: srgb.W},
		Ambient:   geom.Vector3{X: lin.X * 0.1, Y: lin.Y * 0.1, Z: lin.Z * 0.1},
		Specular:  geom.Vector3{X: 0.2, Y: 0.2, Z: 0.2},
		Power:     64,
		Metallic:  0,
		Roughness: 1,
	}
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}
