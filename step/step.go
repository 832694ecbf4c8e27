// Package step reads ISO 10303-21 (STEP physical file) exchange
// structures and exposes their data section through the ifc entity
// interfaces. It parses entity instances only; geometry tessellation is
// out of scope, so the geometry methods report ifc.ErrNoGeometry.
package step

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/bldgtool/ifcconv/ifc"
)

// value is one parsed attribute: nil for $ and *, string, float64,
// int64, entityRef, enum, or []value for aggregates. Typed values like
// IFCLABEL('x') are unwrapped to their inner value.
type value interface{}

type entityRef uint32

type enum string

type line struct {
	typ  uint32
	name string
	args []value
}

// Model is a parsed STEP file. It implements ifc.Model.
type Model struct {
	lines  map[uint32]*line
	byType map[uint32][]uint32
	order  []uint32
}

// Engine opens STEP payloads into Models. The zero value is ready to use.
type Engine struct{}

func (Engine) Open(data []byte, opts *ifc.Options) (ifc.Model, error) {
	return Parse(data)
}

// Parse reads the whole exchange structure. Unknown entity type names
// get a synthetic type code so their lines stay addressable.
func Parse(data []byte) (*Model, error) {
	p := &parser{data: data}
	if err := p.skipToData(); err != nil {
		return nil, err
	}
	m := &Model{lines: map[uint32]*line{}, byType: map[uint32][]uint32{}}
	for {
		id, ln, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if ln == nil {
			break
		}
		if _, dup := m.lines[id]; dup {
			return nil, fmt.Errorf("step: duplicate instance #%d", id)
		}
		m.lines[id] = ln
		m.byType[ln.typ] = append(m.byType[ln.typ], id)
		m.order = append(m.order, id)
	}
	sort.Slice(m.order, func(i, j int) bool { return m.order[i] < m.order[j] })
	for _, ids := range m.byType {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return m, nil
}

func typeCodeFor(name string) uint32 {
	if c, ok := ifc.TypeCode(name); ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

func (m *Model) LineType(id uint32) uint32 {
	if l, ok := m.lines[id]; ok {
		return l.typ
	}
	return 0
}

func (m *Model) LinesWithType(typeCode uint32) []uint32 {
	return m.byType[typeCode]
}

func (m *Model) AllLines() []uint32 {
	return m.order
}

// TypeNameOf returns the declared entity name of a line, for diagnostics.
func (m *Model) TypeNameOf(id uint32) string {
	if l, ok := m.lines[id]; ok {
		return l.name
	}
	return ""
}

func (m *Model) arg(id uint32, n int) (value, error) {
	l, ok := m.lines[id]
	if !ok {
		return nil, fmt.Errorf("step: no instance #%d", id)
	}
	if n < 0 || n >= len(l.args) {
		return nil, fmt.Errorf("step: #%d=%s has no attribute %d", id, l.name, n)
	}
	if l.args[n] == nil {
		return nil, fmt.Errorf("step: #%d=%s attribute %d is unset", id, l.name, n)
	}
	return l.args[n], nil
}

func (m *Model) StringArg(id uint32, n int) (string, error) {
	v, err := m.arg(id, n)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("step: #%d attribute %d is not a string", id, n)
}

func (m *Model) RefArg(id uint32, n int) (uint32, error) {
	v, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	if r, ok := v.(entityRef); ok {
		return uint32(r), nil
	}
	return 0, fmt.Errorf("step: #%d attribute %d is not a reference", id, n)
}

func (m *Model) FloatArg(id uint32, n int) (float64, error) {
	v, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("step: #%d attribute %d is not a real", id, n)
}

func (m *Model) IntArg(id uint32, n int) (int64, error) {
	v, err := m.arg(id, n)
	if err != nil {
		return 0, err
	}
	if x, ok := v.(int64); ok {
		return x, nil
	}
	return 0, fmt.Errorf("step: #%d attribute %d is not an integer", id, n)
}

func (m *Model) SetArg(id uint32, n int) ([]uint32, error) {
	v, err := m.arg(id, n)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]value)
	if !ok {
		return nil, fmt.Errorf("step: #%d attribute %d is not an aggregate", id, n)
	}
	out := make([]uint32, 0, len(list))
	for _, item := range list {
		r, ok := item.(entityRef)
		if !ok {
			return nil, fmt.Errorf("step: #%d attribute %d holds a non-reference item", id, n)
		}
		out = append(out, uint32(r))
	}
	return out, nil
}

func (m *Model) FlatMesh(elementID uint32) (*ifc.FlatMesh, error) {
	return nil, ifc.ErrNoGeometry
}

func (m *Model) Geometry(geometryID uint32) (*ifc.Geometry, error) {
	return nil, ifc.ErrNoGeometry
}

func (m *Model) Close() error {
	m.lines = nil
	m.byType = nil
	m.order = nil
	return nil
}

var _ ifc.Model = (*Model)(nil)

func parseNumber(s string) (value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("step: bad number %q", s)
	}
	return f, nil
}
