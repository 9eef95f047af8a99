// Package mesh provides the triangulation collaborator consumed by the
// finite-element evaluation engine: cells with vertex geometry, face
// topology on the reference cell, structured grid generators, and per-cell
// degree-of-freedom layouts. Topology mutation is tracked by an epoch
// counter; holders of cell handles compare epochs instead of subscribing
// to change notifications.
package mesh

import (
	"fmt"

	"github.com/notargets/gofea/tensor"
)

type GeometryType uint8

const (
	Line GeometryType = iota
	Tri
	Quad
	Hex
)

func (g GeometryType) String() string {
	switch g {
	case Line:
		return "Line"
	case Tri:
		return "Tri"
	case Quad:
		return "Quad"
	case Hex:
		return "Hex"
	}
	return "Unknown"
}

func (g GeometryType) Dim() int {
	switch g {
	case Line:
		return 1
	case Tri, Quad:
		return 2
	case Hex:
		return 3
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

func (g GeometryType) NVertices() int {
	switch g {
	case Line:
		return 2
	case Tri:
		return 3
	case Quad:
		return 4
	case Hex:
		return 8
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

func (g GeometryType) NFaces() int {
	switch g {
	case Line:
		return 2
	case Tri:
		return 3
	case Quad:
		return 4
	case Hex:
		return 6
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

// NSubfaces is the number of isotropic children of one face: 2^(dim-1).
// Faces of 1D cells are vertices and have no children.
func (g GeometryType) NSubfaces() int {
	switch g {
	case Line:
		return 0
	case Tri, Quad:
		return 2
	case Hex:
		return 4
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

// FaceVertices lists, for each face, the cell-local vertex indices in the
// order that makes the outward normal follow from the tangent convention
// (2D: counterclockwise edge traversal; 3D: right-handed as seen from
// outside the cell).
func (g GeometryType) FaceVertices() [][]int {
	switch g {
	case Line:
		return [][]int{{0}, {1}}
	case Tri:
		return [][]int{{0, 1}, {1, 2}, {2, 0}}
	case Quad:
		return [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	case Hex:
		return [][]int{
			{0, 4, 7, 3}, // x = -1
			{1, 2, 6, 5}, // x = +1
			{0, 1, 5, 4}, // y = -1
			{2, 3, 7, 6}, // y = +1
			{0, 3, 2, 1}, // z = -1
			{4, 5, 6, 7}, // z = +1
		}
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

// VertexCoords returns the reference-cell coordinates of the cell
// vertices. Line and tensor-product cells live on [-1,1]^d; the reference
// triangle is (-1,-1),(1,-1),(-1,1).
func (g GeometryType) VertexCoords() []tensor.Vec {
	switch g {
	case Line:
		return []tensor.Vec{
			tensor.NewVec(1, -1),
			tensor.NewVec(1, 1),
		}
	case Tri:
		return []tensor.Vec{
			tensor.NewVec(2, -1, -1),
			tensor.NewVec(2, 1, -1),
			tensor.NewVec(2, -1, 1),
		}
	case Quad:
		return []tensor.Vec{
			tensor.NewVec(2, -1, -1),
			tensor.NewVec(2, 1, -1),
			tensor.NewVec(2, 1, 1),
			tensor.NewVec(2, -1, 1),
		}
	case Hex:
		return []tensor.Vec{
			tensor.NewVec(3, -1, -1, -1),
			tensor.NewVec(3, 1, -1, -1),
			tensor.NewVec(3, 1, 1, -1),
			tensor.NewVec(3, -1, 1, -1),
			tensor.NewVec(3, -1, -1, 1),
			tensor.NewVec(3, 1, -1, 1),
			tensor.NewVec(3, 1, 1, 1),
			tensor.NewVec(3, -1, 1, 1),
		}
	}
	panic(fmt.Errorf("unknown geometry type %d", g))
}

// Mesh is a single-geometry triangulation: every cell shares one
// GeometryType. The epoch counter increments on every geometric or
// topological mutation so that cached cell handles can be revalidated.
type Mesh struct {
	Geometry  GeometryType
	Vertices  []tensor.Vec
	CellVerts [][]int
	epoch     uint64
}

func NewMesh(g GeometryType, vertices []tensor.Vec, cellVerts [][]int) (m *Mesh) {
	var (
		nv = g.NVertices()
	)
	for i, cv := range cellVerts {
		if len(cv) != nv {
			panic(fmt.Errorf("cell %d has %d vertices, geometry %v needs %d",
				i, len(cv), g, nv))
		}
		for _, v := range cv {
			if v < 0 || v >= len(vertices) {
				panic(fmt.Errorf("cell %d references vertex %d, have %d vertices",
					i, v, len(vertices)))
			}
		}
	}
	m = &Mesh{
		Geometry:  g,
		Vertices:  vertices,
		CellVerts: cellVerts,
		epoch:     1,
	}
	return
}

func (m *Mesh) Dim() int      { return m.Geometry.Dim() }
func (m *Mesh) NCells() int   { return len(m.CellVerts) }
func (m *Mesh) Epoch() uint64 { return m.epoch }

func (m *Mesh) Cell(i int) Cell {
	if i < 0 || i >= m.NCells() {
		panic(fmt.Errorf("cell index %d out of range, mesh has %d cells", i, m.NCells()))
	}
	return Cell{Mesh: m, Index: i}
}

// Translate shifts every vertex by d and bumps the epoch: cached
// geometric data referring to this mesh is stale afterwards.
func (m *Mesh) Translate(d tensor.Vec) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(d)
	}
	m.epoch++
}

// Transform applies f to every vertex and bumps the epoch.
func (m *Mesh) Transform(f func(tensor.Vec) tensor.Vec) {
	for i := range m.Vertices {
		m.Vertices[i] = f(m.Vertices[i])
	}
	m.epoch++
}

// Cell is a lightweight handle into a Mesh.
type Cell struct {
	Mesh  *Mesh
	Index int
}

func (c Cell) Valid() bool { return c.Mesh != nil }

func (c Cell) Geometry() GeometryType { return c.Mesh.Geometry }
func (c Cell) Dim() int               { return c.Mesh.Dim() }
func (c Cell) NVertices() int         { return c.Mesh.Geometry.NVertices() }

// Vertex returns the real-space coordinates of cell-local vertex v.
func (c Cell) Vertex(v int) tensor.Vec {
	return c.Mesh.Vertices[c.Mesh.CellVerts[c.Index][v]]
}

func (c Cell) Same(o Cell) bool {
	return c.Mesh == o.Mesh && c.Index == o.Index
}
