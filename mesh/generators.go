package mesh

import (
	"fmt"

	"github.com/notargets/gofea/tensor"
)

// NewCartesian1D builds n line cells on [x0,x1].
func NewCartesian1D(n int, x0, x1 float64) (m *Mesh) {
	if n < 1 {
		panic(fmt.Errorf("need at least one cell, have %d", n))
	}
	var (
		h     = (x1 - x0) / float64(n)
		verts = make([]tensor.Vec, n+1)
		cells = make([][]int, n)
	)
	for i := 0; i <= n; i++ {
		verts[i] = tensor.NewVec(1, x0+float64(i)*h)
	}
	for i := 0; i < n; i++ {
		cells[i] = []int{i, i + 1}
	}
	return NewMesh(Line, verts, cells)
}

// NewCartesian2D builds an nx x ny quad grid on [x0,x1] x [y0,y1].
func NewCartesian2D(nx, ny int, x0, y0, x1, y1 float64) (m *Mesh) {
	if nx < 1 || ny < 1 {
		panic(fmt.Errorf("need at least one cell per direction, have %d x %d", nx, ny))
	}
	var (
		hx    = (x1 - x0) / float64(nx)
		hy    = (y1 - y0) / float64(ny)
		verts = make([]tensor.Vec, 0, (nx+1)*(ny+1))
		cells = make([][]int, 0, nx*ny)
	)
	vid := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			verts = append(verts, tensor.NewVec(2, x0+float64(i)*hx, y0+float64(j)*hy))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			cells = append(cells, []int{vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)})
		}
	}
	return NewMesh(Quad, verts, cells)
}

// NewTriangulated2D builds the same grid as NewCartesian2D with each quad
// split into two counterclockwise triangles.
func NewTriangulated2D(nx, ny int, x0, y0, x1, y1 float64) (m *Mesh) {
	var (
		q     = NewCartesian2D(nx, ny, x0, y0, x1, y1)
		cells = make([][]int, 0, 2*q.NCells())
	)
	for _, cv := range q.CellVerts {
		cells = append(cells, []int{cv[0], cv[1], cv[3]})
		cells = append(cells, []int{cv[1], cv[2], cv[3]})
	}
	return NewMesh(Tri, q.Vertices, cells)
}

// NewCartesian3D builds an nx x ny x nz hex grid on the given box.
func NewCartesian3D(nx, ny, nz int, x0, y0, z0, x1, y1, z1 float64) (m *Mesh) {
	if nx < 1 || ny < 1 || nz < 1 {
		panic(fmt.Errorf("need at least one cell per direction, have %d x %d x %d", nx, ny, nz))
	}
	var (
		hx    = (x1 - x0) / float64(nx)
		hy    = (y1 - y0) / float64(ny)
		hz    = (z1 - z0) / float64(nz)
		verts = make([]tensor.Vec, 0, (nx+1)*(ny+1)*(nz+1))
		cells = make([][]int, 0, nx*ny*nz)
	)
	vid := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				verts = append(verts, tensor.NewVec(3,
					x0+float64(i)*hx, y0+float64(j)*hy, z0+float64(k)*hz))
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				cells = append(cells, []int{
					vid(i, j, k), vid(i+1, j, k), vid(i+1, j+1, k), vid(i, j+1, k),
					vid(i, j, k+1), vid(i+1, j, k+1), vid(i+1, j+1, k+1), vid(i, j+1, k+1),
				})
			}
		}
	}
	return NewMesh(Hex, verts, cells)
}

// NewReferenceCell builds a one-cell mesh whose single cell is the
// reference cell itself, useful for testing evaluation on the identity
// mapping.
func NewReferenceCell(g GeometryType) (m *Mesh) {
	var (
		verts = g.VertexCoords()
		cv    = make([]int, len(verts))
	)
	for i := range cv {
		cv[i] = i
	}
	return NewMesh(g, verts, [][]int{cv})
}
