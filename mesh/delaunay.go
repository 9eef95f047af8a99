package mesh

import (
	"fmt"

	"github.com/notargets/gofea/tensor"

	"github.com/pradeep-pyro/triangle"
)

// NewDelaunay2D triangulates a 2D point cloud into a triangle mesh.
// Cells are reordered counterclockwise where needed so orientation
// matches the generators in this package.
func NewDelaunay2D(points []tensor.Vec) (m *Mesh) {
	if len(points) < 3 {
		panic(fmt.Errorf("need at least 3 points to triangulate, have %d", len(points)))
	}
	pts := make([][2]float64, len(points))
	for i, p := range points {
		if p.Dim != 2 {
			panic(fmt.Errorf("point %d has dimension %d, want 2", i, p.Dim))
		}
		pts[i] = [2]float64{p.D[0], p.D[1]}
	}
	var (
		tris  = triangle.Delaunay(pts)
		cells = make([][]int, len(tris))
	)
	for i, tri := range tris {
		a, b, c := int(tri[0]), int(tri[1]), int(tri[2])
		if signedArea2(points[a], points[b], points[c]) < 0 {
			b, c = c, b
		}
		cells[i] = []int{a, b, c}
	}
	return NewMesh(Tri, points, cells)
}

func signedArea2(a, b, c tensor.Vec) float64 {
	return (b.D[0]-a.D[0])*(c.D[1]-a.D[1]) - (c.D[0]-a.D[0])*(b.D[1]-a.D[1])
}
