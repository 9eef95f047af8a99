package assembly

import (
	"testing"

	"github.com/notargets/gofea/fe"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"

	"github.com/stretchr/testify/assert"
)

func TestMassMatrixSumsToMeasure(t *testing.T) {
	// sum_ij M_ij = integral of (sum phi_i)(sum phi_j) = mesh measure
	var (
		m = mesh.NewCartesian2D(3, 3, 0, 0, 2, 2)
		a = NewAssembler(m, fe.NewLagrange(mesh.Quad, 1),
			mesh.NewVertexLayout(m, 1), quadrature.NewGauss(2, 2))
		M = a.Mass()
	)
	var total float64
	n, _ := M.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += M.At(i, j)
		}
	}
	assert.InDelta(t, 4.0, total, 1.e-10)
}

func TestStiffnessRowSumsVanish(t *testing.T) {
	// grad of the constant 1 is zero, so K applied to all-ones vanishes
	var (
		m = mesh.NewTriangulated2D(2, 2, 0, 0, 1, 1)
		a = NewAssembler(m, fe.NewSimplexP(1),
			mesh.NewVertexLayout(m, 1), quadrature.NewGaussSimplex(2))
		K = a.Stiffness()
	)
	n, _ := K.Dims()
	for i := 0; i < n; i++ {
		var row float64
		for j := 0; j < n; j++ {
			row += K.At(i, j)
		}
		assert.InDelta(t, 0.0, row, 1.e-10)
	}
}

func TestLoadVectorSumsToMeasure(t *testing.T) {
	var (
		m = mesh.NewCartesian2D(2, 2, 0, 0, 3, 1)
		a = NewAssembler(m, fe.NewLagrange(mesh.Quad, 1),
			mesh.NewVertexLayout(m, 1), quadrature.NewGauss(2, 2))
		b = a.Load(func(tensor.Vec) float64 { return 1 })
	)
	var total float64
	for _, v := range b {
		total += v
	}
	assert.InDelta(t, 3.0, total, 1.e-10)
}

func TestBoundaryFluxClosedSurface(t *testing.T) {
	// integral of n_x over a closed boundary is zero
	var (
		m = mesh.NewCartesian2D(2, 2, 0, 0, 1, 1)
		a = NewAssembler(m, fe.NewLagrange(mesh.Quad, 1),
			mesh.NewVertexLayout(m, 1), quadrature.NewGauss(2, 2))
		b = a.BoundaryFlux(quadrature.NewGaussLegendre1D(2),
			func(x, n tensor.Vec) float64 { return n.D[0] })
	)
	var total float64
	for _, v := range b {
		total += v
	}
	assert.InDelta(t, 0.0, total, 1.e-10)

	// but the boundary measure itself is the perimeter
	per := a.BoundaryFlux(quadrature.NewGaussLegendre1D(2),
		func(x, n tensor.Vec) float64 { return 1 })
	total = 0
	for _, v := range per {
		total += v
	}
	assert.InDelta(t, 4.0, total, 1.e-10)
}

func TestPoissonLinearExact(t *testing.T) {
	// Laplace equation with u = x on the boundary: the discrete solution
	// reproduces u = x at every node, on quads and on triangles.
	var (
		tol   = 1.e-10
		cases = []struct {
			m  *mesh.Mesh
			el fe.FiniteElement
			q  *quadrature.Rule
		}{
			{mesh.NewCartesian2D(3, 3, 0, 0, 1, 1),
				fe.NewLagrange(mesh.Quad, 1), quadrature.NewGauss(2, 2)},
			{mesh.NewTriangulated2D(3, 3, 0, 0, 1, 1),
				fe.NewSimplexP(1), quadrature.NewGaussSimplex(2)},
		}
	)
	for _, tc := range cases {
		var (
			layout = mesh.NewVertexLayout(tc.m, 1)
			a      = NewAssembler(tc.m, tc.el, layout, tc.q)
			K      = a.Stiffness().ToDense()
			b      = make([]float64, layout.NDoFs)
		)
		// Dirichlet values on boundary vertices
		constrained := map[int]float64{}
		for v, p := range tc.m.Vertices {
			if onBoundary(p) {
				constrained[v] = p.D[0]
			}
		}
		ApplyDirichlet(K, b, constrained)
		x := K.LUSolve(utils.NewVector(len(b), b))
		for v, p := range tc.m.Vertices {
			assert.InDelta(t, p.D[0], x.AtVec(v), tol)
		}
	}
}

func onBoundary(p tensor.Vec) bool {
	const eps = 1.e-12
	for d := 0; d < 2; d++ {
		if p.D[d] < eps || p.D[d] > 1-eps {
			return true
		}
	}
	return false
}
