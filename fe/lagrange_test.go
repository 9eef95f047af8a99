package fe

import (
	"testing"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"

	"github.com/stretchr/testify/assert"
)

// pointRule builds a rule holding the given reference points, for
// evaluating shape data at chosen locations.
func pointRule(dim int, pts []tensor.Vec) *quadrature.Rule {
	var (
		P = utils.NewMatrix(len(pts), dim)
		w = utils.NewVector(len(pts))
	)
	for i, p := range pts {
		for d := 0; d < dim; d++ {
			P.Set(i, d, p.D[d])
		}
	}
	return &quadrature.Rule{Dim: dim, Points: P, Weights: w}
}

func TestLagrangeNodalProperty(t *testing.T) {
	// shape i is 1 at node i and 0 at every other node
	var (
		tol   = 1.e-11
		cases = []struct {
			g      mesh.GeometryType
			degree int
		}{
			{mesh.Line, 1}, {mesh.Line, 4},
			{mesh.Quad, 1}, {mesh.Quad, 3},
			{mesh.Hex, 1}, {mesh.Hex, 2},
		}
	)
	for _, tc := range cases {
		var (
			el    = NewLagrange(tc.g, tc.degree)
			nodes = make([]tensor.Vec, el.NDofsPerCell())
		)
		for i := range nodes {
			nodes[i] = el.NodePoint(i)
		}
		data := el.GetData(UpdateValues, pointRule(tc.g.Dim(), nodes))
		for i := 0; i < el.NDofsPerCell(); i++ {
			for j := 0; j < el.NDofsPerCell(); j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, data.RefValues.At(i, j), tol,
					"%s degree %d shape %d node %d", tc.g, tc.degree, i, j)
			}
		}
	}
}

func TestLagrangeDegree1VertexOrdering(t *testing.T) {
	// degree-1 shape k peaks on geometry vertex k
	for _, g := range []mesh.GeometryType{mesh.Line, mesh.Quad, mesh.Hex} {
		var (
			el = NewLagrange(g, 1)
			vc = g.VertexCoords()
		)
		data := el.GetData(UpdateValues, pointRule(g.Dim(), vc))
		for k := range vc {
			assert.InDelta(t, 1.0, data.RefValues.At(k, k), 1.e-12, "%s vertex %d", g, k)
		}
	}
}

func TestLagrangeDerivatives(t *testing.T) {
	// quadratic 1D basis: exact derivative check against finite formula
	// at an interior point
	var (
		el = NewLagrange(mesh.Line, 2)
		pt = tensor.NewVec(1, 0.3)
	)
	data := el.GetData(UpdateValues|UpdateGradients|UpdateHessians,
		pointRule(1, []tensor.Vec{pt}))
	// GLL nodes for degree 2 are -1, 0, 1; basis: x(x-1)/2, 1-x^2, x(x+1)/2
	var (
		x    = 0.3
		want = []float64{x * (x - 1) / 2, 1 - x*x, x * (x + 1) / 2}
		dw   = []float64{x - 0.5, -2 * x, x + 0.5}
		hw   = []float64{1, -2, 1}
	)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], data.RefValues.At(i, 0), 1.e-12)
		assert.InDelta(t, dw[i], data.RefGradients[i][0].D[0], 1.e-12)
		assert.InDelta(t, hw[i], data.RefHessians[i][0].D[0][0], 1.e-12)
	}
}

func TestLagrangeRejectsBadInput(t *testing.T) {
	assert.Panics(t, func() { NewLagrange(mesh.Tri, 1) })
	assert.Panics(t, func() { NewLagrange(mesh.Quad, 0) })
	el := NewLagrange(mesh.Quad, 1)
	assert.Panics(t, func() { el.NodePoint(4) })
}

func TestSimplexNodalProperty(t *testing.T) {
	var (
		vc   = mesh.Tri.VertexCoords()
		mids = []tensor.Vec{
			vc[0].Add(vc[1]).Scale(0.5),
			vc[1].Add(vc[2]).Scale(0.5),
			vc[2].Add(vc[0]).Scale(0.5),
		}
	)
	{
		el := NewSimplexP(1)
		data := el.GetData(UpdateValues, pointRule(2, vc))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, data.RefValues.At(i, j), 1.e-13)
			}
		}
	}
	{
		el := NewSimplexP(2)
		nodes := append(append([]tensor.Vec{}, vc...), mids...)
		data := el.GetData(UpdateValues, pointRule(2, nodes))
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, data.RefValues.At(i, j), 1.e-13)
			}
		}
	}
	assert.Panics(t, func() { NewSimplexP(3) })
}

func TestComputeCellSimilarity(t *testing.T) {
	var (
		m    = mesh.NewCartesian2D(2, 1, 0, 0, 2, 1)
		c0   = m.Cell(0)
		c1   = m.Cell(1)
		v0   = snapshotVerts(c0)
		skew = mesh.NewMesh(mesh.Quad,
			[]tensor.Vec{
				tensor.NewVec(2, 0, 0), tensor.NewVec(2, 1, 0),
				tensor.NewVec(2, 1.5, 1), tensor.NewVec(2, 0, 1),
			}, [][]int{{0, 1, 2, 3}})
	)
	assert.Equal(t, SimilarityIdentical, ComputeCellSimilarity(c0, v0))
	assert.Equal(t, SimilarityTranslation, ComputeCellSimilarity(c1, v0))
	assert.Equal(t, SimilarityNone, ComputeCellSimilarity(skew.Cell(0), v0))
	assert.Equal(t, SimilarityNone, ComputeCellSimilarity(c0, nil))
}

func snapshotVerts(c mesh.Cell) (v []tensor.Vec) {
	v = make([]tensor.Vec, c.NVertices())
	for i := range v {
		v[i] = c.Vertex(i)
	}
	return
}
