// Package quadrature provides numerical integration rules on the reference
// cells used by the finite elements: the line, quad and hex [-1,1]^d and
// the triangle (-1,-1),(1,-1),(-1,1).
package quadrature

import (
	"fmt"

	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// Rule is an immutable set of quadrature points and weights on a reference
// cell. Dim 0 is the single-point rule used for the faces of 1D cells.
type Rule struct {
	Dim     int
	Points  utils.Matrix // NPoints x max(Dim,1), reference coordinates
	Weights utils.Vector
}

func (q *Rule) NPoints() int {
	if q.Weights.V == nil {
		return 0
	}
	return q.Weights.Len()
}

// Point returns the reference-cell coordinates of point i.
func (q *Rule) Point(i int) (p tensor.Vec) {
	var (
		dim = q.Dim
	)
	if dim == 0 {
		dim = 1
	}
	p.Dim = dim
	for d := 0; d < q.Dim; d++ {
		p.D[d] = q.Points.At(i, d)
	}
	return
}

func (q *Rule) Weight(i int) float64 { return q.Weights.AtVec(i) }

func newRule(dim int, points [][]float64, weights []float64) (q *Rule) {
	var (
		np   = len(weights)
		cols = dim
	)
	if cols == 0 {
		cols = 1
	}
	if len(points) != np {
		panic(fmt.Errorf("mismatched quadrature data: %d points, %d weights", len(points), np))
	}
	P := utils.NewMatrix(np, cols)
	for i, pt := range points {
		for d := 0; d < dim; d++ {
			P.DataP[i*cols+d] = pt[d]
		}
	}
	q = &Rule{
		Dim:     dim,
		Points:  P.SetReadOnly("quadrature points"),
		Weights: utils.NewVector(np, weights),
	}
	return
}

// NewPointRule is the rule for zero-dimensional domains (vertex "faces" of
// 1D cells): one point, unit weight.
func NewPointRule() *Rule {
	return newRule(0, [][]float64{{0}}, []float64{1})
}
