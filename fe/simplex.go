package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
)

// SimplexP is the scalar P1/P2 Lagrange element on the reference triangle
// (-1,-1),(1,-1),(-1,1). Shape functions are expressed in barycentric
// coordinates; degree 1 has the three vertex functions, degree 2 adds the
// three edge-midpoint bubbles (vertex, then edge 01, 12, 20 ordering).
type SimplexP struct {
	degree  int
	ndofs   int
	nonzero [][]bool
	name    string
}

// barycentric gradients on the reference triangle, constant over the cell
var simplexGradL = [3]tensor.Vec{
	{Dim: 2, D: [3]float64{-0.5, -0.5, 0}},
	{Dim: 2, D: [3]float64{0.5, 0, 0}},
	{Dim: 2, D: [3]float64{0, 0.5, 0}},
}

var simplexEdges = [3][2]int{{0, 1}, {1, 2}, {2, 0}}

func NewSimplexP(degree int) (el *SimplexP) {
	if degree < 1 || degree > 2 {
		panic(fmt.Errorf("SimplexP supports degrees 1 and 2, have %d", degree))
	}
	el = &SimplexP{
		degree: degree,
		ndofs:  3 * degree,
		name:   fmt.Sprintf("SimplexP(%d)", degree),
	}
	el.nonzero = make([][]bool, el.ndofs)
	for i := range el.nonzero {
		el.nonzero[i] = []bool{true}
	}
	return
}

func (el *SimplexP) Name() string                { return el.name }
func (el *SimplexP) Dim() int                    { return 2 }
func (el *SimplexP) Geometry() mesh.GeometryType { return mesh.Tri }
func (el *SimplexP) NDofsPerCell() int           { return el.ndofs }
func (el *SimplexP) NComponents() int            { return 1 }
func (el *SimplexP) NRows() int                  { return el.ndofs }
func (el *SimplexP) IsPrimitive() bool           { return true }
func (el *SimplexP) IsPrimitiveShape(int) bool   { return true }

func (el *SimplexP) SystemToComponentIndex(i int) (component, within int) {
	el.checkShape(i)
	return 0, i
}

func (el *SimplexP) NonzeroComponents(i int) []bool {
	el.checkShape(i)
	return el.nonzero[i]
}

func (el *SimplexP) ShapeToRow(shape, component int) (row int, ok bool) {
	el.checkShape(shape)
	if component != 0 {
		return 0, false
	}
	return shape, true
}

func (el *SimplexP) RequiresUpdateFlags(requested UpdateFlags) UpdateFlags {
	return shapeRequiresUpdateFlags(requested)
}

func barycentric(pt tensor.Vec) (L [3]float64) {
	L[0] = -0.5 * (pt.D[0] + pt.D[1])
	L[1] = 0.5 * (1 + pt.D[0])
	L[2] = 0.5 * (1 + pt.D[1])
	return
}

func (el *SimplexP) GetData(flags UpdateFlags, q *quadrature.Rule) (data *ElementData) {
	var (
		nq = q.NPoints()
	)
	data = NewElementData(flags, el.ndofs, nq)
	for qp := 0; qp < nq; qp++ {
		var (
			L = barycentric(q.Point(qp))
		)
		for i := 0; i < el.ndofs; i++ {
			if flags.Has(UpdateValues) {
				data.RefValues.Set(i, qp, el.value(i, L))
			}
			if flags.Has(UpdateGradients) {
				data.RefGradients[i][qp] = el.gradient(i, L)
			}
			if flags.Has(UpdateHessians) {
				data.RefHessians[i][qp] = el.hessian(i)
			}
			// third derivatives of quadratics are identically zero; the
			// allocated table stays zeroed
		}
	}
	return
}

func (el *SimplexP) FillValues(data *ElementData, mapOut *MappingOutput,
	similarity CellSimilarity, out *ShapeOutput) {
	transformShapeData(data, mapOut, similarity, out)
}

func (el *SimplexP) value(i int, L [3]float64) float64 {
	if el.degree == 1 {
		return L[i]
	}
	if i < 3 {
		return L[i] * (2*L[i] - 1)
	}
	e := simplexEdges[i-3]
	return 4 * L[e[0]] * L[e[1]]
}

func (el *SimplexP) gradient(i int, L [3]float64) (g tensor.Vec) {
	if el.degree == 1 {
		return simplexGradL[i]
	}
	if i < 3 {
		return simplexGradL[i].Scale(4*L[i] - 1)
	}
	e := simplexEdges[i-3]
	return simplexGradL[e[0]].Scale(4 * L[e[1]]).Add(simplexGradL[e[1]].Scale(4 * L[e[0]]))
}

func (el *SimplexP) hessian(i int) (h tensor.Tensor2) {
	h.Dim = 2
	if el.degree == 1 {
		return
	}
	if i < 3 {
		g := simplexGradL[i]
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				h.D[a][b] = 4 * g.D[a] * g.D[b]
			}
		}
		return
	}
	e := simplexEdges[i-3]
	ga, gb := simplexGradL[e[0]], simplexGradL[e[1]]
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			h.D[a][b] = 4 * (ga.D[a]*gb.D[b] + gb.D[a]*ga.D[b])
		}
	}
	return
}

func (el *SimplexP) checkShape(i int) {
	if i < 0 || i >= el.ndofs {
		panic(fmt.Errorf("%w: shape function %d, element has %d", ErrIndexRange, i, el.ndofs))
	}
}
