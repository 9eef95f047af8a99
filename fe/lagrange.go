package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// Lagrange is the scalar nodal Lagrange element of arbitrary degree on the
// tensor-product reference cells (line, quad, hex). Degree 1 uses the cell
// vertices as nodes in the mesh vertex ordering; higher degrees use
// Gauss-Lobatto node lines in lexicographic ordering.
type Lagrange struct {
	geom    mesh.GeometryType
	dim     int
	degree  int
	np1     int       // nodes per direction
	nodes1d []float64 // 1D node positions on [-1,1]
	coeffs  utils.Matrix
	ndofs   int
	nodeIdx [][3]int // per shape function, per-direction node indices
	nonzero [][]bool
	name    string
}

func NewLagrange(g mesh.GeometryType, degree int) (el *Lagrange) {
	var (
		dim = g.Dim()
	)
	if g == mesh.Tri {
		panic(fmt.Errorf("Lagrange is tensor-product only, use NewSimplexP for triangles"))
	}
	if degree < 1 {
		panic(fmt.Errorf("polynomial degree must be >= 1, have %d", degree))
	}
	el = &Lagrange{
		geom:   g,
		dim:    dim,
		degree: degree,
		np1:    degree + 1,
		name:   fmt.Sprintf("Lagrange%s(%d)", g, degree),
	}
	el.nodes1d = quadrature.JacobiGL(0, 0, degree).DataP
	el.coeffs = lagrangeCoeffs(el.nodes1d)
	el.ndofs = 1
	for d := 0; d < dim; d++ {
		el.ndofs *= el.np1
	}
	el.nodeIdx = lagrangeNodeOrdering(g, degree)
	el.nonzero = make([][]bool, el.ndofs)
	for i := range el.nonzero {
		el.nonzero[i] = []bool{true}
	}
	return
}

// lagrangeCoeffs returns the monomial coefficient matrix of the 1D nodal
// basis: column k holds the coefficients of the basis polynomial that is 1
// at node k and 0 at the others, obtained by inverting the Vandermonde
// matrix with gonum. Well conditioned for the moderate degrees used here.
func lagrangeCoeffs(nodes []float64) (C utils.Matrix) {
	var (
		n   = len(nodes)
		V   = utils.NewMatrix(n, n)
		err error
	)
	for i, x := range nodes {
		p := 1.
		for j := 0; j < n; j++ {
			V.Set(i, j, p)
			p *= x
		}
	}
	if C, err = V.Inverse(); err != nil {
		panic(err)
	}
	C.SetReadOnly("lagrange basis coefficients")
	return
}

// lagrangeNodeOrdering lists, in shape-function order, the per-direction
// 1D node indices of each node. Degree 1 is permuted so that shape k sits
// on geometry vertex k; higher degrees stay lexicographic.
func lagrangeNodeOrdering(g mesh.GeometryType, degree int) (idx [][3]int) {
	var (
		np1 = degree + 1
		dim = g.Dim()
		lex [][3]int
	)
	switch dim {
	case 1:
		for i := 0; i < np1; i++ {
			lex = append(lex, [3]int{i, 0, 0})
		}
	case 2:
		for j := 0; j < np1; j++ {
			for i := 0; i < np1; i++ {
				lex = append(lex, [3]int{i, j, 0})
			}
		}
	case 3:
		for k := 0; k < np1; k++ {
			for j := 0; j < np1; j++ {
				for i := 0; i < np1; i++ {
					lex = append(lex, [3]int{i, j, k})
				}
			}
		}
	}
	if degree != 1 {
		return lex
	}
	switch g {
	case mesh.Line:
		return lex
	case mesh.Quad:
		// lexicographic corners -> counterclockwise vertex order
		perm := []int{0, 1, 3, 2}
		idx = make([][3]int, len(lex))
		for v, l := range perm {
			idx[v] = lex[l]
		}
		return
	case mesh.Hex:
		perm := []int{0, 1, 3, 2, 4, 5, 7, 6}
		idx = make([][3]int, len(lex))
		for v, l := range perm {
			idx[v] = lex[l]
		}
		return
	}
	panic(fmt.Errorf("unsupported geometry %v", g))
}

func (el *Lagrange) Name() string                { return el.name }
func (el *Lagrange) Dim() int                    { return el.dim }
func (el *Lagrange) Geometry() mesh.GeometryType { return el.geom }
func (el *Lagrange) NDofsPerCell() int           { return el.ndofs }
func (el *Lagrange) NComponents() int            { return 1 }
func (el *Lagrange) NRows() int                  { return el.ndofs }
func (el *Lagrange) IsPrimitive() bool           { return true }
func (el *Lagrange) IsPrimitiveShape(int) bool   { return true }

func (el *Lagrange) SystemToComponentIndex(i int) (component, within int) {
	el.checkShape(i)
	return 0, i
}

func (el *Lagrange) NonzeroComponents(i int) []bool {
	el.checkShape(i)
	return el.nonzero[i]
}

func (el *Lagrange) ShapeToRow(shape, component int) (row int, ok bool) {
	el.checkShape(shape)
	if component != 0 {
		return 0, false
	}
	return shape, true
}

func (el *Lagrange) RequiresUpdateFlags(requested UpdateFlags) UpdateFlags {
	return shapeRequiresUpdateFlags(requested)
}

func (el *Lagrange) GetData(flags UpdateFlags, q *quadrature.Rule) (data *ElementData) {
	var (
		nq = q.NPoints()
	)
	data = NewElementData(flags, el.ndofs, nq)
	for i := 0; i < el.ndofs; i++ {
		for qp := 0; qp < nq; qp++ {
			pt := q.Point(qp)
			if flags.Has(UpdateValues) {
				data.RefValues.Set(i, qp, el.evalProduct(i, pt, [3]int{}))
			}
			if flags.Has(UpdateGradients) {
				data.RefGradients[i][qp] = el.evalGradient(i, pt)
			}
			if flags.Has(UpdateHessians) {
				data.RefHessians[i][qp] = el.evalHessian(i, pt)
			}
			if flags.Has(UpdateThirdDerivatives) {
				data.RefThirds[i][qp] = el.evalThird(i, pt)
			}
		}
	}
	return
}

func (el *Lagrange) FillValues(data *ElementData, mapOut *MappingOutput,
	similarity CellSimilarity, out *ShapeOutput) {
	transformShapeData(data, mapOut, similarity, out)
}

// eval1D evaluates the n-th derivative of 1D basis polynomial k at x.
func (el *Lagrange) eval1D(k int, x float64, n int) (y float64) {
	var (
		c = el.coeffs.DataP
		m = el.np1
	)
	for j := m - 1; j >= n; j-- {
		fac := 1.
		for d := 0; d < n; d++ {
			fac *= float64(j - d)
		}
		y = y*x + fac*c[j*m+k]
	}
	return
}

// evalProduct evaluates the mixed derivative of shape function i at the
// reference point, with orders[d] derivatives in direction d.
func (el *Lagrange) evalProduct(i int, pt tensor.Vec, orders [3]int) (v float64) {
	v = 1
	for d := 0; d < el.dim; d++ {
		v *= el.eval1D(el.nodeIdx[i][d], pt.D[d], orders[d])
	}
	return
}

func (el *Lagrange) evalGradient(i int, pt tensor.Vec) (g tensor.Vec) {
	g.Dim = el.dim
	for a := 0; a < el.dim; a++ {
		var orders [3]int
		orders[a] = 1
		g.D[a] = el.evalProduct(i, pt, orders)
	}
	return
}

func (el *Lagrange) evalHessian(i int, pt tensor.Vec) (h tensor.Tensor2) {
	h.Dim = el.dim
	for a := 0; a < el.dim; a++ {
		for b := 0; b < el.dim; b++ {
			var orders [3]int
			orders[a]++
			orders[b]++
			h.D[a][b] = el.evalProduct(i, pt, orders)
		}
	}
	return
}

func (el *Lagrange) evalThird(i int, pt tensor.Vec) (t tensor.Tensor3) {
	t.Dim = el.dim
	for a := 0; a < el.dim; a++ {
		for b := 0; b < el.dim; b++ {
			for c := 0; c < el.dim; c++ {
				var orders [3]int
				orders[a]++
				orders[b]++
				orders[c]++
				t.D[a][b][c] = el.evalProduct(i, pt, orders)
			}
		}
	}
	return
}

// NodePoint returns the reference-cell position of the node associated
// with shape function i.
func (el *Lagrange) NodePoint(i int) (p tensor.Vec) {
	el.checkShape(i)
	p.Dim = el.dim
	for d := 0; d < el.dim; d++ {
		p.D[d] = el.nodes1d[el.nodeIdx[i][d]]
	}
	return
}

func (el *Lagrange) checkShape(i int) {
	if i < 0 || i >= el.ndofs {
		panic(fmt.Errorf("%w: shape function %d, element has %d", ErrIndexRange, i, el.ndofs))
	}
}
