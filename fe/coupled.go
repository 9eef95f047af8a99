package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
)

// Coupled is a two-component element whose shape functions are nonzero in
// both components at once: shape i is (N_i, alpha N_i) for the scalar base
// function N_i. It is the simplest non-primitive element and stands in for
// the vector-valued families (Raviart-Thomas, Nedelec) whose shape
// functions span several components: every code path that distinguishes
// primitive from non-primitive access is reachable through it.
//
// The storage tables carry one row per (shape, component) pair: row 2i is
// component 0 of shape i, row 2i+1 is component 1.
type Coupled struct {
	base    FiniteElement
	alpha   float64
	nonzero []bool
	name    string
}

func NewCoupled(base FiniteElement, alpha float64) (el *Coupled) {
	if base.NComponents() != 1 {
		panic(fmt.Errorf("Coupled requires a scalar base element, %s has %d components",
			base.Name(), base.NComponents()))
	}
	if alpha == 0 {
		panic(fmt.Errorf("alpha = 0 would make the element primitive, use System instead"))
	}
	el = &Coupled{
		base:    base,
		alpha:   alpha,
		nonzero: []bool{true, true},
		name:    fmt.Sprintf("Coupled(%s,%g)", base.Name(), alpha),
	}
	return
}

func (el *Coupled) Name() string                { return el.name }
func (el *Coupled) Dim() int                    { return el.base.Dim() }
func (el *Coupled) Geometry() mesh.GeometryType { return el.base.Geometry() }
func (el *Coupled) NDofsPerCell() int           { return el.base.NDofsPerCell() }
func (el *Coupled) NComponents() int            { return 2 }
func (el *Coupled) NRows() int                  { return 2 * el.base.NRows() }
func (el *Coupled) IsPrimitive() bool           { return false }
func (el *Coupled) IsPrimitiveShape(i int) bool {
	el.checkShape(i)
	return false
}

func (el *Coupled) SystemToComponentIndex(i int) (component, within int) {
	el.checkShape(i)
	panic(fmt.Errorf("%w: %s shape %d spans both components",
		ErrShapeNotPrimitive, el.name, i))
}

func (el *Coupled) NonzeroComponents(i int) []bool {
	el.checkShape(i)
	return el.nonzero
}

func (el *Coupled) ShapeToRow(shape, component int) (row int, ok bool) {
	el.checkShape(shape)
	if component < 0 || component > 1 {
		return 0, false
	}
	return 2*shape + component, true
}

func (el *Coupled) RequiresUpdateFlags(requested UpdateFlags) UpdateFlags {
	return el.base.RequiresUpdateFlags(requested)
}

func (el *Coupled) GetData(flags UpdateFlags, q *quadrature.Rule) (data *ElementData) {
	var (
		baseData = el.base.GetData(flags, q)
		nq       = q.NPoints()
		nb       = el.base.NRows()
	)
	data = NewElementData(flags, 2*nb, nq)
	for b := 0; b < nb; b++ {
		for qp := 0; qp < nq; qp++ {
			if flags.Has(UpdateValues) {
				v := baseData.RefValues.At(b, qp)
				data.RefValues.Set(2*b, qp, v)
				data.RefValues.Set(2*b+1, qp, el.alpha*v)
			}
			if flags.Has(UpdateGradients) {
				g := baseData.RefGradients[b][qp]
				data.RefGradients[2*b][qp] = g
				data.RefGradients[2*b+1][qp] = g.Scale(el.alpha)
			}
			if flags.Has(UpdateHessians) {
				h := baseData.RefHessians[b][qp]
				data.RefHessians[2*b][qp] = h
				data.RefHessians[2*b+1][qp] = h.Scale(el.alpha)
			}
			if flags.Has(UpdateThirdDerivatives) {
				t := baseData.RefThirds[b][qp]
				data.RefThirds[2*b][qp] = t
				data.RefThirds[2*b+1][qp] = t.Scale(el.alpha)
			}
		}
	}
	return
}

func (el *Coupled) FillValues(data *ElementData, mapOut *MappingOutput,
	similarity CellSimilarity, out *ShapeOutput) {
	transformShapeData(data, mapOut, similarity, out)
}

func (el *Coupled) checkShape(i int) {
	if i < 0 || i >= el.NDofsPerCell() {
		panic(fmt.Errorf("%w: shape function %d, element has %d",
			ErrIndexRange, i, el.NDofsPerCell()))
	}
}
