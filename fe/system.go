package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
)

// System is a vector-valued element made of ncomp copies of one scalar
// base element, e.g. a displacement or velocity field. Shape function i
// acts in component i%ncomp and is the scalar base function i/ncomp.
//
// Every base function's data is shared between the vector components, so
// the internal tables hold only base.NRows() rows and the shape-to-row
// mapping is a genuine indirection: row = shape/ncomp.
type System struct {
	base    FiniteElement
	ncomp   int
	nonzero [][]bool
	name    string
}

func NewSystem(base FiniteElement, ncomp int) (el *System) {
	if base.NComponents() != 1 {
		panic(fmt.Errorf("System requires a scalar base element, %s has %d components",
			base.Name(), base.NComponents()))
	}
	if ncomp < 1 {
		panic(fmt.Errorf("need at least one component, have %d", ncomp))
	}
	el = &System{
		base:  base,
		ncomp: ncomp,
		name:  fmt.Sprintf("System(%s^%d)", base.Name(), ncomp),
	}
	el.nonzero = make([][]bool, el.NDofsPerCell())
	for i := range el.nonzero {
		nz := make([]bool, ncomp)
		nz[i%ncomp] = true
		el.nonzero[i] = nz
	}
	return
}

func (el *System) Name() string                { return el.name }
func (el *System) Dim() int                    { return el.base.Dim() }
func (el *System) Geometry() mesh.GeometryType { return el.base.Geometry() }
func (el *System) NDofsPerCell() int           { return el.ncomp * el.base.NDofsPerCell() }
func (el *System) NComponents() int            { return el.ncomp }
func (el *System) NRows() int                  { return el.base.NRows() }
func (el *System) IsPrimitive() bool           { return el.base.IsPrimitive() }
func (el *System) IsPrimitiveShape(i int) bool {
	el.checkShape(i)
	return el.base.IsPrimitiveShape(i / el.ncomp)
}

func (el *System) SystemToComponentIndex(i int) (component, within int) {
	el.checkShape(i)
	return i % el.ncomp, i / el.ncomp
}

func (el *System) NonzeroComponents(i int) []bool {
	el.checkShape(i)
	return el.nonzero[i]
}

func (el *System) ShapeToRow(shape, component int) (row int, ok bool) {
	el.checkShape(shape)
	if component != shape%el.ncomp {
		return 0, false
	}
	return el.base.ShapeToRow(shape/el.ncomp, 0)
}

func (el *System) RequiresUpdateFlags(requested UpdateFlags) UpdateFlags {
	return el.base.RequiresUpdateFlags(requested)
}

func (el *System) GetData(flags UpdateFlags, q *quadrature.Rule) *ElementData {
	return el.base.GetData(flags, q)
}

func (el *System) FillValues(data *ElementData, mapOut *MappingOutput,
	similarity CellSimilarity, out *ShapeOutput) {
	el.base.FillValues(data, mapOut, similarity, out)
}

func (el *System) checkShape(i int) {
	if i < 0 || i >= el.NDofsPerCell() {
		panic(fmt.Errorf("%w: shape function %d, element has %d",
			ErrIndexRange, i, el.NDofsPerCell()))
	}
}
