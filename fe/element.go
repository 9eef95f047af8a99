package fe

import (
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// ElementData holds an element's shape-function data evaluated on the
// reference cell at a fixed point set. It is computed once per
// (element, quadrature) pair and reused across all Reinit calls.
//
// Tables are indexed [row][point] where a row is an entry in the
// element's internal storage scheme, not necessarily a shape-function
// index: elements with repeated or multi-component shape functions assign
// rows their own way and expose the mapping through ShapeToRow.
type ElementData struct {
	Flags UpdateFlags

	RefValues    utils.Matrix // rows x npoints
	RefGradients [][]tensor.Vec
	RefHessians  [][]tensor.Tensor2
	RefThirds    [][]tensor.Tensor3
}

// NewElementData allocates reference tables for nrows rows at nq points,
// honoring flags.
func NewElementData(flags UpdateFlags, nrows, nq int) (d *ElementData) {
	d = &ElementData{Flags: flags}
	if flags.Has(UpdateValues) {
		d.RefValues = utils.NewMatrix(nrows, nq)
	}
	if flags.Has(UpdateGradients) {
		d.RefGradients = allocTable[tensor.Vec](nrows, nq)
	}
	if flags.Has(UpdateHessians) {
		d.RefHessians = allocTable[tensor.Tensor2](nrows, nq)
	}
	if flags.Has(UpdateThirdDerivatives) {
		d.RefThirds = allocTable[tensor.Tensor3](nrows, nq)
	}
	return
}

func allocTable[T any](nrows, nq int) (t [][]T) {
	t = make([][]T, nrows)
	for i := range t {
		t[i] = make([]T, nq)
	}
	return
}

// ShapeOutput holds the real-space shape-function tables of the current
// cell, same [row][point] layout as ElementData.
type ShapeOutput struct {
	Values           utils.Matrix
	Gradients        [][]tensor.Vec
	Hessians         [][]tensor.Tensor2
	ThirdDerivatives [][]tensor.Tensor3
}

func NewShapeOutput(flags UpdateFlags, nrows, nq int) (out *ShapeOutput) {
	out = &ShapeOutput{}
	if flags.Has(UpdateValues) {
		out.Values = utils.NewMatrix(nrows, nq)
	}
	if flags.Has(UpdateGradients) {
		out.Gradients = allocTable[tensor.Vec](nrows, nq)
	}
	if flags.Has(UpdateHessians) {
		out.Hessians = allocTable[tensor.Tensor2](nrows, nq)
	}
	if flags.Has(UpdateThirdDerivatives) {
		out.ThirdDerivatives = allocTable[tensor.Tensor3](nrows, nq)
	}
	return
}

// FiniteElement defines shape functions on a reference cell and their
// component structure. Implementations must be reentrant; one element
// instance may back many evaluation caches concurrently.
type FiniteElement interface {
	Name() string
	Dim() int
	Geometry() mesh.GeometryType
	NDofsPerCell() int
	NComponents() int

	// NRows is the number of rows in the internal storage tables.
	NRows() int

	// IsPrimitive reports whether every shape function is nonzero in
	// exactly one component; IsPrimitiveShape answers per shape function.
	IsPrimitive() bool
	IsPrimitiveShape(i int) bool

	// SystemToComponentIndex returns, for a primitive shape function, its
	// one nonzero component and its index within the underlying scalar
	// basis. Panics with ErrShapeNotPrimitive otherwise.
	SystemToComponentIndex(i int) (component, within int)

	// NonzeroComponents returns the per-component nonzero pattern of shape
	// function i. Callers must not mutate the returned slice.
	NonzeroComponents(i int) []bool

	// ShapeToRow maps (shape function, component) to the storage row
	// holding that component's data; ok is false when the component is
	// identically zero for the shape function.
	ShapeToRow(shape, component int) (row int, ok bool)

	// RequiresUpdateFlags reports the mapping/geometry flags the element
	// needs in order to produce the requested shape-function flags.
	RequiresUpdateFlags(requested UpdateFlags) UpdateFlags

	// GetData evaluates reference shape data at the rule's points; the
	// rule's points must live in the element's reference-cell coordinates
	// (for face loci, callers project face rules into the cell first).
	GetData(flags UpdateFlags, q *quadrature.Rule) *ElementData

	// FillValues pushes the reference tables forward to the current real
	// cell using the mapping's output. Under SimilarityTranslation,
	// elements may skip recomputation of quantities that only depend on
	// the (unchanged) Jacobians.
	FillValues(data *ElementData, mapOut *MappingOutput, similarity CellSimilarity, out *ShapeOutput)
}

// transformShapeData is the push-forward shared by all elements whose
// shape functions transform covariantly (all of the ones here):
//
//	grad_real = J⁻ᵀ grad_ref
//	H_real    = J⁻ᵀ H_ref J⁻¹  −  Σ_k grad_real_k · Jpfg[k]
//	T_real    = covariant triple contraction − grad/hessian corrections
//
// The hessian and third-derivative corrections vanish on affine cells.
func transformShapeData(data *ElementData, mapOut *MappingOutput, similarity CellSimilarity, out *ShapeOutput) {
	var (
		flags = data.Flags
	)
	if flags.Has(UpdateValues) && similarity == SimilarityNone {
		copy(out.Values.DataP, data.RefValues.DataP)
	}
	if flags.Has(UpdateGradients) && similarity == SimilarityNone {
		for r := range data.RefGradients {
			for q := range data.RefGradients[r] {
				out.Gradients[r][q] = mapOut.InverseJacobians[q].TMulVec(data.RefGradients[r][q])
			}
		}
	}
	if flags.Has(UpdateHessians) && similarity == SimilarityNone {
		for r := range data.RefHessians {
			for q := range data.RefHessians[r] {
				out.Hessians[r][q] = covariantHessian(data.RefHessians[r][q],
					mapOut.InverseJacobians[q])
			}
		}
		if len(mapOut.JacobianPushedForwardGrads) != 0 {
			correctHessians(out, mapOut)
		}
	}
	if flags.Has(UpdateThirdDerivatives) && similarity == SimilarityNone {
		for r := range data.RefThirds {
			for q := range data.RefThirds[r] {
				out.ThirdDerivatives[r][q] = covariantThird(data.RefThirds[r][q],
					mapOut.InverseJacobians[q])
			}
		}
		if len(mapOut.JacobianPushedForwardGrads) != 0 {
			correctThirdDerivatives(out, mapOut)
		}
	}
}

func covariantHessian(h tensor.Tensor2, jinv tensor.Tensor2) (r tensor.Tensor2) {
	var (
		dim = jinv.Dim
	)
	r.Dim = dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sum float64
			for a := 0; a < dim; a++ {
				for b := 0; b < dim; b++ {
					sum += jinv.D[a][i] * h.D[a][b] * jinv.D[b][j]
				}
			}
			r.D[i][j] = sum
		}
	}
	return
}

func covariantThird(t tensor.Tensor3, jinv tensor.Tensor2) (r tensor.Tensor3) {
	var (
		dim = jinv.Dim
	)
	r.Dim = dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				var sum float64
				for a := 0; a < dim; a++ {
					for b := 0; b < dim; b++ {
						for c := 0; c < dim; c++ {
							sum += jinv.D[a][i] * jinv.D[b][j] * jinv.D[c][k] * t.D[a][b][c]
						}
					}
				}
				r.D[i][j][k] = sum
			}
		}
	}
	return
}

// correctHessians subtracts the mapping-curvature term
// Σ_k grad_k · Jpfg[k][i][j] from every pushed-forward hessian.
func correctHessians(out *ShapeOutput, mapOut *MappingOutput) {
	for r := range out.Hessians {
		for q := range out.Hessians[r] {
			var (
				g    = out.Gradients[r][q]
				jpfg = mapOut.JacobianPushedForwardGrads[q]
				dim  = g.Dim
			)
			for i := 0; i < dim; i++ {
				for j := 0; j < dim; j++ {
					var sum float64
					for k := 0; k < dim; k++ {
						sum += g.D[k] * jpfg.D[k][i][j]
					}
					out.Hessians[r][q].D[i][j] -= sum
				}
			}
		}
	}
}

// correctThirdDerivatives subtracts the gradient term against the
// pushed-forward second derivative and the three hessian terms against the
// pushed-forward gradient.
func correctThirdDerivatives(out *ShapeOutput, mapOut *MappingOutput) {
	for r := range out.ThirdDerivatives {
		for q := range out.ThirdDerivatives[r] {
			var (
				g    = out.Gradients[r][q]
				h    = out.Hessians[r][q]
				jpfg = mapOut.JacobianPushedForwardGrads[q]
				dim  = g.Dim
			)
			for i := 0; i < dim; i++ {
				for j := 0; j < dim; j++ {
					for k := 0; k < dim; k++ {
						var sum float64
						for l := 0; l < dim; l++ {
							if len(mapOut.JacobianPushedForward2nds) != 0 {
								sum += g.D[l] * mapOut.JacobianPushedForward2nds[q].D[l][i][j][k]
							}
							sum += h.D[l][i] * jpfg.D[l][j][k]
							sum += h.D[l][j] * jpfg.D[l][i][k]
							sum += h.D[l][k] * jpfg.D[l][i][j]
						}
						out.ThirdDerivatives[r][q].D[i][j][k] -= sum
					}
				}
			}
		}
	}
}

// shapeRequiresUpdateFlags is the requirement declaration shared by the
// covariant-transforming elements.
func shapeRequiresUpdateFlags(requested UpdateFlags) (needed UpdateFlags) {
	if requested.Has(UpdateValues) {
		needed |= UpdateValues
	}
	if requested.Has(UpdateGradients) {
		needed |= UpdateGradients | UpdateInverseJacobians
	}
	if requested.Has(UpdateHessians) {
		needed |= UpdateHessians | UpdateGradients | UpdateInverseJacobians |
			UpdateJacobianPushedForwardGrads
	}
	if requested.Has(UpdateThirdDerivatives) {
		needed |= UpdateThirdDerivatives | UpdateHessians | UpdateGradients |
			UpdateInverseJacobians | UpdateJacobianPushedForwardGrads |
			UpdateJacobianPushedForward2ndDerivatives
	}
	return
}
