package fe

import (
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
)

// CellSimilarity classifies the geometric relationship between the cell
// being reinitialized and the previously visited one, so that mapping
// quantities invariant under the relationship can be reused.
type CellSimilarity uint8

const (
	SimilarityNone CellSimilarity = iota
	SimilarityTranslation
	SimilarityIdentical
)

func (s CellSimilarity) String() string {
	switch s {
	case SimilarityTranslation:
		return "translation"
	case SimilarityIdentical:
		return "identical"
	}
	return "none"
}

// MappingOutput holds the geometric quantities a mapping computes at every
// quadrature point of the current cell, face or subface. Which slices are
// populated is governed by the resolved update flags; the rest stay nil.
type MappingOutput struct {
	QuadraturePoints []tensor.Vec
	JxW              []float64
	Jacobians        []tensor.Tensor2
	InverseJacobians []tensor.Tensor2

	JacobianGrads              []tensor.Tensor3
	JacobianPushedForwardGrads []tensor.Tensor3
	Jacobian2ndDerivatives     []tensor.Tensor4
	JacobianPushedForward2nds  []tensor.Tensor4
	Jacobian3rdDerivatives     []tensor.Tensor5
	JacobianPushedForward3rds  []tensor.Tensor5

	NormalVectors []tensor.Vec
	BoundaryForms []tensor.Vec
}

// NewMappingOutput allocates the tables selected by flags for nq
// quadrature points.
func NewMappingOutput(flags UpdateFlags, nq int) (out *MappingOutput) {
	out = &MappingOutput{}
	if flags.Has(UpdateQuadraturePoints) {
		out.QuadraturePoints = make([]tensor.Vec, nq)
	}
	if flags.Has(UpdateJxW) {
		out.JxW = make([]float64, nq)
	}
	if flags.Has(UpdateJacobians) {
		out.Jacobians = make([]tensor.Tensor2, nq)
	}
	if flags.Has(UpdateInverseJacobians) {
		out.InverseJacobians = make([]tensor.Tensor2, nq)
	}
	if flags.Has(UpdateJacobianGrads) {
		out.JacobianGrads = make([]tensor.Tensor3, nq)
	}
	if flags.Has(UpdateJacobianPushedForwardGrads) {
		out.JacobianPushedForwardGrads = make([]tensor.Tensor3, nq)
	}
	if flags.Has(UpdateJacobian2ndDerivatives) {
		out.Jacobian2ndDerivatives = make([]tensor.Tensor4, nq)
	}
	if flags.Has(UpdateJacobianPushedForward2ndDerivatives) {
		out.JacobianPushedForward2nds = make([]tensor.Tensor4, nq)
	}
	if flags.Has(UpdateJacobian3rdDerivatives) {
		out.Jacobian3rdDerivatives = make([]tensor.Tensor5, nq)
	}
	if flags.Has(UpdateJacobianPushedForward3rdDerivatives) {
		out.JacobianPushedForward3rds = make([]tensor.Tensor5, nq)
	}
	if flags.Has(UpdateNormalVectors) {
		out.NormalVectors = make([]tensor.Vec, nq)
	}
	if flags.Has(UpdateBoundaryForms) {
		out.BoundaryForms = make([]tensor.Vec, nq)
	}
	return
}

// MappingData is the mapping's per-(quadrature rule) internal state,
// produced by GetData and handed back on every fill call. Implementations
// define their own concrete type.
type MappingData interface{}

// Mapping transforms reference-cell quantities to real-cell space. A
// mapping must be reentrant: many evaluation caches may share one mapping
// instance across threads, each with its own MappingData.
type Mapping interface {
	// RequiresUpdateFlags reports the additional flags the mapping needs
	// computed in order to produce the requested ones.
	RequiresUpdateFlags(requested UpdateFlags) UpdateFlags

	// GetCellData precomputes reference-space data for cell evaluation at
	// the given rule's points.
	GetCellData(flags UpdateFlags, g mesh.GeometryType, q *quadrature.Rule) MappingData

	// GetFaceData and GetSubfaceData precompute reference-space data for
	// evaluation on one face, or one isotropic child of one face, with the
	// (dim-1)-dimensional rule given.
	GetFaceData(flags UpdateFlags, g mesh.GeometryType, face int, q *quadrature.Rule) MappingData
	GetSubfaceData(flags UpdateFlags, g mesh.GeometryType, face, subface int, q *quadrature.Rule) MappingData

	// FillCellValues computes the geometric tables for the cell, reusing
	// whatever the reported similarity to the previous cell permits, and
	// returns the similarity actually honored (a mapping may degrade the
	// requested similarity but never upgrade it).
	FillCellValues(cell mesh.Cell, data MappingData, similarity CellSimilarity, out *MappingOutput) CellSimilarity

	// FillFaceValues and FillSubfaceValues are the face/subface analogs.
	// Face loci always recompute; no similarity speedup is attempted.
	FillFaceValues(cell mesh.Cell, face int, data MappingData, out *MappingOutput)
	FillSubfaceValues(cell mesh.Cell, face, subface int, data MappingData, out *MappingOutput)
}
