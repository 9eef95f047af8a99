package fe

import "strings"

// UpdateFlags names the quantities an evaluation cache computes at every
// quadrature point during Reinit. Requesting a derived quantity does not
// require listing its prerequisites: the closure over the mapping's and
// element's declared requirements is computed once at construction.
type UpdateFlags uint32

const (
	UpdateDefault UpdateFlags = 0

	// Shape-function data in real space.
	UpdateValues UpdateFlags = 1 << iota
	UpdateGradients
	UpdateHessians
	UpdateThirdDerivatives

	// Geometric data.
	UpdateQuadraturePoints
	UpdateJxW
	UpdateJacobians
	UpdateInverseJacobians
	UpdateJacobianGrads
	UpdateJacobian2ndDerivatives
	UpdateJacobian3rdDerivatives
	UpdateJacobianPushedForwardGrads
	UpdateJacobianPushedForward2ndDerivatives
	UpdateJacobianPushedForward3rdDerivatives
	UpdateNormalVectors
	UpdateBoundaryForms
)

func (f UpdateFlags) Has(g UpdateFlags) bool { return f&g == g }

func (f UpdateFlags) String() string {
	var (
		names = []struct {
			flag UpdateFlags
			name string
		}{
			{UpdateValues, "values"},
			{UpdateGradients, "gradients"},
			{UpdateHessians, "hessians"},
			{UpdateThirdDerivatives, "third_derivatives"},
			{UpdateQuadraturePoints, "quadrature_points"},
			{UpdateJxW, "JxW"},
			{UpdateJacobians, "jacobians"},
			{UpdateInverseJacobians, "inverse_jacobians"},
			{UpdateJacobianGrads, "jacobian_grads"},
			{UpdateJacobian2ndDerivatives, "jacobian_2nd_derivatives"},
			{UpdateJacobian3rdDerivatives, "jacobian_3rd_derivatives"},
			{UpdateJacobianPushedForwardGrads, "jacobian_pushed_forward_grads"},
			{UpdateJacobianPushedForward2ndDerivatives, "jacobian_pushed_forward_2nd_derivatives"},
			{UpdateJacobianPushedForward3rdDerivatives, "jacobian_pushed_forward_3rd_derivatives"},
			{UpdateNormalVectors, "normal_vectors"},
			{UpdateBoundaryForms, "boundary_forms"},
		}
		set []string
	)
	if f == UpdateDefault {
		return "default"
	}
	for _, n := range names {
		if f.Has(n.flag) {
			set = append(set, n.name)
		}
	}
	return strings.Join(set, "|")
}

// ResolveUpdateFlags iterates the requested flags through the mapping's
// and element's requirement declarations until a fixed point is reached.
// Pure function of its inputs; flags neither collaborator can act on pass
// through unchanged and simply never become available.
func ResolveUpdateFlags(m Mapping, el FiniteElement, requested UpdateFlags) (flags UpdateFlags) {
	flags = requested
	for {
		next := flags | el.RequiresUpdateFlags(flags) | m.RequiresUpdateFlags(flags)
		if next == flags {
			return
		}
		flags = next
	}
}
