package fe

import (
	"fmt"

	"github.com/notargets/gofea/tensor"
)

// The views reinterpret a contiguous band of a vector-valued element's
// components as a scalar, vector, or rank-2 tensor field without copying
// any table data. All per-shape bookkeeping is resolved when the parent
// FEValues is constructed; per-access work on the common single-nonzero-
// component path is a row lookup and a couple of assignments.

// shapeComponentData records, for one shape function seen through one
// view, which of the view's components it acts in and through which
// storage rows.
type shapeComponentData struct {
	// singleNonzero is the fast-path discriminant: -2 when the shape
	// function vanishes on all view components, -1 when it acts in
	// several, otherwise the index (within the view) of its single
	// nonzero component.
	singleNonzero int
	nonzero       []bool
	rows          []int
}

func newShapeComponentData(el FiniteElement, shape, firstComponent, ncomp int) (d shapeComponentData) {
	d = shapeComponentData{
		singleNonzero: -2,
		nonzero:       make([]bool, ncomp),
		rows:          make([]int, ncomp),
	}
	mask := el.NonzeroComponents(shape)
	for c := 0; c < ncomp; c++ {
		d.rows[c] = -1
		if !mask[firstComponent+c] {
			continue
		}
		row, ok := el.ShapeToRow(shape, firstComponent+c)
		if !ok {
			continue
		}
		d.nonzero[c] = true
		d.rows[c] = row
		switch d.singleNonzero {
		case -2:
			d.singleNonzero = c
		default:
			d.singleNonzero = -1
		}
	}
	return
}

type viewsCache struct {
	scalars    []*ScalarView
	vectors    []*VectorView
	symTensors []*SymmetricTensorView
	tensors    []*TensorView
}

func buildViews(fv *FEValues) (vc viewsCache) {
	var (
		ncomp = fv.element.NComponents()
		dim   = fv.element.Dim()
		nsym  = tensor.NSymComponents(dim)
	)
	vc.scalars = make([]*ScalarView, ncomp)
	for c := 0; c < ncomp; c++ {
		vc.scalars[c] = newScalarView(fv, c)
	}
	for first := 0; first+dim <= ncomp; first++ {
		vc.vectors = append(vc.vectors, newVectorView(fv, first))
	}
	for first := 0; first+nsym <= ncomp; first++ {
		vc.symTensors = append(vc.symTensors, newSymmetricTensorView(fv, first))
	}
	for first := 0; first+dim*dim <= ncomp; first++ {
		vc.tensors = append(vc.tensors, newTensorView(fv, first))
	}
	return
}

// Scalar returns the view onto a single component of the element.
func (fv *FEValues) Scalar(component int) *ScalarView {
	if component < 0 || component >= len(fv.views.scalars) {
		panic(fmt.Errorf("%w: scalar view of component %d, element has %d components",
			ErrIndexRange, component, fv.element.NComponents()))
	}
	return fv.views.scalars[component]
}

// Vector returns the view onto dim consecutive components starting at
// firstComponent, reinterpreted as one vector field.
func (fv *FEValues) Vector(firstComponent int) *VectorView {
	if firstComponent < 0 || firstComponent >= len(fv.views.vectors) {
		panic(fmt.Errorf("%w: vector view starting at component %d does not fit in %d components",
			ErrIndexRange, firstComponent, fv.element.NComponents()))
	}
	return fv.views.vectors[firstComponent]
}

// SymmetricTensor returns the view onto the unrolled components of a
// symmetric rank-2 tensor field starting at firstComponent.
func (fv *FEValues) SymmetricTensor(firstComponent int) *SymmetricTensorView {
	if firstComponent < 0 || firstComponent >= len(fv.views.symTensors) {
		panic(fmt.Errorf("%w: symmetric tensor view starting at component %d does not fit in %d components",
			ErrIndexRange, firstComponent, fv.element.NComponents()))
	}
	return fv.views.symTensors[firstComponent]
}

// Tensor returns the view onto the row-major unrolled components of a
// general rank-2 tensor field starting at firstComponent.
func (fv *FEValues) Tensor(firstComponent int) *TensorView {
	if firstComponent < 0 || firstComponent >= len(fv.views.tensors) {
		panic(fmt.Errorf("%w: tensor view starting at component %d does not fit in %d components",
			ErrIndexRange, firstComponent, fv.element.NComponents()))
	}
	return fv.views.tensors[firstComponent]
}

// --- scalar view ------------------------------------------------------

type ScalarView struct {
	fv        *FEValues
	component int
	shapes    []shapeComponentData
}

func newScalarView(fv *FEValues, component int) (v *ScalarView) {
	v = &ScalarView{fv: fv, component: component}
	n := fv.element.NDofsPerCell()
	v.shapes = make([]shapeComponentData, n)
	for i := 0; i < n; i++ {
		v.shapes[i] = newShapeComponentData(fv.element, i, component, 1)
	}
	return
}

func (v *ScalarView) Component() int { return v.component }

// Value returns the view component of shape function i at point q, zero
// when the shape function does not act in it.
func (v *ScalarView) Value(i, q int) float64 {
	v.fv.checkFlag(UpdateValues, "ScalarView.Value")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	if v.shapes[i].singleNonzero == -2 {
		return 0
	}
	return v.fv.shapeOut.Values.At(v.shapes[i].rows[0], q)
}

func (v *ScalarView) Gradient(i, q int) tensor.Vec {
	v.fv.checkFlag(UpdateGradients, "ScalarView.Gradient")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	if v.shapes[i].singleNonzero == -2 {
		return tensor.Vec{Dim: v.fv.element.Dim()}
	}
	return v.fv.shapeOut.Gradients[v.shapes[i].rows[0]][q]
}

func (v *ScalarView) Hessian(i, q int) tensor.Tensor2 {
	v.fv.checkFlag(UpdateHessians, "ScalarView.Hessian")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	if v.shapes[i].singleNonzero == -2 {
		return tensor.Tensor2{Dim: v.fv.element.Dim()}
	}
	return v.fv.shapeOut.Hessians[v.shapes[i].rows[0]][q]
}

func (v *ScalarView) ThirdDerivative(i, q int) tensor.Tensor3 {
	v.fv.checkFlag(UpdateThirdDerivatives, "ScalarView.ThirdDerivative")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	if v.shapes[i].singleNonzero == -2 {
		return tensor.Tensor3{Dim: v.fv.element.Dim()}
	}
	return v.fv.shapeOut.ThirdDerivatives[v.shapes[i].rows[0]][q]
}

// FunctionValuesFromLocal interpolates the view component of the field
// given by per-cell coefficients.
func (v *ScalarView) FunctionValuesFromLocal(local []float64) (vals []float64) {
	v.fv.checkFlag(UpdateValues, "ScalarView.FunctionValues")
	v.fv.checkInited()
	v.fv.checkLocal(local)
	vals = make([]float64, v.fv.quad.NPoints())
	for i, coeff := range local {
		if coeff == 0 || v.shapes[i].singleNonzero == -2 {
			continue
		}
		row := v.shapes[i].rows[0]
		for q := range vals {
			vals[q] += coeff * v.fv.shapeOut.Values.At(row, q)
		}
	}
	return
}

func (v *ScalarView) FunctionValues(global []float64) []float64 {
	return v.FunctionValuesFromLocal(v.fv.localFromGlobal(global))
}

func (v *ScalarView) FunctionGradientsFromLocal(local []float64) (grads []tensor.Vec) {
	v.fv.checkFlag(UpdateGradients, "ScalarView.FunctionGradients")
	v.fv.checkInited()
	v.fv.checkLocal(local)
	var (
		dim = v.fv.element.Dim()
	)
	grads = make([]tensor.Vec, v.fv.quad.NPoints())
	for q := range grads {
		grads[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 || v.shapes[i].singleNonzero == -2 {
			continue
		}
		row := v.shapes[i].rows[0]
		for q := range grads {
			grads[q] = grads[q].Add(v.fv.shapeOut.Gradients[row][q].Scale(coeff))
		}
	}
	return
}

func (v *ScalarView) FunctionGradients(global []float64) []tensor.Vec {
	return v.FunctionGradientsFromLocal(v.fv.localFromGlobal(global))
}

// --- vector view ------------------------------------------------------

type VectorView struct {
	fv             *FEValues
	firstComponent int
	shapes         []shapeComponentData
}

func newVectorView(fv *FEValues, firstComponent int) (v *VectorView) {
	v = &VectorView{fv: fv, firstComponent: firstComponent}
	var (
		n   = fv.element.NDofsPerCell()
		dim = fv.element.Dim()
	)
	v.shapes = make([]shapeComponentData, n)
	for i := 0; i < n; i++ {
		v.shapes[i] = newShapeComponentData(fv.element, i, firstComponent, dim)
	}
	return
}

func (v *VectorView) FirstComponent() int { return v.firstComponent }

func (v *VectorView) Value(i, q int) (val tensor.Vec) {
	v.fv.checkFlag(UpdateValues, "VectorView.Value")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	val.Dim = dim
	switch sd.singleNonzero {
	case -2:
	case -1:
		for c := 0; c < dim; c++ {
			if sd.nonzero[c] {
				val.D[c] = v.fv.shapeOut.Values.At(sd.rows[c], q)
			}
		}
	default:
		c := sd.singleNonzero
		val.D[c] = v.fv.shapeOut.Values.At(sd.rows[c], q)
	}
	return
}

// Gradient returns the rank-2 gradient of shape function i at point q;
// row c holds the gradient of the c-th view component.
func (v *VectorView) Gradient(i, q int) (g tensor.Tensor2) {
	v.fv.checkFlag(UpdateGradients, "VectorView.Gradient")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	g.Dim = dim
	switch sd.singleNonzero {
	case -2:
	case -1:
		for c := 0; c < dim; c++ {
			if !sd.nonzero[c] {
				continue
			}
			gc := v.fv.shapeOut.Gradients[sd.rows[c]][q]
			for d := 0; d < dim; d++ {
				g.D[c][d] = gc.D[d]
			}
		}
	default:
		c := sd.singleNonzero
		gc := v.fv.shapeOut.Gradients[sd.rows[c]][q]
		for d := 0; d < dim; d++ {
			g.D[c][d] = gc.D[d]
		}
	}
	return
}

// SymmetricGradient returns (grad + grad^T)/2 of shape function i. A
// shape nonzero in a single component c needs no full symmetrization:
// the result is (e_c tensor g + g tensor e_c)/2 for the scalar
// gradient g of that component.
func (v *VectorView) SymmetricGradient(i, q int) (s tensor.Tensor2) {
	v.fv.checkFlag(UpdateGradients, "VectorView.SymmetricGradient")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	s.Dim = dim
	switch sd.singleNonzero {
	case -2:
	case -1:
		s = v.Gradient(i, q).Symmetrize()
	default:
		c := sd.singleNonzero
		gc := v.fv.shapeOut.Gradients[sd.rows[c]][q]
		for d := 0; d < dim; d++ {
			half := 0.5 * gc.D[d]
			s.D[c][d] += half
			s.D[d][c] += half
		}
	}
	return
}

// Divergence returns the trace of the gradient of shape function i.
func (v *VectorView) Divergence(i, q int) float64 {
	v.fv.checkFlag(UpdateGradients, "VectorView.Divergence")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
		div float64
	)
	switch sd.singleNonzero {
	case -2:
	case -1:
		for c := 0; c < dim; c++ {
			if sd.nonzero[c] {
				div += v.fv.shapeOut.Gradients[sd.rows[c]][q].D[c]
			}
		}
	default:
		c := sd.singleNonzero
		div = v.fv.shapeOut.Gradients[sd.rows[c]][q].D[c]
	}
	return div
}

// Curl returns the curl of shape function i at point q. In 2D the result
// has one component, dv_y/dx - dv_x/dy; in 3D it is the usual
// three-component curl. No 1D curl exists.
func (v *VectorView) Curl(i, q int) (curl tensor.Vec) {
	v.fv.checkFlag(UpdateGradients, "VectorView.Curl")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	dim := v.fv.element.Dim()
	if dim < 2 {
		panic(fmt.Errorf("%w: curl of a %d-dimensional field", ErrCurlUndefined, dim))
	}
	g := v.Gradient(i, q)
	if dim == 2 {
		curl.Dim = 1
		curl.D[0] = g.D[1][0] - g.D[0][1]
		return
	}
	curl.Dim = 3
	curl.D[0] = g.D[2][1] - g.D[1][2]
	curl.D[1] = g.D[0][2] - g.D[2][0]
	curl.D[2] = g.D[1][0] - g.D[0][1]
	return
}

func (v *VectorView) Hessian(i, q int) (h tensor.Tensor3) {
	v.fv.checkFlag(UpdateHessians, "VectorView.Hessian")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	h.Dim = dim
	copyHc := func(c int) {
		hc := v.fv.shapeOut.Hessians[sd.rows[c]][q]
		for a := 0; a < dim; a++ {
			for b := 0; b < dim; b++ {
				h.D[c][a][b] = hc.D[a][b]
			}
		}
	}
	switch sd.singleNonzero {
	case -2:
	case -1:
		for c := 0; c < dim; c++ {
			if sd.nonzero[c] {
				copyHc(c)
			}
		}
	default:
		copyHc(sd.singleNonzero)
	}
	return
}

func (v *VectorView) ThirdDerivative(i, q int) (t tensor.Tensor4) {
	v.fv.checkFlag(UpdateThirdDerivatives, "VectorView.ThirdDerivative")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	t.Dim = dim
	copyTc := func(c int) {
		tc := v.fv.shapeOut.ThirdDerivatives[sd.rows[c]][q]
		for a := 0; a < dim; a++ {
			for b := 0; b < dim; b++ {
				for e := 0; e < dim; e++ {
					t.D[c][a][b][e] = tc.D[a][b][e]
				}
			}
		}
	}
	switch sd.singleNonzero {
	case -2:
	case -1:
		for c := 0; c < dim; c++ {
			if sd.nonzero[c] {
				copyTc(c)
			}
		}
	default:
		copyTc(sd.singleNonzero)
	}
	return
}

// FunctionValuesFromLocal interpolates the vector field given by per-cell
// coefficients at every quadrature point.
func (v *VectorView) FunctionValuesFromLocal(local []float64) (vals []tensor.Vec) {
	v.fv.checkFlag(UpdateValues, "VectorView.FunctionValues")
	v.fv.checkInited()
	v.fv.checkLocal(local)
	var (
		dim = v.fv.element.Dim()
		nq  = v.fv.quad.NPoints()
	)
	vals = make([]tensor.Vec, nq)
	for q := range vals {
		vals[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		sd := &v.shapes[i]
		if sd.singleNonzero == -2 {
			continue
		}
		for c := 0; c < dim; c++ {
			if !sd.nonzero[c] {
				continue
			}
			for q := 0; q < nq; q++ {
				vals[q].D[c] += coeff * v.fv.shapeOut.Values.At(sd.rows[c], q)
			}
		}
	}
	return
}

func (v *VectorView) FunctionValues(global []float64) []tensor.Vec {
	return v.FunctionValuesFromLocal(v.fv.localFromGlobal(global))
}

func (v *VectorView) FunctionGradientsFromLocal(local []float64) (grads []tensor.Tensor2) {
	v.fv.checkFlag(UpdateGradients, "VectorView.FunctionGradients")
	v.fv.checkInited()
	v.fv.checkLocal(local)
	var (
		dim = v.fv.element.Dim()
		nq  = v.fv.quad.NPoints()
	)
	grads = make([]tensor.Tensor2, nq)
	for q := range grads {
		grads[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		sd := &v.shapes[i]
		if sd.singleNonzero == -2 {
			continue
		}
		for c := 0; c < dim; c++ {
			if !sd.nonzero[c] {
				continue
			}
			for q := 0; q < nq; q++ {
				g := v.fv.shapeOut.Gradients[sd.rows[c]][q]
				for d := 0; d < dim; d++ {
					grads[q].D[c][d] += coeff * g.D[d]
				}
			}
		}
	}
	return
}

func (v *VectorView) FunctionGradients(global []float64) []tensor.Tensor2 {
	return v.FunctionGradientsFromLocal(v.fv.localFromGlobal(global))
}

func (v *VectorView) FunctionDivergencesFromLocal(local []float64) (divs []float64) {
	grads := v.FunctionGradientsFromLocal(local)
	divs = make([]float64, len(grads))
	for q, g := range grads {
		divs[q] = g.Trace()
	}
	return
}

// --- symmetric tensor view --------------------------------------------

// SymmetricTensorView reinterprets NSymComponents(dim) consecutive
// components as the unrolled entries of a symmetric rank-2 tensor field,
// diagonal entries first.
type SymmetricTensorView struct {
	fv             *FEValues
	firstComponent int
	shapes         []shapeComponentData
}

func newSymmetricTensorView(fv *FEValues, firstComponent int) (v *SymmetricTensorView) {
	v = &SymmetricTensorView{fv: fv, firstComponent: firstComponent}
	var (
		n    = fv.element.NDofsPerCell()
		nsym = tensor.NSymComponents(fv.element.Dim())
	)
	v.shapes = make([]shapeComponentData, n)
	for i := 0; i < n; i++ {
		v.shapes[i] = newShapeComponentData(fv.element, i, firstComponent, nsym)
	}
	return
}

func (v *SymmetricTensorView) FirstComponent() int { return v.firstComponent }

func (v *SymmetricTensorView) Value(i, q int) (val tensor.Tensor2) {
	v.fv.checkFlag(UpdateValues, "SymmetricTensorView.Value")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim  = v.fv.element.Dim()
		nsym = tensor.NSymComponents(dim)
		sd   = &v.shapes[i]
	)
	val.Dim = dim
	if sd.singleNonzero == -2 {
		return
	}
	for u := 0; u < nsym; u++ {
		if !sd.nonzero[u] {
			continue
		}
		a, b := tensor.SymUnrolledToIndices(dim, u)
		x := v.fv.shapeOut.Values.At(sd.rows[u], q)
		val.D[a][b] = x
		val.D[b][a] = x
	}
	return
}

// Divergence returns the vector (div T)_a = sum_b dT_ab/dx_b of shape
// function i.
func (v *SymmetricTensorView) Divergence(i, q int) (div tensor.Vec) {
	v.fv.checkFlag(UpdateGradients, "SymmetricTensorView.Divergence")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim  = v.fv.element.Dim()
		nsym = tensor.NSymComponents(dim)
		sd   = &v.shapes[i]
	)
	div.Dim = dim
	if sd.singleNonzero == -2 {
		return
	}
	for u := 0; u < nsym; u++ {
		if !sd.nonzero[u] {
			continue
		}
		a, b := tensor.SymUnrolledToIndices(dim, u)
		g := v.fv.shapeOut.Gradients[sd.rows[u]][q]
		div.D[a] += g.D[b]
		if a != b {
			div.D[b] += g.D[a]
		}
	}
	return
}

func (v *SymmetricTensorView) FunctionValuesFromLocal(local []float64) (vals []tensor.Tensor2) {
	v.fv.checkFlag(UpdateValues, "SymmetricTensorView.FunctionValues")
	v.fv.checkInited()
	v.fv.checkLocal(local)
	var (
		dim = v.fv.element.Dim()
		nq  = v.fv.quad.NPoints()
	)
	vals = make([]tensor.Tensor2, nq)
	for q := range vals {
		vals[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 || v.shapes[i].singleNonzero == -2 {
			continue
		}
		for q := 0; q < nq; q++ {
			vals[q] = vals[q].Add(v.Value(i, q).Scale(coeff))
		}
	}
	return
}

// --- general tensor view ----------------------------------------------

// TensorView reinterprets dim*dim consecutive components as the row-major
// unrolled entries of a general rank-2 tensor field.
type TensorView struct {
	fv             *FEValues
	firstComponent int
	shapes         []shapeComponentData
}

func newTensorView(fv *FEValues, firstComponent int) (v *TensorView) {
	v = &TensorView{fv: fv, firstComponent: firstComponent}
	var (
		n   = fv.element.NDofsPerCell()
		dim = fv.element.Dim()
	)
	v.shapes = make([]shapeComponentData, n)
	for i := 0; i < n; i++ {
		v.shapes[i] = newShapeComponentData(fv.element, i, firstComponent, dim*dim)
	}
	return
}

func (v *TensorView) FirstComponent() int { return v.firstComponent }

func (v *TensorView) Value(i, q int) (val tensor.Tensor2) {
	v.fv.checkFlag(UpdateValues, "TensorView.Value")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	val.Dim = dim
	if sd.singleNonzero == -2 {
		return
	}
	for u := 0; u < dim*dim; u++ {
		if !sd.nonzero[u] {
			continue
		}
		a, b := tensor.UnrolledToIndices(dim, u)
		val.D[a][b] = v.fv.shapeOut.Values.At(sd.rows[u], q)
	}
	return
}

func (v *TensorView) Divergence(i, q int) (div tensor.Vec) {
	v.fv.checkFlag(UpdateGradients, "TensorView.Divergence")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	div.Dim = dim
	if sd.singleNonzero == -2 {
		return
	}
	for u := 0; u < dim*dim; u++ {
		if !sd.nonzero[u] {
			continue
		}
		a, b := tensor.UnrolledToIndices(dim, u)
		div.D[a] += v.fv.shapeOut.Gradients[sd.rows[u]][q].D[b]
	}
	return
}

// Gradient returns the rank-3 gradient, index order (row, col, deriv).
func (v *TensorView) Gradient(i, q int) (g tensor.Tensor3) {
	v.fv.checkFlag(UpdateGradients, "TensorView.Gradient")
	v.fv.checkInited()
	v.fv.checkShapeQ(i, q)
	var (
		dim = v.fv.element.Dim()
		sd  = &v.shapes[i]
	)
	g.Dim = dim
	if sd.singleNonzero == -2 {
		return
	}
	for u := 0; u < dim*dim; u++ {
		if !sd.nonzero[u] {
			continue
		}
		a, b := tensor.UnrolledToIndices(dim, u)
		gc := v.fv.shapeOut.Gradients[sd.rows[u]][q]
		for d := 0; d < dim; d++ {
			g.D[a][b][d] = gc.D[d]
		}
	}
	return
}
