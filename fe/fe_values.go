package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// locusKind selects which reinit-dispatch path an evaluation cache
// executes: cell interior, face, or subface. The locus is fixed at
// construction, an enum discriminant rather than a class hierarchy.
type locusKind uint8

const (
	locusCell locusKind = iota
	locusFace
	locusSubface
)

// FEValues is the evaluation cache at the heart of assembly: constructed
// once per (mapping, element, quadrature, flags) combination, then
// reinitialized once per visited cell/face/subface. Reinit overwrites all
// internal tables; values previously obtained from accessors that return
// live table data must not be retained across it.
//
// One FEValues instance serves one goroutine. The mapping and element it
// references are read-only shared collaborators and must outlive it.
type FEValues struct {
	mapping Mapping
	element FiniteElement
	quad    *quadrature.Rule
	flags   UpdateFlags
	locus   locusKind

	// per-locus precomputed reference data: cell locus has one entry,
	// face locus one per face, subface locus one per (face, subface)
	mapData []MappingData
	elData  []*ElementData

	mapOut   *MappingOutput
	shapeOut *ShapeOutput

	// row of each primitive shape function's single nonzero component,
	// -1 for non-primitive shapes
	shapeRows []int

	views viewsCache

	dofs *mesh.DoFLayout

	cell       mesh.Cell
	faceNo     int
	subfaceNo  int
	epoch      uint64
	inited     bool
	prevVerts  []tensor.Vec
	similarity CellSimilarity
}

// NewFEValues builds a cell-interior evaluation cache. The rule must live
// on the element's reference cell. Construction resolves the update-flag
// closure, evaluates all reference-cell shape data, and builds the views
// cache; these costs are amortized over every subsequent Reinit.
func NewFEValues(m Mapping, el FiniteElement, q *quadrature.Rule, requested UpdateFlags) (fv *FEValues) {
	if q.Dim != el.Dim() {
		panic(fmt.Errorf("quadrature dimension %d does not match element dimension %d",
			q.Dim, el.Dim()))
	}
	if requested.Has(UpdateNormalVectors) || requested.Has(UpdateBoundaryForms) {
		panic(fmt.Errorf("normal vectors and boundary forms are face quantities, use NewFEFaceValues"))
	}
	fv = newFEValuesCommon(m, el, q, requested, locusCell)
	fv.mapData = []MappingData{m.GetCellData(fv.flags, el.Geometry(), q)}
	fv.elData = []*ElementData{el.GetData(fv.flags, q)}
	return
}

// NewFEFaceValues builds a face evaluation cache; the rule lives on the
// (dim-1)-dimensional reference face. Reference data is precomputed for
// every face of the cell at construction.
func NewFEFaceValues(m Mapping, el FiniteElement, faceQ *quadrature.Rule, requested UpdateFlags) (fv *FEValues) {
	checkFaceRule(el, faceQ)
	fv = newFEValuesCommon(m, el, faceQ, requested, locusFace)
	var (
		g      = el.Geometry()
		nfaces = g.NFaces()
	)
	fv.mapData = make([]MappingData, nfaces)
	fv.elData = make([]*ElementData, nfaces)
	for f := 0; f < nfaces; f++ {
		fv.mapData[f] = m.GetFaceData(fv.flags, g, f, faceQ)
		fv.elData[f] = el.GetData(fv.flags, projectFaceRule(g, f, faceQ))
	}
	return
}

// NewFESubfaceValues is the subface analog of NewFEFaceValues: reference
// data is precomputed for every isotropic child of every face.
func NewFESubfaceValues(m Mapping, el FiniteElement, faceQ *quadrature.Rule, requested UpdateFlags) (fv *FEValues) {
	checkFaceRule(el, faceQ)
	var (
		g    = el.Geometry()
		nsub = g.NSubfaces()
	)
	if nsub == 0 {
		panic(fmt.Errorf("geometry %v has no subfaces", g))
	}
	fv = newFEValuesCommon(m, el, faceQ, requested, locusSubface)
	nfaces := g.NFaces()
	fv.mapData = make([]MappingData, nfaces*nsub)
	fv.elData = make([]*ElementData, nfaces*nsub)
	for f := 0; f < nfaces; f++ {
		for s := 0; s < nsub; s++ {
			fv.mapData[f*nsub+s] = m.GetSubfaceData(fv.flags, g, f, s, faceQ)
			fv.elData[f*nsub+s] = el.GetData(fv.flags, projectSubfaceRule(g, f, s, faceQ))
		}
	}
	return
}

func newFEValuesCommon(m Mapping, el FiniteElement, q *quadrature.Rule,
	requested UpdateFlags, locus locusKind) (fv *FEValues) {
	var (
		flags = ResolveUpdateFlags(m, el, requested)
		nq    = q.NPoints()
	)
	fv = &FEValues{
		mapping:  m,
		element:  el,
		quad:     q,
		flags:    flags,
		locus:    locus,
		mapOut:   NewMappingOutput(flags, nq),
		shapeOut: NewShapeOutput(flags, el.NRows(), nq),
	}
	fv.shapeRows = make([]int, el.NDofsPerCell())
	for i := range fv.shapeRows {
		fv.shapeRows[i] = -1
		if el.IsPrimitiveShape(i) {
			comp, _ := el.SystemToComponentIndex(i)
			if row, ok := el.ShapeToRow(i, comp); ok {
				fv.shapeRows[i] = row
			}
		}
	}
	fv.views = buildViews(fv)
	return
}

func checkFaceRule(el FiniteElement, faceQ *quadrature.Rule) {
	if faceQ.Dim != el.Dim()-1 {
		panic(fmt.Errorf("face quadrature dimension %d does not match element face dimension %d",
			faceQ.Dim, el.Dim()-1))
	}
}

// projectFaceRule lifts a face rule's points into cell reference
// coordinates; weights carry over unchanged (only the mapping consumes
// them, via the boundary form).
func projectFaceRule(g mesh.GeometryType, face int, faceQ *quadrature.Rule) (q *quadrature.Rule) {
	var (
		center, t1, t2 = referenceFaceFrame(g, face)
		dim            = g.Dim()
		nq             = faceQ.NPoints()
		P              = utils.NewMatrix(nq, dim)
	)
	for i := 0; i < nq; i++ {
		u := faceQ.Point(i)
		pt := center.Add(t1.Scale(u.D[0]))
		if dim == 3 {
			pt = pt.Add(t2.Scale(u.D[1]))
		}
		for d := 0; d < dim; d++ {
			P.Set(i, d, pt.D[d])
		}
	}
	q = &quadrature.Rule{Dim: dim, Points: P, Weights: faceQ.Weights}
	return
}

func projectSubfaceRule(g mesh.GeometryType, face, subface int, faceQ *quadrature.Rule) (q *quadrature.Rule) {
	var (
		center, t1, t2 = referenceFaceFrame(g, face)
		off            = subfaceOffsets(g, subface)
		dim            = g.Dim()
		nq             = faceQ.NPoints()
		P              = utils.NewMatrix(nq, dim)
	)
	for i := 0; i < nq; i++ {
		u := faceQ.Point(i)
		pt := center.Add(t1.Scale(0.5*u.D[0] + off[0]))
		if dim == 3 {
			pt = pt.Add(t2.Scale(0.5*u.D[1] + off[1]))
		}
		for d := 0; d < dim; d++ {
			P.Set(i, d, pt.D[d])
		}
	}
	q = &quadrature.Rule{Dim: dim, Points: P, Weights: faceQ.Weights}
	return
}

// --- reinitialization -------------------------------------------------

// Reinit points the cache at a new cell and recomputes all per-cell
// tables transformed to its real geometry.
func (fv *FEValues) Reinit(cell mesh.Cell) {
	if fv.locus != locusCell {
		panic(fmt.Errorf("this cache was built for face evaluation, use ReinitFace/ReinitSubface"))
	}
	fv.checkCell(cell)
	sim := fv.computeSimilarity(cell)
	sim = fv.mapping.FillCellValues(cell, fv.mapData[0], sim, fv.mapOut)
	fv.element.FillValues(fv.elData[0], fv.mapOut, sim, fv.shapeOut)
	fv.finishReinit(cell, -1, -1, sim)
}

// ReinitFace points the cache at face faceNo of the cell.
func (fv *FEValues) ReinitFace(cell mesh.Cell, faceNo int) {
	if fv.locus != locusFace {
		panic(fmt.Errorf("this cache was not built for face evaluation"))
	}
	fv.checkCell(cell)
	if faceNo < 0 || faceNo >= cell.Geometry().NFaces() {
		panic(fmt.Errorf("%w: face %d, geometry %v has %d faces",
			ErrIndexRange, faceNo, cell.Geometry(), cell.Geometry().NFaces()))
	}
	fv.mapping.FillFaceValues(cell, faceNo, fv.mapData[faceNo], fv.mapOut)
	fv.element.FillValues(fv.elData[faceNo], fv.mapOut, SimilarityNone, fv.shapeOut)
	fv.finishReinit(cell, faceNo, -1, SimilarityNone)
}

// ReinitSubface points the cache at child subfaceNo of face faceNo.
func (fv *FEValues) ReinitSubface(cell mesh.Cell, faceNo, subfaceNo int) {
	if fv.locus != locusSubface {
		panic(fmt.Errorf("this cache was not built for subface evaluation"))
	}
	fv.checkCell(cell)
	var (
		g    = cell.Geometry()
		nsub = g.NSubfaces()
	)
	if faceNo < 0 || faceNo >= g.NFaces() {
		panic(fmt.Errorf("%w: face %d, geometry %v has %d faces",
			ErrIndexRange, faceNo, g, g.NFaces()))
	}
	if subfaceNo < 0 || subfaceNo >= nsub {
		panic(fmt.Errorf("%w: subface %d, geometry %v has %d subfaces",
			ErrIndexRange, subfaceNo, g, nsub))
	}
	idx := faceNo*nsub + subfaceNo
	fv.mapping.FillSubfaceValues(cell, faceNo, subfaceNo, fv.mapData[idx], fv.mapOut)
	fv.element.FillValues(fv.elData[idx], fv.mapOut, SimilarityNone, fv.shapeOut)
	fv.finishReinit(cell, faceNo, subfaceNo, SimilarityNone)
}

func (fv *FEValues) checkCell(cell mesh.Cell) {
	if !cell.Valid() {
		panic(fmt.Errorf("%w: invalid cell handle", ErrFEMismatch))
	}
	if cell.Geometry() != fv.element.Geometry() {
		panic(fmt.Errorf("%w: cell geometry %v, element %s is defined on %v",
			ErrFEMismatch, cell.Geometry(), fv.element.Name(), fv.element.Geometry()))
	}
	if fv.dofs != nil && len(fv.dofs.CellIndices(cell)) != fv.element.NDofsPerCell() {
		panic(fmt.Errorf("%w: DoF layout provides %d indices per cell, element %s has %d",
			ErrFEMismatch, len(fv.dofs.CellIndices(cell)), fv.element.Name(),
			fv.element.NDofsPerCell()))
	}
}

// computeSimilarity revalidates the cached present-cell state against the
// mesh epoch before comparing vertices: any mutation of the triangulation
// since the last Reinit invalidates the previous cell handle outright.
func (fv *FEValues) computeSimilarity(cell mesh.Cell) CellSimilarity {
	if !fv.inited || fv.cell.Mesh != cell.Mesh || fv.epoch != cell.Mesh.Epoch() {
		return SimilarityNone
	}
	return ComputeCellSimilarity(cell, fv.prevVerts)
}

func (fv *FEValues) finishReinit(cell mesh.Cell, faceNo, subfaceNo int, sim CellSimilarity) {
	fv.cell = cell
	fv.faceNo = faceNo
	fv.subfaceNo = subfaceNo
	fv.epoch = cell.Mesh.Epoch()
	fv.similarity = sim
	fv.inited = true
	if fv.prevVerts == nil {
		fv.prevVerts = make([]tensor.Vec, cell.NVertices())
	}
	for v := 0; v < cell.NVertices(); v++ {
		fv.prevVerts[v] = cell.Vertex(v)
	}
}

// --- introspection ----------------------------------------------------

func (fv *FEValues) Element() FiniteElement       { return fv.element }
func (fv *FEValues) GetMapping() Mapping          { return fv.mapping }
func (fv *FEValues) Quadrature() *quadrature.Rule { return fv.quad }
func (fv *FEValues) NQuadraturePoints() int       { return fv.quad.NPoints() }
func (fv *FEValues) UpdateFlagsSet() UpdateFlags  { return fv.flags }
func (fv *FEValues) DofsPerCell() int             { return fv.element.NDofsPerCell() }

// CellSimilarity reports the similarity classification honored by the
// most recent Reinit.
func (fv *FEValues) CellSimilarity() CellSimilarity { return fv.similarity }

// PresentCell returns the cell of the most recent Reinit.
func (fv *FEValues) PresentCell() mesh.Cell {
	fv.checkInited()
	return fv.cell
}

// SetDoFLayout attaches the DoF collaborator used by the global
// GetFunction* family. The layout's per-cell index count must match the
// element, checked on every Reinit.
func (fv *FEValues) SetDoFLayout(d *mesh.DoFLayout) { fv.dofs = d }

func (fv *FEValues) checkInited() {
	if !fv.inited {
		panic(fmt.Errorf("%w: call Reinit first", ErrNotReinited))
	}
}

func (fv *FEValues) checkFlag(f UpdateFlags, what string) {
	if !fv.flags.Has(f) {
		panic(fmt.Errorf("%w: %s requires %q at construction",
			ErrFlagNotSet, what, f))
	}
}

func (fv *FEValues) checkShapeQ(i, q int) {
	if i < 0 || i >= fv.element.NDofsPerCell() {
		panic(fmt.Errorf("%w: shape function %d, element has %d",
			ErrIndexRange, i, fv.element.NDofsPerCell()))
	}
	if q < 0 || q >= fv.quad.NPoints() {
		panic(fmt.Errorf("%w: quadrature point %d, rule has %d",
			ErrIndexRange, q, fv.quad.NPoints()))
	}
}

// primitiveRow resolves the storage row of shape function i through the
// primitive-only accessor contract.
func (fv *FEValues) primitiveRow(i, q int) int {
	fv.checkInited()
	fv.checkShapeQ(i, q)
	row := fv.shapeRows[i]
	if row < 0 {
		panic(fmt.Errorf("%w: shape function %d of %s",
			ErrShapeNotPrimitive, i, fv.element.Name()))
	}
	return row
}

// --- shape-function accessors -----------------------------------------

// ShapeValue returns the value of shape function i at quadrature point q.
// Requires a primitive shape function; non-primitive elements must go
// through ShapeValueComponent.
func (fv *FEValues) ShapeValue(i, q int) float64 {
	fv.checkFlag(UpdateValues, "ShapeValue")
	return fv.shapeOut.Values.At(fv.primitiveRow(i, q), q)
}

func (fv *FEValues) ShapeGrad(i, q int) tensor.Vec {
	fv.checkFlag(UpdateGradients, "ShapeGrad")
	return fv.shapeOut.Gradients[fv.primitiveRow(i, q)][q]
}

func (fv *FEValues) ShapeHessian(i, q int) tensor.Tensor2 {
	fv.checkFlag(UpdateHessians, "ShapeHessian")
	return fv.shapeOut.Hessians[fv.primitiveRow(i, q)][q]
}

func (fv *FEValues) Shape3rdDerivative(i, q int) tensor.Tensor3 {
	fv.checkFlag(UpdateThirdDerivatives, "Shape3rdDerivative")
	return fv.shapeOut.ThirdDerivatives[fv.primitiveRow(i, q)][q]
}

func (fv *FEValues) checkComponent(c int) {
	if c < 0 || c >= fv.element.NComponents() {
		panic(fmt.Errorf("%w: component %d, element has %d",
			ErrIndexRange, c, fv.element.NComponents()))
	}
}

// ShapeValueComponent returns component c of shape function i at point q,
// zero when the shape function does not act in that component.
func (fv *FEValues) ShapeValueComponent(i, q, c int) float64 {
	fv.checkFlag(UpdateValues, "ShapeValueComponent")
	fv.checkInited()
	fv.checkShapeQ(i, q)
	fv.checkComponent(c)
	row, ok := fv.element.ShapeToRow(i, c)
	if !ok {
		return 0
	}
	return fv.shapeOut.Values.At(row, q)
}

func (fv *FEValues) ShapeGradComponent(i, q, c int) tensor.Vec {
	fv.checkFlag(UpdateGradients, "ShapeGradComponent")
	fv.checkInited()
	fv.checkShapeQ(i, q)
	fv.checkComponent(c)
	row, ok := fv.element.ShapeToRow(i, c)
	if !ok {
		return tensor.Vec{Dim: fv.element.Dim()}
	}
	return fv.shapeOut.Gradients[row][q]
}

func (fv *FEValues) ShapeHessianComponent(i, q, c int) tensor.Tensor2 {
	fv.checkFlag(UpdateHessians, "ShapeHessianComponent")
	fv.checkInited()
	fv.checkShapeQ(i, q)
	fv.checkComponent(c)
	row, ok := fv.element.ShapeToRow(i, c)
	if !ok {
		return tensor.Tensor2{Dim: fv.element.Dim()}
	}
	return fv.shapeOut.Hessians[row][q]
}

func (fv *FEValues) Shape3rdDerivativeComponent(i, q, c int) tensor.Tensor3 {
	fv.checkFlag(UpdateThirdDerivatives, "Shape3rdDerivativeComponent")
	fv.checkInited()
	fv.checkShapeQ(i, q)
	fv.checkComponent(c)
	row, ok := fv.element.ShapeToRow(i, c)
	if !ok {
		return tensor.Tensor3{Dim: fv.element.Dim()}
	}
	return fv.shapeOut.ThirdDerivatives[row][q]
}

// --- geometric accessors ----------------------------------------------

func (fv *FEValues) checkQ(q int) {
	if q < 0 || q >= fv.quad.NPoints() {
		panic(fmt.Errorf("%w: quadrature point %d, rule has %d",
			ErrIndexRange, q, fv.quad.NPoints()))
	}
}

func (fv *FEValues) QuadraturePoint(q int) tensor.Vec {
	fv.checkFlag(UpdateQuadraturePoints, "QuadraturePoint")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.QuadraturePoints[q]
}

func (fv *FEValues) JxW(q int) float64 {
	fv.checkFlag(UpdateJxW, "JxW")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.JxW[q]
}

func (fv *FEValues) Jacobian(q int) tensor.Tensor2 {
	fv.checkFlag(UpdateJacobians, "Jacobian")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.Jacobians[q]
}

func (fv *FEValues) InverseJacobian(q int) tensor.Tensor2 {
	fv.checkFlag(UpdateInverseJacobians, "InverseJacobian")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.InverseJacobians[q]
}

func (fv *FEValues) JacobianGrad(q int) tensor.Tensor3 {
	fv.checkFlag(UpdateJacobianGrads, "JacobianGrad")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.JacobianGrads[q]
}

func (fv *FEValues) JacobianPushedForwardGrad(q int) tensor.Tensor3 {
	fv.checkFlag(UpdateJacobianPushedForwardGrads, "JacobianPushedForwardGrad")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.JacobianPushedForwardGrads[q]
}

func (fv *FEValues) Jacobian2ndDerivative(q int) tensor.Tensor4 {
	fv.checkFlag(UpdateJacobian2ndDerivatives, "Jacobian2ndDerivative")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.Jacobian2ndDerivatives[q]
}

func (fv *FEValues) JacobianPushedForward2ndDerivative(q int) tensor.Tensor4 {
	fv.checkFlag(UpdateJacobianPushedForward2ndDerivatives, "JacobianPushedForward2ndDerivative")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.JacobianPushedForward2nds[q]
}

func (fv *FEValues) Jacobian3rdDerivative(q int) tensor.Tensor5 {
	fv.checkFlag(UpdateJacobian3rdDerivatives, "Jacobian3rdDerivative")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.Jacobian3rdDerivatives[q]
}

func (fv *FEValues) JacobianPushedForward3rdDerivative(q int) tensor.Tensor5 {
	fv.checkFlag(UpdateJacobianPushedForward3rdDerivatives, "JacobianPushedForward3rdDerivative")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.JacobianPushedForward3rds[q]
}

func (fv *FEValues) NormalVector(q int) tensor.Vec {
	fv.checkFlag(UpdateNormalVectors, "NormalVector")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.NormalVectors[q]
}

func (fv *FEValues) BoundaryForm(q int) tensor.Vec {
	fv.checkFlag(UpdateBoundaryForms, "BoundaryForm")
	fv.checkInited()
	fv.checkQ(q)
	return fv.mapOut.BoundaryForms[q]
}

// --- field interpolation ----------------------------------------------

func (fv *FEValues) checkScalarField() {
	if fv.element.NComponents() != 1 {
		panic(fmt.Errorf("element %s has %d components, use the views for vector fields",
			fv.element.Name(), fv.element.NComponents()))
	}
}

func (fv *FEValues) localFromGlobal(global []float64) []float64 {
	fv.checkInited()
	if fv.dofs == nil {
		panic(fmt.Errorf("%w: attach a DoF layout with SetDoFLayout", ErrNoDoFs))
	}
	return fv.dofs.Extract(fv.cell, global)
}

// GetFunctionValuesFromLocal interpolates the field defined by per-cell
// coefficients at every quadrature point.
func (fv *FEValues) GetFunctionValuesFromLocal(local []float64) (vals []float64) {
	fv.checkFlag(UpdateValues, "GetFunctionValues")
	fv.checkInited()
	fv.checkScalarField()
	fv.checkLocal(local)
	var (
		nq = fv.quad.NPoints()
	)
	vals = make([]float64, nq)
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		row := fv.shapeRows[i]
		for q := 0; q < nq; q++ {
			vals[q] += coeff * fv.shapeOut.Values.At(row, q)
		}
	}
	return
}

func (fv *FEValues) GetFunctionValues(global []float64) []float64 {
	return fv.GetFunctionValuesFromLocal(fv.localFromGlobal(global))
}

func (fv *FEValues) GetFunctionGradientsFromLocal(local []float64) (grads []tensor.Vec) {
	fv.checkFlag(UpdateGradients, "GetFunctionGradients")
	fv.checkInited()
	fv.checkScalarField()
	fv.checkLocal(local)
	var (
		nq  = fv.quad.NPoints()
		dim = fv.element.Dim()
	)
	grads = make([]tensor.Vec, nq)
	for q := range grads {
		grads[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		row := fv.shapeRows[i]
		for q := 0; q < nq; q++ {
			grads[q] = grads[q].Add(fv.shapeOut.Gradients[row][q].Scale(coeff))
		}
	}
	return
}

func (fv *FEValues) GetFunctionGradients(global []float64) []tensor.Vec {
	return fv.GetFunctionGradientsFromLocal(fv.localFromGlobal(global))
}

func (fv *FEValues) GetFunctionHessiansFromLocal(local []float64) (hess []tensor.Tensor2) {
	fv.checkFlag(UpdateHessians, "GetFunctionHessians")
	fv.checkInited()
	fv.checkScalarField()
	fv.checkLocal(local)
	var (
		nq  = fv.quad.NPoints()
		dim = fv.element.Dim()
	)
	hess = make([]tensor.Tensor2, nq)
	for q := range hess {
		hess[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		row := fv.shapeRows[i]
		for q := 0; q < nq; q++ {
			hess[q] = hess[q].Add(fv.shapeOut.Hessians[row][q].Scale(coeff))
		}
	}
	return
}

func (fv *FEValues) GetFunctionHessians(global []float64) []tensor.Tensor2 {
	return fv.GetFunctionHessiansFromLocal(fv.localFromGlobal(global))
}

// GetFunctionLaplaciansFromLocal returns the traces of the interpolated
// hessians.
func (fv *FEValues) GetFunctionLaplaciansFromLocal(local []float64) (lap []float64) {
	hess := fv.GetFunctionHessiansFromLocal(local)
	lap = make([]float64, len(hess))
	for q, h := range hess {
		lap[q] = h.Trace()
	}
	return
}

func (fv *FEValues) GetFunctionLaplacians(global []float64) []float64 {
	return fv.GetFunctionLaplaciansFromLocal(fv.localFromGlobal(global))
}

func (fv *FEValues) GetFunction3rdDerivativesFromLocal(local []float64) (thirds []tensor.Tensor3) {
	fv.checkFlag(UpdateThirdDerivatives, "GetFunction3rdDerivatives")
	fv.checkInited()
	fv.checkScalarField()
	fv.checkLocal(local)
	var (
		nq  = fv.quad.NPoints()
		dim = fv.element.Dim()
	)
	thirds = make([]tensor.Tensor3, nq)
	for q := range thirds {
		thirds[q].Dim = dim
	}
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		row := fv.shapeRows[i]
		for q := 0; q < nq; q++ {
			thirds[q] = thirds[q].Add(fv.shapeOut.ThirdDerivatives[row][q].Scale(coeff))
		}
	}
	return
}

func (fv *FEValues) GetFunction3rdDerivatives(global []float64) []tensor.Tensor3 {
	return fv.GetFunction3rdDerivativesFromLocal(fv.localFromGlobal(global))
}

func (fv *FEValues) checkLocal(local []float64) {
	if len(local) != fv.element.NDofsPerCell() {
		panic(fmt.Errorf("%w: %d coefficients for %d local DoFs",
			ErrIndexRange, len(local), fv.element.NDofsPerCell()))
	}
}

// Number constrains the coefficient scalar types FunctionValuesAs
// supports. Defined types with a float underlying type (tracking or
// tagged scalars) work transparently.
type Number interface {
	~float32 | ~float64
}

// FunctionValuesAs interpolates a scalar field whose coefficients are of
// a non-float64 scalar type; the summation is carried out in that type.
func FunctionValuesAs[S Number](fv *FEValues, local []S) (vals []S) {
	fv.checkFlag(UpdateValues, "FunctionValuesAs")
	fv.checkInited()
	fv.checkScalarField()
	if len(local) != fv.element.NDofsPerCell() {
		panic(fmt.Errorf("%w: %d coefficients for %d local DoFs",
			ErrIndexRange, len(local), fv.element.NDofsPerCell()))
	}
	var (
		nq = fv.quad.NPoints()
	)
	vals = make([]S, nq)
	for i, coeff := range local {
		if coeff == 0 {
			continue
		}
		row := fv.shapeRows[i]
		for q := 0; q < nq; q++ {
			vals[q] += coeff * S(fv.shapeOut.Values.At(row, q))
		}
	}
	return
}
