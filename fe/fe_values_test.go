package fe

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"

	"github.com/stretchr/testify/assert"
)

func catchPanic(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); ok {
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	f()
	return
}

func TestPartitionOfUnity(t *testing.T) {
	var (
		tol   = 1.e-10
		cases = []struct {
			g      mesh.GeometryType
			degree int
		}{
			{mesh.Line, 1}, {mesh.Line, 3},
			{mesh.Quad, 1}, {mesh.Quad, 2}, {mesh.Quad, 3},
			{mesh.Hex, 1}, {mesh.Hex, 2},
		}
	)
	for _, tc := range cases {
		var (
			el = NewLagrange(tc.g, tc.degree)
			q  = NewGaussFor(tc.g, tc.degree+1)
			fv = NewFEValues(NewMappingQ1(), el,
				q, UpdateValues|UpdateGradients)
			m = mesh.NewReferenceCell(tc.g)
		)
		fv.Reinit(m.Cell(0))
		for qp := 0; qp < fv.NQuadraturePoints(); qp++ {
			var (
				sum  float64
				gsum tensor.Vec
			)
			gsum.Dim = tc.g.Dim()
			for i := 0; i < el.NDofsPerCell(); i++ {
				sum += fv.ShapeValue(i, qp)
				gsum = gsum.Add(fv.ShapeGrad(i, qp))
			}
			assert.InDelta(t, 1.0, sum, tol, "%s degree %d", tc.g, tc.degree)
			for d := 0; d < tc.g.Dim(); d++ {
				assert.InDelta(t, 0.0, gsum.D[d], tol)
			}
		}
	}
	// Simplex elements carry the same property.
	for _, degree := range []int{1, 2} {
		var (
			el = NewSimplexP(degree)
			fv = NewFEValues(NewMappingQ1(), el,
				quadrature.NewGaussSimplex(degree+1), UpdateValues|UpdateGradients)
			m = mesh.NewReferenceCell(mesh.Tri)
		)
		fv.Reinit(m.Cell(0))
		for qp := 0; qp < fv.NQuadraturePoints(); qp++ {
			var sum float64
			for i := 0; i < el.NDofsPerCell(); i++ {
				sum += fv.ShapeValue(i, qp)
			}
			assert.InDelta(t, 1.0, sum, 1.e-10)
		}
	}
}

// NewGaussFor picks the tensor-product Gauss rule matching a geometry.
func NewGaussFor(g mesh.GeometryType, np int) *quadrature.Rule {
	if g == mesh.Tri {
		return quadrature.NewGaussSimplex(np)
	}
	return quadrature.NewGauss(g.Dim(), np)
}

func TestJxWMeasure(t *testing.T) {
	// Integrating 1 over a cell must give its measure, on reference and
	// on stretched geometry.
	var (
		tol = 1.e-10
	)
	{ // reference quad, measure 4
		var (
			fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
				quadrature.NewGauss(2, 2), UpdateJxW)
			m = mesh.NewReferenceCell(mesh.Quad)
		)
		fv.Reinit(m.Cell(0))
		var total float64
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			total += fv.JxW(q)
		}
		assert.InDelta(t, 4.0, total, tol)
	}
	{ // 3x2 cartesian grid on [0,3]x[0,2], cell measure 1
		var (
			m  = mesh.NewCartesian2D(3, 2, 0, 0, 3, 2)
			fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
				quadrature.NewGauss(2, 2), UpdateJxW)
		)
		for c := 0; c < m.NCells(); c++ {
			fv.Reinit(m.Cell(c))
			var total float64
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				total += fv.JxW(q)
			}
			assert.InDelta(t, 1.0, total, tol)
		}
	}
	{ // triangle pair tiling the unit square, each of measure 1/2
		var (
			m  = mesh.NewTriangulated2D(1, 1, 0, 0, 1, 1)
			fv = NewFEValues(NewMappingQ1(), NewSimplexP(1),
				quadrature.NewGaussSimplex(2), UpdateJxW)
		)
		for c := 0; c < m.NCells(); c++ {
			fv.Reinit(m.Cell(c))
			var total float64
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				total += fv.JxW(q)
			}
			assert.InDelta(t, 0.5, total, tol)
		}
	}
	{ // hexahedron stretched by (2,3,4), measure 8*24
		var (
			m  = mesh.NewReferenceCell(mesh.Hex)
			fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Hex, 1),
				quadrature.NewGauss(3, 2), UpdateJxW)
		)
		m.Transform(func(p tensor.Vec) tensor.Vec {
			return tensor.Vec{Dim: 3, D: [3]float64{2 * p.D[0], 3 * p.D[1], 4 * p.D[2]}}
		})
		fv.Reinit(m.Cell(0))
		var total float64
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			total += fv.JxW(q)
		}
		assert.InDelta(t, 8.0*24.0, total, tol)
	}
}

func TestAccessorGating(t *testing.T) {
	var (
		el = NewLagrange(mesh.Quad, 1)
		fv = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2), UpdateValues)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	// Before any Reinit every accessor must refuse.
	err := catchPanic(func() { fv.ShapeValue(0, 0) })
	assert.True(t, errors.Is(err, ErrNotReinited))

	fv.Reinit(m.Cell(0))
	assert.NotPanics(t, func() { fv.ShapeValue(0, 0) })

	// Quantities outside the requested closure stay unavailable.
	for _, f := range []func(){
		func() { fv.ShapeGrad(0, 0) },
		func() { fv.ShapeHessian(0, 0) },
		func() { fv.Shape3rdDerivative(0, 0) },
		func() { fv.QuadraturePoint(0) },
		func() { fv.JxW(0) },
		func() { fv.Jacobian(0) },
		func() { fv.InverseJacobian(0) },
		func() { fv.JacobianGrad(0) },
		func() { fv.Jacobian2ndDerivative(0) },
		func() { fv.Jacobian3rdDerivative(0) },
		func() { fv.JacobianPushedForwardGrad(0) },
		func() { fv.JacobianPushedForward2ndDerivative(0) },
		func() { fv.JacobianPushedForward3rdDerivative(0) },
		func() { fv.NormalVector(0) },
		func() { fv.BoundaryForm(0) },
		func() { fv.GetFunctionGradientsFromLocal(make([]float64, 4)) },
	} {
		err = catchPanic(f)
		assert.True(t, errors.Is(err, ErrFlagNotSet), "got %v", err)
	}

	// Out-of-range indices are their own failure class.
	err = catchPanic(func() { fv.ShapeValue(99, 0) })
	assert.True(t, errors.Is(err, ErrIndexRange))
	err = catchPanic(func() { fv.ShapeValue(0, 99) })
	assert.True(t, errors.Is(err, ErrIndexRange))
	err = catchPanic(func() { fv.ShapeValueComponent(0, 0, 5) })
	assert.True(t, errors.Is(err, ErrIndexRange))
}

func TestFlagClosureResolution(t *testing.T) {
	// Asking for real-space gradients must pull in inverse jacobians;
	// JxW must pull in jacobians.
	var (
		fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateGradients|UpdateJxW)
	)
	assert.True(t, fv.UpdateFlagsSet().Has(UpdateInverseJacobians))
	assert.True(t, fv.UpdateFlagsSet().Has(UpdateJacobians))
}

func TestPushedForwardThirdDerivatives(t *testing.T) {
	// The pushed-forward chain pulls in the raw third derivatives and the
	// inverse jacobians. A d-linear mapping has identically vanishing
	// third jacobian derivatives, pushed forward or not.
	var (
		m  = mesh.NewCartesian2D(1, 1, 0, 0, 2, 1)
		fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateJacobianPushedForward3rdDerivatives)
	)
	assert.True(t, fv.UpdateFlagsSet().Has(UpdateJacobian3rdDerivatives))
	assert.True(t, fv.UpdateFlagsSet().Has(UpdateInverseJacobians))
	fv.Reinit(m.Cell(0))
	for q := 0; q < fv.NQuadraturePoints(); q++ {
		j3 := fv.JacobianPushedForward3rdDerivative(q)
		assert.Equal(t, 2, j3.Dim)
		assert.Equal(t, tensor.NewTensor5(2), j3)
	}
}

func TestTranslationSimilarity(t *testing.T) {
	// Two cells of a cartesian grid are pure translations of each other:
	// shape tables must be reused bit-for-bit and quadrature points must
	// shift by the exact translation vector.
	var (
		m  = mesh.NewCartesian2D(2, 1, 0, 0, 2, 1)
		fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 2),
			quadrature.NewGauss(2, 3),
			UpdateValues|UpdateGradients|UpdateQuadraturePoints|UpdateJxW)
		nq = fv.NQuadraturePoints()
		n  = fv.DofsPerCell()
	)
	fv.Reinit(m.Cell(0))
	assert.Equal(t, SimilarityNone, fv.CellSimilarity())

	var (
		vals0  = make([][]float64, n)
		grads0 = make([][]tensor.Vec, n)
		pts0   = make([]tensor.Vec, nq)
	)
	for i := 0; i < n; i++ {
		vals0[i] = make([]float64, nq)
		grads0[i] = make([]tensor.Vec, nq)
		for q := 0; q < nq; q++ {
			vals0[i][q] = fv.ShapeValue(i, q)
			grads0[i][q] = fv.ShapeGrad(i, q)
		}
	}
	for q := 0; q < nq; q++ {
		pts0[q] = fv.QuadraturePoint(q)
	}

	fv.Reinit(m.Cell(1))
	assert.Equal(t, SimilarityTranslation, fv.CellSimilarity())
	tvec := m.Cell(1).Vertex(0).Sub(m.Cell(0).Vertex(0))
	for i := 0; i < n; i++ {
		for q := 0; q < nq; q++ {
			assert.Equal(t, vals0[i][q], fv.ShapeValue(i, q))
			assert.Equal(t, grads0[i][q], fv.ShapeGrad(i, q))
		}
	}
	for q := 0; q < nq; q++ {
		shifted := pts0[q].Add(tvec)
		assert.Equal(t, shifted, fv.QuadraturePoint(q))
	}

	// Revisiting the same cell is the identical case.
	fv.Reinit(m.Cell(1))
	assert.Equal(t, SimilarityIdentical, fv.CellSimilarity())
}

func TestEpochInvalidatesSimilarity(t *testing.T) {
	var (
		m  = mesh.NewCartesian2D(1, 1, 0, 0, 1, 1)
		fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateValues|UpdateQuadraturePoints)
	)
	fv.Reinit(m.Cell(0))
	fv.Reinit(m.Cell(0))
	assert.Equal(t, SimilarityIdentical, fv.CellSimilarity())

	// Any mutation of the triangulation voids the cached cell state,
	// even though the vertices end up translation-related.
	m.Translate(tensor.Vec{Dim: 2, D: [3]float64{0.25, 0, 0}})
	fv.Reinit(m.Cell(0))
	assert.Equal(t, SimilarityNone, fv.CellSimilarity())
	p := fv.QuadraturePoint(0)
	assert.True(t, p.D[0] > 0.25-1.e-12)
}

func TestFieldInterpolation(t *testing.T) {
	var (
		tol = 1.e-10
		m   = mesh.NewCartesian2D(2, 2, 0, 0, 2, 2)
		el  = NewLagrange(mesh.Quad, 2)
		fv  = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 3),
			UpdateValues|UpdateGradients|UpdateHessians|UpdateQuadraturePoints)
	)
	// All-ones coefficients interpolate the constant 1.
	ones := make([]float64, el.NDofsPerCell())
	for i := range ones {
		ones[i] = 1
	}
	fv.Reinit(m.Cell(0))
	for _, v := range fv.GetFunctionValuesFromLocal(ones) {
		assert.InDelta(t, 1.0, v, tol)
	}
	for _, g := range fv.GetFunctionGradientsFromLocal(ones) {
		assert.InDelta(t, 0.0, g.Norm(), tol)
	}

	// u = x^2 + y^2 is in the Q2 space: values, gradients and laplacian
	// must be exact. Coefficients are nodal values of u.
	u := func(p tensor.Vec) float64 { return p.D[0]*p.D[0] + p.D[1]*p.D[1] }
	for c := 0; c < m.NCells(); c++ {
		fv.Reinit(m.Cell(c))
		local := nodalCoefficients(fv, u)
		var (
			vals  = fv.GetFunctionValuesFromLocal(local)
			grads = fv.GetFunctionGradientsFromLocal(local)
			laps  = fv.GetFunctionLaplaciansFromLocal(local)
		)
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			p := fv.QuadraturePoint(q)
			assert.InDelta(t, u(p), vals[q], tol)
			assert.InDelta(t, 2*p.D[0], grads[q].D[0], tol)
			assert.InDelta(t, 2*p.D[1], grads[q].D[1], tol)
			assert.InDelta(t, 4.0, laps[q], tol)
		}
	}
}

// nodalCoefficients samples a function at the real-space positions of the
// element's nodes by interpolating the vertex map, then solving nothing:
// for Lagrange elements the coefficient of shape i is u at node i, which
// on an affine cell is the push-forward of the reference node. We recover
// the node positions by evaluating the geometry at unit coefficient sets.
func nodalCoefficients(fv *FEValues, u func(tensor.Vec) float64) (local []float64) {
	var (
		el   = fv.Element().(*Lagrange)
		cell = fv.PresentCell()
	)
	local = make([]float64, el.NDofsPerCell())
	for i := range local {
		ref := el.NodePoint(i)
		local[i] = u(mapAffine(cell, ref))
	}
	return
}

// mapAffine pushes a reference point through the bilinear vertex map.
func mapAffine(cell mesh.Cell, ref tensor.Vec) (x tensor.Vec) {
	var (
		g   = cell.Geometry()
		dim = g.Dim()
	)
	x.Dim = dim
	for v := 0; v < g.NVertices(); v++ {
		w := vertexShapeValue(g, v, ref)
		x = x.Add(cell.Vertex(v).Scale(w))
	}
	return
}

func TestFunctionValuesTyped(t *testing.T) {
	var (
		el = NewLagrange(mesh.Quad, 1)
		fv = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2), UpdateValues)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	fv.Reinit(m.Cell(0))
	local32 := []float32{1, 1, 1, 1}
	for _, v := range FunctionValuesAs(fv, local32) {
		assert.InDelta(t, 1.0, float64(v), 1.e-6)
	}
}

func TestGlobalDoFExtraction(t *testing.T) {
	var (
		m      = mesh.NewCartesian2D(2, 1, 0, 0, 2, 1)
		el     = NewLagrange(mesh.Quad, 1)
		layout = mesh.NewVertexLayout(m, 1)
		fv     = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2), UpdateValues|UpdateQuadraturePoints)
	)
	fv.Reinit(m.Cell(0))

	// Without a layout attached the global variants must refuse.
	err := catchPanic(func() { fv.GetFunctionValues(make([]float64, layout.NDoFs)) })
	assert.True(t, errors.Is(err, ErrNoDoFs))

	fv.SetDoFLayout(layout)
	// Global vector holding u(x,y) = x at the vertices.
	global := make([]float64, layout.NDoFs)
	for v, p := range m.Vertices {
		global[v] = p.D[0]
	}
	for c := 0; c < m.NCells(); c++ {
		fv.Reinit(m.Cell(c))
		vals := fv.GetFunctionValues(global)
		for q, v := range vals {
			assert.InDelta(t, fv.QuadraturePoint(q).D[0], v, 1.e-12)
		}
	}
}

func TestComponentAccessorsScalar(t *testing.T) {
	// For a scalar element the component accessors with c=0 agree with
	// the primitive accessors exactly.
	var (
		el = NewLagrange(mesh.Quad, 2)
		fv = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 3), UpdateValues|UpdateGradients|UpdateHessians)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	fv.Reinit(m.Cell(0))
	for i := 0; i < el.NDofsPerCell(); i++ {
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			assert.Equal(t, fv.ShapeValue(i, q), fv.ShapeValueComponent(i, q, 0))
			assert.Equal(t, fv.ShapeGrad(i, q), fv.ShapeGradComponent(i, q, 0))
			assert.Equal(t, fv.ShapeHessian(i, q), fv.ShapeHessianComponent(i, q, 0))
		}
	}
}

func TestSystemElementComponents(t *testing.T) {
	// A 2-component system built from Q1: shape i acts in component
	// i%2 only; the vector view reconstructs values consistently with
	// the per-component accessors.
	var (
		base = NewLagrange(mesh.Quad, 1)
		el   = NewSystem(base, 2)
		fv   = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2), UpdateValues|UpdateGradients)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	fv.Reinit(m.Cell(0))
	vv := fv.Vector(0)
	for i := 0; i < el.NDofsPerCell(); i++ {
		comp := i % 2
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			val := vv.Value(i, q)
			for c := 0; c < 2; c++ {
				want := fv.ShapeValueComponent(i, q, c)
				if c != comp {
					assert.Zero(t, want)
				}
				assert.Equal(t, want, val.D[c])
			}
			// Divergence equals the trace of the view gradient.
			assert.InDelta(t, vv.Gradient(i, q).Trace(), vv.Divergence(i, q), 1.e-14)
		}
	}

	// Primitive accessors work on a primitive system shape.
	assert.True(t, el.IsPrimitive())
	assert.NotPanics(t, func() { fv.ShapeValue(3, 0) })
}

func TestNonPrimitiveElement(t *testing.T) {
	var (
		base = NewLagrange(mesh.Quad, 1)
		el   = NewCoupled(base, 0.5)
		fv   = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2), UpdateValues|UpdateGradients)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	fv.Reinit(m.Cell(0))

	// The primitive accessor refuses every shape of a coupled element.
	err := catchPanic(func() { fv.ShapeValue(0, 0) })
	assert.True(t, errors.Is(err, ErrShapeNotPrimitive))

	// The component accessor sees both components: component 1 is the
	// scaled copy of component 0.
	for i := 0; i < el.NDofsPerCell(); i++ {
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			v0 := fv.ShapeValueComponent(i, q, 0)
			v1 := fv.ShapeValueComponent(i, q, 1)
			assert.InDelta(t, 0.5*v0, v1, 1.e-14)
		}
	}

	// The slow multi-component path of the vector view agrees with the
	// component accessors too.
	vv := fv.Vector(0)
	for i := 0; i < el.NDofsPerCell(); i++ {
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			val := vv.Value(i, q)
			assert.Equal(t, fv.ShapeValueComponent(i, q, 0), val.D[0])
			assert.Equal(t, fv.ShapeValueComponent(i, q, 1), val.D[1])
			assert.InDelta(t, vv.Gradient(i, q).Trace(), vv.Divergence(i, q), 1.e-14)
		}
	}
}

func TestCurl(t *testing.T) {
	{ // 2D: curl is the scalar dvy/dx - dvx/dy
		var (
			el = NewSystem(NewLagrange(mesh.Quad, 1), 2)
			fv = NewFEValues(NewMappingQ1(), el,
				quadrature.NewGauss(2, 2), UpdateGradients)
			m = mesh.NewReferenceCell(mesh.Quad)
		)
		fv.Reinit(m.Cell(0))
		vv := fv.Vector(0)
		for i := 0; i < el.NDofsPerCell(); i++ {
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				g := vv.Gradient(i, q)
				c := vv.Curl(i, q)
				assert.Equal(t, 1, c.Dim)
				assert.InDelta(t, g.D[1][0]-g.D[0][1], c.D[0], 1.e-14)
			}
		}
	}
	{ // 3D: componentwise against the gradient
		var (
			el = NewSystem(NewLagrange(mesh.Hex, 1), 3)
			fv = NewFEValues(NewMappingQ1(), el,
				quadrature.NewGauss(3, 2), UpdateGradients)
			m = mesh.NewReferenceCell(mesh.Hex)
		)
		fv.Reinit(m.Cell(0))
		vv := fv.Vector(0)
		for i := 0; i < el.NDofsPerCell(); i++ {
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				g := vv.Gradient(i, q)
				c := vv.Curl(i, q)
				assert.InDelta(t, g.D[2][1]-g.D[1][2], c.D[0], 1.e-14)
				assert.InDelta(t, g.D[0][2]-g.D[2][0], c.D[1], 1.e-14)
				assert.InDelta(t, g.D[1][0]-g.D[0][1], c.D[2], 1.e-14)
			}
		}
	}
	{ // 1D has no curl
		var (
			el = NewLagrange(mesh.Line, 1)
			fv = NewFEValues(NewMappingQ1(), el,
				quadrature.NewGaussLegendre1D(2), UpdateGradients)
			m = mesh.NewReferenceCell(mesh.Line)
		)
		fv.Reinit(m.Cell(0))
		err := catchPanic(func() { fv.Vector(0).Curl(0, 0) })
		assert.True(t, errors.Is(err, ErrCurlUndefined))
	}
}

func TestSymmetricGradient(t *testing.T) {
	var (
		el = NewSystem(NewLagrange(mesh.Quad, 2), 2)
		fv = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 3), UpdateGradients)
		m = mesh.NewReferenceCell(mesh.Quad)
	)
	m.Transform(func(p tensor.Vec) tensor.Vec {
		return tensor.Vec{Dim: 2, D: [3]float64{1.5 * p.D[0], 0.75 * p.D[1]}}
	})
	fv.Reinit(m.Cell(0))
	vv := fv.Vector(0)
	for i := 0; i < el.NDofsPerCell(); i++ {
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			var (
				g = vv.Gradient(i, q)
				s = vv.SymmetricGradient(i, q)
			)
			for a := 0; a < 2; a++ {
				for b := 0; b < 2; b++ {
					assert.InDelta(t, 0.5*(g.D[a][b]+g.D[b][a]), s.D[a][b], 1.e-14)
					assert.Equal(t, s.D[a][b], s.D[b][a])
				}
			}
		}
	}
}

func TestFaceValues(t *testing.T) {
	var (
		tol = 1.e-10
	)
	{ // unit-square cells: outward unit normals, face measure 1
		var (
			m  = mesh.NewCartesian2D(1, 1, 0, 0, 1, 1)
			el = NewLagrange(mesh.Quad, 1)
			fv = NewFEFaceValues(NewMappingQ1(), el,
				quadrature.NewGaussLegendre1D(2),
				UpdateValues|UpdateJxW|UpdateNormalVectors|UpdateQuadraturePoints)
			want = []tensor.Vec{
				{Dim: 2, D: [3]float64{-1, 0}},
				{Dim: 2, D: [3]float64{1, 0}},
				{Dim: 2, D: [3]float64{0, -1}},
				{Dim: 2, D: [3]float64{0, 1}},
			}
		)
		for f := 0; f < 4; f++ {
			fv.ReinitFace(m.Cell(0), f)
			var measure float64
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				n := fv.NormalVector(q)
				assert.InDelta(t, 1.0, n.Norm(), tol)
				assert.InDelta(t, want[f].D[0], n.D[0], tol)
				assert.InDelta(t, want[f].D[1], n.D[1], tol)
				measure += fv.JxW(q)
			}
			assert.InDelta(t, 1.0, measure, tol)
		}
	}
	{ // hex faces: measure 4 on the reference cell, normals unit outward
		var (
			m  = mesh.NewReferenceCell(mesh.Hex)
			el = NewLagrange(mesh.Hex, 1)
			fv = NewFEFaceValues(NewMappingQ1(), el,
				quadrature.NewGauss(2, 2), UpdateJxW|UpdateNormalVectors)
		)
		for f := 0; f < 6; f++ {
			fv.ReinitFace(m.Cell(0), f)
			var (
				measure float64
			)
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				assert.InDelta(t, 1.0, fv.NormalVector(q).Norm(), tol)
				measure += fv.JxW(q)
			}
			assert.InDelta(t, 4.0, measure, tol, "face %d", f)
		}
	}
	{ // triangle edges: hypotenuse has length 2*sqrt2
		var (
			m  = mesh.NewReferenceCell(mesh.Tri)
			fv = NewFEFaceValues(NewMappingQ1(), NewSimplexP(1),
				quadrature.NewGaussLegendre1D(2), UpdateJxW|UpdateNormalVectors)
			want = []float64{2, 2 * math.Sqrt2, 2}
		)
		for f := 0; f < 3; f++ {
			fv.ReinitFace(m.Cell(0), f)
			var measure float64
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				measure += fv.JxW(q)
			}
			assert.InDelta(t, want[f], measure, tol)
		}
	}
}

func TestFaceShapeTracesMatchCell(t *testing.T) {
	// Shape values on a face are the traces of the cell shape functions:
	// their sum is still one at every face quadrature point.
	var (
		fv = NewFEFaceValues(NewMappingQ1(), NewLagrange(mesh.Hex, 2),
			quadrature.NewGauss(2, 3), UpdateValues)
		m = mesh.NewReferenceCell(mesh.Hex)
	)
	for f := 0; f < 6; f++ {
		fv.ReinitFace(m.Cell(0), f)
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			var sum float64
			for i := 0; i < fv.DofsPerCell(); i++ {
				sum += fv.ShapeValue(i, q)
			}
			assert.InDelta(t, 1.0, sum, 1.e-10)
		}
	}
}

func TestSubfaceValues(t *testing.T) {
	// Each subface carries half (2D) or a quarter (3D) of the face
	// measure, and the two/four children together tile the face.
	var (
		tol = 1.e-10
	)
	{
		var (
			m  = mesh.NewReferenceCell(mesh.Quad)
			fv = NewFESubfaceValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
				quadrature.NewGaussLegendre1D(2), UpdateJxW|UpdateNormalVectors)
		)
		for f := 0; f < 4; f++ {
			var total float64
			for s := 0; s < 2; s++ {
				fv.ReinitSubface(m.Cell(0), f, s)
				for q := 0; q < fv.NQuadraturePoints(); q++ {
					assert.InDelta(t, 1.0, fv.NormalVector(q).Norm(), tol)
					total += fv.JxW(q)
				}
			}
			assert.InDelta(t, 2.0, total, tol)
		}
	}
	{
		var (
			m  = mesh.NewReferenceCell(mesh.Hex)
			fv = NewFESubfaceValues(NewMappingQ1(), NewLagrange(mesh.Hex, 1),
				quadrature.NewGauss(2, 2), UpdateJxW)
		)
		for f := 0; f < 6; f++ {
			var total float64
			for s := 0; s < 4; s++ {
				fv.ReinitSubface(m.Cell(0), f, s)
				for q := 0; q < fv.NQuadraturePoints(); q++ {
					total += fv.JxW(q)
				}
			}
			assert.InDelta(t, 4.0, total, tol)
		}
	}
}

func TestLocusMismatch(t *testing.T) {
	var (
		m    = mesh.NewReferenceCell(mesh.Quad)
		cell = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateValues)
		face = NewFEFaceValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGaussLegendre1D(2), UpdateValues)
	)
	assert.Error(t, catchPanic(func() { cell.ReinitFace(m.Cell(0), 0) }))
	assert.Error(t, catchPanic(func() { face.Reinit(m.Cell(0)) }))
	err := catchPanic(func() { face.ReinitFace(m.Cell(0), 9) })
	assert.True(t, errors.Is(err, ErrIndexRange))
}

func TestGeometryMismatch(t *testing.T) {
	var (
		m  = mesh.NewReferenceCell(mesh.Tri)
		fv = NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateValues)
	)
	err := catchPanic(func() { fv.Reinit(m.Cell(0)) })
	assert.True(t, errors.Is(err, ErrFEMismatch))
}

func TestNormalVectorsRejectedOnCells(t *testing.T) {
	assert.Error(t, catchPanic(func() {
		NewFEValues(NewMappingQ1(), NewLagrange(mesh.Quad, 1),
			quadrature.NewGauss(2, 2), UpdateNormalVectors)
	}))
}

func TestHessiansOnStretchedCell(t *testing.T) {
	// u = x*y on a stretched quad: Q1 reproduces it; the mixed second
	// derivative must be 1 and the pure ones 0.
	var (
		m  = mesh.NewReferenceCell(mesh.Quad)
		el = NewLagrange(mesh.Quad, 1)
		fv = NewFEValues(NewMappingQ1(), el,
			quadrature.NewGauss(2, 2),
			UpdateValues|UpdateHessians|UpdateQuadraturePoints)
	)
	m.Transform(func(p tensor.Vec) tensor.Vec {
		return tensor.Vec{Dim: 2, D: [3]float64{2 * p.D[0], 0.5 * p.D[1]}}
	})
	fv.Reinit(m.Cell(0))
	local := nodalCoefficients(fv, func(p tensor.Vec) float64 { return p.D[0] * p.D[1] })
	for _, h := range fv.GetFunctionHessiansFromLocal(local) {
		assert.InDelta(t, 0.0, h.D[0][0], 1.e-10)
		assert.InDelta(t, 0.0, h.D[1][1], 1.e-10)
		assert.InDelta(t, 1.0, h.D[0][1], 1.e-10)
		assert.InDelta(t, 1.0, h.D[1][0], 1.e-10)
	}
}
