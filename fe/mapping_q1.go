package fe

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
)

// MappingQ1 is the d-linear mapping built on the cell's vertices: linear
// on lines and triangles, bilinear on quads, trilinear on hexes. It is
// stateless and reentrant; all per-rule state lives in the MappingData it
// hands out.
type MappingQ1 struct{}

func NewMappingQ1() *MappingQ1 { return &MappingQ1{} }

// q1Data carries the vertex-basis tables at a fixed point set, plus the
// previous cell's vertices for translation reuse.
type q1Data struct {
	flags   UpdateFlags
	geom    mesh.GeometryType
	points  []tensor.Vec // cell reference coordinates
	weights []float64

	isFace bool
	t1, t2 tensor.Vec // face tangents in reference space, zero for cell loci

	phi   [][]float64      // [vertex][point]
	dphi  [][]tensor.Vec   // first derivatives w.r.t. reference coords
	d2phi [][]tensor.Tensor2
	d3phi [][]tensor.Tensor3

	prevVerts []tensor.Vec
}

func (m *MappingQ1) RequiresUpdateFlags(requested UpdateFlags) (needed UpdateFlags) {
	needed = requested
	if requested.Has(UpdateJxW) {
		needed |= UpdateJacobians
	}
	if requested.Has(UpdateNormalVectors) {
		needed |= UpdateBoundaryForms
	}
	if requested.Has(UpdateBoundaryForms) {
		needed |= UpdateJacobians
	}
	if requested.Has(UpdateInverseJacobians) {
		needed |= UpdateJacobians
	}
	if requested.Has(UpdateJacobianPushedForwardGrads) {
		needed |= UpdateJacobianGrads | UpdateInverseJacobians
	}
	if requested.Has(UpdateJacobianPushedForward2ndDerivatives) {
		needed |= UpdateJacobian2ndDerivatives | UpdateInverseJacobians
	}
	if requested.Has(UpdateJacobianPushedForward3rdDerivatives) {
		needed |= UpdateJacobian3rdDerivatives | UpdateInverseJacobians
	}
	return
}

// GetCellData precomputes vertex-basis tables at the rule's points for
// cell-interior evaluation.
func (m *MappingQ1) GetCellData(flags UpdateFlags, g mesh.GeometryType, q *quadrature.Rule) MappingData {
	var (
		nq     = q.NPoints()
		points = make([]tensor.Vec, nq)
		wts    = make([]float64, nq)
	)
	for i := 0; i < nq; i++ {
		points[i] = q.Point(i)
		wts[i] = q.Weight(i)
	}
	return m.newData(flags, g, points, wts, false, tensor.Vec{}, tensor.Vec{})
}

func (m *MappingQ1) GetFaceData(flags UpdateFlags, g mesh.GeometryType, face int,
	q *quadrature.Rule) MappingData {
	var (
		center, t1, t2 = referenceFaceFrame(g, face)
		nq             = q.NPoints()
		points         = make([]tensor.Vec, nq)
		wts            = make([]float64, nq)
	)
	for i := 0; i < nq; i++ {
		u := q.Point(i)
		points[i] = center.Add(t1.Scale(u.D[0])).Add(t2.Scale(u.D[1]))
		wts[i] = q.Weight(i)
	}
	return m.newData(flags, g, points, wts, true, t1, t2)
}

func (m *MappingQ1) GetSubfaceData(flags UpdateFlags, g mesh.GeometryType, face, subface int,
	q *quadrature.Rule) MappingData {
	var (
		center, t1, t2 = referenceFaceFrame(g, face)
		off            = subfaceOffsets(g, subface)
		nq             = q.NPoints()
		points         = make([]tensor.Vec, nq)
		wts            = make([]float64, nq)
		// child tangents are half the parent's; the boundary form then
		// carries the child's measure automatically
		ct1 = t1.Scale(0.5)
		ct2 = t2.Scale(0.5)
	)
	for i := 0; i < nq; i++ {
		u := q.Point(i)
		pt := center.Add(t1.Scale(0.5*u.D[0] + off[0]))
		if g.Dim() == 3 {
			pt = pt.Add(t2.Scale(0.5*u.D[1] + off[1]))
		}
		points[i] = pt
		wts[i] = q.Weight(i)
	}
	return m.newData(flags, g, points, wts, true, ct1, ct2)
}

func (m *MappingQ1) newData(flags UpdateFlags, g mesh.GeometryType,
	points []tensor.Vec, wts []float64, isFace bool, t1, t2 tensor.Vec) (d *q1Data) {
	var (
		nv = g.NVertices()
		nq = len(points)
	)
	d = &q1Data{
		flags:   flags,
		geom:    g,
		points:  points,
		weights: wts,
		isFace:  isFace,
		t1:      t1,
		t2:      t2,
	}
	needJ := flags.Has(UpdateJacobians)
	if flags.Has(UpdateQuadraturePoints) {
		d.phi = allocTable[float64](nv, nq)
	}
	if needJ {
		d.dphi = allocTable[tensor.Vec](nv, nq)
	}
	if flags.Has(UpdateJacobianGrads) {
		d.d2phi = allocTable[tensor.Tensor2](nv, nq)
	}
	if flags.Has(UpdateJacobian2ndDerivatives) {
		d.d3phi = allocTable[tensor.Tensor3](nv, nq)
	}
	for v := 0; v < nv; v++ {
		for q := 0; q < nq; q++ {
			if d.phi != nil {
				d.phi[v][q] = vertexShapeValue(g, v, points[q])
			}
			if d.dphi != nil {
				d.dphi[v][q] = vertexShapeGradient(g, v, points[q])
			}
			if d.d2phi != nil {
				d.d2phi[v][q] = vertexShape2nd(g, v, points[q])
			}
			if d.d3phi != nil {
				d.d3phi[v][q] = vertexShape3rd(g, v, points[q])
			}
		}
	}
	return
}

func (m *MappingQ1) FillCellValues(cell mesh.Cell, data MappingData,
	similarity CellSimilarity, out *MappingOutput) CellSimilarity {
	var (
		d = data.(*q1Data)
	)
	if cell.Geometry() != d.geom {
		panic(fmt.Errorf("cell geometry %v does not match mapping data geometry %v",
			cell.Geometry(), d.geom))
	}
	switch similarity {
	case SimilarityIdentical:
		// nothing moved
	case SimilarityTranslation:
		// Jacobians and all their derivatives are invariant; shift the
		// quadrature points by the exact translation vector
		if out.QuadraturePoints != nil {
			t := cell.Vertex(0).Sub(d.prevVerts[0])
			for q := range out.QuadraturePoints {
				out.QuadraturePoints[q] = out.QuadraturePoints[q].Add(t)
			}
		}
	default:
		m.fillGeometry(cell, d, out, false)
	}
	d.rememberVertices(cell)
	return similarity
}

func (m *MappingQ1) FillFaceValues(cell mesh.Cell, face int, data MappingData, out *MappingOutput) {
	var (
		d = data.(*q1Data)
	)
	if !d.isFace {
		panic(fmt.Errorf("mapping data was built for cell evaluation, not faces"))
	}
	m.fillGeometry(cell, d, out, true)
	d.rememberVertices(cell)
}

func (m *MappingQ1) FillSubfaceValues(cell mesh.Cell, face, subface int,
	data MappingData, out *MappingOutput) {
	m.FillFaceValues(cell, face, data, out)
}

func (m *MappingQ1) fillGeometry(cell mesh.Cell, d *q1Data, out *MappingOutput, isFace bool) {
	var (
		dim = cell.Dim()
		nv  = cell.NVertices()
		nq  = len(d.points)
	)
	for q := 0; q < nq; q++ {
		if out.QuadraturePoints != nil {
			var x tensor.Vec
			x.Dim = dim
			for v := 0; v < nv; v++ {
				x = x.Add(cell.Vertex(v).Scale(d.phi[v][q]))
			}
			out.QuadraturePoints[q] = x
		}
		var J tensor.Tensor2
		if out.Jacobians != nil {
			J.Dim = dim
			for v := 0; v < nv; v++ {
				X := cell.Vertex(v)
				g := d.dphi[v][q]
				for i := 0; i < dim; i++ {
					for j := 0; j < dim; j++ {
						J.D[i][j] += X.D[i] * g.D[j]
					}
				}
			}
			out.Jacobians[q] = J
		}
		if out.InverseJacobians != nil {
			out.InverseJacobians[q] = J.Inverse()
		}
		if out.JacobianGrads != nil {
			var JG tensor.Tensor3
			JG.Dim = dim
			for v := 0; v < nv; v++ {
				X := cell.Vertex(v)
				h := d.d2phi[v][q]
				for i := 0; i < dim; i++ {
					for j := 0; j < dim; j++ {
						for k := 0; k < dim; k++ {
							JG.D[i][j][k] += X.D[i] * h.D[j][k]
						}
					}
				}
			}
			out.JacobianGrads[q] = JG
		}
		if out.Jacobian2ndDerivatives != nil {
			var J2 tensor.Tensor4
			J2.Dim = dim
			for v := 0; v < nv; v++ {
				X := cell.Vertex(v)
				t := d.d3phi[v][q]
				for i := 0; i < dim; i++ {
					for j := 0; j < dim; j++ {
						for k := 0; k < dim; k++ {
							for l := 0; l < dim; l++ {
								J2.D[i][j][k][l] += X.D[i] * t.D[j][k][l]
							}
						}
					}
				}
			}
			out.Jacobian2ndDerivatives[q] = J2
		}
		if out.Jacobian3rdDerivatives != nil {
			// fourth derivatives of a d-linear map vanish identically
			out.Jacobian3rdDerivatives[q] = tensor.NewTensor5(dim)
		}
		if out.JacobianPushedForwardGrads != nil {
			out.JacobianPushedForwardGrads[q] = pushForwardGrad(
				out.JacobianGrads[q], out.InverseJacobians[q])
		}
		if out.JacobianPushedForward2nds != nil {
			out.JacobianPushedForward2nds[q] = pushForward2nd(
				out.Jacobian2ndDerivatives[q], out.InverseJacobians[q])
		}
		if out.JacobianPushedForward3rds != nil {
			out.JacobianPushedForward3rds[q] = pushForward3rd(
				out.Jacobian3rdDerivatives[q], out.InverseJacobians[q])
		}
		if isFace {
			bf := boundaryForm(J, d.t1, d.t2, dim)
			if out.BoundaryForms != nil {
				out.BoundaryForms[q] = bf
			}
			if out.NormalVectors != nil {
				n := bf.Norm()
				if n < 1.e-14 {
					panic(fmt.Errorf("degenerate face, |boundary form| = %v", n))
				}
				out.NormalVectors[q] = bf.Scale(1 / n)
			}
			if out.JxW != nil {
				out.JxW[q] = bf.Norm() * d.weights[q]
			}
		} else if out.JxW != nil {
			det := J.Det()
			if det <= 0 {
				panic(fmt.Errorf("distorted or inverted cell %d: jacobian determinant = %v",
					cell.Index, det))
			}
			out.JxW[q] = det * d.weights[q]
		}
	}
}

func (d *q1Data) rememberVertices(cell mesh.Cell) {
	var (
		nv = cell.NVertices()
	)
	if d.prevVerts == nil {
		d.prevVerts = make([]tensor.Vec, nv)
	}
	for v := 0; v < nv; v++ {
		d.prevVerts[v] = cell.Vertex(v)
	}
}

// boundaryForm computes the non-normalized outward normal scaled by the
// surface element: 1D the outward unit value at the vertex, 2D the mapped
// tangent rotated by -90 degrees, 3D the cross product of the mapped
// tangents.
func boundaryForm(J tensor.Tensor2, t1, t2 tensor.Vec, dim int) (bf tensor.Vec) {
	switch dim {
	case 1:
		bf.Dim = 1
		// t1 carries the outward direction for vertex faces
		bf.D[0] = t1.D[0]
	case 2:
		T := J.MulVec(t1)
		bf.Dim = 2
		bf.D[0] = T.D[1]
		bf.D[1] = -T.D[0]
	case 3:
		bf = J.MulVec(t1).Cross(J.MulVec(t2))
	}
	return
}

func pushForwardGrad(jg tensor.Tensor3, jinv tensor.Tensor2) (r tensor.Tensor3) {
	var (
		dim = jinv.Dim
	)
	r.Dim = dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				var sum float64
				for l := 0; l < dim; l++ {
					for n := 0; n < dim; n++ {
						sum += jg.D[i][l][n] * jinv.D[l][j] * jinv.D[n][k]
					}
				}
				r.D[i][j][k] = sum
			}
		}
	}
	return
}

func pushForward2nd(j2 tensor.Tensor4, jinv tensor.Tensor2) (r tensor.Tensor4) {
	var (
		dim = jinv.Dim
	)
	r.Dim = dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				for l := 0; l < dim; l++ {
					var sum float64
					for a := 0; a < dim; a++ {
						for b := 0; b < dim; b++ {
							for c := 0; c < dim; c++ {
								sum += j2.D[i][a][b][c] * jinv.D[a][j] * jinv.D[b][k] * jinv.D[c][l]
							}
						}
					}
					r.D[i][j][k][l] = sum
				}
			}
		}
	}
	return
}

func pushForward3rd(j3 tensor.Tensor5, jinv tensor.Tensor2) (r tensor.Tensor5) {
	var (
		dim = jinv.Dim
	)
	r.Dim = dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				for l := 0; l < dim; l++ {
					for m := 0; m < dim; m++ {
						var sum float64
						for a := 0; a < dim; a++ {
							for b := 0; b < dim; b++ {
								for c := 0; c < dim; c++ {
									for e := 0; e < dim; e++ {
										sum += j3.D[i][a][b][c][e] *
											jinv.D[a][j] * jinv.D[b][k] * jinv.D[c][l] * jinv.D[e][m]
									}
								}
							}
						}
						r.D[i][j][k][l][m] = sum
					}
				}
			}
		}
	}
	return
}

// referenceFaceFrame returns the center and tangent vectors of a face in
// reference-cell coordinates. For 1D cells the first tangent carries the
// outward normal direction instead.
func referenceFaceFrame(g mesh.GeometryType, face int) (center, t1, t2 tensor.Vec) {
	var (
		fv = g.FaceVertices()
		vc = g.VertexCoords()
	)
	if face < 0 || face >= len(fv) {
		panic(fmt.Errorf("%w: face %d, geometry %v has %d faces",
			ErrIndexRange, face, g, len(fv)))
	}
	verts := fv[face]
	switch g.Dim() {
	case 1:
		center = vc[verts[0]]
		t1 = tensor.NewVec(1, center.D[0]) // outward: -1 at r=-1, +1 at r=+1
	case 2:
		a, b := vc[verts[0]], vc[verts[1]]
		center = a.Add(b).Scale(0.5)
		t1 = b.Sub(a).Scale(0.5)
	case 3:
		p0, p1, p2, p3 := vc[verts[0]], vc[verts[1]], vc[verts[2]], vc[verts[3]]
		center = p0.Add(p1).Add(p2).Add(p3).Scale(0.25)
		t1 = p1.Sub(p0).Scale(0.5)
		t2 = p3.Sub(p0).Scale(0.5)
	}
	return
}

// subfaceOffsets returns the face-coordinate offsets of an isotropic child
// of the reference face.
func subfaceOffsets(g mesh.GeometryType, subface int) (off [2]float64) {
	var (
		n = g.NSubfaces()
	)
	if subface < 0 || subface >= n {
		panic(fmt.Errorf("%w: subface %d, geometry %v has %d subfaces per face",
			ErrIndexRange, subface, g, n))
	}
	switch g.Dim() {
	case 2:
		off[0] = float64(subface) - 0.5
	case 3:
		off[0] = float64(subface%2) - 0.5
		off[1] = float64(subface/2) - 0.5
	}
	return
}

// ComputeCellSimilarity compares the current cell's vertices against verts
// (the previously visited cell's): equal vertex sets are identical, a
// uniform displacement is a translation, anything else gets no reuse.
func ComputeCellSimilarity(cell mesh.Cell, verts []tensor.Vec) CellSimilarity {
	var (
		nv = cell.NVertices()
	)
	if verts == nil || len(verts) != nv {
		return SimilarityNone
	}
	var (
		t         = cell.Vertex(0).Sub(verts[0])
		identical = true
		tol       = 1.e-14
	)
	for v := 0; v < nv; v++ {
		dv := cell.Vertex(v).Sub(verts[v])
		if dv.Sub(t).Norm() > tol {
			return SimilarityNone
		}
		if dv.Norm() > tol {
			identical = false
		}
	}
	if identical {
		return SimilarityIdentical
	}
	return SimilarityTranslation
}

// vertexShapeValue evaluates the d-linear vertex basis function of the
// geometry at a reference point.
func vertexShapeValue(g mesh.GeometryType, v int, pt tensor.Vec) (val float64) {
	if g == mesh.Tri {
		L := barycentric(pt)
		return L[v]
	}
	var (
		xi  = g.VertexCoords()[v]
		dim = g.Dim()
	)
	val = 1
	for d := 0; d < dim; d++ {
		val *= 0.5 * (1 + pt.D[d]*xi.D[d])
	}
	return
}

func vertexShapeGradient(g mesh.GeometryType, v int, pt tensor.Vec) (grad tensor.Vec) {
	if g == mesh.Tri {
		return simplexGradL[v]
	}
	var (
		xi  = g.VertexCoords()[v]
		dim = g.Dim()
	)
	grad.Dim = dim
	for a := 0; a < dim; a++ {
		p := 0.5 * xi.D[a]
		for d := 0; d < dim; d++ {
			if d != a {
				p *= 0.5 * (1 + pt.D[d]*xi.D[d])
			}
		}
		grad.D[a] = p
	}
	return
}

func vertexShape2nd(g mesh.GeometryType, v int, pt tensor.Vec) (h tensor.Tensor2) {
	h.Dim = g.Dim()
	if g == mesh.Tri {
		return
	}
	var (
		xi  = g.VertexCoords()[v]
		dim = g.Dim()
	)
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			if a == b {
				continue // each direction is linear
			}
			p := 0.25 * xi.D[a] * xi.D[b]
			for d := 0; d < dim; d++ {
				if d != a && d != b {
					p *= 0.5 * (1 + pt.D[d]*xi.D[d])
				}
			}
			h.D[a][b] = p
		}
	}
	return
}

func vertexShape3rd(g mesh.GeometryType, v int, pt tensor.Vec) (t tensor.Tensor3) {
	t.Dim = g.Dim()
	if g != mesh.Hex {
		return // only the trilinear map has a nonzero mixed third derivative
	}
	var (
		xi = g.VertexCoords()[v]
	)
	p := 0.125 * xi.D[0] * xi.D[1] * xi.D[2]
	// nonzero only for all three directions distinct
	t.D[0][1][2], t.D[0][2][1] = p, p
	t.D[1][0][2], t.D[1][2][0] = p, p
	t.D[2][0][1], t.D[2][1][0] = p, p
	return
}
