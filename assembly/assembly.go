// Package assembly builds global sparse operators by looping FEValues
// over the cells of a mesh and scattering cell-local matrices through a
// DoF layout.
package assembly

import (
	"fmt"

	"github.com/notargets/gofea/fe"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// Scatter accumulates a cell-local matrix into the global system using
// the cell's DoF indices.
func Scatter(K utils.DOK, indices []int, local utils.Matrix) {
	n := len(indices)
	if r, c := local.Dims(); r != n || c != n {
		panic(fmt.Errorf("local matrix is %dx%d, cell has %d DoFs", r, c, n))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			K.Accumulate(indices[i], indices[j], local.At(i, j))
		}
	}
}

// ScatterVector accumulates a cell-local vector into the global rhs.
func ScatterVector(b []float64, indices []int, local []float64) {
	if len(indices) != len(local) {
		panic(fmt.Errorf("local vector has %d entries, cell has %d DoFs",
			len(local), len(indices)))
	}
	for i, gi := range indices {
		b[gi] += local[i]
	}
}

// Assembler drives a cell loop for a fixed element/quadrature pair.
type Assembler struct {
	Mesh    *mesh.Mesh
	Element fe.FiniteElement
	Layout  *mesh.DoFLayout
	Quad    *quadrature.Rule
	Mapping fe.Mapping
}

func NewAssembler(m *mesh.Mesh, el fe.FiniteElement, layout *mesh.DoFLayout,
	q *quadrature.Rule) *Assembler {
	return &Assembler{
		Mesh:    m,
		Element: el,
		Layout:  layout,
		Quad:    q,
		Mapping: fe.NewMappingQ1(),
	}
}

// Stiffness assembles the Laplace operator, integral of grad(phi_i) dot
// grad(phi_j) over each cell.
func (a *Assembler) Stiffness() (K utils.DOK) {
	var (
		fv = fe.NewFEValues(a.Mapping, a.Element, a.Quad,
			fe.UpdateGradients|fe.UpdateJxW)
		n     = a.Element.NDofsPerCell()
		local = utils.NewMatrix(n, n)
	)
	K = utils.NewDOK(a.Layout.NDoFs, a.Layout.NDoFs)
	for c := 0; c < a.Mesh.NCells(); c++ {
		cell := a.Mesh.Cell(c)
		fv.Reinit(cell)
		zero(local)
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			w := fv.JxW(q)
			for i := 0; i < n; i++ {
				gi := fv.ShapeGrad(i, q)
				for j := 0; j < n; j++ {
					local.Set(i, j, local.At(i, j)+w*gi.Dot(fv.ShapeGrad(j, q)))
				}
			}
		}
		Scatter(K, a.Layout.CellIndices(cell), local)
	}
	return
}

// Mass assembles the L2 mass matrix, integral of phi_i phi_j.
func (a *Assembler) Mass() (M utils.DOK) {
	var (
		fv = fe.NewFEValues(a.Mapping, a.Element, a.Quad,
			fe.UpdateValues|fe.UpdateJxW)
		n     = a.Element.NDofsPerCell()
		local = utils.NewMatrix(n, n)
	)
	M = utils.NewDOK(a.Layout.NDoFs, a.Layout.NDoFs)
	for c := 0; c < a.Mesh.NCells(); c++ {
		cell := a.Mesh.Cell(c)
		fv.Reinit(cell)
		zero(local)
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			w := fv.JxW(q)
			for i := 0; i < n; i++ {
				vi := fv.ShapeValue(i, q)
				for j := 0; j < n; j++ {
					local.Set(i, j, local.At(i, j)+w*vi*fv.ShapeValue(j, q))
				}
			}
		}
		Scatter(M, a.Layout.CellIndices(cell), local)
	}
	return
}

// Load assembles the right-hand side for a source term f.
func (a *Assembler) Load(f func(tensor.Vec) float64) (b []float64) {
	var (
		fv = fe.NewFEValues(a.Mapping, a.Element, a.Quad,
			fe.UpdateValues|fe.UpdateJxW|fe.UpdateQuadraturePoints)
		n     = a.Element.NDofsPerCell()
		local = make([]float64, n)
	)
	b = make([]float64, a.Layout.NDoFs)
	for c := 0; c < a.Mesh.NCells(); c++ {
		cell := a.Mesh.Cell(c)
		fv.Reinit(cell)
		for i := range local {
			local[i] = 0
		}
		for q := 0; q < fv.NQuadraturePoints(); q++ {
			w := fv.JxW(q) * f(fv.QuadraturePoint(q))
			for i := 0; i < n; i++ {
				local[i] += w * fv.ShapeValue(i, q)
			}
		}
		ScatterVector(b, a.Layout.CellIndices(cell), local)
	}
	return
}

// BoundaryFlux integrates g dot n over the whole mesh boundary against
// the shape functions, the Neumann contribution to a weak form. A face is
// treated as boundary when no other cell shares its vertex set.
func (a *Assembler) BoundaryFlux(faceQ *quadrature.Rule,
	g func(x, n tensor.Vec) float64) (b []float64) {
	var (
		fv = fe.NewFEFaceValues(a.Mapping, a.Element, faceQ,
			fe.UpdateValues|fe.UpdateJxW|fe.UpdateNormalVectors|fe.UpdateQuadraturePoints)
		n     = a.Element.NDofsPerCell()
		local = make([]float64, n)
		bdry  = boundaryFaces(a.Mesh)
	)
	b = make([]float64, a.Layout.NDoFs)
	for c := 0; c < a.Mesh.NCells(); c++ {
		cell := a.Mesh.Cell(c)
		for f := 0; f < a.Mesh.Geometry.NFaces(); f++ {
			if !bdry[faceKey{c, f}] {
				continue
			}
			fv.ReinitFace(cell, f)
			for i := range local {
				local[i] = 0
			}
			for q := 0; q < fv.NQuadraturePoints(); q++ {
				w := fv.JxW(q) * g(fv.QuadraturePoint(q), fv.NormalVector(q))
				for i := 0; i < n; i++ {
					local[i] += w * fv.ShapeValue(i, q)
				}
			}
			ScatterVector(b, a.Layout.CellIndices(cell), local)
		}
	}
	return
}

type faceKey struct {
	cell, face int
}

// boundaryFaces marks faces whose sorted vertex set occurs exactly once
// in the mesh.
func boundaryFaces(m *mesh.Mesh) (bdry map[faceKey]bool) {
	type vset [4]int
	var (
		count = map[vset]int{}
		keys  = map[faceKey]vset{}
		g     = m.Geometry
	)
	faces := g.FaceVertices()
	for c := 0; c < m.NCells(); c++ {
		for f := 0; f < g.NFaces(); f++ {
			var vs vset
			for i := range vs {
				vs[i] = -1
			}
			for i, lv := range faces[f] {
				vs[i] = m.CellVerts[c][lv]
			}
			sortVSet((*[4]int)(&vs))
			count[vs]++
			keys[faceKey{c, f}] = vs
		}
	}
	bdry = make(map[faceKey]bool)
	for k, vs := range keys {
		if count[vs] == 1 {
			bdry[k] = true
		}
	}
	return
}

func sortVSet(vs *[4]int) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j] < vs[j-1]; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

func zero(m utils.Matrix) {
	for i := range m.DataP {
		m.DataP[i] = 0
	}
}

// ApplyDirichlet eliminates constrained rows and columns of a dense
// system in place: row i becomes identity and the known value moves to
// the rhs.
func ApplyDirichlet(K utils.Matrix, b []float64, constrained map[int]float64) {
	n, _ := K.Dims()
	for i, val := range constrained {
		for j := 0; j < n; j++ {
			if j != i && !hasKey(constrained, j) {
				b[j] -= K.At(j, i) * val
			}
			K.Set(i, j, 0)
			K.Set(j, i, 0)
		}
		K.Set(i, i, 1)
		b[i] = val
	}
}

func hasKey(m map[int]float64, k int) bool {
	_, ok := m[k]
	return ok
}
