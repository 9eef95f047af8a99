package mesh

import "fmt"

// DoFLayout assigns global degree-of-freedom indices to each cell. It is
// deliberately a thin collaborator: the evaluation engine only needs
// per-cell local-to-global index retrieval, not a numbering algorithm.
type DoFLayout struct {
	NDoFs    int
	CellDoFs [][]int
	mesh     *Mesh
}

// CellIndices returns the global DoF indices of the cell, ordered to match
// the element's shape-function ordering.
func (d *DoFLayout) CellIndices(c Cell) []int {
	if c.Mesh != d.mesh {
		panic(fmt.Errorf("cell belongs to a different mesh than this DoF layout"))
	}
	return d.CellDoFs[c.Index]
}

// Extract gathers the local coefficients of a cell from a global
// coefficient vector.
func (d *DoFLayout) Extract(c Cell, global []float64) (local []float64) {
	var (
		indices = d.CellIndices(c)
	)
	if len(global) < d.NDoFs {
		panic(fmt.Errorf("global vector has %d entries, layout has %d DoFs",
			len(global), d.NDoFs))
	}
	local = make([]float64, len(indices))
	for i, gi := range indices {
		local[i] = global[gi]
	}
	return
}

// NewVertexLayout numbers ncomp unknowns per mesh vertex, the continuous
// layout for degree-1 elements. Cell DoF i corresponds to vertex i/ncomp
// and component i%ncomp, matching the vector-element shape ordering.
func NewVertexLayout(m *Mesh, ncomp int) (d *DoFLayout) {
	if ncomp < 1 {
		panic(fmt.Errorf("need at least one component, have %d", ncomp))
	}
	d = &DoFLayout{
		NDoFs:    ncomp * len(m.Vertices),
		CellDoFs: make([][]int, m.NCells()),
		mesh:     m,
	}
	for ci, cv := range m.CellVerts {
		dofs := make([]int, 0, ncomp*len(cv))
		for _, v := range cv {
			for c := 0; c < ncomp; c++ {
				dofs = append(dofs, v*ncomp+c)
			}
		}
		d.CellDoFs[ci] = dofs
	}
	return
}

// NewDiscontinuousLayout numbers ndofsPerCell independent unknowns on every
// cell, valid for any element.
func NewDiscontinuousLayout(m *Mesh, ndofsPerCell int) (d *DoFLayout) {
	if ndofsPerCell < 1 {
		panic(fmt.Errorf("need at least one DoF per cell, have %d", ndofsPerCell))
	}
	d = &DoFLayout{
		NDoFs:    ndofsPerCell * m.NCells(),
		CellDoFs: make([][]int, m.NCells()),
		mesh:     m,
	}
	for ci := range m.CellVerts {
		dofs := make([]int, ndofsPerCell)
		for i := range dofs {
			dofs[i] = ci*ndofsPerCell + i
		}
		d.CellDoFs[ci] = dofs
	}
	return
}
