package tensor

import "fmt"

// NSymComponents returns the number of independent components of a
// symmetric rank-2 tensor in dim dimensions: 1, 3, 6.
func NSymComponents(dim int) int {
	return dim * (dim + 1) / 2
}

// SymUnrolledToIndices maps an unrolled symmetric-tensor component index to
// its (i,j) tensor entry, diagonal entries first:
// 2D: 00, 11, 01; 3D: 00, 11, 22, 01, 02, 12.
func SymUnrolledToIndices(dim, u int) (i, j int) {
	if u < 0 || u >= NSymComponents(dim) {
		panic(fmt.Errorf("unrolled index %d out of range for dim %d", u, dim))
	}
	if u < dim {
		return u, u
	}
	switch dim {
	case 2:
		return 0, 1
	case 3:
		switch u {
		case 3:
			return 0, 1
		case 4:
			return 0, 2
		case 5:
			return 1, 2
		}
	}
	panic(fmt.Errorf("unrolled index %d out of range for dim %d", u, dim))
}

// SymIndicesToUnrolled is the inverse of SymUnrolledToIndices; (i,j) and
// (j,i) map to the same unrolled index.
func SymIndicesToUnrolled(dim, i, j int) (u int) {
	if i > j {
		i, j = j, i
	}
	if i == j {
		return i
	}
	switch dim {
	case 2:
		return 2
	case 3:
		switch {
		case i == 0 && j == 1:
			return 3
		case i == 0 && j == 2:
			return 4
		default:
			return 5
		}
	}
	panic(fmt.Errorf("indices (%d,%d) out of range for dim %d", i, j, dim))
}

// UnrolledToIndices maps an unrolled full rank-2 tensor component index to
// (i,j), row-major.
func UnrolledToIndices(dim, u int) (i, j int) {
	if u < 0 || u >= dim*dim {
		panic(fmt.Errorf("unrolled index %d out of range for dim %d", u, dim))
	}
	return u / dim, u % dim
}
