// Package tensor provides small fixed-size tensors of rank 1 through 5
// over spatial dimensions 1 to 3, the value types stored in the
// finite-element evaluation tables. All types have value semantics and are
// backed by [3]-sized arrays regardless of Dim; entries at or beyond Dim
// are kept at zero.
package tensor

import (
	"fmt"
	"math"
)

// Vec is a rank-1 tensor (a point or vector in real or reference space).
type Vec struct {
	Dim int
	D   [3]float64
}

func NewVec(dim int, vals ...float64) (v Vec) {
	checkDim(dim)
	v.Dim = dim
	for i, val := range vals {
		v.D[i] = val
	}
	return
}

func (v Vec) At(i int) float64 { return v.D[i] }

func (v Vec) Add(a Vec) (r Vec) {
	r = v
	for i := 0; i < v.Dim; i++ {
		r.D[i] += a.D[i]
	}
	return
}

func (v Vec) Sub(a Vec) (r Vec) {
	r = v
	for i := 0; i < v.Dim; i++ {
		r.D[i] -= a.D[i]
	}
	return
}

func (v Vec) Scale(a float64) (r Vec) {
	r = v
	for i := 0; i < v.Dim; i++ {
		r.D[i] *= a
	}
	return
}

func (v Vec) Dot(a Vec) (d float64) {
	for i := 0; i < v.Dim; i++ {
		d += v.D[i] * a.D[i]
	}
	return
}

func (v Vec) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Cross is defined for Dim == 3 only.
func (v Vec) Cross(a Vec) (r Vec) {
	if v.Dim != 3 {
		panic(fmt.Errorf("cross product requires dim = 3, have %d", v.Dim))
	}
	r.Dim = 3
	r.D[0] = v.D[1]*a.D[2] - v.D[2]*a.D[1]
	r.D[1] = v.D[2]*a.D[0] - v.D[0]*a.D[2]
	r.D[2] = v.D[0]*a.D[1] - v.D[1]*a.D[0]
	return
}

// Tensor2 is a rank-2 tensor, e.g. a Jacobian or a shape-function hessian.
type Tensor2 struct {
	Dim int
	D   [3][3]float64
}

func NewTensor2(dim int) (t Tensor2) {
	checkDim(dim)
	t.Dim = dim
	return
}

func (t Tensor2) At(i, j int) float64 { return t.D[i][j] }

func (t *Tensor2) Set(i, j int, val float64) { t.D[i][j] = val }

func (t *Tensor2) AddAt(i, j int, val float64) { t.D[i][j] += val }

func (t Tensor2) Add(a Tensor2) (r Tensor2) {
	r = t
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i][j] += a.D[i][j]
		}
	}
	return
}

func (t Tensor2) Scale(a float64) (r Tensor2) {
	r = t
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i][j] *= a
		}
	}
	return
}

func (t Tensor2) Transpose() (r Tensor2) {
	r.Dim = t.Dim
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i][j] = t.D[j][i]
		}
	}
	return
}

func (t Tensor2) Trace() (tr float64) {
	for i := 0; i < t.Dim; i++ {
		tr += t.D[i][i]
	}
	return
}

func (t Tensor2) Symmetrize() (r Tensor2) {
	r.Dim = t.Dim
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i][j] = 0.5 * (t.D[i][j] + t.D[j][i])
		}
	}
	return
}

func (t Tensor2) MulVec(v Vec) (r Vec) {
	r.Dim = t.Dim
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i] += t.D[i][j] * v.D[j]
		}
	}
	return
}

// TMulVec applies the transpose, r = tᵀ v.
func (t Tensor2) TMulVec(v Vec) (r Vec) {
	r.Dim = t.Dim
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			r.D[i] += t.D[j][i] * v.D[j]
		}
	}
	return
}

func (t Tensor2) Mul(a Tensor2) (r Tensor2) {
	r.Dim = t.Dim
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			for k := 0; k < t.Dim; k++ {
				r.D[i][j] += t.D[i][k] * a.D[k][j]
			}
		}
	}
	return
}

func (t Tensor2) Det() float64 {
	switch t.Dim {
	case 1:
		return t.D[0][0]
	case 2:
		return t.D[0][0]*t.D[1][1] - t.D[0][1]*t.D[1][0]
	case 3:
		return t.D[0][0]*(t.D[1][1]*t.D[2][2]-t.D[1][2]*t.D[2][1]) -
			t.D[0][1]*(t.D[1][0]*t.D[2][2]-t.D[1][2]*t.D[2][0]) +
			t.D[0][2]*(t.D[1][0]*t.D[2][1]-t.D[1][1]*t.D[2][0])
	}
	panic(fmt.Errorf("invalid tensor dimension %d", t.Dim))
}

func (t Tensor2) Inverse() (r Tensor2) {
	var (
		det = t.Det()
	)
	if math.Abs(det) < 1.e-14 {
		panic(fmt.Errorf("singular tensor, determinant = %v", det))
	}
	r.Dim = t.Dim
	oneOverDet := 1. / det
	switch t.Dim {
	case 1:
		r.D[0][0] = oneOverDet
	case 2:
		r.D[0][0] = t.D[1][1] * oneOverDet
		r.D[0][1] = -t.D[0][1] * oneOverDet
		r.D[1][0] = -t.D[1][0] * oneOverDet
		r.D[1][1] = t.D[0][0] * oneOverDet
	case 3:
		r.D[0][0] = (t.D[1][1]*t.D[2][2] - t.D[1][2]*t.D[2][1]) * oneOverDet
		r.D[0][1] = (t.D[0][2]*t.D[2][1] - t.D[0][1]*t.D[2][2]) * oneOverDet
		r.D[0][2] = (t.D[0][1]*t.D[1][2] - t.D[0][2]*t.D[1][1]) * oneOverDet
		r.D[1][0] = (t.D[1][2]*t.D[2][0] - t.D[1][0]*t.D[2][2]) * oneOverDet
		r.D[1][1] = (t.D[0][0]*t.D[2][2] - t.D[0][2]*t.D[2][0]) * oneOverDet
		r.D[1][2] = (t.D[0][2]*t.D[1][0] - t.D[0][0]*t.D[1][2]) * oneOverDet
		r.D[2][0] = (t.D[1][0]*t.D[2][1] - t.D[1][1]*t.D[2][0]) * oneOverDet
		r.D[2][1] = (t.D[0][1]*t.D[2][0] - t.D[0][0]*t.D[2][1]) * oneOverDet
		r.D[2][2] = (t.D[0][0]*t.D[1][1] - t.D[0][1]*t.D[1][0]) * oneOverDet
	}
	return
}

// Tensor3 is a rank-3 tensor, e.g. a Jacobian gradient or a vector-valued
// shape-function hessian.
type Tensor3 struct {
	Dim int
	D   [3][3][3]float64
}

func NewTensor3(dim int) (t Tensor3) {
	checkDim(dim)
	t.Dim = dim
	return
}

func (t Tensor3) At(i, j, k int) float64 { return t.D[i][j][k] }

func (t *Tensor3) Set(i, j, k int, val float64) { t.D[i][j][k] = val }

func (t *Tensor3) AddAt(i, j, k int, val float64) { t.D[i][j][k] += val }

func (t Tensor3) Add(a Tensor3) (r Tensor3) {
	r = t
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			for k := 0; k < t.Dim; k++ {
				r.D[i][j][k] += a.D[i][j][k]
			}
		}
	}
	return
}

func (t Tensor3) Scale(a float64) (r Tensor3) {
	r = t
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			for k := 0; k < t.Dim; k++ {
				r.D[i][j][k] *= a
			}
		}
	}
	return
}

// Tensor4 is a rank-4 tensor, e.g. a second derivative of a Jacobian.
type Tensor4 struct {
	Dim int
	D   [3][3][3][3]float64
}

func NewTensor4(dim int) (t Tensor4) {
	checkDim(dim)
	t.Dim = dim
	return
}

func (t Tensor4) At(i, j, k, l int) float64 { return t.D[i][j][k][l] }

func (t *Tensor4) Set(i, j, k, l int, val float64) { t.D[i][j][k][l] = val }

func (t *Tensor4) AddAt(i, j, k, l int, val float64) { t.D[i][j][k][l] += val }

func (t Tensor4) Scale(a float64) (r Tensor4) {
	r = t
	for i := 0; i < t.Dim; i++ {
		for j := 0; j < t.Dim; j++ {
			for k := 0; k < t.Dim; k++ {
				for l := 0; l < t.Dim; l++ {
					r.D[i][j][k][l] *= a
				}
			}
		}
	}
	return
}

// Tensor5 is a rank-5 tensor; it only appears as the third derivative of a
// Jacobian and carries no algebra beyond element access.
type Tensor5 struct {
	Dim int
	D   [3][3][3][3][3]float64
}

func NewTensor5(dim int) (t Tensor5) {
	checkDim(dim)
	t.Dim = dim
	return
}

func (t Tensor5) At(i, j, k, l, m int) float64 { return t.D[i][j][k][l][m] }

func (t *Tensor5) Set(i, j, k, l, m int, val float64) { t.D[i][j][k][l][m] = val }

func (t *Tensor5) AddAt(i, j, k, l, m int, val float64) { t.D[i][j][k][l][m] += val }

func checkDim(dim int) {
	if dim < 1 || dim > 3 {
		panic(fmt.Errorf("invalid tensor dimension %d", dim))
	}
}
