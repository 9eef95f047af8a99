package quadrature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/utils"
)

// JacobiGQ computes the N+1 point Gauss quadrature rule for the Jacobi
// weight (1-x)^alpha (1+x)^beta on [-1,1] by the Golub-Welsch algorithm.
func JacobiGQ(alpha, beta float64, N int) (X, W utils.Vector) {
	var (
		x, w       []float64
		fac        float64
		h1, d0, d1 []float64
	)
	if N == 0 {
		x = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		w = []float64{gamma0(alpha, beta)}
		return utils.NewVector(len(x), x), utils.NewVector(len(w), w)
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: (beta^2-alpha^2)./(h1+2)./h1
	d0 = make([]float64, N+1)
	fac = beta*beta - alpha*alpha
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// first off-diagonal
	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) /
			((val + 1.) * (val + 3.)))
	}

	JJ := utils.NewSymTriDiagonal(d0, d1)

	var eig mat.EigenSym
	ok := eig.Factorize(JJ, true)
	if !ok {
		panic("eigenvalue decomposition failed")
	}
	x = eig.Values(x)
	X = utils.NewVector(N+1, x)

	VVr := mat.NewDense(len(x), len(x), nil)
	eig.VectorsTo(VVr)
	W = utils.NewVector(len(x), append([]float64{}, VVr.RawRowView(0)...)).POW(2).Scale(gamma0(alpha, beta))
	return X, W
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Pow(2, ab1) / ab1 * math.Gamma(a1) * math.Gamma(b1) / math.Gamma(ab1)
}

// NewGaussLegendre1D returns the np point Gauss-Legendre rule on [-1,1],
// exact for polynomials of degree 2*np-1.
func NewGaussLegendre1D(np int) *Rule {
	if np < 1 {
		panic(fmt.Errorf("quadrature rule needs at least one point, have %d", np))
	}
	X, W := JacobiGQ(0, 0, np-1)
	points := make([][]float64, np)
	for i := 0; i < np; i++ {
		points[i] = []float64{X.AtVec(i)}
	}
	return newRule(1, points, W.DataP)
}

// NewGauss returns the tensor-product Gauss-Legendre rule with np points
// per direction on the reference line, quad or hex [-1,1]^dim.
func NewGauss(dim, np int) *Rule {
	var (
		line = NewGaussLegendre1D(np)
	)
	switch dim {
	case 1:
		return line
	case 2, 3:
		return newTensorProduct(line, dim)
	}
	panic(fmt.Errorf("invalid dimension %d", dim))
}

func newTensorProduct(line *Rule, dim int) *Rule {
	var (
		n1     = line.NPoints()
		np     = utils.POW(float64(n1), dim)
		points = make([][]float64, 0, int(np))
		wts    = make([]float64, 0, int(np))
	)
	switch dim {
	case 2:
		for j := 0; j < n1; j++ {
			for i := 0; i < n1; i++ {
				points = append(points,
					[]float64{line.Points.At(i, 0), line.Points.At(j, 0)})
				wts = append(wts, line.Weight(i)*line.Weight(j))
			}
		}
	case 3:
		for k := 0; k < n1; k++ {
			for j := 0; j < n1; j++ {
				for i := 0; i < n1; i++ {
					points = append(points,
						[]float64{line.Points.At(i, 0), line.Points.At(j, 0), line.Points.At(k, 0)})
					wts = append(wts, line.Weight(i)*line.Weight(j)*line.Weight(k))
				}
			}
		}
	}
	return newRule(dim, points, wts)
}

// NewGaussSimplex returns a rule on the reference triangle obtained by
// collapsing a tensor-product rule through the Duffy transform, using the
// Jacobi (1,0) weight in the collapsed direction to absorb the area factor.
func NewGaussSimplex(np int) *Rule {
	var (
		Xa, Wa = JacobiGQ(0, 0, np-1)
		Xb, Wb = JacobiGQ(1, 0, np-1)
		points [][]float64
		wts    []float64
	)
	for j := 0; j < np; j++ {
		for i := 0; i < np; i++ {
			a, b := Xa.AtVec(i), Xb.AtVec(j)
			// collapsed coordinates onto the triangle (-1,-1),(1,-1),(-1,1)
			r := 0.5*(1+a)*(1-b) - 1
			s := b
			points = append(points, []float64{r, s})
			wts = append(wts, 0.5*Wa.AtVec(i)*Wb.AtVec(j))
		}
	}
	return newRule(2, points, wts)
}

// NewMidpoint returns a single-point rule at the barycenter of the
// reference cell, weighted by the reference-cell measure.
func NewMidpoint(dim int, simplex bool) *Rule {
	if simplex {
		if dim != 2 {
			panic(fmt.Errorf("simplex midpoint rule only supported in 2D, have dim = %d", dim))
		}
		return newRule(2, [][]float64{{-1. / 3., -1. / 3.}}, []float64{2})
	}
	var (
		pt  = make([]float64, dim)
		vol = utils.POW(2, dim)
	)
	return newRule(dim, [][]float64{pt}, []float64{vol})
}

// JacobiGL returns the N+1 Gauss-Lobatto points for the Jacobi weight
// (alpha,beta) on [-1,1], endpoints included.
func JacobiGL(alpha, beta float64, N int) (X utils.Vector) {
	var (
		x = make([]float64, N+1)
	)
	if N == 1 {
		x[0] = -1
		x[1] = 1
		return utils.NewVector(N+1, x)
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	x[0] = -1
	x[N] = 1
	for i := 1; i < N; i++ {
		x[i] = xint.AtVec(i - 1)
	}
	return utils.NewVector(N+1, x)
}
