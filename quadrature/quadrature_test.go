package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaussLegendre1D(t *testing.T) {
	var (
		tol = 1.e-12
	)
	for np := 1; np <= 8; np++ {
		q := NewGaussLegendre1D(np)
		assert.Equal(t, np, q.NPoints())

		// Weights sum to the interval measure.
		var wsum float64
		for i := 0; i < np; i++ {
			wsum += q.Weight(i)
			assert.True(t, q.Point(i).D[0] > -1 && q.Point(i).D[0] < 1)
		}
		assert.InDelta(t, 2.0, wsum, tol)

		// Exact for polynomials up to degree 2*np-1.
		for degree := 0; degree <= 2*np-1; degree++ {
			var got float64
			for i := 0; i < np; i++ {
				got += q.Weight(i) * math.Pow(q.Point(i).D[0], float64(degree))
			}
			want := 0.0
			if degree%2 == 0 {
				want = 2.0 / float64(degree+1)
			}
			assert.InDelta(t, want, got, tol, "np=%d degree=%d", np, degree)
		}
	}
}

func TestGaussTensorProduct(t *testing.T) {
	var (
		tol = 1.e-12
	)
	for _, dim := range []int{2, 3} {
		q := NewGauss(dim, 3)
		assert.Equal(t, dim, q.Dim)
		assert.Equal(t, int(math.Pow(3, float64(dim))), q.NPoints())

		var wsum float64
		for i := 0; i < q.NPoints(); i++ {
			wsum += q.Weight(i)
		}
		assert.InDelta(t, math.Pow(2, float64(dim)), wsum, tol)

		// Mixed monomial x^2 y^2 (z^2) integrated exactly.
		var got float64
		for i := 0; i < q.NPoints(); i++ {
			p := q.Point(i)
			v := q.Weight(i)
			for d := 0; d < dim; d++ {
				v *= p.D[d] * p.D[d]
			}
			got += v
		}
		assert.InDelta(t, math.Pow(2.0/3.0, float64(dim)), got, tol)
	}
}

func TestGaussSimplex(t *testing.T) {
	var (
		tol = 1.e-10
	)
	for np := 1; np <= 5; np++ {
		q := NewGaussSimplex(np)
		var wsum float64
		for i := 0; i < q.NPoints(); i++ {
			wsum += q.Weight(i)
			// all points strictly inside the reference triangle
			p := q.Point(i)
			assert.True(t, p.D[0] > -1 && p.D[1] > -1 && p.D[0]+p.D[1] < 0)
		}
		// reference triangle has measure 2
		assert.InDelta(t, 2.0, wsum, tol)
	}

	// monomial moments over the measure-2 reference triangle with
	// vertices (-1,-1),(1,-1),(-1,1): int r = -2/3, int r^2 = 2/3,
	// int rs = 0, int r^3 = -2/5
	q := NewGaussSimplex(4)
	var ir, ir2, irs, ir3 float64
	for i := 0; i < q.NPoints(); i++ {
		p := q.Point(i)
		w := q.Weight(i)
		ir += w * p.D[0]
		ir2 += w * p.D[0] * p.D[0]
		irs += w * p.D[0] * p.D[1]
		ir3 += w * p.D[0] * p.D[0] * p.D[0]
	}
	assert.InDelta(t, -2.0/3.0, ir, tol)
	assert.InDelta(t, 2.0/3.0, ir2, tol)
	assert.InDelta(t, 0.0, irs, tol)
	assert.InDelta(t, -2.0/5.0, ir3, tol)
}

func TestJacobiGQMoments(t *testing.T) {
	// N+1 point Gauss-Jacobi is exact for degree 2N+1 against the
	// weight (1-x)^alpha (1+x)^beta; nonzero alpha-beta exercises the
	// recurrence diagonal.
	var (
		tol    = 1.e-12
		moment = func(alpha, beta float64, k int) (m float64) {
			// int (1-x)^a (1+x)^b x^k with a,b in {0,1}
			mono := func(p int) float64 {
				if p%2 == 0 {
					return 2.0 / float64(p+1)
				}
				return 0.0
			}
			m = mono(k) + (beta-alpha)*mono(k+1) - alpha*beta*mono(k+2)
			return
		}
	)
	for _, ab := range [][2]float64{{1, 0}, {0, 1}, {1, 1}} {
		alpha, beta := ab[0], ab[1]
		for N := 0; N <= 5; N++ {
			X, W := JacobiGQ(alpha, beta, N)
			for k := 0; k <= 2*N+1; k++ {
				var got float64
				for i := 0; i <= N; i++ {
					got += W.AtVec(i) * math.Pow(X.AtVec(i), float64(k))
				}
				assert.InDelta(t, moment(alpha, beta, k), got, tol,
					"alpha=%g beta=%g N=%d k=%d", alpha, beta, N, k)
			}
		}
	}
}

func TestJacobiGL(t *testing.T) {
	var (
		tol = 1.e-12
	)
	for n := 1; n <= 5; n++ {
		x := JacobiGL(0, 0, n)
		assert.Equal(t, n+1, x.Len())
		assert.InDelta(t, -1.0, x.AtVec(0), tol)
		assert.InDelta(t, 1.0, x.AtVec(n), tol)
		for i := 1; i <= n; i++ {
			assert.True(t, x.AtVec(i) > x.AtVec(i-1))
		}
	}
	// Degree-2 interior node is the origin.
	x := JacobiGL(0, 0, 2)
	assert.InDelta(t, 0.0, x.AtVec(1), tol)
}

func TestMidpointRule(t *testing.T) {
	q := NewMidpoint(2, false)
	assert.Equal(t, 1, q.NPoints())
	assert.InDelta(t, 4.0, q.Weight(0), 1.e-14)
	assert.InDelta(t, 0.0, q.Point(0).D[0], 1.e-14)

	qs := NewMidpoint(2, true)
	assert.InDelta(t, 2.0, qs.Weight(0), 1.e-14)
}

func TestPointRule(t *testing.T) {
	q := NewPointRule()
	assert.Equal(t, 0, q.Dim)
	assert.Equal(t, 1, q.NPoints())
	assert.InDelta(t, 1.0, q.Weight(0), 1.e-14)
}
