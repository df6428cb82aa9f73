package lc50

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// pinv returns the Moore-Penrose pseudo-inverse of a, computed from its
// singular value decomposition.  Singular and near-singular matrices
// are handled by truncating small singular values, which is required
// here because weakly identified groups and collinear designs routinely
// produce rank-deficient Hessians.
func pinv(a mat.Matrix) (*mat.Dense, error) {

	r, c := a.Dims()

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("lc50: SVD of %dx%d matrix failed", r, c)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	// Truncation threshold, relative to the largest singular value.
	d := float64(r)
	if c > r {
		d = float64(c)
	}
	tol := d * 2.220446049250313e-16 * sv[0]

	ds := mat.NewDense(len(sv), len(sv), nil)
	for i, s := range sv {
		if s > tol {
			ds.Set(i, i, 1/s)
		}
	}

	var w, pi mat.Dense
	w.Mul(&v, ds)
	pi.Mul(&w, u.T())

	return &pi, nil
}

// solveLS returns the least squares solution of a*x = b, using a QR
// decomposition of a.
func solveLS(a *mat.Dense, b []float64) ([]float64, error) {

	var qr mat.QR
	qr.Factorize(a)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, mat.NewVecDense(len(b), b)); err != nil {
		// A Condition error still carries a usable solution; anything
		// else is a genuine failure.
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("lc50: least squares solve failed: %v", err)
		}
	}

	return x.RawVector().Data, nil
}

// extractBlock copies the square block of a with the given row/column
// offset and size.
func extractBlock(a *mat.Dense, off, size int) *mat.Dense {

	b := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			b.Set(i, j, a.At(off+i, off+j))
		}
	}

	return b
}
