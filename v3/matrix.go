/*
 * matrix.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space, one per row.
// Within the package it is understood that a "vector" is a row vector, i.e. the
// cartesian coordinates of a point in 3D space. The name of some functions in
// the package reflect this.
type Matrix struct {
	*mat.Dense
}

// Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
// data is used directly, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

// NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// VecView returns a view of the ith vector of F. Changes
// in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

// SomeVecs puts in F the vectors of A with the indexes in clist, in the
// same order as clist. F must have len(clist) vectors.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, ac := A.Dims()
	fr, fc := F.Dims()
	if ac != fc || fr != len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val < 0 || val >= ar {
			panic(ErrIndexOutOfRange)
		}
		for j := 0; j < ac; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

// SomeVecsSafe is like SomeVecs, but returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case PanicMsg:
				err = Error{string(e), []string{"SomeVecsSafe"}, true}
			case mat.Error:
				err = Error{fmt.Sprintf("%s: %s", ErrGonum, e.Error()), []string{"SomeVecsSafe"}, true}
			default:
				panic(r)
			}
		}
	}()
	F.SomeVecs(A, clist)
	return nil
}

// AddVec adds vec to each vector of A, putting the result in F.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if vec.NVecs() != 1 || ar != fr {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		F.VecView(i).Dense.Add(A.VecView(i).Dense, vec.Dense)
	}
}

// SubVec subtracts vec from each vector of A, putting the result in F.
func (F *Matrix) SubVec(A, vec *Matrix) {
	neg := Zeros(1)
	neg.Scale(-1, vec)
	F.AddVec(A, neg)
}

// Centroid returns the geometric center of the vectors in F.
func (F *Matrix) Centroid() *Matrix {
	n := F.NVecs()
	ret := Zeros(1)
	if n == 0 {
		return ret
	}
	for j := 0; j < 3; j++ {
		ret.Set(0, j, mat.Sum(F.Dense.ColView(j))/float64(n))
	}
	return ret
}

// String returns a neat string representation of a Matrix.
func (F *Matrix) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < F.NVecs(); i++ {
		if i > 0 {
			b.WriteString("\n ")
		}
		fmt.Fprintf(&b, "%8.3f %8.3f %8.3f", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	b.WriteString("]")
	return b.String()
}

// RMSD returns the root-mean-square deviation between the vectors of A and those of B,
// without any superposition. A and B must have the same number of vectors.
func RMSD(A, B *Matrix) (float64, error) {
	n := A.NVecs()
	if n != B.NVecs() {
		return -1, Error{fmt.Sprintf("%s: %d vs %d vectors", ErrShape, n, B.NVecs()), []string{"RMSD"}, true}
	}
	if n == 0 {
		return 0, nil
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			d := A.At(i, j) - B.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum / float64(n)), nil
}

// det returns the determinant of a 3x3 matrix. Panics if the matrix is not 3x3.
func det(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return (A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) - A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) + A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2)))
}

// SuperRMSD returns the root-mean-square deviation between the vectors of A and those of B
// after optimally superimposing them (Kabsch). Neither A nor B are modified.
// The rotation is never built: the minimal deviation follows from the singular values
// of the covariance matrix, with the sign of the smallest one set by the handedness
// of the covariance.
func SuperRMSD(A, B *Matrix) (float64, error) {
	n := A.NVecs()
	if n != B.NVecs() {
		return -1, Error{fmt.Sprintf("%s: %d vs %d vectors", ErrShape, n, B.NVecs()), []string{"SuperRMSD"}, true}
	}
	if n == 0 {
		return 0, nil
	}
	ca := Zeros(n)
	ca.SubVec(A, A.Centroid())
	cb := Zeros(n)
	cb.SubVec(B, B.Centroid())
	var e0 float64
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			x, y := ca.At(i, j), cb.At(i, j)
			e0 += x*x + y*y
		}
	}
	H := mat.NewDense(3, 3, nil)
	H.Mul(ca.Dense.T(), cb.Dense)
	var svd mat.SVD
	if ok := svd.Factorize(H, mat.SVDNone); !ok {
		return -1, Error{string(ErrGonum) + ": SVD factorization failed", []string{"SuperRMSD"}, true}
	}
	s := svd.Values(nil)
	sum := s[0] + s[1]
	if det(H) < 0 {
		sum -= s[2]
	} else {
		sum += s[2]
	}
	msd := (e0 - 2*sum) / float64(n)
	if msd < 0 {
		msd = 0 //rounding
	}
	return math.Sqrt(msd), nil
}
