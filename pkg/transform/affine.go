// Package transform provides 3-D affine transforms and resolves the map from
// the space a polygon is drawn in to the voxel space of a labeled volume.
package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a transform that must be inverted has no inverse
var ErrSingular = errors.New("transform is singular")

// Affine is an immutable 3-D affine transform held as a 4x4 homogeneous
// matrix whose last row is always 0 0 0 1.
type Affine struct {
	m *mat.Dense
}

// Identity returns the identity transform
func Identity() *Affine {
	return &Affine{m: identityDense()}
}

func identityDense() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// NewAffine builds a transform from 12 row-packed values
//
//	m00 m01 m02 m03  m10 m11 m12 m13  m20 m21 m22 m23
//
// where column 3 is the translation.
func NewAffine(rowPacked []float64) (*Affine, error) {
	if len(rowPacked) != 12 {
		return nil, errors.Errorf("affine transform needs 12 row-packed values, got %d", len(rowPacked))
	}
	data := make([]float64, 16)
	copy(data, rowPacked)
	data[15] = 1
	return &Affine{m: mat.NewDense(4, 4, data)}, nil
}

// Translation returns a transform that shifts points by t
func Translation(t r3.Vector) *Affine {
	m := identityDense()
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return &Affine{m: m}
}

// Scaling returns a transform that scales each axis independently
func Scaling(s r3.Vector) *Affine {
	m := identityDense()
	m.Set(0, 0, s.X)
	m.Set(1, 1, s.Y)
	m.Set(2, 2, s.Z)
	return &Affine{m: m}
}

// RotationZ returns a rotation by angle radians about the z axis
func RotationZ(angle float64) *Affine {
	sin, cos := math.Sincos(angle)
	m := identityDense()
	m.Set(0, 0, cos)
	m.Set(0, 1, -sin)
	m.Set(1, 0, sin)
	m.Set(1, 1, cos)
	return &Affine{m: m}
}

// Apply maps p through the transform
func (a *Affine) Apply(p r3.Vector) r3.Vector {
	m := a.m
	return r3.Vector{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}

// ApplyAll maps every point and returns the results in a new slice
func (a *Affine) ApplyAll(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		out[i] = a.Apply(p)
	}
	return out
}

// Concatenate returns a ∘ other: other is applied first, then a.
func (a *Affine) Concatenate(other *Affine) *Affine {
	var c mat.Dense
	c.Mul(a.m, other.m)
	return &Affine{m: &c}
}

// PreConcatenate returns other ∘ a: a is applied first, then other.
func (a *Affine) PreConcatenate(other *Affine) *Affine {
	return other.Concatenate(a)
}

// Determinant returns the determinant of the linear part
func (a *Affine) Determinant() float64 {
	return mat.Det(a.m.Slice(0, 3, 0, 3))
}

// Inverse returns the inverse transform. It fails with ErrSingular when the
// linear part cannot be inverted.
func (a *Affine) Inverse() (*Affine, error) {
	det := a.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, errors.Wrapf(ErrSingular, "determinant %g", det)
	}
	var inv mat.Dense
	if err := inv.Inverse(a.m); err != nil {
		return nil, errors.Wrap(ErrSingular, err.Error())
	}
	// keep the homogeneous row exact
	inv.Set(3, 0, 0)
	inv.Set(3, 1, 0)
	inv.Set(3, 2, 0)
	inv.Set(3, 3, 1)
	return &Affine{m: &inv}, nil
}

// RowPacked returns the 12 row-packed values of the transform
func (a *Affine) RowPacked() []float64 {
	out := make([]float64, 0, 12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			out = append(out, a.m.At(i, j))
		}
	}
	return out
}

// EqualApprox reports whether both transforms agree element-wise within tol
func (a *Affine) EqualApprox(other *Affine, tol float64) bool {
	return mat.EqualApprox(a.m, other.m, tol)
}

// IsIdentity reports whether the transform is the identity within tol
func (a *Affine) IsIdentity(tol float64) bool {
	return mat.EqualApprox(a.m, identityDense(), tol)
}

func (a *Affine) String() string {
	return fmt.Sprintf("%v", mat.Formatted(a.m.Slice(0, 3, 0, 4), mat.Squeeze()))
}
