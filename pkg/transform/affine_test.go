package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"labelfill/internal/models"
)

const tol = 1e-9

func vecNear(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < 1e-9
}

// sampleTransforms returns a handful of invertible transforms of the kinds a
// viewing session produces: similarity, anisotropic scaling, shear.
func sampleTransforms(t *testing.T) []*Affine {
	sheared, err := NewAffine([]float64{
		1, 0.3, 0, 4,
		0, 2, 0.1, -1,
		0.2, 0, 0.5, 7,
	})
	if err != nil {
		t.Fatalf("Failed to build sheared transform: %v", err)
	}
	return []*Affine{
		Identity(),
		Translation(r3.Vector{X: 3, Y: -2, Z: 5}),
		Scaling(r3.Vector{X: 0.5, Y: 0.5, Z: 2}),
		RotationZ(math.Pi / 6).Concatenate(Scaling(r3.Vector{X: 2, Y: 2, Z: 2})),
		sheared,
	}
}

// TestInverseRoundTrip verifies that a transform composed with its inverse is the identity
func TestInverseRoundTrip(t *testing.T) {
	for i, a := range sampleTransforms(t) {
		inv, err := a.Inverse()
		if err != nil {
			t.Fatalf("transform %d: unexpected error inverting: %v", i, err)
		}
		if got := a.Concatenate(inv); !got.IsIdentity(tol) {
			t.Errorf("transform %d: a*inverse(a) is not identity: %v", i, got)
		}
		if got := inv.Concatenate(a); !got.IsIdentity(tol) {
			t.Errorf("transform %d: inverse(a)*a is not identity: %v", i, got)
		}

		p := r3.Vector{X: 1.5, Y: -7, Z: 3.25}
		if back := inv.Apply(a.Apply(p)); !vecNear(back, p) {
			t.Errorf("transform %d: point round trip gave %v, want %v", i, back, p)
		}
	}
}

// TestInverseDoesNotMutate checks that inversion leaves its receiver alone
func TestInverseDoesNotMutate(t *testing.T) {
	a := Translation(r3.Vector{X: 1, Y: 2, Z: 3})
	before := a.RowPacked()
	if _, err := a.Inverse(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	after := a.RowPacked()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Inverse mutated its receiver: %v -> %v", before, after)
		}
	}
}

// TestSingularInverse verifies that a flattening transform cannot be inverted
func TestSingularInverse(t *testing.T) {
	flat := Scaling(r3.Vector{X: 1, Y: 1, Z: 0})
	_, err := flat.Inverse()
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("Expected ErrSingular, got %v", err)
	}

	_, err = GlobalToVoxel(flat)
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("Expected ErrSingular from GlobalToVoxel, got %v", err)
	}
}

func TestNewAffine(t *testing.T) {
	if _, err := NewAffine([]float64{1, 2, 3}); err == nil {
		t.Error("Expected error for short row-packed slice, got nil")
	}

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	a, err := NewAffine(values)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := a.RowPacked()
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("RowPacked()[%d] = %f, want %f", i, got[i], values[i])
		}
	}

	p := a.Apply(r3.Vector{X: 1, Y: 1, Z: 1})
	want := r3.Vector{X: 10, Y: 26, Z: 42}
	if !vecNear(p, want) {
		t.Errorf("Apply = %v, want %v", p, want)
	}
}

// TestConcatenateOrder checks that Concatenate applies its argument first
func TestConcatenateOrder(t *testing.T) {
	scale := Scaling(r3.Vector{X: 2, Y: 2, Z: 2})
	shift := Translation(r3.Vector{X: 1, Y: 0, Z: 0})

	p := r3.Vector{X: 1, Y: 1, Z: 1}
	if got := scale.Concatenate(shift).Apply(p); !vecNear(got, r3.Vector{X: 4, Y: 2, Z: 2}) {
		t.Errorf("scale.Concatenate(shift) = %v", got)
	}
	if got := scale.PreConcatenate(shift).Apply(p); !vecNear(got, r3.Vector{X: 3, Y: 2, Z: 2}) {
		t.Errorf("scale.PreConcatenate(shift) = %v", got)
	}
}

func TestResolve(t *testing.T) {
	imageToGlobal := Scaling(r3.Vector{X: 2, Y: 2, Z: 4}).PreConcatenate(Translation(r3.Vector{X: 10, Y: 0, Z: 0}))
	globalToView := Translation(r3.Vector{X: -10, Y: 5, Z: 0})

	voxel := r3.Vector{X: 3, Y: 4, Z: 1}
	global := imageToGlobal.Apply(voxel)
	view := globalToView.Apply(global)

	tests := []struct {
		name  string
		space models.Space
		in    r3.Vector
	}{
		{"voxel", models.VoxelSpace, voxel},
		{"global", models.Global, global},
		{"view", models.View, view},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toVoxel, err := Resolve(tt.space, imageToGlobal, globalToView)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := toVoxel.Apply(tt.in); !vecNear(got, voxel) {
				t.Errorf("Resolve(%v) mapped %v to %v, want %v", tt.space, tt.in, got, voxel)
			}
		})
	}

	if _, err := Resolve(models.Space(42), imageToGlobal, globalToView); !errors.Is(err, ErrUnknownSpace) {
		t.Errorf("Expected ErrUnknownSpace, got %v", err)
	}

	singularView := Scaling(r3.Vector{X: 0, Y: 1, Z: 1})
	if _, err := Resolve(models.View, imageToGlobal, singularView); !errors.Is(err, ErrSingular) {
		t.Errorf("Expected ErrSingular for singular view transform, got %v", err)
	}
	// the view transform is irrelevant for global polygons
	if _, err := Resolve(models.Global, imageToGlobal, singularView); err != nil {
		t.Errorf("Unexpected error resolving global polygon: %v", err)
	}
}

func TestToVoxel(t *testing.T) {
	imageToGlobal := Scaling(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	poly := models.Polygon{
		Points: []r3.Vector{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}},
		Space:  models.Global,
	}
	got, err := ToVoxel(poly, imageToGlobal, Identity())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []r3.Vector{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	for i := range want {
		if !vecNear(got[i], want[i]) {
			t.Errorf("vertex %d = %v, want %v", i, got[i], want[i])
		}
	}
	if poly.Points[1].X != 5 {
		t.Error("ToVoxel modified the input polygon")
	}
}
