package labeling

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"labelfill/internal/models"
)

func TestLabelSet(t *testing.T) {
	s := NewLabelSet("c", "a", "b", "a")
	if diff := cmp.Diff(LabelSet{"a", "b", "c"}, s); diff != "" {
		t.Errorf("unexpected set (-want +got):\n%s", diff)
	}
	if !s.Contains("b") || s.Contains("d") {
		t.Errorf("Contains gave wrong answer for %v", s)
	}

	clone := s.Clone()
	clone.remove("a")
	if !s.Contains("a") {
		t.Error("Clone shares storage with the original")
	}
}

// TestDenseIndexing verifies that voxels map to row-major slots and back
func TestDenseIndexing(t *testing.T) {
	ext := models.Extent{Min: models.Voxel{X: -2, Y: 3, Z: 1}, Max: models.Voxel{X: 4, Y: 7, Z: 3}}
	d := NewDenseExtent(ext)

	for z := ext.Min.Z; z < ext.Max.Z; z++ {
		for y := ext.Min.Y; y < ext.Max.Y; y++ {
			for x := ext.Min.X; x < ext.Max.X; x++ {
				v := models.Voxel{X: x, Y: y, Z: z}
				idx, ok := d.index(v)
				if !ok {
					t.Fatalf("voxel %v reported outside %v", v, ext)
				}
				if back := d.voxel(idx); back != v {
					t.Fatalf("index %d maps back to %v, want %v", idx, back, v)
				}
			}
		}
	}

	if d.Add(models.Voxel{X: 4, Y: 3, Z: 1}, "A") {
		t.Error("Add outside the extent reported a change")
	}
	if got := d.Labels(models.Voxel{X: 100}); got != nil {
		t.Errorf("Expected no labels outside the extent, got %v", got)
	}
}

func TestDenseAddRemove(t *testing.T) {
	d := NewDense(4, 4, 4)
	v := models.Voxel{X: 1, Y: 2, Z: 3}

	if !d.Add(v, "A") {
		t.Error("First Add should change the voxel")
	}
	if d.Add(v, "A") {
		t.Error("Second Add of the same label should not change the voxel")
	}
	if !d.Add(v, "B") {
		t.Error("Adding a second label should change the voxel")
	}
	if diff := cmp.Diff(NewLabelSet("A", "B"), d.Labels(v)); diff != "" {
		t.Errorf("unexpected labels (-want +got):\n%s", diff)
	}

	// returned sets are copies
	got := d.Labels(v)
	got[0] = "Z"
	if d.Labels(v).Contains("Z") {
		t.Error("Labels returned internal storage")
	}

	if !d.Remove(v, "A") || d.Remove(v, "A") {
		t.Error("Remove should change the voxel exactly once")
	}
}

func TestCheckDenseSize(t *testing.T) {
	tests := []struct {
		name                 string
		width, height, depth int64
		tooLarge             bool
		invalid              bool
	}{
		{"small", 64, 64, 16, false, false},
		{"empty", 0, 1 << 40, 1 << 40, false, false},
		{"at the cap", 1 << 10, 1 << 10, 1 << 10, false, false},
		{"over the cap", 1 << 10, 1 << 10, 1<<10 + 1, true, false},
		{"product overflows", 1 << 32, 1 << 32, 2, true, false},
		{"negative", -1, 4, 4, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDenseSize(tt.width, tt.height, tt.depth)
			switch {
			case tt.tooLarge && !errors.Is(err, ErrTooLarge):
				t.Errorf("Expected ErrTooLarge, got %v", err)
			case tt.invalid && err == nil:
				t.Error("Expected error, got nil")
			case !tt.tooLarge && !tt.invalid && err != nil:
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

// TestNewDenseRejectsOverflow verifies that an overflowing size never yields a
// volume that panics on its first write
func TestNewDenseRejectsOverflow(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrTooLarge) {
			t.Errorf("Expected panic with ErrTooLarge, got %v", r)
		}
	}()
	NewDense(1<<32, 1<<32, 2)
	t.Error("NewDense did not panic")
}

func TestOccupied(t *testing.T) {
	s := NewSparse()
	if _, ok := Occupied(s); ok {
		t.Error("Empty volume reported an occupied extent")
	}

	s.Add(models.Voxel{X: -3, Y: 2, Z: 0}, "A")
	s.Add(models.Voxel{X: 5, Y: -1, Z: 7}, "B")

	ext, ok := Occupied(s)
	if !ok {
		t.Fatal("Expected an occupied extent")
	}
	want := models.Extent{Min: models.Voxel{X: -3, Y: -1, Z: 0}, Max: models.Voxel{X: 6, Y: 3, Z: 8}}
	if ext != want {
		t.Errorf("Occupied = %v, want %v", ext, want)
	}
}

func TestSummarize(t *testing.T) {
	d := NewDense(10, 10, 2)
	for x := int64(0); x < 4; x++ {
		d.Add(models.Voxel{X: x, Y: 1, Z: 0}, "A")
	}
	d.Add(models.Voxel{X: 2, Y: 1, Z: 0}, "B")
	d.Add(models.Voxel{X: 2, Y: 3, Z: 1}, "B")

	stats := Summarize(d)
	if len(stats) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(stats))
	}

	a, b := stats[0], stats[1]
	if a.Label != "A" || b.Label != "B" {
		t.Fatalf("Expected labels ordered A, B, got %s, %s", a.Label, b.Label)
	}
	if a.Voxels != 4 || b.Voxels != 2 {
		t.Errorf("Unexpected voxel counts: A=%d B=%d", a.Voxels, b.Voxels)
	}
	if math.Abs(a.Centroid.X-1.5) > 1e-12 || a.Centroid.Y != 1 || a.Centroid.Z != 0 {
		t.Errorf("Unexpected centroid for A: %v", a.Centroid)
	}
	if b.Centroid.Y != 2 || b.Centroid.Z != 0.5 {
		t.Errorf("Unexpected centroid for B: %v", b.Centroid)
	}
	wantExt := models.Extent{Min: models.Voxel{X: 2, Y: 1, Z: 0}, Max: models.Voxel{X: 3, Y: 4, Z: 2}}
	if b.Extent != wantExt {
		t.Errorf("Unexpected extent for B: %v, want %v", b.Extent, wantExt)
	}
}
