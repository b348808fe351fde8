// Package labeling holds labeled volumes and the writer that paints
// rasterized polygons into them.
package labeling

import (
	"slices"

	"github.com/pkg/errors"

	"labelfill/internal/models"
)

// MaxDenseVoxels is the largest number of voxels a Dense volume may hold
const MaxDenseVoxels = 1 << 30

// ErrTooLarge is returned for dense volumes holding more than MaxDenseVoxels
var ErrTooLarge = errors.New("volume too large")

// LabelSet is the sorted set of labels attached to one voxel. A voxel may
// hold several labels at once.
type LabelSet []models.Label

// NewLabelSet returns the set holding the given labels
func NewLabelSet(labels ...models.Label) LabelSet {
	var s LabelSet
	for _, l := range labels {
		s.add(l)
	}
	return s
}

// Contains reports whether l is in the set
func (s LabelSet) Contains(l models.Label) bool {
	_, found := slices.BinarySearch(s, l)
	return found
}

// Len returns the number of labels in the set
func (s LabelSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set
func (s LabelSet) Clone() LabelSet {
	return slices.Clone(s)
}

func (s *LabelSet) add(l models.Label) bool {
	i, found := slices.BinarySearch(*s, l)
	if found {
		return false
	}
	*s = slices.Insert(*s, i, l)
	return true
}

func (s *LabelSet) remove(l models.Label) bool {
	i, found := slices.BinarySearch(*s, l)
	if !found {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// Volume is random-access storage mapping voxels to label sets. Add and
// Remove report whether the voxel's set changed.
type Volume interface {
	// Labels returns a copy of the labels at v
	Labels(v models.Voxel) LabelSet

	// Add puts l into the set at v
	Add(v models.Voxel, l models.Label) bool

	// Remove takes l out of the set at v
	Remove(v models.Voxel, l models.Label) bool

	// Bounds returns the valid extent and true for bounded volumes, or false
	// when every voxel position is addressable.
	Bounds() (models.Extent, bool)

	// Each calls fn for every voxel holding at least one label until fn
	// returns false. The order is unspecified.
	Each(fn func(v models.Voxel, labels LabelSet) bool)
}

// Dense is a bounded volume backed by one label set per voxel, stored in
// row-major order: z*width*height + y*width + x.
type Dense struct {
	extent models.Extent
	width  int64
	height int64
	data   []LabelSet
}

// NewDense creates an empty bounded volume of the given size at the origin
func NewDense(width, height, depth int64) *Dense {
	return NewDenseExtent(models.NewExtent(width, height, depth))
}

// CheckDenseSize reports whether a width x height x depth Dense volume can
// be allocated. The product is checked without overflowing.
func CheckDenseSize(width, height, depth int64) error {
	if width < 0 || height < 0 || depth < 0 {
		return errors.Errorf("volume size must be non-negative, got %dx%dx%d", width, height, depth)
	}
	n := int64(1)
	for _, s := range []int64{width, height, depth} {
		if s == 0 {
			return nil
		}
		if n > MaxDenseVoxels/s {
			return errors.Wrapf(ErrTooLarge, "%dx%dx%d exceeds %d voxels", width, height, depth, int64(MaxDenseVoxels))
		}
		n *= s
	}
	return nil
}

// NewDenseExtent creates an empty bounded volume covering extent. It panics
// when the extent fails CheckDenseSize.
func NewDenseExtent(extent models.Extent) *Dense {
	w, h, d := extent.Size()
	if extent.Empty() {
		w, h, d = 0, 0, 0
	}
	if err := CheckDenseSize(w, h, d); err != nil {
		panic(err)
	}
	return &Dense{
		extent: extent,
		width:  w,
		height: h,
		data:   make([]LabelSet, w*h*d),
	}
}

func (d *Dense) index(v models.Voxel) (int64, bool) {
	if !d.extent.Contains(v) {
		return 0, false
	}
	x := v.X - d.extent.Min.X
	y := v.Y - d.extent.Min.Y
	z := v.Z - d.extent.Min.Z
	return z*d.width*d.height + y*d.width + x, true
}

func (d *Dense) voxel(idx int64) models.Voxel {
	plane := d.width * d.height
	return models.Voxel{
		X: d.extent.Min.X + idx%d.width,
		Y: d.extent.Min.Y + (idx%plane)/d.width,
		Z: d.extent.Min.Z + idx/plane,
	}
}

// Labels implements Volume. Positions outside the extent have no labels.
func (d *Dense) Labels(v models.Voxel) LabelSet {
	idx, ok := d.index(v)
	if !ok {
		return nil
	}
	return d.data[idx].Clone()
}

// Add implements Volume. Positions outside the extent are ignored.
func (d *Dense) Add(v models.Voxel, l models.Label) bool {
	idx, ok := d.index(v)
	if !ok {
		return false
	}
	return d.data[idx].add(l)
}

// Remove implements Volume
func (d *Dense) Remove(v models.Voxel, l models.Label) bool {
	idx, ok := d.index(v)
	if !ok {
		return false
	}
	return d.data[idx].remove(l)
}

// Bounds implements Volume
func (d *Dense) Bounds() (models.Extent, bool) {
	return d.extent, true
}

// Each implements Volume, visiting voxels in index order
func (d *Dense) Each(fn func(v models.Voxel, labels LabelSet) bool) {
	for i, set := range d.data {
		if len(set) == 0 {
			continue
		}
		if !fn(d.voxel(int64(i)), set.Clone()) {
			return
		}
	}
}

// Sparse is a virtually unbounded volume that stores only labeled voxels
type Sparse struct {
	voxels map[models.Voxel]LabelSet
}

// NewSparse creates an empty unbounded volume
func NewSparse() *Sparse {
	return &Sparse{voxels: make(map[models.Voxel]LabelSet)}
}

// Labels implements Volume
func (s *Sparse) Labels(v models.Voxel) LabelSet {
	return s.voxels[v].Clone()
}

// Add implements Volume
func (s *Sparse) Add(v models.Voxel, l models.Label) bool {
	set := s.voxels[v]
	if !set.add(l) {
		return false
	}
	s.voxels[v] = set
	return true
}

// Remove implements Volume. Voxels left without labels are dropped.
func (s *Sparse) Remove(v models.Voxel, l models.Label) bool {
	set, ok := s.voxels[v]
	if !ok || !set.remove(l) {
		return false
	}
	if len(set) == 0 {
		delete(s.voxels, v)
	} else {
		s.voxels[v] = set
	}
	return true
}

// Bounds implements Volume; a sparse volume has none
func (s *Sparse) Bounds() (models.Extent, bool) {
	return models.Extent{}, false
}

// Each implements Volume
func (s *Sparse) Each(fn func(v models.Voxel, labels LabelSet) bool) {
	for v, set := range s.voxels {
		if !fn(v, set.Clone()) {
			return
		}
	}
}

// Len returns the number of labeled voxels
func (s *Sparse) Len() int {
	return len(s.voxels)
}

// Occupied returns the smallest extent holding every labeled voxel of vol.
// It reports false when the volume holds no label.
func Occupied(vol Volume) (models.Extent, bool) {
	var ext models.Extent
	found := false
	vol.Each(func(v models.Voxel, _ LabelSet) bool {
		if !found {
			ext = models.Extent{Min: v, Max: models.Voxel{X: v.X + 1, Y: v.Y + 1, Z: v.Z + 1}}
			found = true
			return true
		}
		ext.Min.X = min(ext.Min.X, v.X)
		ext.Min.Y = min(ext.Min.Y, v.Y)
		ext.Min.Z = min(ext.Min.Z, v.Z)
		ext.Max.X = max(ext.Max.X, v.X+1)
		ext.Max.Y = max(ext.Max.Y, v.Y+1)
		ext.Max.Z = max(ext.Max.Z, v.Z+1)
		return true
	})
	return ext, found
}
