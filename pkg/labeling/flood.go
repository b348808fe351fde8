package labeling

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"labelfill/internal/models"
)

// ErrUnboundedRegion is returned when a flood in an unbounded volume would
// spread without limit
var ErrUnboundedRegion = errors.New("flood region is unbounded")

// FloodRegion returns the voxels 4-connected to seed, within the plane
// through seed normal to the given axis, whose label set equals the seed's.
//
// Bounded volumes limit the flood to their extent. Unbounded volumes limit it
// to the occupied extent plus a one-voxel margin; a region reaching that
// margin would spread forever and fails with ErrUnboundedRegion.
func FloodRegion(vol Volume, seed models.Voxel, normal r3.Axis) ([]models.Voxel, error) {
	limit, bounded := vol.Bounds()
	if !bounded {
		limit = marginExtent(vol, seed)
	}
	if !limit.Contains(seed) {
		return nil, errors.Wrapf(ErrOutOfBounds, "seed %v", seed)
	}

	u, v := models.PlaneAxes(normal)
	uLo, uHi := limit.Min.Get(u), limit.Max.Get(u)
	vLo, vHi := limit.Min.Get(v), limit.Max.Get(v)
	width := uHi - uLo
	visited := make([]bool, width*(vHi-vLo))
	index := func(p models.Voxel) int64 {
		return (p.Get(v)-vLo)*width + p.Get(u) - uLo
	}
	onMargin := func(p models.Voxel) bool {
		pu, pv := p.Get(u), p.Get(v)
		return pu == uLo || pu == uHi-1 || pv == vLo || pv == vHi-1
	}

	target := vol.Labels(seed)
	var region []models.Voxel
	stack := []models.Voxel{seed}
	visited[index(seed)] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !bounded && onMargin(p) {
			return nil, errors.Wrapf(ErrUnboundedRegion, "seed %v", seed)
		}
		region = append(region, p)

		for _, n := range [4]models.Voxel{
			p.With(u, p.Get(u)-1), p.With(u, p.Get(u)+1),
			p.With(v, p.Get(v)-1), p.With(v, p.Get(v)+1),
		} {
			if !limit.Contains(n) || visited[index(n)] {
				continue
			}
			visited[index(n)] = true
			if slices.Equal(vol.Labels(n), target) {
				stack = append(stack, n)
			}
		}
	}
	return region, nil
}

// marginExtent returns the occupied extent of vol, grown to include seed and
// then by one voxel on every side
func marginExtent(vol Volume, seed models.Voxel) models.Extent {
	ext, ok := Occupied(vol)
	if !ok {
		ext = models.Extent{Min: seed, Max: seed}
	}
	ext.Min.X = min(ext.Min.X, seed.X) - 1
	ext.Min.Y = min(ext.Min.Y, seed.Y) - 1
	ext.Min.Z = min(ext.Min.Z, seed.Z) - 1
	ext.Max.X = max(ext.Max.X, seed.X+1) + 1
	ext.Max.Y = max(ext.Max.Y, seed.Y+1) + 1
	ext.Max.Z = max(ext.Max.Z, seed.Z+1) + 1
	return ext
}
