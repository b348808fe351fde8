package labeling

import (
	"slices"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"

	"labelfill/internal/models"
)

// LabelStats summarizes the voxels carrying one label
type LabelStats struct {
	Label    models.Label
	Voxels   int
	Centroid r3.Vector
	Extent   models.Extent
}

// Summarize returns per-label voxel counts, centroids and extents, ordered by label
func Summarize(vol Volume) []LabelStats {
	type coords struct {
		xs, ys, zs []float64
		ext        models.Extent
	}
	byLabel := make(map[models.Label]*coords)

	vol.Each(func(v models.Voxel, labels LabelSet) bool {
		for _, l := range labels {
			c, ok := byLabel[l]
			if !ok {
				c = &coords{ext: models.Extent{Min: v, Max: models.Voxel{X: v.X + 1, Y: v.Y + 1, Z: v.Z + 1}}}
				byLabel[l] = c
			}
			c.xs = append(c.xs, float64(v.X))
			c.ys = append(c.ys, float64(v.Y))
			c.zs = append(c.zs, float64(v.Z))
			c.ext.Min.X = min(c.ext.Min.X, v.X)
			c.ext.Min.Y = min(c.ext.Min.Y, v.Y)
			c.ext.Min.Z = min(c.ext.Min.Z, v.Z)
			c.ext.Max.X = max(c.ext.Max.X, v.X+1)
			c.ext.Max.Y = max(c.ext.Max.Y, v.Y+1)
			c.ext.Max.Z = max(c.ext.Max.Z, v.Z+1)
		}
		return true
	})

	out := make([]LabelStats, 0, len(byLabel))
	for l, c := range byLabel {
		out = append(out, LabelStats{
			Label:  l,
			Voxels: len(c.xs),
			Centroid: r3.Vector{
				X: stat.Mean(c.xs, nil),
				Y: stat.Mean(c.ys, nil),
				Z: stat.Mean(c.zs, nil),
			},
			Extent: c.ext,
		})
	}
	slices.SortFunc(out, func(a, b LabelStats) int {
		return strings.Compare(string(a.Label), string(b.Label))
	})
	return out
}

// Voxels returns every voxel holding label, in the order Each visits them
func Voxels(vol Volume, label models.Label) []models.Voxel {
	var out []models.Voxel
	vol.Each(func(v models.Voxel, labels LabelSet) bool {
		if labels.Contains(label) {
			out = append(out, v)
		}
		return true
	})
	return out
}
