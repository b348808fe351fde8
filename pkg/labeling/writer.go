package labeling

import (
	"iter"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"labelfill/internal/models"
)

var (
	// ErrOutOfBounds is returned when a polygon reaches outside a bounded
	// volume and the writer rejects such polygons
	ErrOutOfBounds = errors.New("voxel outside volume bounds")

	// ErrInvalidLabel is returned for the empty label
	ErrInvalidLabel = errors.New("invalid label")
)

// RoundingMode selects how a sample position is turned into a voxel
type RoundingMode int

const (
	// RoundHalfAwayFromZero rounds ties away from zero: 0.5 -> 1, -0.5 -> -1
	RoundHalfAwayFromZero RoundingMode = iota
	// RoundHalfEven rounds ties to the even neighbour: 0.5 -> 0, 1.5 -> 2
	RoundHalfEven
)

// ParseRoundingMode converts a config value into a RoundingMode
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch s {
	case "", "half-away-from-zero":
		return RoundHalfAwayFromZero, nil
	case "half-even":
		return RoundHalfEven, nil
	default:
		return 0, errors.Errorf("unknown rounding mode %q", s)
	}
}

func (m RoundingMode) String() string {
	if m == RoundHalfEven {
		return "half-even"
	}
	return "half-away-from-zero"
}

// Voxel rounds each component of p to the nearest integer
func (m RoundingMode) Voxel(p r3.Vector) models.Voxel {
	round := math.Round
	if m == RoundHalfEven {
		round = math.RoundToEven
	}
	return models.Voxel{
		X: int64(round(p.X)),
		Y: int64(round(p.Y)),
		Z: int64(round(p.Z)),
	}
}

// BoundsPolicy decides what happens to samples that round to a voxel outside
// a bounded volume
type BoundsPolicy int

const (
	// ClipToBounds skips out-of-range voxels and writes the rest
	ClipToBounds BoundsPolicy = iota
	// RejectOutOfBounds refuses the whole polygon before writing anything
	RejectOutOfBounds
)

// ParseBoundsPolicy converts a config value into a BoundsPolicy
func ParseBoundsPolicy(s string) (BoundsPolicy, error) {
	switch s {
	case "", "clip":
		return ClipToBounds, nil
	case "reject":
		return RejectOutOfBounds, nil
	default:
		return 0, errors.Errorf("unknown bounds policy %q", s)
	}
}

func (p BoundsPolicy) String() string {
	if p == RejectOutOfBounds {
		return "reject"
	}
	return "clip"
}

// Stats describes the outcome of one polygon write
type Stats struct {
	// Samples is the number of sample positions consumed
	Samples int
	// Changed is the number of voxels whose label set changed
	Changed int
	// Clipped is the number of samples dropped for lying outside the volume.
	// Editors that clip skip samples well outside before they get here.
	Clipped int
}

// Writer applies a label to every sample of a rasterized polygon
type Writer struct {
	// Volume is the labeling being edited
	Volume Volume

	// Repaint is called once after a write that changed at least one voxel.
	// May be nil.
	Repaint func()

	Rounding RoundingMode
	Bounds   BoundsPolicy

	Logger *zap.SugaredLogger
}

func (w *Writer) logger() *zap.SugaredLogger {
	if w.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return w.Logger
}

// Add unions label into the set of every voxel covered by samples. Applying
// the same samples twice leaves the volume as after the first time.
func (w *Writer) Add(label models.Label, samples iter.Seq[r3.Vector]) (Stats, error) {
	return w.apply(label, samples, w.Volume.Add)
}

// Remove takes label out of the set of every voxel covered by samples
func (w *Writer) Remove(label models.Label, samples iter.Seq[r3.Vector]) (Stats, error) {
	return w.apply(label, samples, w.Volume.Remove)
}

func (w *Writer) apply(label models.Label, samples iter.Seq[r3.Vector], op func(models.Voxel, models.Label) bool) (Stats, error) {
	var stats Stats
	if label == "" {
		return stats, ErrInvalidLabel
	}

	extent, bounded := w.Volume.Bounds()
	if bounded && w.Bounds == RejectOutOfBounds {
		return w.applyChecked(label, samples, extent, op)
	}

	for p := range samples {
		stats.Samples++
		v := w.Rounding.Voxel(p)
		if bounded && !extent.Contains(v) {
			stats.Clipped++
			continue
		}
		if op(v, label) {
			stats.Changed++
		}
	}
	w.finish(label, stats)
	return stats, nil
}

// applyChecked buffers the voxels of the polygon so that nothing is written
// when any of them is out of range.
func (w *Writer) applyChecked(label models.Label, samples iter.Seq[r3.Vector], extent models.Extent, op func(models.Voxel, models.Label) bool) (Stats, error) {
	var stats Stats
	var voxels []models.Voxel
	for p := range samples {
		stats.Samples++
		v := w.Rounding.Voxel(p)
		if !extent.Contains(v) {
			stats.Clipped++
			continue
		}
		voxels = append(voxels, v)
	}
	if stats.Clipped > 0 {
		w.logger().Debugw("rejecting polygon", "label", label, "outside", stats.Clipped, "samples", stats.Samples)
		return Stats{Samples: stats.Samples, Clipped: stats.Clipped},
			errors.Wrapf(ErrOutOfBounds, "%d of %d samples outside %v-%v", stats.Clipped, stats.Samples, extent.Min, extent.Max)
	}
	for _, v := range voxels {
		if op(v, label) {
			stats.Changed++
		}
	}
	w.finish(label, stats)
	return stats, nil
}

func (w *Writer) finish(label models.Label, stats Stats) {
	w.logger().Debugw("polygon written",
		"label", label,
		"samples", stats.Samples,
		"changed", stats.Changed,
		"clipped", stats.Clipped,
	)
	if stats.Changed > 0 && w.Repaint != nil {
		w.Repaint()
	}
}
