// Package editor owns a labeled volume and turns polygons into label edits.
//
// Every mutation of the volume goes through one Editor, which runs them one
// at a time: polygon fills, erases and arbitrary edits passed to Do never
// interleave. Annotation sources that compute polygons on other goroutines
// simply call the Editor; it serializes them.
package editor

import (
	"iter"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"labelfill/internal/models"
	"labelfill/pkg/labeling"
	"labelfill/pkg/raster"
	"labelfill/pkg/transform"
)

// ErrNoSelection is returned by FillSelected when no label is selected
var ErrNoSelection = errors.New("no label selected")

// Params holds the editing parameters
type Params struct {
	// Rounding turns sample positions into voxels
	Rounding labeling.RoundingMode

	// Bounds decides what happens to samples outside a bounded volume
	Bounds labeling.BoundsPolicy

	// Raster controls the sampling granularity
	Raster raster.Options
}

// DefaultParams returns half-away-from-zero rounding, clipping and one sample per voxel
func DefaultParams() Params {
	return Params{
		Rounding: labeling.RoundHalfAwayFromZero,
		Bounds:   labeling.ClipToBounds,
		Raster:   raster.DefaultOptions(),
	}
}

// Editor applies label edits to a volume on behalf of a session
type Editor struct {
	mu      sync.Mutex
	session Session
	volume  labeling.Volume
	params  Params
	logger  *zap.SugaredLogger
}

// NewEditor creates an editor for volume shown in session
func NewEditor(session Session, volume labeling.Volume, params Params, logger *zap.SugaredLogger) *Editor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Editor{
		session: session,
		volume:  volume,
		params:  params,
		logger:  logger,
	}
}

// FillPolygon adds label to every voxel covered by p
func (e *Editor) FillPolygon(p models.Polygon, label models.Label) (labeling.Stats, error) {
	return e.edit(p, label, (*labeling.Writer).Add)
}

// ErasePolygon removes label from every voxel covered by p
func (e *Editor) ErasePolygon(p models.Polygon, label models.Label) (labeling.Stats, error) {
	return e.edit(p, label, (*labeling.Writer).Remove)
}

// FillSelected fills p with the label currently selected in sel
func (e *Editor) FillSelected(p models.Polygon, sel LabelSelection) (labeling.Stats, error) {
	label, ok := sel.SelectedLabel()
	if !ok {
		return labeling.Stats{}, ErrNoSelection
	}
	return e.FillPolygon(p, label)
}

// Do runs fn with exclusive access to the volume. Other editing operations
// (brush strokes, flood fills) use it to stay serialized with polygon fills.
// A repaint is requested when fn reports a change.
func (e *Editor) Do(fn func(vol labeling.Volume) (changed bool, err error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := fn(e.volume)
	if changed {
		e.session.RequestRepaint()
	}
	return err
}

// Stroke is a brush stroke
type Stroke struct {
	// Points is the path of the brush center
	Points []r3.Vector

	// Space is the coordinate space of Points
	Space models.Space

	// Radius of the brush in voxels
	Radius float64

	// Normal of the painting plane in voxel space. Zero selects the z axis.
	Normal r3.Vector
}

// Brush adds label to every voxel the stroke paints
func (e *Editor) Brush(s Stroke, label models.Label) (labeling.Stats, error) {
	return e.brush(s, label, (*labeling.Writer).Add)
}

// EraseBrush removes label from every voxel the stroke paints
func (e *Editor) EraseBrush(s Stroke, label models.Label) (labeling.Stats, error) {
	return e.brush(s, label, (*labeling.Writer).Remove)
}

func (e *Editor) brush(s Stroke, label models.Label, op writeOp) (labeling.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	points, err := transform.ToVoxel(models.Polygon{Points: s.Points, Space: s.Space}, e.session.ImageToGlobal(), e.session.GlobalToView())
	if err != nil {
		return labeling.Stats{}, errors.Wrapf(err, "resolving %v stroke", s.Space)
	}
	stats, err := op(e.writer(), label, raster.Stroke(points, s.Radius, s.Normal, e.rasterOptions()))
	if err != nil {
		return stats, errors.Wrapf(err, "brushing label %q", label)
	}
	e.logger.Debugw("stroke applied",
		"points", len(s.Points),
		"radius", s.Radius,
		"label", label,
		"changed", stats.Changed,
	)
	return stats, nil
}

// FloodFill adds label to the region around seed that carries the same
// labels as seed, within the plane through seed normal to the given axis
func (e *Editor) FloodFill(seed models.Voxel, normal r3.Axis, label models.Label) (labeling.Stats, error) {
	return e.flood(seed, normal, label, (*labeling.Writer).Add)
}

// FloodErase removes label from the region around seed that carries the
// same labels as seed, within the plane through seed normal to the given axis
func (e *Editor) FloodErase(seed models.Voxel, normal r3.Axis, label models.Label) (labeling.Stats, error) {
	return e.flood(seed, normal, label, (*labeling.Writer).Remove)
}

func (e *Editor) flood(seed models.Voxel, normal r3.Axis, label models.Label, op writeOp) (labeling.Stats, error) {
	if label == "" {
		return labeling.Stats{}, labeling.ErrInvalidLabel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	region, err := labeling.FloodRegion(e.volume, seed, normal)
	if err != nil {
		return labeling.Stats{}, errors.Wrapf(err, "flooding label %q", label)
	}
	samples := func(yield func(r3.Vector) bool) {
		for _, v := range region {
			if !yield(v.Vector()) {
				return
			}
		}
	}
	stats, err := op(e.writer(), label, samples)
	if err != nil {
		return stats, errors.Wrapf(err, "flooding label %q", label)
	}
	e.logger.Debugw("flood applied", "seed", seed.String(), "label", label, "changed", stats.Changed)
	return stats, nil
}

// PickLabel returns the labels at v, as the pipette tool shows them
func (e *Editor) PickLabel(v models.Voxel) labeling.LabelSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume.Labels(v)
}

type writeOp func(*labeling.Writer, models.Label, iter.Seq[r3.Vector]) (labeling.Stats, error)

func (e *Editor) edit(p models.Polygon, label models.Label, op writeOp) (labeling.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vertices, err := transform.ToVoxel(p, e.session.ImageToGlobal(), e.session.GlobalToView())
	if err != nil {
		return labeling.Stats{}, errors.Wrapf(err, "resolving %v polygon", p.Space)
	}

	stats, err := op(e.writer(), label, raster.Samples(vertices, e.rasterOptions()))
	if err != nil {
		return stats, errors.Wrapf(err, "writing label %q", label)
	}
	e.logger.Debugw("polygon applied",
		"space", p.Space.String(),
		"vertices", len(p.Points),
		"label", label,
		"changed", stats.Changed,
	)
	return stats, nil
}

func (e *Editor) writer() *labeling.Writer {
	return &labeling.Writer{
		Volume:   e.volume,
		Repaint:  e.session.RequestRepaint,
		Rounding: e.params.Rounding,
		Bounds:   e.params.Bounds,
		Logger:   e.logger,
	}
}

// rasterOptions limits sampling to the volume when out-of-range samples
// would be clipped anyway. Rejecting writers must see every sample.
func (e *Editor) rasterOptions() raster.Options {
	opts := e.params.Raster
	ext, bounded := e.volume.Bounds()
	if !bounded || e.params.Bounds != labeling.ClipToBounds {
		return opts
	}
	// samples within half a voxel of the extent may round into it
	half := r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}
	opts.Window = &raster.Window{
		Min: ext.Min.Vector().Sub(half),
		Max: ext.Max.Vector().Sub(half),
	}
	return opts
}
