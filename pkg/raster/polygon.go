// Package raster enumerates the sample positions covered by a planar polygon
// in voxel space.
//
// The polygon is projected onto the coordinate plane most nearly parallel to
// it, so the two in-plane sampling axes are voxel axes. Samples lie on the
// integer multiples of Options.Step along both of them, and the out-of-plane
// coordinate of each sample comes from the polygon's plane equation.
//
// Inside tests use the even-odd rule with half-open edges: a sample exactly on
// a lower or left edge is inside, one on an upper or right edge is outside.
// The result does not depend on vertex order, and an axis-aligned N x N square
// with integer corners covers exactly N*N unit samples.
package raster

import (
	"iter"
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// snapTolerance is how close a projected coordinate must be to a grid line
// to be treated as lying on it.
const snapTolerance = 1e-9

// minArea is the smallest polygon area, in squared voxels, that is rasterized
const minArea = 1e-12

// maxGrid bounds the projected polygon, in grid units. Beyond it float64
// no longer represents every integer, so such polygons are treated as
// degenerate.
const maxGrid = 1 << 52

// Options controls sampling
type Options struct {
	// Step is the sampling distance along each in-plane axis, in voxel units.
	// Values <= 0 select one sample per voxel.
	Step float64

	// Window, when set, limits the in-plane sampling axes to a box of voxel
	// space. Samples outside it are never produced.
	Window *Window
}

// Window is an inclusive axis-aligned box of sample positions
type Window struct {
	Min, Max r3.Vector
}

// DefaultOptions samples once per voxel
func DefaultOptions() Options {
	return Options{Step: 1}
}

func (o Options) step() float64 {
	if o.Step <= 0 || math.IsNaN(o.Step) || math.IsInf(o.Step, 0) {
		return 1
	}
	return o.Step
}

// Samples returns the covered sample positions as a lazy sequence. Degenerate
// polygons (fewer than 3 vertices, zero area) yield nothing.
func Samples(vertices []r3.Vector, opts Options) iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		Rasterize(vertices, opts, yield)
	}
}

// Count returns the number of samples the polygon covers
func Count(vertices []r3.Vector, opts Options) int {
	n := 0
	Rasterize(vertices, opts, func(r3.Vector) bool {
		n++
		return true
	})
	return n
}

// Rasterize calls fn once per covered sample position until fn returns false
func Rasterize(vertices []r3.Vector, opts Options, fn func(r3.Vector) bool) {
	pl, ok := newPlane(vertices)
	if !ok {
		return
	}
	step := opts.step()

	// projected polygon in grid units
	pts := make([]r2.Point, len(vertices))
	for i, v := range vertices {
		u, w := pl.project(v)
		pts[i] = r2.Point{X: snap(u / step), Y: snap(w / step)}
	}
	bounds := r2.RectFromPoints(pts...)
	if !inGrid(bounds.X.Lo) || !inGrid(bounds.X.Hi) || !inGrid(bounds.Y.Lo) || !inGrid(bounds.Y.Hi) {
		return
	}

	rowLo, rowHi := math.Ceil(bounds.Y.Lo), math.Floor(bounds.Y.Hi)
	colLo, colHi := math.Ceil(bounds.X.Lo), math.Floor(bounds.X.Hi)
	if w := opts.Window; w != nil {
		rowLo = max(rowLo, math.Ceil(snap(component(w.Min, pl.v)/step)))
		rowHi = min(rowHi, math.Floor(snap(component(w.Max, pl.v)/step)))
		colLo = max(colLo, math.Ceil(snap(component(w.Min, pl.u)/step)))
		colHi = min(colHi, math.Floor(snap(component(w.Max, pl.u)/step)))
	}
	if rowLo > rowHi || colLo > colHi {
		return
	}

	var crossings []float64
	for r := int64(rowLo); r <= int64(rowHi); r++ {
		row := float64(r)
		crossings = scanlineCrossings(pts, row, crossings[:0])
		for k := 0; k+1 < len(crossings); k += 2 {
			first := max(math.Ceil(crossings[k]), colLo)
			last := min(math.Ceil(crossings[k+1])-1, colHi)
			for c := int64(first); c <= int64(last); c++ {
				if !fn(pl.lift(float64(c)*step, row*step)) {
					return
				}
			}
		}
	}
}

func inGrid(x float64) bool {
	return x >= -maxGrid && x <= maxGrid
}

// scanlineCrossings appends the sorted x positions where the polygon's edges
// cross the horizontal line y = row. An edge counts when exactly one of its
// endpoints lies strictly above the line.
func scanlineCrossings(pts []r2.Point, row float64, dst []float64) []float64 {
	n := len(pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pts[j], pts[i]
		if (a.Y > row) == (b.Y > row) {
			continue
		}
		x := a.X + (row-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		dst = append(dst, snap(x))
	}
	slices.Sort(dst)
	return dst
}

// plane holds the polygon's supporting plane and the axis it is projected along
type plane struct {
	normal r3.Vector
	offset float64
	// drop is the axis with the largest normal component; u and v are the
	// remaining in-plane sampling axes.
	drop, u, v r3.Axis
}

func newPlane(vertices []r3.Vector) (plane, bool) {
	if len(vertices) < 3 {
		return plane{}, false
	}

	// Newell's method: robust for concave and slightly non-planar polygons
	var normal, centroid r3.Vector
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := vertices[j], vertices[i]
		normal.X += (a.Y - b.Y) * (a.Z + b.Z)
		normal.Y += (a.Z - b.Z) * (a.X + b.X)
		normal.Z += (a.X - b.X) * (a.Y + b.Y)
		centroid = centroid.Add(b)
	}
	// |normal| is twice the area
	if !(normal.Norm()/2 > minArea) {
		return plane{}, false
	}
	centroid = centroid.Mul(1 / float64(n))

	pl := plane{normal: normal, offset: normal.Dot(centroid)}
	pl.drop = normal.LargestComponent()
	switch pl.drop {
	case r3.XAxis:
		pl.u, pl.v = r3.YAxis, r3.ZAxis
	case r3.YAxis:
		pl.u, pl.v = r3.XAxis, r3.ZAxis
	default:
		pl.u, pl.v = r3.XAxis, r3.YAxis
	}
	return pl, true
}

func (pl plane) project(p r3.Vector) (float64, float64) {
	return component(p, pl.u), component(p, pl.v)
}

// lift returns the point of the plane whose in-plane coordinates are (u, v)
func (pl plane) lift(u, v float64) r3.Vector {
	nd := component(pl.normal, pl.drop)
	d := (pl.offset - component(pl.normal, pl.u)*u - component(pl.normal, pl.v)*v) / nd
	var p r3.Vector
	setComponent(&p, pl.u, u)
	setComponent(&p, pl.v, v)
	setComponent(&p, pl.drop, snap(d))
	return p
}

func component(p r3.Vector, axis r3.Axis) float64 {
	switch axis {
	case r3.XAxis:
		return p.X
	case r3.YAxis:
		return p.Y
	default:
		return p.Z
	}
}

func setComponent(p *r3.Vector, axis r3.Axis, value float64) {
	switch axis {
	case r3.XAxis:
		p.X = value
	case r3.YAxis:
		p.Y = value
	default:
		p.Z = value
	}
}

func snap(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < snapTolerance {
		return r
	}
	return x
}
