package raster

import (
	"iter"
	"math"

	"github.com/golang/geo/r3"
)

// discSides is the number of sides of the polygon standing in for a brush disc
const discSides = 32

// Stroke returns the samples painted by a round brush of the given radius
// dragged along points. The brush lies in the plane through each point with
// the given normal; a zero normal selects the z axis. Every point itself is
// always a sample, so a zero radius marks the voxels under the points.
//
// Overlapping discs and segments repeat samples. Writers apply labels as
// sets, so repeats do not change the result.
func Stroke(points []r3.Vector, radius float64, normal r3.Vector, opts Options) iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		if normal.Norm() == 0 {
			normal = r3.Vector{Z: 1}
		}
		normal = normal.Normalize()

		for _, p := range points {
			if !yield(p) {
				return
			}
		}
		if !(radius > 0) {
			return
		}

		cont := true
		emit := func(s r3.Vector) bool {
			cont = yield(s)
			return cont
		}
		for i, p := range points {
			Rasterize(disc(p, radius, normal), opts, emit)
			if !cont {
				return
			}
			if i == 0 {
				continue
			}
			if quad, ok := segment(points[i-1], p, radius, normal); ok {
				Rasterize(quad, opts, emit)
				if !cont {
					return
				}
			}
		}
	}
}

// disc approximates the circle of radius r around c in the plane with the given unit normal
func disc(c r3.Vector, r float64, normal r3.Vector) []r3.Vector {
	u := normal.Ortho()
	v := normal.Cross(u).Normalize()
	out := make([]r3.Vector, discSides)
	for i := range out {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / discSides)
		out[i] = c.Add(u.Mul(r * cos)).Add(v.Mul(r * sin))
	}
	return out
}

// segment returns the rectangle of half-width r around the segment a-b,
// flattened into the brush plane. It reports false for a segment with no
// in-plane length.
func segment(a, b r3.Vector, r float64, normal r3.Vector) ([]r3.Vector, bool) {
	d := b.Sub(a)
	d = d.Sub(normal.Mul(d.Dot(normal)))
	side := normal.Cross(d)
	if side.Norm() == 0 {
		return nil, false
	}
	side = side.Normalize().Mul(r)
	return []r3.Vector{a.Add(side), b.Add(side), b.Sub(side), a.Sub(side)}, true
}
