package models

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Label identifies a segmentation class. Labels are owned by the label set of
// the surrounding session; the empty label is never valid.
type Label string

// Voxel is an integer position in the index space of a labeled volume
type Voxel struct {
	X, Y, Z int64
}

func (v Voxel) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Vector returns the voxel position as a floating-point vector
func (v Voxel) Vector() r3.Vector {
	return r3.Vector{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Extent is a half-open box of voxels [Min, Max)
type Extent struct {
	Min, Max Voxel
}

// NewExtent returns the extent of a width x height x depth volume at the origin
func NewExtent(width, height, depth int64) Extent {
	return Extent{Max: Voxel{X: width, Y: height, Z: depth}}
}

// Contains reports whether v lies inside the extent
func (e Extent) Contains(v Voxel) bool {
	return v.X >= e.Min.X && v.X < e.Max.X &&
		v.Y >= e.Min.Y && v.Y < e.Max.Y &&
		v.Z >= e.Min.Z && v.Z < e.Max.Z
}

// Size returns the number of voxels along each axis
func (e Extent) Size() (width, height, depth int64) {
	return e.Max.X - e.Min.X, e.Max.Y - e.Min.Y, e.Max.Z - e.Min.Z
}

// Empty reports whether the extent holds no voxel
func (e Extent) Empty() bool {
	w, h, d := e.Size()
	return w <= 0 || h <= 0 || d <= 0
}

// Space names the coordinate space a polygon is expressed in
type Space int

const (
	// Global is the world space shared by all displayed layers
	Global Space = iota
	// View is the screen/camera space of the viewer
	View
	// VoxelSpace is the native index space of the labeled volume
	VoxelSpace
)

func (s Space) String() string {
	switch s {
	case Global:
		return "global"
	case View:
		return "view"
	case VoxelSpace:
		return "voxel"
	default:
		return fmt.Sprintf("space(%d)", int(s))
	}
}

// ParseSpace converts a textual space name into a Space
func ParseSpace(name string) (Space, error) {
	switch name {
	case "global", "world", "":
		return Global, nil
	case "view", "screen":
		return View, nil
	case "voxel", "image":
		return VoxelSpace, nil
	default:
		return 0, errors.Errorf("unknown coordinate space %q", name)
	}
}

// Polygon is a closed, (near-)planar polygon in 3-D. The last vertex connects
// back to the first.
type Polygon struct {
	// Points are the ordered vertices
	Points []r3.Vector

	// Space is the coordinate space of Points
	Space Space
}

// Rectangle returns the axis-aligned rectangle spanned by two opposite corners
// in the plane z = lo.Z. Used for box-shaped prompts.
func Rectangle(lo, hi r3.Vector, space Space) Polygon {
	return Polygon{
		Points: []r3.Vector{
			{X: lo.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: hi.Y, Z: lo.Z},
			{X: lo.X, Y: hi.Y, Z: lo.Z},
		},
		Space: space,
	}
}

// ParseAxis converts "x", "y" or "z" into an axis. The empty name is z.
func ParseAxis(name string) (r3.Axis, error) {
	switch name {
	case "x", "X":
		return r3.XAxis, nil
	case "y", "Y":
		return r3.YAxis, nil
	case "z", "Z", "":
		return r3.ZAxis, nil
	default:
		return 0, errors.Errorf("invalid axis %q (must be x, y, or z)", name)
	}
}

// PlaneAxes returns the two axes spanning the plane normal to axis
func PlaneAxes(normal r3.Axis) (u, v r3.Axis) {
	switch normal {
	case r3.XAxis:
		return r3.YAxis, r3.ZAxis
	case r3.YAxis:
		return r3.XAxis, r3.ZAxis
	default:
		return r3.XAxis, r3.YAxis
	}
}

// Get returns the coordinate of v along axis
func (v Voxel) Get(axis r3.Axis) int64 {
	switch axis {
	case r3.XAxis:
		return v.X
	case r3.YAxis:
		return v.Y
	default:
		return v.Z
	}
}

// With returns v with its coordinate along axis replaced by c
func (v Voxel) With(axis r3.Axis, c int64) Voxel {
	switch axis {
	case r3.XAxis:
		v.X = c
	case r3.YAxis:
		v.Y = c
	default:
		v.Z = c
	}
	return v
}
