package transform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"labelfill/internal/models"
)

// ErrUnknownSpace is returned for a polygon tagged with a space the resolver
// does not know how to map
var ErrUnknownSpace = errors.New("unknown coordinate space")

// GlobalToVoxel returns the map from global (world) coordinates to the voxel
// index space of an image placed in the world by imageToGlobal.
func GlobalToVoxel(imageToGlobal *Affine) (*Affine, error) {
	inv, err := imageToGlobal.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "inverting image-to-global transform")
	}
	return inv, nil
}

// Resolve returns the map from space into voxel space.
//
// globalToView follows the viewer convention: it maps world coordinates onto
// the screen. A View polygon is therefore first taken back to world space by
// its inverse and then into voxel space. Neither input is modified, so
// Resolve can run again for every polygon as the viewpoint changes.
func Resolve(space models.Space, imageToGlobal, globalToView *Affine) (*Affine, error) {
	switch space {
	case models.VoxelSpace:
		return Identity(), nil
	case models.Global:
		return GlobalToVoxel(imageToGlobal)
	case models.View:
		toVoxel, err := GlobalToVoxel(imageToGlobal)
		if err != nil {
			return nil, err
		}
		viewToGlobal, err := globalToView.Inverse()
		if err != nil {
			return nil, errors.Wrap(err, "inverting global-to-view transform")
		}
		return toVoxel.Concatenate(viewToGlobal), nil
	default:
		return nil, errors.Wrapf(ErrUnknownSpace, "%v", space)
	}
}

// ToVoxel moves a polygon into voxel space and returns its vertices there
func ToVoxel(p models.Polygon, imageToGlobal, globalToView *Affine) ([]r3.Vector, error) {
	t, err := Resolve(p.Space, imageToGlobal, globalToView)
	if err != nil {
		return nil, err
	}
	return t.ApplyAll(p.Points), nil
}
