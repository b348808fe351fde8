package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"labelfill/internal/models"
	"labelfill/pkg/labeling"
)

// Viewer extracts binary per-label masks from a labeled volume, one 2-D slice
// at a time, and writes them as TIFF images.
type Viewer struct {
	volume labeling.Volume

	// extent is the region slices are taken from: the volume bounds, or the
	// occupied region of an unbounded volume
	extent models.Extent
}

// NewViewer creates a viewer over vol
func NewViewer(vol labeling.Volume) *Viewer {
	ext, bounded := vol.Bounds()
	if !bounded {
		ext, _ = labeling.Occupied(vol)
	}
	return &Viewer{volume: vol, extent: ext}
}

// Extent returns the region slices are taken from
func (v *Viewer) Extent() models.Extent {
	return v.extent
}

// axisRange returns the valid slice positions along axis
func (v *Viewer) axisRange(axis string) (lo, hi int64, err error) {
	switch axis {
	case "x", "X":
		return v.extent.Min.X, v.extent.Max.X, nil
	case "y", "Y":
		return v.extent.Min.Y, v.extent.Max.Y, nil
	case "z", "Z":
		return v.extent.Min.Z, v.extent.Max.Z, nil
	default:
		return 0, 0, errors.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice returns the mask of label on the plane axis = position.
// Labeled voxels are white, everything else black. Slices along z are
// width x height, along x depth x height, along y width x depth.
func (v *Viewer) ExtractSlice(axis string, position int64, label models.Label) (*image.Gray, error) {
	lo, hi, err := v.axisRange(axis)
	if err != nil {
		return nil, err
	}
	if position < lo || position >= hi {
		return nil, errors.Errorf("position %d outside [%d, %d) along %s", position, lo, hi, axis)
	}

	w, h, d := v.extent.Size()
	origin := v.extent.Min
	set := func(img *image.Gray, px, py int64, voxel models.Voxel) {
		if v.volume.Labels(voxel).Contains(label) {
			img.SetGray(int(px), int(py), color.Gray{Y: 255})
		}
	}

	var img *image.Gray
	switch axis {
	case "x", "X":
		// YZ plane
		img = image.NewGray(image.Rect(0, 0, int(d), int(h)))
		for y := int64(0); y < h; y++ {
			for z := int64(0); z < d; z++ {
				set(img, z, y, models.Voxel{X: position, Y: origin.Y + y, Z: origin.Z + z})
			}
		}
	case "y", "Y":
		// XZ plane
		img = image.NewGray(image.Rect(0, 0, int(w), int(d)))
		for z := int64(0); z < d; z++ {
			for x := int64(0); x < w; x++ {
				set(img, x, z, models.Voxel{X: origin.X + x, Y: position, Z: origin.Z + z})
			}
		}
	default:
		// XY plane
		img = image.NewGray(image.Rect(0, 0, int(w), int(h)))
		for y := int64(0); y < h; y++ {
			for x := int64(0); x < w; x++ {
				set(img, x, y, models.Voxel{X: origin.X + x, Y: origin.Y + y, Z: position})
			}
		}
	}
	return img, nil
}

// SaveSlice saves an extracted slice as a deflate-compressed TIFF image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		file.Close()
		return errors.Wrapf(err, "encoding %s", filename)
	}
	return errors.Wrapf(file.Close(), "closing %s", filename)
}

// SaveSliceSequence extracts and saves every slice of label along axis and
// returns the number of files written
func (v *Viewer) SaveSliceSequence(axis string, label models.Label, outputDir string) (int, error) {
	lo, hi, err := v.axisRange(axis)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	n := 0
	for pos := lo; pos < hi; pos++ {
		img, err := v.ExtractSlice(axis, pos, label)
		if err != nil {
			return n, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.tif", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}
