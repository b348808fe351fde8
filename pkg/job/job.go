// Package job loads replayable annotation sessions from YAML.
package job

import (
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"labelfill/internal/models"
	"labelfill/pkg/editor"
	"labelfill/pkg/labeling"
	"labelfill/pkg/transform"
)

// Operation kinds
const (
	OpFill       = "fill"
	OpErase      = "erase"
	OpPrompt     = "prompt"
	OpBrush      = "brush"
	OpEraseBrush = "erase-brush"
	OpFloodFill  = "flood-fill"
	OpFloodErase = "flood-erase"
	OpPick       = "pick"
)

// Volume gives the size of a bounded volume. A zero size means unbounded.
type Volume struct {
	Width  int64 `yaml:"width"`
	Height int64 `yaml:"height"`
	Depth  int64 `yaml:"depth"`
}

// Operation is one annotation step
type Operation struct {
	// Op is one of the Op constants
	Op string `yaml:"op"`

	// Label to write; prompts may leave it empty to use the current selection
	Label string `yaml:"label"`

	// Space of the points or prompt corners: global, view or voxel
	Space string `yaml:"space"`

	// Points are the polygon vertices for fill and erase, or the brush path
	Points [][3]float64 `yaml:"points"`

	// Min and Max are the prompt box corners
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`

	// Radius of the brush in voxels
	Radius float64 `yaml:"radius"`

	// Normal of the brush plane in voxel space; omitted means the z axis
	Normal [3]float64 `yaml:"normal"`

	// Seed is the voxel floods start from and the pipette picks at
	Seed [3]int64 `yaml:"seed"`

	// Plane is the axis normal to the flood plane: x, y or z (default)
	Plane string `yaml:"plane"`
}

// Job is a complete annotation session
type Job struct {
	Volume        Volume      `yaml:"volume"`
	ImageToGlobal []float64   `yaml:"imageToGlobal"`
	GlobalToView  []float64   `yaml:"globalToView"`
	Selection     string      `yaml:"selection"`
	Operations    []Operation `yaml:"operations"`
}

// Load reads and validates a job file
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading job file %s", path)
	}
	j, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "job file %s", path)
	}
	return j, nil
}

// Parse decodes and validates a job from YAML
func Parse(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(err, "error parsing job")
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// Validate checks every operation and transform
func (j *Job) Validate() error {
	if _, _, err := j.Transforms(); err != nil {
		return err
	}
	v := j.Volume
	if err := labeling.CheckDenseSize(v.Width, v.Height, v.Depth); err != nil {
		return errors.Wrap(err, "volume")
	}
	selected := j.Selection != ""
	for i, op := range j.Operations {
		if _, err := models.ParseSpace(op.Space); err != nil {
			return errors.Wrapf(err, "operation %d", i)
		}
		switch op.Op {
		case OpFill, OpErase:
			if op.Label == "" {
				return errors.Errorf("operation %d: %s needs a label", i, op.Op)
			}
		case OpBrush, OpEraseBrush:
			if op.Label == "" {
				return errors.Errorf("operation %d: %s needs a label", i, op.Op)
			}
			if len(op.Points) == 0 {
				return errors.Errorf("operation %d: %s needs at least one point", i, op.Op)
			}
			if op.Radius < 0 {
				return errors.Errorf("operation %d: radius must be non-negative, got %g", i, op.Radius)
			}
		case OpFloodFill, OpFloodErase:
			if op.Label == "" {
				return errors.Errorf("operation %d: %s needs a label", i, op.Op)
			}
			if _, err := models.ParseAxis(op.Plane); err != nil {
				return errors.Wrapf(err, "operation %d", i)
			}
		case OpPick:
			selected = true
		case OpPrompt:
			if op.Label == "" && !selected {
				return errors.Errorf("operation %d: prompt needs a label or a selection", i)
			}
		default:
			return errors.Errorf("operation %d: unknown op %q", i, op.Op)
		}
	}
	return nil
}

// Transforms returns the image-to-global and global-to-view transforms,
// defaulting to identity when omitted
func (j *Job) Transforms() (imageToGlobal, globalToView *transform.Affine, err error) {
	imageToGlobal, err = affineOrIdentity(j.ImageToGlobal)
	if err != nil {
		return nil, nil, errors.Wrap(err, "imageToGlobal")
	}
	globalToView, err = affineOrIdentity(j.GlobalToView)
	if err != nil {
		return nil, nil, errors.Wrap(err, "globalToView")
	}
	return imageToGlobal, globalToView, nil
}

func affineOrIdentity(values []float64) (*transform.Affine, error) {
	if len(values) == 0 {
		return transform.Identity(), nil
	}
	return transform.NewAffine(values)
}

// NewVolume creates the empty labeling the job is replayed on
func (j *Job) NewVolume() labeling.Volume {
	v := j.Volume
	if v.Width == 0 || v.Height == 0 || v.Depth == 0 {
		return labeling.NewSparse()
	}
	return labeling.NewDense(v.Width, v.Height, v.Depth)
}

// Polygon returns the polygon of a fill or erase operation
func (op Operation) Polygon() (models.Polygon, error) {
	space, err := models.ParseSpace(op.Space)
	if err != nil {
		return models.Polygon{}, err
	}
	points := make([]r3.Vector, len(op.Points))
	for i, p := range op.Points {
		points[i] = toVector(p)
	}
	return models.Polygon{Points: points, Space: space}, nil
}

// Corners returns the prompt box corners of a prompt operation
func (op Operation) Corners() (lo, hi r3.Vector) {
	return toVector(op.Min), toVector(op.Max)
}

func toVector(p [3]float64) r3.Vector {
	return r3.Vector{X: p[0], Y: p[1], Z: p[2]}
}

// Stroke returns the brush stroke of a brush or erase-brush operation
func (op Operation) Stroke() (editor.Stroke, error) {
	poly, err := op.Polygon()
	if err != nil {
		return editor.Stroke{}, err
	}
	return editor.Stroke{
		Points: poly.Points,
		Space:  poly.Space,
		Radius: op.Radius,
		Normal: toVector(op.Normal),
	}, nil
}

// SeedVoxel returns the seed of a flood or pick operation
func (op Operation) SeedVoxel() models.Voxel {
	return models.Voxel{X: op.Seed[0], Y: op.Seed[1], Z: op.Seed[2]}
}

// PlaneNormal returns the axis normal to the flood plane
func (op Operation) PlaneNormal() (r3.Axis, error) {
	return models.ParseAxis(op.Plane)
}
