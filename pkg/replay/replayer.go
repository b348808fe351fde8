// Package replay runs a job file against a fresh labeled volume: it applies
// every operation in order, summarizes the resulting labels and optionally
// exports per-label mask slices.
package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"labelfill/internal/models"
	"labelfill/pkg/config"
	"labelfill/pkg/editor"
	"labelfill/pkg/job"
	"labelfill/pkg/labeling"
	"labelfill/pkg/prompts"
	"labelfill/pkg/visualization"
)

// Params holds the replay parameters
type Params struct {
	// JobFile is the YAML job to replay
	JobFile string

	// OutputDir receives the exported slices as OutputDir/<label>/<axis>/.
	// Slices are skipped when empty.
	OutputDir string

	// Config supplies the fill, prompt and output settings. Nil means defaults.
	Config *config.Config
}

// OperationResult records what one job operation did
type OperationResult struct {
	Index int
	Op    string
	Label models.Label
	Stats labeling.Stats

	// Polygons is the number of polygons a prompt produced
	Polygons int
}

// Replayer replays one job. The process consists of:
// 1. Loading the job file
// 2. Building the volume, session, editor and prompt annotator
// 3. Applying the operations in order
// 4. Summarizing the labels
// 5. Exporting mask slices
type Replayer struct {
	params *Params
	logger *zap.SugaredLogger

	job       *job.Job
	volume    labeling.Volume
	session   *editor.StaticSession
	editor    *editor.Editor
	selection *editor.Selection
	annotator *prompts.Annotator

	results []OperationResult
	summary []labeling.LabelStats
	slices  int
}

// NewReplayer creates a replayer for params
func NewReplayer(params *Params, logger *zap.SugaredLogger) *Replayer {
	if params.Config == nil {
		params.Config = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Replayer{params: params, logger: logger}
}

// Process runs the complete replay
func (r *Replayer) Process(ctx context.Context) error {
	r.logger.Infow("loading job", "file", r.params.JobFile)
	j, err := job.Load(r.params.JobFile)
	if err != nil {
		return err
	}
	return r.ProcessJob(ctx, j)
}

// ProcessJob replays an already loaded job
func (r *Replayer) ProcessJob(ctx context.Context, j *job.Job) error {
	r.job = j
	if err := r.setup(); err != nil {
		return errors.Wrap(err, "failed to set up editor")
	}

	r.logger.Infow("applying operations", "count", len(j.Operations))
	if err := r.applyOperations(ctx); err != nil {
		return err
	}

	r.summary = labeling.Summarize(r.volume)
	r.logger.Infow("labels summarized", "labels", len(r.summary), "repaints", r.session.Repaints())

	cfg := r.params.Config
	if cfg.Output.Slices && r.params.OutputDir != "" {
		if err := r.exportSlices(); err != nil {
			return errors.Wrap(err, "failed to export slices")
		}
	}
	return nil
}

func (r *Replayer) setup() error {
	params, err := r.params.Config.EditorParams()
	if err != nil {
		return err
	}
	imageToGlobal, globalToView, err := r.job.Transforms()
	if err != nil {
		return err
	}

	r.volume = r.job.NewVolume()
	r.session = editor.NewStaticSession(imageToGlobal, globalToView)
	r.editor = editor.NewEditor(r.session, r.volume, params, r.logger.Named("editor"))

	r.selection = editor.NewSelection(models.Label(r.job.Selection))
	r.annotator = prompts.NewAnnotator(r.editor, r.selection, r.logger.Named("prompts"))
	r.annotator.AddResponder(prompts.NewFakeResponder(r.params.Config.Prompts.Inset))
	return nil
}

func (r *Replayer) applyOperations(ctx context.Context) error {
	r.annotator.Start()
	defer r.annotator.Stop()

	for i, op := range r.job.Operations {
		res := OperationResult{Index: i, Op: op.Op, Label: models.Label(op.Label)}

		switch op.Op {
		case job.OpFill, job.OpErase:
			poly, err := op.Polygon()
			if err != nil {
				return errors.Wrapf(err, "operation %d", i)
			}
			if op.Op == job.OpFill {
				res.Stats, err = r.editor.FillPolygon(poly, res.Label)
			} else {
				res.Stats, err = r.editor.ErasePolygon(poly, res.Label)
			}
			if err != nil {
				return errors.Wrapf(err, "operation %d (%s %s)", i, op.Op, op.Label)
			}
			res.Polygons = 1

		case job.OpBrush, job.OpEraseBrush:
			stroke, err := op.Stroke()
			if err != nil {
				return errors.Wrapf(err, "operation %d", i)
			}
			if op.Op == job.OpBrush {
				res.Stats, err = r.editor.Brush(stroke, res.Label)
			} else {
				res.Stats, err = r.editor.EraseBrush(stroke, res.Label)
			}
			if err != nil {
				return errors.Wrapf(err, "operation %d (%s %s)", i, op.Op, op.Label)
			}

		case job.OpFloodFill, job.OpFloodErase:
			normal, err := op.PlaneNormal()
			if err != nil {
				return errors.Wrapf(err, "operation %d", i)
			}
			if op.Op == job.OpFloodFill {
				res.Stats, err = r.editor.FloodFill(op.SeedVoxel(), normal, res.Label)
			} else {
				res.Stats, err = r.editor.FloodErase(op.SeedVoxel(), normal, res.Label)
			}
			if err != nil {
				return errors.Wrapf(err, "operation %d (%s %s)", i, op.Op, op.Label)
			}

		case job.OpPick:
			label, ok := r.selection.Pick(r.editor, op.SeedVoxel())
			if !ok {
				r.logger.Warnw("pipette found no label", "index", i, "seed", op.SeedVoxel().String())
			}
			res.Label = label

		case job.OpPrompt:
			space, err := models.ParseSpace(op.Space)
			if err != nil {
				return errors.Wrapf(err, "operation %d", i)
			}
			if res.Label == "" {
				res.Label, _ = r.selection.SelectedLabel()
			}
			lo, hi := op.Corners()
			answer, err := r.annotator.Submit(ctx, prompts.Prompt{Min: lo, Max: hi, Space: space, Label: res.Label})
			if err != nil {
				return errors.Wrapf(err, "operation %d (prompt)", i)
			}
			res.Stats = answer.Stats
			res.Polygons = answer.Polygons

		default:
			return errors.Errorf("operation %d: unknown op %q", i, op.Op)
		}

		r.logger.Debugw("operation applied",
			"index", i,
			"op", op.Op,
			"label", res.Label,
			"samples", res.Stats.Samples,
			"changed", res.Stats.Changed,
			"clipped", res.Stats.Clipped,
		)
		r.results = append(r.results, res)
	}
	return nil
}

func (r *Replayer) exportSlices() error {
	viewer := visualization.NewViewer(r.volume)
	for _, ls := range r.summary {
		for _, axis := range r.params.Config.Output.Axes {
			axis = strings.ToLower(axis)
			dir := filepath.Join(r.params.OutputDir, labelDir(ls.Label), axis)
			r.logger.Infow("saving slices", "label", ls.Label, "axis", axis, "dir", dir)

			n, err := viewer.SaveSliceSequence(axis, ls.Label, dir)
			r.slices += n
			if err != nil {
				return errors.Wrapf(err, "label %s axis %s", ls.Label, axis)
			}
		}
	}
	return nil
}

// labelDir turns a label into a single path element
func labelDir(l models.Label) string {
	name := strings.Map(func(c rune) rune {
		if c == '/' || c == os.PathSeparator {
			return '_'
		}
		return c
	}, string(l))
	if name == "." || name == ".." {
		name = "_" + name
	}
	return name
}

// Results returns the per-operation results in job order
func (r *Replayer) Results() []OperationResult {
	return r.results
}

// Summary returns the per-label statistics of the final volume
func (r *Replayer) Summary() []labeling.LabelStats {
	return r.summary
}

// Volume returns the replayed volume
func (r *Replayer) Volume() labeling.Volume {
	return r.volume
}

// Repaints returns the number of repaint requests the edits issued
func (r *Replayer) Repaints() int {
	if r.session == nil {
		return 0
	}
	return r.session.Repaints()
}

// SlicesWritten returns the number of slice images exported
func (r *Replayer) SlicesWritten() int {
	return r.slices
}
