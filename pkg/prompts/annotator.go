package prompts

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"labelfill/internal/models"
	"labelfill/pkg/editor"
	"labelfill/pkg/labeling"
)

// ErrInactive is returned when a prompt is submitted while the annotator is stopped
var ErrInactive = errors.New("prompt annotator is not active")

// Result describes what one prompt did to the volume
type Result struct {
	// Polygons is the number of polygons returned by all responders
	Polygons int

	// Stats sums the writes of all polygons
	Stats labeling.Stats
}

// Annotator collects polygons from its responders and fills them through an
// editor. Responders run concurrently and off the editor's lock; their
// polygons are filled one by one afterwards.
type Annotator struct {
	mu         sync.Mutex
	active     bool
	responders []Responder

	editor    *editor.Editor
	selection editor.LabelSelection
	logger    *zap.SugaredLogger
}

// NewAnnotator creates a stopped annotator that fills with the label chosen in selection
func NewAnnotator(ed *editor.Editor, selection editor.LabelSelection, logger *zap.SugaredLogger) *Annotator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Annotator{
		editor:    ed,
		selection: selection,
		logger:    logger,
	}
}

// AddResponder registers another responder
func (a *Annotator) AddResponder(r Responder) {
	a.mu.Lock()
	a.responders = append(a.responders, r)
	a.mu.Unlock()
}

// Start makes the annotator accept prompts
func (a *Annotator) Start() {
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	a.logger.Debug("prompt annotation started")
}

// Stop makes the annotator refuse prompts
func (a *Annotator) Stop() {
	a.mu.Lock()
	a.active = false
	a.mu.Unlock()
	a.logger.Debug("prompt annotation stopped")
}

// Active reports whether prompts are accepted
func (a *Annotator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Submit asks every responder for polygons and fills them. If any responder
// fails, nothing is written.
func (a *Annotator) Submit(ctx context.Context, p Prompt) (Result, error) {
	a.mu.Lock()
	active := a.active
	responders := append([]Responder(nil), a.responders...)
	a.mu.Unlock()

	if !active {
		return Result{}, ErrInactive
	}

	label := p.Label
	if label == "" {
		var ok bool
		if label, ok = a.selection.SelectedLabel(); !ok {
			return Result{}, editor.ErrNoSelection
		}
	}

	answers := make([][]models.Polygon, len(responders))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range responders {
		g.Go(func() error {
			polys, err := r.Respond(gctx, p)
			if err != nil {
				return errors.Wrapf(err, "responder %d", i)
			}
			answers[i] = polys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, polys := range answers {
		for _, poly := range polys {
			stats, err := a.editor.FillPolygon(poly, label)
			if err != nil {
				return res, err
			}
			res.Polygons++
			res.Stats.Samples += stats.Samples
			res.Stats.Changed += stats.Changed
			res.Stats.Clipped += stats.Clipped
		}
	}
	a.logger.Debugw("prompt answered",
		"label", label,
		"responders", len(responders),
		"polygons", res.Polygons,
		"changed", res.Stats.Changed,
	)
	return res, nil
}
