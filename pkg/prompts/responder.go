// Package prompts drives segmentation-assist responders: the user draws a
// box, each responder answers with polygons, and the polygons are filled
// with the selected label.
package prompts

import (
	"context"

	"github.com/golang/geo/r3"

	"labelfill/internal/models"
)

// Prompt is a rectangular region of interest
type Prompt struct {
	// Min and Max are opposite corners of the box. The box lies in the plane
	// z = Min.Z of Space.
	Min, Max r3.Vector

	// Space is the coordinate space of the corners, usually models.View
	Space models.Space

	// Label overrides the selected label when set
	Label models.Label
}

// Responder turns a prompt into polygons. Implementations may be slow (model
// inference) and must honour ctx.
type Responder interface {
	Respond(ctx context.Context, p Prompt) ([]models.Polygon, error)
}

// ResponderFunc adapts a function to the Responder interface
type ResponderFunc func(ctx context.Context, p Prompt) ([]models.Polygon, error)

// Respond implements Responder
func (f ResponderFunc) Respond(ctx context.Context, p Prompt) ([]models.Polygon, error) {
	return f(ctx, p)
}

// FakeResponder stands in for a model: it answers every prompt with the
// prompt box shrunk by Inset on each side.
type FakeResponder struct {
	Inset float64
}

// NewFakeResponder returns a FakeResponder with the given inset
func NewFakeResponder(inset float64) *FakeResponder {
	return &FakeResponder{Inset: inset}
}

// Respond implements Responder. Boxes too small for the inset produce no polygon.
func (f *FakeResponder) Respond(ctx context.Context, p Prompt) ([]models.Polygon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lo := r3.Vector{X: min(p.Min.X, p.Max.X) + f.Inset, Y: min(p.Min.Y, p.Max.Y) + f.Inset, Z: p.Min.Z}
	hi := r3.Vector{X: max(p.Min.X, p.Max.X) - f.Inset, Y: max(p.Min.Y, p.Max.Y) - f.Inset, Z: p.Min.Z}
	if lo.X >= hi.X || lo.Y >= hi.Y {
		return nil, nil
	}
	return []models.Polygon{models.Rectangle(lo, hi, p.Space)}, nil
}
