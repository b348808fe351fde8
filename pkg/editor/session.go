package editor

import (
	"sync"

	"labelfill/internal/models"
	"labelfill/pkg/transform"
)

// Session is the viewing session a labeling is edited in
type Session interface {
	// ImageToGlobal places the labeled image in world space
	ImageToGlobal() *transform.Affine

	// GlobalToView maps world space onto the viewer's screen
	GlobalToView() *transform.Affine

	// RequestRepaint asks the viewer to redraw
	RequestRepaint()
}

// LabelSelection exposes the label currently chosen by the user
type LabelSelection interface {
	SelectedLabel() (models.Label, bool)
}

// FixedSelection is a LabelSelection that always returns the same label.
// The zero value selects nothing.
type FixedSelection models.Label

// SelectedLabel implements LabelSelection
func (s FixedSelection) SelectedLabel() (models.Label, bool) {
	return models.Label(s), s != ""
}

// Selection is a LabelSelection the user can change, as in a tool panel
type Selection struct {
	mu    sync.Mutex
	label models.Label
}

// NewSelection returns a selection holding label; the empty label selects nothing
func NewSelection(label models.Label) *Selection {
	return &Selection{label: label}
}

// Select makes label the selected one
func (s *Selection) Select(label models.Label) {
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

// SelectedLabel implements LabelSelection
func (s *Selection) SelectedLabel() (models.Label, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label, s.label != ""
}

// Pick selects a label found at v, like a pipette. The current selection is
// kept when v carries it; otherwise the first of v's labels is chosen. It
// reports false, leaving the selection alone, when v has no label.
func (s *Selection) Pick(ed *Editor, v models.Voxel) (models.Label, bool) {
	labels := ed.PickLabel(v)
	if labels.Len() == 0 {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !labels.Contains(s.label) {
		s.label = labels[0]
	}
	return s.label, true
}

// StaticSession is a Session with transforms set by the caller. It counts
// repaint requests instead of drawing anything.
type StaticSession struct {
	mu            sync.Mutex
	imageToGlobal *transform.Affine
	globalToView  *transform.Affine
	repaints      int
}

// NewStaticSession returns a session with the given transforms; nil means identity
func NewStaticSession(imageToGlobal, globalToView *transform.Affine) *StaticSession {
	if imageToGlobal == nil {
		imageToGlobal = transform.Identity()
	}
	if globalToView == nil {
		globalToView = transform.Identity()
	}
	return &StaticSession{imageToGlobal: imageToGlobal, globalToView: globalToView}
}

// ImageToGlobal implements Session
func (s *StaticSession) ImageToGlobal() *transform.Affine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageToGlobal
}

// GlobalToView implements Session
func (s *StaticSession) GlobalToView() *transform.Affine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalToView
}

// SetGlobalToView moves the viewpoint
func (s *StaticSession) SetGlobalToView(t *transform.Affine) {
	s.mu.Lock()
	s.globalToView = t
	s.mu.Unlock()
}

// SetImageToGlobal changes the image registration
func (s *StaticSession) SetImageToGlobal(t *transform.Affine) {
	s.mu.Lock()
	s.imageToGlobal = t
	s.mu.Unlock()
}

// RequestRepaint implements Session
func (s *StaticSession) RequestRepaint() {
	s.mu.Lock()
	s.repaints++
	s.mu.Unlock()
}

// Repaints returns how many repaints were requested so far
func (s *StaticSession) Repaints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repaints
}
