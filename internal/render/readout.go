package render

import (
	"context"
	"sync"
	"time"
)

// Display is the UI collaborator: panel visibility and named text targets.
type Display interface {
	SetVisible(target string, visible bool)
	SetText(target, text string)
	SetOpacity(target string, opacity float64)
	SetColor(target, color string)
}

// Targets names the readout targets of one chart. Values are matched to series by index.
type Targets struct {
	Label  string
	Values []string
	Detail string
}

func (t Targets) all() []string {
	out := make([]string, 0, len(t.Values)+2)
	if t.Label != "" {
		out = append(out, t.Label)
	}
	if t.Detail != "" {
		out = append(out, t.Detail)
	}
	for _, v := range t.Values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Readout writes text to display targets, optionally fading them out and back in.
type Readout struct {
	display Display
	fade    time.Duration
}

// NewReadout returns a Readout. A zero fade writes immediately.
func NewReadout(display Display, fade time.Duration) *Readout {
	if display == nil {
		display = NewBoard()
	}
	return &Readout{display: display, fade: fade}
}

// Publish sets every target to its text. With a fade delay the targets are hidden
// for the delay before the new text appears.
func (r *Readout) Publish(ctx context.Context, texts map[string]string) error {
	if err := r.Fade(ctx, texts); err != nil {
		return err
	}
	r.Write(texts)
	return nil
}

// Fade hides the targets of texts and waits out the fade delay. On cancellation the
// targets are shown again with their old text.
func (r *Readout) Fade(ctx context.Context, texts map[string]string) error {
	if r.fade <= 0 {
		return nil
	}
	for target := range texts {
		r.display.SetOpacity(target, 0)
	}
	timer := time.NewTimer(r.fade)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		for target := range texts {
			r.display.SetOpacity(target, 1)
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Write sets every target to its text and shows it.
func (r *Readout) Write(texts map[string]string) {
	for target, text := range texts {
		r.display.SetText(target, text)
		r.display.SetOpacity(target, 1)
	}
}

// Color sets the text color of targets; an empty color restores the default.
func (r *Readout) Color(color string, targets ...string) {
	for _, t := range targets {
		r.display.SetColor(t, color)
	}
}

// Clear empties every target immediately.
func (r *Readout) Clear(t Targets) {
	for _, target := range t.all() {
		r.display.SetText(target, "")
		r.display.SetColor(target, "")
		r.display.SetOpacity(target, 1)
	}
}

// TargetState is the current content of one display target.
type TargetState struct {
	Text    string
	Color   string
	Opacity float64
	Visible bool
}

// Board is an in-memory Display. It is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	targets map[string]TargetState
}

func NewBoard() *Board {
	return &Board{targets: make(map[string]TargetState)}
}

func (b *Board) update(target string, fn func(*TargetState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.targets[target]
	if !ok {
		st = TargetState{Opacity: 1, Visible: true}
	}
	fn(&st)
	b.targets[target] = st
}

func (b *Board) SetVisible(target string, visible bool) {
	b.update(target, func(s *TargetState) { s.Visible = visible })
}

func (b *Board) SetText(target, text string) {
	b.update(target, func(s *TargetState) { s.Text = text })
}

func (b *Board) SetOpacity(target string, opacity float64) {
	b.update(target, func(s *TargetState) { s.Opacity = opacity })
}

func (b *Board) SetColor(target, color string) {
	b.update(target, func(s *TargetState) { s.Color = color })
}

// Get returns the state of a target. Unknown targets are visible, empty and opaque.
func (b *Board) Get(target string) TargetState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if st, ok := b.targets[target]; ok {
		return st
	}
	return TargetState{Opacity: 1, Visible: true}
}

// Text returns the text of a target.
func (b *Board) Text(target string) string {
	return b.Get(target).Text
}

// Visible reports whether a target is shown.
func (b *Board) Visible(target string) bool {
	return b.Get(target).Visible
}
