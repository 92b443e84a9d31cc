// Package stabilizer converts per-frame class probabilities into a committed
// discrete board. An exponential moving average absorbs frame jitter and a
// hysteresis threshold keeps cells from flickering between neighboring
// classes.
package stabilizer

import (
	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/vision"
)

const (
	// Alpha is the EMA retention factor: S = Alpha*S + (1-Alpha)*R.
	Alpha = 0.5
	// CommitThreshold is the smoothed probability a class must exceed
	// before a cell commits to it.
	CommitThreshold = 0.8
)

// Stabilizer holds the smoothing state for one board shape.
type Stabilizer struct {
	shape    board.Shape
	smoothed []vision.CellPrediction
	primed   bool

	// committed is the hysteresis output fed to the game engine; it can
	// hold Obscured. visible is the published projection where obscured
	// cells retain their last committed readable value.
	committed board.Board
	visible   board.Board
	last      board.Board
	published bool
}

func New(shape board.Shape) *Stabilizer {
	s := &Stabilizer{}
	s.Reset(shape)
	return s
}

// Reset discards all smoothing state. Called on configuration change and on
// game reset.
func (s *Stabilizer) Reset(shape board.Shape) {
	s.shape = shape
	s.smoothed = make([]vision.CellPrediction, shape.Width*shape.Height)
	s.primed = false
	s.committed = board.New(shape)
	s.visible = board.New(shape)
	s.published = false
}

// Result is the outcome of observing one frame's predictions.
type Result struct {
	// Smoothed is the EMA state, published verbatim on the raw-board stream.
	Smoothed vision.RawBoard
	// Committed is the discrete board including Obscured cells.
	Committed board.Board
	// Visible is Committed with obscured cells replaced by their previous
	// readable value; only this form is published on the board stream.
	Visible board.Board
	// Changed reports whether Visible differs from the last published board.
	Changed bool
}

// Observe folds one frame of raw predictions into the smoothing state.
func (s *Stabilizer) Observe(raw []vision.CellPrediction) Result {
	if s.primed {
		for i, r := range raw {
			p := &s.smoothed[i]
			p.Empty = Alpha*p.Empty + (1-Alpha)*r.Empty
			p.Black = Alpha*p.Black + (1-Alpha)*r.Black
			p.White = Alpha*p.White + (1-Alpha)*r.White
			p.Obscured = Alpha*p.Obscured + (1-Alpha)*r.Obscured
		}
	} else {
		copy(s.smoothed, raw)
		s.primed = true
	}

	for i, p := range s.smoothed {
		cell, prob := p.ArgMax()
		if prob > CommitThreshold && cell != s.committed.Cells[i] {
			s.committed.Cells[i] = cell
		}
		if s.committed.Cells[i] != board.Obscured {
			s.visible.Cells[i] = s.committed.Cells[i]
		}
	}

	smoothed := vision.RawBoard{Shape: s.shape, Cells: make([]vision.CellPrediction, len(s.smoothed))}
	copy(smoothed.Cells, s.smoothed)

	result := Result{
		Smoothed:  smoothed,
		Committed: s.committed.Clone(),
		Visible:   s.visible.Clone(),
	}

	result.Changed = !s.published || !result.Visible.Equals(s.last)
	if result.Changed {
		s.published = true
		s.last = result.Visible.Clone()
	}
	return result
}
