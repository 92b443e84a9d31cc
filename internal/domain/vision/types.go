package vision

import "github.com/kendfrey/saigo/internal/domain/board"

// CellPrediction is the model's class distribution for one intersection.
// Components sum to approximately 1.
type CellPrediction struct {
	Empty    float32
	Black    float32
	White    float32
	Obscured float32
}

// ArgMax returns the most probable class and its probability.
func (p CellPrediction) ArgMax() (board.Cell, float32) {
	cell, best := board.Empty, p.Empty
	if p.Black > best {
		cell, best = board.CellBlack, p.Black
	}
	if p.White > best {
		cell, best = board.CellWhite, p.White
	}
	if p.Obscured > best {
		cell, best = board.Obscured, p.Obscured
	}
	return cell, best
}

// Tuple returns the prediction in wire order (empty, black, white, obscured).
func (p CellPrediction) Tuple() [4]float32 {
	return [4]float32{p.Empty, p.Black, p.White, p.Obscured}
}

// RawBoard is one frame's per-intersection predictions, row-major.
type RawBoard struct {
	Shape board.Shape
	Cells []CellPrediction
}

func NewRawBoard(shape board.Shape) RawBoard {
	return RawBoard{
		Shape: shape,
		Cells: make([]CellPrediction, shape.Width*shape.Height),
	}
}

// TileBatch is the model input: one tile per intersection, channels-first RGB
// floats in [0, 1], laid out (tile, channel, y, x).
type TileBatch struct {
	Tiles    int
	TileSize int
	Data     []float32
}

// Zero reports whether the batch carries no usable image data, which happens
// when the calibration quadrilateral is degenerate.
func (b TileBatch) Zero() bool {
	for _, v := range b.Data {
		if v != 0 {
			return false
		}
	}
	return true
}
