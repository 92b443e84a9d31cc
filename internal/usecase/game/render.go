package game

import (
	"image"
	"image/color"

	"github.com/kendfrey/saigo/internal/domain/board"
)

// DisplayScale is the size in pixels of one intersection cell on the logical
// display image.
const DisplayScale = 9

// BlinkHz is the blink frequency of attention markers.
const BlinkHz = 2

var (
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorRed    = color.RGBA{255, 0, 0, 255}
	colorGreen  = color.RGBA{0, 255, 0, 255}
	colorYellow = color.RGBA{255, 255, 0, 255}
	colorStone  = color.RGBA{48, 48, 48, 255}
)

// BlinkOn derives the blink phase from the scheduler's frame counter at 50%
// duty cycle.
func BlinkOn(frame uint64, fps int) bool {
	if fps < 2*BlinkHz {
		fps = 2 * BlinkHz
	}
	period := uint64(fps / BlinkHz)
	return frame%period < period/2
}

// Render draws the logical board-space display image for the current state.
// The frame counter drives blink effects.
func (e *Engine) Render(frame uint64, fps int) *image.RGBA {
	snap := e.Snapshot()
	img := newCanvas(snap.Shape)
	blink := BlinkOn(frame, fps)

	switch snap.State {
	case StateCalibration:
		renderCalibration(img, snap.Shape)
	case StateTraining:
		renderTraining(img, snap.Shape, snap.TrainingPattern)
	case StateGame:
		renderGame(img, snap, blink)
	case StateGameOver:
		renderGameOver(img, snap)
	}
	return img
}

// RenderError draws the static pattern shown when the camera has failed for
// an extended period: a red border with a red diagonal cross.
func RenderError(shape board.Shape) *image.RGBA {
	img := newCanvas(shape)
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	for x := 0; x < w; x++ {
		y := x * h / w
		setPixel(img, x, y, colorRed)
		setPixel(img, x, h-1-y, colorRed)
		setPixel(img, x, 0, colorRed)
		setPixel(img, x, h-1, colorRed)
	}
	for y := 0; y < h; y++ {
		setPixel(img, 0, y, colorRed)
		setPixel(img, w-1, y, colorRed)
	}
	return img
}

func newCanvas(shape board.Shape) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, shape.Width*DisplayScale, shape.Height*DisplayScale))
}

func renderCalibration(img *image.RGBA, shape board.Shape) {
	small := DisplayScale * 2 / 10
	large := DisplayScale * 4 / 10
	for y := 0; y < shape.Height; y++ {
		for x := 0; x < shape.Width; x++ {
			fillDot(img, x, y, small, colorWhite)
		}
	}
	// Corner markers orient the projection: green top-left, red top-right.
	fillDot(img, 0, 0, large, colorGreen)
	fillDot(img, shape.Width-1, 0, large, colorRed)
}

func renderTraining(img *image.RGBA, shape board.Shape, pattern []board.Cell) {
	if len(pattern) != shape.Width*shape.Height {
		return
	}
	radius := DisplayScale * 45 / 100
	for y := 0; y < shape.Height; y++ {
		for x := 0; x < shape.Width; x++ {
			switch pattern[y*shape.Width+x] {
			case board.CellBlack:
				fillDot(img, x, y, radius, colorStone)
			case board.CellWhite:
				fillDot(img, x, y, radius, colorWhite)
			}
		}
	}
}

func renderGame(img *image.RGBA, snap Snapshot, blink bool) {
	if snap.Pending != nil {
		fillStripe(img, snap.Shape, sideRow(snap.Shape, snap.UserColor), colorYellow)
		if x, y, err := snap.Pending.Location.XY(); err == nil && blink {
			fillDot(img, x, y, DisplayScale*4/10, colorWhite)
		}
		return
	}

	stripeColor := snap.UserColor
	if snap.Awaiting == RoleOpponent {
		stripeColor = snap.UserColor.Opposite()
	}
	fillStripe(img, snap.Shape, sideRow(snap.Shape, stripeColor), colorWhite)

	if snap.Awaiting == RoleUser && blink {
		for _, p := range mismatchedCells(snap) {
			fillCell(img, p[0], p[1], colorRed)
		}
	}
}

// mismatchedCells lists the intersections to blink red: obscured cells and
// observed stones that contradict the expected board. Extra stones of the
// user's own color are suppressed since they may be a move or pass gesture in
// progress.
func mismatchedCells(snap Snapshot) [][2]int {
	var cells [][2]int
	userCell := board.CellOf(snap.UserColor)
	for y := 0; y < snap.Shape.Height; y++ {
		for x := 0; x < snap.Shape.Width; x++ {
			obs := snap.Observed.At(x, y)
			exp := snap.Expected.At(x, y)
			if obs == exp {
				continue
			}
			if obs == board.Obscured {
				cells = append(cells, [2]int{x, y})
				continue
			}
			if exp == board.Empty && obs == userCell {
				continue
			}
			cells = append(cells, [2]int{x, y})
		}
	}
	return cells
}

func renderGameOver(img *image.RGBA, snap Snapshot) {
	blackColor := colorRed
	whiteColor := colorGreen
	if snap.Winner == board.Black {
		blackColor, whiteColor = colorGreen, colorRed
	}
	mid := snap.Shape.Height * DisplayScale / 2
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	for y := 0; y < h; y++ {
		c := blackColor
		if y >= mid {
			c = whiteColor
		}
		for x := 0; x < w; x++ {
			setPixel(img, x, y, c)
		}
	}
}

// sideRow returns the stripe row for a color's side of the board: Black owns
// the top edge, White the bottom.
func sideRow(shape board.Shape, c board.Color) int {
	if c == board.Black {
		return 0
	}
	return shape.Height - 1
}

func fillStripe(img *image.RGBA, shape board.Shape, row int, c color.RGBA) {
	for x := 0; x < shape.Width; x++ {
		fillCell(img, x, row, c)
	}
}

func fillCell(img *image.RGBA, cx, cy int, c color.RGBA) {
	for dy := 0; dy < DisplayScale; dy++ {
		for dx := 0; dx < DisplayScale; dx++ {
			setPixel(img, cx*DisplayScale+dx, cy*DisplayScale+dy, c)
		}
	}
}

func fillDot(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	centerX := cx*DisplayScale + DisplayScale/2
	centerY := cy*DisplayScale + DisplayScale/2
	if radius < 1 {
		radius = 1
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(img, centerX+dx, centerY+dy, c)
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	off := y*img.Stride + x*4
	img.Pix[off] = c.R
	img.Pix[off+1] = c.G
	img.Pix[off+2] = c.B
	img.Pix[off+3] = c.A
}
