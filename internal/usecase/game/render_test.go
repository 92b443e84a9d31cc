package game

import (
	"image/color"
	"testing"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
)

func pixelAtCell(e *Engine, frame uint64, x, y int) color.RGBA {
	img := e.Render(frame, 30)
	px := x*DisplayScale + DisplayScale/2
	py := y*DisplayScale + DisplayScale/2
	return img.RGBAAt(px, py)
}

func TestRenderCalibrationPattern(t *testing.T) {
	shape := board.Shape{Width: 9, Height: 9}
	e := testEngine(t, shape)

	if got := pixelAtCell(e, 0, 0, 0); got != colorGreen {
		t.Errorf("top-left corner dot %v, want green", got)
	}
	if got := pixelAtCell(e, 0, 8, 0); got != colorRed {
		t.Errorf("top-right corner dot %v, want red", got)
	}
	if got := pixelAtCell(e, 0, 4, 4); got != colorWhite {
		t.Errorf("intersection dot %v, want white", got)
	}
	img := e.Render(0, 30)
	if got := img.RGBAAt(1, 1); got != (color.RGBA{0, 0, 0, 0}) {
		t.Errorf("background %v, want transparent black", got)
	}
}

func TestRenderStripes(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	// User is black: their stripe is the top row.
	if got := pixelAtCell(e, 0, 2, 0); got != colorWhite {
		t.Errorf("user stripe %v, want white on the top row", got)
	}

	observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."}) // pass
	if got := pixelAtCell(e, 0, 2, 4); got != colorWhite {
		t.Errorf("opponent stripe %v, want white on the bottom row", got)
	}
	if got := pixelAtCell(e, 0, 2, 0); got == colorWhite {
		t.Errorf("user stripe should move to the opponent's side")
	}
}

func TestRenderPendingMove(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)
	observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."}) // pass

	e.HandleCommand(game.ControlCommand{
		Type: game.CommandPlayMove,
		Move: game.Play("cc", board.White),
	})

	if got := pixelAtCell(e, 0, 0, 0); got != colorYellow {
		t.Errorf("pending stripe %v, want yellow on the user's side", got)
	}

	// The incoming move location blinks white on the frame clock.
	onFrame := uint64(0)
	offFrame := uint64(8) // half of a 15-frame period at 30 fps
	if got := pixelAtCell(e, onFrame, 2, 2); got != colorWhite {
		t.Errorf("pending dot %v, want white during the on phase", got)
	}
	if got := pixelAtCell(e, offFrame, 2, 2); got == colorWhite {
		t.Errorf("pending dot should be dark during the off phase")
	}
}

func TestRenderMismatchBlink(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	observe(t, e, []string{"?....", ".....", ".....", ".....", "....."})

	if got := pixelAtCell(e, 0, 0, 0); got != colorRed {
		t.Errorf("obscured cell %v, want red during the on phase", got)
	}
	if got := pixelAtCell(e, 8, 0, 0); got == colorRed {
		t.Errorf("obscured cell should stop blinking during the off phase")
	}
}

func TestRenderGameOverHalves(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)
	observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."}) // pass
	e.HandleCommand(game.ControlCommand{Type: game.CommandPlayMove, Move: game.Resign(board.White)})

	// Black wins: black's (top) half is green, white's half red.
	if got := pixelAtCell(e, 0, 2, 0); got != colorGreen {
		t.Errorf("winner half %v, want green", got)
	}
	if got := pixelAtCell(e, 0, 2, 4); got != colorRed {
		t.Errorf("loser half %v, want red", got)
	}
}

func TestBlinkOnDutyCycle(t *testing.T) {
	on := 0
	for frame := uint64(0); frame < 30; frame++ {
		if BlinkOn(frame, 30) {
			on++
		}
	}
	if on < 12 || on > 18 {
		t.Errorf("blink on for %d of 30 frames, expected roughly half", on)
	}
}

func TestRenderErrorPattern(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	img := RenderError(shape)
	if got := img.RGBAAt(0, 0); got != colorRed {
		t.Errorf("error pattern corner %v, want red", got)
	}
	mid := shape.Width * DisplayScale / 2
	if got := img.RGBAAt(mid, mid); got != colorRed {
		t.Errorf("error pattern diagonal %v, want red", got)
	}
}
