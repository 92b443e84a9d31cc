package board

import "fmt"

// MaxDimension is the largest board edge expressible in SGF coordinates.
const MaxDimension = 52

// StoneSize is the width in pixels of one intersection tile on the
// normalized image of the board.
const StoneSize = 16

type Color int

const (
	Black Color = iota
	White
)

func (c Color) Opposite() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == Black {
		return "B"
	}
	return "W"
}

// ParseColor accepts the wire encoding "B" or "W".
func ParseColor(s string) (Color, error) {
	switch s {
	case "B", "b":
		return Black, nil
	case "W", "w":
		return White, nil
	}
	return Black, fmt.Errorf("invalid color %q", s)
}

// Cell is the state of a single intersection as seen by vision.
type Cell int

const (
	Empty Cell = iota
	CellBlack
	CellWhite
	Obscured
)

func CellOf(c Color) Cell {
	if c == Black {
		return CellBlack
	}
	return CellWhite
}

// Shape is the dimensions of the playing grid.
type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Shape) Validate() error {
	if s.Width < 1 || s.Width > MaxDimension || s.Height < 1 || s.Height > MaxDimension {
		return fmt.Errorf("board shape %dx%d out of range 1..%d", s.Width, s.Height, MaxDimension)
	}
	return nil
}

// Board is a row-major grid of cells. Row 0 is the top edge.
type Board struct {
	Shape Shape
	Cells []Cell
}

func New(shape Shape) Board {
	return Board{
		Shape: shape,
		Cells: make([]Cell, shape.Width*shape.Height),
	}
}

func (b Board) At(x, y int) Cell {
	return b.Cells[y*b.Shape.Width+x]
}

func (b *Board) Set(x, y int, c Cell) {
	b.Cells[y*b.Shape.Width+x] = c
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Shape.Width && y >= 0 && y < b.Shape.Height
}

func (b Board) Clone() Board {
	cells := make([]Cell, len(b.Cells))
	copy(cells, b.Cells)
	return Board{Shape: b.Shape, Cells: cells}
}

func (b Board) Equals(other Board) bool {
	if b.Shape != other.Shape {
		return false
	}
	for i := range b.Cells {
		if b.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

var neighborOffsets = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// group returns the maximal connected chain of same-colored stones containing
// (x, y) and reports whether the chain has at least one liberty.
func (b Board) group(x, y int) (stones [][2]int, hasLiberty bool) {
	color := b.At(x, y)
	if color != CellBlack && color != CellWhite {
		return nil, false
	}
	visited := make(map[[2]int]bool)
	stack := [][2]int{{x, y}}
	visited[[2]int{x, y}] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, p)
		for _, d := range neighborOffsets {
			nx, ny := p[0]+d[0], p[1]+d[1]
			if !b.InBounds(nx, ny) {
				continue
			}
			switch b.At(nx, ny) {
			case Empty:
				hasLiberty = true
			case color:
				n := [2]int{nx, ny}
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return stones, hasLiberty
}

// ApplyMove places a stone of the given color at (x, y) and removes captured
// groups. Opponent groups adjacent to the placed stone with no liberties are
// removed first; if the placed group then has no liberty it is removed too.
// Rule legality is not checked.
func (b Board) ApplyMove(c Color, x, y int) Board {
	next := b.Clone()
	next.Set(x, y, CellOf(c))

	opponent := CellOf(c.Opposite())
	for _, d := range neighborOffsets {
		nx, ny := x+d[0], y+d[1]
		if !next.InBounds(nx, ny) || next.At(nx, ny) != opponent {
			continue
		}
		if stones, hasLiberty := next.group(nx, ny); !hasLiberty {
			for _, p := range stones {
				next.Set(p[0], p[1], Empty)
			}
		}
	}

	if stones, hasLiberty := next.group(x, y); !hasLiberty {
		for _, p := range stones {
			next.Set(p[0], p[1], Empty)
		}
	}

	return next
}
