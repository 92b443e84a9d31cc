package board

import "fmt"

// sgfCharMap indexes SGF coordinate letters: a..z cover 0..25, A..Z cover 26..51.
const sgfCharMap = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SgfPoint is a board location in SGF notation, column letter then row letter.
// Row 0 is the top edge.
type SgfPoint string

// PointFromXY encodes a coordinate pair as an SGF point.
func PointFromXY(x, y int) (SgfPoint, error) {
	if x < 0 || x >= MaxDimension || y < 0 || y >= MaxDimension {
		return "", fmt.Errorf("coordinate (%d, %d) out of SGF range", x, y)
	}
	return SgfPoint([]byte{sgfCharMap[x], sgfCharMap[y]}), nil
}

// XY decodes the SGF point into a coordinate pair.
func (p SgfPoint) XY() (x, y int, err error) {
	if len(p) != 2 {
		return 0, 0, fmt.Errorf("invalid SGF point %q", string(p))
	}
	x = sgfIndex(p[0])
	y = sgfIndex(p[1])
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("invalid SGF point %q", string(p))
	}
	return x, y, nil
}

func sgfIndex(c byte) int {
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 26
	}
	return -1
}
