package config

import (
	"fmt"
	"image"

	"github.com/kendfrey/saigo/internal/domain/board"
)

// Config is the full set of calibration parameters for one physical setup.
type Config struct {
	Board   BoardConfig   `json:"board"`
	Camera  CameraConfig  `json:"camera"`
	Display DisplayConfig `json:"display"`

	// Reference is the board-framed image captured while the board was
	// empty. It is persisted next to the profile, not in the JSON document.
	Reference *image.RGBA `json:"-"`
}

// BoardConfig is the shape of the physical board.
type BoardConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoardConfig) Shape() board.Shape {
	return board.Shape{Width: b.Width, Height: b.Height}
}

func (b BoardConfig) Validate() error {
	return b.Shape().Validate()
}

// ExtractorSize is the resolution of the board-framed image derived from the
// board shape.
func (b BoardConfig) ExtractorSize() (w, h int) {
	return b.Width * board.StoneSize, b.Height * board.StoneSize
}

// NormalizedPoint is a fractional position within a frame, both axes in [0, 1].
type NormalizedPoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// CameraConfig locates the board within the camera frame. The four corners
// are the projected positions of the four corner intersections.
type CameraConfig struct {
	Device      string          `json:"device"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	TopLeft     NormalizedPoint `json:"top_left"`
	TopRight    NormalizedPoint `json:"top_right"`
	BottomLeft  NormalizedPoint `json:"bottom_left"`
	BottomRight NormalizedPoint `json:"bottom_right"`
}

func (c CameraConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera resolution %dx%d is not positive", c.Width, c.Height)
	}
	if area := c.quadArea(); area <= 0 {
		return fmt.Errorf("camera calibration quadrilateral is degenerate (signed area %f)", area)
	}
	return nil
}

// quadArea is the signed area of the calibration quadrilateral, traversed
// top-left, top-right, bottom-right, bottom-left. Positive for a properly
// oriented non-degenerate quad.
func (c CameraConfig) quadArea() float32 {
	pts := [4]NormalizedPoint{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
	var area float32
	for i := 0; i < 4; i++ {
		p, q := pts[i], pts[(i+1)%4]
		area += p.X*q.Y - q.X*p.Y
	}
	return area / 2
}

// DisplayConfig holds the display calibration parameters defining the
// projector warp.
type DisplayConfig struct {
	ImageWidth   int     `json:"image_width"`
	ImageHeight  int     `json:"image_height"`
	Angle        float32 `json:"angle"`
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Width        float32 `json:"width"`
	Height       float32 `json:"height"`
	PerspectiveX float32 `json:"perspective_x"`
	PerspectiveY float32 `json:"perspective_y"`
}

func (d DisplayConfig) Validate() error {
	if d.ImageWidth <= 0 || d.ImageHeight <= 0 {
		return fmt.Errorf("display resolution %dx%d is not positive", d.ImageWidth, d.ImageHeight)
	}
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("display scale must be nonzero")
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Board.Validate(); err != nil {
		return err
	}
	if err := c.Camera.Validate(); err != nil {
		return err
	}
	return c.Display.Validate()
}

// Default is the configuration used before any profile is loaded.
func Default() Config {
	return Config{
		Board: BoardConfig{Width: 19, Height: 19},
		Camera: CameraConfig{
			Width:       640,
			Height:      360,
			TopLeft:     NormalizedPoint{X: 0.36, Y: 0.25},
			TopRight:    NormalizedPoint{X: 0.64, Y: 0.25},
			BottomLeft:  NormalizedPoint{X: 0.36, Y: 0.75},
			BottomRight: NormalizedPoint{X: 0.64, Y: 0.75},
		},
		Display: DisplayConfig{
			ImageWidth:  640,
			ImageHeight: 360,
			Width:       1,
			Height:      1,
		},
	}
}
