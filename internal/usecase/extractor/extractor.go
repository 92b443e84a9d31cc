// Package extractor turns a raw camera frame into the board-framed image and
// the per-intersection tile batch used for inference.
package extractor

import (
	"image"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/config"
	"github.com/kendfrey/saigo/internal/domain/vision"
	"github.com/kendfrey/saigo/internal/geometry"
)

// Result is one frame's extraction output. When Degenerate is set, Image is
// black and Batch is all zeros; no inference should run on it.
type Result struct {
	Image      *image.RGBA
	Batch      vision.TileBatch
	Degenerate bool
}

// Extract resamples the calibrated board quadrilateral into a board-framed
// image of stoneSize-pixel tiles and slices it into the inference batch.
//
// The four calibration corners are the projected positions of the four corner
// intersections, so they map to the centers of the corner tiles of the output,
// not its outer edge.
func Extract(frame *image.RGBA, cam config.CameraConfig, shape board.Shape) Result {
	outW := shape.Width * board.StoneSize
	outH := shape.Height * board.StoneSize
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))

	proj, err := boardProjection(frame, cam, shape)
	if err != nil {
		return Result{
			Image:      out,
			Batch:      zeroBatch(shape),
			Degenerate: true,
		}
	}

	for py := 0; py < outH; py++ {
		for px := 0; px < outW; px++ {
			sx, sy := proj.Apply(float64(px)+0.5, float64(py)+0.5)
			r, g, b, a := geometry.BilinearClamp(frame, sx-0.5, sy-0.5)
			off := py*out.Stride + px*4
			out.Pix[off] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = b
			out.Pix[off+3] = a
		}
	}

	return Result{Image: out, Batch: sliceTiles(out, shape)}
}

// boardProjection maps board-framed image coordinates to frame coordinates.
func boardProjection(frame *image.RGBA, cam config.CameraConfig, shape board.Shape) (geometry.Mat3, error) {
	if err := cam.Validate(); err != nil {
		return geometry.Mat3{}, err
	}

	half := float64(board.StoneSize) * 0.5
	lastX := (float64(shape.Width) - 0.5) * float64(board.StoneSize)
	lastY := (float64(shape.Height) - 0.5) * float64(board.StoneSize)
	src := [4]geometry.Point{
		{X: half, Y: half},
		{X: lastX, Y: half},
		{X: half, Y: lastY},
		{X: lastX, Y: lastY},
	}

	fw := float64(frame.Rect.Dx())
	fh := float64(frame.Rect.Dy())
	dst := [4]geometry.Point{
		{X: float64(cam.TopLeft.X) * fw, Y: float64(cam.TopLeft.Y) * fh},
		{X: float64(cam.TopRight.X) * fw, Y: float64(cam.TopRight.Y) * fh},
		{X: float64(cam.BottomLeft.X) * fw, Y: float64(cam.BottomLeft.Y) * fh},
		{X: float64(cam.BottomRight.X) * fw, Y: float64(cam.BottomRight.Y) * fh},
	}

	return geometry.FromControlPoints(src, dst)
}

// sliceTiles converts the board-framed image into the channels-first float
// batch: (tile, channel, y, x), RGB only, values in [0, 1].
func sliceTiles(img *image.RGBA, shape board.Shape) vision.TileBatch {
	size := board.StoneSize
	tiles := shape.Width * shape.Height
	data := make([]float32, tiles*3*size*size)

	for j := 0; j < shape.Height; j++ {
		for i := 0; i < shape.Width; i++ {
			tile := j*shape.Width + i
			base := tile * 3 * size * size
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					off := (j*size+y)*img.Stride + (i*size+x)*4
					idx := y*size + x
					data[base+idx] = float32(img.Pix[off]) / 255
					data[base+size*size+idx] = float32(img.Pix[off+1]) / 255
					data[base+2*size*size+idx] = float32(img.Pix[off+2]) / 255
				}
			}
		}
	}

	return vision.TileBatch{Tiles: tiles, TileSize: size, Data: data}
}

func zeroBatch(shape board.Shape) vision.TileBatch {
	tiles := shape.Width * shape.Height
	return vision.TileBatch{
		Tiles:    tiles,
		TileSize: board.StoneSize,
		Data:     make([]float32, tiles*3*board.StoneSize*board.StoneSize),
	}
}
