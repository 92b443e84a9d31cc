// Package display warps the logical board-space image into the projector's
// framebuffer according to the display calibration.
package display

import (
	"image"
	"math"

	"github.com/kendfrey/saigo/internal/domain/config"
	"github.com/kendfrey/saigo/internal/geometry"
)

// Render projects the logical image into an output raster of the calibrated
// resolution. Every output pixel is traced backwards through the inverse
// perspective and affine transforms and sampled bilinearly; samples outside
// the logical image are black.
func Render(logical *image.RGBA, d config.DisplayConfig) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, d.ImageWidth, d.ImageHeight))

	outW := float64(d.ImageWidth)
	outH := float64(d.ImageHeight)
	logW := float64(logical.Rect.Dx())
	logH := float64(logical.Rect.Dy())
	sin, cos := math.Sincos(-float64(d.Angle))
	px := float64(d.PerspectiveX)
	py := float64(d.PerspectiveY)

	for oy := 0; oy < d.ImageHeight; oy++ {
		for ox := 0; ox < d.ImageWidth; ox++ {
			// Output pixels are sampled at their centers.
			u := (float64(ox)+0.5)/outW - 0.5
			v := (float64(oy)+0.5)/outH - 0.5

			// Inverse perspective: w = 1 + px*u + py*v.
			w := 1 + px*u + py*v
			if w == 0 {
				continue
			}
			u /= w
			v /= w

			// Inverse affine: rotate, translate, scale, recenter.
			ru := cos*u - sin*v
			rv := sin*u + cos*v
			ru -= float64(d.X)
			rv -= float64(d.Y)
			ru /= float64(d.Width)
			rv /= float64(d.Height)
			s := ru + 0.5
			t := rv + 0.5

			r, g, b, a := geometry.BilinearBlack(logical, s*logW-0.5, t*logH-0.5)
			off := oy*out.Stride + ox*4
			out.Pix[off] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = b
			out.Pix[off+3] = a
		}
	}
	return out
}
