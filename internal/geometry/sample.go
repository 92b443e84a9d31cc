package geometry

import (
	"image"
	"math"
)

// BilinearClamp samples the image at a fractional position, clamping
// out-of-frame coordinates to the nearest edge pixel.
func BilinearClamp(img *image.RGBA, x, y float64) (r, g, b, a uint8) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	return bilinear(img, x, y, w, h)
}

// BilinearBlack samples the image at a fractional position, returning black
// for samples outside the frame.
func BilinearBlack(img *image.RGBA, x, y float64) (r, g, b, a uint8) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if x < -0.5 || y < -0.5 || x > float64(w)-0.5 || y > float64(h)-0.5 {
		return 0, 0, 0, 255
	}
	return bilinear(img, x, y, w, h)
}

func bilinear(img *image.RGBA, x, y float64, w, h int) (uint8, uint8, uint8, uint8) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := pixelClamped(img, x0, y0, w, h)
	c10 := pixelClamped(img, x0+1, y0, w, h)
	c01 := pixelClamped(img, x0, y0+1, w, h)
	c11 := pixelClamped(img, x0+1, y0+1, w, h)

	var out [4]uint8
	for i := 0; i < 4; i++ {
		top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
		bottom := float64(c01[i])*(1-fx) + float64(c11[i])*fx
		out[i] = uint8(top*(1-fy) + bottom*fy + 0.5)
	}
	return out[0], out[1], out[2], out[3]
}

func pixelClamped(img *image.RGBA, x, y, w, h int) [4]uint8 {
	if x < 0 {
		x = 0
	}
	if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= h {
		y = h - 1
	}
	off := y*img.Stride + x*4
	return [4]uint8{img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]}
}
