// Package imagedata implements the binary frame format used on the image
// websocket streams: big-endian u32 width, big-endian u32 height, then
// width*height*4 bytes of RGBA pixels, row-major, top-left origin.
package imagedata

import (
	"encoding/binary"
	"fmt"
	"image"
)

const headerSize = 8

// Encode serializes an RGBA image into the wire format.
func Encode(img *image.RGBA) []byte {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := make([]byte, headerSize+w*h*4)
	binary.BigEndian.PutUint32(out[0:4], uint32(w))
	binary.BigEndian.PutUint32(out[4:8], uint32(h))
	dst := out[headerSize:]
	for y := 0; y < h; y++ {
		start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(dst[y*w*4:], img.Pix[start:start+w*4])
	}
	return out
}

// Decode parses a wire-format message back into an RGBA image.
func Decode(data []byte) (*image.RGBA, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("imagedata message too short: %d bytes", len(data))
	}
	w := int(binary.BigEndian.Uint32(data[0:4]))
	h := int(binary.BigEndian.Uint32(data[4:8]))
	if len(data) != headerSize+w*h*4 {
		return nil, fmt.Errorf("imagedata payload size %d does not match %dx%d", len(data)-headerSize, w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, data[headerSize:])
	return img, nil
}
