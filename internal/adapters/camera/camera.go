package camera

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"gocv.io/x/gocv"

	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

// ListDevices enumerates the video capture devices available on the host.
func ListDevices() ([]string, error) {
	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Source is an open capture device producing RGBA frames.
type Source struct {
	device  string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	width   int
	height  int
}

// Open opens the named device at the requested resolution.
func Open(device string, width, height int) (*Source, error) {
	if device == "" {
		return nil, saigoerr.ErrNoSuchDevice
	}
	if _, err := os.Stat(device); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", saigoerr.ErrNoSuchDevice, device)
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", saigoerr.ErrCameraBusy, device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("%w: %s", saigoerr.ErrCameraOpenFailed, device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	gotW := int(capture.Get(gocv.VideoCaptureFrameWidth))
	gotH := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if gotW != width || gotH != height {
		_ = capture.Close()
		return nil, fmt.Errorf("%w: %s gave %dx%d, wanted %dx%d",
			saigoerr.ErrUnsupportedResolution, device, gotW, gotH, width, height)
	}

	return &Source{
		device:  device,
		capture: capture,
		mat:     gocv.NewMat(),
		width:   width,
		height:  height,
	}, nil
}

// Device returns the device name this source was opened on.
func (s *Source) Device() string {
	return s.device
}

// Resolution returns the negotiated capture resolution.
func (s *Source) Resolution() (int, int) {
	return s.width, s.height
}

// Next reads the next frame, blocking until the device delivers one.
func (s *Source) Next() (*image.RGBA, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("%w: %s", saigoerr.ErrCameraOpenFailed, s.device)
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	return toRGBA(img), nil
}

func (s *Source) Close() error {
	_ = s.mat.Close()
	return s.capture.Close()
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return out
}
