package camera

import (
	"context"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

// Supplier owns the capture device and feeds frames to the frame loop through
// a single-slot inbox. Capture runs on its own goroutine; when the loop is
// slower than the camera the unconsumed frame is overwritten, so the loop
// always sees the freshest frame.
type Supplier struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	cond     *sync.Cond
	frame    *image.RGBA
	err      error
	device   string
	width    int
	height   int
	stop     chan struct{}
	running  bool
	dropped  uint64
	consumed uint64
}

func NewSupplier(log *zap.SugaredLogger) *Supplier {
	s := &Supplier{log: log}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Configure points the supplier at a device and resolution. If they differ
// from the current capture, the device is rotated: the old goroutine is
// stopped and a fresh one starts lazily.
func (s *Supplier) Configure(device string, width, height int) {
	s.mu.Lock()
	same := s.running && s.device == device && s.width == width && s.height == height
	s.device = device
	s.width = width
	s.height = height
	s.mu.Unlock()
	if same {
		return
	}
	s.restart()
}

func (s *Supplier) restart() {
	s.mu.Lock()
	if s.running {
		close(s.stop)
		s.running = false
	}
	stop := make(chan struct{})
	s.stop = stop
	s.running = true
	device, width, height := s.device, s.width, s.height
	s.mu.Unlock()

	if device == "" {
		// No device configured. Emit a heartbeat error so the frame loop
		// keeps ticking and can pick up configuration changes.
		go s.idleLoop(stop)
		return
	}
	go s.captureLoop(stop, device, width, height)
}

func (s *Supplier) idleLoop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		s.publishError(saigoerr.ErrNoSuchDevice)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *Supplier) captureLoop(stop chan struct{}, device string, width, height int) {
	source, err := Open(device, width, height)
	for err != nil {
		s.log.Errorw("camera open failed", "device", device, "error", err)
		s.publishError(err)
		select {
		case <-stop:
			return
		case <-time.After(time.Second):
		}
		source, err = Open(device, width, height)
	}
	defer source.Close()
	s.log.Infow("camera opened", "device", device, "width", width, "height", height)

	for {
		select {
		case <-stop:
			return
		default:
		}
		frame, err := source.Next()
		if err != nil {
			s.publishError(err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		s.publishFrame(frame)
	}
}

func (s *Supplier) publishFrame(frame *image.RGBA) {
	s.mu.Lock()
	if s.frame != nil {
		s.dropped++
	}
	s.frame = frame
	s.err = nil
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Supplier) publishError(err error) {
	s.mu.Lock()
	s.err = err
	s.frame = nil
	s.cond.Signal()
	s.mu.Unlock()
}

// Next blocks until a new frame or capture error is available, or ctx is
// cancelled. The returned frame is removed from the inbox.
func (s *Supplier) Next(ctx context.Context) (*image.RGBA, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Taking the lock orders the broadcast after Wait starts.
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.frame == nil && s.err == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return nil, err
	}
	frame := s.frame
	s.frame = nil
	s.consumed++
	return frame, nil
}

// Stop shuts down the capture goroutine.
func (s *Supplier) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stop)
		s.running = false
	}
}

// Stats reports how many frames were consumed and dropped.
func (s *Supplier) Stats() (consumed, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed, s.dropped
}
