// Package scheduler runs the single frame loop binding camera capture,
// extraction, inference, stabilization, the game engine, and the display
// renderer together.
package scheduler

import (
	"bytes"
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/adapters/camera"
	"github.com/kendfrey/saigo/internal/adapters/model"
	"github.com/kendfrey/saigo/internal/broadcast"
	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/config"
	"github.com/kendfrey/saigo/internal/domain/game"
	"github.com/kendfrey/saigo/internal/usecase/display"
	"github.com/kendfrey/saigo/internal/usecase/extractor"
	gameuc "github.com/kendfrey/saigo/internal/usecase/game"
	"github.com/kendfrey/saigo/internal/usecase/stabilizer"
)

// failureThreshold is how many consecutive capture failures trigger the
// error pattern on the display.
const failureThreshold = 30

type Scheduler struct {
	log      *zap.SugaredLogger
	cfg      *config.Cell
	fabric   *broadcast.Fabric
	supplier *camera.Supplier
	model    *model.Model
	engine   *gameuc.Engine
	stab     *stabilizer.Stabilizer

	frameRate int
	frame     uint64
	failures  int

	lastGen       uint64
	lastApplied   config.Config
	lastCommitted *board.Board
	lastDisplay   *image.RGBA
}

func New(
	log *zap.SugaredLogger,
	cfg *config.Cell,
	fabric *broadcast.Fabric,
	supplier *camera.Supplier,
	m *model.Model,
	engine *gameuc.Engine,
	frameRate int,
) *Scheduler {
	current, _ := cfg.Get()
	return &Scheduler{
		log:       log,
		cfg:       cfg,
		fabric:    fabric,
		supplier:  supplier,
		model:     m,
		engine:    engine,
		stab:      stabilizer.New(current.Board.Shape()),
		frameRate: frameRate,
	}
}

// Run executes the frame loop until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infow("frame loop started", "frame_rate", s.frameRate)
	defer s.supplier.Stop()

	for {
		if err := ctx.Err(); err != nil {
			s.log.Infow("frame loop stopped")
			return nil
		}
		s.step(ctx)
	}
}

func (s *Scheduler) step(ctx context.Context) {
	current, generation := s.cfg.Get()
	if generation != s.lastGen {
		s.applyConfig(current)
		s.lastGen = generation
	}

	frame, err := s.supplier.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Control commands still apply while the camera is down.
		s.drainCommands(current)
		s.failures++
		if s.failures == failureThreshold {
			s.log.Errorw("camera failing persistently", "failures", s.failures, "error", err)
		}
		if s.failures >= failureThreshold {
			s.publishDisplay(gameuc.RenderError(current.Board.Shape()), current.Display)
		}
		return
	}
	s.failures = 0
	s.frame++

	s.fabric.RawCamera.Publish(frame)

	visionDemand := s.engine.InGame() ||
		s.fabric.BoardCamera.HasSubscribers() ||
		s.fabric.RawBoard.HasSubscribers() ||
		s.fabric.Board.HasSubscribers()

	var committed *board.Board
	if visionDemand {
		committed = s.runVision(frame, current)
	}

	s.drainCommands(current)

	if committed != nil {
		// Game events are published before the display image that
		// reflects them.
		for _, event := range s.engine.HandleBoard(*committed) {
			s.fabric.Game.Publish(event)
		}
	}

	logical := s.engine.Render(s.frame, s.frameRate)
	s.publishDisplay(logical, current.Display)
}

func (s *Scheduler) drainCommands(current config.Config) {
	for _, cmd := range s.fabric.DrainCommands() {
		if cmd.Type == game.CommandReset || cmd.Type == game.CommandNewGame {
			// A fresh game must not inherit smoothing evidence.
			s.stab.Reset(current.Board.Shape())
			s.lastCommitted = nil
		}
		s.engine.HandleCommand(cmd)
	}
}

// runVision performs extraction, inference, and stabilization for one frame,
// returning the committed board when it changed.
func (s *Scheduler) runVision(frame *image.RGBA, current config.Config) *board.Board {
	result := extractor.Extract(frame, current.Camera, current.Board.Shape())
	s.fabric.BoardCamera.Publish(result.Image)
	if result.Degenerate {
		return nil
	}

	predictions, err := s.model.Predict(result.Batch)
	if err != nil {
		s.log.Errorw("inference failed", "error", err)
		return nil
	}

	observed := s.stab.Observe(predictions)
	s.fabric.RawBoard.Publish(observed.Smoothed)
	if observed.Changed {
		s.fabric.Board.Publish(observed.Visible)
	}

	if s.lastCommitted == nil || !observed.Committed.Equals(*s.lastCommitted) {
		committed := observed.Committed
		s.lastCommitted = &committed
		return &committed
	}
	return nil
}

// applyConfig reacts to a configuration swap. The capture device is rotated
// and, when the board or camera block changed, the smoothing state is
// discarded. The current game is left alone.
func (s *Scheduler) applyConfig(current config.Config) {
	s.log.Infow("configuration changed",
		"device", current.Camera.Device,
		"board", current.Board)
	s.supplier.Configure(current.Camera.Device, current.Camera.Width, current.Camera.Height)
	if s.lastGen == 0 || current.Board != s.lastApplied.Board || current.Camera != s.lastApplied.Camera {
		s.stab.Reset(current.Board.Shape())
		s.lastCommitted = nil
	}
	s.engine.SetShape(current.Board.Shape())
	s.lastApplied = current
}

func (s *Scheduler) publishDisplay(logical *image.RGBA, d config.DisplayConfig) {
	projected := display.Render(logical, d)
	if s.lastDisplay != nil && bytes.Equal(s.lastDisplay.Pix, projected.Pix) &&
		s.lastDisplay.Rect == projected.Rect {
		return
	}
	s.lastDisplay = projected
	s.fabric.Display.Publish(projected)
}
