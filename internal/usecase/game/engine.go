// Package game drives the reconciliation between the observed physical board
// and the expected game state, emitting move events and the projected
// feedback image.
package game

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
)

// State identifies the engine's top-level mode.
type State int

const (
	StateCalibration State = iota
	StateTraining
	StateGame
	StateGameOver
)

// Role is whose action the game is waiting for.
type Role int

const (
	RoleUser Role = iota
	RoleOpponent
)

// Engine is the game state machine. All transitions happen under the mutex;
// the frame loop is the only caller, but websocket accessors may snapshot.
type Engine struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	shape board.Shape

	state     State
	userColor board.Color
	awaiting  Role
	expected  board.Board
	observed  board.Board
	winner    board.Color

	// pending is the incoming move the user still has to place, along with
	// the board expected once they have.
	pending      *game.PlayerMove
	pendingAfter board.Board

	trainingSeq     uint64
	trainingPattern []board.Cell
}

func NewEngine(log *zap.SugaredLogger, shape board.Shape) *Engine {
	return &Engine{
		log:      log,
		shape:    shape,
		state:    StateCalibration,
		observed: board.New(shape),
	}
}

// SetShape updates the board shape used for calibration and training displays
// and for the next new game. An in-progress game keeps its boards.
func (e *Engine) SetShape(shape board.Shape) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shape == shape {
		return
	}
	e.shape = shape
	if e.state == StateCalibration || e.state == StateTraining {
		e.observed = board.New(shape)
		if e.state == StateTraining {
			e.regenerateTraining()
		}
	}
}

// InGame reports whether a game is currently being tracked. The scheduler
// uses this to decide whether vision must run even with no subscribers.
func (e *Engine) InGame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateGame
}

// HandleCommand applies one control command.
func (e *Engine) HandleCommand(cmd game.ControlCommand) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch cmd.Type {
	case game.CommandReset:
		e.log.Infow("game reset")
		e.state = StateCalibration
		e.pending = nil
		e.observed = board.New(e.shape)
	case game.CommandNewTrainingPattern:
		e.state = StateTraining
		e.pending = nil
		e.regenerateTraining()
	case game.CommandNewGame:
		e.log.Infow("new game", "user_color", cmd.UserColor.String())
		e.state = StateGame
		e.userColor = cmd.UserColor
		e.awaiting = RoleUser
		e.expected = board.New(e.shape)
		e.observed = board.New(e.shape)
		e.pending = nil
	case game.CommandPlayMove:
		e.handlePlayMove(cmd.Move)
	}
}

// handlePlayMove processes an opponent action arriving over the control
// channel. Only meaningful while awaiting the opponent.
func (e *Engine) handlePlayMove(move game.PlayerMove) {
	if e.state != StateGame || e.awaiting != RoleOpponent {
		e.log.Warnw("ignoring play_move outside opponent turn", "move", move.Type)
		return
	}
	opponent := e.userColor.Opposite()
	if move.Player != opponent {
		e.log.Warnw("ignoring play_move for wrong player", "player", move.Player.String())
		return
	}

	switch move.Type {
	case game.MoveTypePlay:
		x, y, err := move.Location.XY()
		if err != nil || x >= e.expected.Shape.Width || y >= e.expected.Shape.Height {
			e.log.Errorw("play_move location out of range", "location", move.Location)
			return
		}
		after := e.expected.ApplyMove(opponent, x, y)
		pending := move
		e.pending = &pending
		e.pendingAfter = after
		e.awaiting = RoleUser
	case game.MoveTypePass:
		e.awaiting = RoleUser
	case game.MoveTypeResign:
		e.state = StateGameOver
		e.winner = e.userColor
		e.pending = nil
	}
}

// HandleBoard reconciles a newly committed observed board with the expected
// game, returning any game events to emit.
func (e *Engine) HandleBoard(observed board.Board) []game.PlayerMove {
	e.mu.Lock()
	defer e.mu.Unlock()

	if observed.Shape != e.observed.Shape {
		return nil
	}
	e.observed = observed

	if e.state != StateGame {
		return nil
	}

	if e.pending != nil {
		e.checkPendingPlaced()
		return nil
	}
	if e.awaiting == RoleUser {
		return e.checkUserAction()
	}
	return nil
}

// diff classifies every mismatch between the expected and observed boards.
type diff struct {
	addedUser     [][2]int // observed stones of the user's color not in E
	addedOpponent [][2]int // observed stones of the opponent's color not in E
	missing       [][2]int // E stones observed as empty
	wrong         [][2]int // E stones observed as the other color
}

func (e *Engine) computeDiff(user board.Color) diff {
	var d diff
	userCell := board.CellOf(user)
	opponentCell := board.CellOf(user.Opposite())
	for y := 0; y < e.expected.Shape.Height; y++ {
		for x := 0; x < e.expected.Shape.Width; x++ {
			obs := e.observed.At(x, y)
			exp := e.expected.At(x, y)
			if obs == board.Obscured || obs == exp {
				continue
			}
			switch {
			case exp == board.Empty && obs == userCell:
				d.addedUser = append(d.addedUser, [2]int{x, y})
			case exp == board.Empty && obs == opponentCell:
				d.addedOpponent = append(d.addedOpponent, [2]int{x, y})
			case exp != board.Empty && obs == board.Empty:
				d.missing = append(d.missing, [2]int{x, y})
			default:
				d.wrong = append(d.wrong, [2]int{x, y})
			}
		}
	}
	return d
}

// checkUserAction looks for a move, pass, or resignation gesture on the
// physical board while it is the user's turn.
func (e *Engine) checkUserAction() []game.PlayerMove {
	user := e.userColor
	d := e.computeDiff(user)

	switch {
	case len(d.addedUser) == 1 && len(d.addedOpponent) == 0 && len(d.wrong) == 0:
		p := d.addedUser[0]
		next := e.expected.ApplyMove(user, p[0], p[1])
		if !e.matchesObserved(next) {
			return nil
		}
		point, err := board.PointFromXY(p[0], p[1])
		if err != nil {
			return nil
		}
		e.expected = next
		e.awaiting = RoleOpponent
		e.log.Infow("user move", "location", string(point), "player", user.String())
		return []game.PlayerMove{game.Play(point, user)}

	case len(d.addedUser) == 2 && len(d.addedOpponent) == 0 && len(d.missing) == 0 && len(d.wrong) == 0:
		e.awaiting = RoleOpponent
		e.log.Infow("user pass", "player", user.String())
		return []game.PlayerMove{game.Pass(user)}

	case len(d.addedOpponent) == 2 && len(d.addedUser) == 0 && len(d.missing) == 0 && len(d.wrong) == 0:
		e.state = StateGameOver
		e.winner = user.Opposite()
		e.log.Infow("user resign", "player", user.String())
		return []game.PlayerMove{game.Resign(user)}
	}
	return nil
}

// matchesObserved reports whether the candidate board agrees with every
// readable observed cell.
func (e *Engine) matchesObserved(candidate board.Board) bool {
	for i, obs := range e.observed.Cells {
		if obs == board.Obscured {
			continue
		}
		if obs != candidate.Cells[i] {
			return false
		}
	}
	return true
}

// checkPendingPlaced waits for the user to place the opponent's stone.
func (e *Engine) checkPendingPlaced() {
	if !e.matchesObserved(e.pendingAfter) {
		return
	}
	// Require the stone itself to be readable, not obscured.
	if x, y, err := e.pending.Location.XY(); err == nil {
		if e.observed.At(x, y) == board.Obscured {
			return
		}
	}
	e.expected = e.pendingAfter
	e.pending = nil
	e.log.Infow("pending move placed")
}

func (e *Engine) regenerateTraining() {
	e.trainingSeq++
	rng := rand.New(rand.NewSource(int64(e.trainingSeq)))
	pattern := make([]board.Cell, e.shape.Width*e.shape.Height)
	for i := range pattern {
		switch rng.Intn(3) {
		case 1:
			pattern[i] = board.CellBlack
		case 2:
			pattern[i] = board.CellWhite
		}
	}
	e.trainingPattern = pattern
}

// Snapshot is a consistent copy of the display-relevant state.
type Snapshot struct {
	State           State
	Shape           board.Shape
	UserColor       board.Color
	Awaiting        Role
	Expected        board.Board
	Observed        board.Board
	Pending         *game.PlayerMove
	Winner          board.Color
	TrainingPattern []board.Cell
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		State:     e.state,
		Shape:     e.shape,
		UserColor: e.userColor,
		Awaiting:  e.awaiting,
		Winner:    e.winner,
	}
	if e.state == StateGame {
		snap.Shape = e.expected.Shape
		snap.Expected = e.expected.Clone()
		snap.Observed = e.observed.Clone()
		if e.pending != nil {
			pending := *e.pending
			snap.Pending = &pending
		}
	}
	if e.state == StateTraining {
		snap.TrainingPattern = append([]board.Cell(nil), e.trainingPattern...)
	}
	return snap
}
