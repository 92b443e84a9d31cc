package game

import (
	"testing"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
)

func testEngine(t *testing.T, shape board.Shape) *Engine {
	t.Helper()
	return NewEngine(zap.NewNop().Sugar(), shape)
}

func newGame(e *Engine, userColor board.Color) {
	e.HandleCommand(game.ControlCommand{Type: game.CommandNewGame, UserColor: userColor})
}

func observe(t *testing.T, e *Engine, rows []string) []game.PlayerMove {
	t.Helper()
	shape := board.Shape{Width: len(rows[0]), Height: len(rows)}
	b := board.New(shape)
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case 'B':
				b.Set(x, y, board.CellBlack)
			case 'W':
				b.Set(x, y, board.CellWhite)
			case '?':
				b.Set(x, y, board.Obscured)
			}
		}
	}
	return e.HandleBoard(b)
}

func TestBlackPlaysFirst(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	if events := observe(t, e, []string{
		".....",
		".....",
		".....",
		".....",
		".....",
	}); len(events) != 0 {
		t.Fatalf("matching empty board produced events: %v", events)
	}

	events := observe(t, e, []string{
		".....",
		".....",
		".....",
		"...B.",
		".....",
	})
	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	want := game.Play("dd", board.Black)
	if events[0] != want {
		t.Errorf("got %+v, want %+v", events[0], want)
	}

	snap := e.Snapshot()
	if snap.Expected.At(3, 3) != board.CellBlack {
		t.Errorf("expected board should contain the played stone")
	}
	if snap.Awaiting != RoleOpponent {
		t.Errorf("turn should pass to the opponent")
	}
}

func TestCaptureRemovedFromExpected(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	// Build up the position through alternating play: the user surrounds a
	// white stone at (1,1).
	steps := []struct {
		rows  []string
		moves int
	}{
		{[]string{".B...", ".....", ".....", ".....", "....."}, 1}, // B (1,0)
	}
	for _, step := range steps {
		if events := observe(t, e, step.rows); len(events) != step.moves {
			t.Fatalf("setup step produced %v", events)
		}
	}

	// White replies at (1,1) over the control channel and the user places
	// the stone.
	e.HandleCommand(game.ControlCommand{
		Type: game.CommandPlayMove,
		Move: game.Play("bb", board.White),
	})
	if events := observe(t, e, []string{".B...", ".W...", ".....", ".....", "....."}); len(events) != 0 {
		t.Fatalf("placing a pending stone must not emit events, got %v", events)
	}

	// B (0,1), W (4,4), B (2,1), W (4,3) leaves white at (1,1) with one
	// liberty.
	if events := observe(t, e, []string{".B...", "BW...", ".....", ".....", "....."}); len(events) != 1 {
		t.Fatalf("move B(0,1) not accepted")
	}
	e.HandleCommand(game.ControlCommand{Type: game.CommandPlayMove, Move: game.Play("ee", board.White)})
	if events := observe(t, e, []string{".B...", "BW...", ".....", ".....", "....W"}); len(events) != 0 {
		t.Fatalf("pending placement emitted events")
	}
	if events := observe(t, e, []string{".B...", "BWB..", ".....", ".....", "....W"}); len(events) != 1 {
		t.Fatalf("move B(2,1) not accepted")
	}
	e.HandleCommand(game.ControlCommand{Type: game.CommandPlayMove, Move: game.Play("ed", board.White)})
	if events := observe(t, e, []string{".B...", "BWB..", ".....", "....W", "....W"}); len(events) != 0 {
		t.Fatalf("pending placement emitted events")
	}

	// The capturing move: black at (1,2); white (1,1) disappears from the
	// physical board at the same time.
	events := observe(t, e, []string{".B...", "B.B..", ".B...", "....W", "....W"})
	if len(events) != 1 {
		t.Fatalf("capturing move not accepted: %v", events)
	}
	want := game.Play("bc", board.Black)
	if events[0] != want {
		t.Errorf("got %+v, want %+v", events[0], want)
	}
	snap := e.Snapshot()
	if snap.Expected.At(1, 1) != board.Empty {
		t.Errorf("captured stone should be removed from the expected board")
	}
	if snap.Expected.At(1, 2) != board.CellBlack {
		t.Errorf("capturing stone should be present")
	}
}

func TestTwoOwnStonesIsPass(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	events := observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."})
	if len(events) != 1 || events[0] != game.Pass(board.Black) {
		t.Fatalf("expected a pass event, got %v", events)
	}
	snap := e.Snapshot()
	if snap.Awaiting != RoleOpponent {
		t.Errorf("turn should pass to the opponent")
	}
	if snap.Expected.At(1, 1) != board.Empty || snap.Expected.At(2, 1) != board.Empty {
		t.Errorf("pass stones must not enter the expected board")
	}
}

func TestTwoOpponentStonesIsResign(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	events := observe(t, e, []string{".....", ".WW..", ".....", ".....", "....."})
	if len(events) != 1 || events[0] != game.Resign(board.Black) {
		t.Fatalf("expected a resign event, got %v", events)
	}
	snap := e.Snapshot()
	if snap.State != StateGameOver {
		t.Errorf("game should be over")
	}
	if snap.Winner != board.White {
		t.Errorf("winner should be white")
	}
}

func TestIncomingMoveFlow(t *testing.T) {
	shape := board.Shape{Width: 19, Height: 19}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	// User passes to hand the turn to the remote opponent.
	empty := make([]string, 19)
	for i := range empty {
		empty[i] = "..................."
	}
	pass := append([]string(nil), empty...)
	pass[0] = "BB................."
	if events := observe(t, e, pass); len(events) != 1 {
		t.Fatalf("pass not accepted: %v", events)
	}

	e.HandleCommand(game.ControlCommand{
		Type: game.CommandPlayMove,
		Move: game.Play("pd", board.White),
	})
	snap := e.Snapshot()
	if snap.Pending == nil || snap.Pending.Location != "pd" {
		t.Fatalf("pending incoming move not recorded: %+v", snap.Pending)
	}

	// The user physically places the white stone at (15,3). The pass
	// stones were already removed.
	placed := append([]string(nil), empty...)
	placed[3] = "...............W..."
	if events := observe(t, e, placed); len(events) != 0 {
		t.Fatalf("pending placement must not emit events, got %v", events)
	}
	snap = e.Snapshot()
	if snap.Pending != nil {
		t.Errorf("pending move should be cleared")
	}
	if snap.Expected.At(15, 3) != board.CellWhite {
		t.Errorf("expected board should contain the incoming stone")
	}
	if snap.Awaiting != RoleUser {
		t.Errorf("it should be the user's turn")
	}
}

func TestOpponentPassSkipsPending(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)
	observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."})

	e.HandleCommand(game.ControlCommand{Type: game.CommandPlayMove, Move: game.Pass(board.White)})
	snap := e.Snapshot()
	if snap.Pending != nil {
		t.Errorf("a pass has nothing to place")
	}
	if snap.Awaiting != RoleUser {
		t.Errorf("turn should return to the user")
	}
}

func TestOpponentResignEndsGame(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)
	observe(t, e, []string{".....", ".BB..", ".....", ".....", "....."})

	e.HandleCommand(game.ControlCommand{Type: game.CommandPlayMove, Move: game.Resign(board.White)})
	snap := e.Snapshot()
	if snap.State != StateGameOver {
		t.Fatalf("game should be over")
	}
	if snap.Winner != board.Black {
		t.Errorf("the user should win on opponent resignation")
	}
}

func TestObscuredCellBlinksAndBlocksNothing(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	if events := observe(t, e, []string{"?....", ".....", ".....", ".....", "....."}); len(events) != 0 {
		t.Fatalf("an obscured cell is not a move: %v", events)
	}
	snap := e.Snapshot()
	cells := mismatchedCells(snap)
	if len(cells) != 1 || cells[0] != [2]int{0, 0} {
		t.Errorf("obscured cell should blink, got %v", cells)
	}
}

func TestOwnExtraStoneDoesNotBlink(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	// Three own stones are an ambiguous gesture: no transition, but none
	// of them blink since they may be a move or pass in progress.
	observe(t, e, []string{"B....", "..B..", "...B.", ".....", "....."})
	snap := e.Snapshot()
	if cells := mismatchedCells(snap); len(cells) != 0 {
		t.Errorf("user's own candidate stones must not blink, got %v", cells)
	}
}

func TestAmbiguousObservationIsNoise(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	// Three new user stones: neither a move nor a pass.
	events := observe(t, e, []string{"BBB..", ".....", ".....", ".....", "....."})
	if len(events) != 0 {
		t.Fatalf("ambiguous observation must not transition: %v", events)
	}
	snap := e.Snapshot()
	if snap.Awaiting != RoleUser {
		t.Errorf("turn must not change on noise")
	}
}

func TestResetReturnsToCalibration(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)
	e.HandleCommand(game.ControlCommand{Type: game.CommandReset})
	if snap := e.Snapshot(); snap.State != StateCalibration {
		t.Errorf("reset should return to calibration, got %v", snap.State)
	}
}

func TestTrainingPatternsDiffer(t *testing.T) {
	shape := board.Shape{Width: 9, Height: 9}
	e := testEngine(t, shape)

	e.HandleCommand(game.ControlCommand{Type: game.CommandNewTrainingPattern})
	first := e.Snapshot().TrainingPattern
	e.HandleCommand(game.ControlCommand{Type: game.CommandNewTrainingPattern})
	second := e.Snapshot().TrainingPattern

	if len(first) != 81 || len(second) != 81 {
		t.Fatalf("training patterns should cover the board")
	}
	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("successive training patterns should differ")
	}
}

func TestPlayMoveIgnoredOnUserTurn(t *testing.T) {
	shape := board.Shape{Width: 5, Height: 5}
	e := testEngine(t, shape)
	newGame(e, board.Black)

	e.HandleCommand(game.ControlCommand{
		Type: game.CommandPlayMove,
		Move: game.Play("cc", board.White),
	})
	if snap := e.Snapshot(); snap.Pending != nil {
		t.Errorf("play_move during the user's turn must be ignored")
	}
}
