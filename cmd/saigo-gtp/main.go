// Command saigo-gtp bridges a GTP controller to a running saigo server. It
// reads GTP on stdin and translates commands to the control websocket,
// answering genmove with events from the game websocket.
package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
)

const version = "0.1.0"

const serverURL = "ws://localhost:5410"

// gtpColumns are the column letters used by GTP coordinates; "I" is skipped.
const gtpColumns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

type bridge struct {
	control *websocket.Conn
	game    *websocket.Conn

	boardSize int
	// userColor is unset until the first genmove or play command reveals
	// which side the physical player is on.
	userColor    *board.Color
	shouldQuit   bool
	commandNames []string
}

type command func(b *bridge, args []string) (string, error)

var commands = map[string]command{}

func register(name string, fn command) {
	commands[name] = fn
}

func init() {
	register("protocol_version", func(b *bridge, args []string) (string, error) {
		return "2", nil
	})
	register("name", func(b *bridge, args []string) (string, error) {
		return "Saigo", nil
	})
	register("version", func(b *bridge, args []string) (string, error) {
		return version, nil
	})
	register("known_command", func(b *bridge, args []string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("expected command name")
		}
		_, ok := commands[args[0]]
		return strconv.FormatBool(ok), nil
	})
	register("list_commands", func(b *bridge, args []string) (string, error) {
		return strings.Join(b.commandNames, "\n"), nil
	})
	register("quit", func(b *bridge, args []string) (string, error) {
		b.shouldQuit = true
		return "", nil
	})
	register("boardsize", func(b *bridge, args []string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("syntax error")
		}
		size, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		b.boardSize = size
		return "", nil
	})
	register("clear_board", func(b *bridge, args []string) (string, error) {
		// GTP never states the user's color directly; it is inferred from
		// whether the controller plays or asks for a move first.
		b.userColor = nil
		return "", nil
	})
	register("komi", func(b *bridge, args []string) (string, error) {
		return "", nil
	})
	register("play", func(b *bridge, args []string) (string, error) {
		if b.userColor == nil {
			white := board.White
			b.userColor = &white
			if err := b.newGame(board.White); err != nil {
				return "", err
			}
		}
		if len(args) < 2 {
			return "", fmt.Errorf("syntax error")
		}
		color, err := board.ParseColor(args[0])
		if err != nil {
			return "", err
		}
		if color != b.userColor.Opposite() {
			return "", fmt.Errorf("illegal move")
		}
		if strings.EqualFold(args[1], "pass") {
			return "", b.send(game.ControlCommand{
				Type: game.CommandPlayMove,
				Move: game.Pass(color),
			})
		}
		point, err := fromGtpCoord(args[1], b.boardSize)
		if err != nil {
			return "", err
		}
		return "", b.send(game.ControlCommand{
			Type: game.CommandPlayMove,
			Move: game.Play(point, color),
		})
	})
	register("genmove", func(b *bridge, args []string) (string, error) {
		if b.userColor == nil {
			black := board.Black
			b.userColor = &black
			if err := b.newGame(board.Black); err != nil {
				return "", err
			}
		}
		if len(args) == 0 {
			return "", fmt.Errorf("syntax error")
		}
		color, err := board.ParseColor(args[0])
		if err != nil {
			return "", err
		}
		if color != *b.userColor {
			return "", fmt.Errorf("wrong color")
		}

		move, err := b.readGameEvent()
		if err != nil {
			return "", err
		}
		switch move.Type {
		case game.MoveTypePass:
			return "pass", nil
		case game.MoveTypeResign:
			return "resign", nil
		default:
			return toGtpCoord(move.Location, b.boardSize)
		}
	})
}

func main() {
	control, _, err := websocket.DefaultDialer.Dial(serverURL+"/ws/control", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect control websocket:", err)
		os.Exit(1)
	}
	defer control.Close()

	gameSocket, _, err := websocket.DefaultDialer.Dial(serverURL+"/ws/game", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect game websocket:", err)
		os.Exit(1)
	}
	defer gameSocket.Close()

	b := &bridge{control: control, game: gameSocket, boardSize: 19}
	for name := range commands {
		b.commandNames = append(b.commandNames, name)
	}
	sort.Strings(b.commandNames)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		b.handleInput(scanner.Text())
		if b.shouldQuit {
			break
		}
	}
}

var commandRegex = regexp.MustCompile(`^\s*(\d*)\s*(\S*)\s*(.*)$`)

func (b *bridge) handleInput(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	groups := commandRegex.FindStringSubmatch(line)
	id, name := groups[1], groups[2]
	args := strings.Fields(groups[3])

	fn, ok := commands[name]
	if !ok {
		fmt.Printf("?%s unknown command\n\n", id)
		return
	}
	result, err := fn(b, args)
	if err != nil {
		fmt.Printf("?%s %s\n\n", id, err)
		return
	}
	fmt.Printf("=%s %s\n\n", id, result)
}

func (b *bridge) newGame(userColor board.Color) error {
	return b.send(game.ControlCommand{Type: game.CommandNewGame, UserColor: userColor})
}

func (b *bridge) send(cmd game.ControlCommand) error {
	return b.control.WriteJSON(cmd)
}

// readGameEvent blocks until the server reports the user's next action.
func (b *bridge) readGameEvent() (game.PlayerMove, error) {
	var move game.PlayerMove
	err := b.game.ReadJSON(&move)
	return move, err
}

// fromGtpCoord converts a coordinate like "D4" to an SGF point. GTP rows
// count from the bottom; SGF rows count from the top.
func fromGtpCoord(coord string, boardSize int) (board.SgfPoint, error) {
	if len(coord) < 2 {
		return "", fmt.Errorf("invalid coordinate %q", coord)
	}
	column := strings.IndexByte(gtpColumns, coord[0]&^0x20)
	if column < 0 {
		return "", fmt.Errorf("invalid coordinate %q", coord)
	}
	row, err := strconv.Atoi(coord[1:])
	if err != nil || row < 1 || row > boardSize {
		return "", fmt.Errorf("invalid coordinate %q", coord)
	}
	return board.PointFromXY(column, boardSize-row)
}

func toGtpCoord(point board.SgfPoint, boardSize int) (string, error) {
	x, y, err := point.XY()
	if err != nil {
		return "", err
	}
	if x >= len(gtpColumns) || y >= boardSize {
		return "", fmt.Errorf("coordinate out of range")
	}
	return fmt.Sprintf("%c%d", gtpColumns[x], boardSize-y), nil
}
