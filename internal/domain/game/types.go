package game

import (
	"encoding/json"
	"fmt"

	"github.com/kendfrey/saigo/internal/domain/board"
)

// MoveType discriminates the player move variants on the wire.
type MoveType string

const (
	MoveTypePlay   MoveType = "move"
	MoveTypePass   MoveType = "pass"
	MoveTypeResign MoveType = "resign"
)

// PlayerMove is a single game action, emitted on the game stream and accepted
// in play_move control commands.
type PlayerMove struct {
	Type     MoveType
	Location board.SgfPoint
	Player   board.Color
}

func Play(p board.SgfPoint, c board.Color) PlayerMove {
	return PlayerMove{Type: MoveTypePlay, Location: p, Player: c}
}

func Pass(c board.Color) PlayerMove {
	return PlayerMove{Type: MoveTypePass, Player: c}
}

func Resign(c board.Color) PlayerMove {
	return PlayerMove{Type: MoveTypeResign, Player: c}
}

type playerMoveJSON struct {
	Type     MoveType `json:"type"`
	Location string   `json:"location,omitempty"`
	Player   string   `json:"player"`
}

func (m PlayerMove) MarshalJSON() ([]byte, error) {
	out := playerMoveJSON{Type: m.Type, Player: m.Player.String()}
	if m.Type == MoveTypePlay {
		out.Location = string(m.Location)
	}
	return json.Marshal(out)
}

func (m *PlayerMove) UnmarshalJSON(data []byte) error {
	var raw playerMoveJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	player, err := board.ParseColor(raw.Player)
	if err != nil {
		return err
	}
	switch raw.Type {
	case MoveTypePlay:
		if _, _, err := board.SgfPoint(raw.Location).XY(); err != nil {
			return err
		}
		*m = Play(board.SgfPoint(raw.Location), player)
	case MoveTypePass:
		*m = Pass(player)
	case MoveTypeResign:
		*m = Resign(player)
	default:
		return fmt.Errorf("unknown move type %q", raw.Type)
	}
	return nil
}

// CommandType discriminates control commands.
type CommandType string

const (
	CommandReset              CommandType = "reset"
	CommandNewTrainingPattern CommandType = "new_training_pattern"
	CommandNewGame            CommandType = "new_game"
	CommandPlayMove           CommandType = "play_move"
)

// ControlCommand is a message received on the control channel.
type ControlCommand struct {
	Type      CommandType
	UserColor board.Color
	Move      PlayerMove
}

type controlCommandJSON struct {
	Type      CommandType     `json:"type"`
	UserColor string          `json:"user_color,omitempty"`
	Move      json.RawMessage `json:"move,omitempty"`
}

func (c ControlCommand) MarshalJSON() ([]byte, error) {
	out := controlCommandJSON{Type: c.Type}
	switch c.Type {
	case CommandNewGame:
		out.UserColor = c.UserColor.String()
	case CommandPlayMove:
		move, err := json.Marshal(c.Move)
		if err != nil {
			return nil, err
		}
		out.Move = move
	}
	return json.Marshal(out)
}

func (c *ControlCommand) UnmarshalJSON(data []byte) error {
	var raw controlCommandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cmd := ControlCommand{Type: raw.Type}
	switch raw.Type {
	case CommandReset, CommandNewTrainingPattern:
	case CommandNewGame:
		color, err := board.ParseColor(raw.UserColor)
		if err != nil {
			return err
		}
		cmd.UserColor = color
	case CommandPlayMove:
		if err := json.Unmarshal(raw.Move, &cmd.Move); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown control command %q", raw.Type)
	}
	*c = cmd
	return nil
}
