package broadcast

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
	"github.com/kendfrey/saigo/internal/domain/vision"
	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

// Fabric bundles every stream topic plus the inbound control channel.
type Fabric struct {
	RawCamera   *Topic[*image.RGBA]
	BoardCamera *Topic[*image.RGBA]
	RawBoard    *Topic[vision.RawBoard]
	Board       *Topic[board.Board]
	Game        *Topic[game.PlayerMove]
	Display     *Topic[*image.RGBA]

	control chan game.ControlCommand

	mu     sync.Mutex
	holder string
}

const controlMailboxSize = 16

func NewFabric() *Fabric {
	return &Fabric{
		RawCamera:   NewTopic[*image.RGBA](),
		BoardCamera: NewTopic[*image.RGBA](),
		RawBoard:    NewTopic[vision.RawBoard](),
		Board:       NewTopic[board.Board](),
		Game:        NewTopic[game.PlayerMove](),
		Display:     NewTopic[*image.RGBA](),
		control:     make(chan game.ControlCommand, controlMailboxSize),
	}
}

// ClaimControl takes exclusive ownership of the control channel, returning a
// session token. A second claim fails until the first is released.
func (f *Fabric) ClaimControl() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder != "" {
		return "", saigoerr.ErrControlChannelBusy
	}
	f.holder = uuid.New().String()
	return f.holder, nil
}

// ReleaseControl gives up ownership. Stale tokens are ignored so a slow
// disconnect cannot release a newer session's claim.
func (f *Fabric) ReleaseControl(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder == token {
		f.holder = ""
	}
}

// SendCommand enqueues a control command for the frame loop. Commands beyond
// the mailbox capacity are dropped; the mailbox is drained every frame, so a
// full mailbox means the client is flooding.
func (f *Fabric) SendCommand(cmd game.ControlCommand) bool {
	select {
	case f.control <- cmd:
		return true
	default:
		return false
	}
}

// DrainCommands returns all queued control commands without blocking.
func (f *Fabric) DrainCommands() []game.ControlCommand {
	var cmds []game.ControlCommand
	for {
		select {
		case cmd := <-f.control:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}
