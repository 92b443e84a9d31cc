// Package ws exposes the stream and control websocket endpoints.
package ws

import (
	"context"
	"image"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/broadcast"
	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/game"
	"github.com/kendfrey/saigo/internal/domain/vision"
	"github.com/kendfrey/saigo/internal/imagedata"
)

type Handler struct {
	log    *zap.SugaredLogger
	fabric *broadcast.Fabric
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewHandler(log *zap.SugaredLogger, fabric *broadcast.Fabric) *Handler {
	return &Handler{log: log, fabric: fabric}
}

// connContext cancels the returned context when the peer closes the
// connection. The reader goroutine also consumes pings from the client.
func connContext(parent context.Context, conn *websocket.Conn) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return ctx, cancel
}

func (h *Handler) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return nil, false
	}
	return conn, true
}

// HandleCamera streams raw camera frames in the binary imagedata format.
func (h *Handler) HandleCamera(w http.ResponseWriter, r *http.Request) {
	h.streamImages(w, r, h.fabric.RawCamera)
}

// HandleBoardCamera streams the board-framed image.
func (h *Handler) HandleBoardCamera(w http.ResponseWriter, r *http.Request) {
	h.streamImages(w, r, h.fabric.BoardCamera)
}

// HandleDisplay streams the projector output image.
func (h *Handler) HandleDisplay(w http.ResponseWriter, r *http.Request) {
	h.streamImages(w, r, h.fabric.Display)
}

func (h *Handler) streamImages(w http.ResponseWriter, r *http.Request, topic *broadcast.Topic[*image.RGBA]) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	sub := topic.Subscribe()
	defer sub.Close()

	ctx, cancel := connContext(r.Context(), conn)
	defer cancel()

	for {
		frame, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, imagedata.Encode(frame)); err != nil {
			return
		}
	}
}

// HandleBoard streams the committed board as a JSON 2D array of " "/"B"/"W".
func (h *Handler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	sub := h.fabric.Board.Subscribe()
	defer sub.Close()

	ctx, cancel := connContext(r.Context(), conn)
	defer cancel()

	for {
		b, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(boardJSON(b)); err != nil {
			return
		}
	}
}

func boardJSON(b board.Board) [][]string {
	rows := make([][]string, b.Shape.Height)
	for y := 0; y < b.Shape.Height; y++ {
		row := make([]string, b.Shape.Width)
		for x := 0; x < b.Shape.Width; x++ {
			switch b.At(x, y) {
			case board.CellBlack:
				row[x] = "B"
			case board.CellWhite:
				row[x] = "W"
			default:
				row[x] = " "
			}
		}
		rows[y] = row
	}
	return rows
}

// HandleRawBoard streams the smoothed predictions as a JSON 2D array of
// (empty, black, white, obscured) tuples.
func (h *Handler) HandleRawBoard(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	sub := h.fabric.RawBoard.Subscribe()
	defer sub.Close()

	ctx, cancel := connContext(r.Context(), conn)
	defer cancel()

	for {
		raw, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(rawBoardJSON(raw)); err != nil {
			return
		}
	}
}

func rawBoardJSON(raw vision.RawBoard) [][][4]float32 {
	rows := make([][][4]float32, raw.Shape.Height)
	for y := 0; y < raw.Shape.Height; y++ {
		row := make([][4]float32, raw.Shape.Width)
		for x := 0; x < raw.Shape.Width; x++ {
			row[x] = raw.Cells[y*raw.Shape.Width+x].Tuple()
		}
		rows[y] = row
	}
	return rows
}

// HandleGame streams game events as JSON player moves.
func (h *Handler) HandleGame(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	sub := h.fabric.Game.Subscribe()
	defer sub.Close()

	ctx, cancel := connContext(r.Context(), conn)
	defer cancel()

	for {
		event, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// HandleControl accepts JSON control commands. The channel is exclusive: a
// second connection is refused with a status message while the first holds it.
func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	token, err := h.fabric.ClaimControl()
	if err != nil {
		h.log.Warnw("control connection refused, channel busy")
		_ = conn.WriteMessage(websocket.TextMessage, []byte("control channel is already in use"))
		return
	}
	defer h.fabric.ReleaseControl(token)
	h.log.Infow("control channel claimed")

	for {
		var cmd game.ControlCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			h.log.Infow("control channel released", "reason", err)
			return
		}
		if !h.fabric.SendCommand(cmd) {
			h.log.Warnw("control mailbox full, dropping command", "type", cmd.Type)
		}
	}
}
