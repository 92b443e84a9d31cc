// Package config exposes the HTTP configuration surface: calibration blocks,
// camera enumeration, reference image capture, and profile management.
package config

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"net/http"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/adapters/camera"
	"github.com/kendfrey/saigo/internal/broadcast"
	domaincfg "github.com/kendfrey/saigo/internal/domain/config"
	"github.com/kendfrey/saigo/internal/httpresponse"
	"github.com/kendfrey/saigo/internal/repository/profile"
	"github.com/kendfrey/saigo/internal/utils"
)

var (
	errNoFrame       = errors.New("no board-framed frame has been captured yet")
	errReferenceSize = errors.New("reference image resolution does not match the board extractor output")
)

type Handler struct {
	log      *zap.SugaredLogger
	cell     *domaincfg.Cell
	fabric   *broadcast.Fabric
	profiles *profile.Repository
}

func NewHandler(log *zap.SugaredLogger, cell *domaincfg.Cell, fabric *broadcast.Fabric, profiles *profile.Repository) *Handler {
	return &Handler{log: log, cell: cell, fabric: fabric, profiles: profiles}
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	current, _ := h.cell.Get()
	httpresponse.WriteJSON(w, http.StatusOK, current.Board)
}

func (h *Handler) PutBoard(w http.ResponseWriter, r *http.Request) {
	var block domaincfg.BoardConfig
	if err := utils.DecodeJSONRequest(r, &block); err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := block.Validate(); err != nil {
		httpresponse.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.cell.Update(func(c *domaincfg.Config) {
		if c.Board != block {
			// The reference image is tied to the extractor resolution.
			c.Reference = nil
		}
		c.Board = block
	})
	httpresponse.WriteJSON(w, http.StatusOK, block)
}

func (h *Handler) GetCamera(w http.ResponseWriter, r *http.Request) {
	current, _ := h.cell.Get()
	httpresponse.WriteJSON(w, http.StatusOK, current.Camera)
}

func (h *Handler) PutCamera(w http.ResponseWriter, r *http.Request) {
	var block domaincfg.CameraConfig
	if err := utils.DecodeJSONRequest(r, &block); err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := block.Validate(); err != nil {
		httpresponse.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.cell.Update(func(c *domaincfg.Config) {
		c.Camera = block
	})
	httpresponse.WriteJSON(w, http.StatusOK, block)
}

func (h *Handler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	current, _ := h.cell.Get()
	httpresponse.WriteJSON(w, http.StatusOK, current.Display)
}

func (h *Handler) PutDisplay(w http.ResponseWriter, r *http.Request) {
	var block domaincfg.DisplayConfig
	if err := utils.DecodeJSONRequest(r, &block); err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := block.Validate(); err != nil {
		httpresponse.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.cell.Update(func(c *domaincfg.Config) {
		c.Display = block
	})
	httpresponse.WriteJSON(w, http.StatusOK, block)
}

func (h *Handler) GetCameras(w http.ResponseWriter, r *http.Request) {
	devices, err := camera.ListDevices()
	if err != nil {
		h.log.Errorw("camera enumeration failed", "error", err)
		httpresponse.WriteInternalError(w)
		return
	}
	if devices == nil {
		devices = []string{}
	}
	httpresponse.WriteJSON(w, http.StatusOK, devices)
}

// PostReference captures or uploads the empty-board reference image. With
// take=true the most recent board-framed frame is used; otherwise a PNG body
// replaces the reference, and an empty body clears it.
func (h *Handler) PostReference(w http.ResponseWriter, r *http.Request) {
	take := r.URL.Query().Get("take") == "true"
	current, _ := h.cell.Get()
	wantW, wantH := current.Board.ExtractorSize()

	var reference *image.RGBA
	if take {
		frame, ok := h.fabric.BoardCamera.Latest()
		if !ok {
			httpresponse.WriteError(w, http.StatusConflict, errNoFrame)
			return
		}
		reference = frame
	} else {
		body, err := utils.ReadRequestBody(r)
		if err != nil {
			httpresponse.WriteError(w, http.StatusBadRequest, err)
			return
		}
		if len(body) > 0 {
			decoded, err := png.Decode(bytes.NewReader(body))
			if err != nil {
				httpresponse.WriteError(w, http.StatusBadRequest, err)
				return
			}
			reference = toRGBA(decoded)
		}
	}

	if reference != nil && (reference.Rect.Dx() != wantW || reference.Rect.Dy() != wantH) {
		httpresponse.WriteError(w, http.StatusUnprocessableEntity, errReferenceSize)
		return
	}

	h.cell.Update(func(c *domaincfg.Config) {
		c.Reference = reference
	})
	httpresponse.WriteJSON(w, http.StatusOK, map[string]bool{"set": reference != nil})
}

func (h *Handler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.profiles.List()
	if err != nil {
		h.log.Errorw("profile listing failed", "error", err)
		httpresponse.WriteInternalError(w)
		return
	}
	if names == nil {
		names = []string{}
	}
	httpresponse.WriteJSON(w, http.StatusOK, names)
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profile")
	current, _ := h.cell.Get()
	if err := h.profiles.Save(name, current); err != nil {
		h.log.Errorw("profile save failed", "profile", name, "error", err)
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httpresponse.WriteJSON(w, http.StatusOK, map[string]string{"profile": name})
}

func (h *Handler) LoadProfile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profile")
	loaded, err := h.profiles.Load(name)
	if err != nil {
		h.log.Errorw("profile load failed", "profile", name, "error", err)
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := loaded.Validate(); err != nil {
		httpresponse.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.cell.Set(loaded)
	httpresponse.WriteJSON(w, http.StatusOK, map[string]string{"profile": name})
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profile")
	if err := h.profiles.Delete(name); err != nil {
		h.log.Errorw("profile delete failed", "profile", name, "error", err)
		httpresponse.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httpresponse.WriteJSON(w, http.StatusOK, map[string]string{"profile": name})
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Rect, img, img.Bounds().Min, draw.Src)
	return out
}
