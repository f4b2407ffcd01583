// Package api provides the HTTP handlers for the rangoli control path.
package api

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"net/http"

	"github.com/ayusman/rangoli/internal/gesture"
	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/paint"
)

// ExportFilename is the download name of an exported drawing.
const ExportFilename = "drawing.png"

// Drawing is the part of the application the canvas handlers drive.
type Drawing interface {
	Reset()
	Export() ([]byte, error)
	Controller() *paint.Controller
	Zones() *gesture.ZoneSet
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// CanvasHandler serves the canvas control endpoints:
//
//	POST /api/canvas/reset
//	GET  /api/canvas/export
//	GET  /api/tool
//	GET  /api/zones
//	GET  /api/enabled, PUT /api/enabled
type CanvasHandler struct {
	drawing Drawing
	logger  *slog.Logger
}

// NewCanvasHandler creates a new CanvasHandler for d.
func NewCanvasHandler(d Drawing) *CanvasHandler {
	return &CanvasHandler{drawing: d, logger: log.WithComponent("api")}
}

// Register adds the handler's routes to mux.
func (h *CanvasHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/canvas/reset", h.reset)
	mux.HandleFunc("/api/canvas/export", h.export)
	mux.HandleFunc("/api/tool", h.tool)
	mux.HandleFunc("/api/zones", h.zones)
	mux.HandleFunc("/api/enabled", h.enabled)
}

type errorResponse struct {
	Error string `json:"error"`
}

type toolResponse struct {
	Tool    string `json:"tool"`
	Color   string `json:"color"`
	Erasing bool   `json:"erasing"`
	Zone    int    `json:"zone"`
	Tracing bool   `json:"tracing"`
}

type zoneResponse struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Tool  string  `json:"tool"`
	Fill  string  `json:"fill"`
	Ink   string  `json:"ink,omitempty"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
}

type listZonesResponse struct {
	Zones []zoneResponse `json:"zones"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// hexColor formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func hexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (h *CanvasHandler) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.drawing.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CanvasHandler) export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := h.drawing.Export()
	if err != nil {
		h.logger.Error("export failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "failed to export drawing")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *CanvasHandler) tool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctrl := h.drawing.Controller()
	ts := ctrl.Tool()
	writeJSON(w, http.StatusOK, toolResponse{
		Tool:    string(ts.Tool),
		Color:   hexColor(ts.ActiveColor),
		Erasing: ts.Erasing,
		Zone:    ts.Zone,
		Tracing: ctrl.Tracing(),
	})
}

func (h *CanvasHandler) zones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	all := h.drawing.Zones().All()
	resp := listZonesResponse{Zones: make([]zoneResponse, len(all))}
	for i, z := range all {
		zr := zoneResponse{
			Index: i,
			Label: z.Label,
			Tool:  string(z.Tool),
			Fill:  hexColor(z.Fill),
			X1:    z.Rect.X1,
			Y1:    z.Rect.Y1,
			X2:    z.Rect.X2,
			Y2:    z.Rect.Y2,
		}
		if !z.IsEraser() {
			zr.Ink = hexColor(z.Ink)
		}
		resp.Zones[i] = zr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CanvasHandler) enabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.drawing.SetEnabled(*req.Enabled)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.drawing.IsEnabled()})
}
