package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
)

type handlers struct {
	ctl Controller
	log observability.Logger
}

// StateResponse is the JSON form of the session state.
type StateResponse struct {
	SessionID      string           `json:"session_id"`
	Stage          string           `json:"stage"`
	Continuous     bool             `json:"continuous"`
	CompletedCount int              `json:"completed_count"`
	Modes          ModesResponse    `json:"modes"`
	CrossVerified  int              `json:"cross_verified"`
	Last           *OutcomeResponse `json:"last,omitempty"`
}

type ModesResponse struct {
	BoundsDetection bool `json:"bounds_detection"`
	SmartCapture    bool `json:"smart_capture"`
	AutoCrop        bool `json:"auto_crop"`
}

type OutcomeResponse struct {
	ID         string         `json:"id"`
	Cycle      int            `json:"cycle"`
	Status     string         `json:"status"`
	Method     string         `json:"method"`
	Message    string         `json:"message,omitempty"`
	Boundary   []coords.Point `json:"boundary,omitempty"`
	CapturedAt time.Time      `json:"captured_at"`
	Digest     string         `json:"digest,omitempty"`
	Text       string         `json:"text,omitempty"`
}

// AcceptRequest optionally carries an adjusted boundary of four points.
type AcceptRequest struct {
	Boundary []coords.Point `json:"boundary"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func modesResponse(m capture.ModeState) ModesResponse {
	return ModesResponse{BoundsDetection: m.BoundsDetection, SmartCapture: m.SmartCapture, AutoCrop: m.AutoCrop}
}

func outcomeResponse(o scan.Outcome) *OutcomeResponse {
	resp := &OutcomeResponse{
		ID:         o.ID,
		Cycle:      o.Cycle,
		Status:     o.Status.String(),
		Method:     o.Method.String(),
		Message:    o.Message,
		CapturedAt: o.CapturedAt,
		Digest:     o.Digest,
		Text:       o.Text,
	}
	if o.Boundary != nil {
		resp.Boundary = o.Boundary[:]
	}
	return resp
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	st := h.ctl.State()
	resp := StateResponse{
		SessionID:      st.SessionID,
		Stage:          st.Stage.String(),
		Continuous:     st.Continuous,
		CompletedCount: st.CompletedCount,
		Modes:          modesResponse(st.Modes),
		CrossVerified:  st.Verification.CrossVerified,
	}
	if st.Last != nil {
		resp.Last = outcomeResponse(*st.Last)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) lastImage(w http.ResponseWriter, r *http.Request) {
	out, ok := h.ctl.LastOutcome()
	if !ok || out.Image() == nil {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := imaging.EncodePNG(w, out.Image()); err != nil {
		h.log.Warn("write last image", observability.Error("err", err))
	}
}

func (h *handlers) simple(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *handlers) accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var boundary *coords.Quad
	if len(req.Boundary) > 0 {
		if len(req.Boundary) != 4 {
			http.Error(w, "boundary must have four points", http.StatusBadRequest)
			return
		}
		var q coords.Quad
		copy(q[:], req.Boundary)
		if !q.Convex() {
			http.Error(w, "boundary must be convex", http.StatusBadRequest)
			return
		}
		boundary = &q
	}
	h.ctl.Accept(boundary)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadBytes+1))
	if err != nil {
		http.Error(w, "read upload", http.StatusBadRequest)
		return
	}
	if len(data) > MaxUploadBytes {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}
	h.ctl.Upload(data)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) toggle(w http.ResponseWriter, r *http.Request) {
	var set func(*bool) capture.ModeState
	switch mux.Vars(r)["mode"] {
	case "bounds-detection":
		set = h.ctl.ToggleBoundsDetection
	case "smart-capture":
		set = h.ctl.ToggleSmartCapture
	case "auto-crop":
		set = h.ctl.ToggleAutoCrop
	default:
		http.NotFound(w, r)
		return
	}
	var req ToggleRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, modesResponse(set(req.Enabled)))
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
