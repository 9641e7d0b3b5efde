// Package httpapi exposes the action hooks of a scan session over HTTP so a
// remote surface (a browser page, a kiosk controller) can drive it.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/session"
)

// Controller is the part of *session.Session the router drives.
type Controller interface {
	State() session.State
	LastOutcome() (scan.Outcome, bool)
	Stop()
	ManualCapture()
	Close()
	Retake()
	Accept(boundary *coords.Quad)
	Done()
	Upload(data []byte)
	ViewportChanged()
	ToggleBoundsDetection(enabled *bool) capture.ModeState
	ToggleSmartCapture(enabled *bool) capture.ModeState
	ToggleAutoCrop(enabled *bool) capture.ModeState
}

// MaxUploadBytes bounds the body of an upload request.
const MaxUploadBytes = 32 << 20

func NewRouter(ctl Controller, log observability.Logger) *mux.Router {
	if log == nil {
		log = observability.NopLogger{}
	}
	h := &handlers{ctl: ctl, log: log}
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/state", h.state).Methods("GET")
	r.HandleFunc("/last.png", h.lastImage).Methods("GET")

	r.HandleFunc("/actions/capture", h.simple(ctl.ManualCapture)).Methods("POST")
	r.HandleFunc("/actions/close", h.simple(ctl.Close)).Methods("POST")
	r.HandleFunc("/actions/retake", h.simple(ctl.Retake)).Methods("POST")
	r.HandleFunc("/actions/done", h.simple(ctl.Done)).Methods("POST")
	r.HandleFunc("/actions/stop", h.simple(ctl.Stop)).Methods("POST")
	r.HandleFunc("/actions/viewport", h.simple(ctl.ViewportChanged)).Methods("POST")
	r.HandleFunc("/actions/accept", h.accept).Methods("POST")
	r.HandleFunc("/actions/upload", h.upload).Methods("POST")
	r.HandleFunc("/modes/{mode}", h.toggle).Methods("POST")
	return r
}
