package viewer

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/eeg/montage"
	"github.com/cortical-data/eegview/internal/httputil"
)

// BadsResponse is the response shape for both bad-channel endpoints.
type BadsResponse struct {
	Bads []string `json:"bads"`
}

// BadsRequest mutates the bad set. Either a full replacement list or a
// single name with the desired state.
type BadsRequest struct {
	Name string   `json:"name,omitempty"`
	Bad  bool     `json:"bad"`
	Bads []string `json:"bads,omitempty"`
}

// selectRecording resolves the compare query parameter to a recording.
func (ws *WebServer) selectRecording(r *http.Request) (*eeg.Recording, string, error) {
	c := r.URL.Query().Get("compare")
	if c == "" || c == "0" || c == "false" {
		return ws.recording, "raw", nil
	}
	if ws.compare == nil {
		return nil, "", fmt.Errorf("no comparison recording loaded")
	}
	return ws.compare, "preprocessed", nil
}

// handleRecording returns metadata about the loaded recording
func (ws *WebServer) handleRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rec, _, err := ws.selectRecording(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, PrepareRecordingInfo(rec, ws.compare != nil))
}

// handleWindow returns one paged, decimated time window as JSON
func (ws *WebServer) handleWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rec, source, err := ws.selectRecording(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}

	start := 0.0
	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed < 0 {
			httputil.BadRequest(w, "Invalid 'start' parameter")
			return
		}
		start = parsed
	}

	dur := ws.config.GetWindowSeconds()
	if d := r.URL.Query().Get("dur"); d != "" {
		parsed, err := strconv.ParseFloat(d, 64)
		if err != nil || parsed <= 0 || parsed > 3600 {
			httputil.BadRequest(w, "Invalid 'dur' parameter")
			return
		}
		dur = parsed
	}

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 0 {
			httputil.BadRequest(w, "Invalid 'page' parameter")
			return
		}
		page = parsed
	}

	data, err := PrepareWindowData(rec, source, start, dur,
		page, ws.config.GetChannelsPerPage(), ws.config.GetDecimationTarget())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to extract window: %v", err))
		return
	}

	httputil.WriteJSONOK(w, data)
}

// handleBads reads or mutates the bad-channel set
func (ws *WebServer) handleBads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, BadsResponse{Bads: ws.recording.Bads()})

	case http.MethodPost:
		var req BadsRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}

		var err error
		switch {
		case req.Bads != nil:
			err = ws.recording.SetBads(req.Bads)
		case req.Name != "":
			if req.Bad {
				err = ws.recording.MarkBad(req.Name)
			} else {
				err = ws.recording.UnmarkBad(req.Name)
			}
		default:
			httputil.BadRequest(w, "request must set 'name' or 'bads'")
			return
		}

		if err != nil {
			var notFound *eeg.ChannelNotFoundError
			if errors.As(err, &notFound) {
				httputil.NotFound(w, err.Error())
				return
			}
			httputil.InternalServerError(w, fmt.Sprintf("Failed to update bads: %v", err))
			return
		}

		httputil.WriteJSONOK(w, BadsResponse{Bads: ws.recording.Bads()})

	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleLayout returns the 2-D sensor layout as JSON. The source parameter
// selects between positions recorded in the session and a bundled montage.
func (ws *WebServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	data, ok := ws.resolveLayout(w, r)
	if !ok {
		return
	}

	httputil.WriteJSONOK(w, data)
}

// resolveLayout builds the layout selected by the request's source and name
// parameters. On failure it writes the error response and reports false.
func (ws *WebServer) resolveLayout(w http.ResponseWriter, r *http.Request) (*LayoutData, bool) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "recording"
	}

	var (
		l    *layout.Layout
		name string
		err  error
	)

	switch source {
	case "recording":
		l, err = layout.FromRecording(ws.recording)
		if err != nil {
			var unavailable *eeg.LayoutUnavailableError
			if errors.As(err, &unavailable) {
				httputil.NotFound(w, err.Error())
				return nil, false
			}
			httputil.InternalServerError(w, fmt.Sprintf("Failed to derive layout: %v", err))
			return nil, false
		}

	case "montage":
		name = r.URL.Query().Get("name")
		if name == "" {
			httputil.BadRequest(w, "Missing 'name' parameter for montage layout")
			return nil, false
		}
		m, loadErr := montage.Load(name)
		if loadErr != nil {
			var unknown *eeg.UnknownMontageError
			if errors.As(loadErr, &unknown) {
				httputil.NotFound(w, loadErr.Error())
				return nil, false
			}
			httputil.InternalServerError(w, fmt.Sprintf("Failed to load montage: %v", loadErr))
			return nil, false
		}
		l = layout.FromMontage(m)

	default:
		httputil.BadRequest(w, "Invalid 'source' parameter, expected 'recording' or 'montage'")
		return nil, false
	}

	return PrepareLayoutData(l, source, name, ws.recording.Bads()), true
}
