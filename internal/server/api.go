package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/dictee/internal/observe"
	"github.com/MrWong99/dictee/internal/transcript"
	"github.com/MrWong99/dictee/pkg/types"
)

// processRequest is the JSON body of POST /v1/process and of JSON stream
// frames.
type processRequest struct {
	Text      string        `json:"text"`
	Words     []wordPayload `json:"words,omitempty"`
	SessionID string        `json:"session_id,omitempty"`

	// Final marks an authoritative transcript. Omitted means true; partial
	// results are processed but never journalled.
	Final *bool `json:"final,omitempty"`
}

type wordPayload struct {
	Word       string  `json:"word"`
	StartMS    int64   `json:"start_ms"`
	EndMS      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

type processResponse struct {
	Text  string        `json:"text"`
	Edits []editPayload `json:"edits"`
}

type editPayload struct {
	Original    string  `json:"original"`
	Replacement string  `json:"replacement"`
	Stage       string  `json:"stage"`
	Confidence  float64 `json:"confidence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errEmptyText = errors.New("text is required")

// transcript converts the request into the pipeline's input model.
func (r processRequest) transcript() (types.Transcript, error) {
	if strings.TrimSpace(r.Text) == "" {
		return types.Transcript{}, errEmptyText
	}
	t := types.Transcript{
		Text:      r.Text,
		IsFinal:   r.Final == nil || *r.Final,
		SessionID: r.SessionID,
	}
	for i, w := range r.Words {
		if w.Confidence < 0 || w.Confidence > 1 {
			return types.Transcript{}, fmt.Errorf("words[%d].confidence %.2f is out of range [0, 1]", i, w.Confidence)
		}
		t.Words = append(t.Words, types.WordDetail{
			Word:       w.Word,
			Start:      time.Duration(w.StartMS) * time.Millisecond,
			End:        time.Duration(w.EndMS) * time.Millisecond,
			Confidence: w.Confidence,
		})
	}
	return t, nil
}

func newProcessResponse(res *transcript.Result) processResponse {
	out := processResponse{Text: res.Text, Edits: make([]editPayload, 0, len(res.Edits))}
	for _, e := range res.Edits {
		out.Edits = append(out.Edits, editPayload{
			Original:    e.Original,
			Replacement: e.Replacement,
			Stage:       e.Stage,
			Confidence:  e.Confidence,
		})
	}
	return out
}

// handleProcess serves POST /v1/process.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	t, err := req.transcript()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.process(r.Context(), t, "http")
	if err != nil {
		if isCanceled(err) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
			return
		}
		observe.Logger(r.Context()).Error("process failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, newProcessResponse(res))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
