package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/dictee/internal/observe"
)

// handleStream serves GET /v1/stream. Each inbound text frame is one
// utterance, either plain text or a JSON processRequest; each outbound frame
// is a processResponse, or an errorResponse for a frame that could not be
// processed. The stream survives bad frames.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept has already written the HTTP error.
		observe.Logger(r.Context()).Debug("stream: accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	log := observe.Logger(ctx)

	stop := context.AfterFunc(s.base, func() {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stop()

	s.metrics.ActiveStreams.Add(ctx, 1)
	defer s.metrics.ActiveStreams.Add(context.WithoutCancel(ctx), -1)
	log.Debug("stream: opened")

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
				log.Debug("stream: closed", "status", status)
			case isCanceled(err) || s.base.Err() != nil:
				log.Debug("stream: ended", "err", err)
			default:
				log.Warn("stream: read failed", "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		resp, err := s.processFrame(ctx, data)
		if err != nil && isCanceled(err) {
			return
		}
		var out any = resp
		if err != nil {
			out = errorResponse{Error: err.Error()}
		}
		if err := wsjson.Write(ctx, conn, out); err != nil {
			log.Debug("stream: write failed", "err", err)
			return
		}
	}
}

// processFrame decodes one stream frame and runs it through the pipeline.
func (s *Server) processFrame(ctx context.Context, data []byte) (processResponse, error) {
	req := processRequest{Text: string(data)}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		req = processRequest{}
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return processResponse{}, errors.New("invalid JSON: " + err.Error())
		}
	}

	t, err := req.transcript()
	if err != nil {
		return processResponse{}, err
	}
	res, err := s.process(ctx, t, "stream")
	if err != nil {
		return processResponse{}, err
	}
	return newProcessResponse(res), nil
}
