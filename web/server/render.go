package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"
)

// FrameUpdate is one accumulated image sent via SSE
type FrameUpdate struct {
	Frame     uint32 `json:"frame"`     // accumulation frame the image was read after
	Rendered  int    `json:"rendered"`  // frames submitted by this stream so far
	Total     int    `json:"total"`     // frames this stream will submit
	ImageData string `json:"imageData"` // Base64 encoded PNG
	ElapsedMs int64  `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderRequest bounds one SSE render stream
type RenderRequest struct {
	Frames int // frames to submit
	Every  int // read back and send the image every this many frames
}

// handleRender submits frames to the session and streams the accumulated image
// together with console messages. Only this goroutine writes to w.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	s.setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	consoleChan, unsubscribe := s.console.Subscribe(50)
	defer unsubscribe()

	events := make(chan SSEEvent, 16)
	go s.renderFrames(ctx, req, events)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-consoleChan:
			if !ok {
				consoleChan = nil
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := writeSSEEvent(w, flusher, SSEEvent{Type: "console", Data: string(data)}); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, flusher, event); err != nil {
				return
			}
		}
	}
}

// renderFrames produces frame events and closes events when finished.
// It never touches the response writer.
func (s *Server) renderFrames(ctx context.Context, req *RenderRequest, events chan<- SSEEvent) {
	defer close(events)

	send := func(event SSEEvent) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	start := time.Now()
	for i := 1; i <= req.Frames; i++ {
		if ctx.Err() != nil {
			return
		}
		if err := s.session.Render(); err != nil {
			send(SSEEvent{Type: "error", Data: fmt.Sprintf("Render error: %v", err)})
			return
		}
		if i%req.Every != 0 && i != req.Frames {
			continue
		}

		img, err := s.session.ReadFrame(ctx)
		if err != nil {
			send(SSEEvent{Type: "error", Data: fmt.Sprintf("Readback error: %v", err)})
			return
		}
		imageData, err := imageToBase64PNG(img)
		if err != nil {
			send(SSEEvent{Type: "error", Data: fmt.Sprintf("failed to encode image: %v", err)})
			return
		}
		update := FrameUpdate{
			Frame:     s.session.Frame(),
			Rendered:  i,
			Total:     req.Frames,
			ImageData: imageData,
			ElapsedMs: time.Since(start).Milliseconds(),
		}
		data, err := json.Marshal(update)
		if err != nil {
			send(SSEEvent{Type: "error", Data: err.Error()})
			return
		}
		if !send(SSEEvent{Type: "frame", Data: string(data)}) {
			return
		}
	}

	s.logger.Infof("streamed %d frames in %v", req.Frames, time.Since(start))
	send(SSEEvent{Type: "complete", Data: "Rendering completed"})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	var err error
	if req.Frames, err = parseIntParam(r.URL.Query(), "frames", 64, 1, 10000); err != nil {
		return nil, err
	}
	if req.Every, err = parseIntParam(r.URL.Query(), "every", 8, 1, 10000); err != nil {
		return nil, err
	}
	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
