package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// FrameSource yields the latest camera frame as JPEG. *capture.Grabber
// implements it.
type FrameSource interface {
	JPEG() ([]byte, error)
}

// StreamHandler serves MJPEG frames from the camera.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
	logger   *slog.Logger
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames FrameSource, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		frames:   frames,
		interval: 66 * time.Millisecond, // ~15 FPS
		logger:   logger,
	}
}

// ServeHTTP streams MJPEG frames until the client goes away. While no
// frame is available, for example outside gesture mode, it keeps waiting.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Debug("preview stream opened", "remote", r.RemoteAddr)
	defer h.logger.Debug("preview stream closed", "remote", r.RemoteAddr)

	waiting := false
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpg, err := h.frames.JPEG()
		if err != nil {
			if !waiting {
				h.logger.Debug("waiting for camera frame", "error", err)
				waiting = true
			}
			continue
		}
		waiting = false

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpg)); err != nil {
			return
		}
		if _, err := w.Write(jpg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
