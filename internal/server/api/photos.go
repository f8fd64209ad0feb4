// Package api provides the JSON handlers behind the HTTP server.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

// MaxPhotoBytes bounds an uploaded photo.
const MaxPhotoBytes = 10 << 20

// PhotoHandler handles HTTP requests for carousel photos.
type PhotoHandler struct {
	store  *store.Store
	slots  int
	logger *slog.Logger
}

// NewPhotoHandler creates a PhotoHandler. slots is the carousel size used
// by the slots endpoint.
func NewPhotoHandler(s *store.Store, slots int, logger *slog.Logger) *PhotoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoHandler{store: s, slots: slots, logger: logger}
}

// ServeHTTP routes /api/photos and /api/photos/{id}.
func (h *PhotoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/photos")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.get(w, r, path)
}

type createPhotoRequest struct {
	Ref string `json:"ref"`
}

type photoResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	CreatedAt   string `json:"created_at"`
}

type listPhotosResponse struct {
	Photos []photoResponse `json:"photos"`
}

type slotResponse struct {
	store.Slot
	URL string `json:"url"`
}

type listSlotsResponse struct {
	Slots []slotResponse `json:"slots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PhotoURL is where a photo can be fetched: its external reference, or the
// raw endpoint for uploaded bytes.
func PhotoURL(p *store.Photo) string {
	if p.Ref != "" {
		return p.Ref
	}
	return "/api/photos/" + p.ID
}

func toPhotoResponse(p *store.Photo) photoResponse {
	return photoResponse{
		ID:          p.ID,
		URL:         PhotoURL(p),
		ContentType: p.ContentType,
		Size:        p.Size,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
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

// list handles GET /api/photos, newest first.
func (h *PhotoHandler) list(w http.ResponseWriter, r *http.Request) {
	photos, err := h.store.Photos().List(r.Context())
	if err != nil {
		h.logger.Error("list photos", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	response := listPhotosResponse{
		Photos: make([]photoResponse, 0, len(photos)),
	}
	for _, p := range photos {
		response.Photos = append(response.Photos, toPhotoResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/photos. It accepts a multipart upload in the
// "photo" field, a JSON body with an external ref, or a raw image body.
func (h *PhotoHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoBytes)

	photo, err := readPhoto(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Photos().Add(r.Context(), photo); err != nil {
		if errors.Is(err, store.ErrEmptyPhoto) {
			writeError(w, http.StatusBadRequest, "Photo is empty")
			return
		}
		h.logger.Error("add photo", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store photo")
		return
	}

	h.logger.Info("photo added", "id", photo.ID, "size", photo.Size)
	writeJSON(w, http.StatusCreated, toPhotoResponse(photo))
}

func readPhoto(r *http.Request) (*store.Photo, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/json":
		var req createPhotoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.New("invalid JSON")
		}
		if strings.TrimSpace(req.Ref) == "" {
			return nil, errors.New("ref is required")
		}
		return &store.Photo{Ref: req.Ref}, nil

	case mediaType == "multipart/form-data":
		file, header, err := r.FormFile("photo")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, errors.New("missing photo field")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		return imagePhoto(data, header.Header.Get("Content-Type"))

	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return imagePhoto(data, mediaType)
	}
}

func imagePhoto(data []byte, declared string) (*store.Photo, error) {
	if len(data) == 0 {
		return nil, errors.New("photo is empty")
	}
	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, errors.New("unsupported photo type")
	}
	contentType := declared
	if !strings.HasPrefix(contentType, "image/") {
		contentType = sniffed
	}
	return &store.Photo{ContentType: contentType, Data: data}, nil
}

// get handles GET /api/photos/{id}. Uploaded photos are served raw;
// referenced photos redirect to their ref.
func (h *PhotoHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	photo, err := h.store.Photos().Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Photo not found")
			return
		}
		h.logger.Error("get photo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get photo")
		return
	}

	if len(photo.Data) == 0 {
		http.Redirect(w, r, photo.Ref, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(photo.Data)
}

// Slots handles GET /api/slots.
func (h *PhotoHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	photos, err := h.store.Photos().List(r.Context())
	if err != nil {
		h.logger.Error("list photos", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list slots")
		return
	}

	slots := store.BuildSlots(photos, h.slots)
	response := listSlotsResponse{Slots: make([]slotResponse, 0, len(slots))}
	for i, s := range slots {
		url := s.Ref
		if !s.Placeholder {
			url = PhotoURL(photos[i])
		}
		response.Slots = append(response.Slots, slotResponse{Slot: s, URL: url})
	}

	writeJSON(w, http.StatusOK, response)
}
