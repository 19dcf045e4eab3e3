package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/internal/store"
)

const maxAvatarBytes = 4 << 20

// AvatarHandler serves avatar upload, download and removal.
type AvatarHandler struct {
	avatars *services.AvatarService
}

// NewAvatarHandler constructs an AvatarHandler with the provided service.
func NewAvatarHandler(avatars *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatars: avatars}
}

// PutAvatar stores the request body as the user's avatar.
func (h *AvatarHandler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	data, err := readBodyLimited(r.Body, maxAvatarBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty avatar body")
		return
	}

	err = h.avatars.Upload(r.Context(), id, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		h.writeAvatarError(w, err, "failed to store avatar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAvatar streams the user's avatar.
func (h *AvatarHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.avatars.Open(r.Context(), id)
	if err != nil {
		h.writeAvatarError(w, err, "failed to fetch avatar")
		return
	}
	defer reader.Close()

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// DeleteAvatar removes the user's avatar.
func (h *AvatarHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.avatars.Remove(r.Context(), id); err != nil {
		h.writeAvatarError(w, err, "failed to delete avatar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AvatarHandler) writeAvatarError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "avatar storage unavailable")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func readBodyLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
