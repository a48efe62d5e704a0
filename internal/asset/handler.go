// Package asset stores uploaded images and resolves image sources for the
// editor and the exporters.
package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/inamate/design/internal/typeid"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	urlPrefix     = "/assets/"
)

var ErrNotFound = errors.New("asset not found")

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /api/assets (multipart form with a "file" field).
// PNG, JPEG and WebP are accepted and stored as PNG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported or invalid image")
		return
	}
	switch format {
	case "png", "jpeg", "webp":
	default:
		writeError(w, http.StatusBadRequest, "only PNG, JPEG and WebP images are supported")
		return
	}

	assetID := typeid.NewAssetID()
	if err := h.save(assetID, img); err != nil {
		slog.Error("save asset", "error", err, "asset", assetID)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	b := img.Bounds()
	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:     assetID,
		URL:    URL(assetID),
		Width:  b.Dx(),
		Height: b.Dy(),
		Type:   "png",
		Name:   header.Filename,
	})
}

func (h *Handler) save(assetID string, img image.Image) error {
	path := filepath.Join(h.dir, assetID+".png")
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}

// Serve returns an http.Handler for stored asset files. Asset ids are
// never reused, so responses are immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	if err := os.Remove(filepath.Join(h.dir, assetID+".png")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, assetID)
		}
		return err
	}
	return nil
}

// URL is the public path of a stored asset.
func URL(assetID string) string { return urlPrefix + assetID + ".png" }

// localPath maps an /assets/ URL onto dir. Other sources are not local.
func localPath(dir, src string) (string, bool) {
	name, ok := strings.CutPrefix(src, urlPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", false
	}
	return filepath.Join(dir, name), true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
