package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, h *Handler, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	rec := upload(t, h, "red.png", pngBytes(t, 30, 20))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 30 || resp.Height != 20 || resp.Name != "red.png" || resp.URL != URL(resp.ID) {
		t.Errorf("response = %+v", resp)
	}
	if _, err := os.Stat(filepath.Join(dir, resp.ID+".png")); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	if rec := upload(t, h, "notes.txt", []byte("hello")); rec.Code != http.StatusBadRequest {
		t.Errorf("text upload status = %d, want 400", rec.Code)
	}

	if err := h.Delete(resp.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := h.Delete(resp.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
	if err := h.Delete("../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() bad id error = %v, want ErrNotFound", err)
	}
}

func TestLoaderSizes(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t, 12, 7)
	if err := os.WriteFile(filepath.Join(dir, "asset_a.png"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer remote.Close()

	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"local asset", "/assets/asset_a.png", false},
		{"data uri", "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), false},
		{"remote", remote.URL + "/img.png", false},
		{"remote 404", remote.URL + "/missing.png", true},
		{"missing asset", "/assets/asset_b.png", true},
		{"traversal", "/assets/../secret.png", true},
		{"unknown scheme", "ftp://example.com/a.png", true},
	}

	l := NewLoader(dir, 2, nil)
	results := make(chan Result, len(tests))
	for _, tt := range tests {
		l.Load(context.Background(), tt.name, tt.src, func(r Result) { results <- r })
	}
	l.Wait()
	close(results)

	got := make(map[string]Result)
	for r := range results {
		got[r.ObjectID] = r
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := got[tt.name]
			if !ok {
				t.Fatal("no result delivered")
			}
			if (r.Err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", r.Err, tt.wantErr)
			}
			if !tt.wantErr && (r.Width != 12 || r.Height != 7) {
				t.Errorf("size = %vx%v, want 12x7", r.Width, r.Height)
			}
		})
	}
}

func TestLibrary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "asset_a.png"), pngBytes(t, 4, 4), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(dir)

	img, ok := lib.Image("/assets/asset_a.png")
	if !ok || img.Bounds().Dx() != 4 {
		t.Fatalf("Image() = %v, %v", img, ok)
	}
	if _, ok := lib.Image("/assets/asset_missing.png"); ok {
		t.Errorf("missing asset reported as available")
	}
	if _, ok := lib.Image("https://example.com/a.png"); ok {
		t.Errorf("remote source loaded by library")
	}
}
