package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const fetchTimeout = 15 * time.Second

// Result is delivered once an image source has been sized.
type Result struct {
	ObjectID string
	Src      string
	Width    float64
	Height   float64
	Err      error
}

// Loader sizes image sources in the background. Sources are /assets/
// paths under dir, data: URIs, or http(s) URLs.
type Loader struct {
	dir    string
	client *http.Client
	sem    chan struct{}
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewLoader(dir string, workers int, log *slog.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		dir:    dir,
		client: &http.Client{Timeout: fetchTimeout},
		sem:    make(chan struct{}, workers),
		log:    log,
	}
}

// Load sizes src on a worker goroutine and calls done with the result.
// done runs on the worker; callers hand the result to their own goroutine.
func (l *Loader) Load(ctx context.Context, objectID, src string, done func(Result)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			done(Result{ObjectID: objectID, Src: src, Err: ctx.Err()})
			return
		}
		defer func() { <-l.sem }()

		res := Result{ObjectID: objectID, Src: src}
		w, h, err := l.Size(ctx, src)
		if err != nil {
			l.log.Warn("load image", "src", src, "error", err)
			res.Err = err
		} else {
			res.Width, res.Height = float64(w), float64(h)
		}
		done(res)
	}()
}

// Wait blocks until every pending Load has reported.
func (l *Loader) Wait() { l.wg.Wait() }

// Size decodes just enough of src to report its pixel dimensions.
func (l *Loader) Size(ctx context.Context, src string) (int, int, error) {
	rc, err := l.open(ctx, src)
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func (l *Loader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		b, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(b)), nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
		}
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(resp.Body, maxUploadSize), resp.Body}, nil
	}
	return openLocal(l.dir, src)
}

func openLocal(dir, src string) (io.ReadCloser, error) {
	path, ok := localPath(dir, src)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported source %q", ErrNotFound, src)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return nil, err
	}
	return f, nil
}

// decodeDataURI handles base64 data: URIs.
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data uri")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return b, nil
}

// Library decodes and caches images for rasterizing. Only local assets
// and data: URIs are read; a server-side export never fetches remote URLs.
type Library struct {
	dir string

	mu     sync.Mutex
	images map[string]image.Image
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir, images: make(map[string]image.Image)}
}

func (l *Library) Image(src string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.images[src]; ok {
		return img, img != nil
	}
	img, err := l.decode(src)
	if err != nil {
		slog.Debug("image unavailable", "src", src, "error", err)
		img = nil
	}
	l.images[src] = img
	return img, img != nil
}

func (l *Library) decode(src string) (image.Image, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(src, "data:") {
		b, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		rc = io.NopCloser(bytes.NewReader(b))
	} else {
		f, err := openLocal(l.dir, src)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	return img, err
}
