package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/design/internal/auth"
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/project"
	"github.com/inamate/design/internal/raster"
	"github.com/inamate/design/internal/render"
	"github.com/inamate/design/internal/typeset"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

const (
	maxScale     = 8.0
	maxDimension = 8192
)

var ErrInvalidFormat = errors.New("invalid export format")

// Documents loads a project's latest document for a member.
type Documents interface {
	Document(ctx context.Context, projectID, userID string) ([]byte, error)
}

// Options control how a document is framed for SVG and PNG output.
type Options struct {
	Scale      float64
	Padding    float64
	Background string
	Images     raster.Images
	Measurer   typeset.Measurer
}

type Handler struct {
	docs     Documents
	images   raster.Images
	measurer typeset.Measurer
}

func NewHandler(docs Documents, images raster.Images, measurer typeset.Measurer) *Handler {
	return &Handler{docs: docs, images: images, measurer: measurer}
}

// Export handles GET /api/projects/{projectId}/export/{format}.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	vars := mux.Vars(r)
	projectID := vars["projectId"]
	format := Format(vars["format"])

	opts := Options{
		Scale:      queryFloat(r, "scale", 1),
		Padding:    queryFloat(r, "padding", 0),
		Background: r.URL.Query().Get("background"),
		Images:     h.images,
		Measurer:   h.measurer,
	}

	data, err := h.docs.Document(r.Context(), projectID, userID)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case errors.Is(err, project.ErrNotMember):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "not a project member"})
		default:
			slog.Error("load document for export", "project", projectID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}
	doc, err := document.Decode(data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "stored document is unreadable"})
		return
	}

	var buf bytes.Buffer
	contentType, err := Write(&buf, doc, format, opts)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid format: must be json, svg, or png"})
			return
		}
		slog.Error("export failed", "project", projectID, "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, projectID, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	slog.Info("export complete", "project", projectID, "format", format, "size", buf.Len())
}

// Write encodes doc in format and returns the content type.
func Write(w io.Writer, doc *document.Document, format Format, opts Options) (string, error) {
	switch format {
	case FormatJSON:
		data, err := doc.Encode()
		if err != nil {
			return "", err
		}
		_, err = w.Write(data)
		return "application/json", err
	case FormatSVG:
		cmds, width, height := Frame(doc, opts)
		return "image/svg+xml", WriteSVG(w, cmds, width, height)
	case FormatPNG:
		cmds, width, height := Frame(doc, opts)
		err := raster.EncodePNG(w, cmds, width, height, raster.Options{
			Background: opts.Background,
			Images:     opts.Images,
		})
		return "image/png", err
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

// Frame compiles doc with a viewport that fits every visible top-level
// object, plus padding, at opts.Scale. An empty document is one pixel.
func Frame(doc *document.Document, opts Options) ([]render.DrawCommand, int, int) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	scale = min(scale, maxScale)

	var visible []document.Object
	for _, o := range doc.Objects {
		if o.IsVisible() {
			visible = append(visible, o)
		}
	}
	if len(visible) == 0 {
		return nil, 1, 1
	}
	box := render.SelectionBounds(visible)
	pad := max(opts.Padding, 0)
	box = geom.R(box.X-pad, box.Y-pad, box.Width+2*pad, box.Height+2*pad)

	width := clampDim(box.Width * scale)
	height := clampDim(box.Height * scale)
	vp := geom.Viewport{Zoom: scale, OffsetX: -box.X * scale, OffsetY: -box.Y * scale}
	return render.Compile(doc.Objects, vp, opts.Measurer), width, height
}

func clampDim(f float64) int {
	return min(max(int(math.Ceil(f)), 1), maxDimension)
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
