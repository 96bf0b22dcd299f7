package annotation

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/sarabun/docflow/internal/faults"
)

// Exporter composites rasterized scene overlays onto the source PDF. Each
// marked page gets its overlay stamped at 1:1 pixel alignment with the
// original render scale; untouched pages pass through unchanged.
type Exporter struct {
	scale float64
	rast  *Rasterizer
}

// NewExporter creates an exporter for documents rendered at the given
// scale (canvas pixels per PDF point).
func NewExporter(scale float64) (*Exporter, error) {
	if scale <= 0 {
		return nil, faults.Input("export.new", "render scale must be positive, got %g", scale)
	}
	return &Exporter{scale: scale, rast: NewRasterizer()}, nil
}

// Export flattens every page with at least one object onto the source
// document. If no page has any markup the original bytes are returned
// unmodified. Cancelling ctx aborts between pages.
func (e *Exporter) Export(ctx context.Context, source []byte, pages map[int]*Snapshot) ([]byte, error) {
	marked := make([]int, 0, len(pages))
	for page, snap := range pages {
		if snap != nil && snap.ObjectCount() > 0 {
			marked = append(marked, page)
		}
	}
	if len(marked) == 0 {
		return source, nil
	}
	sort.Ints(marked)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	// An image's natural size is its pixel count in points, so the inverse
	// render scale maps overlay pixels back onto page points exactly.
	desc := fmt.Sprintf("pos:bl, off:0 0, rot:0, scalefactor:%.6f abs", 1.0/e.scale)

	current := source
	for _, page := range marked {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.KindExport, "export", err, "export cancelled")
		}

		overlay, err := e.rast.RasterizeSnapshot(pages[page])
		if err != nil {
			return nil, faults.Wrap(faults.KindExport, "export", err, "failed to rasterize page %d", page)
		}
		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, overlay); err != nil {
			return nil, faults.Wrap(faults.KindExport, "export", err, "failed to encode page %d overlay", page)
		}

		wm, err := api.ImageWatermarkForReader(bytes.NewReader(pngBuf.Bytes()), desc, true, false, types.POINTS)
		if err != nil {
			return nil, faults.Wrap(faults.KindExport, "export", err, "failed to build page %d overlay stamp", page)
		}

		var out bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(current), &out, []string{strconv.Itoa(page)}, wm, conf); err != nil {
			return nil, faults.Wrap(faults.KindExport, "export", err, "failed to stamp page %d", page)
		}
		current = out.Bytes()
	}
	return current, nil
}

// ExportAsync runs Export off the input-handling path and delivers the
// result through done. A cancelled export never invokes done.
func (e *Exporter) ExportAsync(ctx context.Context, source []byte, pages map[int]*Snapshot, done func([]byte, error)) {
	go func() {
		result, err := e.Export(ctx, source, pages)
		if ctx.Err() != nil {
			return
		}
		done(result, err)
	}()
}
