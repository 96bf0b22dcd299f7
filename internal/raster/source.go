// Package raster turns pages of a source PDF into fixed-size drawing
// surfaces at a chosen render scale. Pixel-faithful reproduction of page
// content is out of scope: the raster fixes the coordinate space the
// annotation editor draws in, and export overlays onto the untouched
// original instead of re-rendering it.
package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/sarabun/docflow/internal/faults"
)

// Source decodes a PDF once and serves page dimensions and page rasters at
// a fixed render scale (pixels per point).
type Source struct {
	data  []byte
	scale float64
	dims  []types.Dim
}

// Open decodes the document and resolves every page's media box. A document
// that cannot be decoded here is fatal for the editing session.
func Open(data []byte, scale float64) (*Source, error) {
	if scale <= 0 {
		return nil, faults.Input("raster.open", "render scale must be positive, got %g", scale)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &faults.Error{
			Kind: faults.KindRender, Op: "raster.open", Fatal: true,
			Message: "failed to decode source document", Err: err,
		}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &faults.Error{
			Kind: faults.KindRender, Op: "raster.open", Fatal: true,
			Message: "failed to resolve page count", Err: err,
		}
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, &faults.Error{
			Kind: faults.KindRender, Op: "raster.open", Fatal: true,
			Message: "failed to resolve page dimensions", Err: err,
		}
	}

	return &Source{data: data, scale: scale, dims: dims}, nil
}

// Scale returns the render scale in pixels per point.
func (s *Source) Scale() float64 { return s.scale }

// PageCount returns the number of pages.
func (s *Source) PageCount() int { return len(s.dims) }

// PageSize returns the page media box in points.
func (s *Source) PageSize(page int) (types.Dim, error) {
	if page < 1 || page > len(s.dims) {
		return types.Dim{}, faults.Input("raster.page_size", "page %d out of range [1, %d]", page, len(s.dims))
	}
	return s.dims[page-1], nil
}

// PixelSize returns the raster dimensions of a page at the render scale.
// The ctx parameter keeps the signature usable as the annotation store's
// PageSizer, where sizing may sit on a slow path.
func (s *Source) PixelSize(ctx context.Context, page int) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, faults.Wrap(faults.KindRender, "raster.pixel_size", err, "sizing cancelled")
	}
	dim, err := s.PageSize(page)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Ceil(dim.Width * s.scale)), int(math.Ceil(dim.Height * s.scale)), nil
}

// PageRaster is one rendered page surface.
type PageRaster struct {
	Page   int
	Width  int
	Height int
	Image  *image.RGBA
}

// RenderPage produces the white drawing surface for a page.
func (s *Source) RenderPage(ctx context.Context, page int) (*PageRaster, error) {
	width, height, err := s.PixelSize(ctx, page)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &PageRaster{Page: page, Width: width, Height: height, Image: img}, nil
}

// ErrStale reports that a render finished after a newer page switch
// invalidated it; its result must not be applied.
var ErrStale = faults.New(faults.KindRender, "raster.render", "render superseded by a newer page switch")

// Renderer serializes page renders against page switches. Every switch
// bumps the generation; a render that completes under an old generation is
// reported stale so its result is never applied to a now-different live
// scene.
type Renderer struct {
	src *Source

	mu         sync.Mutex
	generation uint64
}

// NewRenderer wraps a source with generation tracking.
func NewRenderer(src *Source) *Renderer {
	return &Renderer{src: src}
}

// Invalidate marks all in-flight renders stale and returns the new
// generation. Called on every page switch.
func (r *Renderer) Invalidate() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.generation
}

// Render renders a page under the given generation. If a newer generation
// exists when the render completes, ErrStale is returned instead of the
// raster.
func (r *Renderer) Render(ctx context.Context, page int, generation uint64) (*PageRaster, error) {
	raster, err := r.src.RenderPage(ctx, page)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.generation {
		return nil, ErrStale
	}
	return raster, nil
}

// SniffPageCount cheaply verifies that data is a page-described document
// and returns its page count. Used for markup eligibility checks where a
// full decode would be wasteful.
func SniffPageCount(data []byte) (int, error) {
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, faults.Wrap(faults.KindRender, "raster.sniff", err, "not a page-described document")
	}
	return reader.NumPage(), nil
}
