package raster

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarabun/docflow/internal/faults"
	"github.com/sarabun/docflow/internal/pdftest"
)

func TestOpenResolvesPages(t *testing.T) {
	src, err := Open(pdftest.MinimalPDF(3), 1.5)
	require.NoError(t, err)

	assert.Equal(t, 3, src.PageCount())
	assert.Equal(t, 1.5, src.Scale())

	dim, err := src.PageSize(2)
	require.NoError(t, err)
	assert.Equal(t, pdftest.PageWidth, dim.Width)
	assert.Equal(t, pdftest.PageHeight, dim.Height)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("not a pdf at all"), 1.0)
	require.Error(t, err)

	var fe *faults.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, faults.KindRender, fe.Kind)
	assert.True(t, fe.Fatal, "an unreadable source is fatal for the session")
}

func TestOpenRejectsNonPositiveScale(t *testing.T) {
	_, err := Open(pdftest.MinimalPDF(1), 0)
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestPixelSizeAppliesScale(t *testing.T) {
	src, err := Open(pdftest.MinimalPDF(1), 2.0)
	require.NoError(t, err)

	width, height, err := src.PixelSize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1190, width)
	assert.Equal(t, 1684, height)

	_, _, err = src.PixelSize(context.Background(), 2)
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestRenderPageProducesWhiteSurface(t *testing.T) {
	src, err := Open(pdftest.MinimalPDF(1), 1.0)
	require.NoError(t, err)

	raster, err := src.RenderPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, raster.Page)
	assert.Equal(t, 595, raster.Width)
	assert.Equal(t, 842, raster.Height)

	r, g, b, a := raster.Image.At(100, 100).RGBA()
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)})
}

func TestRendererDropsStaleGenerations(t *testing.T) {
	src, err := Open(pdftest.MinimalPDF(2), 1.0)
	require.NoError(t, err)
	renderer := NewRenderer(src)

	gen := renderer.Invalidate()
	raster, err := renderer.Render(context.Background(), 1, gen)
	require.NoError(t, err)
	assert.Equal(t, 1, raster.Page)

	// A newer switch supersedes the captured generation.
	stale := gen
	_ = renderer.Invalidate()
	_, err = renderer.Render(context.Background(), 1, stale)
	assert.ErrorIs(t, err, ErrStale)
}

func TestSniffPageCount(t *testing.T) {
	count, err := SniffPageCount(pdftest.MinimalPDF(4))
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = SniffPageCount([]byte("just some text"))
	assert.True(t, faults.IsKind(err, faults.KindRender))
}
