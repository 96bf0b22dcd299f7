package annotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarabun/docflow/internal/pdftest"
)

func strokeSnapshot(t *testing.T, page int) *Snapshot {
	t.Helper()
	scene, err := NewScene(page, 400, 400)
	require.NoError(t, err)
	scene.Add(&Stroke{
		ObjectID: "s1",
		Points:   []Point{{50, 50}, {300, 120}},
		Color:    Color{R: 0xff, A: 0xff},
		Width:    4,
	})
	snap, err := scene.Snapshot()
	require.NoError(t, err)
	return snap
}

func emptySnapshot(t *testing.T, page int) *Snapshot {
	t.Helper()
	scene, err := NewScene(page, 400, 400)
	require.NoError(t, err)
	snap, err := scene.Snapshot()
	require.NoError(t, err)
	return snap
}

func TestExportNoMarkupReturnsInputUnmodified(t *testing.T) {
	exporter, err := NewExporter(1.5)
	require.NoError(t, err)
	source := pdftest.MinimalPDF(2)

	tests := []struct {
		name  string
		pages map[int]*Snapshot
	}{
		{"empty store", map[int]*Snapshot{}},
		{"only empty scenes", map[int]*Snapshot{1: emptySnapshot(t, 1), 2: emptySnapshot(t, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := exporter.Export(context.Background(), source, tt.pages)
			require.NoError(t, err)
			assert.Equal(t, source, out, "no-op fast path returns the original bytes")
		})
	}
}

func TestExportFlattensMarkedPages(t *testing.T) {
	exporter, err := NewExporter(1.0)
	require.NoError(t, err)
	source := pdftest.MinimalPDF(2)

	out, err := exporter.Export(context.Background(), source, map[int]*Snapshot{
		1: strokeSnapshot(t, 1),
		2: emptySnapshot(t, 2),
	})
	require.NoError(t, err)
	assert.NotEqual(t, source, out, "marked page changes the output document")
	assert.Greater(t, len(out), 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestExportRejectsNonPositiveScale(t *testing.T) {
	_, err := NewExporter(0)
	assert.Error(t, err)
}

func TestExportCancelledContext(t *testing.T) {
	exporter, err := NewExporter(1.0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exporter.Export(ctx, pdftest.MinimalPDF(1), map[int]*Snapshot{1: strokeSnapshot(t, 1)})
	assert.Error(t, err)
}

func TestExportAsyncCancelledNeverInvokesCallback(t *testing.T) {
	exporter, err := NewExporter(1.0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := make(chan struct{}, 1)
	exporter.ExportAsync(ctx, pdftest.MinimalPDF(1), map[int]*Snapshot{1: strokeSnapshot(t, 1)}, func([]byte, error) {
		called <- struct{}{}
	})

	select {
	case <-called:
		t.Fatal("completion callback invoked after cancellation")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestExportAsyncDeliversResult(t *testing.T) {
	exporter, err := NewExporter(1.0)
	require.NoError(t, err)
	source := pdftest.MinimalPDF(1)

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	exporter.ExportAsync(context.Background(), source, map[int]*Snapshot{}, func(data []byte, err error) {
		done <- result{data, err}
	})

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, source, res.data)
	case <-time.After(5 * time.Second):
		t.Fatal("export did not complete")
	}
}
