package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarabun/docflow/internal/faults"
)

// fakeSizer sizes every page identically without touching a real document.
type fakeSizer struct {
	pages  int
	width  int
	height int
}

func (f fakeSizer) PageCount() int { return f.pages }

func (f fakeSizer) PixelSize(_ context.Context, _ int) (int, int, error) {
	return f.width, f.height, nil
}

func newTestStore(t *testing.T, pages int) (*Store, *Scene) {
	t.Helper()
	store := NewStore(fakeSizer{pages: pages, width: 800, height: 600})
	scene, err := store.SwitchTo(context.Background(), 1)
	require.NoError(t, err)
	return store, scene
}

func drawStroke(t *testing.T, store *Store, from, to Point) {
	t.Helper()
	ctrl := NewController(store.Live(), store.History())
	ctrl.SetTool(ToolPen, Color{A: 0xff}, 2)
	_, err := ctrl.PointerDown(DeviceMouse, from.X, from.Y)
	require.NoError(t, err)
	_, err = ctrl.PointerUp(DeviceMouse, to.X, to.Y)
	require.NoError(t, err)
}

func TestSwitchRoundTripRestoresSerializedObjects(t *testing.T) {
	store, _ := newTestStore(t, 3)
	ctx := context.Background()

	drawStroke(t, store, Point{10, 10}, Point{100, 10})
	drawStroke(t, store, Point{20, 30}, Point{120, 30})
	before := store.Live().Objects()

	_, err := store.SwitchTo(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Live().Len(), "page 2 starts empty")

	scene, err := store.SwitchTo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, scene.Objects(), "round-trip preserves the object list structurally")
}

func TestSwitchRejectsOutOfRangeWithoutSideEffects(t *testing.T) {
	store, _ := newTestStore(t, 3)
	ctx := context.Background()
	drawStroke(t, store, Point{10, 10}, Point{100, 10})

	for _, page := range []int{0, -1, 4} {
		_, err := store.SwitchTo(ctx, page)
		require.Error(t, err)
		assert.True(t, faults.IsKind(err, faults.KindInput))
	}
	assert.Equal(t, SessionLive, store.State())
	assert.Equal(t, 1, store.Live().Page())
	assert.Equal(t, 1, store.Live().Len())
	assert.Equal(t, 1, store.History().Len(), "history survives a rejected switch")
}

func TestSwitchClearsUndoHistory(t *testing.T) {
	store, _ := newTestStore(t, 2)
	drawStroke(t, store, Point{10, 10}, Point{100, 10})
	require.Equal(t, 1, store.History().Len())

	_, err := store.SwitchTo(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, store.History().Len())
}

func TestUndoIsIdempotentAtTheBoundary(t *testing.T) {
	store, _ := newTestStore(t, 1)
	drawStroke(t, store, Point{10, 10}, Point{100, 10})
	require.Equal(t, 1, store.Live().Len())

	require.NoError(t, store.Undo())
	assert.Equal(t, 0, store.Live().Len())

	// Undoing with only the initial empty state left keeps yielding an
	// empty scene, not an error.
	require.NoError(t, store.Undo())
	require.NoError(t, store.Undo())
	assert.Equal(t, 0, store.Live().Len())
}

func TestUndoStepsBackThroughSnapshots(t *testing.T) {
	store, _ := newTestStore(t, 1)
	drawStroke(t, store, Point{10, 10}, Point{100, 10})
	drawStroke(t, store, Point{20, 20}, Point{120, 20})
	require.Equal(t, 2, store.Live().Len())

	require.NoError(t, store.Undo())
	assert.Equal(t, 1, store.Live().Len())
	require.NoError(t, store.Undo())
	assert.Equal(t, 0, store.Live().Len())
}

func TestSnapshotsIncludeLiveScene(t *testing.T) {
	store, _ := newTestStore(t, 2)
	ctx := context.Background()

	drawStroke(t, store, Point{10, 10}, Point{100, 10})
	_, err := store.SwitchTo(ctx, 2)
	require.NoError(t, err)
	drawStroke(t, store, Point{5, 5}, Point{50, 5})

	snaps, err := store.Snapshots()
	require.NoError(t, err)
	assert.Equal(t, 1, snaps[1].ObjectCount())
	assert.Equal(t, 1, snaps[2].ObjectCount())

	pages, err := store.PagesWithMarkup()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pages)

	marked, err := store.HasMarkup()
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestEmptyStoreHasNoMarkup(t *testing.T) {
	store, _ := newTestStore(t, 2)
	marked, err := store.HasMarkup()
	require.NoError(t, err)
	assert.False(t, marked)
}
