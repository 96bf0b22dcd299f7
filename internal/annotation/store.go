package annotation

import (
	"context"
	"sort"

	"github.com/sarabun/docflow/internal/faults"
)

// History is the undo stack for the current page only. Each entry is a full
// scene snapshot; the last entry always reflects the current on-screen
// state. The stack is cleared whenever the active page changes.
type History struct {
	snaps []*Snapshot
}

// NewHistory creates an empty undo history.
func NewHistory() *History {
	return &History{}
}

// Push appends a snapshot reflecting the new current state.
func (h *History) Push(snap *Snapshot) {
	h.snaps = append(h.snaps, snap)
}

// Undo pops the last entry and returns the snapshot to redisplay, or nil
// for the initial empty scene. Undoing past the initial state is a no-op
// that keeps returning the empty scene, never an error.
func (h *History) Undo() *Snapshot {
	if len(h.snaps) == 0 {
		return nil
	}
	h.snaps = h.snaps[:len(h.snaps)-1]
	if len(h.snaps) == 0 {
		return nil
	}
	return h.snaps[len(h.snaps)-1]
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int { return len(h.snaps) }

// Clear drops every recorded snapshot.
func (h *History) Clear() {
	h.snaps = nil
}

// SessionState tracks the page-switch lifecycle of the store.
type SessionState int

const (
	// SessionIdle means no page has been made live yet.
	SessionIdle SessionState = iota
	// SessionLoading means a page switch is resolving raster dimensions.
	SessionLoading
	// SessionLive means exactly one page is live and mutable.
	SessionLive
)

// PageSizer resolves the raster pixel dimensions of a page at the session's
// render scale. The raster source implements it.
type PageSizer interface {
	PageCount() int
	PixelSize(ctx context.Context, page int) (width, height int, err error)
}

// ErrSuperseded reports that an in-flight page load was invalidated by a
// newer switch; its result must not be applied to the live scene.
var ErrSuperseded = faults.New(faults.KindRender, "store.switch", "page load superseded by a newer switch")

// Store maps page numbers to serialized scene snapshots and owns the
// save/restore choreography of page switching. Exactly one page is live at
// a time; switching serializes the outgoing scene before the incoming one
// is restored, strictly in that order, so state never bleeds across pages.
type Store struct {
	sizer PageSizer

	pages      map[int]*Snapshot
	state      SessionState
	live       *Scene
	history    *History
	generation uint64
}

// NewStore creates a store over the given page sizer.
func NewStore(sizer PageSizer) *Store {
	return &Store{
		sizer:   sizer,
		pages:   make(map[int]*Snapshot),
		state:   SessionIdle,
		history: NewHistory(),
	}
}

// State returns the session lifecycle state.
func (s *Store) State() SessionState { return s.state }

// Live returns the live scene, or nil while idle/loading.
func (s *Store) Live() *Scene {
	if s.state != SessionLive {
		return nil
	}
	return s.live
}

// History returns the undo history of the live page.
func (s *Store) History() *History { return s.history }

// TotalPages returns the page count of the underlying document.
func (s *Store) TotalPages() int { return s.sizer.PageCount() }

// SwitchTo makes the target page live. The outgoing live scene is
// serialized into the store first; then the target page's stored snapshot,
// if any, is replayed into a fresh scene sized to that page's raster
// dimensions. The undo history resets on every switch. A target outside
// [1, totalPages] is rejected without side effects.
func (s *Store) SwitchTo(ctx context.Context, page int) (*Scene, error) {
	if page < 1 || page > s.sizer.PageCount() {
		return nil, faults.Input("store.switch", "page %d out of range [1, %d]", page, s.sizer.PageCount())
	}

	// Save must complete before any restore work begins.
	if s.state == SessionLive {
		snap, err := s.live.Snapshot()
		if err != nil {
			return nil, err
		}
		s.pages[s.live.Page()] = snap
	}

	s.state = SessionLoading
	s.live = nil
	s.generation++
	gen := s.generation

	width, height, err := s.sizer.PixelSize(ctx, page)
	if err != nil {
		return nil, faults.Wrap(faults.KindRender, "store.switch", err, "failed to size page %d", page)
	}
	if gen != s.generation {
		return nil, ErrSuperseded
	}

	var scene *Scene
	if snap, ok := s.pages[page]; ok {
		scene, err = SceneFromSnapshot(snap, width, height)
	} else {
		scene, err = NewScene(page, width, height)
	}
	if err != nil {
		return nil, err
	}

	s.live = scene
	s.state = SessionLive
	s.history.Clear()
	return scene, nil
}

// Undo reverts the live scene to the previous snapshot. At the initial
// empty state it yields an empty scene, not an error.
func (s *Store) Undo() error {
	if s.state != SessionLive {
		return faults.Input("store.undo", "no live page")
	}
	return s.live.RestoreSnapshot(s.history.Undo())
}

// Snapshots returns the page-keyed snapshot map including the live scene's
// current state, for export.
func (s *Store) Snapshots() (map[int]*Snapshot, error) {
	out := make(map[int]*Snapshot, len(s.pages)+1)
	for page, snap := range s.pages {
		out[page] = snap
	}
	if s.state == SessionLive {
		snap, err := s.live.Snapshot()
		if err != nil {
			return nil, err
		}
		out[s.live.Page()] = snap
	}
	return out, nil
}

// PagesWithMarkup returns the sorted pages whose scenes hold at least one
// object.
func (s *Store) PagesWithMarkup() ([]int, error) {
	snaps, err := s.Snapshots()
	if err != nil {
		return nil, err
	}
	var pages []int
	for page, snap := range snaps {
		if snap.ObjectCount() > 0 {
			pages = append(pages, page)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// HasMarkup reports whether any page holds at least one object.
func (s *Store) HasMarkup() (bool, error) {
	pages, err := s.PagesWithMarkup()
	if err != nil {
		return false, err
	}
	return len(pages) > 0, nil
}
