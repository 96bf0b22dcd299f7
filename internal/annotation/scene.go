package annotation

import (
	"fmt"
)

// Scene is the editable vector-object collection bound to one page. Its
// pixel dimensions are fixed when the page raster is rendered; all object
// coordinates live in that pixel space and are never normalized, so a
// re-render at a different scale re-derives dimensions before replay.
type Scene struct {
	page    int
	width   int
	height  int
	objects []Object
}

// NewScene creates an empty scene for a page with the given raster pixel
// dimensions.
func NewScene(page, width, height int) (*Scene, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid scene dimensions %dx%d", width, height)
	}
	return &Scene{page: page, width: width, height: height}, nil
}

// Page returns the 1-based page number the scene is bound to.
func (s *Scene) Page() int { return s.page }

// Width returns the canvas pixel width.
func (s *Scene) Width() int { return s.width }

// Height returns the canvas pixel height.
func (s *Scene) Height() int { return s.height }

// Len returns the number of objects in the scene.
func (s *Scene) Len() int { return len(s.objects) }

// Objects returns the ordered object list. The slice is a copy; the objects
// themselves are shared.
func (s *Scene) Objects() []Object {
	out := make([]Object, len(s.objects))
	copy(out, s.objects)
	return out
}

// Add appends an object to the scene.
func (s *Scene) Add(obj Object) {
	s.objects = append(s.objects, obj)
}

// ReplaceLast swaps the topmost object, used by drag construction to update
// the live shape in place.
func (s *Scene) ReplaceLast(obj Object) {
	if len(s.objects) == 0 {
		s.objects = []Object{obj}
		return
	}
	s.objects[len(s.objects)-1] = obj
}

// RemoveTopmostAt hit-tests from the top of the stacking order and removes
// the first match. It returns the removed object, if any.
func (s *Scene) RemoveTopmostAt(p Point) (Object, bool) {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if HitTest(s.objects[i], p) {
			removed := s.objects[i]
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return removed, true
		}
	}
	return nil, false
}

// FindByID returns the object with the given id.
func (s *Scene) FindByID(id string) (Object, bool) {
	for _, obj := range s.objects {
		if obj.ID() == id {
			return obj, true
		}
	}
	return nil, false
}

// Clear removes every object.
func (s *Scene) Clear() {
	s.objects = nil
}

// Snapshot serializes the scene into a versioned snapshot.
func (s *Scene) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Page:    s.page,
		Width:   s.width,
		Height:  s.height,
		Objects: make([]objectEnvelope, 0, len(s.objects)),
	}
	for _, obj := range s.objects {
		env, err := wrapObject(obj)
		if err != nil {
			return nil, err
		}
		snap.Objects = append(snap.Objects, env)
	}
	return snap, nil
}

// SceneFromSnapshot rebuilds a scene from a snapshot, overriding dimensions
// with the freshly rendered raster size so replay happens in the current
// pixel space.
func SceneFromSnapshot(snap *Snapshot, width, height int) (*Scene, error) {
	scene, err := NewScene(snap.Page, width, height)
	if err != nil {
		return nil, err
	}
	objects, err := snap.DecodeObjects()
	if err != nil {
		return nil, err
	}
	scene.objects = objects
	return scene, nil
}

// RestoreSnapshot replaces the scene's objects with the snapshot's without
// touching page binding or dimensions. Used by undo.
func (s *Scene) RestoreSnapshot(snap *Snapshot) error {
	if snap == nil {
		s.objects = nil
		return nil
	}
	objects, err := snap.DecodeObjects()
	if err != nil {
		return err
	}
	s.objects = objects
	return nil
}
