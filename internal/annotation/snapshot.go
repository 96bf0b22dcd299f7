package annotation

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SnapshotVersion is the current on-disk schema version for scene snapshots.
// DecodeSnapshot rejects versions it does not know how to migrate.
const SnapshotVersion = 1

// Snapshot is a serialized full-scene state: the unit of the page-keyed
// store and of the undo history.
type Snapshot struct {
	Version int              `json:"v"`
	Page    int              `json:"page"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Objects []objectEnvelope `json:"objects"`
}

// objectEnvelope wraps one object with its kind tag for serialization.
type objectEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func wrapObject(obj Object) (objectEnvelope, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return objectEnvelope{}, fmt.Errorf("failed to marshal %s object: %w", obj.Kind(), err)
	}
	return objectEnvelope{Kind: obj.Kind(), Data: data}, nil
}

func unwrapObject(env objectEnvelope) (Object, error) {
	var obj Object
	switch env.Kind {
	case KindStroke:
		obj = &Stroke{}
	case KindHighlight:
		obj = &HighlightStroke{}
	case KindTextBox:
		obj = &TextBox{}
	case KindCircle:
		obj = &Circle{}
	case KindArrow:
		obj = &Arrow{}
	default:
		return nil, fmt.Errorf("unknown object kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s object: %w", env.Kind, err)
	}
	return obj, nil
}

// ObjectCount returns the number of objects in the snapshot.
func (s *Snapshot) ObjectCount() int {
	return len(s.Objects)
}

// DecodeObjects materializes the snapshot's objects.
func (s *Snapshot) DecodeObjects() ([]Object, error) {
	objects := make([]Object, 0, len(s.Objects))
	for _, env := range s.Objects {
		obj, err := unwrapObject(env)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// EncodeSnapshot serializes a snapshot to JSON.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses and version-checks a serialized snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (supported: %d)", s.Version, SnapshotVersion)
	}
	return &s, nil
}

// StoreFileVersion is the schema version for a whole-store export, as read
// by the flatten CLI.
const StoreFileVersion = 1

// StoreFile is the serialized page-keyed store.
type StoreFile struct {
	Version    int                  `json:"v"`
	TotalPages int                  `json:"total_pages"`
	Pages      map[string]*Snapshot `json:"pages"`
}

// EncodeStoreFile serializes a page-keyed snapshot map.
func EncodeStoreFile(totalPages int, pages map[int]*Snapshot) ([]byte, error) {
	file := StoreFile{
		Version:    StoreFileVersion,
		TotalPages: totalPages,
		Pages:      make(map[string]*Snapshot, len(pages)),
	}
	for page, snap := range pages {
		file.Pages[strconv.Itoa(page)] = snap
	}
	return json.MarshalIndent(file, "", "  ")
}

// DecodeStoreFile parses a serialized store and returns the page-keyed map.
func DecodeStoreFile(data []byte) (int, map[int]*Snapshot, error) {
	var file StoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, nil, fmt.Errorf("failed to decode annotation store: %w", err)
	}
	if file.Version != StoreFileVersion {
		return 0, nil, fmt.Errorf("unsupported store version %d (supported: %d)", file.Version, StoreFileVersion)
	}
	pages := make(map[int]*Snapshot, len(file.Pages))
	for key, snap := range file.Pages {
		page, err := strconv.Atoi(key)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid page key %q: %w", key, err)
		}
		if snap.Version != SnapshotVersion {
			return 0, nil, fmt.Errorf("page %d: unsupported snapshot version %d", page, snap.Version)
		}
		pages[page] = snap
	}
	return file.TotalPages, pages, nil
}
