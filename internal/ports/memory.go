package ports

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sarabun/docflow/internal/faults"
)

// In-memory adapters backing the collaborator ports. Used by the flatten CLI
// and by tests; production deployments bind the managed backend instead.

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryBlobStorage keeps blobs in process memory.
type MemoryBlobStorage struct {
	mu    sync.RWMutex
	blobs map[BlobRef]memoryBlob
}

// NewMemoryBlobStorage creates an empty in-memory blob store.
func NewMemoryBlobStorage() *MemoryBlobStorage {
	return &MemoryBlobStorage{blobs: make(map[BlobRef]memoryBlob)}
}

// Store saves a copy of data under a fresh ref.
func (s *MemoryBlobStorage) Store(_ context.Context, data []byte, contentType string) (BlobRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := BlobRef("mem://" + uuid.New().String())
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[ref] = memoryBlob{data: buf, contentType: contentType}
	return ref, nil
}

// Fetch returns the blob bytes for ref.
func (s *MemoryBlobStorage) Fetch(_ context.Context, ref BlobRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[ref]
	if !ok {
		return nil, faults.New(faults.KindStorage, "blob.fetch", "blob %s not found", ref)
	}
	out := make([]byte, len(blob.data))
	copy(out, blob.data)
	return out, nil
}

// Remove deletes the blob for ref. Removing an unknown ref is not an error.
func (s *MemoryBlobStorage) Remove(_ context.Context, ref BlobRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, ref)
	return nil
}

// Len reports the number of stored blobs.
func (s *MemoryBlobStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// StaticIdentity returns a fixed user for every call.
type StaticIdentity struct {
	User User
}

// CurrentUser implements Identity.
func (s StaticIdentity) CurrentUser(_ context.Context) (User, error) {
	return s.User, nil
}

// RecordedNotification is one delivered notification.
type RecordedNotification struct {
	UserID  string
	Kind    NotificationKind
	Message string
}

// MemoryNotifier records notifications instead of delivering them.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []RecordedNotification
}

// NewMemoryNotifier creates an empty recording notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Notify implements Notifier.
func (n *MemoryNotifier) Notify(_ context.Context, userID string, kind NotificationKind, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, RecordedNotification{UserID: userID, Kind: kind, Message: message})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (n *MemoryNotifier) Sent() []RecordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]RecordedNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

// MemoryWorkflowStore keeps the latest status update per document.
type MemoryWorkflowStore struct {
	mu      sync.RWMutex
	updates map[string]StatusUpdate
	failOn  string
}

// NewMemoryWorkflowStore creates an empty in-memory workflow store.
func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{updates: make(map[string]StatusUpdate)}
}

// FailNext makes the next update for documentID fail, for exercising the
// all-or-nothing contract in tests.
func (s *MemoryWorkflowStore) FailNext(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = documentID
}

// UpdateDocumentStatus implements WorkflowStore.
func (s *MemoryWorkflowStore) UpdateDocumentStatus(_ context.Context, documentID string, update StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn == documentID {
		s.failOn = ""
		return faults.New(faults.KindStorage, "workflow.update",
			"injected failure for document %s", documentID)
	}
	if documentID == "" {
		return faults.Input("workflow.update", "document id is empty")
	}
	s.updates[documentID] = update
	return nil
}

// Status returns the last persisted update for documentID.
func (s *MemoryWorkflowStore) Status(documentID string) (StatusUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	update, ok := s.updates[documentID]
	if !ok {
		return StatusUpdate{}, fmt.Errorf("no status recorded for document %s", documentID)
	}
	return update, nil
}
