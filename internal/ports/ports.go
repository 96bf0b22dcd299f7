package ports

import "context"

// The portal core talks to its managed backend through the narrow contracts
// below. Blob storage, identity, notification delivery, and workflow
// persistence are all external collaborators; the core is indifferent to the
// concrete backend behind each interface.

// BlobRef identifies a stored blob. Backends may encode a URL, an object
// key, or anything else resolvable by the same storage.
type BlobRef string

// User identifies the person acting in the current session.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// BlobStorage stores and retrieves opaque blobs.
type BlobStorage interface {
	Store(ctx context.Context, data []byte, contentType string) (BlobRef, error)
	Fetch(ctx context.Context, ref BlobRef) ([]byte, error)
	Remove(ctx context.Context, ref BlobRef) error
}

// Identity resolves the current profile. Read-only; used to stamp who
// annotated, signed, or rejected.
type Identity interface {
	CurrentUser(ctx context.Context) (User, error)
}

// NotificationKind distinguishes the messages the workflow emits.
type NotificationKind string

const (
	NotifySignRequested NotificationKind = "sign_requested"
	NotifyApproved      NotificationKind = "approved"
	NotifyRejected      NotificationKind = "rejected"
)

// Notifier delivers fire-and-forget notifications. Failures are logged by
// callers, never surfaced to the acting user.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind NotificationKind, message string) error
}

// StatusUpdate is the record handed to workflow persistence on every
// transition. RejectionBundle is non-nil only on a reject transition.
type StatusUpdate struct {
	Status             string          `json:"status"`
	CurrentSignerOrder int             `json:"current_signer_order"`
	RejectionBundle    *RejectionBlobs `json:"rejection_bundle,omitempty"`
}

// RejectionBlobs is the persisted face of a rejection: the reason plus any
// annotated artifacts uploaded before the transition.
type RejectionBlobs struct {
	Reason         string    `json:"reason"`
	MainArtifact   *BlobRef  `json:"main_artifact,omitempty"`
	AttachmentRefs []BlobRef `json:"attachment_refs"`
}

// WorkflowStore persists document status transitions. Updates are atomic
// from the core's point of view: either fully applied or reported failed.
type WorkflowStore interface {
	UpdateDocumentStatus(ctx context.Context, documentID string, update StatusUpdate) error
}
