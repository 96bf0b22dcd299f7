package workflow

import (
	"context"
	"log"

	"github.com/sarabun/docflow/internal/faults"
	"github.com/sarabun/docflow/internal/ports"
	"github.com/sarabun/docflow/internal/raster"
)

// MarkupContentType is the only artifact format offered for annotation:
// page-described documents, not raw images or arbitrary files.
const MarkupContentType = "application/pdf"

// ArtifactInfo describes one file attached to the document.
type ArtifactInfo struct {
	Ref         ports.BlobRef `json:"ref"`
	Name        string        `json:"name"`
	ContentType string        `json:"content_type"`
}

// ArtifactStatus is the coordinator's view of one artifact: whether it can
// be annotated and whether it has been.
type ArtifactStatus struct {
	ArtifactInfo
	Main      bool `json:"main"`
	Eligible  bool `json:"eligible"`
	Annotated bool `json:"annotated"`
}

type trackedArtifact struct {
	info         ArtifactInfo
	main         bool
	eligible     bool
	annotated    bool
	annotatedRef ports.BlobRef
}

// Coordinator orchestrates a single rejection event: which files are
// annotatable, which have been annotated, and the bundle handed to the
// state machine once a reason is confirmed. Cancelling mid-flow clears all
// pending annotation state and returns to the initial step.
type Coordinator struct {
	machine     *Machine
	blobs       ports.BlobStorage
	signerOrder int

	main        *trackedArtifact
	attachments []*trackedArtifact
}

// NewCoordinator starts a rejection flow for the acting signer over the
// document's main artifact and its attachments. Ineligible files stay
// listed but are never actionable.
func NewCoordinator(machine *Machine, blobs ports.BlobStorage, signerOrder int, main ArtifactInfo, attachments []ArtifactInfo) *Coordinator {
	c := &Coordinator{
		machine:     machine,
		blobs:       blobs,
		signerOrder: signerOrder,
		main:        track(main, true),
	}
	for _, info := range attachments {
		c.attachments = append(c.attachments, track(info, false))
	}
	return c
}

func track(info ArtifactInfo, main bool) *trackedArtifact {
	return &trackedArtifact{
		info:     info,
		main:     main,
		eligible: info.ContentType == MarkupContentType,
	}
}

// Artifacts lists every tracked file, main first.
func (c *Coordinator) Artifacts() []ArtifactStatus {
	out := make([]ArtifactStatus, 0, 1+len(c.attachments))
	out = append(out, c.main.status())
	for _, a := range c.attachments {
		out = append(out, a.status())
	}
	return out
}

func (a *trackedArtifact) status() ArtifactStatus {
	return ArtifactStatus{ArtifactInfo: a.info, Main: a.main, Eligible: a.eligible, Annotated: a.annotated}
}

func (c *Coordinator) find(ref ports.BlobRef) (*trackedArtifact, bool) {
	if c.main.info.Ref == ref {
		return c.main, true
	}
	for _, a := range c.attachments {
		if a.info.Ref == ref {
			return a, true
		}
	}
	return nil, false
}

// FetchForMarkup loads an eligible artifact's bytes for the annotation
// editor, verifying the blob really is a page-described document.
func (c *Coordinator) FetchForMarkup(ctx context.Context, ref ports.BlobRef) ([]byte, error) {
	artifact, ok := c.find(ref)
	if !ok {
		return nil, faults.Input("rejection.fetch", "unknown artifact %s", ref)
	}
	if !artifact.eligible {
		return nil, faults.Input("rejection.fetch", "artifact %s (%s) is not annotatable", artifact.info.Name, artifact.info.ContentType)
	}
	data, err := c.blobs.Fetch(ctx, ref)
	if err != nil {
		return nil, faults.Wrap(faults.KindStorage, "rejection.fetch", err, "failed to fetch artifact %s", artifact.info.Name)
	}
	if _, err := raster.SniffPageCount(data); err != nil {
		return nil, faults.Wrap(faults.KindRender, "rejection.fetch", err, "artifact %s is not page-addressable", artifact.info.Name)
	}
	return data, nil
}

// AttachAnnotated uploads the flattened markup result for an artifact and
// marks it annotated. An upload failure leaves the flag clear so the
// workflow record never references a blob that was not stored.
func (c *Coordinator) AttachAnnotated(ctx context.Context, ref ports.BlobRef, flattened []byte) error {
	artifact, ok := c.find(ref)
	if !ok {
		return faults.Input("rejection.attach", "unknown artifact %s", ref)
	}
	if !artifact.eligible {
		return faults.Input("rejection.attach", "artifact %s is not annotatable", artifact.info.Name)
	}
	stored, err := c.blobs.Store(ctx, flattened, MarkupContentType)
	if err != nil {
		return faults.Wrap(faults.KindStorage, "rejection.attach", err, "failed to store annotated %s", artifact.info.Name)
	}
	if artifact.annotated {
		// Re-annotation replaces the previous upload.
		if err := c.blobs.Remove(ctx, artifact.annotatedRef); err != nil {
			log.Printf("failed to remove superseded annotated artifact %s: %v", artifact.annotatedRef, err)
		}
	}
	artifact.annotatedRef = stored
	artifact.annotated = true
	return nil
}

// Reject bundles whichever artifacts were annotated (possibly none) with
// the reason and forwards the rejection to the state machine. An empty
// reason is a validation error with no state mutation.
func (c *Coordinator) Reject(ctx context.Context, reason string) error {
	if reason == "" {
		return faults.Input("rejection.reject", "rejection reason is empty")
	}

	bundle := &ports.RejectionBlobs{Reason: reason, AttachmentRefs: []ports.BlobRef{}}
	if c.main.annotated {
		ref := c.main.annotatedRef
		bundle.MainArtifact = &ref
	}
	for _, a := range c.attachments {
		if a.annotated {
			bundle.AttachmentRefs = append(bundle.AttachmentRefs, a.annotatedRef)
		}
	}
	return c.machine.Reject(ctx, c.signerOrder, bundle)
}

// Cancel aborts the flow: uploaded annotation artifacts are removed, all
// annotated flags clear, and the coordinator returns to its initial step.
func (c *Coordinator) Cancel(ctx context.Context) {
	for _, a := range append([]*trackedArtifact{c.main}, c.attachments...) {
		if !a.annotated {
			continue
		}
		if err := c.blobs.Remove(ctx, a.annotatedRef); err != nil {
			log.Printf("failed to remove annotated artifact %s during cancel: %v", a.annotatedRef, err)
		}
		a.annotated = false
		a.annotatedRef = ""
	}
}
