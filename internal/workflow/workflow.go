// Package workflow drives the sequential approval chain of a document:
// which signer may act, how approvals advance the chain, and what a
// rejection carries forward into resubmission.
package workflow

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sarabun/docflow/internal/faults"
	"github.com/sarabun/docflow/internal/ports"
)

// Status is a document lifecycle state.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPendingSign Status = "pending_sign"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCompleted   Status = "completed"
)

// StatusInProgress is the observer-facing presentation of a chain that has
// started but not finished; it is never stored.
const StatusInProgress = "in_progress"

// NoSigner is the currentSignerOrder sentinel while no signer holds the
// turn.
const NoSigner = 0

// Decision is a signer's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Signer is one slot in the ordered approval chain. Order values are unique
// and drawn from the contiguous 1..N role ranks; a disabled optional signer
// is modeled by omitting its order from the list, never by a skip state.
// Required records whether the slot is mandatory for the document, instead
// of inferring that from the role name.
type Signer struct {
	Order    int    `json:"order"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Required bool   `json:"required"`
}

// Action is one recorded signer decision.
type Action struct {
	Order    int       `json:"order"`
	ActorID  string    `json:"actor_id"`
	Decision Decision  `json:"decision"`
	Comment  string    `json:"comment,omitempty"`
	At       time.Time `json:"at"`
}

// Document is the workflow-facing view of a portal document.
type Document struct {
	ID                 string                `json:"id"`
	Number             string                `json:"number,omitempty"`
	OwnerID            string                `json:"owner_id,omitempty"`
	Signers            []Signer              `json:"signers"`
	Status             Status                `json:"status"`
	CurrentSignerOrder int                   `json:"current_signer_order"`
	Rejection          *ports.RejectionBlobs `json:"rejection,omitempty"`
	History            []Action              `json:"history,omitempty"`
}

// Machine enforces the approval transitions for one document. It is
// single-writer by construction: only the currently empowered signer's
// action passes the turn check, which is all the locking the workflow
// needs.
type Machine struct {
	doc      *Document
	store    ports.WorkflowStore
	notifier ports.Notifier
}

// NewMachine creates a machine over a draft document with the given signer
// chain. Signer orders must be unique, positive, and strictly increasing.
func NewMachine(documentID string, signers []Signer, store ports.WorkflowStore, notifier ports.Notifier) (*Machine, error) {
	if documentID == "" {
		return nil, faults.Input("workflow.new", "document id is empty")
	}
	sorted := make([]Signer, len(signers))
	copy(sorted, signers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for i, signer := range sorted {
		if signer.Order < 1 {
			return nil, faults.Input("workflow.new", "signer order %d is not positive", signer.Order)
		}
		if i > 0 && signer.Order == sorted[i-1].Order {
			return nil, faults.Input("workflow.new", "duplicate signer order %d", signer.Order)
		}
	}

	return &Machine{
		doc: &Document{
			ID:                 documentID,
			Signers:            sorted,
			Status:             StatusDraft,
			CurrentSignerOrder: NoSigner,
		},
		store:    store,
		notifier: notifier,
	}, nil
}

// Document returns a copy of the current document state.
func (m *Machine) Document() Document {
	doc := *m.doc
	doc.Signers = append([]Signer(nil), m.doc.Signers...)
	doc.History = append([]Action(nil), m.doc.History...)
	return doc
}

// SetOwner records the submitting user so completion and rejection can be
// delivered back to them.
func (m *Machine) SetOwner(userID string) { m.doc.OwnerID = userID }

// Status returns the stored lifecycle status.
func (m *Machine) Status() Status { return m.doc.Status }

// CurrentSignerOrder returns the order of the signer holding the turn, or
// NoSigner.
func (m *Machine) CurrentSignerOrder() int { return m.doc.CurrentSignerOrder }

// PresentedStatus is the observer-facing status: a chain that has recorded
// approvals but not finished presents as in_progress.
func (m *Machine) PresentedStatus() string {
	if m.doc.Status == StatusPendingSign {
		for _, action := range m.doc.History {
			if action.Decision == DecisionApprove {
				return StatusInProgress
			}
		}
	}
	return string(m.doc.Status)
}

// AssignNumber records the document identifier. Draft only; re-invocation
// after a number is assigned is a no-op, not an error.
func (m *Machine) AssignNumber(number string) error {
	if m.doc.Status != StatusDraft {
		return faults.Input("workflow.assign_number", "document %s is %s, not draft", m.doc.ID, m.doc.Status)
	}
	if m.doc.Number != "" {
		return nil
	}
	if number == "" {
		return faults.Input("workflow.assign_number", "document number is empty")
	}
	m.doc.Number = number
	return nil
}

// Submit moves the document into the approval phase and hands the turn to
// the lowest-order signer. A document with zero signers cannot leave draft.
func (m *Machine) Submit(ctx context.Context) error {
	if m.doc.Status != StatusDraft {
		return faults.Input("workflow.submit", "document %s is %s, not draft", m.doc.ID, m.doc.Status)
	}
	if m.doc.Number == "" {
		return faults.Input("workflow.submit", "document %s has no assigned number", m.doc.ID)
	}
	if len(m.doc.Signers) == 0 {
		return faults.Input("workflow.submit", "document %s has no signers", m.doc.ID)
	}

	first := m.doc.Signers[0]
	if err := m.persist(ctx, StatusPendingSign, first.Order, nil); err != nil {
		return err
	}
	m.doc.Status = StatusPendingSign
	m.doc.CurrentSignerOrder = first.Order
	m.notify(ctx, first.ID, ports.NotifySignRequested,
		fmt.Sprintf("document %s awaits your signature", m.doc.Number))
	return nil
}

// Act applies a signer's decision. An actor other than the current signer
// is rejected with an out-of-turn fault, logged, and mutates nothing.
func (m *Machine) Act(ctx context.Context, signerOrder int, decision Decision, comment string) error {
	switch decision {
	case DecisionApprove:
		return m.approve(ctx, signerOrder, comment)
	case DecisionReject:
		return m.Reject(ctx, signerOrder, &ports.RejectionBlobs{Reason: comment})
	default:
		return faults.Input("workflow.act", "unknown decision %q", decision)
	}
}

func (m *Machine) checkTurn(op string, signerOrder int) (Signer, error) {
	if m.doc.Status != StatusPendingSign {
		return Signer{}, faults.Input(op, "document %s is %s, not pending_sign", m.doc.ID, m.doc.Status)
	}
	if signerOrder != m.doc.CurrentSignerOrder {
		err := faults.OutOfTurn(op, signerOrder, m.doc.CurrentSignerOrder)
		log.Printf("document %s: %v", m.doc.ID, err)
		return Signer{}, err
	}
	signer, ok := m.signerByOrder(signerOrder)
	if !ok {
		return Signer{}, faults.Input(op, "no signer with order %d", signerOrder)
	}
	return signer, nil
}

func (m *Machine) approve(ctx context.Context, signerOrder int, comment string) error {
	signer, err := m.checkTurn("workflow.approve", signerOrder)
	if err != nil {
		return err
	}

	if signerOrder == m.maxOrder() {
		if err := m.persist(ctx, StatusCompleted, NoSigner, nil); err != nil {
			return err
		}
		m.doc.Status = StatusCompleted
		m.doc.CurrentSignerOrder = NoSigner
		m.record(signer, DecisionApprove, comment)
		if m.doc.OwnerID != "" {
			m.notify(ctx, m.doc.OwnerID, ports.NotifyApproved,
				fmt.Sprintf("document %s completed the approval chain", m.doc.Number))
		}
		return nil
	}

	next, ok := m.nextOrderAfter(signerOrder)
	if !ok {
		return faults.Input("workflow.approve", "no signer after order %d", signerOrder)
	}
	if err := m.persist(ctx, StatusPendingSign, next, nil); err != nil {
		return err
	}
	m.doc.CurrentSignerOrder = next
	m.record(signer, DecisionApprove, comment)

	if nextSigner, ok := m.signerByOrder(next); ok {
		m.notify(ctx, nextSigner.ID, ports.NotifySignRequested,
			fmt.Sprintf("document %s awaits your signature", m.doc.Number))
	}
	return nil
}

// Reject applies a rejection with its bundle: the non-empty reason plus any
// annotated artifacts. The turn check applies like any other action.
func (m *Machine) Reject(ctx context.Context, signerOrder int, bundle *ports.RejectionBlobs) error {
	if bundle == nil || bundle.Reason == "" {
		return faults.Input("workflow.reject", "rejection reason is empty")
	}
	signer, err := m.checkTurn("workflow.reject", signerOrder)
	if err != nil {
		return err
	}
	if bundle.AttachmentRefs == nil {
		bundle.AttachmentRefs = []ports.BlobRef{}
	}

	if err := m.persist(ctx, StatusRejected, NoSigner, bundle); err != nil {
		return err
	}
	m.doc.Status = StatusRejected
	m.doc.CurrentSignerOrder = NoSigner
	m.doc.Rejection = bundle
	m.record(signer, DecisionReject, bundle.Reason)
	if m.doc.OwnerID != "" {
		m.notify(ctx, m.doc.OwnerID, ports.NotifyRejected,
			fmt.Sprintf("document %s was rejected: %s", m.doc.Number, bundle.Reason))
	}
	return nil
}

// Resubmit returns a rejected document to draft, clearing the stored
// rejection bundle and resetting the turn to the first order.
func (m *Machine) Resubmit(ctx context.Context) error {
	if m.doc.Status != StatusRejected {
		return faults.Input("workflow.resubmit", "document %s is %s, not rejected", m.doc.ID, m.doc.Status)
	}

	first := 1
	if len(m.doc.Signers) > 0 {
		first = m.doc.Signers[0].Order
	}
	if err := m.persist(ctx, StatusDraft, first, nil); err != nil {
		return err
	}
	m.doc.Status = StatusDraft
	m.doc.CurrentSignerOrder = first
	m.doc.Rejection = nil
	return nil
}

// persist pushes the transition to workflow storage before any in-memory
// mutation, keeping the update all-or-nothing from the machine's side.
func (m *Machine) persist(ctx context.Context, status Status, order int, bundle *ports.RejectionBlobs) error {
	update := ports.StatusUpdate{
		Status:             string(status),
		CurrentSignerOrder: order,
		RejectionBundle:    bundle,
	}
	if err := m.store.UpdateDocumentStatus(ctx, m.doc.ID, update); err != nil {
		return faults.Wrap(faults.KindStorage, "workflow.persist", err,
			"failed to persist %s for document %s", status, m.doc.ID)
	}
	return nil
}

// notify delivers fire-and-forget; failures are logged, never surfaced.
func (m *Machine) notify(ctx context.Context, userID string, kind ports.NotificationKind, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, userID, kind, message); err != nil {
		log.Printf("document %s: notification %s to %s failed: %v", m.doc.ID, kind, userID, err)
	}
}

func (m *Machine) record(signer Signer, decision Decision, comment string) {
	m.doc.History = append(m.doc.History, Action{
		Order:    signer.Order,
		ActorID:  signer.ID,
		Decision: decision,
		Comment:  comment,
		At:       time.Now(),
	})
}

func (m *Machine) signerByOrder(order int) (Signer, bool) {
	for _, signer := range m.doc.Signers {
		if signer.Order == order {
			return signer, true
		}
	}
	return Signer{}, false
}

func (m *Machine) maxOrder() int {
	if len(m.doc.Signers) == 0 {
		return NoSigner
	}
	return m.doc.Signers[len(m.doc.Signers)-1].Order
}

func (m *Machine) nextOrderAfter(order int) (int, bool) {
	for _, signer := range m.doc.Signers {
		if signer.Order > order {
			return signer.Order, true
		}
	}
	return NoSigner, false
}
