package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarabun/docflow/internal/faults"
	"github.com/sarabun/docflow/internal/ports"
)

func chainSigners() []Signer {
	// Order 3 (assistant) is intentionally absent: a disabled optional
	// signer is omitted from the list, never skipped at runtime.
	return []Signer{
		{Order: 1, ID: "u1", Name: "สมชาย", Role: "section_chief", Required: true},
		{Order: 2, ID: "u2", Name: "สมหญิง", Role: "deputy_director", Required: false},
		{Order: 4, ID: "u4", Name: "สมศักดิ์", Role: "director", Required: true},
	}
}

func submittedMachine(t *testing.T) (*Machine, *ports.MemoryWorkflowStore, *ports.MemoryNotifier) {
	t.Helper()
	store := ports.NewMemoryWorkflowStore()
	notifier := ports.NewMemoryNotifier()
	m, err := NewMachine("doc-1", chainSigners(), store, notifier)
	require.NoError(t, err)
	require.NoError(t, m.AssignNumber("ศธ 0512/2569"))
	require.NoError(t, m.Submit(context.Background()))
	return m, store, notifier
}

func TestNewMachineValidatesSigners(t *testing.T) {
	store := ports.NewMemoryWorkflowStore()

	_, err := NewMachine("", chainSigners(), store, nil)
	assert.True(t, faults.IsKind(err, faults.KindInput))

	_, err = NewMachine("doc-1", []Signer{{Order: 0, ID: "u"}}, store, nil)
	assert.True(t, faults.IsKind(err, faults.KindInput))

	_, err = NewMachine("doc-1", []Signer{{Order: 1, ID: "a"}, {Order: 1, ID: "b"}}, store, nil)
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestAssignNumberIsIdempotent(t *testing.T) {
	m, _, _ := newDraftMachine(t)

	assert.True(t, faults.IsKind(m.AssignNumber(""), faults.KindInput))
	require.NoError(t, m.AssignNumber("ศธ 0512/2569"))

	// Re-invocation is a no-op, not an error, and keeps the first number.
	require.NoError(t, m.AssignNumber("ศธ 9999/2569"))
	assert.Equal(t, "ศธ 0512/2569", m.Document().Number)
}

func newDraftMachine(t *testing.T) (*Machine, *ports.MemoryWorkflowStore, *ports.MemoryNotifier) {
	t.Helper()
	store := ports.NewMemoryWorkflowStore()
	notifier := ports.NewMemoryNotifier()
	m, err := NewMachine("doc-1", chainSigners(), store, notifier)
	require.NoError(t, err)
	return m, store, notifier
}

func TestZeroSignersCannotLeaveDraft(t *testing.T) {
	m, err := NewMachine("doc-1", nil, ports.NewMemoryWorkflowStore(), nil)
	require.NoError(t, err)
	require.NoError(t, m.AssignNumber("ศธ 0001/2569"))

	err = m.Submit(context.Background())
	assert.True(t, faults.IsKind(err, faults.KindInput))
	assert.Equal(t, StatusDraft, m.Status())
}

func TestSubmitRequiresAssignedNumber(t *testing.T) {
	m, _, _ := newDraftMachine(t)
	err := m.Submit(context.Background())
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestApprovalChainAdvancesAcrossGaps(t *testing.T) {
	m, store, notifier := submittedMachine(t)
	ctx := context.Background()

	assert.Equal(t, StatusPendingSign, m.Status())
	assert.Equal(t, 1, m.CurrentSignerOrder())

	require.NoError(t, m.Act(ctx, 1, DecisionApprove, ""))
	assert.Equal(t, 2, m.CurrentSignerOrder())
	assert.Equal(t, StatusInProgress, m.PresentedStatus())

	require.NoError(t, m.Act(ctx, 2, DecisionApprove, "เห็นชอบ"))
	assert.Equal(t, 4, m.CurrentSignerOrder(), "absent order 3 is skipped by omission")

	require.NoError(t, m.Act(ctx, 4, DecisionApprove, ""))
	assert.Equal(t, StatusCompleted, m.Status())
	assert.Equal(t, NoSigner, m.CurrentSignerOrder())

	update, err := store.Status("doc-1")
	require.NoError(t, err)
	assert.Equal(t, string(StatusCompleted), update.Status)

	// Submit notified u1; each mid-chain approval notified the next signer.
	sent := notifier.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "u1", sent[0].UserID)
	assert.Equal(t, "u2", sent[1].UserID)
	assert.Equal(t, "u4", sent[2].UserID)
	for _, n := range sent {
		assert.Equal(t, ports.NotifySignRequested, n.Kind)
	}
}

func TestActOutOfTurnIsRejectedWithoutMutation(t *testing.T) {
	m, _, _ := submittedMachine(t)
	ctx := context.Background()

	err := m.Act(ctx, 2, DecisionApprove, "")
	assert.True(t, faults.IsKind(err, faults.KindOutOfTurn))
	assert.Equal(t, 1, m.CurrentSignerOrder())
	assert.Equal(t, StatusPendingSign, m.Status())
	assert.Empty(t, m.Document().History)
}

func TestRejectionRoundTrip(t *testing.T) {
	m, store, _ := submittedMachine(t)
	ctx := context.Background()

	mainRef := ports.BlobRef("mem://annotated-main")
	bundle := &ports.RejectionBlobs{
		Reason:       "ข้อมูลไม่ครบ",
		MainArtifact: &mainRef,
	}
	require.NoError(t, m.Reject(ctx, 1, bundle))

	assert.Equal(t, StatusRejected, m.Status())
	assert.Equal(t, NoSigner, m.CurrentSignerOrder())

	doc := m.Document()
	require.NotNil(t, doc.Rejection)
	assert.Equal(t, "ข้อมูลไม่ครบ", doc.Rejection.Reason)
	require.NotNil(t, doc.Rejection.MainArtifact)
	assert.Equal(t, mainRef, *doc.Rejection.MainArtifact)
	assert.Empty(t, doc.Rejection.AttachmentRefs)

	update, err := store.Status("doc-1")
	require.NoError(t, err)
	require.NotNil(t, update.RejectionBundle)
	assert.Equal(t, "ข้อมูลไม่ครบ", update.RejectionBundle.Reason)

	// Resubmission clears the bundle and resets the turn to order 1.
	require.NoError(t, m.Resubmit(ctx))
	assert.Equal(t, StatusDraft, m.Status())
	assert.Equal(t, 1, m.CurrentSignerOrder())
	assert.Nil(t, m.Document().Rejection)
}

func TestRejectRequiresReason(t *testing.T) {
	m, _, _ := submittedMachine(t)

	err := m.Reject(context.Background(), 1, &ports.RejectionBlobs{})
	assert.True(t, faults.IsKind(err, faults.KindInput))
	assert.Equal(t, StatusPendingSign, m.Status())

	err = m.Act(context.Background(), 1, DecisionReject, "")
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	m, store, _ := submittedMachine(t)
	ctx := context.Background()

	store.FailNext("doc-1")
	err := m.Act(ctx, 1, DecisionApprove, "")
	assert.True(t, faults.IsKind(err, faults.KindStorage))
	assert.Equal(t, 1, m.CurrentSignerOrder(), "in-memory state mutates only after persistence succeeds")
	assert.Equal(t, StatusPendingSign, m.Status())

	// The same action succeeds on retry.
	require.NoError(t, m.Act(ctx, 1, DecisionApprove, ""))
	assert.Equal(t, 2, m.CurrentSignerOrder())
}

func TestResubmitOnlyFromRejected(t *testing.T) {
	m, _, _ := submittedMachine(t)
	err := m.Resubmit(context.Background())
	assert.True(t, faults.IsKind(err, faults.KindInput))
}

func TestOwnerNotifiedOnCompletionAndRejection(t *testing.T) {
	ctx := context.Background()

	m, _, notifier := submittedMachine(t)
	m.SetOwner("owner-1")
	require.NoError(t, m.Act(ctx, 1, DecisionApprove, ""))
	require.NoError(t, m.Act(ctx, 2, DecisionApprove, ""))
	require.NoError(t, m.Act(ctx, 4, DecisionApprove, ""))

	sent := notifier.Sent()
	last := sent[len(sent)-1]
	assert.Equal(t, "owner-1", last.UserID)
	assert.Equal(t, ports.NotifyApproved, last.Kind)

	m2, _, notifier2 := submittedMachine(t)
	m2.SetOwner("owner-2")
	require.NoError(t, m2.Act(ctx, 1, DecisionReject, "ข้อมูลไม่ครบ"))

	sent2 := notifier2.Sent()
	last2 := sent2[len(sent2)-1]
	assert.Equal(t, "owner-2", last2.UserID)
	assert.Equal(t, ports.NotifyRejected, last2.Kind)
	assert.Contains(t, last2.Message, "ข้อมูลไม่ครบ")
}

func TestPresentedStatus(t *testing.T) {
	m, _, _ := submittedMachine(t)
	assert.Equal(t, string(StatusPendingSign), m.PresentedStatus(), "no approvals yet")

	require.NoError(t, m.Act(context.Background(), 1, DecisionApprove, ""))
	assert.Equal(t, StatusInProgress, m.PresentedStatus())
}
