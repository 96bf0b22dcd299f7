// Package signature maintains the ordered signer marks placed on a
// document before the approval phase. Positions live in the same page pixel
// space as annotations so a single coordinate transform serves both at
// flatten time.
package signature

import (
	"github.com/google/uuid"

	"github.com/sarabun/docflow/internal/faults"
)

// Position is one signer mark. Positions are never deleted individually;
// they are replaced wholesale by Reset or removed when their signer leaves
// the document.
type Position struct {
	ID         string  `json:"id"`
	SignerID   string  `json:"signer_id"`
	SignerName string  `json:"signer_name"`
	SignerRole string  `json:"signer_role"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Page       int     `json:"page"`
}

// Slot identifies the signer a pending placement is for.
type Slot struct {
	SignerID   string
	SignerName string
	SignerRole string
}

// Layout describes the evenly spaced default arrangement Reset applies:
// x = BaseX + index*StepX at a fixed Y on a fixed page.
type Layout struct {
	BaseX float64
	StepX float64
	Y     float64
	Page  int
}

// DefaultLayout is the stock arrangement for reset positions.
var DefaultLayout = Layout{BaseX: 80, StepX: 150, Y: 120, Page: 1}

// RenderMode selects between the editable surface and the read-only
// preview. Both read the same position list; only interactivity differs.
type RenderMode int

const (
	RenderStatic RenderMode = iota
	RenderEditable
)

// Mark is a position prepared for rendering.
type Mark struct {
	Position
	Draggable bool `json:"draggable"`
}

// Engine holds the ordered signer marks plus the edit-mode flag.
type Engine struct {
	positions []Position
	pending   *Slot
	editMode  bool
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Restore seeds the engine with previously persisted positions.
func (e *Engine) Restore(positions []Position) {
	e.positions = make([]Position, len(positions))
	copy(e.positions, positions)
}

// Positions returns the ordered position list.
func (e *Engine) Positions() []Position {
	out := make([]Position, len(e.positions))
	copy(out, e.positions)
	return out
}

// SelectSlot arms the next click-to-place for the given signer.
func (e *Engine) SelectSlot(slot Slot) {
	e.pending = &slot
}

// PendingSlot returns the armed slot, if any.
func (e *Engine) PendingSlot() *Slot {
	return e.pending
}

// SetEditMode toggles drag editing of existing positions.
func (e *Engine) SetEditMode(enabled bool) {
	e.editMode = enabled
}

// EditMode reports whether drag editing is active.
func (e *Engine) EditMode() bool { return e.editMode }

// PlaceAt appends a position for the pending signer slot at the clicked
// point and clears the slot. It fails when no slot is armed.
func (e *Engine) PlaceAt(x, y float64, page int) (Position, error) {
	if e.pending == nil {
		return Position{}, faults.Input("signature.place", "no pending signer slot selected")
	}
	if page < 1 {
		return Position{}, faults.Input("signature.place", "invalid page %d", page)
	}
	pos := Position{
		ID:         uuid.New().String(),
		SignerID:   e.pending.SignerID,
		SignerName: e.pending.SignerName,
		SignerRole: e.pending.SignerRole,
		X:          x,
		Y:          y,
		Page:       page,
	}
	e.positions = append(e.positions, pos)
	e.pending = nil
	return pos, nil
}

// Move replaces the coordinates of the matching position. Valid only in
// edit mode; ordering and identity fields are untouched.
func (e *Engine) Move(id string, x, y float64) ([]Position, error) {
	if !e.editMode {
		return nil, faults.Input("signature.move", "edit mode is not active")
	}
	for i := range e.positions {
		if e.positions[i].ID == id {
			e.positions[i].X = x
			e.positions[i].Y = y
			return e.Positions(), nil
		}
	}
	return nil, faults.Input("signature.move", "no position with id %s", id)
}

// Reset recomputes default coordinates for every existing position using
// the evenly spaced layout, preserving signer identity and order.
func (e *Engine) Reset(layout Layout) []Position {
	for i := range e.positions {
		e.positions[i].X = layout.BaseX + float64(i)*layout.StepX
		e.positions[i].Y = layout.Y
		e.positions[i].Page = layout.Page
	}
	return e.Positions()
}

// RemoveForSigner drops every position belonging to the signer. Called when
// a signer is removed from the document so positions are never orphaned.
func (e *Engine) RemoveForSigner(signerID string) {
	kept := e.positions[:0]
	for _, pos := range e.positions {
		if pos.SignerID != signerID {
			kept = append(kept, pos)
		}
	}
	e.positions = kept
}

// Render prepares the position list for display. Editable mode exposes
// drag handles; static mode is the read-only preview of the same data.
func (e *Engine) Render(mode RenderMode) []Mark {
	marks := make([]Mark, 0, len(e.positions))
	for _, pos := range e.positions {
		marks = append(marks, Mark{Position: pos, Draggable: mode == RenderEditable})
	}
	return marks
}
