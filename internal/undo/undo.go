// Package undo keeps one session's undo and redo history. It only ever sees
// actions the local user committed; remote edits never reach it.
package undo

import (
	"SharedBoard/internal/state"
)

type Kind int

const (
	StrokeAdd Kind = iota
	FillChange
	ImageAdd
	ShapeAdd
	ShapeDelete
)

func (k Kind) String() string {
	switch k {
	case StrokeAdd:
		return "StrokeAdd"
	case FillChange:
		return "FillChange"
	case ImageAdd:
		return "ImageAdd"
	case ShapeAdd:
		return "ShapeAdd"
	case ShapeDelete:
		return "ShapeDelete"
	}
	return "Unknown"
}

// Entry holds exactly what is needed to invert or replay one action.
// Only the field matching Kind is set.
type Entry struct {
	Kind Kind

	Stroke state.Stroke

	// FillChange
	PrevColor string
	Color     string

	Image state.ImageObject
	Shape state.Shape
}

func StrokeAdded(s state.Stroke) Entry {
	return Entry{Kind: StrokeAdd, Stroke: s}
}

func FillChanged(prev, next string) Entry {
	return Entry{Kind: FillChange, PrevColor: prev, Color: next}
}

func ImageAdded(img state.ImageObject) Entry {
	return Entry{Kind: ImageAdd, Image: img}
}

func ShapeAdded(s state.Shape) Entry {
	return Entry{Kind: ShapeAdd, Shape: s}
}

func ShapeDeleted(s state.Shape) Entry {
	return Entry{Kind: ShapeDelete, Shape: s}
}

// Emitter sends an event through the local commit path.
type Emitter interface {
	Emit(ev state.Event) error
}

const DefaultLimit = 100

type Manager struct {
	documentID string
	limit      int
	emit       Emitter
	undoStack  []Entry
	redoStack  []Entry
}

func NewManager(documentID string, limit int, emit Emitter) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{documentID: documentID, limit: limit, emit: emit}
}

// Record pushes a freshly committed action. Any redo history is discarded.
func (m *Manager) Record(e Entry) {
	m.undoStack = m.push(m.undoStack, e)
	m.redoStack = nil
}

// Clear drops both stacks, as after a clearBoard.
func (m *Manager) Clear() {
	m.undoStack = nil
	m.redoStack = nil
}

func (m *Manager) CanUndo() bool { return len(m.undoStack) > 0 }
func (m *Manager) CanRedo() bool { return len(m.redoStack) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) {
	return len(m.undoStack), len(m.redoStack)
}

// Undo reverts the most recent local action. An empty stack is a no-op.
func (m *Manager) Undo() error {
	if len(m.undoStack) == 0 {
		return nil
	}
	last := len(m.undoStack) - 1
	entry := m.undoStack[last]

	var ev state.Event
	switch entry.Kind {
	case StrokeAdd:
		ev = state.UndoStrokeEvent(m.documentID)
	case FillChange:
		ev = state.SetBackgroundEvent(m.documentID, entry.PrevColor)
	case ImageAdd:
		ev = state.RemoveImageEvent(m.documentID, entry.Image.ID)
	case ShapeAdd:
		ev = state.RemoveShapeEvent(m.documentID, entry.Shape.ID)
	case ShapeDelete:
		entry.Shape.ID = state.NewTempID()
		ev = state.AddShapeEvent(m.documentID, entry.Shape)
	}
	if err := m.emit.Emit(ev); err != nil {
		return err
	}

	m.undoStack = m.undoStack[:last]
	m.redoStack = m.push(m.redoStack, entry)
	return nil
}

// Redo replays the most recently undone action. An empty stack is a no-op.
func (m *Manager) Redo() error {
	if len(m.redoStack) == 0 {
		return nil
	}
	last := len(m.redoStack) - 1
	entry := m.redoStack[last]

	var ev state.Event
	switch entry.Kind {
	case StrokeAdd:
		entry.Stroke.ID = state.NewTempID()
		ev = state.DrawStrokeEvent(m.documentID, entry.Stroke)
	case FillChange:
		ev = state.SetBackgroundEvent(m.documentID, entry.Color)
	case ImageAdd:
		entry.Image.ID = state.NewTempID()
		ev = state.AddImageEvent(m.documentID, entry.Image)
	case ShapeAdd:
		entry.Shape.ID = state.NewTempID()
		ev = state.AddShapeEvent(m.documentID, entry.Shape)
	case ShapeDelete:
		ev = state.RemoveShapeEvent(m.documentID, entry.Shape.ID)
	}
	if err := m.emit.Emit(ev); err != nil {
		return err
	}

	m.redoStack = m.redoStack[:last]
	m.undoStack = m.push(m.undoStack, entry)
	return nil
}

func (m *Manager) push(stack []Entry, e Entry) []Entry {
	stack = append(stack, e)
	if over := len(stack) - m.limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
