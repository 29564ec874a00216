package undo

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"SharedBoard/internal/state"
)

type recorder struct {
	events []state.Event
	err    error
}

func (r *recorder) Emit(ev state.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) last() state.Event {
	return r.events[len(r.events)-1]
}

func TestEmptyStacksAreNoops(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)

	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, nil, m.Redo())
	assert.Equal(t, 0, len(rec.events))
}

func TestStrokeUndoIsServerResolved(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)
	stroke := state.Stroke{ID: "tmp-a", OwnerID: "alice", Points: []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, Color: "#000", Width: 2}
	m.Record(StrokeAdded(stroke))

	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, state.EventUndoStroke, rec.last().Type)
	assert.Equal(t, "", rec.last().ID)

	assert.Equal(t, nil, m.Redo())
	redo := rec.last()
	assert.Equal(t, state.EventDrawStroke, redo.Type)
	assert.Equal(t, stroke.Points, redo.Stroke.Points)
	assert.Equal(t, "alice", redo.Stroke.OwnerID)
	assert.NotEqual(t, "tmp-a", redo.Stroke.ID)
	assert.Equal(t, true, state.IsTempID(redo.Stroke.ID))
}

func TestFillUndoRestoresPreviousColor(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)
	m.Record(FillChanged("#ffffff", "#ff0000"))

	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, state.SetBackgroundEvent("wb", "#ffffff"), rec.last())

	assert.Equal(t, nil, m.Redo())
	assert.Equal(t, state.SetBackgroundEvent("wb", "#ff0000"), rec.last())
}

func TestRedoneAddIsUndoneByItsNewID(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)
	m.Record(ImageAdded(state.ImageObject{ID: "tmp-1", Width: 4, Height: 4, Content: "blob:1"}))

	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, state.RemoveImageEvent("wb", "tmp-1"), rec.last())

	assert.Equal(t, nil, m.Redo())
	readded := rec.last()
	assert.Equal(t, state.EventAddImage, readded.Type)

	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, state.RemoveImageEvent("wb", readded.Image.ID), rec.last())
}

func TestShapeDeleteUndoReadds(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)
	shape := state.Shape{ID: "srv-1", Type: state.ShapeCircle, X: 1, Y: 1, X2: 9, Y2: 9}
	m.Record(ShapeDeleted(shape))

	assert.Equal(t, nil, m.Undo())
	readd := rec.last()
	assert.Equal(t, state.EventAddShape, readd.Type)
	assert.Equal(t, state.ShapeCircle, readd.Shape.Type)

	assert.Equal(t, nil, m.Redo())
	assert.Equal(t, state.RemoveShapeEvent("wb", readd.Shape.ID), rec.last())
}

func TestRecordClearsRedo(t *testing.T) {
	m := NewManager("wb", 0, &recorder{})
	m.Record(ShapeAdded(state.Shape{ID: "a", Type: state.ShapeLine}))
	assert.Equal(t, nil, m.Undo())
	assert.Equal(t, true, m.CanRedo())

	m.Record(ShapeAdded(state.Shape{ID: "b", Type: state.ShapeLine}))
	assert.Equal(t, false, m.CanRedo())

	m.Clear()
	u, r := m.Depth()
	assert.Equal(t, 0, u)
	assert.Equal(t, 0, r)
}

func TestStacksAreBounded(t *testing.T) {
	m := NewManager("wb", 3, &recorder{})
	for _, c := range []string{"#1", "#2", "#3", "#4", "#5"} {
		m.Record(FillChanged("#0", c))
	}
	u, _ := m.Depth()
	assert.Equal(t, 3, u)
	assert.Equal(t, "#3", m.undoStack[0].Color)
}

func TestFailedEmitLeavesStacksUntouched(t *testing.T) {
	rec := &recorder{}
	m := NewManager("wb", 0, rec)
	m.Record(FillChanged("#ffffff", "#ff0000"))

	rec.err = errors.New("offline")
	assert.NotEqual(t, nil, m.Undo())
	u, r := m.Depth()
	assert.Equal(t, 1, u)
	assert.Equal(t, 0, r)
}
