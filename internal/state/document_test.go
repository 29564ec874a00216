package state

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

const docID = "wb-1"

func newTestDocument() *Document {
	return NewDocument(docID, Size{Width: 800, Height: 600})
}

func testShape(id string) Shape {
	return Shape{ID: id, OwnerID: "alice", Type: ShapeRectangle, X: 10, Y: 10, X2: 50, Y2: 40, Color: "#000", Width: 2}
}

func TestDrawStrokeKeepsExactPoints(t *testing.T) {
	d := newTestDocument()
	points := []Point{{10, 10}, {20, 20}, {30, 10}}
	ev := DrawStrokeEvent(docID, Stroke{ID: "s1", OwnerID: "alice", Points: points, Color: "#000", Width: 2})

	assert.Equal(t, true, d.ApplyEvent(ev))

	snap := d.Snapshot()
	assert.Equal(t, 1, len(snap.Strokes))
	assert.Equal(t, points, snap.Strokes[0].Points)
	assert.Equal(t, "#000", snap.Strokes[0].Color)
	assert.Equal(t, float64(2), snap.Strokes[0].Width)
}

func TestDuplicateAddIsIdempotent(t *testing.T) {
	d := newTestDocument()
	ev := AddShapeEvent(docID, testShape("sh1")).WithID("sh1")

	assert.Equal(t, true, d.ApplyEvent(ev))
	once := d.Snapshot()
	assert.Equal(t, false, d.ApplyEvent(ev))
	assert.Equal(t, once, d.Snapshot())
}

func TestStaleTargetIsNoop(t *testing.T) {
	d := newTestDocument()
	d.ApplyEvent(AddTextBoxEvent(docID, TextBox{ID: "t1", Text: "hi", X: 1, Y: 1, Width: 10, Height: 10}))
	before := d.Snapshot()

	stale := []Event{
		UpdateTextBoxEvent(docID, TextBox{ID: "missing", Text: "x"}),
		RemoveTextBoxEvent(docID, "missing"),
		UpdateShapeEvent(docID, testShape("missing")),
		RemoveShapeEvent(docID, "missing"),
		UpdateImageEvent(docID, ImageObject{ID: "missing"}),
		RemoveImageEvent(docID, "missing"),
		RemoveStrokeEvent(docID, "missing"),
	}
	for _, ev := range stale {
		assert.Equal(t, false, d.ApplyEvent(ev))
	}
	assert.Equal(t, before, d.Snapshot())
}

func TestMalformedEventsAreDropped(t *testing.T) {
	d := newTestDocument()
	before := d.Snapshot()

	malformed := []Event{
		{Type: EventDrawStroke},
		{Type: EventDrawStroke, Stroke: &Stroke{ID: "s1"}},
		{Type: EventAddShape, Shape: &Shape{ID: "sh1", Type: "hexagon"}},
		{Type: EventAddTextBox, TextBox: &TextBox{}},
		{Type: EventUpdateTextBox},
		{Type: EventResizeCanvas},
		{Type: EventSetBackground},
		{Type: EventReplay},
		{Type: "bogus"},
		{},
	}
	for _, ev := range malformed {
		assert.Equal(t, false, d.ApplyEvent(ev))
	}
	assert.Equal(t, before, d.Snapshot())
}

func TestUpdateIsFullReplaceKeepingIdentity(t *testing.T) {
	d := newTestDocument()
	d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")))

	moved := testShape("sh1")
	moved.OwnerID = "mallory"
	moved.X, moved.Y, moved.X2, moved.Y2 = 100, 100, 140, 130
	moved.Type = ShapeDiamond
	assert.Equal(t, true, d.ApplyEvent(UpdateShapeEvent(docID, moved)))

	got, ok := d.Shape("sh1")
	assert.Equal(t, true, ok)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, ShapeDiamond, got.Type)
	assert.Equal(t, float64(140), got.X2)
}

func TestRemoveBeforeAddDoesNotResurrect(t *testing.T) {
	d := newTestDocument()

	// remove overtakes the add at this peer
	assert.Equal(t, false, d.ApplyEvent(RemoveShapeEvent(docID, "sh1")))
	assert.Equal(t, false, d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")).WithID("sh1")))
	// a stray duplicate of the add arrives even later
	assert.Equal(t, false, d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")).WithID("sh1")))

	_, _, shapes, _ := d.Counts()
	assert.Equal(t, 0, shapes)
}

func TestEchoRekeysProvisionalEntity(t *testing.T) {
	d := newTestDocument()
	temp := NewTempID()
	d.ApplyEvent(AddShapeEvent(docID, testShape("first")))
	local := AddShapeEvent(docID, testShape(temp))
	d.ApplyEvent(local)
	d.ApplyEvent(AddShapeEvent(docID, testShape("last")))

	assert.Equal(t, true, d.ApplyEvent(local.WithID("srv-1")))

	snap := d.Snapshot()
	assert.Equal(t, 3, len(snap.Shapes))
	assert.Equal(t, "srv-1", snap.Shapes[1].ID)
	assert.Equal(t, "srv-1", d.Resolve(temp))

	// the echo is idempotent once applied
	assert.Equal(t, false, d.ApplyEvent(local.WithID("srv-1")))

	// the provisional id still targets the entity
	assert.Equal(t, true, d.ApplyEvent(RemoveShapeEvent(docID, temp)))
	_, ok := d.Shape("srv-1")
	assert.Equal(t, false, ok)
}

func TestEchoAfterRemoveByServerIDDropsOptimisticCopy(t *testing.T) {
	d := newTestDocument()
	temp := NewTempID()
	local := AddImageEvent(docID, ImageObject{ID: temp, X: 1, Y: 1, Width: 5, Height: 5, Content: "blob:1"})
	d.ApplyEvent(local)

	d.ApplyEvent(RemoveImageEvent(docID, "srv-9"))
	assert.Equal(t, true, d.ApplyEvent(local.WithID("srv-9")))

	_, _, _, images := d.Counts()
	assert.Equal(t, 0, images)
}

func TestClearBoardEmptiesEverything(t *testing.T) {
	d := newTestDocument()
	d.ApplyEvent(DrawStrokeEvent(docID, Stroke{ID: "s1", Points: []Point{{1, 1}, {2, 2}}}))
	d.ApplyEvent(AddTextBoxEvent(docID, TextBox{ID: "t1"}))
	d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")))
	d.ApplyEvent(AddImageEvent(docID, ImageObject{ID: "i1"}))
	d.ApplyEvent(SetBackgroundEvent(docID, "#ff0000"))
	d.ApplyEvent(ResizeCanvasEvent(docID, Size{Width: 1300, Height: 600}))

	assert.Equal(t, true, d.ApplyEvent(ClearBoardEvent(docID)))

	snap := d.Snapshot()
	assert.Equal(t, 0, len(snap.Strokes))
	assert.Equal(t, 0, len(snap.TextBoxes))
	assert.Equal(t, 0, len(snap.Shapes))
	assert.Equal(t, 0, len(snap.Images))
	assert.Equal(t, DefaultBackgroundColor, snap.BackgroundColor)
	assert.Equal(t, Size{Width: 1300, Height: 600}, snap.Size)

	// cleared entities stay gone
	assert.Equal(t, false, d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")).WithID("sh1")))
}

func TestEchoAfterPeerClearIsKept(t *testing.T) {
	relay := newTestDocument()
	client := newTestDocument()
	temp := NewTempID()
	local := DrawStrokeEvent(docID, Stroke{ID: temp, Points: []Point{{1, 1}, {2, 2}}})
	echo := local.WithID("srv-7")

	// the relay ordered a peer's clear before this stroke
	client.ApplyEvent(local)
	relay.ApplyEvent(ClearBoardEvent(docID))
	client.ApplyEvent(ClearBoardEvent(docID))
	relay.ApplyEvent(echo)
	assert.Equal(t, true, client.ApplyEvent(echo))

	assert.Equal(t, relay.Snapshot(), client.Snapshot())
	strokes, _, _, _ := client.Counts()
	assert.Equal(t, 1, strokes)
	assert.Equal(t, "srv-7", client.Resolve(temp))
}

func TestKnownTracksProvisionalIDs(t *testing.T) {
	d := newTestDocument()
	temp := NewTempID()
	local := AddShapeEvent(docID, testShape(temp))
	assert.Equal(t, false, d.Known(temp))

	d.ApplyEvent(local.WithID("srv-1"))
	assert.Equal(t, true, d.Known(temp))
	d.ApplyEvent(RemoveShapeEvent(docID, "srv-1"))
	assert.Equal(t, true, d.Known(temp))
}

func TestResizeNeverShrinks(t *testing.T) {
	d := newTestDocument()

	assert.Equal(t, true, d.ApplyEvent(ResizeCanvasEvent(docID, Size{Width: 1300, Height: 100})))
	assert.Equal(t, Size{Width: 1300, Height: 600}, d.Size())

	assert.Equal(t, false, d.ApplyEvent(ResizeCanvasEvent(docID, Size{Width: 900, Height: 600})))
	assert.Equal(t, Size{Width: 1300, Height: 600}, d.Size())
}

func TestReplayReplacesContents(t *testing.T) {
	d := newTestDocument()
	d.ApplyEvent(AddShapeEvent(docID, testShape("local")))

	replay := Snapshot{
		Strokes:         []Stroke{{ID: "s1", Points: []Point{{10, 10}, {20, 20}, {30, 10}}, Color: "#000", Width: 2}},
		TextBoxes:       []TextBox{{ID: "t1", Text: "hello"}},
		Shapes:          []Shape{},
		Images:          []ImageObject{},
		BackgroundColor: "#00ff00",
		Size:            Size{Width: 1300, Height: 1100},
	}
	assert.Equal(t, true, d.ApplyEvent(ReplayEvent(docID, replay)))
	assert.Equal(t, replay, d.Snapshot())
}

func TestLayersStackByType(t *testing.T) {
	d := newTestDocument()
	d.ApplyEvent(AddTextBoxEvent(docID, TextBox{ID: "t1", X: 0, Y: 0, Width: 100, Height: 100}))
	d.ApplyEvent(DrawStrokeEvent(docID, Stroke{ID: "s1", Points: []Point{{1, 1}, {2, 2}}}))
	d.ApplyEvent(AddShapeEvent(docID, testShape("sh1")))
	d.ApplyEvent(AddImageEvent(docID, ImageObject{ID: "i1", Width: 10, Height: 10}))

	snap := d.Snapshot()
	assert.Equal(t, []Layer{
		{Kind: KindImage, ID: "i1"},
		{Kind: KindShape, ID: "sh1"},
		{Kind: KindStroke, ID: "s1"},
		{Kind: KindTextBox, ID: "t1"},
	}, snap.Layers())

	hit, ok := snap.HitTest(Point{X: 20, Y: 20})
	assert.Equal(t, true, ok)
	assert.Equal(t, Layer{Kind: KindTextBox, ID: "t1"}, hit)

	_, ok = snap.HitTest(Point{X: 500, Y: 500})
	assert.Equal(t, false, ok)
}
