package state

// EventType names every message exchanged with the relay.
type EventType string

const (
	EventJoin          EventType = "join"
	EventPresence      EventType = "presence"
	EventDrawStroke    EventType = "drawStroke"
	EventRemoveStroke  EventType = "removeStroke"
	EventUndoStroke    EventType = "undoStroke"
	EventAddTextBox    EventType = "addTextBox"
	EventUpdateTextBox EventType = "updateTextBox"
	EventRemoveTextBox EventType = "removeTextBox"
	EventAddImage      EventType = "addImage"
	EventUpdateImage   EventType = "updateImage"
	EventRemoveImage   EventType = "removeImage"
	EventAddShape      EventType = "addShape"
	EventUpdateShape   EventType = "updateShape"
	EventRemoveShape   EventType = "removeShape"
	EventSetBackground EventType = "setBackgroundColor"
	EventResizeCanvas  EventType = "resizeCanvas"
	EventClearBoard    EventType = "clearBoard"
	EventReplay        EventType = "replay"
)

// Event is the single envelope for the relay vocabulary. Only the payload
// field matching Type is meaningful; anything else is ignored.
type Event struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"documentId,omitempty"`

	// ID targets an entity for update/remove; TempID carries the committing
	// client's provisional id on adds so the creator can reconcile the echo.
	ID      string `json:"id,omitempty"`
	TempID  string `json:"tempId,omitempty"`
	OwnerID string `json:"ownerId,omitempty"`

	Stroke  *Stroke      `json:"stroke,omitempty"`
	TextBox *TextBox     `json:"textBox,omitempty"`
	Shape   *Shape       `json:"shape,omitempty"`
	Image   *ImageObject `json:"image,omitempty"`
	Color   string       `json:"color,omitempty"`
	Size    *Size        `json:"size,omitempty"`

	UserID   string     `json:"userId,omitempty"`
	Username string     `json:"username,omitempty"`
	Users    []Presence `json:"users,omitempty"`

	Replay *Snapshot `json:"replay,omitempty"`
}

// IsAdd reports whether the event creates an entity.
func (e Event) IsAdd() bool {
	switch e.Type {
	case EventDrawStroke, EventAddTextBox, EventAddImage, EventAddShape:
		return true
	}
	return false
}

// Mutates reports whether the event carries document data, as opposed to
// membership traffic or relay-resolved requests.
func (e Event) Mutates() bool {
	switch e.Type {
	case EventJoin, EventPresence, EventUndoStroke:
		return false
	}
	return e.Type != ""
}

// EntityID returns the id the event carries for its entity, looking in the
// payload when the envelope id is empty.
func (e Event) EntityID() string {
	if e.ID != "" {
		return e.ID
	}
	switch {
	case e.Stroke != nil:
		return e.Stroke.ID
	case e.TextBox != nil:
		return e.TextBox.ID
	case e.Shape != nil:
		return e.Shape.ID
	case e.Image != nil:
		return e.Image.ID
	}
	return ""
}

// WithID returns a copy of an add event whose payload carries id. Payloads are
// copied so the caller's originals stay untouched.
func (e Event) WithID(id string) Event {
	e.ID = id
	switch {
	case e.Stroke != nil:
		s := *e.Stroke
		s.ID = id
		e.Stroke = &s
	case e.TextBox != nil:
		t := *e.TextBox
		t.ID = id
		e.TextBox = &t
	case e.Shape != nil:
		s := *e.Shape
		s.ID = id
		e.Shape = &s
	case e.Image != nil:
		i := *e.Image
		i.ID = id
		e.Image = &i
	}
	return e
}

func JoinEvent(documentID string) Event {
	return Event{Type: EventJoin, DocumentID: documentID}
}

func PresenceEvent(documentID, userID, username string) Event {
	return Event{Type: EventPresence, DocumentID: documentID, UserID: userID, Username: username}
}

func DrawStrokeEvent(documentID string, s Stroke) Event {
	return Event{Type: EventDrawStroke, DocumentID: documentID, TempID: s.ID, OwnerID: s.OwnerID, Stroke: &s}
}

func UndoStrokeEvent(documentID string) Event {
	return Event{Type: EventUndoStroke, DocumentID: documentID}
}

func RemoveStrokeEvent(documentID, id string) Event {
	return Event{Type: EventRemoveStroke, DocumentID: documentID, ID: id}
}

func AddTextBoxEvent(documentID string, t TextBox) Event {
	return Event{Type: EventAddTextBox, DocumentID: documentID, TempID: t.ID, OwnerID: t.OwnerID, TextBox: &t}
}

func UpdateTextBoxEvent(documentID string, t TextBox) Event {
	return Event{Type: EventUpdateTextBox, DocumentID: documentID, ID: t.ID, TextBox: &t}
}

func RemoveTextBoxEvent(documentID, id string) Event {
	return Event{Type: EventRemoveTextBox, DocumentID: documentID, ID: id}
}

func AddImageEvent(documentID string, i ImageObject) Event {
	return Event{Type: EventAddImage, DocumentID: documentID, TempID: i.ID, OwnerID: i.OwnerID, Image: &i}
}

func UpdateImageEvent(documentID string, i ImageObject) Event {
	return Event{Type: EventUpdateImage, DocumentID: documentID, ID: i.ID, Image: &i}
}

func RemoveImageEvent(documentID, id string) Event {
	return Event{Type: EventRemoveImage, DocumentID: documentID, ID: id}
}

func AddShapeEvent(documentID string, s Shape) Event {
	return Event{Type: EventAddShape, DocumentID: documentID, TempID: s.ID, OwnerID: s.OwnerID, Shape: &s}
}

func UpdateShapeEvent(documentID string, s Shape) Event {
	return Event{Type: EventUpdateShape, DocumentID: documentID, ID: s.ID, Shape: &s}
}

func RemoveShapeEvent(documentID, id string) Event {
	return Event{Type: EventRemoveShape, DocumentID: documentID, ID: id}
}

func SetBackgroundEvent(documentID, color string) Event {
	return Event{Type: EventSetBackground, DocumentID: documentID, Color: color}
}

func ResizeCanvasEvent(documentID string, size Size) Event {
	return Event{Type: EventResizeCanvas, DocumentID: documentID, Size: &size}
}

func ClearBoardEvent(documentID string) Event {
	return Event{Type: EventClearBoard, DocumentID: documentID}
}

func ReplayEvent(documentID string, snap Snapshot) Event {
	return Event{Type: EventReplay, DocumentID: documentID, Replay: &snap}
}
