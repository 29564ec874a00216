package state

import (
	"slices"
	"sync"

	"github.com/golang/glog"
)

// Snapshot is a read-only copy of a document, also used as the join replay payload.
type Snapshot struct {
	Strokes         []Stroke      `json:"strokes"`
	TextBoxes       []TextBox     `json:"textBoxes"`
	Shapes          []Shape       `json:"shapes"`
	Images          []ImageObject `json:"images"`
	BackgroundColor string        `json:"backgroundColor"`
	Size            Size          `json:"size"`
}

// Document is one client's (or the relay's) copy of a shared canvas.
// All mutation goes through ApplyEvent.
type Document struct {
	id string

	mu         sync.RWMutex
	size       Size
	background string
	strokes    collection[Stroke]
	textBoxes  collection[TextBox]
	shapes     collection[Shape]
	images     collection[ImageObject]

	// aliases maps a provisional id to the id the relay assigned to it.
	aliases map[string]string
	// removed remembers every id that was removed or cleared so that a late
	// add can not bring the entity back. Neither map is pruned: a tombstone
	// must outlive any add still in flight for its id.
	removed map[string]struct{}
}

func NewDocument(id string, initial Size) *Document {
	return &Document{
		id:         id,
		size:       initial,
		background: DefaultBackgroundColor,
		strokes:    newCollection[Stroke](),
		textBoxes:  newCollection[TextBox](),
		shapes:     newCollection[Shape](),
		images:     newCollection[ImageObject](),
		aliases:    make(map[string]string),
		removed:    make(map[string]struct{}),
	}
}

func (d *Document) ID() string {
	return d.id
}

// ApplyEvent folds one event into the document and reports whether anything
// changed. Duplicate adds, stale targets and malformed payloads are no-ops.
func (d *Document) ApplyEvent(ev Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := d.apply(ev)
	if glog.V(3) {
		glog.Infof("[DOC] %s %s id=%s changed=%v", d.id, ev.Type, ev.EntityID(), changed)
	}
	return changed
}

func (d *Document) apply(ev Event) bool {
	switch ev.Type {
	case EventDrawStroke:
		if ev.Stroke == nil || len(ev.Stroke.Points) == 0 {
			return false
		}
		s := *ev.Stroke
		s.Points = slices.Clone(s.Points)
		return addEntity(d, &d.strokes, ev, s, func(v *Stroke, id string) { v.ID = id })
	case EventAddTextBox:
		if ev.TextBox == nil {
			return false
		}
		return addEntity(d, &d.textBoxes, ev, *ev.TextBox, func(v *TextBox, id string) { v.ID = id })
	case EventAddImage:
		if ev.Image == nil {
			return false
		}
		return addEntity(d, &d.images, ev, *ev.Image, func(v *ImageObject, id string) { v.ID = id })
	case EventAddShape:
		if ev.Shape == nil || !ev.Shape.Type.Valid() {
			return false
		}
		return addEntity(d, &d.shapes, ev, *ev.Shape, func(v *Shape, id string) { v.ID = id })

	case EventUpdateTextBox:
		if ev.TextBox == nil {
			return false
		}
		return updateEntity(d, &d.textBoxes, ev, *ev.TextBox, func(v *TextBox, old TextBox) {
			v.ID, v.OwnerID = old.ID, old.OwnerID
		})
	case EventUpdateImage:
		if ev.Image == nil {
			return false
		}
		return updateEntity(d, &d.images, ev, *ev.Image, func(v *ImageObject, old ImageObject) {
			v.ID, v.OwnerID = old.ID, old.OwnerID
		})
	case EventUpdateShape:
		if ev.Shape == nil || !ev.Shape.Type.Valid() {
			return false
		}
		return updateEntity(d, &d.shapes, ev, *ev.Shape, func(v *Shape, old Shape) {
			v.ID, v.OwnerID = old.ID, old.OwnerID
		})

	case EventRemoveStroke:
		return removeEntity(d, &d.strokes, ev.EntityID())
	case EventRemoveTextBox:
		return removeEntity(d, &d.textBoxes, ev.EntityID())
	case EventRemoveImage:
		return removeEntity(d, &d.images, ev.EntityID())
	case EventRemoveShape:
		return removeEntity(d, &d.shapes, ev.EntityID())

	case EventSetBackground:
		if ev.Color == "" || ev.Color == d.background {
			return false
		}
		d.background = ev.Color
		return true
	case EventResizeCanvas:
		if ev.Size == nil {
			return false
		}
		next := d.size.Max(*ev.Size)
		if next == d.size {
			return false
		}
		d.size = next
		return true
	case EventClearBoard:
		d.clear()
		return true
	case EventReplay:
		if ev.Replay == nil {
			return false
		}
		d.load(*ev.Replay)
		return true
	}
	return false
}

// resolve follows the alias table from a provisional id to the relay id.
func (d *Document) resolve(id string) string {
	if to, ok := d.aliases[id]; ok {
		return to
	}
	return id
}

func (d *Document) isRemoved(id string) bool {
	_, ok := d.removed[id]
	return id != "" && ok
}

func (d *Document) markRemoved(ids ...string) {
	for _, id := range ids {
		if id != "" {
			d.removed[id] = struct{}{}
		}
	}
}

func (d *Document) markCleared(ids []string) {
	for _, id := range ids {
		if !IsTempID(id) {
			d.markRemoved(id)
		}
	}
}

func addEntity[T any](d *Document, c *collection[T], ev Event, v T, setID func(*T, string)) bool {
	id := ev.EntityID()
	if id == "" {
		return false
	}
	setID(&v, id)
	temp := ev.TempID
	if temp == id {
		temp = ""
	}

	if d.isRemoved(id) || d.isRemoved(temp) {
		// The add lost a race with a remove. Drop any optimistic copy as well.
		if temp != "" && c.remove(temp) {
			d.markRemoved(temp)
			return true
		}
		return false
	}
	if c.has(id) {
		return false
	}
	if temp != "" {
		d.aliases[temp] = id
		if c.has(temp) {
			return c.rekey(temp, id, v)
		}
	}
	return c.add(id, v)
}

func updateEntity[T any](d *Document, c *collection[T], ev Event, v T, keep func(*T, T)) bool {
	id := d.resolve(ev.EntityID())
	old, ok := c.get(id)
	if !ok {
		return false
	}
	keep(&v, old)
	return c.replace(id, v)
}

func removeEntity[T any](d *Document, c *collection[T], raw string) bool {
	if raw == "" {
		return false
	}
	id := d.resolve(raw)
	d.markRemoved(raw, id)
	return c.remove(id)
}

// clear tombstones relay ids only. An entity that is still provisional has
// not been ordered by the relay yet, so its echo comes after this clear and
// must land.
func (d *Document) clear() {
	d.markCleared(d.strokes.ids())
	d.markCleared(d.textBoxes.ids())
	d.markCleared(d.shapes.ids())
	d.markCleared(d.images.ids())
	d.strokes = newCollection[Stroke]()
	d.textBoxes = newCollection[TextBox]()
	d.shapes = newCollection[Shape]()
	d.images = newCollection[ImageObject]()
	d.background = DefaultBackgroundColor
}

// load replaces the contents wholesale with a replay. The size still only grows.
func (d *Document) load(s Snapshot) {
	d.strokes = newCollection[Stroke]()
	d.textBoxes = newCollection[TextBox]()
	d.shapes = newCollection[Shape]()
	d.images = newCollection[ImageObject]()
	for _, v := range s.Strokes {
		v.Points = slices.Clone(v.Points)
		d.strokes.add(v.ID, v)
	}
	for _, v := range s.TextBoxes {
		d.textBoxes.add(v.ID, v)
	}
	for _, v := range s.Shapes {
		d.shapes.add(v.ID, v)
	}
	for _, v := range s.Images {
		d.images.add(v.ID, v)
	}
	d.background = s.BackgroundColor
	if d.background == "" {
		d.background = DefaultBackgroundColor
	}
	d.size = d.size.Max(s.Size)
}

// Snapshot returns a copy of the whole document.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	strokes := d.strokes.values()
	for i := range strokes {
		strokes[i].Points = slices.Clone(strokes[i].Points)
	}
	return Snapshot{
		Strokes:         strokes,
		TextBoxes:       d.textBoxes.values(),
		Shapes:          d.shapes.values(),
		Images:          d.images.values(),
		BackgroundColor: d.background,
		Size:            d.size,
	}
}

func (d *Document) Size() Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

func (d *Document) BackgroundColor() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.background
}

// Known reports whether an add carrying this provisional id was already
// applied, even if the entity has since been removed.
func (d *Document) Known(tempID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.aliases[tempID]
	return ok
}

// Resolve returns the current id for a possibly provisional one.
func (d *Document) Resolve(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolve(id)
}

func (d *Document) Stroke(id string) (Stroke, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.strokes.get(d.resolve(id))
}

func (d *Document) TextBox(id string) (TextBox, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.textBoxes.get(d.resolve(id))
}

func (d *Document) Shape(id string) (Shape, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.shapes.get(d.resolve(id))
}

func (d *Document) Image(id string) (ImageObject, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.images.get(d.resolve(id))
}

// Counts returns the number of strokes, text boxes, shapes and images.
func (d *Document) Counts() (strokes, textBoxes, shapes, images int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.strokes.len(), d.textBoxes.len(), d.shapes.len(), d.images.len()
}
