package state

import "slices"

// collection keeps entities keyed by id in insertion order.
type collection[T any] struct {
	order []string
	items map[string]T
}

func newCollection[T any]() collection[T] {
	return collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) has(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) add(id string, v T) bool {
	if c.has(id) {
		return false
	}
	c.order = append(c.order, id)
	c.items[id] = v
	return true
}

func (c *collection[T]) replace(id string, v T) bool {
	if !c.has(id) {
		return false
	}
	c.items[id] = v
	return true
}

// rekey renames an entry in place so its position in the order is kept.
func (c *collection[T]) rekey(from, to string, v T) bool {
	if !c.has(from) || c.has(to) {
		return false
	}
	delete(c.items, from)
	c.items[to] = v
	c.order[slices.Index(c.order, from)] = to
	return true
}

func (c *collection[T]) remove(id string) bool {
	if !c.has(id) {
		return false
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(o string) bool { return o == id })
	return true
}

func (c *collection[T]) ids() []string {
	return slices.Clone(c.order)
}

func (c *collection[T]) values() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *collection[T]) len() int {
	return len(c.order)
}
