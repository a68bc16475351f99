// Package mirror holds the request-scoped copy of a backend list.
//
// A page (posts, hirings, applicants) loads a list from the backend, runs one
// staff action against it and returns the resulting list. The List type is that
// transient copy. Mutating methods are meant to be called only after the backend
// confirmed the change, and each confirmed change is applied exactly once:
// Remove and Patch report whether they touched an item, Replace swaps the whole
// content after a refetch.
//
// A List is discarded at the end of the request; it is never shared between
// requests and is not safe for concurrent use.
package mirror

// List is an ordered copy of backend items keyed by id.
type List[T any] struct {
	items []T
	key   func(T) string
	// version counts applied mutations; tests use it to prove exactly-once.
	version int
}

// New creates an empty list. key returns the identity of an item.
func New[T any](key func(T) string) *List[T] {
	return &List[T]{key: key}
}

// Replace swaps the content with items (a fresh fetch).
func (l *List[T]) Replace(items []T) {
	l.items = append(l.items[:0:0], items...)
	l.version++
}

// Remove deletes the item with id. It returns false when no item matched.
func (l *List[T]) Remove(id string) bool {
	for i, it := range l.items {
		if l.key(it) == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			l.version++
			return true
		}
	}
	return false
}

// Patch applies fn to the item with id. It returns false when no item matched.
func (l *List[T]) Patch(id string, fn func(*T)) bool {
	for i := range l.items {
		if l.key(l.items[i]) == id {
			fn(&l.items[i])
			l.version++
			return true
		}
	}
	return false
}

// Find returns the item with id.
func (l *List[T]) Find(id string) (T, bool) {
	for _, it := range l.items {
		if l.key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of the current content. Never nil, so it encodes as [].
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Version returns how many mutations have been applied.
func (l *List[T]) Version() int {
	return l.version
}
