package util

// Stack is the view navigation history. Pushing the state already on top is a no-op,
// so returning to a view never needs more than one step back.
type Stack[T comparable] struct {
	items []T
}

func (s *Stack[T]) Push(item T) {
	if n := len(s.items); n > 0 && s.items[n-1] == item {
		return
	}
	s.items = append(s.items, item)
}

// Pop removes the top item. ok is false when the stack is empty.
func (s *Stack[T]) Pop() (item T, ok bool) {
	n := len(s.items)
	if n == 0 {
		return item, false
	}
	item = s.items[n-1]
	s.items = s.items[:n-1]
	return item, true
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) Clear() {
	s.items = s.items[:0]
}
