package scene

// store is a typed arena indexed by entity index. Each component kind gets
// its own store, so lookups never go through a type registry.
type store[T any] struct {
	data []T
	has  []bool
}

func (s *store[T]) grow(index uint32) {
	for uint32(len(s.data)) <= index {
		var zero T
		s.data = append(s.data, zero)
		s.has = append(s.has, false)
	}
}

func (s *store[T]) set(index uint32, value T) {
	s.grow(index)
	s.data[index] = value
	s.has[index] = true
}

func (s *store[T]) get(index uint32) (T, bool) {
	if index >= uint32(len(s.data)) || !s.has[index] {
		var zero T
		return zero, false
	}
	return s.data[index], true
}

func (s *store[T]) remove(index uint32) (T, bool) {
	value, ok := s.get(index)
	if ok {
		var zero T
		s.data[index] = zero
		s.has[index] = false
	}
	return value, ok
}
