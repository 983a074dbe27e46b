package collection

// OrderedSet keeps the first value stored for each key, in insertion order.
type OrderedSet[K comparable, V any] struct {
	index  map[K]int
	values []V
}

func NewOrderedSet[K comparable, V any](capacity int) *OrderedSet[K, V] {
	return &OrderedSet[K, V]{
		index:  make(map[K]int, capacity),
		values: make([]V, 0, capacity),
	}
}

// Add stores v under k unless k is already present. It reports whether v was stored.
func (s *OrderedSet[K, V]) Add(k K, v V) bool {
	if _, ok := s.index[k]; ok {
		return false
	}

	s.index[k] = len(s.values)
	s.values = append(s.values, v)
	return true
}

func (s *OrderedSet[K, V]) Get(k K) (V, bool) {
	i, ok := s.index[k]
	if !ok {
		var zero V
		return zero, false
	}

	return s.values[i], true
}

func (s *OrderedSet[K, V]) Len() int {
	return len(s.values)
}

// Values returns the stored values in insertion order.
func (s *OrderedSet[K, V]) Values() []V {
	out := make([]V, len(s.values))
	copy(out, s.values)
	return out
}
