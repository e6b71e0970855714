// Package list implements an intrusive doubly-linked list.
//
// The list itself only stores head, tail and count. Node linkage lives in
// the nodes, reached through a Links accessor, so the same list type works
// for linkage stored in a Go struct or inside a byte arena addressed by
// offset. Nodes are identified by a comparable key; a distinguished none key
// marks the absence of a neighbour.
//
// Lists are not safe for concurrent use.
package list

// Links reads and writes the prev/next fields of a node.
type Links[K comparable] interface {
	Prev(n K) K
	Next(n K) K
	SetPrev(n, v K)
	SetNext(n, v K)
}

// List is a FIFO-ordered intrusive list: PushTail appends, PopHead removes
// the oldest node.
type List[K comparable] struct {
	head, tail K
	none       K
	count      int
}

// Init empties the list and sets the none key, which marks the absence of
// a neighbour.
func (l *List[K]) Init(none K) {
	l.head, l.tail, l.none = none, none, none
	l.count = 0
}

// Len returns the number of linked nodes.
func (l *List[K]) Len() int { return l.count }

// Empty reports whether the list holds no nodes.
func (l *List[K]) Empty() bool { return l.count == 0 }

// PushTail links n after the current tail. n must not be linked anywhere.
func (l *List[K]) PushTail(lk Links[K], n K) {
	lk.SetNext(n, l.none)
	lk.SetPrev(n, l.tail)
	if l.tail != l.none {
		lk.SetNext(l.tail, n)
	} else {
		l.head = n
	}
	l.tail = n
	l.count++
}

// PopHead unlinks and returns the head node.
func (l *List[K]) PopHead(lk Links[K]) (K, bool) {
	n := l.head
	if n == l.none {
		return l.none, false
	}
	l.Remove(lk, n)
	return n, true
}

// Remove unlinks n, which must currently be linked in l. O(1).
func (l *List[K]) Remove(lk Links[K], n K) {
	prev, next := lk.Prev(n), lk.Next(n)
	if next != l.none {
		lk.SetPrev(next, prev)
	} else {
		l.tail = prev
	}
	if prev != l.none {
		lk.SetNext(prev, next)
	} else {
		l.head = next
	}
	lk.SetPrev(n, l.none)
	lk.SetNext(n, l.none)
	l.count--
}

// Each calls fn for every node from head to tail until fn returns false.
// fn must not modify the list.
func (l *List[K]) Each(lk Links[K], fn func(K) bool) {
	for n := l.head; n != l.none; n = lk.Next(n) {
		if !fn(n) {
			return
		}
	}
}
