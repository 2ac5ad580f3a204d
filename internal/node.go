package internal

import "iter"

type nodeFlags int

const (
	flagNone nodeFlags = 0

	flagInHeap nodeFlags = 1 << iota
	// transient cells hold a value only for the duration of one step
	flagTransient
)

// node is the shared graph state of every reactive value: its position in the
// dependency graph (height), staleness bookkeeping, and the subscriber list.
type node struct {
	height  int
	version int
	flags   nodeFlags

	subsHead *link
}

func (n *node) Height() int { return n.height }

func (n *node) SetVersion(v int) { n.version = v }

func (n *node) HasFlag(f nodeFlags) bool { return n.flags&f != 0 }
func (n *node) AddFlag(f nodeFlags)      { n.flags |= f }
func (n *node) RemoveFlag(f nodeFlags)   { n.flags &^= f }
func (n *node) SetFlags(f nodeFlags)     { n.flags = f }

func (n *node) addSubLink(l *link) {
	if n.subsHead == nil {
		n.subsHead = l
		l.prevSub = l // loop to self
		l.nextSub = nil
	} else {
		tail := n.subsHead.prevSub
		tail.nextSub = l
		l.prevSub = tail
		l.nextSub = nil
		n.subsHead.prevSub = l
	}
}

func (n *node) removeSubLink(l *link) {
	if n.subsHead == nil {
		return
	}

	// single link
	if l.prevSub == l {
		if n.subsHead == l {
			n.subsHead = nil
		}
		return
	}

	head := n.subsHead
	if l == head {
		n.subsHead = l.nextSub
	} else {
		l.prevSub.nextSub = l.nextSub
	}

	next := l.nextSub
	if next == nil {
		next = n.subsHead
	}
	if next != nil {
		next.prevSub = l.prevSub
	}

	l.prevSub = l
	l.nextSub = nil
}

// Subs returns an iterator over all subscribers of this node.
func (n *node) Subs() iter.Seq[*Derived] {
	return func(yield func(*Derived) bool) {
		l := n.subsHead
		for l != nil {
			if !yield(l.sub) {
				return
			}
			l = l.nextSub
		}
	}
}

// link is one edge of the bidirectional dependency graph, threaded through
// both the dependency's subscriber list and the subscriber's dependency list.
type link struct {
	dep *Cell
	sub *Derived

	prevDep *link
	nextDep *link

	prevSub *link
	nextSub *link
}
