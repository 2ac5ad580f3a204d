package internal

import "iter"

// PriorityHeap holds dirty derivations bucketed by graph height, so draining
// processes them in topological order.
type PriorityHeap struct {
	max int

	nodes []*heapNode // [height]head

	lookup map[*Derived]*heapNode // for O(1) removal
}

type heapNode struct {
	node *Derived

	// height at insertion time; the node's own height may move under it
	height int

	next *heapNode
	prev *heapNode
}

const maxHeight = 2000

func NewHeap() *PriorityHeap {
	return &PriorityHeap{
		nodes:  make([]*heapNode, maxHeight),
		lookup: make(map[*Derived]*heapNode),
	}
}

func (h *PriorityHeap) Empty() bool {
	return len(h.lookup) == 0
}

func (h *PriorityHeap) Insert(node *Derived) {
	if node.HasFlag(flagInHeap) {
		return
	}
	node.AddFlag(flagInHeap)

	height := node.Height()
	entry := &heapNode{node: node, height: height}
	h.lookup[node] = entry

	if h.nodes[height] == nil {
		h.nodes[height] = entry
		entry.prev = entry // loop to self
		entry.next = nil
	} else {
		head := h.nodes[height]
		tail := head.prev

		tail.next = entry
		entry.prev = tail
		entry.next = nil
		head.prev = entry
	}

	if height > h.max {
		h.max = height
	}
}

func (h *PriorityHeap) InsertAll(nodes iter.Seq[*Derived]) {
	for node := range nodes {
		h.Insert(node)
	}
}

func (h *PriorityHeap) Remove(node *Derived) {
	if !node.HasFlag(flagInHeap) {
		return
	}
	node.RemoveFlag(flagInHeap)

	entry, ok := h.lookup[node]
	if !ok {
		return
	}
	delete(h.lookup, node)

	height := entry.height

	// single node
	if entry.prev == entry {
		h.nodes[height] = nil
		entry.prev = entry
		entry.next = nil
		return
	}

	// multiple nodes
	head := h.nodes[height]
	if entry == head {
		h.nodes[height] = entry.next
	} else {
		entry.prev.next = entry.next
	}

	next := entry.next
	if next == nil {
		next = head
	}
	next.prev = entry.prev

	entry.prev = entry
	entry.next = nil
}

// Drain processes each entry in topological order, leaving the heap empty.
// Processing may insert further entries, including below the current height
// (a recomputation can write unrelated cells); the sweep restarts until
// nothing is left.
func (h *PriorityHeap) Drain(process func(*Derived)) {
	for !h.Empty() {
		for height := 0; height <= h.max; height++ {
			for entry := h.nodes[height]; entry != nil; entry = h.nodes[height] {
				h.Remove(entry.node)
				process(entry.node)
			}
		}
	}

	h.max = 0
}
