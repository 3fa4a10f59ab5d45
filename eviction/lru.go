// This file implements LRU eviction.

package eviction

/*
lru tracks recency with a doubly-linked list threaded through a map.
The list runs from the most recently read key at the front to the
coldest key at the back; the map finds a key's node in O(1) so every
operation stays constant-time.
*/
type lru struct {
	nodes map[string]*lruNode
	front *lruNode // most recently used
	back  *lruNode // eviction candidate
}

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

func newLRU() *lru {
	return &lru{nodes: make(map[string]*lruNode)}
}

// OnGet marks a key as most recently used.
func (l *lru) OnGet(key string) {
	n, ok := l.nodes[key]
	if !ok {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

// OnPut starts tracking a new key as most recently used. A key already
// tracked keeps its position; its next read will bump it.
func (l *lru) OnPut(key string) {
	if _, ok := l.nodes[key]; ok {
		return
	}
	n := &lruNode{key: key}
	l.nodes[key] = n
	l.pushFront(n)
}

// Remove drops a key deleted outside of eviction.
func (l *lru) Remove(key string) {
	if n, ok := l.nodes[key]; ok {
		l.unlink(n)
		delete(l.nodes, key)
	}
}

// Evict removes and returns the coldest key.
func (l *lru) Evict() string {
	if l.back == nil {
		return ""
	}
	n := l.back
	l.unlink(n)
	delete(l.nodes, n.key)
	return n.key
}

func (l *lru) pushFront(n *lruNode) {
	n.prev = nil
	n.next = l.front
	if l.front != nil {
		l.front.prev = n
	}
	l.front = n
	if l.back == nil {
		l.back = n
	}
}

func (l *lru) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.front = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.back = n.prev
	}
}
