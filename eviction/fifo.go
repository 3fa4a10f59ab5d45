// This file implements FIFO eviction.

package eviction

/*
fifo tracks insertion order only. The slice front is the oldest key; the
set answers membership so re-inserts and removals stay cheap. Reads do
not matter to FIFO.
*/
type fifo struct {
	order []string
	set   map[string]struct{}
}

func newFIFO() *fifo {
	return &fifo{set: make(map[string]struct{})}
}

func (f *fifo) OnGet(string) {}

// OnPut appends a new key. Only the first insertion counts.
func (f *fifo) OnPut(key string) {
	if _, ok := f.set[key]; ok {
		return
	}
	f.order = append(f.order, key)
	f.set[key] = struct{}{}
}

// Remove drops a key deleted outside of eviction, preserving the order
// of the rest.
func (f *fifo) Remove(key string) {
	if _, ok := f.set[key]; !ok {
		return
	}
	delete(f.set, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Evict removes and returns the oldest key.
func (f *fifo) Evict() string {
	if len(f.order) == 0 {
		return ""
	}
	key := f.order[0]
	f.order = f.order[1:]
	delete(f.set, key)
	return key
}
