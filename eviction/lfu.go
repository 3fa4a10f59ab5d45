// This file implements LFU eviction.

package eviction

/*
lfu buckets keys by read count. Eviction takes an arbitrary key from the
lowest-count bucket, found through minFreq, so neither reads nor
evictions ever scan all keys.
*/
type lfu struct {
	counts  map[string]int
	buckets map[int]map[string]struct{}
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		counts:  make(map[string]int),
		buckets: make(map[int]map[string]struct{}),
	}
}

// OnGet moves a key one bucket up.
func (l *lfu) OnGet(key string) {
	freq, ok := l.counts[key]
	if !ok {
		return
	}

	l.dropFromBucket(key, freq)
	l.counts[key] = freq + 1
	l.addToBucket(key, freq+1)
}

// OnPut starts tracking a new key in the count-1 bucket.
func (l *lfu) OnPut(key string) {
	if _, ok := l.counts[key]; ok {
		return
	}
	l.counts[key] = 1
	l.addToBucket(key, 1)
	l.minFreq = 1
}

// Remove drops a key deleted outside of eviction.
func (l *lfu) Remove(key string) {
	freq, ok := l.counts[key]
	if !ok {
		return
	}
	l.dropFromBucket(key, freq)
	delete(l.counts, key)
}

// Evict removes and returns any key from the lowest-count bucket. Ties
// within the bucket break arbitrarily.
func (l *lfu) Evict() string {
	if len(l.buckets[l.minFreq]) == 0 {
		// Removals can empty the lowest bucket without a put
		// following; find the new floor.
		l.minFreq = 0
		for f := range l.buckets {
			if l.minFreq == 0 || f < l.minFreq {
				l.minFreq = f
			}
		}
	}
	for key := range l.buckets[l.minFreq] {
		l.dropFromBucket(key, l.minFreq)
		delete(l.counts, key)
		return key
	}
	return ""
}

func (l *lfu) addToBucket(key string, freq int) {
	b, ok := l.buckets[freq]
	if !ok {
		b = make(map[string]struct{})
		l.buckets[freq] = b
	}
	b[key] = struct{}{}
}

// dropFromBucket removes a key from its bucket and advances minFreq
// past a bucket it just emptied.
func (l *lfu) dropFromBucket(key string, freq int) {
	delete(l.buckets[freq], key)
	if len(l.buckets[freq]) == 0 {
		delete(l.buckets, freq)
		if l.minFreq == freq {
			l.minFreq++
		}
	}
}
