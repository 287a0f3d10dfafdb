package core

import "container/list"

// Meter estimates the in-memory footprint of a cached (Key, StoredValue)
// pair. TrackingCopyCache budgets its read cache by this estimate rather
// than by entry count, so a handful of large contract-wasm reads can't push
// out thousands of small account reads (or vice versa).
type Meter interface {
	Size(k Key, v StoredValue) uint64
}

// HeapSizeMeter is the default Meter: a coarse byte-count heuristic good
// enough for cache-sizing purposes without reflecting over every variant.
type HeapSizeMeter struct{}

func (HeapSizeMeter) Size(k Key, v StoredValue) uint64 {
	const base = 64 // Key + bookkeeping overhead
	switch sv := v.(type) {
	case CLValue:
		return base + uint64(len(sv.Bytes))
	case ContractWasm:
		return base + uint64(len(sv.Bytes))
	case Account:
		n := uint64(len(sv.PublicKey))
		for name := range sv.NamedKeys {
			n += uint64(len(name)) + 40
		}
		return base + n
	case Contract:
		n := uint64(0)
		for name := range sv.NamedKeys {
			n += uint64(len(name)) + 40
		}
		return base + n
	case ContractPackage:
		return base + uint64(len(sv.Versions))*12
	default:
		return base
	}
}

type cacheEntry struct {
	key   Key
	value StoredValue
	size  uint64
}

// TrackingCopyCache is the read-through cache a TrackingCopy consults before
// falling to its underlying StateReader. It holds two independent stores
// (spec.md §4.3 "cache"):
//
//   - reads: a byte-budgeted LRU of values fetched from the reader but never
//     locally written. Eviction only ever removes entries here.
//   - muts: values this TrackingCopy itself has written or added to. These
//     are never evicted — the staged state they hold must remain visible to
//     every subsequent read for the life of the TrackingCopy — and they take
//     priority over the read cache on lookup.
type TrackingCopyCache struct {
	maxBytes uint64
	curBytes uint64
	meter    Meter

	reads     *list.List
	readIndex map[Key]*list.Element

	muts map[Key]StoredValue
}

// NewTrackingCopyCache returns a cache whose read-through LRU is budgeted to
// maxBytes as estimated by meter. A nil meter selects HeapSizeMeter.
func NewTrackingCopyCache(maxBytes uint64, meter Meter) *TrackingCopyCache {
	if meter == nil {
		meter = HeapSizeMeter{}
	}
	return &TrackingCopyCache{
		maxBytes:  maxBytes,
		meter:     meter,
		reads:     list.New(),
		readIndex: make(map[Key]*list.Element),
		muts:      make(map[Key]StoredValue),
	}
}

// InsertRead records a value fetched from the underlying reader, promoting
// it to most-recently-used and evicting least-recently-used read entries
// until the cache again fits within maxBytes.
func (c *TrackingCopyCache) InsertRead(key Key, value StoredValue) {
	key = key.Normalize()
	if el, ok := c.readIndex[key]; ok {
		entry := el.Value.(*cacheEntry)
		c.curBytes -= entry.size
		c.reads.Remove(el)
		delete(c.readIndex, key)
	}
	size := c.meter.Size(key, value)
	entry := &cacheEntry{key: key, value: value, size: size}
	el := c.reads.PushFront(entry)
	c.readIndex[key] = el
	c.curBytes += size
	c.evict()
}

func (c *TrackingCopyCache) evict() {
	if c.maxBytes == 0 {
		return
	}
	for c.curBytes > c.maxBytes {
		back := c.reads.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*cacheEntry)
		c.reads.Remove(back)
		delete(c.readIndex, entry.key)
		c.curBytes -= entry.size
	}
}

// InsertWrite records a value this TrackingCopy staged itself. Mutation
// entries are sticky: InsertWrite never triggers eviction of itself or of
// any other mutation.
func (c *TrackingCopyCache) InsertWrite(key Key, value StoredValue) {
	c.muts[key.Normalize()] = value
}

// Get returns the cached value for key, preferring a staged mutation over a
// read-cache hit, and promoting a read-cache hit to most-recently-used.
func (c *TrackingCopyCache) Get(key Key) (StoredValue, bool) {
	key = key.Normalize()
	if v, ok := c.muts[key]; ok {
		return v, true
	}
	if el, ok := c.readIndex[key]; ok {
		c.reads.MoveToFront(el)
		return el.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// GetMut returns only a staged mutation for key, never consulting the read
// cache — used by the fork read-through view (spec.md §4.4 "fork"), which
// must see a parent's writes but not its cached reads.
func (c *TrackingCopyCache) GetMut(key Key) (StoredValue, bool) {
	v, ok := c.muts[key.Normalize()]
	return v, ok
}
