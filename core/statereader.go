package core

import "sync"

// StateReader is the read-only view of global state a TrackingCopy is
// layered over. correlationID threads a caller-supplied tracing/log
// identifier through reads without needing a context.Context at this layer
// (mirrored from the teacher's memState.Get/Set signatures, which thread a
// request id through for the same reason).
type StateReader interface {
	Read(correlationID uint64, key Key) (StoredValue, bool, error)
}

// InMemoryStateReader is a StateReader backed by a plain guarded map. It is
// the engine's only StateReader implementation: durable storage and Merkle
// commitment are out of scope (spec.md §1). Grounded in the teacher's
// virtual_machine.go memState, stripped of the VM-dispatch and ledger
// responsibilities that type carried — besides answering reads, it is only
// mutated by Put (seeding) and Commit (the CLI's in-memory commit).
type InMemoryStateReader struct {
	mu   sync.RWMutex
	data map[Key]StoredValue
}

// NewInMemoryStateReader returns a reader seeded with initial, typically the
// parsed contents of a genesis snapshot.
func NewInMemoryStateReader(initial map[Key]StoredValue) *InMemoryStateReader {
	data := make(map[Key]StoredValue, len(initial))
	for k, v := range initial {
		data[k.Normalize()] = v
	}
	return &InMemoryStateReader{data: data}
}

func (r *InMemoryStateReader) Read(_ uint64, key Key) (StoredValue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key.Normalize()]
	return v, ok, nil
}

// Put installs or replaces the value at key — used only to seed the reader
// from a genesis snapshot or in tests; a running execution never mutates a
// StateReader directly, only the TrackingCopy layered on top of it.
func (r *InMemoryStateReader) Put(key Key, value StoredValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key.Normalize()] = value
}

// Commit applies transforms directly to the backing map — the engine's
// stand-in for a durable commit step, used by the CLI after a top-level
// Exec returns. The change lives only in this reader's memory; nothing is
// written back to the genesis file, so a later CLI invocation does not see
// it (spec.md §1 excludes durable storage from the engine itself).
func (r *InMemoryStateReader) Commit(transforms *AdditiveMap[Key, Transform]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range transforms.Keys() {
		t, _ := transforms.Get(key)
		current := r.data[key]
		next, err := t.Apply(current)
		if err != nil {
			return err
		}
		r.data[key] = next
	}
	return nil
}
