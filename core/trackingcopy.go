package core

// TrackingCopy is the staged read/write/add layer over an immutable
// StateReader that one execution runs against (spec.md §4.4). Every read
// is served from cache when possible and falls through to the underlying
// reader on a miss; every write or add is staged in the cache and recorded
// in ops/transforms, never touching the reader until a caller explicitly
// commits the resulting ExecutionEffect.
type TrackingCopy struct {
	reader     StateReader
	cache      *TrackingCopyCache
	ops        *AdditiveMap[Key, Op]
	transforms *AdditiveMap[Key, Transform]
}

// NewTrackingCopy builds a TrackingCopy reading through to reader, with its
// read cache budgeted to cacheMaxBytes (zero disables eviction).
func NewTrackingCopy(reader StateReader, cacheMaxBytes uint64) *TrackingCopy {
	return &TrackingCopy{
		reader:     reader,
		cache:      NewTrackingCopyCache(cacheMaxBytes, nil),
		ops:        NewAdditiveMap[Key, Op](),
		transforms: NewAdditiveMap[Key, Transform](),
	}
}

// Get returns the current value at key without recording an Op — used
// internally by Read/Add, and exposed for callers (e.g. the host ABI) that
// need to check existence without contributing to the ops/transforms record
// themselves.
func (tc *TrackingCopy) Get(correlationID uint64, key Key) (StoredValue, error) {
	norm := key.Normalize()
	if v, ok := tc.cache.Get(norm); ok {
		return v, nil
	}
	v, found, err := tc.reader.Read(correlationID, norm)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &KeyNotFoundError{Key: norm}
	}
	tc.cache.InsertRead(norm, v)
	return v, nil
}

// Read is Get plus recording an OpRead and an Identity transform against key.
func (tc *TrackingCopy) Read(correlationID uint64, key Key) (StoredValue, error) {
	v, err := tc.Get(correlationID, key)
	if err != nil {
		return nil, err
	}
	tc.ops.InsertAdd(key.Normalize(), OpRead)
	tc.transforms.InsertAdd(key.Normalize(), TransformIdentityV())
	return v, nil
}

// Write stages value at key, recording OpWrite and a Write transform. It
// never consults the reader: an unconditional write does not need to know
// what, if anything, currently occupies key.
func (tc *TrackingCopy) Write(key Key, value StoredValue) {
	norm := key.Normalize()
	tc.cache.InsertWrite(norm, value)
	tc.ops.InsertAdd(norm, OpWrite)
	tc.transforms.InsertAdd(norm, TransformWriteV(value))
}

// transformFromDelta builds the Add* transform matching delta's CLType, the
// per-type dispatch tracking_copy/mod.rs performs in its add() match
// statement.
func transformFromDelta(delta CLValue) (Transform, error) {
	switch delta.Type.Tag {
	case CLTI32:
		v, err := delta.IntoI32()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddInt32V(v), nil
	case CLTU64:
		v, err := delta.IntoU64()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddUInt64V(v), nil
	case CLTU128:
		v, err := delta.IntoU128()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddUInt128V(v), nil
	case CLTU256:
		v, err := delta.IntoU256()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddUInt256V(v), nil
	case CLTU512:
		v, err := delta.IntoU512()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddUInt512V(v), nil
	case CLTTuple2:
		name, key, err := delta.IntoNamedKey()
		if err != nil {
			return Transform{}, err
		}
		return TransformAddKeysV(map[string]Key{name: key}), nil
	default:
		return Transform{}, &TypeMismatchError{Expected: TU64(), Found: delta.Type}
	}
}

// Add folds delta (an I32/U64/U128/U256/U512/Tuple2(String,Key) CLValue) into
// the value currently at key, staging the result and recording OpAdd plus
// the corresponding Add transform. key must already hold a value of a
// matching width (or an Account, for the Tuple2 named-key case) — adding to
// an uninitialized key is a KeyNotFoundError, matching the underlying Get's
// behavior.
func (tc *TrackingCopy) Add(correlationID uint64, key Key, delta CLValue) error {
	transform, err := transformFromDelta(delta)
	if err != nil {
		return err
	}
	return tc.applyAdd(correlationID, key, transform)
}

func (tc *TrackingCopy) applyAdd(correlationID uint64, key Key, transform Transform) error {
	norm := key.Normalize()
	current, err := tc.Get(correlationID, norm)
	if err != nil {
		return err
	}
	next, err := transform.Apply(current)
	if err != nil {
		return err
	}
	tc.cache.InsertWrite(norm, next)
	tc.ops.InsertAdd(norm, OpAdd)
	tc.transforms.InsertAdd(norm, transform)
	return nil
}

// Effect returns the ExecutionEffect accumulated so far: the composed Op and
// Transform recorded per key touched. Callers harvest this after a
// top-level execution returns normally; a trapped or reverted execution
// discards it (spec.md §4.6).
func (tc *TrackingCopy) Effect() *ExecutionEffect {
	return &ExecutionEffect{Ops: tc.ops, Transforms: tc.transforms}
}

// forkReader is the read-through view a forked TrackingCopy sees of its
// parent: the parent's staged mutations, but deliberately NOT the parent's
// read cache, then the parent's own reader. tracking_copy/mod.rs's
// `impl StateReader for &TrackingCopy` is the source for this — forked
// sub-executions must observe the parent's writes-so-far but re-fetch
// anything the parent merely cached from the base reader.
type forkReader struct {
	parent *TrackingCopy
}

func (f forkReader) Read(correlationID uint64, key Key) (StoredValue, bool, error) {
	if v, ok := f.parent.cache.GetMut(key); ok {
		return v, true, nil
	}
	return f.parent.reader.Read(correlationID, key)
}

// Fork returns a new TrackingCopy layered on tc: a child TrackingCopy used
// for a nested call_contract sub-execution (spec.md §4.4 "fork"). The
// child's own cache, ops and transforms start empty; its effect is the
// sub-execution's own and is merged into the parent's by the runtime's
// call_contract host function only if the sub-execution returns normally or
// through ret.
func (tc *TrackingCopy) Fork(cacheMaxBytes uint64) *TrackingCopy {
	return &TrackingCopy{
		reader:     forkReader{parent: tc},
		cache:      NewTrackingCopyCache(cacheMaxBytes, nil),
		ops:        NewAdditiveMap[Key, Op](),
		transforms: NewAdditiveMap[Key, Transform](),
	}
}

// Merge folds a completed child's effect into tc — called by the runtime's
// call_contract host function after a forked sub-execution returns normally
// or through ret, so the
// parent's own Effect() reflects everything the child did.
func (tc *TrackingCopy) Merge(child *TrackingCopy) {
	for _, key := range child.ops.Keys() {
		op, _ := child.ops.Get(key)
		tc.ops.InsertAdd(key, op)
	}
	for _, key := range child.transforms.Keys() {
		t, _ := child.transforms.Get(key)
		tc.transforms.InsertAdd(key, t)
		if v, ok := child.cache.Get(key); ok {
			tc.cache.InsertWrite(key, v)
		}
	}
}

func namedKeysOf(value StoredValue) (map[string]Key, error) {
	switch v := value.(type) {
	case Account:
		return v.NamedKeys, nil
	case Contract:
		return v.NamedKeys, nil
	default:
		return nil, &UnexpectedValueError{TypeName: value.TypeName()}
	}
}

// Query resolves base, then walks path one named-key hop at a time,
// deliberately bypassing the cache entirely — it reads straight from the
// underlying reader on every hop, so it never observes this TrackingCopy's
// own staged writes or any fork's sub-execution mutations. This mirrors the
// explicit behavior (and comment) in tracking_copy/mod.rs's query(), which
// is preserved here rather than redesigned (SPEC_FULL.md §E).
func (tc *TrackingCopy) Query(correlationID uint64, base Key, path []string) (StoredValue, error) {
	visited := make(map[Key]bool)
	key := base.Normalize()
	for {
		if visited[key] {
			return nil, &CircularReferenceError{Path: path}
		}
		visited[key] = true

		value, found, err := tc.reader.Read(correlationID, key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &KeyNotFoundError{Key: key}
		}
		if len(path) == 0 {
			return value, nil
		}

		// A CLValue holding a Key passes through to that key without
		// consuming a path component; Account/Contract instead consume the
		// next name via their named keys. Anything else cannot be
		// traversed further.
		if cv, ok := value.(CLValue); ok && cv.Type.Tag == CLTKey {
			next, err := cv.IntoKey()
			if err != nil {
				return nil, err
			}
			key = next.Normalize()
			continue
		}

		name := path[0]
		path = path[1:]
		namedKeys, err := namedKeysOf(value)
		if err != nil {
			return nil, err
		}
		next, ok := namedKeys[name]
		if !ok {
			return nil, &ValueNotFoundError{Name: name}
		}
		key = next.Normalize()
	}
}
