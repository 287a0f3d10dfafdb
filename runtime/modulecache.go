package runtime

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wasmerio/wasmer-go/wasmer"
)

// ModuleCache memoizes compiled wasm modules by content hash so repeated
// call_contract invocations of the same callee code (common when several
// accounts share a library contract) skip re-compilation. Bounded by entry
// count via hashicorp/golang-lru/v2 — unlike the TrackingCopyCache, whose
// byte-budgeted eviction is load-bearing for determinism, a module cache
// miss is just slower, not incorrect, so count-based LRU is the right fit
// (SPEC_FULL.md §B).
type ModuleCache struct {
	cache *lru.Cache[[32]byte, *wasmer.Module]
}

// NewModuleCache returns a cache holding up to size compiled modules.
func NewModuleCache(size int) *ModuleCache {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[[32]byte, *wasmer.Module](size)
	if err != nil {
		// Only returns an error for size <= 0, already guarded above.
		panic(err)
	}
	return &ModuleCache{cache: c}
}

// Get returns the cached module for codeHash, if present.
func (m *ModuleCache) Get(codeHash [32]byte) (*wasmer.Module, bool) {
	return m.cache.Get(codeHash)
}

// Put stores mod under codeHash, possibly evicting the least recently used
// entry.
func (m *ModuleCache) Put(codeHash [32]byte, mod *wasmer.Module) {
	m.cache.Add(codeHash, mod)
}
