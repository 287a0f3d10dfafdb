package runtime

import (
	"github.com/sirupsen/logrus"

	"execore/core"
)

// Runtime holds everything one wasm execution needs to service host ABI
// calls (spec.md §4.5): the positional call arguments, the guest's linear
// memory, the set of URefs this execution may legally use, the TrackingCopy
// mediating all global-state access, the interpreter used for sub-calls, the eventual
// `ret` payload, and the host_buf staging area for size-probe-then-copy
// reads.
type Runtime struct {
	Args    [][]byte
	Memory  Memory
	State   *core.TrackingCopy

	// KnownRefs is private to this Runtime instance; sub-calls receive only
	// the explicitly passed subset, never the full ambient set (spec.md
	// §4.5 "sub_call protocol").
	KnownRefs map[core.Key]core.AccessRights

	Caller core.Key

	Result  []byte
	HostBuf []byte

	// trap stashes the Ret/Revert this execution ended with. wasmer-go's
	// host-function trap mechanism rebuilds its trap from the returned
	// error's message string on the wasm side of the cgo boundary, so the
	// *Trap value the exported call's error ultimately carries is not
	// guaranteed to be the same Go value hostRet/hostRevert returned.
	// Stashing it here lets Exec/hostCallContract recover Kind/Result/
	// RevertCode regardless of what the wasmer call wrapper hands back.
	trap *Trap

	Gas           *GasMeter
	AddrGen       *AddressGenerator
	CorrelationID uint64

	// NamedArgs backs get_named_arg/get_named_arg_size (SPEC_FULL.md §D):
	// the same positional args, additionally indexed by name when the
	// caller supplied one.
	NamedArgs map[string][]byte

	// LocalSeed is hashed together with a guest-supplied name to address
	// contract-local storage (core.NewLocalKey) — the *_local ABI variants
	// (SPEC_FULL.md §D).
	LocalSeed [32]byte

	// Interp lets call_contract compile and instantiate a callee module for
	// a sub-call without this package depending on a package-level global.
	Interp *WasmerInterpreter

	// MaxPages is the linear-memory page ceiling this execution (and any
	// sub-call it makes) is diagnosed against via the SandboxInfo registry
	// (spec.md §4.6's "initial ≤ 256 pages ... unless policy overrides").
	// Zero selects DefaultMaxWasmPages.
	MaxPages uint32

	depth  int
	logger *logrus.Entry
}

// maxCallDepth bounds call_contract nesting so a pathological contract
// graph cannot recurse the host stack into the ground.
const maxCallDepth = 16

// NewRuntime constructs a Runtime ready to service host calls for one
// execution or sub-call.
func NewRuntime(state *core.TrackingCopy, caller core.Key, args [][]byte, namedArgs map[string][]byte, knownRefs map[core.Key]core.AccessRights, gas *GasMeter, addrGen *AddressGenerator, correlationID uint64, depth int) *Runtime {
	if knownRefs == nil {
		knownRefs = make(map[core.Key]core.AccessRights)
	}
	return &Runtime{
		Args:          args,
		NamedArgs:     namedArgs,
		State:         state,
		KnownRefs:     knownRefs,
		Caller:        caller,
		Gas:           gas,
		AddrGen:       addrGen,
		CorrelationID: correlationID,
		depth:         depth,
		logger:        logrus.WithField("component", "runtime"),
	}
}

// Depth reports this execution's sub-call nesting depth (0 for a top-level
// execution).
func (rt *Runtime) Depth() int { return rt.depth }

// isKnown reports whether key (any variant, not just URef) is within this
// execution's permitted reference set. Non-URef keys (Account/Hash/Local)
// are always permitted — the forged-reference invariant only constrains
// URefs, the only Key variant a guest can forge by guessing bytes.
func (rt *Runtime) isKnown(key core.Key) bool {
	if key.Tag != core.KeyURef {
		return true
	}
	_, ok := rt.KnownRefs[key.Normalize()]
	return ok
}

// checkAccess requires key to be known with at least the given rights,
// returning ForgedReferenceError otherwise.
func (rt *Runtime) checkAccess(key core.Key, need core.AccessRights) error {
	if key.Tag != core.KeyURef {
		return nil
	}
	rights, ok := rt.KnownRefs[key.Normalize()]
	if !ok {
		return &ForgedReferenceError{}
	}
	if need == core.AccessRead && !rights.IsReadable() {
		return &ForgedReferenceError{}
	}
	if need == core.AccessWrite && !rights.IsWritable() {
		return &ForgedReferenceError{}
	}
	if need == core.AccessAdd && !rights.IsAddable() {
		return &ForgedReferenceError{}
	}
	return nil
}

// resolveTrap recovers the terminal Trap for a completed `call` invocation
// that returned callErr. It prefers the stashed rt.trap — set synchronously
// by hostRet/hostRevert inside the host function body — over type-asserting
// callErr itself, since wasmer-go's trap plumbing is free to rebuild the
// error it ultimately returns from the trap's message string rather than
// propagate the original Go value. A non-nil callErr with no stashed trap is
// a genuine runtime error (gas exhaustion, a wasm-level trap, an interpreter
// failure) and is returned unchanged.
func (rt *Runtime) resolveTrap(callErr error) (*Trap, error) {
	if callErr == nil {
		return nil, nil
	}
	if rt.trap != nil {
		return rt.trap, nil
	}
	if t, ok := callErr.(*Trap); ok {
		return t, nil
	}
	return nil, callErr
}

// learn records a URef freshly generated by new_uref as known to this
// execution, the only way new entries enter KnownRefs after construction.
func (rt *Runtime) learn(key core.Key, rights core.AccessRights) {
	if key.Tag == core.KeyURef {
		rt.KnownRefs[key.Normalize()] = rights
	}
}
