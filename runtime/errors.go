// Package runtime implements the wasm host runtime: the 17-function host
// ABI a guest module calls across the linear-memory boundary, the
// deterministic URef generator, the per-execution sandbox limits, and the
// top-level Executor that ties a TrackingCopy and a compiled module
// together into one deterministic run (spec.md §4.5-§4.7).
package runtime

import "fmt"

// Host error codes returned to the guest (spec.md §6). Zero is success;
// everything else is a small flat enumeration the guest branches on by
// value, never by type — these never leave the process boundary as Go
// errors.
const (
	CodeSuccess             int32 = 0
	CodeMissingKey          int32 = 1
	CodeTypeMismatch        int32 = 2
	CodeSerialization       int32 = 3
	CodeBufferTooSmall      int32 = 4
	CodeForgedReference     int32 = 5
	CodeFunctionNotFound    int32 = 6
	CodeArgIndexOutOfBounds int32 = 7
)

// TrapKind distinguishes the terminal states an execution can land in
// (spec.md §4.7). ReturnedNormally and Ret both harvest the effect;
// Reverted and Trapped both discard it, but Reverted still carries a
// caller-supplied code while Trapped is a genuine runtime error.
type TrapKind int

const (
	TrapNone TrapKind = iota
	TrapRet
	TrapRevert
	TrapError
)

// Trap is how a running guest unwinds: ret/revert are control flow, not
// exceptions, so they are represented as a distinguished error type the
// host's wasm call returns rather than as an ordinary Go error chain
// (spec.md §9 "trap-as-value return").
type Trap struct {
	Kind       TrapKind
	RevertCode uint32
	Result     []byte
	Cause      error
}

func (t *Trap) Error() string {
	switch t.Kind {
	case TrapRet:
		return fmt.Sprintf("runtime: ret(%d bytes)", len(t.Result))
	case TrapRevert:
		return fmt.Sprintf("runtime: revert(%d)", t.RevertCode)
	default:
		if t.Cause != nil {
			return fmt.Sprintf("runtime: trapped: %v", t.Cause)
		}
		return "runtime: trapped"
	}
}

func (t *Trap) Unwrap() error { return t.Cause }

// ForgedReferenceError traps an execution that tried to use a URef outside
// its known_refs set — the forged-reference invariant (spec.md §4.5).
type ForgedReferenceError struct{}

func (e *ForgedReferenceError) Error() string { return "runtime: forged reference" }

// FunctionNotFoundError traps a call_contract whose callee module has no
// matching exported entry point.
type FunctionNotFoundError struct{ Name string }

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("runtime: function not found: %s", e.Name)
}
