package runtime

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/wasmerio/wasmer-go/wasmer"

	"execore/core"
)

// hostFunc is the shape every host ABI function implements once wrapped:
// the wasmer.Value args the guest passed, the Runtime servicing this
// execution, and the wasmer.Value results to hand back. Gas is charged by
// the caller (BuildImports) before fn runs, mirroring
// core/opcode_dispatcher.go's Dispatch, which charges gas before invoking
// the opcode body.
type hostFunc struct {
	params  []wasmer.ValueKind
	results []wasmer.ValueKind
	fn      func(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error)
}

// hostRegistry is the global table of every host ABI function name this
// package implements. It is populated once at init time and never mutated
// afterward, so concurrent executions (each with its own Runtime) can share
// it without locking — the same Register/Dispatch-by-name shape
// core/opcode_dispatcher.go uses, generalized from an Opcode key to a wasm
// import name and from a package-level Context to a per-call closure over
// *Runtime (wasmer-go builds one concrete wasmer.Function per instance, so
// the registry only ever supplies the spec; BuildImports does the binding).
var hostRegistry = map[string]hostFunc{}

func registerHost(name string, params, results []wasmer.ValueKind, fn func(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error)) {
	if _, exists := hostRegistry[name]; exists {
		panic("runtime: host function already registered: " + name)
	}
	hostRegistry[name] = hostFunc{params: params, results: results, fn: fn}
}

func i32r(v int32) []wasmer.Value  { return []wasmer.Value{wasmer.NewI32(v)} }
func codeR(c int32) ([]wasmer.Value, error) { return i32r(c), nil }

func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func writeU32(rt *Runtime, ptr uint32, v uint32) error {
	var tmp [4]byte
	putU32(tmp[:], v)
	return rt.Memory.Set(ptr, tmp[:])
}

// stageHostBuf stores data for a later read_host_buffer and returns its
// length — the size-probe-then-copy convention spec.md §4.5 describes for
// every host call whose result size isn't known to the guest up front.
func (rt *Runtime) stageHostBuf(data []byte) int32 {
	rt.HostBuf = data
	return int32(len(data))
}

func init() {
	i32 := wasmer.I32
	P := func(kinds ...wasmer.ValueKind) []wasmer.ValueKind { return kinds }

	registerHost("read_value", P(i32, i32, i32), P(i32), hostReadValue)
	registerHost("write", P(i32, i32, i32, i32), P(i32), hostWrite)
	registerHost("add", P(i32, i32, i32, i32), P(i32), hostAdd)
	registerHost("new_uref", P(i32, i32, i32), P(i32), hostNewURef)
	registerHost("get_arg", P(i32, i32, i32), P(i32), hostGetArg)
	registerHost("get_arg_size", P(i32, i32), P(i32), hostGetArgSize)
	registerHost("get_named_arg", P(i32, i32, i32, i32), P(i32), hostGetNamedArg)
	registerHost("get_named_arg_size", P(i32, i32, i32), P(i32), hostGetNamedArgSize)
	registerHost("read_value_local", P(i32, i32, i32), P(i32), hostReadValueLocal)
	registerHost("write_local", P(i32, i32, i32, i32), P(i32), hostWriteLocal)
	registerHost("add_local", P(i32, i32, i32, i32), P(i32), hostAddLocal)
	registerHost("call_contract", P(i32, i32, i32, i32, i32), P(i32), hostCallContract)
	registerHost("ret", P(i32, i32), P(), hostRet)
	registerHost("revert", P(i32), P(), hostRevert)
	registerHost("read_host_buffer", P(i32, i32, i32), P(i32), hostReadHostBuffer)
	registerHost("is_valid_uref", P(i32, i32), P(i32), hostIsValidURef)
	registerHost("get_caller", P(i32, i32), P(i32), hostGetCaller)

	_ = sort.Strings // silence unused import if registry grows without sort use elsewhere
}

// BuildImports constructs the wasmer import object binding every registered
// host function to rt, charging gas for the call before the function body
// runs. Gas exhaustion surfaces as a Go error, which wasmer-go turns into a
// guest trap — the same "trap as value" outcome a ret/revert produces
// (spec.md §9), just triggered by the host instead of the guest.
func BuildImports(store *wasmer.Store, rt *Runtime) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()
	exts := make(map[string]wasmer.IntoExtern, len(hostRegistry))
	for name, spec := range hostRegistry {
		name, spec := name, spec
		ft := wasmer.NewFunctionType(wasmer.NewValueTypes(spec.params...), wasmer.NewValueTypes(spec.results...))
		exts[name] = wasmer.NewFunction(store, ft, func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := rt.Gas.ConsumeHostCall(name); err != nil {
				return nil, err
			}
			return spec.fn(rt, args)
		})
	}
	imports.Register("env", exts)
	return imports
}

// --- global state access ---

func hostReadValue(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	keyPtr, keySize, outSizePtr := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
	keyBytes, err := rt.Memory.Get(keyPtr, keySize)
	if err != nil {
		return nil, err
	}
	key, err := core.DecodeKeyBytes(keyBytes)
	if err != nil {
		return codeR(CodeSerialization)
	}
	if err := rt.checkAccess(key, core.AccessRead); err != nil {
		return nil, err
	}
	value, err := rt.State.Read(rt.CorrelationID, key)
	if err != nil {
		if _, ok := err.(*core.KeyNotFoundError); ok {
			return codeR(CodeMissingKey)
		}
		return codeR(CodeSerialization)
	}
	cv, ok := value.(core.CLValue)
	if !ok {
		return codeR(CodeTypeMismatch)
	}
	w := core.NewWriter(len(cv.Bytes) + 8)
	cv.EncodeCanonical(w)
	n := rt.stageHostBuf(w.Bytes())
	if err := writeU32(rt, outSizePtr, uint32(n)); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func hostWrite(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	keyPtr, keySize, valPtr, valSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
	keyBytes, err := rt.Memory.Get(keyPtr, keySize)
	if err != nil {
		return nil, err
	}
	key, err := core.DecodeKeyBytes(keyBytes)
	if err != nil {
		return codeR(CodeSerialization)
	}
	if err := rt.checkAccess(key, core.AccessWrite); err != nil {
		return nil, err
	}
	valBytes, err := rt.Memory.Get(valPtr, valSize)
	if err != nil {
		return nil, err
	}
	cv, err := core.DecodeCLValue(core.NewReader(valBytes))
	if err != nil {
		return codeR(CodeSerialization)
	}
	rt.State.Write(key, cv)
	return codeR(CodeSuccess)
}

func hostAdd(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	keyPtr, keySize, valPtr, valSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
	keyBytes, err := rt.Memory.Get(keyPtr, keySize)
	if err != nil {
		return nil, err
	}
	key, err := core.DecodeKeyBytes(keyBytes)
	if err != nil {
		return codeR(CodeSerialization)
	}
	if err := rt.checkAccess(key, core.AccessAdd); err != nil {
		return nil, err
	}
	valBytes, err := rt.Memory.Get(valPtr, valSize)
	if err != nil {
		return nil, err
	}
	cv, err := core.DecodeCLValue(core.NewReader(valBytes))
	if err != nil {
		return codeR(CodeSerialization)
	}
	if err := rt.State.Add(rt.CorrelationID, key, cv); err != nil {
		switch err.(type) {
		case *core.KeyNotFoundError:
			return codeR(CodeMissingKey)
		case *core.TypeMismatchError:
			return codeR(CodeTypeMismatch)
		default:
			return codeR(CodeSerialization)
		}
	}
	return codeR(CodeSuccess)
}

func hostNewURef(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	outPtr, valPtr, valSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
	valBytes, err := rt.Memory.Get(valPtr, valSize)
	if err != nil {
		return nil, err
	}
	cv, err := core.DecodeCLValue(core.NewReader(valBytes))
	if err != nil {
		return codeR(CodeSerialization)
	}
	key := rt.AddrGen.NextURef(core.AccessReadAddWrite)
	rt.State.Write(key, cv)
	rt.learn(key, core.AccessReadAddWrite)
	enc := key.EncodeCanonical()
	if err := rt.Memory.Set(outPtr, enc); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

// --- arguments ---

func hostGetArg(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	idx, destPtr, destSize := args[0].I32(), uint32(args[1].I32()), uint32(args[2].I32())
	if idx < 0 || int(idx) >= len(rt.Args) {
		return codeR(CodeArgIndexOutOfBounds)
	}
	data := rt.Args[idx]
	if uint32(len(data)) > destSize {
		return codeR(CodeBufferTooSmall)
	}
	if err := rt.Memory.Set(destPtr, data); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func hostGetArgSize(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	idx, sizePtr := args[0].I32(), uint32(args[1].I32())
	if idx < 0 || int(idx) >= len(rt.Args) {
		return codeR(CodeArgIndexOutOfBounds)
	}
	if err := writeU32(rt, sizePtr, uint32(len(rt.Args[idx]))); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func (rt *Runtime) namedArg(nameBytes []byte) ([]byte, bool) {
	data, ok := rt.NamedArgs[string(nameBytes)]
	return data, ok
}

func hostGetNamedArg(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	namePtr, nameSize, destPtr, destSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
	nameBytes, err := rt.Memory.Get(namePtr, nameSize)
	if err != nil {
		return nil, err
	}
	data, ok := rt.namedArg(nameBytes)
	if !ok {
		return codeR(CodeArgIndexOutOfBounds)
	}
	if uint32(len(data)) > destSize {
		return codeR(CodeBufferTooSmall)
	}
	if err := rt.Memory.Set(destPtr, data); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func hostGetNamedArgSize(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	namePtr, nameSize, sizePtr := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
	nameBytes, err := rt.Memory.Get(namePtr, nameSize)
	if err != nil {
		return nil, err
	}
	data, ok := rt.namedArg(nameBytes)
	if !ok {
		return codeR(CodeArgIndexOutOfBounds)
	}
	if err := writeU32(rt, sizePtr, uint32(len(data))); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

// --- contract-local storage (SPEC_FULL.md §D) ---

func hostReadValueLocal(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	namePtr, nameSize, outSizePtr := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
	name, err := rt.Memory.Get(namePtr, nameSize)
	if err != nil {
		return nil, err
	}
	key := core.NewLocalKey(rt.LocalSeed, name)
	value, err := rt.State.Read(rt.CorrelationID, key)
	if err != nil {
		if _, ok := err.(*core.KeyNotFoundError); ok {
			return codeR(CodeMissingKey)
		}
		return codeR(CodeSerialization)
	}
	cv, ok := value.(core.CLValue)
	if !ok {
		return codeR(CodeTypeMismatch)
	}
	w := core.NewWriter(len(cv.Bytes) + 8)
	cv.EncodeCanonical(w)
	n := rt.stageHostBuf(w.Bytes())
	if err := writeU32(rt, outSizePtr, uint32(n)); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func hostWriteLocal(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	namePtr, nameSize, valPtr, valSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
	name, err := rt.Memory.Get(namePtr, nameSize)
	if err != nil {
		return nil, err
	}
	valBytes, err := rt.Memory.Get(valPtr, valSize)
	if err != nil {
		return nil, err
	}
	cv, err := core.DecodeCLValue(core.NewReader(valBytes))
	if err != nil {
		return codeR(CodeSerialization)
	}
	rt.State.Write(core.NewLocalKey(rt.LocalSeed, name), cv)
	return codeR(CodeSuccess)
}

func hostAddLocal(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	namePtr, nameSize, valPtr, valSize := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
	name, err := rt.Memory.Get(namePtr, nameSize)
	if err != nil {
		return nil, err
	}
	valBytes, err := rt.Memory.Get(valPtr, valSize)
	if err != nil {
		return nil, err
	}
	cv, err := core.DecodeCLValue(core.NewReader(valBytes))
	if err != nil {
		return codeR(CodeSerialization)
	}
	key := core.NewLocalKey(rt.LocalSeed, name)
	if err := rt.State.Add(rt.CorrelationID, key, cv); err != nil {
		switch err.(type) {
		case *core.KeyNotFoundError:
			return codeR(CodeMissingKey)
		case *core.TypeMismatchError:
			return codeR(CodeTypeMismatch)
		default:
			return codeR(CodeSerialization)
		}
	}
	return codeR(CodeSuccess)
}

// --- identity, control flow, host buffer, references ---

func hostGetCaller(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	destPtr, destSize := uint32(args[0].I32()), uint32(args[1].I32())
	enc := rt.Caller.EncodeCanonical()
	if uint32(len(enc)) > destSize {
		return codeR(CodeBufferTooSmall)
	}
	if err := rt.Memory.Set(destPtr, enc); err != nil {
		return nil, err
	}
	return codeR(CodeSuccess)
}

func hostRet(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	ptr, size := uint32(args[0].I32()), uint32(args[1].I32())
	data, err := rt.Memory.Get(ptr, size)
	if err != nil {
		return nil, err
	}
	rt.Result = data
	trap := &Trap{Kind: TrapRet, Result: data}
	rt.trap = trap
	return nil, trap
}

func hostRevert(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	code := uint32(args[0].I32())
	trap := &Trap{Kind: TrapRevert, RevertCode: code}
	rt.trap = trap
	return nil, trap
}

func hostReadHostBuffer(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	destPtr, destSize, writtenPtr := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
	if uint32(len(rt.HostBuf)) > destSize {
		return codeR(CodeBufferTooSmall)
	}
	if err := rt.Memory.Set(destPtr, rt.HostBuf); err != nil {
		return nil, err
	}
	if err := writeU32(rt, writtenPtr, uint32(len(rt.HostBuf))); err != nil {
		return nil, err
	}
	rt.HostBuf = nil
	return codeR(CodeSuccess)
}

func hostIsValidURef(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	ptr, size := uint32(args[0].I32()), uint32(args[1].I32())
	data, err := rt.Memory.Get(ptr, size)
	if err != nil {
		return nil, err
	}
	key, err := core.DecodeKeyBytes(data)
	if err != nil || key.Tag != core.KeyURef {
		return i32r(0), nil
	}
	if rt.isKnown(key) {
		return i32r(1), nil
	}
	return i32r(0), nil
}

// --- cross-contract calls ---

// decodeCLValueVec parses the Vec<CLValue> wire form call_contract's
// argument buffer uses: a u32 count followed by that many canonically
// encoded CLValues back to back.
func decodeCLValueVec(b []byte) ([]core.CLValue, error) {
	r := core.NewReader(b)
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]core.CLValue, 0, count)
	for i := uint32(0); i < count; i++ {
		cv, err := core.DecodeCLValue(r)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, r.Finish()
}

// hostCallContract implements the sub_call protocol (spec.md §4.5): fork
// the caller's TrackingCopy, run the callee's `call` export against its own
// args/known_refs/memory/host_buf, and either merge its effect into the
// parent (normal return or ret) or propagate its trap untouched (revert or
// error) — the callee's outcome becomes the caller's outcome rather than a
// value the caller could catch and ignore.
func hostCallContract(rt *Runtime, args []wasmer.Value) ([]wasmer.Value, error) {
	keyPtr, keySize, argsPtr, argsSize, outSizePtr :=
		uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32()), uint32(args[4].I32())

	if rt.depth+1 >= maxCallDepth {
		return nil, fmt.Errorf("runtime: call_contract: max depth %d exceeded", maxCallDepth)
	}
	if rt.Interp == nil {
		return nil, fmt.Errorf("runtime: call_contract: no interpreter attached to this execution")
	}

	keyBytes, err := rt.Memory.Get(keyPtr, keySize)
	if err != nil {
		return nil, err
	}
	contractKey, err := core.DecodeKeyBytes(keyBytes)
	if err != nil {
		return codeR(CodeSerialization)
	}
	if err := rt.checkAccess(contractKey, core.AccessRead); err != nil {
		return nil, err
	}

	if err := core.NewContractManager(rt.State).RequireNotPaused(rt.CorrelationID, contractKey); err != nil {
		if _, ok := err.(*core.ContractPausedError); ok {
			return codeR(CodeMissingKey)
		}
		return nil, err
	}

	contractValue, err := rt.State.Read(rt.CorrelationID, contractKey)
	if err != nil {
		if _, ok := err.(*core.KeyNotFoundError); ok {
			return codeR(CodeMissingKey)
		}
		return codeR(CodeSerialization)
	}
	contract, ok := contractValue.(core.Contract)
	if !ok {
		return codeR(CodeTypeMismatch)
	}
	wasmValue, err := rt.State.Read(rt.CorrelationID, contract.WasmHash)
	if err != nil {
		return codeR(CodeMissingKey)
	}
	wasm, ok := wasmValue.(core.ContractWasm)
	if !ok {
		return codeR(CodeTypeMismatch)
	}

	argsBytes, err := rt.Memory.Get(argsPtr, argsSize)
	if err != nil {
		return nil, err
	}
	clArgs, err := decodeCLValueVec(argsBytes)
	if err != nil {
		return codeR(CodeSerialization)
	}

	childArgs := make([][]byte, len(clArgs))
	childKnownRefs := make(map[core.Key]core.AccessRights, len(contract.NamedKeys))
	for name, k := range contract.NamedKeys {
		_ = name
		if k.Tag == core.KeyURef {
			childKnownRefs[k.Normalize()] = k.AccessRights
		}
	}
	for i, v := range clArgs {
		w := core.NewWriter(len(v.Bytes) + 8)
		v.EncodeCanonical(w)
		childArgs[i] = w.Bytes()
		if v.Type.Tag == core.CLTKey || v.Type.Tag == core.CLTURef {
			if k, err := v.IntoKey(); err == nil && k.Tag == core.KeyURef {
				if rights, known := rt.KnownRefs[k.Normalize()]; known {
					childKnownRefs[k.Normalize()] = rights
				}
			}
		}
	}

	childTC := rt.State.Fork(0)
	childGas := rt.Gas
	child := NewRuntime(childTC, rt.Caller, childArgs, nil, childKnownRefs, childGas, rt.AddrGen, rt.CorrelationID, rt.depth+1)
	child.Interp = rt.Interp
	child.LocalSeed = contractKey.Addr
	child.MaxPages = rt.MaxPages

	mod, _, err := rt.Interp.Compile(wasm.Bytes)
	if err != nil {
		return nil, fmt.Errorf("runtime: call_contract: compile callee: %w", err)
	}
	store := rt.Interp.Store()
	imports := BuildImports(store, child)
	instance, err := rt.Interp.Instantiate(mod, imports)
	if err != nil {
		return nil, fmt.Errorf("runtime: call_contract: instantiate callee: %w", err)
	}
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, fmt.Errorf("runtime: call_contract: callee exports no memory: %w", err)
	}
	child.Memory = &wasmerMemory{mem: mem}

	subExecutionID := fmt.Sprintf("%x-%d-%d", wasm.Bytes[:minInt(len(wasm.Bytes), 8)], rt.CorrelationID, child.depth)
	maxPages := child.MaxPages
	if maxPages == 0 {
		maxPages = DefaultMaxWasmPages
	}
	StartSandbox(subExecutionID, maxPages)
	defer StopSandbox(subExecutionID)
	if err := SyncPages(subExecutionID, child.Memory.Len()/wasmPageBytes); err != nil {
		rt.logger.Warn(err)
	}

	entry, err := instance.Exports.GetFunction("call")
	if err != nil {
		return nil, &FunctionNotFoundError{Name: "call"}
	}

	_, callErr := entry()
	if err := SyncPages(subExecutionID, child.Memory.Len()/wasmPageBytes); err != nil {
		rt.logger.Warn(err)
	}

	trap, err := child.resolveTrap(callErr)
	if err != nil {
		return nil, err
	}

	switch {
	case trap == nil, trap.Kind == TrapNone:
		rt.State.Merge(childTC)
		n := rt.stageHostBuf(nil)
		if err := writeU32(rt, outSizePtr, uint32(n)); err != nil {
			return nil, err
		}
		return codeR(CodeSuccess)
	case trap.Kind == TrapRet:
		rt.State.Merge(childTC)
		n := rt.stageHostBuf(trap.Result)
		if err := writeU32(rt, outSizePtr, uint32(n)); err != nil {
			return nil, err
		}
		return codeR(CodeSuccess)
	default:
		return nil, trap
	}
}
