package runtime

import (
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"

	"execore/core"
)

var execLog = logrus.WithField("component", "runtime.executor")

const wasmPageBytes = 1 << 16

// ExecutionParams bundles the inputs one top-level execution needs beyond
// the reader backing global state (spec.md §4.6 "Executor").
type ExecutionParams struct {
	// Account identifies the caller whose named keys seed known_refs.
	Account core.Key
	// DeployHash seeds the URef AddressGenerator, making every address this
	// execution allocates a deterministic function of the deploy.
	DeployHash [32]byte
	// Code is the wasm module bytes to compile and run.
	Code []byte
	// Args are the positional call arguments (already-encoded CLValue
	// bytes, one entry per argument slot get_arg/get_arg_size index into).
	Args [][]byte
	// NamedArgs additionally indexes Args by name for get_named_arg.
	NamedArgs map[string][]byte
	// GasLimit bounds total host-call spend for this execution and every
	// sub-call it makes (the GasMeter is shared across a call_contract
	// chain, spec.md §4.5).
	GasLimit uint64
	// MaxWasmPages is the page ceiling the sandbox registry checks the
	// guest's linear memory against; an overrun is logged as a warning, not
	// prevented. Zero selects DefaultMaxWasmPages.
	MaxWasmPages uint32
	// CorrelationID tags every StateReader.Read call this execution makes,
	// for request-scoped diagnostics/tracing.
	CorrelationID uint64
	// CacheMaxBytes budgets the TrackingCopy's read cache; zero disables
	// eviction.
	CacheMaxBytes uint64
}

// DefaultMaxWasmPages is the ceiling spec.md §4.6 applies to a top-level
// execution's linear memory unless the caller overrides it.
const DefaultMaxWasmPages uint32 = 256

// Outcome reports how an execution terminated and, for the two outcomes
// that commit state, its accumulated effect (spec.md §4.7).
type Outcome struct {
	Kind   TrapKind
	Result []byte
	Revert uint32
	Effect *core.ExecutionEffect
}

// Exec runs code against reader as the named account, implementing the six
// steps spec.md §4.6 lays out: load the caller account, seed known_refs
// from its named URefs, build a fresh TrackingCopy, instantiate the module
// against the host ABI, invoke `call`, and harvest (or discard) the
// resulting effect depending on how the execution terminated.
func Exec(interp *WasmerInterpreter, reader core.StateReader, params ExecutionParams) (*Outcome, error) {
	maxPages := params.MaxWasmPages
	if maxPages == 0 {
		maxPages = DefaultMaxWasmPages
	}

	tc := core.NewTrackingCopy(reader, params.CacheMaxBytes)

	accountValue, err := tc.Read(params.CorrelationID, params.Account)
	if err != nil {
		return nil, fmt.Errorf("runtime: Exec: loading caller account: %w", err)
	}
	account, ok := accountValue.(core.Account)
	if !ok {
		return nil, fmt.Errorf("runtime: Exec: key does not address an Account")
	}

	knownRefs := make(map[core.Key]core.AccessRights, len(account.NamedKeys))
	for _, k := range account.NamedKeys {
		if k.Tag == core.KeyURef {
			knownRefs[k.Normalize()] = k.AccessRights
		}
	}

	gas := NewGasMeter(params.GasLimit)
	addrGen := NewAddressGenerator(params.DeployHash)

	rt := NewRuntime(tc, params.Account, params.Args, params.NamedArgs, knownRefs, gas, addrGen, params.CorrelationID, 0)
	rt.Interp = interp
	rt.LocalSeed = params.Account.Addr
	rt.MaxPages = maxPages

	mod, _, err := interp.Compile(params.Code)
	if err != nil {
		return nil, fmt.Errorf("runtime: Exec: compile: %w", err)
	}
	store := interp.Store()
	imports := BuildImports(store, rt)
	instance, err := interp.Instantiate(mod, imports)
	if err != nil {
		return nil, fmt.Errorf("runtime: Exec: instantiate: %w", err)
	}
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, fmt.Errorf("runtime: Exec: module exports no memory: %w", err)
	}
	rt.Memory = &wasmerMemory{mem: mem}

	executionID := fmt.Sprintf("%s-%d", hex.EncodeToString(params.DeployHash[:]), params.CorrelationID)
	StartSandbox(executionID, maxPages)
	defer StopSandbox(executionID)
	if err := SyncPages(executionID, rt.Memory.Len()/wasmPageBytes); err != nil {
		execLog.Warn(err)
	}

	entry, err := instance.Exports.GetFunction("call")
	if err != nil {
		return &Outcome{Kind: TrapError}, &FunctionNotFoundError{Name: "call"}
	}

	_, callErr := entry()
	if err := SyncPages(executionID, rt.Memory.Len()/wasmPageBytes); err != nil {
		execLog.Warn(err)
	}
	if callErr == nil {
		return &Outcome{Kind: TrapNone, Effect: tc.Effect()}, nil
	}

	trap, err := rt.resolveTrap(callErr)
	if err != nil {
		return &Outcome{Kind: TrapError}, err
	}

	switch trap.Kind {
	case TrapRet:
		return &Outcome{Kind: TrapRet, Result: trap.Result, Effect: tc.Effect()}, nil
	case TrapRevert:
		return &Outcome{Kind: TrapRevert, Revert: trap.RevertCode}, nil
	default:
		return &Outcome{Kind: TrapError}, trap
	}
}
