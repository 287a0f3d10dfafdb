package runtime

import (
	"os"
	"strings"
	"testing"

	"github.com/wasmerio/wasmer-go/wasmer"

	"execore/core"
)

// compileWAT compiles a committed .wat fixture under testdata/ into wasm
// bytes via wasmer-go's own text-format compiler, mirroring the teacher's
// CompileWASM helper (core/contracts.go) but without shelling out to an
// external wat2wasm binary, since wasmer-go bundles the same capability the
// rest of this package already links against.
func compileWAT(t *testing.T, name string) []byte {
	t.Helper()
	src, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	wasm, err := wasmer.Wat2Wasm(string(src))
	if err != nil {
		t.Fatalf("compile fixture %s: %v", name, err)
	}
	return wasm
}

func testAccount(addr byte) (core.Key, core.Account) {
	raw := make([]byte, 20)
	raw[0] = addr
	key := core.NewAccountKey(raw)
	return key, core.Account{NamedKeys: map[string]core.Key{}}
}

func TestExecNormalReturn(t *testing.T) {
	interp := NewWasmerInterpreter(4)
	accountKey, account := testAccount(1)
	reader := core.NewInMemoryStateReader(map[core.Key]core.StoredValue{accountKey: account})

	out, err := Exec(interp, reader, ExecutionParams{
		Account:       accountKey,
		DeployHash:    [32]byte{1},
		Code:          compileWAT(t, "normal_call.wat"),
		GasLimit:      1_000_000,
		CorrelationID: 1,
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.Kind != TrapNone {
		t.Fatalf("want TrapNone, got %v", out.Kind)
	}
	if out.Effect == nil {
		t.Fatalf("want a harvested effect on normal return")
	}
}

func TestExecRet(t *testing.T) {
	interp := NewWasmerInterpreter(4)
	accountKey, account := testAccount(2)
	reader := core.NewInMemoryStateReader(map[core.Key]core.StoredValue{accountKey: account})

	out, err := Exec(interp, reader, ExecutionParams{
		Account:       accountKey,
		DeployHash:    [32]byte{2},
		Code:          compileWAT(t, "ret_call.wat"),
		GasLimit:      1_000_000,
		CorrelationID: 1,
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.Kind != TrapRet {
		t.Fatalf("want TrapRet, got %v", out.Kind)
	}
	if string(out.Result) != "hello-callee" {
		t.Fatalf("want ret payload %q, got %q", "hello-callee", out.Result)
	}
	if out.Effect == nil {
		t.Fatalf("want a harvested effect on Ret, same as normal return")
	}
}

func TestExecRevert(t *testing.T) {
	interp := NewWasmerInterpreter(4)
	accountKey, account := testAccount(3)
	reader := core.NewInMemoryStateReader(map[core.Key]core.StoredValue{accountKey: account})

	out, err := Exec(interp, reader, ExecutionParams{
		Account:       accountKey,
		DeployHash:    [32]byte{3},
		Code:          compileWAT(t, "revert_call.wat"),
		GasLimit:      1_000_000,
		CorrelationID: 1,
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.Kind != TrapRevert {
		t.Fatalf("want TrapRevert, got %v", out.Kind)
	}
	if out.Revert != 42 {
		t.Fatalf("want revert code 42, got %d", out.Revert)
	}
	if out.Effect != nil {
		t.Fatalf("a reverted execution must discard its effect, spec.md §7")
	}
}

func TestExecForgedReferenceTraps(t *testing.T) {
	interp := NewWasmerInterpreter(4)
	accountKey, account := testAccount(4)
	reader := core.NewInMemoryStateReader(map[core.Key]core.StoredValue{accountKey: account})

	out, err := Exec(interp, reader, ExecutionParams{
		Account:       accountKey,
		DeployHash:    [32]byte{4},
		Code:          compileWAT(t, "forged_uref.wat"),
		GasLimit:      1_000_000,
		CorrelationID: 1,
	})
	if err == nil {
		t.Fatalf("expected a forged-reference trap, got success: %+v", out)
	}
	if out == nil || out.Kind != TrapError {
		t.Fatalf("want TrapError, got %+v", out)
	}
	if !strings.Contains(err.Error(), "forged reference") {
		t.Fatalf("want forged-reference message, got %v", err)
	}
}

func TestExecCallContractSubCallRet(t *testing.T) {
	interp := NewWasmerInterpreter(4)
	accountKey, account := testAccount(5)

	calleeWasm := core.ContractWasm{Bytes: compileWAT(t, "ret_call.wat")}
	wasmKey := core.NewHashKey([32]byte{0xAA})
	contractKey := core.NewHashKey([32]byte{0xBB})
	contract := core.Contract{WasmHash: wasmKey, NamedKeys: map[string]core.Key{}}

	reader := core.NewInMemoryStateReader(map[core.Key]core.StoredValue{
		accountKey:  account,
		wasmKey:     calleeWasm,
		contractKey: contract,
	})

	out, err := Exec(interp, reader, ExecutionParams{
		Account:       accountKey,
		DeployHash:    [32]byte{5},
		Code:          compileWAT(t, "call_contract_caller.wat"),
		Args:          [][]byte{contractKey.EncodeCanonical()},
		GasLimit:      1_000_000,
		CorrelationID: 1,
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.Kind != TrapRet {
		t.Fatalf("want the caller to re-ret the callee's payload, got %v", out.Kind)
	}
	if string(out.Result) != "hello-callee" {
		t.Fatalf("want the callee's raw ret payload forwarded unwrapped, got %q", out.Result)
	}
}
