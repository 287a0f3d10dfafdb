package runtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultHostCallCost is charged for any host ABI function that has no
// explicit entry in costTable. It is deliberately high to discourage
// un-priced additions slipping through unnoticed (adapted from
// core/gas_table.go's DefaultGasCost).
const DefaultHostCallCost uint64 = 100_000

// costTable holds the illustrative per-host-call pricing referenced in
// SPEC_FULL.md §A/§F — this is sample pricing data, not a metering policy;
// the core's Non-goals explicitly exclude gas metering policy.
var costTable = map[string]uint64{
	"read_value":       1_000,
	"write":             14_000,
	"add":               5_800,
	"new_uref":          17_000,
	"get_arg":           200,
	"get_arg_size":      100,
	"get_named_arg":     300,
	"get_named_arg_size": 150,
	"read_value_local":  1_000,
	"write_local":       14_000,
	"add_local":         5_800,
	"call_contract":     100_000,
	"ret":               0,
	"revert":            0,
	"read_host_buffer":  200,
	"is_valid_uref":     150,
	"get_caller":        100,
}

var (
	unpricedLogOnce sync.Map // map[string]*sync.Once
	unpricedLogger  = logrus.WithField("component", "runtime.gas")
)

// HostCallCost returns the gas cost of calling the named host function,
// logging (once per name, per process) any function missing from
// costTable — the same "log only the first occurrence" discipline
// core/gas_table.go uses for unpriced opcodes.
func HostCallCost(name string) uint64 {
	if cost, ok := costTable[name]; ok {
		return cost
	}
	onceVal, _ := unpricedLogOnce.LoadOrStore(name, &sync.Once{})
	onceVal.(*sync.Once).Do(func() {
		unpricedLogger.Warnf("gas: missing cost for host function %q, charging default %d", name, DefaultHostCallCost)
	})
	return DefaultHostCallCost
}

// GasMeter tracks gas usage against a limit and refuses to overspend,
// adapted from core/virtual_machine.go's GasMeter.
type GasMeter struct {
	used  uint64
	limit uint64
}

// NewGasMeter constructs a meter allowing up to limit units of spend.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// Used reports total gas consumed so far.
func (g *GasMeter) Used() uint64 { return g.used }

// Remaining reports gas left before the limit is hit.
func (g *GasMeter) Remaining() uint64 {
	if g.used >= g.limit {
		return 0
	}
	return g.limit - g.used
}

// ConsumeHostCall charges the cost of calling the named host function,
// returning an error (never a trap itself — the caller decides how to
// surface exhaustion) if doing so would exceed the limit.
func (g *GasMeter) ConsumeHostCall(name string) error {
	return g.Consume(HostCallCost(name))
}

// Consume charges an arbitrary amount, failing if it would exceed the
// limit.
func (g *GasMeter) Consume(amount uint64) error {
	if g.used+amount > g.limit {
		g.used = g.limit
		return errGasExhausted
	}
	g.used += amount
	return nil
}

var errGasExhausted = &gasExhaustedError{}

type gasExhaustedError struct{}

func (e *gasExhaustedError) Error() string { return "runtime: gas exhausted" }
