package core

// ExecutionEffect is the auditable summary of everything one execution did
// to global state: one accumulated Op and one accumulated Transform per key
// touched (spec.md §4.3). A commit layer applies Transforms to the
// StateReader the execution ran against; Ops exist purely for observability
// and conflict detection, never for replay.
type ExecutionEffect struct {
	Ops        *AdditiveMap[Key, Op]
	Transforms *AdditiveMap[Key, Transform]
}

// NewExecutionEffect returns an empty effect.
func NewExecutionEffect() *ExecutionEffect {
	return &ExecutionEffect{
		Ops:        NewAdditiveMap[Key, Op](),
		Transforms: NewAdditiveMap[Key, Transform](),
	}
}
