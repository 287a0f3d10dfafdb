package core

import "fmt"

// KeyNotFoundError reports that a query or read addressed a key absent from
// both the cache and the underlying StateReader.
type KeyNotFoundError struct {
	Key Key
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("core: key not found: tag=%s", e.Key.Tag)
}

// CircularReferenceError reports that Query's path traversal revisited a key
// already on its current path — the same cycle guard tracking_copy/mod.rs's
// Query helper implements via visited_keys.
type CircularReferenceError struct {
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("core: circular reference in query path: %v", e.Path)
}

// ValueNotFoundError reports that a query path named a key that does not
// exist among the current value's named keys.
type ValueNotFoundError struct {
	Name string
}

func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("core: value not found for name %q", e.Name)
}

// UnexpectedValueError reports that a query path tried to descend through a
// value that has no named keys to descend into (e.g. a bare CLValue with
// path segments still remaining).
type UnexpectedValueError struct {
	TypeName string
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("core: cannot descend into value of type %s", e.TypeName)
}

// ContractPausedError reports that an invocation targeted a contract whose
// ContractPackage.Paused flag is set (SPEC_FULL.md §D.1).
type ContractPausedError struct {
	Key Key
}

func (e *ContractPausedError) Error() string {
	return "core: contract is paused"
}

// NotAuthorizedError reports that an operation requiring package ownership
// (e.g. pause/resume/transfer-ownership) was attempted by a non-owner key.
type NotAuthorizedError struct {
	Caller Key
	Owner  Key
}

func (e *NotAuthorizedError) Error() string {
	return "core: caller is not the contract package owner"
}
