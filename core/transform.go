package core

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// TransformTag discriminates the variants of the Transform algebra
// (spec.md §4.4).
type TransformTag uint8

const (
	TransformIdentity TransformTag = iota
	TransformWrite
	TransformAddInt32
	TransformAddUInt64
	TransformAddUInt128
	TransformAddUInt256
	TransformAddUInt512
	TransformAddKeys
	TransformFailure
)

// Transform is a deferred mutation to apply to whatever StoredValue
// currently sits at a key. Transforms accumulated for the same key across
// one execution are folded with Compose, satisfying
//
//	(a.Compose(b)).Apply(x) == b.Apply(a.Apply(x))
//
// so a TrackingCopy never needs to re-read the original value to know the
// net effect of several writes/adds made during the execution.
type Transform struct {
	Tag TransformTag

	WriteValue StoredValue
	AddI32     int32
	AddU64     uint64
	AddU128    *big.Int
	AddU256    *uint256.Int
	AddU512    *big.Int
	AddKeysMap map[string]Key
	FailureMsg string
}

func TransformIdentityV() Transform { return Transform{Tag: TransformIdentity} }

func TransformWriteV(v StoredValue) Transform { return Transform{Tag: TransformWrite, WriteValue: v} }

func TransformAddInt32V(delta int32) Transform {
	return Transform{Tag: TransformAddInt32, AddI32: delta}
}

func TransformAddUInt64V(delta uint64) Transform {
	return Transform{Tag: TransformAddUInt64, AddU64: delta}
}

func TransformAddUInt128V(delta *big.Int) Transform {
	return Transform{Tag: TransformAddUInt128, AddU128: new(big.Int).Set(delta)}
}

func TransformAddUInt256V(delta *uint256.Int) Transform {
	return Transform{Tag: TransformAddUInt256, AddU256: new(uint256.Int).Set(delta)}
}

func TransformAddUInt512V(delta *big.Int) Transform {
	return Transform{Tag: TransformAddUInt512, AddU512: new(big.Int).Set(delta)}
}

func TransformAddKeysV(keys map[string]Key) Transform {
	m := make(map[string]Key, len(keys))
	for k, v := range keys {
		m[k] = v
	}
	return Transform{Tag: TransformAddKeys, AddKeysMap: m}
}

func TransformFailureV(msg string) Transform { return Transform{Tag: TransformFailure, FailureMsg: msg} }

var (
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
	two512 = new(big.Int).Lsh(big.NewInt(1), 512)
)

func wrapMod(v *big.Int, mod *big.Int) *big.Int {
	out := new(big.Int).Mod(v, mod)
	if out.Sign() < 0 {
		out.Add(out, mod)
	}
	return out
}

// Apply folds t onto current, producing the StoredValue that results.
// Write and Identity ignore current's contents entirely; the AddX variants
// require current to already be a CLValue of the matching width and wrap on
// overflow, mirroring the Rust source's per-CLType match in
// TrackingCopy::add (tracking_copy/mod.rs).
func (t Transform) Apply(current StoredValue) (StoredValue, error) {
	switch t.Tag {
	case TransformIdentity:
		return current, nil
	case TransformWrite:
		return t.WriteValue, nil
	case TransformFailure:
		return nil, errors.New(t.FailureMsg)
	case TransformAddInt32:
		cv, ok := current.(CLValue)
		if !ok || cv.Type.Tag != CLTI32 {
			return nil, &TypeMismatchError{Expected: TI32(), Found: typeOf(current)}
		}
		existing, err := cv.IntoI32()
		if err != nil {
			return nil, err
		}
		return CLValueFromI32(existing + t.AddI32), nil
	case TransformAddUInt64:
		cv, ok := current.(CLValue)
		if !ok || cv.Type.Tag != CLTU64 {
			return nil, &TypeMismatchError{Expected: TU64(), Found: typeOf(current)}
		}
		existing, err := cv.IntoU64()
		if err != nil {
			return nil, err
		}
		return CLValueFromU64(existing + t.AddU64), nil
	case TransformAddUInt128:
		cv, ok := current.(CLValue)
		if !ok || cv.Type.Tag != CLTU128 {
			return nil, &TypeMismatchError{Expected: TU128(), Found: typeOf(current)}
		}
		existing, err := cv.IntoU128()
		if err != nil {
			return nil, err
		}
		sum := wrapMod(new(big.Int).Add(existing, t.AddU128), two128)
		return CLValueFromU128(sum), nil
	case TransformAddUInt256:
		cv, ok := current.(CLValue)
		if !ok || cv.Type.Tag != CLTU256 {
			return nil, &TypeMismatchError{Expected: TU256(), Found: typeOf(current)}
		}
		existing, err := cv.IntoU256()
		if err != nil {
			return nil, err
		}
		result := new(uint256.Int)
		result.Add(existing, t.AddU256) // uint256.Int.Add wraps mod 2^256
		return CLValueFromU256(result), nil
	case TransformAddUInt512:
		cv, ok := current.(CLValue)
		if !ok || cv.Type.Tag != CLTU512 {
			return nil, &TypeMismatchError{Expected: TU512(), Found: typeOf(current)}
		}
		existing, err := cv.IntoU512()
		if err != nil {
			return nil, err
		}
		sum := wrapMod(new(big.Int).Add(existing, t.AddU512), two512)
		return CLValueFromU512(sum), nil
	case TransformAddKeys:
		acc, ok := current.(Account)
		if !ok {
			return nil, &TypeMismatchError{Expected: CLType{Tag: CLTAny}, Found: typeOf(current)}
		}
		out := acc.Clone()
		if out.NamedKeys == nil {
			out.NamedKeys = make(map[string]Key, len(t.AddKeysMap))
		}
		for name, k := range t.AddKeysMap {
			out.NamedKeys[name] = k
		}
		return out, nil
	default:
		return nil, errors.New("core: unknown transform tag")
	}
}

func typeOf(v StoredValue) CLType {
	if cv, ok := v.(CLValue); ok {
		return cv.Type
	}
	return CLType{Tag: CLTAny}
}

// Compose folds t and next into the single transform equivalent to applying
// t then next, satisfying (t.Compose(next)).Apply(x) == next.Apply(t.Apply(x)).
func (t Transform) Compose(next Transform) Transform {
	if t.Tag == TransformIdentity {
		return next
	}
	if next.Tag == TransformIdentity {
		return t
	}
	if next.Tag == TransformFailure {
		return next
	}
	if t.Tag == TransformFailure {
		return t
	}
	if next.Tag == TransformWrite {
		return next
	}
	if t.Tag == TransformWrite {
		newVal, err := next.Apply(t.WriteValue)
		if err != nil {
			return TransformFailureV(err.Error())
		}
		return TransformWriteV(newVal)
	}
	if t.Tag != next.Tag {
		return TransformFailureV("core: incompatible transform composition between " + transformTagName(t.Tag) + " and " + transformTagName(next.Tag))
	}
	switch t.Tag {
	case TransformAddInt32:
		return TransformAddInt32V(t.AddI32 + next.AddI32)
	case TransformAddUInt64:
		return TransformAddUInt64V(t.AddU64 + next.AddU64)
	case TransformAddUInt128:
		sum := wrapMod(new(big.Int).Add(t.AddU128, next.AddU128), two128)
		return TransformAddUInt128V(sum)
	case TransformAddUInt256:
		sum := new(uint256.Int).Add(t.AddU256, next.AddU256)
		return TransformAddUInt256V(sum)
	case TransformAddUInt512:
		sum := wrapMod(new(big.Int).Add(t.AddU512, next.AddU512), two512)
		return TransformAddUInt512V(sum)
	case TransformAddKeys:
		merged := make(map[string]Key, len(t.AddKeysMap)+len(next.AddKeysMap))
		for k, v := range t.AddKeysMap {
			merged[k] = v
		}
		for k, v := range next.AddKeysMap {
			merged[k] = v
		}
		return TransformAddKeysV(merged)
	default:
		return TransformFailureV("core: unknown transform tag in composition")
	}
}

// Add implements the AdditiveMap element constraint so
// AdditiveMap[Key,Transform] folds repeated transforms to the same key via
// Compose.
func (t Transform) Add(other Transform) Transform { return t.Compose(other) }

// String renders tag's name for diagnostics (CLI effect dumps, logs).
func (tag TransformTag) String() string { return transformTagName(tag) }

func transformTagName(tag TransformTag) string {
	switch tag {
	case TransformIdentity:
		return "Identity"
	case TransformWrite:
		return "Write"
	case TransformAddInt32:
		return "AddInt32"
	case TransformAddUInt64:
		return "AddUInt64"
	case TransformAddUInt128:
		return "AddUInt128"
	case TransformAddUInt256:
		return "AddUInt256"
	case TransformAddUInt512:
		return "AddUInt512"
	case TransformAddKeys:
		return "AddKeys"
	case TransformFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}
