package core

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"
)

// TypeMismatchError reports that a CLValue was extracted as a type other
// than the one it was constructed with.
type TypeMismatchError struct {
	Expected CLType
	Found    CLType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("core: type mismatch: expected %s, found %s", e.Expected.Tag, e.Found.Tag)
}

// CLValue is a self-describing value: a type tag paired with the value's
// own canonical byte encoding. The pairing lets any holder — a Transform, a
// TrackingCopy entry, a host ABI argument slot — carry a typed value without
// committing to a concrete Go type, matching spec.md §3 "CLValue".
type CLValue struct {
	Type  CLType
	Bytes []byte
}

// SerializedLen reports the length of the value's inner byte encoding,
// excluding the length prefix and the type tag. The host ABI's
// size-probe-then-copy reads report the length of the full EncodeCanonical
// form instead.
func (v CLValue) SerializedLen() int { return len(v.Bytes) }

// EncodeCanonical writes the §4.2 wire form: the inner bytes as a
// length-prefixed byte string, followed by the recursive type tag.
func (v CLValue) EncodeCanonical(w *Writer) {
	w.WriteBytes(v.Bytes)
	v.Type.EncodeCanonical(w)
}

// DecodeCLValue is the inverse of EncodeCanonical.
func DecodeCLValue(r *Reader) (CLValue, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return CLValue{}, err
	}
	t, err := DecodeCLType(r)
	if err != nil {
		return CLValue{}, err
	}
	return CLValue{Type: t, Bytes: b}, nil
}

func checkType(v CLValue, want CLType) error {
	if !v.Type.Equal(want) {
		return &TypeMismatchError{Expected: want, Found: v.Type}
	}
	return nil
}

// --- constructors ---

func CLValueFromBool(b bool) CLValue {
	w := NewWriter(1)
	if b {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	return CLValue{Type: TBool(), Bytes: w.Bytes()}
}

func CLValueFromI32(v int32) CLValue {
	w := NewWriter(4)
	w.WriteU32(uint32(v))
	return CLValue{Type: TI32(), Bytes: w.Bytes()}
}

func CLValueFromI64(v int64) CLValue {
	w := NewWriter(8)
	w.WriteU64(uint64(v))
	return CLValue{Type: TI64(), Bytes: w.Bytes()}
}

func CLValueFromU8(v uint8) CLValue {
	w := NewWriter(1)
	w.WriteU8(v)
	return CLValue{Type: TU8(), Bytes: w.Bytes()}
}

func CLValueFromU32(v uint32) CLValue {
	w := NewWriter(4)
	w.WriteU32(v)
	return CLValue{Type: TU32(), Bytes: w.Bytes()}
}

func CLValueFromU64(v uint64) CLValue {
	w := NewWriter(8)
	w.WriteU64(v)
	return CLValue{Type: TU64(), Bytes: w.Bytes()}
}

func CLValueFromU128(v *big.Int) CLValue {
	w := NewWriter(9)
	w.WriteVarBigUint(v)
	return CLValue{Type: TU128(), Bytes: w.Bytes()}
}

func CLValueFromU256(v *uint256.Int) CLValue {
	w := NewWriter(33)
	if v == nil {
		w.WriteVarBigUint(new(big.Int))
	} else {
		w.WriteVarBigUint(v.ToBig())
	}
	return CLValue{Type: TU256(), Bytes: w.Bytes()}
}

func CLValueFromU512(v *big.Int) CLValue {
	w := NewWriter(65)
	w.WriteVarBigUint(v)
	return CLValue{Type: TU512(), Bytes: w.Bytes()}
}

func CLValueUnit() CLValue {
	return CLValue{Type: TUnit(), Bytes: []byte{}}
}

func CLValueFromString(s string) CLValue {
	w := NewWriter(4 + len(s))
	w.WriteString(s)
	return CLValue{Type: TString(), Bytes: w.Bytes()}
}

func CLValueFromKey(k Key) CLValue {
	enc := k.EncodeCanonical()
	return CLValue{Type: TKey(), Bytes: enc}
}

func CLValueFromURef(k Key) (CLValue, error) {
	if k.Tag != KeyURef {
		return CLValue{}, fmt.Errorf("core: CLValueFromURef: key is not a URef")
	}
	enc := k.EncodeCanonical()
	return CLValue{Type: TURef(), Bytes: enc}, nil
}

func CLValueFromPublicKey(pk []byte) CLValue {
	w := NewWriter(4 + len(pk))
	w.WriteBytes(pk)
	return CLValue{Type: TPublicKey(), Bytes: w.Bytes()}
}

// CLValueNone builds Option<elemType> in its None state.
func CLValueNone(elemType CLType) CLValue {
	w := NewWriter(1)
	w.WriteU8(0)
	return CLValue{Type: TOption(elemType), Bytes: w.Bytes()}
}

// CLValueSome builds Option<inner.Type> wrapping inner.
func CLValueSome(inner CLValue) CLValue {
	w := NewWriter(1 + len(inner.Bytes))
	w.WriteU8(1)
	w.WriteRawBytes(inner.Bytes)
	return CLValue{Type: TOption(inner.Type), Bytes: w.Bytes()}
}

// CLValueList builds List<elemType> from a homogeneous slice of values, all
// of which must already carry elemType.
func CLValueList(elemType CLType, elems []CLValue) (CLValue, error) {
	w := NewWriter(4)
	w.WriteU32(uint32(len(elems)))
	for _, e := range elems {
		if !e.Type.Equal(elemType) {
			return CLValue{}, &TypeMismatchError{Expected: elemType, Found: e.Type}
		}
		w.WriteRawBytes(e.Bytes)
	}
	return CLValue{Type: TList(elemType), Bytes: w.Bytes()}, nil
}

// CLValueFixedList builds FixedList<elemType,N>, validating len(elems)==n.
func CLValueFixedList(elemType CLType, n uint32, elems []CLValue) (CLValue, error) {
	if uint32(len(elems)) != n {
		return CLValue{}, fmt.Errorf("core: CLValueFixedList: expected %d elements, got %d", n, len(elems))
	}
	w := NewWriter(0)
	for _, e := range elems {
		if !e.Type.Equal(elemType) {
			return CLValue{}, &TypeMismatchError{Expected: elemType, Found: e.Type}
		}
		w.WriteRawBytes(e.Bytes)
	}
	return CLValue{Type: TFixedList(elemType, n), Bytes: w.Bytes()}, nil
}

func CLValueTuple1(a CLValue) CLValue {
	w := NewWriter(len(a.Bytes))
	w.WriteRawBytes(a.Bytes)
	return CLValue{Type: TTuple1(a.Type), Bytes: w.Bytes()}
}

func CLValueTuple2(a, b CLValue) CLValue {
	w := NewWriter(len(a.Bytes) + len(b.Bytes))
	w.WriteRawBytes(a.Bytes)
	w.WriteRawBytes(b.Bytes)
	return CLValue{Type: TTuple2(a.Type, b.Type), Bytes: w.Bytes()}
}

func CLValueTuple3(a, b, c CLValue) CLValue {
	w := NewWriter(len(a.Bytes) + len(b.Bytes) + len(c.Bytes))
	w.WriteRawBytes(a.Bytes)
	w.WriteRawBytes(b.Bytes)
	w.WriteRawBytes(c.Bytes)
	return CLValue{Type: TTuple3(a.Type, b.Type, c.Type), Bytes: w.Bytes()}
}

// CLValueNamedKey builds the Tuple2(String,Key) pair used by the
// Add-keys transform (spec.md §4.4).
func CLValueNamedKey(name string, k Key) CLValue {
	return CLValueTuple2(CLValueFromString(name), CLValueFromKey(k))
}

// CLValueMap builds Map<keyType,valueType>, serialized in key-sorted order
// (by the raw encoded key bytes) so two independent constructions of the
// same logical map produce byte-identical output.
func CLValueMap(keyType, valueType CLType, entries map[string]CLValue) (CLValue, error) {
	names := make([]string, 0, len(entries))
	encoded := make(map[string][]byte, len(entries))
	for k := range entries {
		kw := NewWriter(4 + len(k))
		kw.WriteString(k)
		encoded[k] = kw.Bytes()
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return bytes.Compare(encoded[names[i]], encoded[names[j]]) < 0
	})
	w := NewWriter(4)
	w.WriteU32(uint32(len(names)))
	for _, name := range names {
		v := entries[name]
		if !v.Type.Equal(valueType) {
			return CLValue{}, &TypeMismatchError{Expected: valueType, Found: v.Type}
		}
		w.WriteString(name)
		w.WriteRawBytes(v.Bytes)
	}
	return CLValue{Type: TMap(keyType, valueType), Bytes: w.Bytes()}, nil
}

func CLValueAny(raw []byte) CLValue {
	return CLValue{Type: TAny(), Bytes: append([]byte(nil), raw...)}
}

// --- extraction ---

func (v CLValue) IntoBool() (bool, error) {
	if err := checkType(v, TBool()); err != nil {
		return false, err
	}
	r := NewReader(v.Bytes)
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	return b != 0, r.Finish()
}

func (v CLValue) IntoI32() (int32, error) {
	if err := checkType(v, TI32()); err != nil {
		return 0, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return int32(u), r.Finish()
}

func (v CLValue) IntoI64() (int64, error) {
	if err := checkType(v, TI64()); err != nil {
		return 0, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return int64(u), r.Finish()
}

func (v CLValue) IntoU8() (uint8, error) {
	if err := checkType(v, TU8()); err != nil {
		return 0, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	return u, r.Finish()
}

func (v CLValue) IntoU32() (uint32, error) {
	if err := checkType(v, TU32()); err != nil {
		return 0, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return u, r.Finish()
}

func (v CLValue) IntoU64() (uint64, error) {
	if err := checkType(v, TU64()); err != nil {
		return 0, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return u, r.Finish()
}

func (v CLValue) IntoU128() (*big.Int, error) {
	if err := checkType(v, TU128()); err != nil {
		return nil, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadVarBigUint()
	if err != nil {
		return nil, err
	}
	return u, r.Finish()
}

func (v CLValue) IntoU256() (*uint256.Int, error) {
	if err := checkType(v, TU256()); err != nil {
		return nil, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadVarBigUint()
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	out, overflow := uint256.FromBig(u)
	if overflow {
		return nil, fmt.Errorf("core: IntoU256: value overflows 256 bits")
	}
	return out, nil
}

func (v CLValue) IntoU512() (*big.Int, error) {
	if err := checkType(v, TU512()); err != nil {
		return nil, err
	}
	r := NewReader(v.Bytes)
	u, err := r.ReadVarBigUint()
	if err != nil {
		return nil, err
	}
	return u, r.Finish()
}

func (v CLValue) IntoString() (string, error) {
	if err := checkType(v, TString()); err != nil {
		return "", err
	}
	r := NewReader(v.Bytes)
	s, err := r.ReadString()
	if err != nil {
		return "", err
	}
	return s, r.Finish()
}

func (v CLValue) IntoKey() (Key, error) {
	if v.Type.Tag != CLTKey && v.Type.Tag != CLTURef {
		return Key{}, &TypeMismatchError{Expected: TKey(), Found: v.Type}
	}
	return decodeKeyBytes(v.Bytes)
}

// IntoNamedKey extracts a Tuple2(String,Key) pair built by CLValueNamedKey.
func (v CLValue) IntoNamedKey() (string, Key, error) {
	if v.Type.Tag != CLTTuple2 || !v.Type.Params[0].Equal(TString()) || !v.Type.Params[1].Equal(TKey()) {
		return "", Key{}, &TypeMismatchError{Expected: NamedKeyType(), Found: v.Type}
	}
	r := NewReader(v.Bytes)
	name, err := r.ReadString()
	if err != nil {
		return "", Key{}, err
	}
	rest, err := r.ReadRawBytes(r.Remaining())
	if err != nil {
		return "", Key{}, err
	}
	k, err := decodeKeyBytes(rest)
	if err != nil {
		return "", Key{}, err
	}
	return name, k, nil
}

// decodeKeyBytes is the inverse of Key.EncodeCanonical.
func decodeKeyBytes(b []byte) (Key, error) {
	r := NewReader(b)
	tagByte, err := r.ReadU8()
	if err != nil {
		return Key{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return Key{}, err
	}
	addr, err := r.ReadRawBytes(int(n))
	if err != nil {
		return Key{}, err
	}
	k := Key{Tag: KeyTag(tagByte), AddrLen: n}
	copy(k.Addr[:], addr)
	if k.Tag == KeyURef {
		rights, err := r.ReadU8()
		if err != nil {
			return Key{}, err
		}
		k.AccessRights = AccessRights(rights)
	}
	return k, nil
}

// IntoOption reports whether v (an Option<elem>) is populated, returning the
// wrapped CLValue when it is.
func (v CLValue) IntoOption() (inner *CLValue, present bool, err error) {
	if v.Type.Tag != CLTOption {
		return nil, false, &TypeMismatchError{Expected: TOption(TAny()), Found: v.Type}
	}
	r := NewReader(v.Bytes)
	tag, err := r.ReadU8()
	if err != nil {
		return nil, false, err
	}
	if tag == 0 {
		return nil, false, nil
	}
	rest, err := r.ReadRawBytes(r.Remaining())
	if err != nil {
		return nil, false, err
	}
	return &CLValue{Type: v.Type.Params[0], Bytes: rest}, true, nil
}
