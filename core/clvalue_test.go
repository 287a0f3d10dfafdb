package core

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestCLValuePrimitiveRoundTrip(t *testing.T) {
	if b, err := CLValueFromBool(true).IntoBool(); err != nil || !b {
		t.Fatalf("bool round trip failed: %v %v", b, err)
	}
	if v, err := CLValueFromI32(-42).IntoI32(); err != nil || v != -42 {
		t.Fatalf("i32 round trip failed: %v %v", v, err)
	}
	if v, err := CLValueFromU64(18446744073709551615).IntoU64(); err != nil || v != 18446744073709551615 {
		t.Fatalf("u64 round trip failed: %v %v", v, err)
	}
	if s, err := CLValueFromString("hello").IntoString(); err != nil || s != "hello" {
		t.Fatalf("string round trip failed: %q %v", s, err)
	}
}

func TestCLValueU128RoundTrip(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 100)
	got, err := CLValueFromU128(want).IntoU128()
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("want %s got %s", want, got)
	}
}

func TestCLValueU256RoundTrip(t *testing.T) {
	want := uint256.NewInt(123456789)
	got, err := CLValueFromU256(want).IntoU256()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Eq(want) {
		t.Fatalf("want %s got %s", want, got)
	}
}

func TestCLValueTypeMismatch(t *testing.T) {
	v := CLValueFromI32(1)
	if _, err := v.IntoU64(); err == nil {
		t.Fatalf("expected type mismatch error")
	} else if _, ok := err.(*TypeMismatchError); !ok {
		t.Fatalf("expected *TypeMismatchError, got %T", err)
	}
}

func TestCLValueKeyRoundTrip(t *testing.T) {
	k := NewURefKey([32]byte{5, 6, 7}, AccessReadWrite)
	cv := CLValueFromKey(k)
	got, err := cv.IntoKey()
	if err != nil {
		t.Fatal(err)
	}
	if got != k {
		t.Fatalf("want %+v got %+v", k, got)
	}
}

func TestCLValueNamedKeyRoundTrip(t *testing.T) {
	k := NewHashKey([32]byte{1})
	cv := CLValueNamedKey("purse", k)
	name, gotKey, err := cv.IntoNamedKey()
	if err != nil {
		t.Fatal(err)
	}
	if name != "purse" || gotKey != k {
		t.Fatalf("want (purse, %+v) got (%s, %+v)", k, name, gotKey)
	}
}

func TestCLValueOptionRoundTrip(t *testing.T) {
	none := CLValueNone(TI32())
	if _, present, err := none.IntoOption(); err != nil || present {
		t.Fatalf("expected None, got present=%v err=%v", present, err)
	}
	some := CLValueSome(CLValueFromI32(7))
	inner, present, err := some.IntoOption()
	if err != nil || !present {
		t.Fatalf("expected Some, got present=%v err=%v", present, err)
	}
	v, err := inner.IntoI32()
	if err != nil || v != 7 {
		t.Fatalf("inner mismatch: %v %v", v, err)
	}
}

func TestCLValueListHomogeneityEnforced(t *testing.T) {
	_, err := CLValueList(TI32(), []CLValue{CLValueFromI32(1), CLValueFromString("oops")})
	if err == nil {
		t.Fatalf("expected error constructing heterogeneous list")
	}
}
