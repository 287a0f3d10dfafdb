package core

import (
	"math"
	"math/big"
	"testing"
)

func TestTransformApplyWrite(t *testing.T) {
	tr := TransformWriteV(CLValueFromI32(9))
	got, err := tr.Apply(CLValueFromI32(1))
	if err != nil {
		t.Fatal(err)
	}
	v, _ := got.(CLValue).IntoI32()
	if v != 9 {
		t.Fatalf("want 9 got %d", v)
	}
}

func TestTransformAddInt32Wraps(t *testing.T) {
	tr := TransformAddInt32V(1)
	got, err := tr.Apply(CLValueFromI32(math.MaxInt32))
	if err != nil {
		t.Fatal(err)
	}
	v, _ := got.(CLValue).IntoI32()
	if v != math.MinInt32 {
		t.Fatalf("want wraparound to MinInt32, got %d", v)
	}
}

func TestTransformAddTypeMismatch(t *testing.T) {
	tr := TransformAddInt32V(1)
	if _, err := tr.Apply(CLValueFromString("nope")); err == nil {
		t.Fatalf("expected type mismatch applying AddInt32 to a String")
	}
}

// TestTransformCompositionLaw checks (a.Compose(b)).Apply(x) == b.Apply(a.Apply(x))
// for representative pairs, the invariant the Transform algebra exists to
// provide.
func TestTransformCompositionLaw(t *testing.T) {
	start := CLValueFromU64(10)
	pairs := []struct {
		a, b Transform
	}{
		{TransformAddUInt64V(5), TransformAddUInt64V(7)},
		{TransformAddUInt64V(5), TransformWriteV(CLValueFromU64(100))},
		{TransformWriteV(CLValueFromU64(50)), TransformAddUInt64V(3)},
		{TransformIdentityV(), TransformAddUInt64V(2)},
		{TransformAddUInt64V(2), TransformIdentityV()},
	}
	for i, p := range pairs {
		composed := p.a.Compose(p.b)
		left, errL := composed.Apply(start)
		mid, errA := p.a.Apply(start)
		if errA != nil {
			t.Fatalf("case %d: a.Apply failed: %v", i, errA)
		}
		right, errR := p.b.Apply(mid)
		if errL != nil || errR != nil {
			t.Fatalf("case %d: apply errors: %v %v", i, errL, errR)
		}
		lv, _ := left.(CLValue).IntoU64()
		rv, _ := right.(CLValue).IntoU64()
		if lv != rv {
			t.Fatalf("case %d: composition law violated: composed=%d sequential=%d", i, lv, rv)
		}
	}
}

func TestTransformComposeIncompatibleAddsFail(t *testing.T) {
	composed := TransformAddInt32V(1).Compose(TransformAddUInt64V(1))
	if composed.Tag != TransformFailure {
		t.Fatalf("expected Failure composing incompatible Add variants, got %s", transformTagName(composed.Tag))
	}
}

func TestTransformAddKeysMerges(t *testing.T) {
	k1 := NewHashKey([32]byte{1})
	k2 := NewHashKey([32]byte{2})
	acc := Account{NamedKeys: map[string]Key{"a": k1}}
	tr := TransformAddKeysV(map[string]Key{"b": k2})
	got, err := tr.Apply(acc)
	if err != nil {
		t.Fatal(err)
	}
	out := got.(Account)
	if out.NamedKeys["a"] != k1 || out.NamedKeys["b"] != k2 {
		t.Fatalf("expected both named keys present, got %+v", out.NamedKeys)
	}
}

func TestTransformAddUInt128Wraps(t *testing.T) {
	max128 := new(big.Int).Sub(two128, big.NewInt(1))
	tr := TransformAddUInt128V(big.NewInt(1))
	got, err := tr.Apply(CLValueFromU128(max128))
	if err != nil {
		t.Fatal(err)
	}
	v, _ := got.(CLValue).IntoU128()
	if v.Sign() != 0 {
		t.Fatalf("expected wraparound to 0, got %s", v)
	}
}
