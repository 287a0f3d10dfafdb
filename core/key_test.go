package core

import "testing"

func TestKeyNormalizeStripsURefAccessRights(t *testing.T) {
	addr := [32]byte{1, 2, 3}
	a := NewURefKey(addr, AccessReadWrite)
	b := NewURefKey(addr, AccessRead)
	if a == b {
		t.Fatalf("expected distinct access rights to produce distinct keys before normalization")
	}
	if a.Normalize() != b.Normalize() {
		t.Fatalf("expected normalized URef keys to be equal regardless of access rights")
	}
}

func TestKeyNormalizeLeavesOtherTagsUnchanged(t *testing.T) {
	k := NewHashKey([32]byte{9})
	if k.Normalize() != k {
		t.Fatalf("expected Hash key to be unaffected by Normalize")
	}
}

func TestKeyUsableAsMapKey(t *testing.T) {
	m := make(map[Key]int)
	k1 := NewAccountKey(make([]byte, 20))
	k2 := NewHashKey([32]byte{1})
	m[k1] = 1
	m[k2] = 2
	if m[k1] != 1 || m[k2] != 2 {
		t.Fatalf("Key did not behave as a comparable map key")
	}
}

func TestKeyLessTotalOrder(t *testing.T) {
	a := NewHashKey([32]byte{1})
	b := NewHashKey([32]byte{2})
	if !a.Less(b) {
		t.Fatalf("expected a < b")
	}
	if a.Less(a) {
		t.Fatalf("Less must be irreflexive")
	}
}

func TestNewAccountKeyPanicsOnBadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for invalid address length")
		}
	}()
	NewAccountKey(make([]byte, 5))
}

func TestLocalKeyDeterministic(t *testing.T) {
	seed := [32]byte{1, 2, 3}
	a := NewLocalKey(seed, []byte("balance"))
	b := NewLocalKey(seed, []byte("balance"))
	c := NewLocalKey(seed, []byte("other"))
	if a != b {
		t.Fatalf("expected identical seed+name to produce identical local keys")
	}
	if a == c {
		t.Fatalf("expected different names to produce different local keys")
	}
}
