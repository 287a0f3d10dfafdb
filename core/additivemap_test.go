package core

import "testing"

func TestAdditiveMapComposesOnCollision(t *testing.T) {
	m := NewAdditiveMap[Key, Op]()
	k := NewHashKey([32]byte{1})
	m.InsertAdd(k, OpRead)
	m.InsertAdd(k, OpWrite)
	got, ok := m.Get(k)
	if !ok {
		t.Fatalf("expected key present")
	}
	if got != OpWrite {
		t.Fatalf("want Write (Read+Write composes to Write), got %s", got)
	}
}

func TestAdditiveMapSnapshotIsIndependent(t *testing.T) {
	m := NewAdditiveMap[Key, Op]()
	k := NewHashKey([32]byte{1})
	m.InsertAdd(k, OpRead)
	snap := m.Snapshot()
	m.InsertAdd(k, OpWrite)
	if snap[k] != OpRead {
		t.Fatalf("snapshot should not observe later mutation, got %s", snap[k])
	}
}

func TestOpComposeLattice(t *testing.T) {
	cases := []struct{ a, b, want Op }{
		{NoOp, OpRead, OpRead},
		{OpRead, OpRead, OpRead},
		{OpRead, OpWrite, OpWrite},
		{OpRead, OpAdd, OpAdd},
		{OpWrite, OpAdd, OpWrite},
		{OpAdd, OpAdd, OpAdd},
		{OpAdd, OpWrite, OpWrite},
		{OpWrite, OpWrite, OpWrite},
	}
	for _, c := range cases {
		if got := c.a.Compose(c.b); got != c.want {
			t.Fatalf("%s + %s = %s, want %s", c.a, c.b, got, c.want)
		}
	}
}
