package core

import (
	"math/big"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.WriteU8(7)
	w.WriteU32(123456)
	w.WriteU64(9876543210)
	w.WriteBytes([]byte("hello"))
	w.WriteString("world")

	r := NewReader(w.Bytes())
	if b, err := r.ReadU8(); err != nil || b != 7 {
		t.Fatalf("ReadU8 = %v, %v", b, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 123456 {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 9876543210 {
		t.Fatalf("ReadU64 = %v, %v", v, err)
	}
	if b, err := r.ReadBytes(); err != nil || string(b) != "hello" {
		t.Fatalf("ReadBytes = %v, %v", b, err)
	}
	if s, err := r.ReadString(); err != nil || s != "world" {
		t.Fatalf("ReadString = %v, %v", s, err)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestReaderEarlyEndOfStream(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadU32(); err != ErrEarlyEndOfStream {
		t.Fatalf("expected ErrEarlyEndOfStream, got %v", err)
	}
}

func TestReaderLeftOverBytes(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.ReadU8(); err != nil {
		t.Fatal(err)
	}
	if err := r.Finish(); err != ErrLeftOverBytes {
		t.Fatalf("expected ErrLeftOverBytes, got %v", err)
	}
}

func TestReadBytesOutOfMemory(t *testing.T) {
	w := NewWriter(0)
	w.WriteU32(100)
	r := NewReader(w.Bytes())
	r.MaxLength = 10
	if _, err := r.ReadBytes(); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestVarBigUintRoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		new(big.Int).Lsh(big.NewInt(1), 200),
	}
	for _, c := range cases {
		w := NewWriter(0)
		w.WriteVarBigUint(c)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarBigUint()
		if err != nil {
			t.Fatalf("ReadVarBigUint(%s): %v", c, err)
		}
		if got.Cmp(c) != 0 {
			t.Fatalf("round trip mismatch: want %s got %s", c, got)
		}
	}
}
