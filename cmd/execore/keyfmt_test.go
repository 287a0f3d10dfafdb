package main

import (
	"strings"
	"testing"

	"execore/core"
)

func TestParseKeyRoundTrip(t *testing.T) {
	cases := []string{
		"account:aabbccddeeff00112233445566778899aabbccdd",
		"hash:0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20",
		"uref:0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20:rw",
		"local:" + strings.Repeat("20", 32),
	}
	for _, s := range cases {
		k, err := parseKey(s)
		if err != nil {
			t.Fatalf("parseKey(%q): %v", s, err)
		}
		got := formatKey(k)
		if got != s {
			t.Fatalf("round trip mismatch: %q -> %q", s, got)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"bogus",
		"uref:deadbeef", // missing rights suffix, too short address
		"account:zz",    // invalid hex
	}
	for _, s := range cases {
		if _, err := parseKey(s); err == nil {
			t.Fatalf("parseKey(%q): expected error, got nil", s)
		}
	}
}

func TestParseAccessRights(t *testing.T) {
	r, err := parseAccessRights("rwa")
	if err != nil {
		t.Fatalf("parseAccessRights: %v", err)
	}
	if !r.IsReadable() || !r.IsWritable() || !r.IsAddable() {
		t.Fatalf("expected full rights, got %v", r)
	}
	if _, err := parseAccessRights("x"); err == nil {
		t.Fatalf("expected error for unknown rights letter")
	}
}

func TestFormatKeyNoRights(t *testing.T) {
	k := core.NewURefKey([32]byte{1}, core.AccessNone)
	got := formatKey(k)
	if got[len(got)-1] != '-' {
		t.Fatalf("expected '-' suffix for no access rights, got %q", got)
	}
}
