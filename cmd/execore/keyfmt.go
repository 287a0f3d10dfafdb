package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"execore/core"
)

// parseKey parses the CLI's human-readable Key notation:
//
//	account:<hex>         20 or 32 byte account address
//	hash:<hex>             32 byte content hash
//	uref:<hex>:<rights>     32 byte URef address, rights a subset of "rwa"
//	local:<hex>             32 byte pre-hashed local address
//
// This is a debugging/genesis convenience the core itself has no opinion
// about — Key's own wire form is the §4.1 canonical encoding, not text.
func parseKey(s string) (core.Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return core.Key{}, fmt.Errorf("execore: malformed key %q", s)
	}
	addr, err := hex.DecodeString(parts[1])
	if err != nil {
		return core.Key{}, fmt.Errorf("execore: key %q: %w", s, err)
	}
	switch parts[0] {
	case "account":
		if len(addr) != 20 && len(addr) != 32 {
			return core.Key{}, fmt.Errorf("execore: account key %q: expected 20 or 32 bytes", s)
		}
		return core.NewAccountKey(addr), nil
	case "hash":
		if len(addr) != 32 {
			return core.Key{}, fmt.Errorf("execore: hash key %q: expected 32 bytes", s)
		}
		var h [32]byte
		copy(h[:], addr)
		return core.NewHashKey(h), nil
	case "local":
		if len(addr) != 32 {
			return core.Key{}, fmt.Errorf("execore: local key %q: expected 32 bytes", s)
		}
		var h [32]byte
		copy(h[:], addr)
		return core.Key{Tag: core.KeyLocal, Addr: h, AddrLen: 32}, nil
	case "uref":
		if len(addr) != 32 {
			return core.Key{}, fmt.Errorf("execore: uref key %q: expected 32 bytes", s)
		}
		if len(parts) != 3 {
			return core.Key{}, fmt.Errorf("execore: uref key %q: missing access-rights suffix", s)
		}
		rights, err := parseAccessRights(parts[2])
		if err != nil {
			return core.Key{}, fmt.Errorf("execore: uref key %q: %w", s, err)
		}
		var a [32]byte
		copy(a[:], addr)
		return core.NewURefKey(a, rights), nil
	default:
		return core.Key{}, fmt.Errorf("execore: unknown key tag %q in %q", parts[0], s)
	}
}

func parseAccessRights(s string) (core.AccessRights, error) {
	var rights core.AccessRights
	for _, c := range s {
		switch c {
		case 'r':
			rights |= core.AccessRead
		case 'w':
			rights |= core.AccessWrite
		case 'a':
			rights |= core.AccessAdd
		default:
			return 0, fmt.Errorf("unknown access-rights letter %q", c)
		}
	}
	return rights, nil
}

// formatKey is the inverse of parseKey, used when printing an
// ExecutionEffect back to the operator.
func formatKey(k core.Key) string {
	n := k.AddrLen
	if n == 0 || n > 32 {
		n = 32
	}
	addrHex := hex.EncodeToString(k.Addr[:n])
	switch k.Tag {
	case core.KeyAccount:
		return "account:" + addrHex
	case core.KeyHash:
		return "hash:" + addrHex
	case core.KeyLocal:
		return "local:" + addrHex
	case core.KeyURef:
		var b strings.Builder
		if k.AccessRights.IsReadable() {
			b.WriteByte('r')
		}
		if k.AccessRights.IsWritable() {
			b.WriteByte('w')
		}
		if k.AccessRights.IsAddable() {
			b.WriteByte('a')
		}
		rights := b.String()
		if rights == "" {
			rights = "-"
		}
		return "uref:" + addrHex + ":" + rights
	default:
		return fmt.Sprintf("key(tag=%d):%s", k.Tag, addrHex)
	}
}
