package core

import (
	"bytes"
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
)

// KeyTag discriminates the address spaces a Key can point into.
type KeyTag uint8

const (
	// KeyAccount addresses an account's named-key root.
	KeyAccount KeyTag = iota
	// KeyHash addresses immutable content (contracts, packages, wasm) by
	// content hash.
	KeyHash
	// KeyURef addresses a mutable, access-controlled reference.
	KeyURef
	// KeyLocal addresses contract-local storage hashed from a seed and a
	// caller-chosen name.
	KeyLocal
)

func (t KeyTag) String() string {
	switch t {
	case KeyAccount:
		return "Account"
	case KeyHash:
		return "Hash"
	case KeyURef:
		return "URef"
	case KeyLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// AccessRights is a bitfield of the operations a URef permits.
type AccessRights uint8

const (
	AccessNone  AccessRights = 0
	AccessRead  AccessRights = 1 << 0
	AccessWrite AccessRights = 1 << 1
	AccessAdd   AccessRights = 1 << 2
)

// AccessReadWrite grants both Read and Write.
const AccessReadWrite = AccessRead | AccessWrite

// AccessReadAdd grants both Read and Add.
const AccessReadAdd = AccessRead | AccessAdd

// AccessReadAddWrite grants Read, Add and Write.
const AccessReadAddWrite = AccessRead | AccessAdd | AccessWrite

func (a AccessRights) IsReadable() bool { return a&AccessRead != 0 }
func (a AccessRights) IsWritable() bool { return a&AccessWrite != 0 }
func (a AccessRights) IsAddable() bool  { return a&AccessAdd != 0 }

// Key is a tagged sum over the address spaces global state is partitioned
// into. It is a plain comparable struct (no pointers, no slices) so it can
// be used directly as a map key — required by AdditiveMap and by the
// tracking-copy cache.
//
// Addr holds the 32-byte payload for every variant; for KeyAccount only the
// first AddrLen bytes are significant (accounts may be addressed by a
// 20-byte or 32-byte address). AccessRights is only meaningful when
// Tag == KeyURef.
type Key struct {
	Tag          KeyTag
	Addr         [32]byte
	AddrLen      uint8
	AccessRights AccessRights
}

// NewAccountKey builds a Key addressing an account. addr must be 20 or 32
// bytes; any other length panics, since this is a programmer error at every
// call site (addresses come from fixed-width sources).
func NewAccountKey(addr []byte) Key {
	if len(addr) != 20 && len(addr) != 32 {
		panic("core: account address must be 20 or 32 bytes")
	}
	var k Key
	k.Tag = KeyAccount
	k.AddrLen = uint8(len(addr))
	copy(k.Addr[:], addr)
	return k
}

// NewHashKey builds a Key addressing content by hash.
func NewHashKey(h [32]byte) Key {
	return Key{Tag: KeyHash, Addr: h, AddrLen: 32}
}

// NewURefKey builds a Key addressing a URef with the given access rights.
func NewURefKey(addr [32]byte, rights AccessRights) Key {
	return Key{Tag: KeyURef, Addr: addr, AddrLen: 32, AccessRights: rights}
}

// NewLocalKey builds a Key addressing contract-local storage: the address
// is SHA-256(seed || name), matching the "hashed local name" scheme in
// spec.md §3.
func NewLocalKey(seed [32]byte, name []byte) Key {
	h := sha256.New()
	h.Write(seed[:])
	h.Write(name)
	var addr [32]byte
	copy(addr[:], h.Sum(nil))
	return Key{Tag: KeyLocal, Addr: addr, AddrLen: 32}
}

// Normalize strips access rights from a URef key so that equality (and use
// as a cache/ops/transforms map key) is address-based, per spec.md §3.
// Other variants are returned unchanged.
func (k Key) Normalize() Key {
	if k.Tag == KeyURef {
		k.AccessRights = AccessNone
	}
	return k
}

// AsURef reports whether k addresses a URef and, if so, returns its 32-byte
// address and access rights.
func (k Key) AsURef() (addr [32]byte, rights AccessRights, ok bool) {
	if k.Tag != KeyURef {
		return addr, 0, false
	}
	return k.Addr, k.AccessRights, true
}

// EncodeCanonical returns the §4.1 canonical byte encoding of the key:
// tag byte, address-length byte, the significant address bytes, and (for
// URef) the access-rights byte. This is also used as the total order for
// sorting map entries deterministically.
func (k Key) EncodeCanonical() []byte {
	w := NewWriter(2 + 32 + 1)
	w.WriteU8(uint8(k.Tag))
	n := k.AddrLen
	if n == 0 {
		n = 32
	}
	w.WriteU8(n)
	w.WriteRawBytes(k.Addr[:n])
	if k.Tag == KeyURef {
		w.WriteU8(uint8(k.AccessRights))
	}
	return w.Bytes()
}

// Less implements the total order over keys used when serializing maps in
// key-sorted order (spec.md §4.1).
func (k Key) Less(other Key) bool {
	return bytes.Compare(k.EncodeCanonical(), other.EncodeCanonical()) < 0
}

// DecodeKeyBytes parses the §4.1 canonical Key encoding produced by
// EncodeCanonical — exported for callers outside the package (the host ABI
// decoding a Key out of guest memory) that don't otherwise need CLValue's
// machinery.
func DecodeKeyBytes(b []byte) (Key, error) { return decodeKeyBytes(b) }

// CommonAddress renders the significant address bytes as a go-ethereum
// common.Address. A 20-byte payload maps one to one; for a 32-byte payload
// only the last 20 bytes are kept. Nothing else in this repository calls it;
// get_caller hands the guest the caller Key's EncodeCanonical form, not an
// Address.
func (k Key) CommonAddress() common.Address {
	n := k.AddrLen
	if n == 0 || n > 32 {
		n = 32
	}
	return common.BytesToAddress(k.Addr[:n])
}
