package core

import "testing"

func newTestManager() (*ContractManager, Key, Key) {
	pkgKey := NewHashKey([32]byte{9})
	owner := NewAccountKey([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20})
	r := NewInMemoryStateReader(nil)
	tc := NewTrackingCopy(r, 0)
	m := NewContractManager(tc)
	m.DeployPackage(pkgKey, owner)
	return m, pkgKey, owner
}

func TestContractManagerDeployAndOwner(t *testing.T) {
	m, pkgKey, owner := newTestManager()
	got, err := m.OwnerOf(0, pkgKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != owner.Normalize() {
		t.Fatalf("owner mismatch: got %v want %v", got, owner.Normalize())
	}
	paused, err := m.IsPaused(0, pkgKey)
	if err != nil {
		t.Fatal(err)
	}
	if paused {
		t.Fatalf("freshly deployed package must not be paused")
	}
}

func TestContractManagerPauseRequiresOwner(t *testing.T) {
	m, pkgKey, _ := newTestManager()
	intruder := NewAccountKey([]byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9})
	if err := m.PauseContract(0, pkgKey, intruder); err == nil {
		t.Fatalf("expected NotAuthorizedError for non-owner pause")
	}
}

func TestContractManagerPauseResumeRoundTrip(t *testing.T) {
	m, pkgKey, owner := newTestManager()
	if err := m.PauseContract(0, pkgKey, owner); err != nil {
		t.Fatal(err)
	}
	if err := m.RequireNotPaused(0, pkgKey); err == nil {
		t.Fatalf("expected ContractPausedError")
	}
	if err := m.ResumeContract(0, pkgKey, owner); err != nil {
		t.Fatal(err)
	}
	if err := m.RequireNotPaused(0, pkgKey); err != nil {
		t.Fatalf("expected no error after resume, got %v", err)
	}
}

func TestContractManagerRequireNotPausedUnmanagedKey(t *testing.T) {
	r := NewInMemoryStateReader(nil)
	tc := NewTrackingCopy(r, 0)
	m := NewContractManager(tc)
	unmanaged := NewHashKey([32]byte{77})
	if err := m.RequireNotPaused(0, unmanaged); err != nil {
		t.Fatalf("unmanaged key must not block invocation, got %v", err)
	}
}

// call_contract invokes RequireNotPaused against the callee's own Key, which
// addresses a Contract, not a ContractPackage (Contract has no backlink to
// the package it was deployed under). That must be treated the same as an
// absent key, not surfaced as a type-mismatch error.
func TestContractManagerRequireNotPausedOnContractKey(t *testing.T) {
	contractKey := NewHashKey([32]byte{55})
	r := NewInMemoryStateReader(map[Key]StoredValue{
		contractKey: Contract{WasmHash: NewHashKey([32]byte{56})},
	})
	tc := NewTrackingCopy(r, 0)
	m := NewContractManager(tc)
	if err := m.RequireNotPaused(0, contractKey); err != nil {
		t.Fatalf("a key holding a Contract (not a ContractPackage) must not block invocation, got %v", err)
	}
}

func TestContractManagerTransferOwnership(t *testing.T) {
	m, pkgKey, owner := newTestManager()
	newOwner := NewAccountKey([]byte{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2})
	if err := m.TransferOwnership(0, pkgKey, owner, newOwner); err != nil {
		t.Fatal(err)
	}
	got, err := m.OwnerOf(0, pkgKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != newOwner.Normalize() {
		t.Fatalf("owner not transferred: got %v want %v", got, newOwner.Normalize())
	}
	if err := m.TransferOwnership(0, pkgKey, owner, owner); err == nil {
		t.Fatalf("old owner must no longer be authorized")
	}
}

func TestContractManagerUpgradeContract(t *testing.T) {
	m, pkgKey, owner := newTestManager()
	contractKey := NewHashKey([32]byte{42})
	if err := m.UpgradeContract(0, pkgKey, owner, 1, contractKey); err != nil {
		t.Fatal(err)
	}
	info, err := m.ContractInfo(0, pkgKey)
	if err != nil {
		t.Fatal(err)
	}
	if info.Versions[1] != contractKey.Normalize() {
		t.Fatalf("version 1 not registered: got %v want %v", info.Versions[1], contractKey.Normalize())
	}
}
