package main

import (
	"os"
	"path/filepath"
	"testing"

	"execore/core"
)

const sampleGenesis = `
accounts:
  - key: "account:aabbccddeeff00112233445566778899aabbccdd"
    public_key: "deadbeef"
    main_purse: "uref:0101010101010101010101010101010101010101010101010101010101010101:rwa"
    named_keys:
      purse: "uref:0101010101010101010101010101010101010101010101010101010101010101:rwa"

values:
  - key: "hash:0202020202020202020202020202020202020202020202020202020202020202"
    clvalue:
      type: string
      value: "hello"
  - key: "local:0303030303030303030303030303030303030303030303030303030303030303"
    clvalue:
      type: u64
      value: "42"

contracts:
  - key: "hash:0404040404040404040404040404040404040404040404040404040404040404"
    wasm_hash: "hash:0505050505050505050505050505050505050505050505050505050505050505"
    protocol_version: 1
    named_keys: {}

packages:
  - key: "hash:0606060606060606060606060606060606060606060606060606060606060606"
    owner: "account:aabbccddeeff00112233445566778899aabbccdd"
    paused: false
    versions:
      "1": "hash:0404040404040404040404040404040404040404040404040404040404040404"
`

func writeTempGenesis(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp genesis: %v", err)
	}
	return path
}

func TestLoadGenesis(t *testing.T) {
	path := writeTempGenesis(t, sampleGenesis)

	reader, accountKeys, err := loadGenesis(path)
	if err != nil {
		t.Fatalf("loadGenesis: %v", err)
	}
	if len(accountKeys) != 1 {
		t.Fatalf("expected 1 account key, got %d", len(accountKeys))
	}

	accountKey, err := parseKey("account:aabbccddeeff00112233445566778899aabbccdd")
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	if accountKeys[0] != accountKey.Normalize() {
		t.Fatalf("account key mismatch: got %v want %v", accountKeys[0], accountKey.Normalize())
	}

	stored, ok, err := reader.Read(0, accountKey)
	if err != nil || !ok {
		t.Fatalf("reading seeded account: ok=%v err=%v", ok, err)
	}
	account, ok := stored.(core.Account)
	if !ok {
		t.Fatalf("expected core.Account, got %T", stored)
	}
	if len(account.NamedKeys) != 1 {
		t.Fatalf("expected 1 named key on account, got %d", len(account.NamedKeys))
	}

	stringKey, err := parseKey("hash:0202020202020202020202020202020202020202020202020202020202020202")
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	stored, ok, err = reader.Read(0, stringKey)
	if err != nil || !ok {
		t.Fatalf("reading seeded string value: ok=%v err=%v", ok, err)
	}
	cv, ok := stored.(core.CLValue)
	if !ok {
		t.Fatalf("expected core.CLValue, got %T", stored)
	}
	s, err := cv.IntoString()
	if err != nil || s != "hello" {
		t.Fatalf("string value mismatch: %q err=%v", s, err)
	}

	u64Key, err := parseKey("local:0303030303030303030303030303030303030303030303030303030303030303")
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	stored, ok, err = reader.Read(0, u64Key)
	if err != nil || !ok {
		t.Fatalf("reading seeded u64 value: ok=%v err=%v", ok, err)
	}
	cv = stored.(core.CLValue)
	u, err := cv.IntoU64()
	if err != nil || u != 42 {
		t.Fatalf("u64 value mismatch: %d err=%v", u, err)
	}

	contractKey, err := parseKey("hash:0404040404040404040404040404040404040404040404040404040404040404")
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	stored, ok, err = reader.Read(0, contractKey)
	if err != nil || !ok {
		t.Fatalf("reading seeded contract: ok=%v err=%v", ok, err)
	}
	contract, ok := stored.(core.Contract)
	if !ok {
		t.Fatalf("expected core.Contract, got %T", stored)
	}
	if contract.ProtocolVersion != 1 {
		t.Fatalf("expected protocol version 1, got %d", contract.ProtocolVersion)
	}

	packageKey, err := parseKey("hash:0606060606060606060606060606060606060606060606060606060606060606")
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	stored, ok, err = reader.Read(0, packageKey)
	if err != nil || !ok {
		t.Fatalf("reading seeded package: ok=%v err=%v", ok, err)
	}
	pkg, ok := stored.(core.ContractPackage)
	if !ok {
		t.Fatalf("expected core.ContractPackage, got %T", stored)
	}
	if pkg.Paused {
		t.Fatalf("expected package not paused")
	}
	if pkg.Versions[1] != contractKey.Normalize() {
		t.Fatalf("package version 1 mismatch: got %v want %v", pkg.Versions[1], contractKey.Normalize())
	}
}

func TestLoadGenesisRejectsBadYAML(t *testing.T) {
	path := writeTempGenesis(t, "accounts: [this is not valid")
	if _, _, err := loadGenesis(path); err == nil {
		t.Fatalf("expected error for malformed YAML")
	}
}

func TestLoadGenesisRejectsBadKey(t *testing.T) {
	path := writeTempGenesis(t, `
accounts:
  - key: "account:zz"
    main_purse: "uref:0101010101010101010101010101010101010101010101010101010101010101:rwa"
`)
	if _, _, err := loadGenesis(path); err == nil {
		t.Fatalf("expected error for malformed account key hex")
	}
}

func TestResolveAccountDefaultsToFirst(t *testing.T) {
	path := writeTempGenesis(t, sampleGenesis)
	_, accountKeys, err := loadGenesis(path)
	if err != nil {
		t.Fatalf("loadGenesis: %v", err)
	}
	got, err := resolveAccount("", accountKeys)
	if err != nil {
		t.Fatalf("resolveAccount: %v", err)
	}
	if got != accountKeys[0] {
		t.Fatalf("expected default account to be first in genesis")
	}
}

func TestResolveAccountErrorsWhenNoneGiven(t *testing.T) {
	if _, err := resolveAccount("", nil); err == nil {
		t.Fatalf("expected error when no --account flag and no genesis accounts")
	}
}
