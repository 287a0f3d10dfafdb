package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"execore/core"
)

// clValueEntry is the YAML shape for a CLValue — the scalar subset needed to
// seed genesis state and author deploy arguments by hand. Composite CLTypes
// (List/Map/Tuple/Option) are constructed programmatically, not authored in
// YAML, so they have no entry here.
type clValueEntry struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func (e clValueEntry) toCLValue() (core.CLValue, error) {
	switch e.Type {
	case "bool":
		return core.CLValueFromBool(e.Value == "true"), nil
	case "i32":
		var v int64
		if _, err := fmt.Sscanf(e.Value, "%d", &v); err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromI32(int32(v)), nil
	case "i64":
		var v int64
		if _, err := fmt.Sscanf(e.Value, "%d", &v); err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromI64(v), nil
	case "u8":
		var v uint64
		if _, err := fmt.Sscanf(e.Value, "%d", &v); err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromU8(uint8(v)), nil
	case "u32":
		var v uint64
		if _, err := fmt.Sscanf(e.Value, "%d", &v); err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromU32(uint32(v)), nil
	case "u64":
		var v uint64
		if _, err := fmt.Sscanf(e.Value, "%d", &v); err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromU64(v), nil
	case "u128":
		v, ok := new(big.Int).SetString(e.Value, 10)
		if !ok {
			return core.CLValue{}, fmt.Errorf("execore: invalid u128 literal %q", e.Value)
		}
		return core.CLValueFromU128(v), nil
	case "u256":
		v, err := uint256.FromDecimal(e.Value)
		if err != nil {
			return core.CLValue{}, fmt.Errorf("execore: invalid u256 literal %q: %w", e.Value, err)
		}
		return core.CLValueFromU256(v), nil
	case "u512":
		v, ok := new(big.Int).SetString(e.Value, 10)
		if !ok {
			return core.CLValue{}, fmt.Errorf("execore: invalid u512 literal %q", e.Value)
		}
		return core.CLValueFromU512(v), nil
	case "string":
		return core.CLValueFromString(e.Value), nil
	case "key":
		k, err := parseKey(e.Value)
		if err != nil {
			return core.CLValue{}, err
		}
		return core.CLValueFromKey(k), nil
	default:
		return core.CLValue{}, fmt.Errorf("execore: unknown CLValue type %q", e.Type)
	}
}

// accountEntry is one account seeded into genesis state.
type accountEntry struct {
	Key        string            `yaml:"key"`
	PublicKey  string            `yaml:"public_key"`
	MainPurse  string            `yaml:"main_purse"`
	NamedKeys  map[string]string `yaml:"named_keys"`
}

// contractEntry is one deployed Contract record.
type contractEntry struct {
	Key             string            `yaml:"key"`
	WasmHash        string            `yaml:"wasm_hash"`
	ProtocolVersion uint32            `yaml:"protocol_version"`
	NamedKeys       map[string]string `yaml:"named_keys"`
}

// packageEntry is one ContractPackage lifecycle record (SPEC_FULL.md §D.1).
type packageEntry struct {
	Key    string          `yaml:"key"`
	Owner  string          `yaml:"owner"`
	Paused bool            `yaml:"paused"`
	Versions map[string]string `yaml:"versions"` // protocol version (string key) -> Contract key
}

// valueEntry is a bare CLValue stored directly at a key.
type valueEntry struct {
	Key     string       `yaml:"key"`
	CLValue clValueEntry `yaml:"clvalue"`
}

// wasmEntry loads a wasm file's bytes as a ContractWasm at a hash key.
type wasmEntry struct {
	Key  string `yaml:"key"`
	File string `yaml:"file"`
}

// genesisFile is the human-editable snapshot fed to `execore exec`/`query`:
// a complete initial Key->StoredValue mapping, grounded in spec.md §3's
// StoredValue sum and SPEC_FULL.md §C's in-memory StateReader.
type genesisFile struct {
	Accounts  []accountEntry  `yaml:"accounts"`
	Contracts []contractEntry `yaml:"contracts"`
	Packages  []packageEntry  `yaml:"packages"`
	Values    []valueEntry    `yaml:"values"`
	Wasm      []wasmEntry     `yaml:"wasm"`
}

func namedKeysFrom(in map[string]string) (map[string]core.Key, error) {
	out := make(map[string]core.Key, len(in))
	for name, s := range in {
		k, err := parseKey(s)
		if err != nil {
			return nil, fmt.Errorf("named key %q: %w", name, err)
		}
		out[name] = k
	}
	return out, nil
}

// loadGenesis parses path and returns a populated InMemoryStateReader plus
// the set of parsed account keys, in file order, for CLI convenience (e.g.
// selecting a default --account).
func loadGenesis(path string) (*core.InMemoryStateReader, []core.Key, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("execore: reading genesis %s: %w", path, err)
	}
	var gf genesisFile
	if err := yaml.Unmarshal(raw, &gf); err != nil {
		return nil, nil, fmt.Errorf("execore: parsing genesis %s: %w", path, err)
	}

	reader := core.NewInMemoryStateReader(nil)
	var accountKeys []core.Key

	for _, a := range gf.Accounts {
		key, err := parseKey(a.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("account %s: %w", a.Key, err)
		}
		purse, err := parseKey(a.MainPurse)
		if err != nil {
			return nil, nil, fmt.Errorf("account %s: main_purse: %w", a.Key, err)
		}
		named, err := namedKeysFrom(a.NamedKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("account %s: %w", a.Key, err)
		}
		var pk []byte
		if a.PublicKey != "" {
			pk = []byte(a.PublicKey)
		}
		reader.Put(key, core.Account{PublicKey: pk, MainPurse: purse, NamedKeys: named})
		accountKeys = append(accountKeys, key)
	}

	for _, c := range gf.Contracts {
		key, err := parseKey(c.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("contract %s: %w", c.Key, err)
		}
		wasmHash, err := parseKey(c.WasmHash)
		if err != nil {
			return nil, nil, fmt.Errorf("contract %s: wasm_hash: %w", c.Key, err)
		}
		named, err := namedKeysFrom(c.NamedKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("contract %s: %w", c.Key, err)
		}
		reader.Put(key, core.Contract{WasmHash: wasmHash, NamedKeys: named, ProtocolVersion: c.ProtocolVersion})
	}

	for _, p := range gf.Packages {
		key, err := parseKey(p.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("package %s: %w", p.Key, err)
		}
		owner, err := parseKey(p.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("package %s: owner: %w", p.Key, err)
		}
		versions := make(map[uint32]core.Key, len(p.Versions))
		for verStr, keyStr := range p.Versions {
			var ver uint32
			if _, err := fmt.Sscanf(verStr, "%d", &ver); err != nil {
				return nil, nil, fmt.Errorf("package %s: version %q: %w", p.Key, verStr, err)
			}
			vk, err := parseKey(keyStr)
			if err != nil {
				return nil, nil, fmt.Errorf("package %s: version %s: %w", p.Key, verStr, err)
			}
			versions[ver] = vk
		}
		reader.Put(key, core.ContractPackage{Owner: owner, Paused: p.Paused, Versions: versions})
	}

	for _, v := range gf.Values {
		key, err := parseKey(v.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("value %s: %w", v.Key, err)
		}
		cv, err := v.CLValue.toCLValue()
		if err != nil {
			return nil, nil, fmt.Errorf("value %s: %w", v.Key, err)
		}
		reader.Put(key, cv)
	}

	for _, w := range gf.Wasm {
		key, err := parseKey(w.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("wasm %s: %w", w.Key, err)
		}
		bytesVal, err := os.ReadFile(w.File)
		if err != nil {
			return nil, nil, fmt.Errorf("wasm %s: reading %s: %w", w.Key, w.File, err)
		}
		reader.Put(key, core.ContractWasm{Bytes: bytesVal})
	}

	return reader, accountKeys, nil
}
