package core

// StoredValue is anything that can live at a Key in global state. It is
// modeled as a small closed interface rather than a tagged struct: each
// variant is its own Go type, and TypeName distinguishes them for logging
// and for the type-mismatch errors TrackingCopy.Add returns when an Add
// transform targets a value it cannot be combined with.
type StoredValue interface {
	// TypeName returns a short, stable name for diagnostics and error
	// messages — never used as a wire discriminant (CLValue carries its own
	// type tag; the other variants are distinguished structurally).
	TypeName() string
}

// CLValue already satisfies StoredValue; most keys in global state hold one.
func (v CLValue) TypeName() string { return "CLValue(" + v.Type.Tag.String() + ")" }

// Account is the root record addressed by a KeyAccount key: its named keys
// (the account's personal URef/contract directory) and its main purse.
type Account struct {
	PublicKey []byte
	MainPurse Key
	NamedKeys map[string]Key
}

func (Account) TypeName() string { return "Account" }

// Clone returns a deep copy so callers can mutate NamedKeys without
// aliasing the version held in a cache or in the underlying StateReader.
func (a Account) Clone() Account {
	out := Account{PublicKey: append([]byte(nil), a.PublicKey...), MainPurse: a.MainPurse}
	out.NamedKeys = make(map[string]Key, len(a.NamedKeys))
	for k, v := range a.NamedKeys {
		out.NamedKeys[k] = v
	}
	return out
}

// ContractWasm is the raw, validated wasm module bytes for a deployed
// contract, addressed by its content hash (KeyHash).
type ContractWasm struct {
	Bytes []byte
}

func (ContractWasm) TypeName() string { return "ContractWasm" }

// Contract is one deployed version of a contract: a pointer to its wasm
// bytes plus the named keys it was instantiated with (the known_refs seed
// for any execution of it — spec.md §4.5 "known_refs").
type Contract struct {
	WasmHash      Key
	NamedKeys     map[string]Key
	ProtocolVersion uint32
}

func (Contract) TypeName() string { return "Contract" }

func (c Contract) Clone() Contract {
	out := Contract{WasmHash: c.WasmHash, ProtocolVersion: c.ProtocolVersion}
	out.NamedKeys = make(map[string]Key, len(c.NamedKeys))
	for k, v := range c.NamedKeys {
		out.NamedKeys[k] = v
	}
	return out
}

// ContractPackage groups every version of a contract ever deployed under one
// stable identity, plus the owner/paused lifecycle metadata supplemented
// from the original source's contract/package records (SPEC_FULL.md §D.1).
type ContractPackage struct {
	Owner    Key
	Paused   bool
	Versions map[uint32]Key // protocol version -> Key of that version's Contract
}

func (ContractPackage) TypeName() string { return "ContractPackage" }

func (p ContractPackage) Clone() ContractPackage {
	out := ContractPackage{Owner: p.Owner, Paused: p.Paused}
	out.Versions = make(map[uint32]Key, len(p.Versions))
	for k, v := range p.Versions {
		out.Versions[k] = v
	}
	return out
}
