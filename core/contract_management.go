package core

// ContractManager owns the contract package lifecycle supplemented from
// the original source's contract/package records (SPEC_FULL.md §D.1):
// ownership and a paused flag, stored as an ordinary ContractPackage
// StoredValue reached through the same TrackingCopy every other read/write
// goes through. Adapted from the teacher's contract_management.go, which
// kept this bookkeeping in a separate Ledger; here it is just more global
// state.
type ContractManager struct {
	tc *TrackingCopy
}

// NewContractManager wraps tc. The manager holds no state of its own beyond
// the TrackingCopy reference.
func NewContractManager(tc *TrackingCopy) *ContractManager {
	return &ContractManager{tc: tc}
}

// DeployPackage installs a fresh ContractPackage at packageKey, owned by
// owner, paused false, with no versions yet.
func (m *ContractManager) DeployPackage(packageKey Key, owner Key) {
	m.tc.Write(packageKey, ContractPackage{Owner: owner.Normalize(), Versions: map[uint32]Key{}})
}

func (m *ContractManager) getPackage(correlationID uint64, packageKey Key) (ContractPackage, error) {
	v, err := m.tc.Read(correlationID, packageKey)
	if err != nil {
		return ContractPackage{}, err
	}
	pkg, ok := v.(ContractPackage)
	if !ok {
		return ContractPackage{}, &TypeMismatchError{Expected: CLType{Tag: CLTAny}, Found: typeOf(v)}
	}
	return pkg, nil
}

// OwnerOf returns the current owner of the package at packageKey.
func (m *ContractManager) OwnerOf(correlationID uint64, packageKey Key) (Key, error) {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		return Key{}, err
	}
	return pkg.Owner, nil
}

// IsPaused reports whether the package at packageKey currently refuses
// invocation.
func (m *ContractManager) IsPaused(correlationID uint64, packageKey Key) (bool, error) {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		return false, err
	}
	return pkg.Paused, nil
}

// TransferOwnership reassigns the package at packageKey to newOwner. Only
// the current owner may call this.
func (m *ContractManager) TransferOwnership(correlationID uint64, packageKey Key, caller Key, newOwner Key) error {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		return err
	}
	if pkg.Owner != caller.Normalize() {
		return &NotAuthorizedError{Caller: caller, Owner: pkg.Owner}
	}
	pkg = pkg.Clone()
	pkg.Owner = newOwner.Normalize()
	m.tc.Write(packageKey, pkg)
	return nil
}

// PauseContract sets the paused flag. Only the owner may call this.
func (m *ContractManager) PauseContract(correlationID uint64, packageKey Key, caller Key) error {
	return m.setPaused(correlationID, packageKey, caller, true)
}

// ResumeContract clears the paused flag. Only the owner may call this.
func (m *ContractManager) ResumeContract(correlationID uint64, packageKey Key, caller Key) error {
	return m.setPaused(correlationID, packageKey, caller, false)
}

func (m *ContractManager) setPaused(correlationID uint64, packageKey Key, caller Key, paused bool) error {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		return err
	}
	if pkg.Owner != caller.Normalize() {
		return &NotAuthorizedError{Caller: caller, Owner: pkg.Owner}
	}
	pkg = pkg.Clone()
	pkg.Paused = paused
	m.tc.Write(packageKey, pkg)
	return nil
}

// UpgradeContract registers contractKey as the version'th entry of the
// package at packageKey. Only the owner may call this.
func (m *ContractManager) UpgradeContract(correlationID uint64, packageKey Key, caller Key, version uint32, contractKey Key) error {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		return err
	}
	if pkg.Owner != caller.Normalize() {
		return &NotAuthorizedError{Caller: caller, Owner: pkg.Owner}
	}
	pkg = pkg.Clone()
	pkg.Versions[version] = contractKey.Normalize()
	m.tc.Write(packageKey, pkg)
	return nil
}

// ContractInfo returns the full ContractPackage record at packageKey, for
// diagnostics and CLI inspection.
func (m *ContractManager) ContractInfo(correlationID uint64, packageKey Key) (ContractPackage, error) {
	return m.getPackage(correlationID, packageKey)
}

// RequireNotPaused is consulted by the runtime's call_contract host function before invoking a
// contract version that lives under packageKey: if no ContractPackage
// record exists there, the contract is unmanaged and invocation proceeds;
// if one exists and is paused, invocation is refused with ContractPausedError.
//
// call_contract passes the callee's own Key (which addresses a Contract, not
// a ContractPackage — Contract carries no backlink to the package it
// belongs to), so a value existing at packageKey but decoding to something
// other than ContractPackage is exactly as "unmanaged" as no value at all;
// only a genuine reader failure propagates.
func (m *ContractManager) RequireNotPaused(correlationID uint64, packageKey Key) error {
	pkg, err := m.getPackage(correlationID, packageKey)
	if err != nil {
		switch err.(type) {
		case *KeyNotFoundError, *TypeMismatchError:
			return nil
		default:
			return err
		}
	}
	if pkg.Paused {
		return &ContractPausedError{Key: packageKey}
	}
	return nil
}
