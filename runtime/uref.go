package runtime

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"execore/core"
)

// AddressGenerator deterministically derives fresh 32-byte URef addresses
// for one execution. It is seeded by the deploy hash and chains forward
// with crypto.Keccak256 (the same hashing primitive the teacher's
// core/contracts.go uses for DeriveContractAddress), incrementing an
// internal counter so repeated executions of the same deploy produce the
// same sequence of addresses — determinism here is the generator's
// contract, consumed by TrackingCopy/Runtime without further checking
// (spec.md §6 "URef generation").
type AddressGenerator struct {
	deployHash [32]byte
	counter    uint64
}

// NewAddressGenerator seeds a generator from a deploy hash.
func NewAddressGenerator(deployHash [32]byte) *AddressGenerator {
	return &AddressGenerator{deployHash: deployHash}
}

// Next returns the next deterministic 32-byte address in the sequence.
func (g *AddressGenerator) Next() [32]byte {
	var counterBytes [8]byte
	binary.LittleEndian.PutUint64(counterBytes[:], g.counter)
	g.counter++
	h := crypto.Keccak256(g.deployHash[:], counterBytes[:])
	var out [32]byte
	copy(out[:], h)
	return out
}

// NextURef allocates a fresh URef key with the given access rights.
func (g *AddressGenerator) NextURef(rights core.AccessRights) core.Key {
	return core.NewURefKey(g.Next(), rights)
}
