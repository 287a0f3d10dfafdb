package runtime

import "testing"

func TestAddressGeneratorDeterministicSequence(t *testing.T) {
	var deployHash [32]byte
	copy(deployHash[:], []byte("deterministic-deploy-hash-test!"))

	g1 := NewAddressGenerator(deployHash)
	g2 := NewAddressGenerator(deployHash)

	for i := 0; i < 5; i++ {
		a1 := g1.Next()
		a2 := g2.Next()
		if a1 != a2 {
			t.Fatalf("iteration %d: addresses diverged: %x != %x", i, a1, a2)
		}
	}
}

func TestAddressGeneratorNeverRepeatsWithinOneSequence(t *testing.T) {
	var deployHash [32]byte
	copy(deployHash[:], []byte("another-deploy-hash"))
	g := NewAddressGenerator(deployHash)

	seen := make(map[[32]byte]bool)
	for i := 0; i < 50; i++ {
		a := g.Next()
		if seen[a] {
			t.Fatalf("address repeated at iteration %d", i)
		}
		seen[a] = true
	}
}

func TestAddressGeneratorDifferentDeploysDiverge(t *testing.T) {
	var h1, h2 [32]byte
	copy(h1[:], []byte("deploy-one"))
	copy(h2[:], []byte("deploy-two"))

	if NewAddressGenerator(h1).Next() == NewAddressGenerator(h2).Next() {
		t.Fatal("distinct deploy hashes produced the same first address")
	}
}
