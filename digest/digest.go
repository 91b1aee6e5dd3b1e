// Package digest maps messages to the integers that get signed.
package digest

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"
	"strings"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mdehoog/poseidon/poseidon"

	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

// Digester turns a message into a non-negative integer. The output is not
// reduced modulo any RSA modulus.
type Digester interface {
	Digest(message []byte) (*big.Int, error)
	Name() string
}

// SHA256 interprets the SHA-256 hash as a big-endian integer.
type SHA256 struct{}

func (SHA256) Name() string { return "sha256" }

func (SHA256) Digest(message []byte) (*big.Int, error) {
	h := sha256.Sum256(message)
	return new(big.Int).SetBytes(h[:]), nil
}

// Keccak256 interprets the Ethereum Keccak-256 hash as a big-endian integer.
type Keccak256 struct{}

func (Keccak256) Name() string { return "keccak256" }

func (Keccak256) Digest(message []byte) (*big.Int, error) {
	return new(big.Int).SetBytes(crypto.Keccak256(message)), nil
}

// Poseidon hashes the message over the BN254 scalar field. The message is split
// into 31-byte big-endian chunks so every chunk is a canonical field element.
type Poseidon struct{}

func (Poseidon) Name() string { return "poseidon" }

func (Poseidon) Digest(message []byte) (*big.Int, error) {
	if message == nil {
		message = []byte{}
	}

	elements, err := utils.BytesToElements(message, utils.ElementSize)
	if err != nil {
		return nil, fmt.Errorf("failed to convert message to field elements: %w", err)
	}

	// Bind the length so that trailing zero bytes change the digest.
	inputs := append([]*big.Int{big.NewInt(int64(len(message)))}, elements...)

	h, err := poseidon.HashMulti[*bn254fr.Element](inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	return h, nil
}

var registry = map[string]Digester{
	SHA256{}.Name():    SHA256{},
	Keccak256{}.Name(): Keccak256{},
	Poseidon{}.Name():  Poseidon{},
}

// ByName looks up a digester by its Name.
func ByName(name string) (Digester, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown digest %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists the registered digesters in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
