package utils

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"

	"github.com/coinbase/smart-wallet/textbookrsa/circuits"
	"github.com/coinbase/smart-wallet/textbookrsa/circuits/rsa"
	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

func GenerateWitness[RSAFieldParams emulated.FieldParams](
	publicKey keys.PublicKey,
	digest *big.Int,
	signature *big.Int,
) (assignment *circuits.TextbookSignatureCircuit[RSAFieldParams], w witness.Witness, err error) {
	if err = checkCircuitInputs[RSAFieldParams](publicKey, digest, signature); err != nil {
		return nil, nil, err
	}

	assignment = &circuits.TextbookSignatureCircuit[RSAFieldParams]{
		// Public inputs.
		Digest:  emulated.ValueOf[RSAFieldParams](digest),
		Modulus: emulated.ValueOf[RSAFieldParams](publicKey.N),

		// Private inputs.
		Signature: emulated.ValueOf[RSAFieldParams](signature),
	}

	w, err = frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create witness: %w", err)
	}

	return assignment, w, nil
}

func GenerateNativeDigestWitness[RSAFieldParams emulated.FieldParams](
	publicKey keys.PublicKey,
	digest *big.Int,
	signature *big.Int,
) (assignment *circuits.NativeDigestSignatureCircuit[RSAFieldParams], w witness.Witness, err error) {
	if err = checkCircuitInputs[RSAFieldParams](publicKey, digest, signature); err != nil {
		return nil, nil, err
	}

	field := ecc.BN254.ScalarField()
	if digest.Cmp(field) >= 0 {
		return nil, nil, fmt.Errorf("digest does not fit in the BN254 scalar field")
	}

	assignment = &circuits.NativeDigestSignatureCircuit[RSAFieldParams]{
		// Public inputs.
		Digest:  new(big.Int).Set(digest),
		Modulus: emulated.ValueOf[RSAFieldParams](publicKey.N),

		// Private inputs.
		Signature: emulated.ValueOf[RSAFieldParams](signature),
	}

	w, err = frontend.NewWitness(assignment, field)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create witness: %w", err)
	}

	return assignment, w, nil
}

func checkCircuitInputs[RSAFieldParams emulated.FieldParams](publicKey keys.PublicKey, digest, signature *big.Int) error {
	if publicKey.E == nil || publicKey.E.Cmp(big.NewInt(rsa.PublicExponent)) != 0 {
		return fmt.Errorf("circuit only supports e = %d", rsa.PublicExponent)
	}

	var fp RSAFieldParams
	capacity := int(fp.NbLimbs() * fp.BitsPerLimb())
	if publicKey.N == nil || publicKey.N.BitLen() > capacity {
		return fmt.Errorf("modulus does not fit in %d bits", capacity)
	}

	if err := keys.VerifyDigest(signature, digest, publicKey.E, publicKey.N); err != nil {
		return fmt.Errorf("signature does not verify: %w", err)
	}

	return nil
}

// ModulusBits returns the widest modulus the field parameters can hold.
func ModulusBits[RSAFieldParams emulated.FieldParams]() int {
	var fp RSAFieldParams
	return int(fp.NbLimbs() * fp.BitsPerLimb())
}

// WitnessForModulus picks the smallest supported field parameters for the modulus
// and builds the witness for the emulated-digest circuit.
func WitnessForModulus(publicKey keys.PublicKey, digest, signature *big.Int) (frontend.Circuit, witness.Witness, error) {
	if publicKey.N == nil {
		return nil, nil, fmt.Errorf("missing modulus")
	}
	return WitnessForBits(publicKey.N.BitLen(), publicKey, digest, signature)
}

// WitnessForBits builds a witness for the circuit that CircuitForBits(bits) returns.
func WitnessForBits(bits int, publicKey keys.PublicKey, digest, signature *big.Int) (frontend.Circuit, witness.Witness, error) {
	var (
		circuit frontend.Circuit
		w       witness.Witness
		err     error
	)

	switch {
	case bits <= ModulusBits[rsa.Mod1e512]():
		circuit = &circuits.TextbookSignatureCircuit[rsa.Mod1e512]{}
		_, w, err = GenerateWitness[rsa.Mod1e512](publicKey, digest, signature)
	case bits <= ModulusBits[rsa.Mod1e1024]():
		circuit = &circuits.TextbookSignatureCircuit[rsa.Mod1e1024]{}
		_, w, err = GenerateWitness[rsa.Mod1e1024](publicKey, digest, signature)
	case bits <= ModulusBits[rsa.Mod1e2048]():
		circuit = &circuits.TextbookSignatureCircuit[rsa.Mod1e2048]{}
		_, w, err = GenerateWitness[rsa.Mod1e2048](publicKey, digest, signature)
	default:
		return nil, nil, fmt.Errorf("modulus of %d bits exceeds the largest circuit (%d bits)", bits, ModulusBits[rsa.Mod1e2048]())
	}
	if err != nil {
		return nil, nil, err
	}

	return circuit, w, nil
}

// CompiledModulusBits recovers the modulus capacity of a compiled
// TextbookSignatureCircuit from its public inputs: the constant wire plus the
// limbs of Digest and Modulus.
func CompiledModulusBits(cs constraint.ConstraintSystem) int {
	limbs := (cs.GetNbPublicVariables() - 1) / 2
	return limbs * 64
}

// CircuitForBits returns an empty circuit sized for a modulus of the given width.
func CircuitForBits(bits int) (frontend.Circuit, error) {
	switch {
	case bits <= ModulusBits[rsa.Mod1e512]():
		return &circuits.TextbookSignatureCircuit[rsa.Mod1e512]{}, nil
	case bits <= ModulusBits[rsa.Mod1e1024]():
		return &circuits.TextbookSignatureCircuit[rsa.Mod1e1024]{}, nil
	case bits <= ModulusBits[rsa.Mod1e2048]():
		return &circuits.TextbookSignatureCircuit[rsa.Mod1e2048]{}, nil
	default:
		return nil, fmt.Errorf("modulus of %d bits exceeds the largest circuit (%d bits)", bits, ModulusBits[rsa.Mod1e2048]())
	}
}
