package circuits_test

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/test"

	"github.com/coinbase/smart-wallet/textbookrsa/circuits"
	"github.com/coinbase/smart-wallet/textbookrsa/circuits/rsa"
	"github.com/coinbase/smart-wallet/textbookrsa/digest"
	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

func generateSignedDigest(t *testing.T, d *big.Int) (*keys.KeyParameters, *big.Int) {
	t.Helper()

	kp, err := keys.DeriveKeyParameters(256)
	if err != nil {
		t.Fatalf("Failed to derive key parameters: %v", err)
	}

	sig, err := kp.Sign(d)
	if err != nil {
		t.Fatalf("Failed to sign digest: %v", err)
	}

	return kp, sig
}

func TestTextbookSignature(t *testing.T) {
	assert := test.NewAssert(t)

	d, err := digest.SHA256{}.Digest([]byte("textbook rsa"))
	assert.NoError(err)

	kp, sig := generateSignedDigest(t, d)

	err = test.IsSolved(
		&circuits.TextbookSignatureCircuit[rsa.Mod1e512]{},
		&circuits.TextbookSignatureCircuit[rsa.Mod1e512]{
			Digest:    emulated.ValueOf[rsa.Mod1e512](d),
			Modulus:   emulated.ValueOf[rsa.Mod1e512](kp.N),
			Signature: emulated.ValueOf[rsa.Mod1e512](sig),
		},
		ecc.BN254.ScalarField(),
	)
	assert.NoError(err)
}

func TestTextbookSignature_WrongDigest(t *testing.T) {
	assert := test.NewAssert(t)

	d, err := digest.SHA256{}.Digest([]byte("textbook rsa"))
	assert.NoError(err)

	kp, sig := generateSignedDigest(t, d)
	wrong := new(big.Int).Add(d, big.NewInt(1))

	err = test.IsSolved(
		&circuits.TextbookSignatureCircuit[rsa.Mod1e512]{},
		&circuits.TextbookSignatureCircuit[rsa.Mod1e512]{
			Digest:    emulated.ValueOf[rsa.Mod1e512](wrong),
			Modulus:   emulated.ValueOf[rsa.Mod1e512](kp.N),
			Signature: emulated.ValueOf[rsa.Mod1e512](sig),
		},
		ecc.BN254.ScalarField(),
	)
	assert.Error(err)
}

func TestNativeDigestSignature(t *testing.T) {
	assert := test.NewAssert(t)

	d, err := digest.Poseidon{}.Digest([]byte("textbook rsa"))
	assert.NoError(err)

	kp, sig := generateSignedDigest(t, d)

	err = test.IsSolved(
		&circuits.NativeDigestSignatureCircuit[rsa.Mod1e512]{},
		&circuits.NativeDigestSignatureCircuit[rsa.Mod1e512]{
			Digest:    d,
			Modulus:   emulated.ValueOf[rsa.Mod1e512](kp.N),
			Signature: emulated.ValueOf[rsa.Mod1e512](sig),
		},
		ecc.BN254.ScalarField(),
	)
	assert.NoError(err)
}
