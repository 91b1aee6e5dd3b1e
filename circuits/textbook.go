package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"

	"github.com/coinbase/smart-wallet/textbookrsa/circuits/rsa"
)

// TextbookSignatureCircuit proves knowledge of a textbook RSA signature over a
// public digest under a public modulus with e = 65537.
type TextbookSignatureCircuit[T emulated.FieldParams] struct {
	// Public inputs.
	Digest  emulated.Element[T] `gnark:",public"`
	Modulus emulated.Element[T] `gnark:",public"`

	// Private inputs.
	Signature emulated.Element[T]
}

func (c *TextbookSignatureCircuit[T]) Define(api frontend.API) error {
	return rsa.VerifyTextbookSignature(api, &c.Digest, &c.Signature, &c.Modulus)
}

// NativeDigestSignatureCircuit is TextbookSignatureCircuit for digests that fit
// in the native field, such as Poseidon digests over BN254.
type NativeDigestSignatureCircuit[T emulated.FieldParams] struct {
	// Public inputs.
	Digest  frontend.Variable   `gnark:",public"`
	Modulus emulated.Element[T] `gnark:",public"`

	// Private inputs.
	Signature emulated.Element[T]
}

func (c *NativeDigestSignatureCircuit[T]) Define(api frontend.API) error {
	digest := ToEmulatedElement[T](api, c.Digest)
	return rsa.VerifyTextbookSignature(api, digest, &c.Signature, &c.Modulus)
}
