package rsa

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
)

// PublicExponent is the only exponent the circuit supports.
const PublicExponent = 65537

// VerifyTextbookSignature asserts signature^65537 ≡ digest (mod modulus).
// There is no padding check: the digest is compared as a bare integer.
func VerifyTextbookSignature[T emulated.FieldParams](api frontend.API, digest, signature, modulus *emulated.Element[T]) error {
	f, err := emulated.NewField[T](api)
	if err != nil {
		return err
	}

	// TODO: Range-check signature and digest against modulus once the verifier
	// needs to reject non-canonical encodings.

	em := rsaModExp(f, signature, modulus)
	f.ModAssertIsEqual(em, digest, modulus)

	return nil
}

func rsaModExp[T emulated.FieldParams](f *emulated.Field[T], base, modulus *emulated.Element[T]) *emulated.Element[T] {
	// 65537 = 2^16 + 1: sixteen squarings and one multiplication.
	acc := base
	for range 16 {
		acc = f.ModMul(acc, acc, modulus)
	}
	acc = f.ModMul(acc, base, modulus)

	return acc
}
