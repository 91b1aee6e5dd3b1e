package keys

import (
	"fmt"
	"math/big"
)

// Sign computes digest^d mod n.
//
// The digest must already lie in [0, n). It is rejected, not reduced, when it
// does not: reducing here would hide a digest producer that emits values too
// wide for the modulus.
func Sign(digest, d, n *big.Int) (*big.Int, error) {
	if err := checkModulus(n); err != nil {
		return nil, err
	}
	if d == nil || d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: private exponent must be positive", ErrPreconditionViolation)
	}
	if err := checkResidue("digest", digest, n); err != nil {
		return nil, err
	}

	return new(big.Int).Exp(digest, d, n), nil
}

// Verify computes signature^e mod n, which recovers the signed digest.
func Verify(signature, e, n *big.Int) (*big.Int, error) {
	if err := checkModulus(n); err != nil {
		return nil, err
	}
	if e == nil || e.Sign() <= 0 {
		return nil, fmt.Errorf("%w: public exponent must be positive", ErrPreconditionViolation)
	}
	if err := checkResidue("signature", signature, n); err != nil {
		return nil, err
	}

	return new(big.Int).Exp(signature, e, n), nil
}

// VerifyDigest recovers the digest from signature and compares it with digest.
func VerifyDigest(signature, digest, e, n *big.Int) error {
	if err := checkResidue("digest", digest, n); err != nil {
		return err
	}

	recovered, err := Verify(signature, e, n)
	if err != nil {
		return err
	}

	if recovered.Cmp(digest) != 0 {
		return ErrSignatureMismatch
	}

	return nil
}

// Sign signs digest with the private exponent.
func (kp *KeyParameters) Sign(digest *big.Int) (*big.Int, error) {
	return Sign(digest, kp.D, kp.N)
}

// Verify recovers the digest from signature.
func (pk PublicKey) Verify(signature *big.Int) (*big.Int, error) {
	return Verify(signature, pk.E, pk.N)
}

// VerifyDigest checks that signature recovers digest.
func (pk PublicKey) VerifyDigest(signature, digest *big.Int) error {
	return VerifyDigest(signature, digest, pk.E, pk.N)
}

func checkModulus(n *big.Int) error {
	if n == nil || n.Cmp(big.NewInt(1)) <= 0 {
		return fmt.Errorf("%w: modulus must be greater than 1", ErrPreconditionViolation)
	}
	return nil
}

func checkResidue(name string, v, n *big.Int) error {
	if v == nil {
		return fmt.Errorf("%w: %s is nil", ErrPreconditionViolation, name)
	}
	if v.Sign() < 0 || (n != nil && v.Cmp(n) >= 0) {
		return fmt.Errorf("%w: %s must lie in [0, n)", ErrPreconditionViolation, name)
	}
	return nil
}
