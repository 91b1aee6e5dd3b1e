package keys

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrRandomSource is returned when the entropy source fails. It is never retried.
	ErrRandomSource = errors.New("random source failure")

	// ErrPrimalityTest is returned when the primality oracle itself fails.
	// A composite candidate is not an error.
	ErrPrimalityTest = errors.New("primality test failure")

	// ErrNoModularInverse is returned when e and phi(n) share a factor.
	ErrNoModularInverse = errors.New("no modular inverse")

	// ErrPreconditionViolation is returned for inputs outside an operation's contract.
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrInvalidBitLength is returned for prime bit lengths below 2.
	ErrInvalidBitLength = fmt.Errorf("%w: bit length must be at least 2", ErrPreconditionViolation)

	// ErrIterationCapExceeded means the prime search hit its configured deadlock guard.
	// It points at a misconfigured cap or a broken random source, never at bad luck.
	ErrIterationCapExceeded = errors.New("prime search iteration cap exceeded")

	// ErrSignatureMismatch is returned when signature^e mod n differs from the expected digest.
	ErrSignatureMismatch = errors.New("signature does not match digest")
)

// NoModularInverseError carries the values that made the inverse undefined.
type NoModularInverseError struct {
	E    *big.Int
	PhiN *big.Int
	GCD  *big.Int
}

func (e *NoModularInverseError) Error() string {
	return fmt.Sprintf("%v: gcd(e=%s, phiN) = %s", ErrNoModularInverse, e.E.String(), e.GCD.String())
}

func (e *NoModularInverseError) Is(target error) bool {
	return target == ErrNoModularInverse
}
