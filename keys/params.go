package keys

import (
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// DefaultPublicExponent is F4 = 2^16 + 1.
const DefaultPublicExponent = 65537

// PrimeSource produces probable primes. *PrimeGenerator is the production implementation.
type PrimeSource interface {
	GeneratePrime(bitLength int) (*big.Int, error)
}

// PublicKey is the public half (n, e) of a key parameter set.
type PublicKey struct {
	N *big.Int
	E *big.Int
}

// KeyParameters is a full textbook RSA parameter set. D is the secret exponent;
// (N, E) is the public key. Values are not mutated after construction.
type KeyParameters struct {
	P    *big.Int
	Q    *big.Int
	N    *big.Int
	PhiN *big.Int
	E    *big.Int
	D    *big.Int
}

// PublicKey returns a copy of (n, e). Unset fields stay nil.
func (kp *KeyParameters) PublicKey() PublicKey {
	return PublicKey{
		N: copyInt(kp.N),
		E: copyInt(kp.E),
	}
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Validate rechecks the algebraic relations between the parameters.
func (kp *KeyParameters) Validate() error {
	if kp.P == nil || kp.Q == nil || kp.N == nil || kp.PhiN == nil || kp.E == nil || kp.D == nil {
		return fmt.Errorf("%w: incomplete key parameters", ErrPreconditionViolation)
	}

	if new(big.Int).Mul(kp.P, kp.Q).Cmp(kp.N) != 0 {
		return fmt.Errorf("%w: n != p*q", ErrPreconditionViolation)
	}

	if totient(kp.P, kp.Q).Cmp(kp.PhiN) != 0 {
		return fmt.Errorf("%w: phiN != (p-1)(q-1)", ErrPreconditionViolation)
	}

	ed := new(big.Int).Mul(kp.E, kp.D)
	if ed.Mod(ed, kp.PhiN).Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("%w: e*d != 1 mod phiN", ErrPreconditionViolation)
	}

	return nil
}

// Config groups the knobs of key derivation.
type Config struct {
	PrimeBitLength  int
	PublicExponent  int64
	MaxIterations   int
	PrimalityRounds int
	Parallel        bool
}

// DefaultConfig returns 1024-bit primes (a 2048-bit modulus) and e = 65537.
func DefaultConfig() Config {
	return Config{
		PrimeBitLength:  1024,
		PublicExponent:  DefaultPublicExponent,
		MaxIterations:   0, // Unbounded
		PrimalityRounds: DefaultPrimalityRounds,
		Parallel:        false,
	}
}

// Deriver builds KeyParameters from two freshly generated primes.
type Deriver struct {
	Primes         PrimeSource
	PublicExponent *big.Int
	Parallel       bool
}

// NewDeriver creates a deriver with the default prime generator and e = 65537.
func NewDeriver() *Deriver {
	return &Deriver{
		Primes:         NewPrimeGenerator(),
		PublicExponent: big.NewInt(DefaultPublicExponent),
	}
}

// NewDeriverFromConfig creates a deriver whose generator honours cfg.
func NewDeriverFromConfig(cfg Config) *Deriver {
	rounds := cfg.PrimalityRounds
	if rounds == 0 {
		rounds = DefaultPrimalityRounds
	}

	gen := NewPrimeGenerator().
		WithMaxIterations(cfg.MaxIterations).
		WithPrimalityTester(MillerRabin{Rounds: rounds})

	e := cfg.PublicExponent
	if e == 0 {
		e = DefaultPublicExponent
	}

	return NewDeriver().
		WithPrimeSource(gen).
		WithPublicExponent(big.NewInt(e)).
		WithParallel(cfg.Parallel)
}

// WithPrimeSource sets where p and q come from.
func (d *Deriver) WithPrimeSource(src PrimeSource) *Deriver {
	d.Primes = src
	return d
}

// WithPublicExponent sets e.
func (d *Deriver) WithPublicExponent(e *big.Int) *Deriver {
	d.PublicExponent = new(big.Int).Set(e)
	return d
}

// WithParallel makes Derive search for p and q concurrently. The prime source
// must then be safe for concurrent use.
func (d *Deriver) WithParallel(parallel bool) *Deriver {
	d.Parallel = parallel
	return d
}

// Derive generates two independent primes of primeBitLength bits and derives the
// remaining parameters. A coprimality failure is returned as ErrNoModularInverse;
// retrying with fresh primes is left to the caller.
func (d *Deriver) Derive(primeBitLength int) (*KeyParameters, error) {
	if primeBitLength < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBitLength, primeBitLength)
	}

	src := d.Primes
	if src == nil {
		src = NewPrimeGenerator()
	}

	e := d.PublicExponent
	if e == nil {
		e = big.NewInt(DefaultPublicExponent)
	}

	var p, q *big.Int
	if d.Parallel {
		var g errgroup.Group
		g.Go(func() (err error) {
			p, err = src.GeneratePrime(primeBitLength)
			return err
		})
		g.Go(func() (err error) {
			q, err = src.GeneratePrime(primeBitLength)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to generate primes: %w", err)
		}
	} else {
		var err error
		if p, err = src.GeneratePrime(primeBitLength); err != nil {
			return nil, fmt.Errorf("failed to generate p: %w", err)
		}
		if q, err = src.GeneratePrime(primeBitLength); err != nil {
			return nil, fmt.Errorf("failed to generate q: %w", err)
		}
	}

	return DeriveFromPrimes(p, q, e)
}

// DeriveKeyParameters derives a parameter set with e = 65537 from crypto/rand.
func DeriveKeyParameters(primeBitLength int) (*KeyParameters, error) {
	return NewDeriver().Derive(primeBitLength)
}

// DeriveFromPrimes computes n, phi(n) and d = e^-1 mod phi(n) for the given primes.
// The primality of p and q is the caller's responsibility.
func DeriveFromPrimes(p, q, e *big.Int) (*KeyParameters, error) {
	two := big.NewInt(2)
	if p == nil || q == nil || p.Cmp(two) < 0 || q.Cmp(two) < 0 {
		return nil, fmt.Errorf("%w: primes must be at least 2", ErrPreconditionViolation)
	}
	if e == nil || e.Cmp(two) < 0 {
		return nil, fmt.Errorf("%w: public exponent must be at least 2", ErrPreconditionViolation)
	}

	n := new(big.Int).Mul(p, q)
	phiN := totient(p, q)
	if phiN.Cmp(big.NewInt(1)) <= 0 {
		return nil, fmt.Errorf("%w: phi(n) = %s leaves no usable exponent", ErrPreconditionViolation, phiN)
	}

	gcd := new(big.Int).GCD(nil, nil, e, phiN)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, &NoModularInverseError{
			E:    new(big.Int).Set(e),
			PhiN: phiN,
			GCD:  gcd,
		}
	}

	dExp := new(big.Int).ModInverse(e, phiN)
	if dExp == nil {
		return nil, &NoModularInverseError{
			E:    new(big.Int).Set(e),
			PhiN: phiN,
			GCD:  gcd,
		}
	}

	return &KeyParameters{
		P:    new(big.Int).Set(p),
		Q:    new(big.Int).Set(q),
		N:    n,
		PhiN: phiN,
		E:    new(big.Int).Set(e),
		D:    dExp,
	}, nil
}

func totient(p, q *big.Int) *big.Int {
	one := big.NewInt(1)
	p1 := new(big.Int).Sub(p, one)
	q1 := new(big.Int).Sub(q, one)
	return p1.Mul(p1, q1)
}
