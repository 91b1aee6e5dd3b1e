package keys

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// DefaultPrimalityRounds gives big.Int.ProbablyPrime a false-positive bound of
// 4^-64 = 2^-128 for adversarially chosen composites, on top of Baillie-PSW.
const DefaultPrimalityRounds = 64

// PrimalityTester reports whether a candidate is probably prime.
// An error means the test itself failed, not that the candidate is composite.
type PrimalityTester interface {
	ProbablyPrime(candidate *big.Int) (bool, error)
}

// MillerRabin is the default PrimalityTester, backed by math/big.
type MillerRabin struct {
	Rounds int
}

func (m MillerRabin) ProbablyPrime(candidate *big.Int) (bool, error) {
	if m.Rounds < 0 {
		return false, fmt.Errorf("negative round count %d", m.Rounds)
	}
	return candidate.ProbablyPrime(m.Rounds), nil
}

// SearchObserver is called once per tested candidate. Iterations start at 1.
type SearchObserver func(bitLength, iteration int, candidate *big.Int, probablyPrime bool)

// PrimeSearchStats describes a completed prime search.
type PrimeSearchStats struct {
	BitLength  int
	Iterations int
}

// PrimeGenerator finds probable primes of an exact bit length by rejection sampling.
// A PrimeGenerator holds no state between searches and is safe for concurrent use
// when its random source and tester are.
type PrimeGenerator struct {
	Random        io.Reader
	Tester        PrimalityTester
	MaxIterations int // 0 = unbounded
	Observer      SearchObserver
}

// NewPrimeGenerator creates a generator reading crypto/rand with the default tester.
func NewPrimeGenerator() *PrimeGenerator {
	return &PrimeGenerator{
		Random: rand.Reader,
		Tester: MillerRabin{Rounds: DefaultPrimalityRounds},
	}
}

// WithRandom sets the entropy source.
func (g *PrimeGenerator) WithRandom(r io.Reader) *PrimeGenerator {
	g.Random = r
	return g
}

// WithPrimalityTester sets the primality oracle.
func (g *PrimeGenerator) WithPrimalityTester(t PrimalityTester) *PrimeGenerator {
	g.Tester = t
	return g
}

// WithMaxIterations sets a deadlock guard on the search. Zero disables it.
func (g *PrimeGenerator) WithMaxIterations(n int) *PrimeGenerator {
	g.MaxIterations = n
	return g
}

// WithObserver installs a per-candidate callback.
func (g *PrimeGenerator) WithObserver(o SearchObserver) *PrimeGenerator {
	g.Observer = o
	return g
}

// GeneratePrime returns a probable prime v with 2^(bitLength-1) <= v <= 2^bitLength - 1.
func (g *PrimeGenerator) GeneratePrime(bitLength int) (*big.Int, error) {
	p, _, err := g.GeneratePrimeWithStats(bitLength)
	return p, err
}

// GeneratePrimeWithStats is GeneratePrime that also reports how many candidates were drawn.
//
// Each iteration draws a uniform candidate from [2^(bitLength-1), 2^bitLength - 1],
// bumps it by one if even and hands it to the tester. The upper bound is odd, so the
// bump never leaves the range. The expected number of iterations is about
// ln(2^bitLength) / 2.
func (g *PrimeGenerator) GeneratePrimeWithStats(bitLength int) (*big.Int, PrimeSearchStats, error) {
	stats := PrimeSearchStats{BitLength: bitLength}

	if bitLength < 2 {
		return nil, stats, fmt.Errorf("%w: got %d", ErrInvalidBitLength, bitLength)
	}
	if g.MaxIterations < 0 {
		return nil, stats, fmt.Errorf("%w: negative iteration cap %d", ErrPreconditionViolation, g.MaxIterations)
	}

	random := g.Random
	if random == nil {
		random = rand.Reader
	}
	tester := g.Tester
	if tester == nil {
		tester = MillerRabin{Rounds: DefaultPrimalityRounds}
	}

	// lower = 2^(bitLength-1); the span of the range is also 2^(bitLength-1).
	lower := new(big.Int).Lsh(big.NewInt(1), uint(bitLength-1))
	span := new(big.Int).Set(lower)

	for {
		if g.MaxIterations > 0 && stats.Iterations >= g.MaxIterations {
			return nil, stats, fmt.Errorf("%w: %d candidates of %d bits", ErrIterationCapExceeded, stats.Iterations, bitLength)
		}
		stats.Iterations++

		offset, err := rand.Int(random, span)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %w", ErrRandomSource, err)
		}

		candidate := offset.Add(offset, lower)
		if candidate.Bit(0) == 0 {
			candidate.Add(candidate, big.NewInt(1))
		}

		ok, err := tester.ProbablyPrime(candidate)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %w", ErrPrimalityTest, err)
		}

		if g.Observer != nil {
			g.Observer(bitLength, stats.Iterations, new(big.Int).Set(candidate), ok)
		}

		if ok {
			return candidate, stats, nil
		}
	}
}

// GeneratePrime draws a probable prime of bitLength bits from crypto/rand.
func GeneratePrime(bitLength int) (*big.Int, error) {
	return NewPrimeGenerator().GeneratePrime(bitLength)
}
