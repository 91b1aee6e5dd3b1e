package keys

import (
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedPrimes hands out a predetermined sequence of primes.
type fixedPrimes struct {
	mu     sync.Mutex
	primes []*big.Int
	calls  []int
}

func (f *fixedPrimes) GeneratePrime(bitLength int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, bitLength)
	if len(f.primes) == 0 {
		return nil, errors.New("out of primes")
	}
	p := f.primes[0]
	f.primes = f.primes[1:]
	return p, nil
}

func TestDeriveFromPrimes_ToyVector(t *testing.T) {
	kp, err := DeriveFromPrimes(big.NewInt(61), big.NewInt(53), big.NewInt(17))
	require.NoError(t, err)

	assert.Equal(t, int64(3233), kp.N.Int64())
	assert.Equal(t, int64(3120), kp.PhiN.Int64())
	assert.Equal(t, int64(17), kp.E.Int64())
	assert.Equal(t, int64(2753), kp.D.Int64())
	require.NoError(t, kp.Validate())
}

func TestDeriveKeyParameters(t *testing.T) {
	for _, bits := range []int{16, 64, 256} {
		kp, err := DeriveKeyParameters(bits)
		if errors.Is(err, ErrNoModularInverse) {
			// Possible for tiny primes; the caller decides whether to retry.
			continue
		}
		require.NoError(t, err, "bits=%d", bits)

		assert.Equal(t, 0, new(big.Int).Mul(kp.P, kp.Q).Cmp(kp.N))
		assert.Equal(t, 0, totient(kp.P, kp.Q).Cmp(kp.PhiN))
		assert.Equal(t, int64(DefaultPublicExponent), kp.E.Int64())

		ed := new(big.Int).Mul(kp.E, kp.D)
		assert.Equal(t, int64(1), ed.Mod(ed, kp.PhiN).Int64())

		assert.Equal(t, bits, kp.P.BitLen())
		assert.Equal(t, bits, kp.Q.BitLen())
		require.NoError(t, kp.Validate())
	}
}

func TestDeriver_NoModularInverse(t *testing.T) {
	// p = k*65537 + 1 makes 65537 divide p-1 and therefore phiN.
	var p *big.Int
	e := big.NewInt(DefaultPublicExponent)
	for k := int64(2); ; k += 2 {
		candidate := new(big.Int).Mul(big.NewInt(k), e)
		candidate.Add(candidate, big.NewInt(1))
		if candidate.ProbablyPrime(20) {
			p = candidate
			break
		}
	}

	src := &fixedPrimes{primes: []*big.Int{p, big.NewInt(61)}}
	kp, err := NewDeriver().WithPrimeSource(src).Derive(p.BitLen())
	require.Nil(t, kp)
	require.ErrorIs(t, err, ErrNoModularInverse)

	var nmi *NoModularInverseError
	require.True(t, errors.As(err, &nmi))
	assert.Equal(t, 0, nmi.GCD.Cmp(e))
	assert.Equal(t, []int{p.BitLen(), p.BitLen()}, src.calls)
}

func TestDeriveFromPrimes_ConfigurableExponent(t *testing.T) {
	// e = 3 divides phiN = 6 * 10 = 60.
	_, err := DeriveFromPrimes(big.NewInt(7), big.NewInt(11), big.NewInt(3))
	require.ErrorIs(t, err, ErrNoModularInverse)

	kp, err := DeriveFromPrimes(big.NewInt(7), big.NewInt(11), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, int64(43), kp.D.Int64()) // 7*43 = 301 = 5*60 + 1
}

func TestDeriveFromPrimes_Preconditions(t *testing.T) {
	cases := []struct {
		name    string
		p, q, e *big.Int
	}{
		{"nil p", nil, big.NewInt(5), big.NewInt(3)},
		{"small q", big.NewInt(5), big.NewInt(1), big.NewInt(3)},
		{"nil e", big.NewInt(5), big.NewInt(7), nil},
		{"e one", big.NewInt(5), big.NewInt(7), big.NewInt(1)},
		{"phiN one", big.NewInt(2), big.NewInt(2), big.NewInt(DefaultPublicExponent)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DeriveFromPrimes(tc.p, tc.q, tc.e)
			require.ErrorIs(t, err, ErrPreconditionViolation)
		})
	}
}

func TestDeriver_PropagatesPrimeFailure(t *testing.T) {
	gen := NewPrimeGenerator().WithRandom(failingReader{})

	_, err := NewDeriver().WithPrimeSource(gen).Derive(64)
	require.ErrorIs(t, err, ErrRandomSource)

	_, err = NewDeriver().WithPrimeSource(gen).WithParallel(true).Derive(64)
	require.ErrorIs(t, err, ErrRandomSource)

	_, err = NewDeriver().Derive(1)
	require.ErrorIs(t, err, ErrInvalidBitLength)
}

func TestDeriver_Parallel(t *testing.T) {
	src := &fixedPrimes{primes: []*big.Int{big.NewInt(61), big.NewInt(53)}}

	kp, err := NewDeriver().
		WithPrimeSource(src).
		WithPublicExponent(big.NewInt(17)).
		WithParallel(true).
		Derive(6)
	require.NoError(t, err)

	// p and q may arrive in either order; n and d do not depend on it.
	assert.Equal(t, int64(3233), kp.N.Int64())
	assert.Equal(t, int64(2753), kp.D.Int64())
	assert.Len(t, src.calls, 2)
}

func TestNewDeriverFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrimeBitLength = 128
	cfg.Parallel = true
	cfg.MaxIterations = 100000

	d := NewDeriverFromConfig(cfg)
	assert.Equal(t, int64(DefaultPublicExponent), d.PublicExponent.Int64())
	assert.True(t, d.Parallel)

	gen, ok := d.Primes.(*PrimeGenerator)
	require.True(t, ok)
	assert.Equal(t, 100000, gen.MaxIterations)
	assert.Equal(t, MillerRabin{Rounds: DefaultPrimalityRounds}, gen.Tester)

	kp, err := d.Derive(cfg.PrimeBitLength)
	require.NoError(t, err)
	require.NoError(t, kp.Validate())
}

func TestKeyParameters_Validate(t *testing.T) {
	kp, err := DeriveFromPrimes(big.NewInt(61), big.NewInt(53), big.NewInt(17))
	require.NoError(t, err)

	broken := *kp
	broken.D = big.NewInt(2752)
	require.ErrorIs(t, broken.Validate(), ErrPreconditionViolation)

	broken = *kp
	broken.N = big.NewInt(3234)
	require.ErrorIs(t, broken.Validate(), ErrPreconditionViolation)

	require.ErrorIs(t, (&KeyParameters{}).Validate(), ErrPreconditionViolation)
}

func TestKeyParameters_JSON(t *testing.T) {
	kp, err := DeriveKeyParameters(256)
	require.NoError(t, err)

	data, err := json.Marshal(kp)
	require.NoError(t, err)

	var decoded KeyParameters
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0, decoded.N.Cmp(kp.N))
	assert.Equal(t, 0, decoded.D.Cmp(kp.D))

	pub := kp.PublicKey()
	data, err = json.Marshal(pub)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"e":"0x010001"`)

	var decodedPub PublicKey
	require.NoError(t, json.Unmarshal(data, &decodedPub))
	assert.Equal(t, 0, decodedPub.N.Cmp(kp.N))

	// Tampered d must not decode.
	tampered := []byte(`{"p":"0x3d","q":"0x35","n":"0x0ca1","phi_n":"0x0c30","e":"0x11","d":"0x0ac0"}`)
	require.Error(t, json.Unmarshal(tampered, &decoded))
}

func TestKeyParameters_PublicKeyOfZeroValue(t *testing.T) {
	var kp KeyParameters
	require.NotPanics(t, func() {
		pub := kp.PublicKey()
		assert.Nil(t, pub.N)
		assert.Nil(t, pub.E)
	})

	toy, err := DeriveFromPrimes(big.NewInt(61), big.NewInt(53), big.NewInt(17))
	require.NoError(t, err)
	pub := toy.PublicKey()
	pub.N.SetInt64(1)
	assert.Equal(t, int64(3233), toy.N.Int64(), "PublicKey shares storage with the key")
}
