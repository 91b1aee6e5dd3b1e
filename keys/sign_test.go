package keys

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_ToyVector(t *testing.T) {
	n := big.NewInt(3233)

	// 65^2753 mod 3233 = 588 and 588^17 mod 3233 = 65.
	sig, err := Sign(big.NewInt(65), big.NewInt(2753), n)
	require.NoError(t, err)
	assert.Equal(t, int64(588), sig.Int64())

	recovered, err := Verify(sig, big.NewInt(17), n)
	require.NoError(t, err)
	assert.Equal(t, int64(65), recovered.Int64())

	require.NoError(t, VerifyDigest(sig, big.NewInt(65), big.NewInt(17), n))
	require.ErrorIs(t, VerifyDigest(sig, big.NewInt(66), big.NewInt(17), n), ErrSignatureMismatch)

	// The same pair read in the other direction: 2790^2753 mod 3233 = 65.
	sig, err = Sign(big.NewInt(2790), big.NewInt(2753), n)
	require.NoError(t, err)
	assert.Equal(t, int64(65), sig.Int64())

	recovered, err = Verify(big.NewInt(65), big.NewInt(17), n)
	require.NoError(t, err)
	assert.Equal(t, int64(2790), recovered.Int64())
}

func TestSign_RoundTrip(t *testing.T) {
	kp, err := DeriveKeyParameters(512)
	require.NoError(t, err)
	pub := kp.PublicKey()

	for i := 0; i < 16; i++ {
		m, err := rand.Int(rand.Reader, kp.N)
		require.NoError(t, err)
		if new(big.Int).GCD(nil, nil, m, kp.N).Cmp(big.NewInt(1)) != 0 {
			continue
		}

		sig, err := kp.Sign(m)
		require.NoError(t, err)
		assert.True(t, sig.Sign() >= 0 && sig.Cmp(kp.N) < 0)

		recovered, err := pub.Verify(sig)
		require.NoError(t, err)
		assert.Equal(t, 0, recovered.Cmp(m))
		require.NoError(t, pub.VerifyDigest(sig, m))
	}
}

func TestSign_Deterministic(t *testing.T) {
	kp, err := DeriveKeyParameters(128)
	require.NoError(t, err)

	digest := big.NewInt(0xC0FFEE)
	first, err := kp.Sign(digest)
	require.NoError(t, err)
	second, err := kp.Sign(digest)
	require.NoError(t, err)

	assert.Equal(t, 0, first.Cmp(second))
	assert.Equal(t, int64(0xC0FFEE), digest.Int64(), "Sign mutated its input")
}

func TestSign_Preconditions(t *testing.T) {
	n := big.NewInt(3233)
	d := big.NewInt(2753)

	cases := []struct {
		name      string
		digest    *big.Int
		d, n      *big.Int
		errSubstr string
	}{
		{"digest equal to n", big.NewInt(3233), d, n, "digest"},
		{"digest above n", big.NewInt(5000), d, n, "digest"},
		{"negative digest", big.NewInt(-1), d, n, "digest"},
		{"nil digest", nil, d, n, "digest"},
		{"zero exponent", big.NewInt(65), big.NewInt(0), n, "exponent"},
		{"nil modulus", big.NewInt(65), d, nil, "modulus"},
		{"modulus one", big.NewInt(0), d, big.NewInt(1), "modulus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sign(tc.digest, tc.d, tc.n)
			require.ErrorIs(t, err, ErrPreconditionViolation)
			assert.Contains(t, err.Error(), tc.errSubstr)
		})
	}
}

func TestVerify_Preconditions(t *testing.T) {
	n := big.NewInt(3233)

	_, err := Verify(big.NewInt(3233), big.NewInt(17), n)
	require.ErrorIs(t, err, ErrPreconditionViolation)

	_, err = Verify(big.NewInt(2790), big.NewInt(-17), n)
	require.ErrorIs(t, err, ErrPreconditionViolation)

	err = VerifyDigest(big.NewInt(2790), big.NewInt(4000), big.NewInt(17), n)
	require.ErrorIs(t, err, ErrPreconditionViolation)
}

func TestSign_ZeroAndOne(t *testing.T) {
	kp, err := DeriveFromPrimes(big.NewInt(61), big.NewInt(53), big.NewInt(17))
	require.NoError(t, err)

	for _, v := range []int64{0, 1} {
		sig, err := kp.Sign(big.NewInt(v))
		require.NoError(t, err)
		assert.Equal(t, v, sig.Int64())
	}
}
