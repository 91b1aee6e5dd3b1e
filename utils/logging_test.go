package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

func TestPrimeSearchLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "debug")
	require.NoError(t, err)

	gen := keys.NewPrimeGenerator().WithObserver(PrimeSearchLogger(log))
	_, err = gen.GeneratePrime(64)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "probable prime found")
	assert.NotContains(t, buf.String(), "candidate rejected")

	_, err = NewLogger(&buf, "loud")
	require.Error(t, err)
}
