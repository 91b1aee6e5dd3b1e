package keys

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Integers are encoded as 0x-prefixed big-endian hex. hexutil.Big is capped at
// 256 bits when decoding, so the byte form is used instead.

type keyParametersJSON struct {
	P    hexutil.Bytes `json:"p"`
	Q    hexutil.Bytes `json:"q"`
	N    hexutil.Bytes `json:"n"`
	PhiN hexutil.Bytes `json:"phi_n"`
	E    hexutil.Bytes `json:"e"`
	D    hexutil.Bytes `json:"d"`
}

type publicKeyJSON struct {
	N hexutil.Bytes `json:"n"`
	E hexutil.Bytes `json:"e"`
}

// MarshalJSON encodes the full parameter set, secret exponent included.
func (kp KeyParameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyParametersJSON{
		P:    intBytes(kp.P),
		Q:    intBytes(kp.Q),
		N:    intBytes(kp.N),
		PhiN: intBytes(kp.PhiN),
		E:    intBytes(kp.E),
		D:    intBytes(kp.D),
	})
}

// UnmarshalJSON decodes a parameter set and validates it.
func (kp *KeyParameters) UnmarshalJSON(data []byte) error {
	var raw keyParametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded := KeyParameters{
		P:    new(big.Int).SetBytes(raw.P),
		Q:    new(big.Int).SetBytes(raw.Q),
		N:    new(big.Int).SetBytes(raw.N),
		PhiN: new(big.Int).SetBytes(raw.PhiN),
		E:    new(big.Int).SetBytes(raw.E),
		D:    new(big.Int).SetBytes(raw.D),
	}
	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("invalid key parameters: %w", err)
	}

	*kp = decoded
	return nil
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicKeyJSON{
		N: intBytes(pk.N),
		E: intBytes(pk.E),
	})
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var raw publicKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pk.N = new(big.Int).SetBytes(raw.N)
	pk.E = new(big.Int).SetBytes(raw.E)
	return nil
}

func intBytes(v *big.Int) hexutil.Bytes {
	if v == nil {
		return hexutil.Bytes{}
	}
	return v.Bytes()
}
