package utils

import (
	"fmt"
	"math/big"
)

// ElementSize is the number of bytes that always fit below the BN254 scalar field modulus.
const ElementSize = 31

func BytesToElements(bytes []byte, elementSize int) ([]*big.Int, error) {
	if bytes == nil {
		return nil, fmt.Errorf("input bytes cannot be nil")
	}
	if elementSize <= 0 {
		return nil, fmt.Errorf("invalid element size: %d", elementSize)
	}

	l := len(bytes)
	count := l / elementSize
	ceilCount := (l + elementSize - 1) / elementSize

	elements := make([]*big.Int, ceilCount)
	for i := range count {
		elements[i] = new(big.Int).SetBytes(bytes[i*elementSize : (i+1)*elementSize])
	}

	if l%elementSize != 0 {
		elements[count] = new(big.Int).SetBytes(bytes[count*elementSize:])
	}

	return elements, nil
}

// ByteLen is the number of bytes needed to hold v.
func ByteLen(v *big.Int) int {
	return (v.BitLen() + 7) / 8
}

// PadToSize returns v as a big-endian byte slice of exactly size bytes.
func PadToSize(v *big.Int, size int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value cannot be encoded")
	}

	b := v.Bytes()
	if len(b) > size {
		return nil, fmt.Errorf("value needs %d bytes, only %d available", len(b), size)
	}

	padded := make([]byte, size)
	copy(padded[size-len(b):], b)

	return padded, nil
}
