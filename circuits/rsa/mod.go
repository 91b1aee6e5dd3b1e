package rsa

import "math/big"

// Mod1e512 fits moduli of up to 512 bits (two 256-bit primes).
type Mod1e512 struct{}

func (Mod1e512) NbLimbs() uint     { return 8 }
func (Mod1e512) BitsPerLimb() uint { return 64 }
func (Mod1e512) IsPrime() bool     { return false }
func (Mod1e512) Modulus() *big.Int { return allOnes(512) }

// Mod1e1024 fits moduli of up to 1024 bits.
type Mod1e1024 struct{}

func (Mod1e1024) NbLimbs() uint     { return 16 }
func (Mod1e1024) BitsPerLimb() uint { return 64 }
func (Mod1e1024) IsPrime() bool     { return false }
func (Mod1e1024) Modulus() *big.Int { return allOnes(1024) }

// Mod1e2048 fits moduli of up to 2048 bits.
type Mod1e2048 struct{}

func (Mod1e2048) NbLimbs() uint     { return 32 }
func (Mod1e2048) BitsPerLimb() uint { return 64 }
func (Mod1e2048) IsPrime() bool     { return false }
func (Mod1e2048) Modulus() *big.Int { return allOnes(2048) }

func allOnes(bits uint) *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), bits)
	return v.Sub(v, big.NewInt(1))
}
