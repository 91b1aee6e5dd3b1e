package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
)

// ToEmulatedElement decomposes a native variable into the limbs of an emulated element.
func ToEmulatedElement[F emulated.FieldParams](api frontend.API, v frontend.Variable) *emulated.Element[F] {
	var fr F
	nbBits := int(fr.NbLimbs() * fr.BitsPerLimb())
	if fieldBits := api.Compiler().FieldBitLen(); fieldBits < nbBits {
		nbBits = fieldBits
	}

	binary := api.ToBinary(v, nbBits)
	return binaryToEmulatedElement[F](api, binary)
}

// binaryToEmulatedElement packs little-endian bits into limbs of BitsPerLimb bits,
// zero-filling limbs the bits do not reach.
func binaryToEmulatedElement[F emulated.FieldParams](api frontend.API, binary []frontend.Variable) *emulated.Element[F] {
	var fr F
	bitsPerLimb := int(fr.BitsPerLimb())
	limbs := make([]frontend.Variable, fr.NbLimbs())

	for i := range limbs {
		start := i * bitsPerLimb
		if start >= len(binary) {
			limbs[i] = 0
			continue
		}
		end := min(start+bitsPerLimb, len(binary))
		limbs[i] = api.FromBinary(binary[start:end]...)
	}

	return &emulated.Element[F]{Limbs: limbs}
}
