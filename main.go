package main

import (
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/coinbase/smart-wallet/textbookrsa/digest"
	"github.com/coinbase/smart-wallet/textbookrsa/keys"
	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

func main() {
	log, err := utils.NewLogger(os.Stderr, "debug")
	if err != nil {
		panic(err)
	}

	gen := keys.NewPrimeGenerator().WithObserver(utils.PrimeSearchLogger(log))
	deriver := keys.NewDeriver().WithPrimeSource(gen).WithParallel(true)

	fmt.Println("Deriving key parameters...")
	kp, err := deriver.Derive(256)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Key derived. n has %d bits.\n", kp.N.BitLen())

	d, err := digest.Poseidon{}.Digest([]byte("textbook rsa"))
	if err != nil {
		panic(err)
	}

	sig, err := kp.Sign(d)
	if err != nil {
		panic(err)
	}
	if err := kp.PublicKey().VerifyDigest(sig, d); err != nil {
		panic(err)
	}
	fmt.Println("Signature verified")

	circuit, witness, err := utils.WitnessForModulus(kp.PublicKey(), d, sig)
	if err != nil {
		panic(err)
	}

	fmt.Println("Compiling...")
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Compilation done. %d constraints.\n", cs.GetNbConstraints())

	fmt.Println("Setting up Groth16 parameters...")
	pk, err := groth16.DummySetup(cs)
	if err != nil {
		panic(err)
	}
	fmt.Println("Groth16 parameters set up")

	fmt.Println("Proving...")
	if _, err := groth16.Prove(cs, pk, witness); err != nil {
		panic(err)
	}
	fmt.Println("Proof generated")
}
