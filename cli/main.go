package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/coinbase/smart-wallet/textbookrsa/digest"
	"github.com/coinbase/smart-wallet/textbookrsa/keys"
	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

var logger zerolog.Logger

func newCommands() []*cli.Command {
	keyFlag := &cli.StringFlag{
		Name:     "key",
		Aliases:  []string{"k"},
		Usage:    "Path to the key parameters file",
		Required: true,
	}

	digestFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "digest",
			Aliases: []string{"d"},
			Usage:   "Digest to sign as a hex integer (0x-prefixed or bare)",
		},
		&cli.StringFlag{
			Name:    "message",
			Aliases: []string{"m"},
			Usage:   "Message to hash into the digest",
		},
		&cli.StringFlag{
			Name:  "hash",
			Usage: "Hash used with --message (" + strings.Join(digest.Names(), ", ") + ")",
			Value: "sha256",
		},
	}

	return []*cli.Command{
		{
			Name:  "prime",
			Usage: "Generate a probable prime",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "bits",
					Aliases:  []string{"b"},
					Usage:    "Exact bit length of the prime",
					Required: true,
				},
				&cli.IntFlag{
					Name:  "max-iterations",
					Usage: "Abort the search after this many candidates (0 = unbounded)",
				},
			},
			Action: GeneratePrime,
		},
		{
			Name:  "keygen",
			Usage: "Derive textbook RSA key parameters",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "bits",
					Aliases: []string{"b"},
					Usage:   "Bit length of each prime (the modulus is about twice as wide)",
					Value:   keys.DefaultConfig().PrimeBitLength,
				},
				&cli.Int64Flag{
					Name:    "exponent",
					Aliases: []string{"e"},
					Usage:   "Public exponent",
					Value:   keys.DefaultPublicExponent,
				},
				&cli.IntFlag{
					Name:  "max-iterations",
					Usage: "Abort each prime search after this many candidates (0 = unbounded)",
				},
				&cli.BoolFlag{
					Name:  "parallel",
					Usage: "Search for p and q concurrently",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "Output path for the key parameters",
					Required: true,
				},
			},
			Action: GenerateKeys,
		},
		{
			Name:  "sign",
			Usage: "Sign a digest",
			Flags: append([]cli.Flag{
				keyFlag,
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "Output path for the signature",
					Required: true,
				},
			}, digestFlags...),
			Action: SignDigest,
		},
		{
			Name:  "verify",
			Usage: "Verify a signature",
			Flags: []cli.Flag{
				keyFlag,
				&cli.StringFlag{
					Name:     "signature",
					Aliases:  []string{"s"},
					Usage:    "Path to the signature file",
					Required: true,
				},
			},
			Action: VerifySignature,
		},
		{
			Name:  "compile",
			Usage: "Compile the signature verification circuit",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "modulus-bits",
					Aliases: []string{"b"},
					Usage:   "Widest modulus the circuit must accept (512, 1024 or 2048)",
					Value:   2048,
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "Output path for the compiled circuit",
					Required: true,
				},
			},
			Action: CompileCircuit,
		},
		{
			Name:  "setup",
			Usage: "Run the setup ceremony",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "circuit",
					Aliases:  []string{"c"},
					Usage:    "Path to the circuit file",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "proving-key",
					Aliases:  []string{"pk"},
					Usage:    "Output path for the proving key",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "verification-key",
					Aliases:  []string{"vk"},
					Usage:    "Output path for the verification key",
					Required: true,
				},
			},
			Action: SetupCircuit,
		},
		{
			Name:  "contract",
			Usage: "Generate the Solidity verifier contract",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "verification-key",
					Aliases:  []string{"vk"},
					Usage:    "Path to the verification key",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "Output path for the Solidity verifier contract",
					Required: true,
				},
			},
			Action: GenerateContract,
		},
		{
			Name:  "prove",
			Usage: "Prove knowledge of a signature",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "circuit",
					Aliases:  []string{"c"},
					Usage:    "Path to the circuit file",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "proving-key",
					Aliases:  []string{"pk"},
					Usage:    "Path to the proving key",
					Required: true,
				},
				keyFlag,
				&cli.StringFlag{
					Name:     "signature",
					Aliases:  []string{"s"},
					Usage:    "Path to the signature file",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "Output path for the proof file",
					Required: true,
				},
			},
			Action: GenerateProof,
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "textbookrsa",
		Usage: "Textbook RSA key generation, signing and proving",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"TEXTBOOKRSA_LOG_LEVEL"},
			},
		},
		Before: func(cCtx *cli.Context) (err error) {
			logger, err = utils.NewLogger(os.Stderr, cCtx.String("log-level"))
			return err
		},
		Commands: newCommands(),
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// SignatureFile is the on-disk form of a signature together with what it signs.
type SignatureFile struct {
	Digest    hexutil.Bytes  `json:"digest"`
	Signature hexutil.Bytes  `json:"signature"`
	PublicKey keys.PublicKey `json:"public_key"`
}

func GeneratePrime(cCtx *cli.Context) error {
	bits := cCtx.Int("bits")

	gen := keys.NewPrimeGenerator().
		WithMaxIterations(cCtx.Int("max-iterations")).
		WithObserver(utils.PrimeSearchLogger(logger))

	logger.Info().Int("bits", bits).Msg("Searching for a probable prime...")
	p, stats, err := gen.GeneratePrimeWithStats(bits)
	if err != nil {
		return fmt.Errorf("failed to generate prime: %w", err)
	}
	logger.Info().Int("iterations", stats.Iterations).Msg("Prime found")

	fmt.Println(hexutil.EncodeBig(p))
	return nil
}

func GenerateKeys(cCtx *cli.Context) error {
	bits := cCtx.Int("bits")

	gen := keys.NewPrimeGenerator().
		WithMaxIterations(cCtx.Int("max-iterations")).
		WithObserver(utils.PrimeSearchLogger(logger))

	deriver := keys.NewDeriver().
		WithPrimeSource(gen).
		WithPublicExponent(big.NewInt(cCtx.Int64("exponent"))).
		WithParallel(cCtx.Bool("parallel"))

	logger.Info().Int("prime_bits", bits).Msg("Deriving key parameters...")
	kp, err := deriver.Derive(bits)
	if err != nil {
		return fmt.Errorf("failed to derive key parameters: %w", err)
	}
	logger.Info().Int("modulus_bits", kp.N.BitLen()).Msg("Key parameters derived")

	outputPath := cCtx.String("output")
	if err := writeJSON(outputPath, kp, 0600); err != nil {
		return err
	}
	logger.Info().Str("path", outputPath).Msg("Successfully wrote key parameters")

	return nil
}

func SignDigest(cCtx *cli.Context) error {
	kp, err := readKeyParameters(cCtx.String("key"))
	if err != nil {
		return err
	}

	d, err := digestFromFlags(cCtx)
	if err != nil {
		return err
	}

	logger.Info().Msg("Signing digest...")
	sig, err := kp.Sign(d)
	if err != nil {
		return fmt.Errorf("failed to sign digest: %w", err)
	}

	// Signatures are stored at the byte width of n.
	sigBytes, err := utils.PadToSize(sig, utils.ByteLen(kp.N))
	if err != nil {
		return fmt.Errorf("failed to encode signature: %w", err)
	}

	outputPath := cCtx.String("output")
	file := SignatureFile{
		Digest:    d.Bytes(),
		Signature: sigBytes,
		PublicKey: kp.PublicKey(),
	}
	if err := writeJSON(outputPath, file, 0644); err != nil {
		return err
	}
	logger.Info().Str("path", outputPath).Msg("Successfully wrote signature")

	return nil
}

func VerifySignature(cCtx *cli.Context) error {
	kp, err := readKeyParameters(cCtx.String("key"))
	if err != nil {
		return err
	}

	file, err := readSignatureFile(cCtx.String("signature"))
	if err != nil {
		return err
	}

	sig := new(big.Int).SetBytes(file.Signature)
	d := new(big.Int).SetBytes(file.Digest)
	if err := kp.PublicKey().VerifyDigest(sig, d); err != nil {
		return fmt.Errorf("signature is invalid: %w", err)
	}

	fmt.Println("Signature is valid")
	return nil
}

func CompileCircuit(cCtx *cli.Context) error {
	circuit, err := utils.CircuitForBits(cCtx.Int("modulus-bits"))
	if err != nil {
		return err
	}

	logger.Info().Msg("Compiling circuit...")
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return fmt.Errorf("failed to compile circuit: %w", err)
	}
	logger.Info().Int("constraints", cs.GetNbConstraints()).Msg("Compilation done")

	var buf bytes.Buffer
	if _, err := cs.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize circuit: %w", err)
	}

	outputPath := cCtx.String("output")
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info().Str("path", outputPath).Msg("Successfully wrote compiled circuit")

	return nil
}

func SetupCircuit(cCtx *cli.Context) error {
	logger.Info().Msg("Reading circuit...")
	circuitPath := cCtx.String("circuit")
	circuit, err := os.ReadFile(circuitPath)
	if err != nil {
		return fmt.Errorf("failed to read circuit file: %w", err)
	}

	cs := groth16.NewCS(ecc.BN254)
	if _, err := cs.ReadFrom(bytes.NewReader(circuit)); err != nil {
		return fmt.Errorf("failed to parse circuit file: %w", err)
	}

	logger.Info().Msg("Running setup ceremony...")
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("failed to setup circuit: %w", err)
	}

	pkPath := cCtx.String("pk")
	pkBuf := bytes.NewBuffer(nil)
	pk.WriteRawTo(pkBuf)
	if err := os.WriteFile(pkPath, pkBuf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info().Str("path", pkPath).Msg("Successfully wrote proving key")

	vkPath := cCtx.String("vk")
	vkBuf := bytes.NewBuffer(nil)
	vk.WriteRawTo(vkBuf)
	if err := os.WriteFile(vkPath, vkBuf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info().Str("path", vkPath).Msg("Successfully wrote verification key")

	return nil
}

func GenerateContract(cCtx *cli.Context) error {
	logger.Info().Msg("Reading verification key...")
	vkBytes, err := os.ReadFile(cCtx.String("vk"))
	if err != nil {
		return fmt.Errorf("failed to read verification key file: %w", err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return fmt.Errorf("failed to parse verification key: %w", err)
	}

	outputPath := cCtx.String("output")
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create contract file: %w", err)
	}
	defer f.Close()

	if err := vk.ExportSolidity(f); err != nil {
		return fmt.Errorf("failed to export contract: %w", err)
	}
	logger.Info().Str("path", outputPath).Msg("Successfully wrote contract")

	return nil
}

func GenerateProof(cCtx *cli.Context) error {
	kp, err := readKeyParameters(cCtx.String("key"))
	if err != nil {
		return err
	}

	file, err := readSignatureFile(cCtx.String("signature"))
	if err != nil {
		return err
	}

	logger.Info().Msg("Reading circuit...")
	circuit, err := os.ReadFile(cCtx.String("circuit"))
	if err != nil {
		return fmt.Errorf("failed to read circuit file: %w", err)
	}
	cs := groth16.NewCS(ecc.BN254)
	if _, err := cs.ReadFrom(bytes.NewReader(circuit)); err != nil {
		return fmt.Errorf("failed to parse circuit file: %w", err)
	}

	logger.Info().Msg("Generating witness...")
	sig := new(big.Int).SetBytes(file.Signature)
	d := new(big.Int).SetBytes(file.Digest)
	_, witness, err := utils.WitnessForBits(utils.CompiledModulusBits(cs), kp.PublicKey(), d, sig)
	if err != nil {
		return fmt.Errorf("failed to generate witness: %w", err)
	}

	logger.Info().Msg("Reading proving key...")
	pkBytes, err := os.ReadFile(cCtx.String("pk"))
	if err != nil {
		return fmt.Errorf("failed to read proving key file: %w", err)
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(pkBytes)); err != nil {
		return fmt.Errorf("failed to parse proving key: %w", err)
	}

	logger.Info().Msg("Generating proof...")
	proof, err := groth16.Prove(cs, pk, witness)
	if err != nil {
		return fmt.Errorf("failed to generate proof: %w", err)
	}

	proofPath := cCtx.String("output")
	proofBuf := bytes.NewBuffer(nil)
	proof.WriteTo(proofBuf)
	if err := os.WriteFile(proofPath, proofBuf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write proof file: %w", err)
	}
	logger.Info().Str("path", proofPath).Msg("Successfully wrote proof")

	return nil
}

func digestFromFlags(cCtx *cli.Context) (*big.Int, error) {
	digestHex := cCtx.String("digest")
	message := cCtx.String("message")

	switch {
	case digestHex != "" && message != "":
		return nil, fmt.Errorf("--digest and --message are mutually exclusive")
	case digestHex != "":
		d, ok := new(big.Int).SetString(strings.TrimPrefix(digestHex, "0x"), 16)
		if !ok {
			return nil, fmt.Errorf("invalid digest: %q", digestHex)
		}
		return d, nil
	case message != "":
		h, err := digest.ByName(cCtx.String("hash"))
		if err != nil {
			return nil, err
		}
		d, err := h.Digest([]byte(message))
		if err != nil {
			return nil, fmt.Errorf("failed to digest message: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("one of --digest or --message is required")
	}
}

func readKeyParameters(path string) (*keys.KeyParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var kp keys.KeyParameters
	if err := json.Unmarshal(data, &kp); err != nil {
		return nil, fmt.Errorf("failed to parse key file: %w", err)
	}

	return &kp, nil
}

func readSignatureFile(path string) (*SignatureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	var file SignatureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse signature file: %w", err)
	}

	return &file, nil
}

func writeJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
