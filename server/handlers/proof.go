package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/solidity"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/coinbase/smart-wallet/textbookrsa/keys"
	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

// ProofRequest represents the request body for the /proof endpoint
type ProofRequest struct {
	N         hexutil.Bytes `json:"n"`
	Digest    hexutil.Bytes `json:"digest"`
	Signature hexutil.Bytes `json:"signature"`
}

// ProofResponse represents the response body for the /proof endpoint
type ProofResponse struct {
	Proof string `json:"proof"`
}

// LoadCircuitAndProvingKey loads the circuit and proving key from files
func (h *Handlers) LoadCircuitAndProvingKey(circuitPath, pkPath string) error {
	circuit, err := os.ReadFile(circuitPath)
	if err != nil {
		return fmt.Errorf("failed to read circuit file: %w", err)
	}

	cs := groth16.NewCS(ecc.BN254)
	if _, err := cs.ReadFrom(bytes.NewReader(circuit)); err != nil {
		return fmt.Errorf("failed to parse circuit file: %w", err)
	}

	pkBytes, err := os.ReadFile(pkPath)
	if err != nil {
		return fmt.Errorf("failed to read proving key file: %w", err)
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(pkBytes)); err != nil {
		return fmt.Errorf("failed to parse proving key file: %w", err)
	}

	h.cs, h.pk = cs, pk
	h.log.Info().Str("circuit", circuitPath).Str("proving_key", pkPath).Msg("Successfully loaded circuit and proving key")
	return nil
}

// HandleProofRequest handles the /proof endpoint
func (h *Handlers) HandleProofRequest(w http.ResponseWriter, r *http.Request) {
	if h.cs == nil || h.pk == nil {
		h.writeError(w, r, &requestError{status: http.StatusServiceUnavailable, msg: "Proving is not configured"})
		return
	}

	var req ProofRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	proofBytes, err := h.generateProof(
		new(big.Int).SetBytes(req.N),
		new(big.Int).SetBytes(req.Digest),
		new(big.Int).SetBytes(req.Signature),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeResponse(w, ProofResponse{
		Proof: base64.RawURLEncoding.EncodeToString(proofBytes),
	})
}

// generateProof generates a proof for the given inputs
func (h *Handlers) generateProof(n, digest, signature *big.Int) ([]byte, error) {
	publicKey := keys.PublicKey{N: n, E: big.NewInt(keys.DefaultPublicExponent)}
	if err := publicKey.VerifyDigest(signature, digest); err != nil {
		return nil, err
	}

	_, witness, err := utils.WitnessForBits(utils.CompiledModulusBits(h.cs), publicKey, digest, signature)
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: "Failed to generate witness", cause: err}
	}

	proof, err := groth16.Prove(h.cs, h.pk, witness, solidity.WithProverTargetSolidityVerifier(backend.GROTH16))
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof: %w", err)
	}

	proofBuf := bytes.NewBuffer(nil)
	proof.WriteRawTo(proofBuf)

	return proofBuf.Bytes(), nil
}
