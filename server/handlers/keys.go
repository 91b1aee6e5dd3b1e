package handlers

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

// PrimeRequest represents the request body for the /prime endpoint
type PrimeRequest struct {
	Bits int `json:"bits"`
}

// PrimeResponse represents the response body for the /prime endpoint
type PrimeResponse struct {
	Prime      hexutil.Bytes `json:"prime"`
	Iterations int           `json:"iterations"`
}

// HandlePrimeRequest handles the /prime endpoint
func (h *Handlers) HandlePrimeRequest(w http.ResponseWriter, r *http.Request) {
	var req PrimeRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.checkPrimeBits(req.Bits); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, stats, err := h.primeGenerator().GeneratePrimeWithStats(req.Bits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Debug().Int("bits", req.Bits).Int("iterations", stats.Iterations).Msg("Generated prime")
	writeResponse(w, PrimeResponse{
		Prime:      p.Bytes(),
		Iterations: stats.Iterations,
	})
}

// KeysRequest represents the request body for the /keys endpoint
type KeysRequest struct {
	PrimeBits int           `json:"prime_bits"`
	Exponent  hexutil.Bytes `json:"exponent,omitempty"`
	Parallel  bool          `json:"parallel,omitempty"`
}

// HandleKeysRequest handles the /keys endpoint. The response carries the
// secret exponent; the server keeps nothing.
func (h *Handlers) HandleKeysRequest(w http.ResponseWriter, r *http.Request) {
	var req KeysRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.checkPrimeBits(req.PrimeBits); err != nil {
		h.writeError(w, r, err)
		return
	}

	deriver := keys.NewDeriver().
		WithPrimeSource(h.primeGenerator()).
		WithParallel(req.Parallel)
	if len(req.Exponent) > 0 {
		deriver = deriver.WithPublicExponent(new(big.Int).SetBytes(req.Exponent))
	}

	kp, err := deriver.Derive(req.PrimeBits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Debug().Int("modulus_bits", kp.N.BitLen()).Msg("Derived key parameters")
	writeResponse(w, kp)
}
