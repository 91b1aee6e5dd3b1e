package handlers

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/coinbase/smart-wallet/textbookrsa/digest"
	"github.com/coinbase/smart-wallet/textbookrsa/keys"
	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

// SignRequest represents the request body for the /sign endpoint. Either Digest
// or Message (hashed with Hash, default sha256) must be set.
type SignRequest struct {
	D       hexutil.Bytes `json:"d"`
	N       hexutil.Bytes `json:"n"`
	Digest  hexutil.Bytes `json:"digest,omitempty"`
	Message string        `json:"message,omitempty"`
	Hash    string        `json:"hash,omitempty"`
}

// SignResponse represents the response body for the /sign endpoint
type SignResponse struct {
	Digest    hexutil.Bytes `json:"digest"`
	Signature hexutil.Bytes `json:"signature"`
}

// HandleSignRequest handles the /sign endpoint
func (h *Handlers) HandleSignRequest(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := requestDigest(req.Digest, req.Message, req.Hash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	n := new(big.Int).SetBytes(req.N)
	sig, err := keys.Sign(d, new(big.Int).SetBytes(req.D), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Signatures are encoded at the byte width of n.
	sigBytes, err := utils.PadToSize(sig, utils.ByteLen(n))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeResponse(w, SignResponse{
		Digest:    d.Bytes(),
		Signature: sigBytes,
	})
}

// VerifyRequest represents the request body for the /verify endpoint. Digest is
// optional; without it the recovered digest is returned unchecked and the
// response carries no verdict.
type VerifyRequest struct {
	E         hexutil.Bytes `json:"e"`
	N         hexutil.Bytes `json:"n"`
	Signature hexutil.Bytes `json:"signature"`
	Digest    hexutil.Bytes `json:"digest,omitempty"`
}

// VerifyResponse represents the response body for the /verify endpoint
type VerifyResponse struct {
	Digest hexutil.Bytes `json:"digest"`
	Valid  *bool         `json:"valid,omitempty"`
}

// HandleVerifyRequest handles the /verify endpoint
func (h *Handlers) HandleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	recovered, err := keys.Verify(
		new(big.Int).SetBytes(req.Signature),
		new(big.Int).SetBytes(req.E),
		new(big.Int).SetBytes(req.N),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := VerifyResponse{Digest: recovered.Bytes()}
	if req.Digest != nil {
		valid := recovered.Cmp(new(big.Int).SetBytes(req.Digest)) == 0
		resp.Valid = &valid
	}
	writeResponse(w, resp)
}

func requestDigest(raw hexutil.Bytes, message, hash string) (*big.Int, error) {
	switch {
	case raw != nil && message != "":
		return nil, &requestError{status: http.StatusBadRequest, msg: "digest and message are mutually exclusive"}
	case raw != nil:
		return new(big.Int).SetBytes(raw), nil
	case message != "":
		if hash == "" {
			hash = digest.SHA256{}.Name()
		}
		digester, err := digest.ByName(hash)
		if err != nil {
			return nil, &requestError{status: http.StatusBadRequest, msg: "Unknown hash", cause: err}
		}
		return digester.Digest([]byte(message))
	default:
		return nil, &requestError{status: http.StatusBadRequest, msg: "digest or message is required"}
	}
}
