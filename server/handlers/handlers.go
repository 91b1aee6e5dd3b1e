package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/rs/zerolog"

	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

// Config bounds the work a single request may ask for.
type Config struct {
	MaxPrimeBits  int
	MaxIterations int
}

// DefaultConfig allows primes of up to 4096 bits with an unbounded search.
func DefaultConfig() Config {
	return Config{
		MaxPrimeBits:  4096,
		MaxIterations: 0,
	}
}

// Handlers serves the key, signing and proof endpoints.
type Handlers struct {
	cfg Config
	log zerolog.Logger

	// Set by LoadCircuitAndProvingKey; /proof is unavailable until then.
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
}

func New(cfg Config, log zerolog.Logger) *Handlers {
	return &Handlers{cfg: cfg, log: log}
}

func (h *Handlers) primeGenerator() *keys.PrimeGenerator {
	return keys.NewPrimeGenerator().WithMaxIterations(h.cfg.MaxIterations)
}

func (h *Handlers) checkPrimeBits(bits int) error {
	if bits > h.cfg.MaxPrimeBits {
		return &requestError{status: http.StatusBadRequest, msg: "Requested bit length exceeds the server limit"}
	}
	return nil
}

type requestError struct {
	status int
	msg    string
	cause  error
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.cause }

// writeError maps core errors onto HTTP statuses and logs the cause.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "Internal error"

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		status, msg = reqErr.status, reqErr.msg
	case errors.Is(err, keys.ErrPreconditionViolation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, keys.ErrNoModularInverse):
		status, msg = http.StatusUnprocessableEntity, "Public exponent is not coprime with phi(n); retry with fresh primes"
	case errors.Is(err, keys.ErrSignatureMismatch):
		status, msg = http.StatusUnprocessableEntity, "Signature does not match digest"
	}

	h.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	http.Error(w, msg, status)
}

func decodeRequest(r *http.Request, v any) error {
	if r.Method != http.MethodPost {
		return &requestError{status: http.StatusMethodNotAllowed, msg: "Method not allowed"}
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &requestError{status: http.StatusBadRequest, msg: "Invalid request body", cause: err}
	}

	return nil
}

func writeResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
