package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/coinbase/smart-wallet/textbookrsa/server/handlers"
	"github.com/coinbase/smart-wallet/textbookrsa/utils"
)

// corsMiddleware adds CORS headers to the response
func corsMiddleware(allowedOrigin string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Call the next handler
		next(w, r)
	}
}

func newMux(h *handlers.Handlers, allowedOrigin string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/prime", corsMiddleware(allowedOrigin, h.HandlePrimeRequest))
	mux.HandleFunc("/keys", corsMiddleware(allowedOrigin, h.HandleKeysRequest))
	mux.HandleFunc("/sign", corsMiddleware(allowedOrigin, h.HandleSignRequest))
	mux.HandleFunc("/verify", corsMiddleware(allowedOrigin, h.HandleVerifyRequest))
	mux.HandleFunc("/proof", corsMiddleware(allowedOrigin, h.HandleProofRequest))
	return mux
}

func serve(cCtx *cli.Context) error {
	log, err := utils.NewLogger(os.Stderr, cCtx.String("log-level"))
	if err != nil {
		return err
	}

	cfg := handlers.DefaultConfig()
	cfg.MaxPrimeBits = cCtx.Int("max-prime-bits")
	cfg.MaxIterations = cCtx.Int("max-iterations")

	h := handlers.New(cfg, log)

	circuitPath, pkPath := cCtx.String("circuit"), cCtx.String("proving-key")
	if circuitPath != "" && pkPath != "" {
		if err := h.LoadCircuitAndProvingKey(circuitPath, pkPath); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("No circuit or proving key configured, /proof is disabled")
	}

	port := cCtx.String("port")
	log.Info().Str("port", port).Msg("Server starting")
	if err := http.ListenAndServe(":"+port, newMux(h, cCtx.String("allowed-origin"))); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	app := &cli.App{
		Name:  "textbookrsa-server",
		Usage: "HTTP API for textbook RSA key generation and signing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   "8080",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:    "allowed-origin",
				Usage:   "Value of Access-Control-Allow-Origin",
				Value:   "http://localhost:3000",
				EnvVars: []string{"ALLOWED_ORIGIN"},
			},
			&cli.IntFlag{
				Name:    "max-prime-bits",
				Usage:   "Largest prime bit length a request may ask for",
				Value:   handlers.DefaultConfig().MaxPrimeBits,
				EnvVars: []string{"MAX_PRIME_BITS"},
			},
			&cli.IntFlag{
				Name:    "max-iterations",
				Usage:   "Abort each prime search after this many candidates (0 = unbounded)",
				EnvVars: []string{"MAX_ITERATIONS"},
			},
			&cli.StringFlag{
				Name:    "circuit",
				Usage:   "Path to the compiled circuit, enables /proof",
				EnvVars: []string{"CIRCUIT_PATH"},
			},
			&cli.StringFlag{
				Name:    "proving-key",
				Usage:   "Path to the proving key, enables /proof",
				EnvVars: []string{"PROVING_KEY_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
