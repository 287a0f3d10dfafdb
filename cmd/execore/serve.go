package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"execore/core"
	"execore/pkg/config"
	"execore/runtime"
)

// serveCmd exposes an ancillary debug HTTP wrapper around Exec/Query — an
// explicitly out-of-core convenience, mirroring how the teacher's
// virtual_machine.go bootstraps a gorilla/mux server with a token-bucket
// rate limiter in its own main(), outside the core VM types themselves
// (SPEC_FULL.md §B; spec.md §1 excludes an RPC surface from the core).
func newServeCmd() *cobra.Command {
	var (
		genesisPath string
		listenAddr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run a debug HTTP wrapper around Exec/Query (not part of the core library)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.AppConfig
			if listenAddr == "" {
				listenAddr = cfg.Serve.ListenAddr
			}
			reader, accountKeys, err := loadGenesis(genesisPath)
			if err != nil {
				return err
			}

			srv := &debugServer{
				reader:      reader,
				accountKeys: accountKeys,
				interp:      runtime.NewWasmerInterpreter(cfg.VM.ModuleCacheSize),
				cfg:         cfg,
				limiter:     rate.NewLimiter(rate.Limit(cfg.Serve.RateLimitPerSecond), cfg.Serve.RateLimitBurst),
				log:         logrus.WithField("component", "cmd.serve"),
			}

			r := mux.NewRouter()
			r.Use(srv.rateLimit)
			r.HandleFunc("/execute", srv.handleExecute).Methods(http.MethodPost)
			r.HandleFunc("/query", srv.handleQuery).Methods(http.MethodGet)

			httpSrv := &http.Server{
				Addr:         listenAddr,
				Handler:      r,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  30 * time.Second,
			}
			srv.log.Infof("execore debug server listening on %s", listenAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to a genesis snapshot YAML file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (defaults to config)")
	_ = cmd.MarkFlagRequired("genesis")
	return cmd
}

type debugServer struct {
	reader      *core.InMemoryStateReader
	accountKeys []core.Key
	interp      *runtime.WasmerInterpreter
	cfg         config.Config
	limiter     *rate.Limiter
	log         *logrus.Entry
}

func (s *debugServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type executeRequest struct {
	Account  string   `json:"account"`
	WasmHex  string   `json:"wasm_hex"`
	Args     []string `json:"args"`
	GasLimit uint64   `json:"gas_limit"`
}

type executeResponse struct {
	Kind    string            `json:"kind"`
	Result  string            `json:"result,omitempty"`
	Revert  uint32            `json:"revert,omitempty"`
	Effect  map[string]string `json:"effect,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (s *debugServer) handleExecute(w http.ResponseWriter, req *http.Request) {
	var body executeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := resolveAccount(body.Account, s.accountKeys)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, executeResponse{Kind: "error", Error: err.Error()})
		return
	}
	code, err := hex.DecodeString(body.WasmHex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, executeResponse{Kind: "error", Error: "wasm_hex: " + err.Error()})
		return
	}
	args := make([][]byte, len(body.Args))
	for i, a := range body.Args {
		b, err := hex.DecodeString(a)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, executeResponse{Kind: "error", Error: "args: " + err.Error()})
			return
		}
		args[i] = b
	}
	gasLimit := body.GasLimit
	if gasLimit == 0 {
		gasLimit = s.cfg.VM.DefaultGasLimit
	}

	outcome, err := runtime.Exec(s.interp, s.reader, runtime.ExecutionParams{
		Account:       account,
		DeployHash:    sha256.Sum256(code),
		Code:          code,
		Args:          args,
		GasLimit:      gasLimit,
		MaxWasmPages:  s.cfg.VM.MaxWasmPages,
		CacheMaxBytes: s.cfg.VM.CacheMaxBytes,
	})
	if err != nil {
		s.log.WithError(err).Warn("execution failed")
		writeJSON(w, http.StatusUnprocessableEntity, executeResponse{Kind: "error", Error: err.Error()})
		return
	}

	resp := executeResponse{}
	switch outcome.Kind {
	case runtime.TrapNone:
		resp.Kind = "normal"
	case runtime.TrapRet:
		resp.Kind = "ret"
		resp.Result = hex.EncodeToString(outcome.Result)
	case runtime.TrapRevert:
		resp.Kind = "revert"
		resp.Revert = outcome.Revert
	default:
		resp.Kind = "trapped"
	}
	if outcome.Effect != nil {
		resp.Effect = effectToMap(outcome.Effect)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *debugServer) handleQuery(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	base, err := parseKey(q.Get("base"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var path []string
	if p := q.Get("path"); p != "" {
		path = strings.Split(p, "/")
	}
	tc := core.NewTrackingCopy(s.reader, 0)
	value, err := tc.Query(0, base, path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": describeValue(value), "type": value.TypeName()})
}

func effectToMap(effect *core.ExecutionEffect) map[string]string {
	out := make(map[string]string, effect.Transforms.Len())
	for _, k := range effect.Transforms.Keys() {
		t, _ := effect.Transforms.Get(k)
		out[formatKey(k)] = t.Tag.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
