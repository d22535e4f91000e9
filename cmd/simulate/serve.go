package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	core "wasmhost/core"
	appconfig "wasmhost/pkg/config"
)

// serve.go runs the same Driver/Registry pair the one-shot CLI
// commands use behind an HTTP daemon, so a deploy and its later
// invokes land on the same in-memory state. Grounded on the teacher's
// cmd/cli/virtual_machine.go (vmInit/vmHandleStart/vmRateLimit): a
// sync.Once bootstrap that loads .env and config, wires a rate-limited
// gorilla/mux router, and runs the server on its own goroutine so
// "start"/"stop"/"status" can control it from cobra commands.

var (
	simOnce     sync.Once
	simDriver   *core.Driver
	simRegistry *core.Registry
	simSrv      *http.Server
	simLogger   = logrus.StandardLogger()

	simCtx   context.Context
	simStop  context.CancelFunc
	simStart time.Time

	simLimiter *rate.Limiter
)

func simInit(cmd *cobra.Command, _ []string) error {
	var err error
	simOnce.Do(func() {
		_ = godotenv.Load()

		cfg, e := appconfig.LoadFromEnv()
		if e != nil {
			err = e
			return
		}

		lvl, e := logrus.ParseLevel(cfg.Logging.Level)
		if e != nil {
			lvl = logrus.InfoLevel
		}
		simLogger.SetLevel(lvl)
		simLogger.SetFormatter(&logrus.JSONFormatter{})

		simRegistry = core.NewRegistry()
		simDriver = core.NewDriver(simRegistry)
		simLimiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

		r := mux.NewRouter()
		r.Use(simRateLimit)
		r.HandleFunc("/deploy", simDeployHandler).Methods(http.MethodPost)
		r.HandleFunc("/invoke", simInvokeHandler).Methods(http.MethodPost)

		simSrv = &http.Server{
			Addr:         cfg.Server.ListenAddr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  30 * time.Second,
		}
	})
	return err
}

func simRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !simLimiter.Allow() {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type deployRequest struct {
	Version    uint8  `json:"version"`
	Code       string `json:"code"`
	Contract   string `json:"contract"`
	Owner      string `json:"owner"`
	Param      string `json:"param"`
	Amount     uint64 `json:"amount"`
	EnergyLimit uint64 `json:"energy_limit"`
}

func simDeployHandler(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sv, err := parseVersion(int(req.Version))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	code, err := hex.DecodeString(req.Code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner, err := parseAccount(req.Owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	param, err := hex.DecodeString(req.Param)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := core.Deploy(simDriver, simRegistry, sv, code, req.Contract, owner, param, core.Amount(req.Amount), core.ChainMetadata{SlotTime: time.Now().UnixMilli()}, req.EnergyLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Address string          `json:"address"`
		Success bool            `json:"success"`
		Remaining uint64        `json:"remaining"`
	}{result.Address.String(), result.Init.Success, result.Init.Remaining})
}

type invokeRequest struct {
	Index       uint64 `json:"index"`
	Subindex    uint64 `json:"subindex"`
	Entrypoint  string `json:"entrypoint"`
	Param       string `json:"param"`
	Invoker     string `json:"invoker"`
	Amount      uint64 `json:"amount"`
	EnergyLimit uint64 `json:"energy_limit"`
}

func simInvokeHandler(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	param, err := hex.DecodeString(req.Param)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	invoker, err := parseAccount(req.Invoker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	addr := core.ContractAddress{Index: req.Index, Subindex: req.Subindex}
	result, err := core.Invoke(simDriver, simRegistry, addr, req.Entrypoint, param, invoker, core.Amount(req.Amount), core.ChainMetadata{SlotTime: time.Now().UnixMilli()}, req.EnergyLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Success     bool   `json:"success"`
		Trap        bool   `json:"trap"`
		OutOfEnergy bool   `json:"out_of_energy"`
		Remaining   uint64 `json:"remaining"`
		State       string `json:"state,omitempty"`
	}{result.Success, result.Trap, result.OutOfEnergy, result.Remaining, hex.EncodeToString(result.State)})
}

func simHandleStart(cmd *cobra.Command, _ []string) error {
	if simSrv == nil {
		return errors.New("daemon not initialized")
	}
	if simCtx != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "daemon already running")
		return nil
	}
	simCtx, simStop = context.WithCancel(context.Background())
	go func() {
		if err := simSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			simLogger.Fatalf("simulate http: %v", err)
		}
	}()
	simStart = time.Now()
	fmt.Fprintf(cmd.OutOrStdout(), "daemon started on %s\n", simSrv.Addr)
	return nil
}

func simHandleStop(cmd *cobra.Command, _ []string) error {
	if simCtx == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "daemon not running")
		return nil
	}
	simStop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = simSrv.Shutdown(ctx)
	simCtx, simStop = nil, nil
	fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
	return nil
}

func simHandleStatus(cmd *cobra.Command, _ []string) error {
	running := simCtx != nil
	uptime := time.Since(simStart).Truncate(time.Second)
	fmt.Fprintf(cmd.OutOrStdout(), "running: %v\nlisten: %s\nuptime: %s\n", running, simSrv.Addr, uptime)
	return nil
}

func serveCmd() *cobra.Command {
	root := &cobra.Command{Use: "serve", Short: "run the execution host as an HTTP daemon", PersistentPreRunE: simInit}
	root.AddCommand(&cobra.Command{Use: "start", Short: "start the daemon", Args: cobra.NoArgs, RunE: simHandleStart})
	root.AddCommand(&cobra.Command{Use: "stop", Short: "stop the daemon", Args: cobra.NoArgs, RunE: simHandleStop})
	root.AddCommand(&cobra.Command{Use: "status", Short: "show daemon status", Args: cobra.NoArgs, RunE: simHandleStatus})
	return root
}
