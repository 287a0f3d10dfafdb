package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"execore/core"
	"execore/pkg/config"
	"execore/runtime"
)

var execLog = logrus.WithField("component", "cmd.exec")

func newExecCmd() *cobra.Command {
	var (
		genesisPath string
		accountStr  string
		wasmPath    string
		gasLimit    uint64
		maxPages    uint32
		cacheBytes  uint64
		args        []string
		commit      bool
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "run a wasm module against a genesis snapshot and print the resulting effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.AppConfig
			if gasLimit == 0 {
				gasLimit = cfg.VM.DefaultGasLimit
			}
			if maxPages == 0 {
				maxPages = cfg.VM.MaxWasmPages
			}
			if cacheBytes == 0 {
				cacheBytes = cfg.VM.CacheMaxBytes
			}

			reader, accountKeys, err := loadGenesis(genesisPath)
			if err != nil {
				return err
			}
			account, err := resolveAccount(accountStr, accountKeys)
			if err != nil {
				return err
			}

			code, err := os.ReadFile(wasmPath)
			if err != nil {
				return fmt.Errorf("execore: reading wasm module %s: %w", wasmPath, err)
			}

			argBytes := make([][]byte, len(args))
			for i, a := range args {
				b, err := hex.DecodeString(a)
				if err != nil {
					return fmt.Errorf("execore: arg %d is not hex: %w", i, err)
				}
				argBytes[i] = b
			}

			interp := runtime.NewWasmerInterpreter(cfg.VM.ModuleCacheSize)
			params := runtime.ExecutionParams{
				Account:       account,
				DeployHash:    sha256.Sum256(code),
				Code:          code,
				Args:          argBytes,
				GasLimit:      gasLimit,
				MaxWasmPages:  maxPages,
				CacheMaxBytes: cacheBytes,
			}

			outcome, err := runtime.Exec(interp, reader, params)
			if err != nil {
				execLog.WithError(err).Error("execution failed")
				return err
			}

			printOutcome(outcome)
			if outcome.Effect != nil && commit {
				if err := reader.Commit(outcome.Effect.Transforms); err != nil {
					return fmt.Errorf("execore: committing effect: %w", err)
				}
				fmt.Println("committed effect to", genesisPath, "(in-memory only, not persisted to disk)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to a genesis snapshot YAML file")
	cmd.Flags().StringVar(&accountStr, "account", "", "caller account key (account:<hex>); defaults to the first account in genesis")
	cmd.Flags().StringVar(&wasmPath, "wasm", "", "path to the entry wasm module")
	cmd.Flags().Uint64Var(&gasLimit, "gas", 0, "gas limit for this execution (defaults to config)")
	cmd.Flags().Uint32Var(&maxPages, "max-pages", 0, "max linear memory pages (defaults to config)")
	cmd.Flags().Uint64Var(&cacheBytes, "cache-bytes", 0, "TrackingCopy read-cache budget in bytes (defaults to config)")
	cmd.Flags().StringSliceVar(&args, "arg", nil, "hex-encoded CLValue call argument (repeatable)")
	cmd.Flags().BoolVar(&commit, "commit", false, "apply the resulting effect back to the in-memory snapshot before exiting")
	_ = cmd.MarkFlagRequired("genesis")
	_ = cmd.MarkFlagRequired("wasm")
	return cmd
}

func resolveAccount(accountStr string, accountKeys []core.Key) (core.Key, error) {
	if accountStr != "" {
		return parseKey(accountStr)
	}
	if len(accountKeys) == 0 {
		return core.Key{}, fmt.Errorf("execore: --account not given and genesis defines no accounts")
	}
	return accountKeys[0], nil
}

func printOutcome(outcome *runtime.Outcome) {
	switch outcome.Kind {
	case runtime.TrapNone:
		fmt.Println("outcome: returned normally")
	case runtime.TrapRet:
		fmt.Printf("outcome: ret (%d bytes): %s\n", len(outcome.Result), hex.EncodeToString(outcome.Result))
	case runtime.TrapRevert:
		fmt.Printf("outcome: reverted with code %d\n", outcome.Revert)
	default:
		fmt.Println("outcome: trapped")
	}
	if outcome.Effect != nil {
		printEffect(outcome.Effect)
	}
}

func printEffect(effect *core.ExecutionEffect) {
	keys := effect.Transforms.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	fmt.Printf("effect: %d key(s) touched\n", len(keys))
	for _, k := range keys {
		op, _ := effect.Ops.Get(k)
		transform, _ := effect.Transforms.Get(k)
		fmt.Printf("  %s  op=%s  transform=%s\n", formatKey(k), op, transform.Tag)
	}
}
