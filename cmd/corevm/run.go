package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/govm-net/corevm/changeset"
	corectx "github.com/govm-net/corevm/context"
	_ "github.com/govm-net/corevm/context/db"
	_ "github.com/govm-net/corevm/context/memory"
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/gas"
	"github.com/govm-net/corevm/host"
	"github.com/govm-net/corevm/oracle"
	"github.com/govm-net/corevm/repository"
	"github.com/govm-net/corevm/runtime"
	"github.com/govm-net/corevm/value"
	"github.com/spf13/cobra"
)

var (
	runAddress    string
	runName       string
	runMethod     string
	runArgsJSON   string
	runSenderName string
	runMaxGas     int64
	runStore      string
	runDBPath     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a deployed contract's method",
	Long: `Load a contract from a repository, bind it under a context name, and
execute one of its methods against a fresh in-memory change set.
Example: corevm run -r /path/to/repo -a <address> -n token -m transfer --args '[100]'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := core.AddressFromString(runAddress)
		if err != nil {
			return fmt.Errorf("invalid contract address: %w", err)
		}

		manager, err := repository.NewManager(repoDir)
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}
		code, err := manager.GetCode(address)
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}

		nexus := host.NewMockNexus()
		nexus.GenesisFlag = true
		nexus.PutContract(runName, address, code.Code)

		chain := host.NewMockChainStore()
		oh := host.NewMockOracleHost()
		interop := host.NewMockInteropResolver()

		reader, err := oracle.New(nexus, chain, oh, 8, 64)
		if err != nil {
			return fmt.Errorf("failed to build oracle reader: %w", err)
		}

		meter := gas.NewMeter()
		meter.MaxGas = runMaxGas

		callArgs, err := decodeCallArgs(runArgsJSON)
		if err != nil {
			return fmt.Errorf("failed to decode args: %w", err)
		}

		tx := host.Transaction{
			Hash: core.Sum([]byte(runName + runMethod + runArgsJSON)),
			From: core.NewAddress(core.KindUser, []byte(runSenderName)),
		}

		root, err := corectx.Get(corectx.StoreType(runStore), map[string]any{"db_path": runDBPath})
		if err != nil {
			return fmt.Errorf("failed to open store backend: %w", err)
		}
		cs := changeset.New(root)
		cfg := runtime.Config{FiatDecimals: 8, ChainAddress: core.SystemAddress("chain")}
		rt := runtime.New(cfg, cs, reader, chain, nexus, interop, host.NewWitnessSet(tx.From), tx, time.Now(), meter, nexus.HasGenesis())

		slog.Info("executing contract", "address", address.String(), "context", runName, "method", runMethod)

		state, result, err := rt.Execute(runName, runMethod, callArgs)
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}

		fmt.Printf("State:    %s\n", state.String())
		fmt.Printf("Gas used: %d\n", meter.UsedGas)
		if got, err := result.AsInteger(); err == nil {
			fmt.Printf("Result:   %s\n", got.String())
		} else if got, err := result.AsString(); err == nil {
			fmt.Printf("Result:   %q\n", got)
		} else {
			fmt.Printf("Result:   %v\n", result)
		}
		return nil
	},
}

func decodeCallArgs(raw string) ([]value.Value, error) {
	if raw == "" {
		return nil, nil
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, value.Int64(int64(v)))
		case string:
			out = append(out, value.String(v))
		case bool:
			out = append(out, value.Bool(v))
		default:
			return nil, fmt.Errorf("unsupported argument type %T", item)
		}
	}
	return out, nil
}

func init() {
	runCmd.Flags().StringVarP(&repoDir, "repo", "r", "", "Repository directory (required)")
	runCmd.Flags().StringVarP(&runAddress, "address", "a", "", "Contract address (required)")
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "Context name to bind the contract under (required)")
	runCmd.Flags().StringVarP(&runMethod, "method", "m", "", "Method name to invoke (required)")
	runCmd.Flags().StringVar(&runArgsJSON, "args", "", "JSON array of arguments (numbers, strings, booleans)")
	runCmd.Flags().StringVar(&runSenderName, "sender", "cli", "Name used to derive the calling user address")
	runCmd.Flags().Int64Var(&runMaxGas, "max-gas", 1_000_000, "Gas budget for this call")
	runCmd.Flags().StringVar(&runStore, "store", "memory", "State store backend: memory or db")
	runCmd.Flags().StringVar(&runDBPath, "db-path", "", "Path to the SQLite database when --store=db")
	runCmd.MarkFlagRequired("repo")
	runCmd.MarkFlagRequired("address")
	runCmd.MarkFlagRequired("name")
	runCmd.MarkFlagRequired("method")
}
