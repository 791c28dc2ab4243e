package main

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/govm-net/corevm/api"
	"github.com/govm-net/corevm/compiler"
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/repository"
	"github.com/spf13/cobra"
)

var (
	sourceFile   string
	repoDir      string
	dependencies string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Assemble and deploy a contract",
	Long: `Assemble mnemonic bytecode source and register it in a code repository.
Example: corevm deploy -f contract.asm -r /path/to/repo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(sourceFile)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}

		if err := api.DefaultKeywordValidator(source); err != nil {
			return err
		}

		code, err := compiler.Assemble(string(source))
		if err != nil {
			return fmt.Errorf("failed to assemble contract: %w", err)
		}

		hash := sha256.Sum256(code)
		address := core.NewAddress(core.KindSystem, hash[:])

		manager, err := repository.NewManager(repoDir)
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}

		var deps []string
		if dependencies != "" {
			deps = strings.Split(dependencies, ",")
		}

		if err := manager.RegisterCode(address, code, deps); err != nil {
			return fmt.Errorf("failed to register contract: %w", err)
		}

		slog.Info("contract deployed", "address", address.String(), "size", len(code))
		fmt.Printf("Contract deployed successfully!\n")
		fmt.Printf("Contract address: %s\n", address.String())
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVarP(&sourceFile, "file", "f", "", "Mnemonic source file of the contract (required)")
	deployCmd.Flags().StringVarP(&repoDir, "repo", "r", "", "Repository directory (required)")
	deployCmd.Flags().StringVarP(&dependencies, "deps", "d", "", "Comma-separated contract names this contract depends on")
	deployCmd.MarkFlagRequired("file")
	deployCmd.MarkFlagRequired("repo")
}
