package main

import (
	"fmt"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/repository"
	"github.com/spf13/cobra"
)

var inspectAddress string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a deployed contract's metadata",
	Long: `Print a deployed contract's stored size, hash and dependencies.
Example: corevm inspect -a <address> -r /path/to/repo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := core.AddressFromString(inspectAddress)
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

		fmt.Printf("Address:      %s\n", code.Address.String())
		fmt.Printf("Size:         %d bytes\n", len(code.Code))
		fmt.Printf("Hash:         %x\n", code.Hash)
		fmt.Printf("Updated:      %s\n", code.UpdateTime.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("Dependencies: %v\n", code.Dependencies)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectAddress, "address", "a", "", "Contract address (required)")
	inspectCmd.Flags().StringVarP(&repoDir, "repo", "r", "", "Repository directory (required)")
	inspectCmd.MarkFlagRequired("address")
	inspectCmd.MarkFlagRequired("repo")
}
