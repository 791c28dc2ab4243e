// Package api provides the interfaces for the virtual machine that executes smart contracts.
// This package defines the API between the blockchain and the VM, but is not directly used by smart contracts.
package api

import (
	"fmt"

	"github.com/govm-net/corevm/compiler"
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/security"
)

// VM represents the virtual machine that executes smart contracts
type VM interface {
	// Deploy assembles mnemonic source into bytecode, validates it, and
	// registers it under a content address.
	Deploy(source []byte, dependencies []string) (core.Address, error)

	// Execute executes a function on a deployed contract
	Execute(contract core.Address, function string, args ...[]byte) ([]byte, error)

	// ValidateContract checks that code is valid, in-budget bytecode.
	ValidateContract(code []byte) error
}

// AllowedMnemonics is the whitelist of opcode mnemonics a contract's
// source may use, replacing a Go-source AST keyword restriction with
// the bytecode-assembler equivalent: anything opcode.Lookup resolves
// is inherently in the fixed instruction set. The list is not consulted
// by DefaultKeywordValidator or the assembler, so narrowing it does not
// by itself reject any source.
var AllowedMnemonics = []string{
	"NOP", "ADD", "SUB", "MUL", "DIV", "MOD", "AND", "OR", "XOR", "NOT",
	"EQ", "LT", "GT", "PUSH", "POP", "DUP", "SWAP", "LOAD", "GET", "PUT",
	"JMP", "JMPIF", "CALL", "RET", "SWITCH", "THROW", "CTX", "EXTCALL",
}

// ContractConfig defines configuration for contract validation and execution
type ContractConfig struct {
	// MaxGas is the maximum amount of gas that can be used by a contract
	MaxGas int64

	// MaxCallDepth is the maximum depth of nested CallContext/InvokeTrigger calls
	MaxCallDepth int

	// MaxCodeSize is the maximum size of assembled contract bytecode in bytes
	MaxCodeSize int
}

// DefaultContractConfig returns a default configuration for contracts
func DefaultContractConfig() ContractConfig {
	return ContractConfig{
		MaxGas:       1_000_000,
		MaxCallDepth: security.DefaultMaxCallDepth,
		MaxCodeSize:  compiler.MaxCodeSize,
	}
}

// EngineConfig carries the parameters a running VM instance needs
// beyond a single contract's budget: the chain's fiat decimal
// precision and system address, used by runtime.Config.
type EngineConfig struct {
	FiatDecimals uint8
	ChainAddress core.Address
}

// DefaultKeywordValidator checks that mnemonic source assembles
// cleanly and stays within MaxCodeSize, replacing the teacher's
// go/ast-based statement-kind validator (meaningful only for Go-source
// contracts) with the bytecode-assembler equivalent.
var DefaultKeywordValidator = func(source []byte) error {
	code, err := compiler.Assemble(string(source))
	if err != nil {
		return fmt.Errorf("contract validation failed: %w", err)
	}
	if len(code) > compiler.MaxCodeSize {
		return fmt.Errorf("contract code exceeds maximum size of %d bytes", compiler.MaxCodeSize)
	}
	return nil
}
