// Package repository manages on-disk, hash-addressed contract
// bytecode: one directory per contract address holding the assembled
// opcode bytes and a small JSON metadata sidecar.
package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/govm-net/corevm/core"
)

// Manager owns a root directory of contract code, one subdirectory per
// address.
type Manager struct {
	rootDir string
}

// ContractCode is one contract's assembled bytecode and bookkeeping.
type ContractCode struct {
	Address      core.Address
	Code         []byte
	Dependencies []string
	UpdateTime   time.Time
	Hash         [32]byte
}

// ContractMetadata is the JSON sidecar stored alongside a contract's
// bytecode file.
type ContractMetadata struct {
	Hash         string    `json:"hash"`
	UpdateTime   time.Time `json:"update_time"`
	Dependencies []string  `json:"dependencies"`
}

// NewManager returns a Manager rooted at rootDir, creating it if
// necessary.
func NewManager(rootDir string) (*Manager, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		slog.Error("failed to create root directory", "dir", rootDir, "error", err)
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &Manager{rootDir: rootDir}, nil
}

// RegisterCode persists already-assembled code under address. It fails
// if the address already has registered code.
func (m *Manager) RegisterCode(address core.Address, code []byte, dependencies []string) error {
	contractDir := m.getContractDir(address)
	if _, err := os.Stat(contractDir); err == nil {
		return fmt.Errorf("contract already exists: %s", address)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check contract directory: %w", err)
	}

	hash := sha256.Sum256(code)

	if err := os.MkdirAll(contractDir, 0755); err != nil {
		return fmt.Errorf("failed to create contract directory: %w", err)
	}

	contractCode := &ContractCode{
		Address:      address,
		Code:         code,
		Dependencies: dependencies,
		UpdateTime:   time.Now(),
		Hash:         hash,
	}

	if err := m.saveContractFiles(contractCode); err != nil {
		os.RemoveAll(contractDir)
		return fmt.Errorf("failed to save contract files: %w", err)
	}

	return nil
}

// GetCode loads a contract's bytecode and metadata.
func (m *Manager) GetCode(address core.Address) (*ContractCode, error) {
	return m.loadContractCode(address)
}

// GetBytecode returns just the assembled opcode bytes for address.
func (m *Manager) GetBytecode(address core.Address) ([]byte, error) {
	code, err := m.GetCode(address)
	if err != nil {
		return nil, err
	}
	return code.Code, nil
}

func (m *Manager) getContractDir(address core.Address) string {
	return filepath.Join(m.rootDir, address.String())
}

func (m *Manager) saveContractFiles(code *ContractCode) error {
	dir := m.getContractDir(code.Address)

	if err := os.WriteFile(filepath.Join(dir, "code.bin"), code.Code, 0644); err != nil {
		return fmt.Errorf("failed to save bytecode: %w", err)
	}

	metadata := ContractMetadata{
		Hash:         hex.EncodeToString(code.Hash[:]),
		UpdateTime:   code.UpdateTime,
		Dependencies: code.Dependencies,
	}

	metadataBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metadataBytes, 0644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

func (m *Manager) loadContractCode(address core.Address) (*ContractCode, error) {
	dir := m.getContractDir(address)

	code, err := os.ReadFile(filepath.Join(dir, "code.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode: %w", err)
	}

	metadataBytes, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata ContractMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	hashBytes, err := hex.DecodeString(metadata.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid hash in metadata: %w", err)
	}
	var hash [32]byte
	copy(hash[:], hashBytes)

	return &ContractCode{
		Address:      address,
		Code:         code,
		Dependencies: metadata.Dependencies,
		UpdateTime:   metadata.UpdateTime,
		Hash:         hash,
	}, nil
}
