package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/govm-net/corevm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(seed string) core.Address {
	return core.NewAddress(core.KindSystem, []byte(seed))
}

func TestRegisterAndGetCode(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "code_manager_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	addr := testAddress("counter")
	code := []byte{0x01, 0x02, 0x03, 0x04}
	deps := []string{testAddress("ledger").String()}

	err = manager.RegisterCode(addr, code, deps)
	require.NoError(t, err)

	contractDir := filepath.Join(tmpDir, addr.String())
	assert.DirExists(t, contractDir)
	assert.FileExists(t, filepath.Join(contractDir, "code.bin"))
	assert.FileExists(t, filepath.Join(contractDir, "metadata.json"))

	contractCode, err := manager.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, code, contractCode.Code)
	assert.Equal(t, deps, contractCode.Dependencies)

	bytecode, err := manager.GetBytecode(addr)
	require.NoError(t, err)
	assert.Equal(t, code, bytecode)
}

func TestContractImmutability(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "code_manager_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	addr := testAddress("vault")
	code := []byte{0x10, 0x20}

	err = manager.RegisterCode(addr, code, nil)
	require.NoError(t, err)

	newCode := []byte{0x30, 0x40}
	err = manager.RegisterCode(addr, newCode, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "contract already exists")

	contractCode, err := manager.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, code, contractCode.Code)

	onDisk, err := os.ReadFile(filepath.Join(tmpDir, addr.String(), "code.bin"))
	require.NoError(t, err)
	assert.Equal(t, code, onDisk)
}

func TestGetCodeMissingContractErrors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "code_manager_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	_, err = manager.GetCode(testAddress("ghost"))
	assert.Error(t, err)
}
